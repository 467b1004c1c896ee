package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"bidhouse/internal/auctionerrors"
	model "bidhouse/internal/models"
	"bidhouse/utils"

	"github.com/gin-gonic/gin"
)

// CurrentUserKey is the gin context key under which the auth middleware
// stores the resolved user.
const CurrentUserKey = "currentUser"

// CurrentUser returns the authenticated user set by the auth middleware.
func CurrentUser(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return model.User{}, false
	}
	user, ok := v.(model.User)
	return user, ok
}

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, "validation_error", wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to an HTTP status code, a
// machine-readable kind, and a human-readable message.
func MapErrorToHTTP(err error) (int, string, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrValidation):
		return http.StatusBadRequest, "validation_error", "invalid input"
	case errors.Is(err, auctionerrors.ErrItemNotFound):
		return http.StatusNotFound, "not_found", "item not found"
	case errors.Is(err, auctionerrors.ErrUserNotFound):
		return http.StatusNotFound, "not_found", "user not found"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusNotFound, "no_bids", "no bids found for item"
	case errors.Is(err, auctionerrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "could not validate credentials"
	case errors.Is(err, auctionerrors.ErrForbidden):
		return http.StatusForbidden, "forbidden", "admin access required"
	case errors.Is(err, auctionerrors.ErrAuctionClosed):
		return http.StatusConflict, "auction_closed", "auction for this item is closed or inactive"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid_too_low", "bid amount too low"
	case errors.Is(err, auctionerrors.ErrTooEarly):
		return http.StatusConflict, "too_early", "auction period is not over yet"
	case errors.Is(err, auctionerrors.ErrAlreadyClosed):
		return http.StatusConflict, "already_closed", "auction already closed"
	case errors.Is(err, auctionerrors.ErrConflict):
		return http.StatusConflict, "conflict", "concurrent update conflict, please retry"
	default:
		return http.StatusInternalServerError, "internal", "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

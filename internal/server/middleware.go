package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	model "bidhouse/internal/models"
	"bidhouse/services/auction/helpers"
	"bidhouse/utils"

	"github.com/gin-gonic/gin"
)

// UserResolver resolves a bearer token to a user identity.
type UserResolver interface {
	CurrentUser(accessToken string) (model.User, error)
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     c.Writer.Status(),
		"latency":    time.Since(start).String(),
		"request_id": c.GetString(requestIDKey),
	})
}

const requestIDKey = "requestID"

// RequestIDMiddleware tags every request with a unique id for log correlation.
func RequestIDMiddleware(c *gin.Context) {
	id := utils.GenerateRequestID()
	c.Set(requestIDKey, id)
	c.Header("X-Request-ID", id)
	c.Next()
}

// AuthRequired resolves the Authorization bearer token to a user and stores
// it in the request context. Requests without a valid token are rejected.
func AuthRequired(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing bearer token"), "could not validate credentials")
			c.Abort()
			return
		}

		user, err := resolver.CurrentUser(token)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized", err, "could not validate credentials")
			c.Abort()
			return
		}

		c.Set(helpers.CurrentUserKey, user)
		c.Next()
	}
}

// AdminRequired rejects authenticated users without the admin flag. Must run
// after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := helpers.CurrentUser(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing identity"), "could not validate credentials")
			c.Abort()
			return
		}
		if !user.IsAdmin {
			utils.JSONError(c, http.StatusForbidden, "forbidden", fmt.Errorf("user %d is not an admin", user.ID), "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

package handler

import (
	"net/http"

	model "bidhouse/internal/models"
	"bidhouse/services/auction/helpers"
	"bidhouse/utils"

	"github.com/gin-gonic/gin"
)

type IdentityServiceInterface interface {
	Register(username, password string, isAdmin bool) (model.User, error)
	Login(username, password string) (string, error)
}

type UserHandler struct {
	identity IdentityServiceInterface
}

func NewUserHandler(identity IdentityServiceInterface) *UserHandler {
	return &UserHandler{identity: identity}
}

// RegisterHandler handles POST /api/users
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	user, err := h.identity.Register(req.Username, req.Password, req.IsAdmin)
	if err != nil {
		status, kind, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, kind, err, message)
		utils.Warn("RegisterHandler: failed to register user", map[string]any{
			"username": req.Username,
			"error":    err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, user, "user registered successfully")
	helpers.LogSuccess("RegisterHandler", "user registered successfully", map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
	})
}

// LoginHandler handles POST /api/token
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	token, err := h.identity.Login(req.Username, req.Password)
	if err != nil {
		status, kind, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, kind, err, message)
		utils.Warn("LoginHandler: failed login attempt", map[string]any{"username": req.Username})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	}, "login successful")
}

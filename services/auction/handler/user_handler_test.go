package handler

import (
	"net/http"
	"testing"

	"bidhouse/internal/auctionerrors"
	model "bidhouse/internal/models"
	"bidhouse/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func TestRegisterHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockIdentity := NewMockIdentityServiceInterface(ctrl)
	handler := NewUserHandler(mockIdentity)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/users", handler.RegisterHandler)

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func()
		expectedStatus int
		expectedKind   string
	}{
		{
			name:        "success",
			requestBody: helpers.RegisterRequest{Username: "alice", Password: "s3cretpass"},
			mockSetup: func() {
				mockIdentity.EXPECT().
					Register("alice", "s3cretpass", false).
					Return(model.User{ID: 1, Username: "alice"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "success_admin",
			requestBody: helpers.RegisterRequest{Username: "boss", Password: "s3cretpass", IsAdmin: true},
			mockSetup: func() {
				mockIdentity.EXPECT().
					Register("boss", "s3cretpass", true).
					Return(model.User{ID: 2, Username: "boss", IsAdmin: true}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing_password",
			requestBody:    map[string]any{"username": "alice"},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "validation_error",
		},
		{
			name:        "duplicate_username",
			requestBody: helpers.RegisterRequest{Username: "alice", Password: "s3cretpass"},
			mockSetup: func() {
				mockIdentity.EXPECT().
					Register("alice", "s3cretpass", false).
					Return(model.User{}, auctionerrors.ErrValidation)
			},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "validation_error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			w, resp := doRequest(t, router, http.MethodPost, "/api/users", tc.requestBody)

			require.Equal(t, tc.expectedStatus, w.Code)
			if tc.expectedKind != "" {
				require.Equal(t, tc.expectedKind, resp["kind"])
			}
			if w.Code == http.StatusCreated {
				data := resp["data"].(map[string]any)
				require.NotContains(t, data, "password_hash")
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockIdentity := NewMockIdentityServiceInterface(ctrl)
	handler := NewUserHandler(mockIdentity)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/token", handler.LoginHandler)

	t.Run("success_returns_bearer_token", func(t *testing.T) {
		mockIdentity.EXPECT().Login("alice", "s3cretpass").Return("signed.jwt.token", nil)

		w, resp := doRequest(t, router, http.MethodPost, "/api/token", helpers.LoginRequest{
			Username: "alice", Password: "s3cretpass",
		})

		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]any)
		require.Equal(t, "signed.jwt.token", data["access_token"])
		require.Equal(t, "bearer", data["token_type"])
	})

	t.Run("wrong_password", func(t *testing.T) {
		mockIdentity.EXPECT().Login("alice", "wrong").Return("", auctionerrors.ErrUnauthorized)

		w, resp := doRequest(t, router, http.MethodPost, "/api/token", helpers.LoginRequest{
			Username: "alice", Password: "wrong",
		})

		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, "unauthorized", resp["kind"])
	})

	t.Run("missing_fields", func(t *testing.T) {
		w, resp := doRequest(t, router, http.MethodPost, "/api/token", map[string]any{})

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "validation_error", resp["kind"])
	})
}

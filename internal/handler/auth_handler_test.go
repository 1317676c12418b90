package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/eaglebank/eagle-bank-api/internal/apperror"
	"github.com/eaglebank/eagle-bank-api/internal/cqrs"
	"github.com/gin-gonic/gin"
)

// ---- mock implementation ----

type mockAuthQuerier struct {
	loginFn   func(cqrs.LoginCommand) (string, error)
	refreshFn func(cqrs.RefreshTokenCommand) (string, error)
}

func (m *mockAuthQuerier) Login(_ context.Context, cmd cqrs.LoginCommand) (string, error) {
	if m.loginFn != nil {
		return m.loginFn(cmd)
	}
	return "", fmt.Errorf("not configured")
}
func (m *mockAuthQuerier) RefreshToken(_ context.Context, cmd cqrs.RefreshTokenCommand) (string, error) {
	if m.refreshFn != nil {
		return m.refreshFn(cmd)
	}
	return "", fmt.Errorf("not configured")
}

// ---- helper ----

func newAuthTestRouter(qrys AuthQuerier) *gin.Engine {
	r := newTestEngine("")
	h := NewAuthHandler(qrys, nil)
	v1 := r.Group("/v1/auth")
	v1.POST("/login", h.Login)
	v1.POST("/refresh", h.RefreshToken)
	return r
}

// ---- tests ----

func TestLogin(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		loginFn        func(cqrs.LoginCommand) (string, error)
		expectedStatus int
	}{
		{
			name:           "success - valid credentials",
			body:           map[string]string{"email": "jane@example.com", "password": "s3cretpass"},
			loginFn:        func(cqrs.LoginCommand) (string, error) { return "signed.jwt.token", nil },
			expectedStatus: http.StatusOK,
		},
		{
			name: "unauthorized - wrong password",
			body: map[string]string{"email": "jane@example.com", "password": "nope"},
			loginFn: func(cqrs.LoginCommand) (string, error) {
				return "", apperror.New(apperror.Unauthorized, "Invalid credentials")
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "bad request - invalid email",
			body:           map[string]string{"email": "jane", "password": "s3cretpass"},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(&mockAuthQuerier{loginFn: tt.loginFn})
			w := doRequest(router, http.MethodPost, "/v1/auth/login", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestRefreshToken(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		refreshFn      func(cqrs.RefreshTokenCommand) (string, error)
		expectedStatus int
	}{
		{
			name:           "success - refresh valid token",
			body:           map[string]string{"token": "old.jwt.token"},
			refreshFn:      func(cqrs.RefreshTokenCommand) (string, error) { return "new.jwt.token", nil },
			expectedStatus: http.StatusOK,
		},
		{
			name: "unauthorized - expired token",
			body: map[string]string{"token": "expired"},
			refreshFn: func(cqrs.RefreshTokenCommand) (string, error) {
				return "", apperror.New(apperror.Unauthorized, "Invalid token")
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "bad request - missing token",
			body:           map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(&mockAuthQuerier{refreshFn: tt.refreshFn})
			w := doRequest(router, http.MethodPost, "/v1/auth/refresh", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

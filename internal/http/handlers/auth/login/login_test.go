package login

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/finletter/internal/config"
	"github.com/magabrotheeeer/finletter/internal/models"
	authservice "github.com/magabrotheeeer/finletter/internal/services/auth"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Login(ctx context.Context, email, password string) (*authservice.Issued, error) {
	args := m.Called(ctx, email, password)
	issued, _ := args.Get(0).(*authservice.Issued)
	return issued, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	issued := &authservice.Issued{
		Token:     "tok",
		ExpiresAt: time.Now().Add(time.Hour),
		Session:   &models.Session{UserUID: "u1", Email: "user1@example.com", Role: models.RoleUser, Plan: models.PlanPremium, Status: models.StatusActive},
	}

	tests := []struct {
		name           string
		requestBody    any
		mockResp       *authservice.Issued
		mockErr        error
		expectCall     bool
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "valid login",
			requestBody:    Request{Email: "user1@example.com", Password: "password123"},
			mockResp:       issued,
			expectCall:     true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name:           "validation error",
			requestBody:    Request{Email: "user1@example.com"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field Password is a required field",
		},
		{
			name:           "wrong password",
			requestBody:    Request{Email: "user1@example.com", Password: "nope"},
			mockErr:        models.ErrInvalidCredentials,
			expectCall:     true,
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "invalid credentials",
		},
		{
			name:           "inactive user",
			requestBody:    Request{Email: "user1@example.com", Password: "password123"},
			mockErr:        models.ErrUserInactive,
			expectCall:     true,
			wantStatusCode: http.StatusForbidden,
			wantError:      "user is inactive",
		},
		{
			name:           "внутренняя ошибка",
			requestBody:    Request{Email: "user1@example.com", Password: "password123"},
			mockErr:        errors.New("db down"),
			expectCall:     true,
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			if tt.expectCall {
				authMock.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(tt.mockResp, tt.mockErr).Once()
			}
			handler := New(newNoopLogger(), authMock, config.SessionCookie{CookieName: "session"})

			var bodyBytes []byte
			if s, ok := tt.requestBody.(string); ok {
				bodyBytes = []byte(s)
			} else {
				bodyBytes, _ = json.Marshal(tt.requestBody)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			var got map[string]any
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
				assert.Empty(t, rec.Result().Cookies())
			} else {
				data := got["data"].(map[string]any)
				assert.Equal(t, "tok", data["token"])
				session := data["session"].(map[string]any)
				assert.Equal(t, "PREMIUM", session["subscriptionPlan"])
				cookies := rec.Result().Cookies()
				if assert.Len(t, cookies, 1) {
					assert.Equal(t, "tok", cookies[0].Value)
					assert.True(t, cookies[0].HttpOnly)
				}
			}
			authMock.AssertExpectations(t)
		})
	}
}

package read

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/finletter/internal/models"
	contentservice "github.com/magabrotheeeer/finletter/internal/services/content"
)

type FeedServiceMock struct {
	mock.Mock
}

func (m *FeedServiceMock) Read(ctx context.Context, session *models.Session, kind models.ContentKind,
	id int) (*models.Content, error) {
	args := m.Called(ctx, session, kind, id)
	item, _ := args.Get(0).(*models.Content)
	return item, args.Error(1)
}

func TestReadHandler_ServeHTTP(t *testing.T) {
	reader := &models.Session{UserUID: "u1", Role: models.RoleUser, Plan: models.PlanFree}

	tests := []struct {
		name           string
		mockResp       *models.Content
		mockErr        error
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "open content",
			mockResp:       &models.Content{ID: 2, Title: "Обзор", Body: "Текст", Status: models.ContentPublished},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "премиум без подписки",
			mockErr:        fmt.Errorf("content.Read: %w", contentservice.ErrLocked),
			wantStatusCode: http.StatusForbidden,
			wantError:      "premium subscription required",
		},
		{
			name:           "not published",
			mockErr:        fmt.Errorf("content.Read: %w", models.ErrNotFound),
			wantStatusCode: http.StatusNotFound,
			wantError:      "not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(FeedServiceMock)
			svc.On("Read", mock.Anything, reader, models.KindAnalysis, 2).Return(tt.mockResp, tt.mockErr).Once()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/feed/analyses/2", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("kind", "analyses")
			rctx.URLParams.Add("id", "2")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithSession(ctx, reader))
			rec := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.Equal(t, "Текст", got["data"].(map[string]any)["body"])
			}
			svc.AssertExpectations(t)
		})
	}
}

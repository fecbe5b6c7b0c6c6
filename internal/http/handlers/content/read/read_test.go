package read

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/finletter/internal/models"
)

type ContentServiceMock struct {
	mock.Mock
}

func (m *ContentServiceMock) Get(ctx context.Context, kind models.ContentKind, id int) (*models.Content, error) {
	args := m.Called(ctx, kind, id)
	item, _ := args.Get(0).(*models.Content)
	return item, args.Error(1)
}

func TestReadHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		kind           string
		id             string
		mockResp       *models.Content
		mockErr        error
		expectCall     bool
		wantStatusCode int
	}{
		{name: "draft visible to editors", kind: "newsletters", id: "5", mockResp: &models.Content{ID: 5, Status: models.ContentDraft}, expectCall: true, wantStatusCode: http.StatusOK},
		{name: "not found", kind: "newsletters", id: "5", mockErr: models.ErrNotFound, expectCall: true, wantStatusCode: http.StatusNotFound},
		{name: "storage error", kind: "newsletters", id: "5", mockErr: errors.New("timeout"), expectCall: true, wantStatusCode: http.StatusInternalServerError},
		{name: "нулевой id", kind: "newsletters", id: "0", wantStatusCode: http.StatusBadRequest},
		{name: "unknown kind", kind: "videos", id: "5", wantStatusCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ContentServiceMock)
			if tt.expectCall {
				svc.On("Get", mock.Anything, models.KindNewsletter, 5).Return(tt.mockResp, tt.mockErr).Once()
			}
			req := httptest.NewRequest(http.MethodGet, "/api/v1/content/"+tt.kind+"/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("kind", tt.kind)
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			rec := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

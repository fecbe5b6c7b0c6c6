package remove

import (
	"context"
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

func (m *ContentServiceMock) Remove(ctx context.Context, kind models.ContentKind, id int) error {
	return m.Called(ctx, kind, id).Error(0)
}

func TestRemoveHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		mockErr        error
		wantStatusCode int
	}{
		{name: "removed", wantStatusCode: http.StatusOK},
		{name: "not found", mockErr: models.ErrNotFound, wantStatusCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ContentServiceMock)
			svc.On("Remove", mock.Anything, models.KindSelection, 4).Return(tt.mockErr).Once()

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/content/selections/4", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("kind", "selections")
			rctx.URLParams.Add("id", "4")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			rec := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

package update

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/finletter/internal/models"
)

type ContentServiceMock struct {
	mock.Mock
}

func (m *ContentServiceMock) Update(ctx context.Context, kind models.ContentKind, id int,
	req models.DummyContent) (*models.Content, error) {
	args := m.Called(ctx, kind, id, req)
	item, _ := args.Get(0).(*models.Content)
	return item, args.Error(1)
}

func newRequest(body []byte) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/content/analyses/9", bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("kind", "analyses")
	rctx.URLParams.Add("id", "9")
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestUpdateHandler_ServeHTTP(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	patch := models.DummyContent{Title: "Новый заголовок", Body: "Новый текст"}

	t.Run("updated", func(t *testing.T) {
		svc := new(ContentServiceMock)
		svc.On("Update", mock.Anything, models.KindAnalysis, 9, patch).
			Return(&models.Content{ID: 9, Title: patch.Title}, nil).Once()
		body, _ := json.Marshal(patch)
		rec := httptest.NewRecorder()

		New(log, svc).ServeHTTP(rec, newRequest(body))

		require.Equal(t, http.StatusOK, rec.Code)
		var got map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, patch.Title, got["data"].(map[string]any)["title"])
		svc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(ContentServiceMock)
		svc.On("Update", mock.Anything, models.KindAnalysis, 9, patch).Return(nil, models.ErrNotFound).Once()
		body, _ := json.Marshal(patch)
		rec := httptest.NewRecorder()

		New(log, svc).ServeHTTP(rec, newRequest(body))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("пустое тело материала", func(t *testing.T) {
		svc := new(ContentServiceMock)
		body, _ := json.Marshal(models.DummyContent{Title: "x"})
		rec := httptest.NewRecorder()

		New(log, svc).ServeHTTP(rec, newRequest(body))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		svc.AssertNotCalled(t, "Update")
	})
}

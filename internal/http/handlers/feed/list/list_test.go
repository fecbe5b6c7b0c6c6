package list

import (
	"context"
	"encoding/json"
	"errors"
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
)

type FeedServiceMock struct {
	mock.Mock
}

func (m *FeedServiceMock) Feed(ctx context.Context, session *models.Session, kind models.ContentKind,
	limit, offset int) ([]models.FeedItem, error) {
	args := m.Called(ctx, session, kind, limit, offset)
	items, _ := args.Get(0).([]models.FeedItem)
	return items, args.Error(1)
}

func newRequest(target string, session *models.Session) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("kind", "newsletters")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(middlewarectx.WithSession(ctx, session))
}

func TestFeedHandler_ServeHTTP(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reader := &models.Session{UserUID: "u1", Role: models.RoleUser, Plan: models.PlanFree}

	t.Run("locked items keep summary", func(t *testing.T) {
		svc := new(FeedServiceMock)
		svc.On("Feed", mock.Anything, reader, models.KindNewsletter, 5, 0).Return([]models.FeedItem{
			{Content: models.Content{ID: 1, Title: "Открытый", Body: "Текст"}},
			{Content: models.Content{ID: 2, Title: "Премиум", Summary: "Кратко", IsPremium: true}, Locked: true},
		}, nil).Once()

		rec := httptest.NewRecorder()
		New(log, svc).ServeHTTP(rec, newRequest("/api/v1/feed/newsletters?limit=5", reader))

		require.Equal(t, http.StatusOK, rec.Code)
		var got struct {
			Data []map[string]any `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		require.Len(t, got.Data, 2)
		assert.Equal(t, false, got.Data[0]["locked"])
		assert.Equal(t, true, got.Data[1]["locked"])
		assert.Equal(t, "Кратко", got.Data[1]["summary"])
		assert.NotContains(t, got.Data[1], "body")
		svc.AssertExpectations(t)
	})

	t.Run("ошибка хранилища", func(t *testing.T) {
		svc := new(FeedServiceMock)
		svc.On("Feed", mock.Anything, reader, models.KindNewsletter, 20, 0).Return(nil, errors.New("db down")).Once()

		rec := httptest.NewRecorder()
		New(log, svc).ServeHTTP(rec, newRequest("/api/v1/feed/newsletters", reader))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

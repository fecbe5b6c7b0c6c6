package params

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/finletter/internal/models"
)

func withURLParams(r *http.Request, kv map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range kv {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestKindAndID(t *testing.T) {
	r := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"kind": "analyses", "id": "42"})

	kind, ok := Kind(r)
	require.True(t, ok)
	assert.Equal(t, models.KindAnalysis, kind)

	id, err := ID(r)
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	bad := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"kind": "posts", "id": "-1"})
	_, ok = Kind(bad)
	assert.False(t, ok)
	_, err = ID(bad)
	assert.ErrorIs(t, err, ErrBadID)
}

func TestPage(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{query: "", wantLimit: DefaultLimit},
		{query: "?limit=5&offset=10", wantLimit: 5, wantOffset: 10},
		{query: "?limit=1000", wantLimit: MaxLimit},
		{query: "?limit=abc&offset=-3", wantLimit: DefaultLimit},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			limit, offset := Page(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

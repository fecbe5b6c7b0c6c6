package me

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/finletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/finletter/internal/models"
)

func TestMeHandler(t *testing.T) {
	t.Run("editor has premium access", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req = req.WithContext(middlewarectx.WithSession(req.Context(), &models.Session{
			UserUID: "u1", Role: models.RoleEditor, Plan: models.PlanFree, Status: models.StatusInactive,
		}))
		rec := httptest.NewRecorder()
		New().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		data := got["data"].(map[string]any)
		assert.Equal(t, true, data["premium_access"])
		assert.Equal(t, "EDITOR", data["session"].(map[string]any)["role"])
	})

	t.Run("no session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

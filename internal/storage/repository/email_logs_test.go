package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/finletter/internal/models"
)

func TestStorage_EmailLogs(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()

	entries := []models.EmailLog{
		{CampaignID: "c1", MessageID: "<m1@x>", Recipient: "a@example.com", Subject: "s", Status: models.EmailSent},
		{CampaignID: "c1", MessageID: "<m2@x>", Recipient: "b@example.com", Subject: "s", Status: models.EmailFailed, Error: "550"},
		{CampaignID: "c1", MessageID: "<m1@x>", Recipient: "a@example.com", Subject: "s", Status: models.EmailDelivered},
		{CampaignID: "c2", MessageID: "<m3@x>", Recipient: "c@example.com", Subject: "s", Status: models.EmailSent},
	}
	for _, e := range entries {
		_, err := storage.AppendEmailLog(ctx, e)
		require.NoError(t, err)
	}

	latest, err := storage.LatestEmailLog(ctx, "<m1@x>")
	require.NoError(t, err)
	assert.Equal(t, models.EmailDelivered, latest.Status)

	_, err = storage.LatestEmailLog(ctx, "<missing@x>")
	assert.ErrorIs(t, err, models.ErrNotFound)

	logs, err := storage.ListEmailLogs(ctx, "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "550", logs[1].Error)

	stats, err := storage.CampaignStats(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, map[models.EmailStatus]int{
		models.EmailDelivered: 1,
		models.EmailFailed:    1,
	}, stats)
}

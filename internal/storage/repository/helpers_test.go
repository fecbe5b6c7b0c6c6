package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/finletter/internal/migrations"
	"github.com/magabrotheeeer/finletter/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и накатывает миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("finletter"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))
	return storage
}

// TestDataFactory создает тестовые данные напрямую через SQL.
type TestDataFactory struct {
	db *sql.DB
}

// NewTestDataFactory создает новую фабрику тестовых данных.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{db: storage.DB}
}

// CreateUser создает пользователя и возвращает его UID.
func (f *TestDataFactory) CreateUser(t *testing.T, email string, role models.Role, active bool) string {
	t.Helper()
	var uid string
	err := f.db.QueryRow(`INSERT INTO users (email, name, password_hash, role, is_active)
		VALUES ($1, $2, 'hash', $3, $4) RETURNING uid`, email, "Name "+email, string(role), active).Scan(&uid)
	require.NoError(t, err)
	return uid
}

// CreateSubscription создает подписку пользователя.
func (f *TestDataFactory) CreateSubscription(t *testing.T, userUID string, plan models.Plan, status models.SubscriptionStatus) {
	t.Helper()
	_, err := f.db.Exec(`INSERT INTO subscriptions (user_uid, plan, status) VALUES ($1, $2, $3)`,
		userUID, string(plan), string(status))
	require.NoError(t, err)
}

// CreateContent создает материал в указанном статусе.
func (f *TestDataFactory) CreateContent(t *testing.T, kind models.ContentKind, title string, status models.ContentStatus, scheduledFor *time.Time) int {
	t.Helper()
	var id int
	err := f.db.QueryRow(`INSERT INTO contents (kind, title, body, status, scheduled_for)
		VALUES ($1, $2, 'body', $3, $4) RETURNING id`, string(kind), title, string(status), nullTime(scheduledFor)).Scan(&id)
	require.NoError(t, err)
	return id
}

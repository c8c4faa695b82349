// Package repotest поднимает in-memory SQLite с настоящими миграциями для тестов.
package repotest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/coderelay_bot/internal/app"
)

// NewDB открывает пустую базу со всеми миграциями; закрывается в t.Cleanup
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	database, err := app.OpenDatabase(ctx, app.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	migrator, err := app.NewMigrator(database.DB, app.DriverSQLite, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Run(ctx))

	return database.DB
}

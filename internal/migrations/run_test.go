package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	// Регистрация драйвера pgx для database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/users-api/internal/storage/pgtest"
)

func getTestDB(t *testing.T) *sql.DB {
	dsn := pgtest.Start(t)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func getMigrationsPath(t *testing.T) string {
	migrationsPath, err := filepath.Abs(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	t.Logf("Migrations path: %s", migrationsPath)
	return migrationsPath
}

func TestRunMigrations(t *testing.T) {
	db := getTestDB(t)

	require.NoError(t, Run(db, getMigrationsPath(t)))

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = 'users'
		)
	`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists, "Table 'users' should exist")

	for _, index := range []string{"idx_users_email", "idx_users_zip", "idx_users_state"} {
		err = db.QueryRow(`
			SELECT EXISTS (
				SELECT 1 FROM pg_indexes
				WHERE schemaname = 'public' AND tablename = 'users' AND indexname = $1
			)
		`, index).Scan(&exists)
		require.NoError(t, err)
		require.True(t, exists, "Index %s should exist", index)
	}
}

func TestRunMigrations_BlankZipRejected(t *testing.T) {
	db := getTestDB(t)
	require.NoError(t, Run(db, getMigrationsPath(t)))

	_, err := db.Exec(`INSERT INTO users (uid, email, password_hash, zip)
		VALUES ('550e8400-e29b-41d4-a716-446655440000', 'test@example.com', 'hash', '  ')`)
	require.Error(t, err)
}

func TestMigrationIdempotency(t *testing.T) {
	db := getTestDB(t)
	migrationsPath := getMigrationsPath(t)

	require.NoError(t, Run(db, migrationsPath))
	require.NoError(t, Run(db, migrationsPath), "Running migrations twice should not fail")
}

func TestRunMigrations_InvalidPath(t *testing.T) {
	db := getTestDB(t)

	require.Error(t, Run(db, filepath.Join(t.TempDir(), "missing")))
}

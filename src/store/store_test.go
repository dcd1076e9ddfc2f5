package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/username/labelfolio/backend/src/database"
)

// setupTestDB opens a fresh in-memory database with the full schema. A single
// connection is enforced so the memory database is not lost to pooling.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.EnsureSchema(db))
	return db
}

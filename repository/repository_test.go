package repository

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akinalp/hanek/database"
	"github.com/akinalp/hanek/models"
)

// testDB, t.TempDir altında gerçek bir SQLite veritabanı açar ve
// embedded migration'ları uygular.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), migrationsFS)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db.Conn
}

// seedUser, FK constraint'leri için bir kullanıcı satırı ekler.
func seedUser(t *testing.T, repo UserRepository, id, username string) *models.User {
	t.Helper()

	user := &models.User{ID: id, Username: username, PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func seedRoom(t *testing.T, repo RoomRepository, id, name string) *models.Room {
	t.Helper()

	room := &models.Room{ID: id, Name: name}
	require.NoError(t, repo.Create(context.Background(), room))
	return room
}

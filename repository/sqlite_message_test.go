package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/hanek/models"
	"github.com/akinalp/hanek/pkg"
)

func TestRoomRepo_CreateGetList(t *testing.T) {
	repo := NewSQLiteRoomRepo(testDB(t))
	ctx := context.Background()

	seedRoom(t, repo, "r1", "general")
	seedRoom(t, repo, "r2", "random")

	room, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "general", room.Name)

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	rooms, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestRoomRepo_DuplicateName(t *testing.T) {
	repo := NewSQLiteRoomRepo(testDB(t))

	seedRoom(t, repo, "r1", "general")

	err := repo.Create(context.Background(), &models.Room{ID: "r2", Name: "general"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
}

func TestMessageRepo_ListRecentReturnsLastNChronological(t *testing.T) {
	db := testDB(t)
	userRepo := NewSQLiteUserRepo(db)
	roomRepo := NewSQLiteRoomRepo(db)
	msgRepo := NewSQLiteMessageRepo(db)
	ctx := context.Background()

	seedUser(t, userRepo, "u1", "alice")
	seedRoom(t, roomRepo, "r1", "general")
	seedRoom(t, roomRepo, "r2", "random")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, msgRepo.Create(ctx, &models.Message{
			ID:        fmt.Sprintf("m%d", i),
			RoomID:    "r1",
			UserID:    "u1",
			Content:   fmt.Sprintf("msg %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	// Başka odanın mesajı sonuca karışmamalı.
	require.NoError(t, msgRepo.Create(ctx, &models.Message{
		ID: "other", RoomID: "r2", UserID: "u1", Content: "elsewhere", CreatedAt: base,
	}))

	// Son 3 mesaj, en eskiden en yeniye.
	messages, err := msgRepo.ListRecentByRoom(ctx, "r1", 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	assert.Equal(t, "msg 2", messages[0].Content)
	assert.Equal(t, "msg 3", messages[1].Content)
	assert.Equal(t, "msg 4", messages[2].Content)

	// Username join'den gelir.
	assert.Equal(t, "alice", messages[0].Username)
}

func TestMessageRepo_EmptyRoom(t *testing.T) {
	db := testDB(t)
	roomRepo := NewSQLiteRoomRepo(db)
	msgRepo := NewSQLiteMessageRepo(db)

	seedRoom(t, roomRepo, "r1", "general")

	messages, err := msgRepo.ListRecentByRoom(context.Background(), "r1", 50)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

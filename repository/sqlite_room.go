package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/akinalp/hanek/models"
	"github.com/akinalp/hanek/pkg"
)

type sqliteRoomRepo struct {
	db *sql.DB
}

// NewSQLiteRoomRepo, RoomRepository'nin SQLite implementasyonunu oluşturur.
func NewSQLiteRoomRepo(db *sql.DB) RoomRepository {
	return &sqliteRoomRepo{db: db}
}

func (r *sqliteRoomRepo) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (id, name)
		VALUES (?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, room.ID, room.Name).Scan(&room.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: room name already taken", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

func (r *sqliteRoomRepo) GetByID(ctx context.Context, id string) (*models.Room, error) {
	query := `SELECT id, name, created_at FROM rooms WHERE id = ?`

	room := &models.Room{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&room.ID, &room.Name, &room.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

func (r *sqliteRoomRepo) GetAll(ctx context.Context) ([]models.Room, error) {
	query := `SELECT id, name, created_at FROM rooms ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var room models.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

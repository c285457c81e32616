package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akinalp/hanek/models"
)

type sqliteMessageRepo struct {
	db *sql.DB
}

// NewSQLiteMessageRepo, MessageRepository'nin SQLite implementasyonunu oluşturur.
func NewSQLiteMessageRepo(db *sql.DB) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

func (r *sqliteMessageRepo) Create(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (id, room_id, user_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		message.ID, message.RoomID, message.UserID, message.Content, message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

func (r *sqliteMessageRepo) ListRecentByRoom(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	// En yeni N mesajı al, sonra kronolojik sıraya çevir —
	// subquery DESC ile son N'i seçer, dış sorgu ASC ile replay sırasına koyar.
	query := `
		SELECT id, room_id, user_id, username, content, created_at FROM (
			SELECT m.id, m.room_id, m.user_id, u.username, m.content, m.created_at
			FROM messages m
			JOIN users u ON u.id = m.user_id
			WHERE m.room_id = ?
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT ?
		) ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Username, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

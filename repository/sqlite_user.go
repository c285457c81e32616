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

type sqliteUserRepo struct {
	db *sql.DB
}

// NewSQLiteUserRepo, UserRepository'nin SQLite implementasyonunu oluşturur.
func NewSQLiteUserRepo(db *sql.DB) UserRepository {
	return &sqliteUserRepo{db: db}
}

func (r *sqliteUserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash)
		VALUES (?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
	).Scan(&user.CreatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: username already taken", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *sqliteUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, warnings, is_blocked, created_at
		FROM users WHERE id = ?`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, warnings, is_blocked, created_at
		FROM users WHERE username = ?`

	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *sqliteUserRepo) ReadBanState(ctx context.Context, userID string) (models.BanState, error) {
	query := `SELECT warnings, is_blocked FROM users WHERE id = ?`

	var state models.BanState
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&state.Warnings, &state.Blocked)

	if errors.Is(err, sql.ErrNoRows) {
		return models.BanState{}, pkg.ErrNotFound
	}
	if err != nil {
		return models.BanState{}, fmt.Errorf("failed to read ban state: %w", err)
	}

	return state, nil
}

func (r *sqliteUserRepo) WriteBanState(ctx context.Context, userID string, state models.BanState) error {
	query := `UPDATE users SET warnings = ?, is_blocked = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, state.Warnings, state.Blocked, userID)
	if err != nil {
		return fmt.Errorf("failed to write ban state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check ban state update: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}

	return nil
}

func (r *sqliteUserRepo) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Warnings, &user.IsBlocked, &user.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return user, nil
}

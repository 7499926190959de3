package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"steward/internal/user/models"
	id "steward/pkg/domain"
	"steward/pkg/platform/sentinel"
	txcontext "steward/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists users in the users table. Roles are a TEXT[] column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	var chosen sql.NullString
	if u.HasChosenName() {
		chosen = sql.NullString{String: u.ChosenName.String(), Valid: true}
	}
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (id, username, chosen_name, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(u.ID), u.Username, chosen, pq.Array(u.Roles.Strings()), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.findOne(ctx, `WHERE id = $1`, uuid.UUID(userID))
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, `WHERE username = $1`, username)
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, username, chosen_name, roles, created_at, updated_at
		FROM users `+where, arg)

	var (
		u       models.User
		userID  uuid.UUID
		chosen  sql.NullString
		roleStr []string
	)
	err := row.Scan(&userID, &u.Username, &chosen, pq.Array(&roleStr), &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.ID = id.UserID(userID)
	roles, err := id.ParseRoles(roleStr)
	if err != nil {
		return nil, fmt.Errorf("decode roles for user %s: %w", u.ID, err)
	}
	u.Roles = roles
	if chosen.Valid {
		// Stored names were validated on write; the full-name rule is applied
		// by readers that need it.
		name, err := models.ParseChosenName(chosen.String, false)
		if err != nil {
			return nil, fmt.Errorf("decode chosen name for user %s: %w", u.ID, err)
		}
		u.ChosenName = &name
	}
	return &u, nil
}

func (s *PostgresStore) UpdateRoles(ctx context.Context, userID id.UserID, roles id.RoleSet, now time.Time) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE users SET roles = $2, updated_at = $3 WHERE id = $1
	`, uuid.UUID(userID), pq.Array(roles.Strings()), now)
	if err != nil {
		return fmt.Errorf("update roles: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) SetChosenName(ctx context.Context, userID id.UserID, name models.ChosenName, onlyIfUnset bool, now time.Time) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE users SET chosen_name = $2, updated_at = $3
		WHERE id = $1 AND (NOT $4 OR chosen_name IS NULL)
	`, uuid.UUID(userID), name.String(), now, onlyIfUnset)
	if err != nil {
		return fmt.Errorf("set chosen name: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set chosen name: %w", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := s.FindByID(ctx, userID); err != nil {
		return err
	}
	return sentinel.ErrAlreadyUsed
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

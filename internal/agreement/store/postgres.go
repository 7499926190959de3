package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"steward/internal/agreement/models"
	id "steward/pkg/domain"
	"steward/pkg/platform/sentinel"
	txcontext "steward/pkg/platform/tx"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Agreement) error {
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO agreements (id, type, version, text, published_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(a.ID), string(a.Type), a.Version, a.Text, a.PublishedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert agreement: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, agreementID id.AgreementID) (*models.Agreement, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, type, version, text, published_at FROM agreements WHERE id = $1
	`, uuid.UUID(agreementID))
	return scanAgreement(row)
}

func (s *PostgresStore) Current(ctx context.Context, t id.AgreementType) (*models.Agreement, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, type, version, text, published_at FROM agreements
		WHERE type = $1
		ORDER BY version DESC
		LIMIT 1
	`, string(t))
	return scanAgreement(row)
}

func scanAgreement(row *sql.Row) (*models.Agreement, error) {
	var (
		a   models.Agreement
		aid uuid.UUID
		t   string
	)
	err := row.Scan(&aid, &t, &a.Version, &a.Text, &a.PublishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan agreement: %w", err)
	}
	a.ID = id.AgreementID(aid)
	a.Type = id.AgreementType(t)
	return &a, nil
}

func (s *PostgresStore) AddConfirmation(ctx context.Context, c *models.Confirmation) error {
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO agreement_confirmations (user_id, agreement_id, agreement_type, confirmed_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.UUID(c.UserID), uuid.UUID(c.AgreementID), string(c.AgreementType), c.ConfirmedAt)
	if err != nil {
		return fmt.Errorf("insert agreement confirmation: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListConfirmations(ctx context.Context, userID id.UserID) ([]models.Confirmation, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT user_id, agreement_id, agreement_type, confirmed_at
		FROM agreement_confirmations
		WHERE user_id = $1
		ORDER BY confirmed_at
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list agreement confirmations: %w", err)
	}
	defer rows.Close()

	var out []models.Confirmation
	for rows.Next() {
		var (
			c        models.Confirmation
			uid, aid uuid.UUID
			t        string
		)
		if err := rows.Scan(&uid, &aid, &t, &c.ConfirmedAt); err != nil {
			return nil, fmt.Errorf("scan agreement confirmation: %w", err)
		}
		c.UserID = id.UserID(uid)
		c.AgreementID = id.AgreementID(aid)
		c.AgreementType = id.AgreementType(t)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agreement confirmations: %w", err)
	}
	return out, nil
}

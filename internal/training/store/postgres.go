package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"steward/internal/training/models"
	id "steward/pkg/domain"
	"steward/pkg/platform/sentinel"
	txcontext "steward/pkg/platform/tx"
)

// PostgresStore persists training records in training_records.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, rec *models.Record) error {
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO training_records (user_id, kind, completed_at, certificate_ref, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, kind) DO UPDATE SET
			completed_at = EXCLUDED.completed_at,
			certificate_ref = EXCLUDED.certificate_ref,
			submitted_at = EXCLUDED.submitted_at
	`, uuid.UUID(rec.UserID), string(rec.Kind), rec.CompletedAt, rec.CertificateRef, rec.SubmittedAt)
	if err != nil {
		return fmt.Errorf("upsert training record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, userID id.UserID, kind models.Kind) (*models.Record, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT user_id, kind, completed_at, certificate_ref, submitted_at
		FROM training_records
		WHERE user_id = $1 AND kind = $2
	`, uuid.UUID(userID), string(kind))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find training record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Record, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT user_id, kind, completed_at, certificate_ref, submitted_at
		FROM training_records
		WHERE user_id = $1
		ORDER BY kind
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list training records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan training record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate training records: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.Record, error) {
	var (
		rec    models.Record
		userID uuid.UUID
		kind   string
	)
	if err := row.Scan(&userID, &kind, &rec.CompletedAt, &rec.CertificateRef, &rec.SubmittedAt); err != nil {
		return nil, err
	}
	rec.UserID = id.UserID(userID)
	rec.Kind = models.Kind(kind)
	return &rec, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"steward/internal/study/models"
	id "steward/pkg/domain"
	"steward/pkg/platform/sentinel"
	txcontext "steward/pkg/platform/tx"
)

const uniqueViolation = "23505"

var studyColumns = []string{
	"id", "title", "description", "owner_id", "admin_usernames", "data_controller_organisation",
	"declarations", "approval_status", "feedback", "created_at", "updated_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore persists studies and their assets. Status changes go through
// CompareAndSwap, which guards the UPDATE on the expected revision.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, st *models.Study) error {
	st.CreatedAt = st.CreatedAt.Truncate(time.Microsecond)
	st.UpdatedAt = st.UpdatedAt.Truncate(time.Microsecond)
	decl, err := json.Marshal(st.Declarations)
	if err != nil {
		return fmt.Errorf("encode declarations: %w", err)
	}
	query, args, err := psql.Insert("studies").Columns(studyColumns...).Values(
		uuid.UUID(st.ID), st.Title, st.Description, uuid.UUID(st.OwnerID), pq.Array(st.AdminUsernames),
		st.DataControllerOrganisation, string(decl), string(st.ApprovalStatus), nullString(st.Feedback),
		st.CreatedAt, st.UpdatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert study: %w", err)
	}
	if _, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert study: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, studyID id.StudyID) (*models.Study, error) {
	return s.findByID(ctx, studyID, false)
}

func (s *PostgresStore) findByID(ctx context.Context, studyID id.StudyID, forUpdate bool) (*models.Study, error) {
	b := psql.Select(studyColumns...).From("studies").Where(sq.Eq{"id": uuid.UUID(studyID)})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find study: %w", err)
	}
	st, err := scanStudy(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find study: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Study, error) {
	b := psql.Select(studyColumns...).From("studies").OrderBy("updated_at DESC", "id")
	if filter.Status != nil {
		b = b.Where(sq.Eq{"approval_status": string(*filter.Status)})
	}
	if v := filter.VisibleTo; v != nil {
		b = b.Where(sq.Or{
			sq.Eq{"owner_id": uuid.UUID(v.UserID)},
			sq.Expr("? = ANY(admin_usernames)", v.Username),
		})
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		b = b.Offset(uint64(filter.Offset))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list studies: %w", err)
	}

	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list studies: %w", err)
	}
	defer rows.Close()

	var out []*models.Study
	for rows.Next() {
		st, err := scanStudy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan study: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate studies: %w", err)
	}
	return out, nil
}

// CompareAndSwap locks the row, checks it is still at expected, applies
// mutate and writes the result guarded on the expected status.
func (s *PostgresStore) CompareAndSwap(ctx context.Context, studyID id.StudyID, expected models.Revision, mutate func(*models.Study) error) (*models.Study, error) {
	var updated *models.Study
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		current, err := s.findByID(ctx, studyID, true)
		if err != nil {
			return err
		}
		if !expected.Matches(current) {
			return sentinel.ErrConflict
		}
		if err := mutate(current); err != nil {
			return err
		}
		current.UpdatedAt = current.UpdatedAt.Truncate(time.Microsecond)
		decl, err := json.Marshal(current.Declarations)
		if err != nil {
			return fmt.Errorf("encode declarations: %w", err)
		}

		query, args, err := psql.Update("studies").SetMap(map[string]any{
			"title":                        current.Title,
			"description":                  current.Description,
			"admin_usernames":              pq.Array(current.AdminUsernames),
			"data_controller_organisation": current.DataControllerOrganisation,
			"declarations":                 string(decl),
			"approval_status":              string(current.ApprovalStatus),
			"feedback":                     nullString(current.Feedback),
			"updated_at":                   current.UpdatedAt,
		}).Where(sq.Eq{"id": uuid.UUID(studyID), "approval_status": string(expected.Status)}).ToSql()
		if err != nil {
			return fmt.Errorf("build update study: %w", err)
		}
		res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update study: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update study: %w", err)
		}
		if n != 1 {
			return sentinel.ErrConflict
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) AddAsset(ctx context.Context, a *models.Asset) error {
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO study_assets (id, study_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.UUID(a.ID), uuid.UUID(a.StudyID), a.Name, a.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case uniqueViolation:
				return sentinel.ErrConflict
			case "23503":
				return sentinel.ErrNotFound
			}
		}
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountByStudy(ctx context.Context, studyID id.StudyID) (int, error) {
	var n int
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM study_assets WHERE study_id = $1`, uuid.UUID(studyID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count assets: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStudy(row scanner) (*models.Study, error) {
	var (
		st       models.Study
		studyID  uuid.UUID
		ownerID  uuid.UUID
		admins   []string
		decl     []byte
		status   string
		feedback sql.NullString
	)
	if err := row.Scan(&studyID, &st.Title, &st.Description, &ownerID, pq.Array(&admins),
		&st.DataControllerOrganisation, &decl, &status, &feedback, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(decl, &st.Declarations); err != nil {
		return nil, fmt.Errorf("decode declarations: %w", err)
	}
	st.ID = id.StudyID(studyID)
	st.OwnerID = id.UserID(ownerID)
	st.AdminUsernames = admins
	st.ApprovalStatus = models.Status(status)
	if feedback.Valid {
		f := feedback.String
		st.Feedback = &f
	}
	return &st, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

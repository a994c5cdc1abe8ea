package tag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"cardlink/pkg/domain"
	"cardlink/pkg/platform/sentinel"
	"cardlink/pkg/platform/tx"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) querier {
	if dbtx, ok := tx.From(ctx); ok {
		return dbtx
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, t *Tag) error {
	var userArg any
	if !t.User.IsNil() {
		userArg = t.User.String()
	}
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO tags (id, custom_id, user_id, secret_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID.String(), t.CustomID, userArg, t.SecretHash, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.TagID) (*Tag, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, custom_id, user_id, secret_hash, created_at, updated_at
		FROM tags WHERE id = $1`, id.String())
	return scanTag(row)
}

func (s *Postgres) FindByCustomID(ctx context.Context, customID string) (*Tag, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, custom_id, user_id, secret_hash, created_at, updated_at
		FROM tags WHERE custom_id = $1`, customID)
	return scanTag(row)
}

func (s *Postgres) BindUser(ctx context.Context, id domain.TagID, userID domain.UserID) error {
	// Conditional update keeps binding first-wins under concurrent
	// activations.
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE tags SET user_id = $2, updated_at = now()
		WHERE id = $1 AND user_id IS NULL`,
		id.String(), userID.String())
	if err != nil {
		return fmt.Errorf("bind tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var one int
		err := s.q(ctx).QueryRowContext(ctx, `SELECT 1 FROM tags WHERE id = $1`, id.String()).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return err
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *Postgres) UnbindUser(ctx context.Context, id domain.TagID) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE tags SET user_id = NULL, updated_at = now() WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("unbind tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.TagID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanTag(row *sql.Row) (*Tag, error) {
	var (
		t       Tag
		idStr   string
		userStr sql.NullString
	)
	err := row.Scan(&idStr, &t.CustomID, &userStr, &t.SecretHash, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan tag: %w", err)
	}
	if t.ID, err = domain.ParseTagID(idStr); err != nil {
		return nil, err
	}
	if userStr.Valid {
		if t.User, err = domain.ParseUserID(userStr.String); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

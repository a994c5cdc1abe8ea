package link

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) querier {
	if dbtx, ok := tx.From(ctx); ok {
		return dbtx
	}
	return s.db
}

const linkColumns = "id, profile_id, platform, title, value, is_contact, created_at, updated_at"

func (s *Postgres) Create(ctx context.Context, l *Link) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO links (`+linkColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID.String(), l.Profile.String(), l.Platform, l.Title, l.Value, l.IsContact, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.LinkID) (*Link, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE id = $1`, id.String())
	return scanLink(row)
}

func (s *Postgres) Update(ctx context.Context, l *Link) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE links SET platform = $2, title = $3, value = $4, is_contact = $5, updated_at = now()
		WHERE id = $1`,
		l.ID.String(), l.Platform, l.Title, l.Value, l.IsContact)
	if err != nil {
		return fmt.Errorf("update link: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, id domain.LinkID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM links WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]*Link, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE profile_id = $1 ORDER BY created_at`, profileID.String())
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var out []*Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Postgres) DeleteByProfile(ctx context.Context, profileID domain.ProfileID) error {
	_, err := s.q(ctx).ExecContext(ctx, `DELETE FROM links WHERE profile_id = $1`, profileID.String())
	if err != nil {
		return fmt.Errorf("delete links by profile: %w", err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLink(row scanner) (*Link, error) {
	var (
		l          Link
		idStr      string
		profileStr string
	)
	err := row.Scan(&idStr, &profileStr, &l.Platform, &l.Title, &l.Value, &l.IsContact, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan link: %w", err)
	}
	if l.ID, err = domain.ParseLinkID(idStr); err != nil {
		return nil, err
	}
	if l.Profile, err = domain.ParseProfileID(profileStr); err != nil {
		return nil, err
	}
	return &l, nil
}

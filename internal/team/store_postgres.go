package team

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

func (s *Postgres) Create(ctx context.Context, t *Team) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO teams (id, super_admin, admins, profile_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID.String(), t.SuperAdmin.String(), pq.Array(adminStrings(t.Admins)),
		t.Profile.String(), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.TeamID) (*Team, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, super_admin, admins, profile_id, created_at, updated_at
		FROM teams WHERE id = $1`, id.String())
	return scanTeam(row)
}

func (s *Postgres) Update(ctx context.Context, t *Team) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE teams SET admins = $2, updated_at = now() WHERE id = $1`,
		t.ID.String(), pq.Array(adminStrings(t.Admins)))
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, id domain.TeamID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return requireRow(res)
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

func adminStrings(ids []domain.UserID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func scanTeam(row *sql.Row) (*Team, error) {
	var (
		t          Team
		idStr      string
		superStr   string
		adminsRaw  pq.StringArray
		profileStr string
	)
	err := row.Scan(&idStr, &superStr, &adminsRaw, &profileStr, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan team: %w", err)
	}
	if t.ID, err = domain.ParseTeamID(idStr); err != nil {
		return nil, err
	}
	if t.SuperAdmin, err = domain.ParseUserID(superStr); err != nil {
		return nil, err
	}
	if t.Profile, err = domain.ParseProfileID(profileStr); err != nil {
		return nil, err
	}
	for _, raw := range adminsRaw {
		id, err := domain.ParseUserID(raw)
		if err != nil {
			return nil, err
		}
		t.Admins = append(t.Admins, id)
	}
	return &t, nil
}

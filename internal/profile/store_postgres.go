package profile

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

const profileColumns = `id, user_id, title, name, bio, theme_color, location, job_title,
	company, image, cover, logo, category, views, taps, lead_capture, direct_on,
	direct_link, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, p *Profile) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		p.ID.String(), nullableID(p.User.IsNil(), p.User.String()), p.Title, p.Name, p.Bio,
		p.ThemeColor, p.Location, p.JobTitle, p.Company, p.Image, p.Cover, p.Logo,
		p.Category, p.Views, p.Taps, p.LeadCapture, p.DirectOn,
		nullableID(p.Direct.IsNil(), p.Direct.String()), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.ProfileID) (*Profile, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id.String())
	return scanProfile(row)
}

func (s *Postgres) Update(ctx context.Context, p *Profile) error {
	// Views and taps are deliberately absent; AddEngagement owns them.
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE profiles SET
			title = $2, name = $3, bio = $4, theme_color = $5, location = $6,
			job_title = $7, company = $8, image = $9, cover = $10, logo = $11,
			category = $12, lead_capture = $13, direct_on = $14, direct_link = $15,
			updated_at = now()
		WHERE id = $1`,
		p.ID.String(), p.Title, p.Name, p.Bio, p.ThemeColor, p.Location,
		p.JobTitle, p.Company, p.Image, p.Cover, p.Logo, p.Category,
		p.LeadCapture, p.DirectOn, nullableID(p.Direct.IsNil(), p.Direct.String()))
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, id domain.ProfileID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) ListByUser(ctx context.Context, userID domain.UserID) ([]*Profile, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1 ORDER BY created_at`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) AddEngagement(ctx context.Context, id domain.ProfileID, views, taps int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE profiles SET views = views + $2, taps = taps + $3 WHERE id = $1`,
		id.String(), views, taps)
	if err != nil {
		return fmt.Errorf("add engagement: %w", err)
	}
	return requireRow(res)
}

func nullableID(isNil bool, s string) any {
	if isNil {
		return nil
	}
	return s
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

func scanProfile(row scanner) (*Profile, error) {
	var (
		p         Profile
		idStr     string
		userStr   sql.NullString
		directStr sql.NullString
	)
	err := row.Scan(&idStr, &userStr, &p.Title, &p.Name, &p.Bio, &p.ThemeColor,
		&p.Location, &p.JobTitle, &p.Company, &p.Image, &p.Cover, &p.Logo,
		&p.Category, &p.Views, &p.Taps, &p.LeadCapture, &p.DirectOn,
		&directStr, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	if p.ID, err = domain.ParseProfileID(idStr); err != nil {
		return nil, err
	}
	if userStr.Valid {
		if p.User, err = domain.ParseUserID(userStr.String); err != nil {
			return nil, err
		}
	}
	if directStr.Valid {
		if p.Direct, err = domain.ParseLinkID(directStr.String); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

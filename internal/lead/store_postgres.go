package lead

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

const leadColumns = `id, user_id, profile_id, name, email, phone, job_title, company,
	notes, location, website, image, cover, logo, latitude, longitude,
	created_at, updated_at`

func (s *Postgres) CreateIfAbsent(ctx context.Context, l *Lead) error {
	var profileArg any
	if !l.Profile.IsNil() {
		profileArg = l.Profile.String()
	}
	// The partial unique index on (user_id, profile_id) makes the insert
	// conditional; zero rows means the pair already exists.
	res, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (user_id, profile_id) WHERE profile_id IS NOT NULL DO NOTHING`,
		l.ID.String(), l.User.String(), profileArg, l.Name, l.Email, l.Phone,
		l.JobTitle, l.Company, l.Notes, l.Location, l.Website, l.Image,
		l.Cover, l.Logo, l.Latitude, l.Longitude, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.LeadID) (*Lead, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id.String())
	return scanLead(row)
}

func (s *Postgres) FindByUserAndProfile(ctx context.Context, userID domain.UserID, profileID domain.ProfileID) (*Lead, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE user_id = $1 AND profile_id = $2`,
		userID.String(), profileID.String())
	return scanLead(row)
}

func (s *Postgres) Update(ctx context.Context, l *Lead) error {
	// user_id and profile_id are immutable after creation.
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE leads SET
			name = $2, email = $3, phone = $4, job_title = $5, company = $6,
			notes = $7, location = $8, website = $9, image = $10, cover = $11,
			logo = $12, latitude = $13, longitude = $14, updated_at = now()
		WHERE id = $1`,
		l.ID.String(), l.Name, l.Email, l.Phone, l.JobTitle, l.Company,
		l.Notes, l.Location, l.Website, l.Image, l.Cover, l.Logo,
		l.Latitude, l.Longitude)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, id domain.LeadID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) ListByUser(ctx context.Context, userID domain.UserID) ([]*Lead, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE user_id = $1 ORDER BY created_at`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Postgres) DeleteByProfile(ctx context.Context, profileID domain.ProfileID) error {
	_, err := s.q(ctx).ExecContext(ctx, `DELETE FROM leads WHERE profile_id = $1`, profileID.String())
	if err != nil {
		return fmt.Errorf("delete leads by profile: %w", err)
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

func scanLead(row scanner) (*Lead, error) {
	var (
		l          Lead
		idStr      string
		userStr    string
		profileStr sql.NullString
	)
	err := row.Scan(&idStr, &userStr, &profileStr, &l.Name, &l.Email, &l.Phone,
		&l.JobTitle, &l.Company, &l.Notes, &l.Location, &l.Website, &l.Image,
		&l.Cover, &l.Logo, &l.Latitude, &l.Longitude, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan lead: %w", err)
	}
	if l.ID, err = domain.ParseLeadID(idStr); err != nil {
		return nil, err
	}
	if l.User, err = domain.ParseUserID(userStr); err != nil {
		return nil, err
	}
	if profileStr.Valid {
		if l.Profile, err = domain.ParseProfileID(profileStr.String); err != nil {
			return nil, err
		}
	}
	return &l, nil
}

package user

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

// Postgres persists users in PostgreSQL. It joins an ambient transaction
// when one is carried in context.
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

const userColumns = `id, username, email, role, live_profile, team_id, locked, leads, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, u *User) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO users (id, username, email, role, live_profile, team_id, locked, leads, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID.String(), u.Username, u.Email, string(u.Role),
		nullableID(u.Live.String(), u.Live.IsNil()), nullableID(u.Team.String(), u.Team.IsNil()),
		u.Locked, pq.Array(leadStrings(u.Leads)), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.UserID) (*User, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())
	return scanUser(row)
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (s *Postgres) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username)
	return scanUser(row)
}

func (s *Postgres) Update(ctx context.Context, u *User) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE users
		SET username = $2, email = $3, role = $4, live_profile = $5, team_id = $6,
		    locked = $7, leads = $8, updated_at = now()
		WHERE id = $1`,
		u.ID.String(), u.Username, u.Email, string(u.Role),
		nullableID(u.Live.String(), u.Live.IsNil()), nullableID(u.Team.String(), u.Team.IsNil()),
		u.Locked, pq.Array(leadStrings(u.Leads)))
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, id domain.UserID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) ListByTeam(ctx context.Context, teamID domain.TeamID) ([]*User, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE team_id = $1 ORDER BY created_at`, teamID.String())
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	var members []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, u)
	}
	return members, rows.Err()
}

func (s *Postgres) SetTeam(ctx context.Context, id domain.UserID, teamID domain.TeamID) error {
	var res sql.Result
	var err error
	if teamID.IsNil() {
		res, err = s.q(ctx).ExecContext(ctx,
			`UPDATE users SET team_id = NULL, locked = FALSE, updated_at = now() WHERE id = $1`,
			id.String())
	} else {
		res, err = s.q(ctx).ExecContext(ctx,
			`UPDATE users SET team_id = $2, updated_at = now() WHERE id = $1`,
			id.String(), teamID.String())
	}
	if err != nil {
		return fmt.Errorf("set team: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) SetLive(ctx context.Context, id domain.UserID, profileID domain.ProfileID) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE users SET live_profile = $2, updated_at = now() WHERE id = $1`,
		id.String(), profileID.String())
	if err != nil {
		return fmt.Errorf("set live profile: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) AppendLead(ctx context.Context, id domain.UserID, profileID domain.ProfileID) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE users
		SET leads = array_append(leads, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(leads))`,
		id.String(), profileID.String())
	if err != nil {
		return fmt.Errorf("append lead: %w", err)
	}
	// Zero rows here means the lead was already present, which is fine; only
	// a missing user is an error.
	if n, _ := res.RowsAffected(); n == 0 {
		return s.requireUser(ctx, id)
	}
	return nil
}

func (s *Postgres) RemoveLead(ctx context.Context, id domain.UserID, profileID domain.ProfileID) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE users SET leads = array_remove(leads, $2), updated_at = now() WHERE id = $1`,
		id.String(), profileID.String())
	if err != nil {
		return fmt.Errorf("remove lead: %w", err)
	}
	return nil
}

func (s *Postgres) requireUser(ctx context.Context, id domain.UserID) error {
	var one int
	err := s.q(ctx).QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = $1`, id.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u        User
		idStr    string
		role     string
		liveStr  sql.NullString
		teamStr  sql.NullString
		leadsArr pq.StringArray
	)
	err := row.Scan(&idStr, &u.Username, &u.Email, &role, &liveStr, &teamStr,
		&u.Locked, &leadsArr, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.ID, err = domain.ParseUserID(idStr)
	if err != nil {
		return nil, err
	}
	u.Role = Role(role)
	if liveStr.Valid {
		if u.Live, err = domain.ParseProfileID(liveStr.String); err != nil {
			return nil, err
		}
	}
	if teamStr.Valid {
		if u.Team, err = domain.ParseTeamID(teamStr.String); err != nil {
			return nil, err
		}
	}
	for _, raw := range leadsArr {
		lead, err := domain.ParseProfileID(raw)
		if err != nil {
			return nil, err
		}
		u.Leads = append(u.Leads, lead)
	}
	return &u, nil
}

func leadStrings(leads []domain.ProfileID) []string {
	out := make([]string, len(leads))
	for i, id := range leads {
		out[i] = id.String()
	}
	return out
}

func nullableID(s string, isNil bool) any {
	if isNil {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
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

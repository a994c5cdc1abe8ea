package product

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

const productColumns = "id, profile_id, title, description, price, url, image, created_at, updated_at"

func (s *Postgres) Create(ctx context.Context, p *Product) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID.String(), p.Profile.String(), p.Title, p.Description, p.Price, p.URL, p.Image, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.ProductID) (*Product, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id.String())
	return scanProduct(row)
}

func (s *Postgres) Update(ctx context.Context, p *Product) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE products SET title = $2, description = $3, price = $4, url = $5, image = $6, updated_at = now()
		WHERE id = $1`,
		p.ID.String(), p.Title, p.Description, p.Price, p.URL, p.Image)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, id domain.ProductID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]*Product, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE profile_id = $1 ORDER BY created_at`, profileID.String())
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) DeleteByProfile(ctx context.Context, profileID domain.ProfileID) error {
	_, err := s.q(ctx).ExecContext(ctx, `DELETE FROM products WHERE profile_id = $1`, profileID.String())
	if err != nil {
		return fmt.Errorf("delete products by profile: %w", err)
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

func scanProduct(row scanner) (*Product, error) {
	var (
		p          Product
		idStr      string
		profileStr string
	)
	err := row.Scan(&idStr, &profileStr, &p.Title, &p.Description, &p.Price, &p.URL, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	if p.ID, err = domain.ParseProductID(idStr); err != nil {
		return nil, err
	}
	if p.Profile, err = domain.ParseProfileID(profileStr); err != nil {
		return nil, err
	}
	return &p, nil
}

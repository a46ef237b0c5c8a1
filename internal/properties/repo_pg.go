package properties

import (
	"context"
	"database/sql"
	"errors"

	"loanmvp/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `
SELECT id, address, COALESCE(city, ''), COALESCE(state, ''), COALESCE(zip, ''), price, beds, baths, sqft,
       COALESCE(image_url, ''), COALESCE(description, ''), arv_estimate, market_rent_estimate, created_at
FROM properties`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (Property, error) {
	var p Property
	err := row.Scan(&p.ID, &p.Address, &p.City, &p.State, &p.Zip, &p.Price, &p.Beds, &p.Baths, &p.Sqft,
		&p.ImageURL, &p.Description, &p.ARVEstimate, &p.MarketRentEstimate, &p.CreatedAt)
	return p, err
}

func (r *PGRepo) Create(ctx context.Context, p Property) error {
	const query = `
INSERT INTO properties (id, address, city, state, zip, price, beds, baths, sqft, image_url, description, arv_estimate, market_rent_estimate, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.DB.ExecContext(ctx, query,
		p.ID, p.Address, db.NullableString(p.City), db.NullableString(p.State), db.NullableString(p.Zip),
		p.Price, p.Beds, p.Baths, p.Sqft, db.NullableString(p.ImageURL), db.NullableString(p.Description),
		p.ARVEstimate, p.MarketRentEstimate, p.CreatedAt)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Property, error) {
	p, err := scanProperty(r.DB.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Property{}, ErrNotFound
		}
		return Property{}, err
	}
	return p, nil
}

func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Property, error) {
	limit, offset = db.ClampPage(limit, offset)
	rows, err := r.DB.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, p Property) error {
	const query = `
UPDATE properties
SET address = $2, city = $3, state = $4, zip = $5, price = $6, beds = $7, baths = $8, sqft = $9,
    image_url = $10, description = $11, arv_estimate = $12, market_rent_estimate = $13
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		p.ID, p.Address, db.NullableString(p.City), db.NullableString(p.State), db.NullableString(p.Zip),
		p.Price, p.Beds, p.Baths, p.Sqft, db.NullableString(p.ImageURL), db.NullableString(p.Description),
		p.ARVEstimate, p.MarketRentEstimate)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)

package users

import (
	"context"
	"database/sql"
	"errors"

	"loanmvp/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, email, COALESCE(full_name, ''), role, COALESCE(password_hash, ''),
       COALESCE(picture_url, ''), created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, user User) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO users (id, email, full_name, role, password_hash, picture_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID,
		user.Email,
		db.NullableString(user.FullName),
		user.Role,
		db.NullableString(user.PasswordHash),
		db.NullableString(user.PictureURL),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *PGRepo) Update(ctx context.Context, user User) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE users
SET full_name = $2, role = $3, password_hash = $4, picture_url = $5, updated_at = $6
WHERE id = $1`,
		user.ID,
		db.NullableString(user.FullName),
		user.Role,
		db.NullableString(user.PasswordHash),
		db.NullableString(user.PictureURL),
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PGRepo) getOne(ctx context.Context, query string, arg string) (User, error) {
	var u User
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.Role,
		&u.PasswordHash,
		&u.PictureURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

var _ Repo = (*PGRepo)(nil)

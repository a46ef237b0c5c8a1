package users

import "context"

// Repo persists users. Create returns ErrDuplicateEmail when the email is taken.
type Repo interface {
	Create(ctx context.Context, user User) error
	Update(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}

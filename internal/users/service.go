package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"loanmvp/internal/shared/auth"
	"loanmvp/internal/shared/telemetry"
)

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) ready() error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	return nil
}

// Register creates a password account. Only admins may create non-borrower accounts.
func (s *Service) Register(ctx context.Context, req RegisterRequest, callerRole string) (Session, error) {
	if err := s.ready(); err != nil {
		return Session{}, err
	}
	email := normalizeEmail(req.Email)
	if !auth.IsValidEmail(email) {
		return Session{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}

	role := auth.RoleBorrower
	if strings.TrimSpace(req.Role) != "" {
		r, ok := auth.NormalizeRole(req.Role)
		if !ok {
			return Session{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
		}
		role = r
	}
	if role != auth.RoleBorrower && callerRole != auth.RoleAdmin {
		return Session{}, ErrRoleNotAllowed
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return Session{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return Session{}, err
	}

	now := s.now()
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("register: %w", err)
	}
	telemetry.Info("user.registered", map[string]any{"user_id": user.ID, "role": role})
	return s.session(user)
}

// Login verifies the password and issues a token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (Session, error) {
	if err := s.ready(); err != nil {
		return Session{}, err
	}
	user, err := s.Repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(user)
}

// UpsertFromIdentity links an OAuth identity to an account, creating a borrower
// account when the email is new.
func (s *Service) UpsertFromIdentity(ctx context.Context, id ExternalIdentity) (User, error) {
	if err := s.ready(); err != nil {
		return User{}, err
	}
	email := normalizeEmail(id.Email)
	if strings.TrimSpace(id.Subject) == "" || email == "" {
		return User{}, fmt.Errorf("%w: subject and email are required", ErrInvalidInput)
	}

	now := s.now()
	user, err := s.Repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if id.FullName != "" {
			user.FullName = id.FullName
		}
		if id.Picture != "" {
			user.PictureURL = id.Picture
		}
		user.UpdatedAt = now
		if err := s.Repo.Update(ctx, user); err != nil {
			return User{}, fmt.Errorf("update user: %w", err)
		}
		return user, nil
	case errors.Is(err, ErrNotFound):
		user = User{
			ID:         id.Subject,
			Email:      email,
			FullName:   id.FullName,
			Role:       auth.RoleBorrower,
			PictureURL: id.Picture,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.Repo.Create(ctx, user); err != nil {
			return User{}, fmt.Errorf("create user: %w", err)
		}
		return user, nil
	default:
		return User{}, err
	}
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if err := s.ready(); err != nil {
		return User{}, err
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}

// Token signs a JWT carrying the user's role.
func Token(user User) (string, error) {
	return auth.SignJWT(auth.Claims{
		Email:            user.Email,
		Name:             user.FullName,
		Picture:          user.PictureURL,
		Role:             user.Role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
	})
}

func (s *Service) session(user User) (Session, error) {
	token, err := Token(user)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"civease-be/models"
	"civease-be/storage"
	authUtils "civease-be/utils"
)

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Role       models.Role
	Department string
}

// AuthService authenticates users against the stored users collection and
// issues session tokens.
type AuthService struct {
	collections *storage.Collections
	secret      string
	ttl         time.Duration
	now         func() time.Time
}

func NewAuthService(collections *storage.Collections, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		collections: collections,
		secret:      secret,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Authenticate looks up the user by email and role and checks the password.
// Every mismatch yields ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string, role models.Role) (models.User, string, error) {
	if email == "" || password == "" || role == "" {
		return models.User{}, "", ErrInvalidCredentials
	}

	users, err := s.collections.Users(ctx)
	if err != nil {
		return models.User{}, "", err
	}

	for _, user := range users {
		if !strings.EqualFold(user.Email, email) || user.Role != role {
			continue
		}
		if !user.ComparePassword(password) {
			return models.User{}, "", ErrInvalidCredentials
		}

		token, err := authUtils.GenerateToken(user.ID, string(user.Role), s.secret, s.ttl)
		if err != nil {
			return models.User{}, "", err
		}
		return user, token, nil
	}
	return models.User{}, "", ErrInvalidCredentials
}

// Register creates an account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	user := models.User{
		ID:        uuid.NewString(),
		Email:     strings.TrimSpace(input.Email),
		Password:  input.Password,
		Name:      input.Name,
		Role:      input.Role,
		CreatedAt: models.NewTimestamp(s.now().UTC()),
	}
	if user.Role == models.RoleAuthority {
		user.Department = input.Department
	}
	if err := user.HashPassword(); err != nil {
		return models.User{}, err
	}

	err := s.collections.UpdateUsers(ctx, func(users []models.User) ([]models.User, error) {
		for _, existing := range users {
			if strings.EqualFold(existing.Email, user.Email) {
				return nil, ErrEmailTaken
			}
		}
		return append(users, user), nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// User returns the user with the given id or ErrUserNotFound.
func (s *AuthService) User(ctx context.Context, id string) (models.User, error) {
	users, err := s.collections.Users(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, user := range users {
		if user.ID == id {
			return user, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

// Users lists users, optionally restricted to one role.
func (s *AuthService) Users(ctx context.Context, role models.Role) ([]models.User, error) {
	users, err := s.collections.Users(ctx)
	if err != nil {
		return nil, err
	}
	if role == "" {
		return users, nil
	}

	matched := make([]models.User, 0, len(users))
	for _, user := range users {
		if user.Role == role {
			matched = append(matched, user)
		}
	}
	return matched, nil
}

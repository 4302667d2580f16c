package service

import (
	"context"
	"errors"
	"fmt"

	"imchat/internal/domain"
	"imchat/internal/security"
)

// UserService resolves bearer tokens to users.
type UserService struct {
	users  domain.UserRepository
	tokens *security.TokenService
}

func NewUserService(users domain.UserRepository, tokens *security.TokenService) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// Authenticate verifies token and loads the user it was issued to. A valid
// token for a user that no longer resolves is treated as invalid.
func (s *UserService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	user, err := s.users.GetByID(ctx, claims.UID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

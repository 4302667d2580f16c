package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"imchat/internal/domain"
	"imchat/internal/security"
)

// AuthService handles skill-gated registration and login.
type AuthService struct {
	users    domain.UserRepository
	tokens   *security.TokenService
	hash     *security.PasswordHasher
	skillKey string
}

func NewAuthService(users domain.UserRepository, tokens *security.TokenService, hash *security.PasswordHasher, skillKey string) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		hash:     hash,
		skillKey: skillKey,
	}
}

type RegisterInput struct {
	Username string
	Password string
	Nickname string
	SkillKey string
}

type LoginInput struct {
	Username string
	Password string
}

type LoginResult struct {
	Token     string
	ExpiresIn time.Duration
	User      *domain.User
}

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 8
	maxNicknameLength = 50
)

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := requireFields(
		"username", in.Username,
		"password", in.Password,
		"nickname", in.Nickname,
		"skill_key", in.SkillKey,
	); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(in.Username)
	nickname := strings.TrimSpace(in.Nickname)
	skillKey := strings.TrimSpace(in.SkillKey)

	if skillKey == "" || subtle.ConstantTimeCompare([]byte(skillKey), []byte(s.skillKey)) != 1 {
		return nil, fmt.Errorf("%w: invalid skill key", domain.ErrForbidden)
	}
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return nil, fmt.Errorf("%w: username length must be 3-50", domain.ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least 8 chars", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(nickname) > maxNicknameLength {
		return nil, fmt.Errorf("%w: nickname too long", domain.ErrInvalidInput)
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hashed,
		Nickname:     nickname,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: username already exists", domain.ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := requireFields("username", in.Username, "password", in.Password); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !s.hash.Matches(in.Password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresIn: s.tokens.ExpiresIn(),
		User:      user,
	}, nil
}

// requireFields takes name/value pairs and rejects the first empty value.
func requireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%w: missing field: %s", domain.ErrInvalidInput, pairs[i])
		}
	}
	return nil
}

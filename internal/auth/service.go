package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9_.-]{3,32}$`)

type Service struct {
	store    CredentialStore
	hasher   PasswordHasher
	tokens   *TokenManager
	validate *validator.Validate

	dummyOnce sync.Once
	dummyHash string
}

func NewService(store CredentialStore, hasher PasswordHasher, tokens *TokenManager) *Service {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})

	return &Service{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		validate: validate,
	}
}

// Authenticate returns ErrAuthenticationFailed for both an unknown username and a wrong
// password. A miss still pays for one hash comparison so the two cases take similar time.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	user, err := s.store.FindByUsername(ctx, normalizeUsername(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.Verify(password, s.missHash())
			return User{}, ErrAuthenticationFailed
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return User{}, ErrAuthenticationFailed
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (AccessToken, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrAuthenticationFailed) {
			incrementLoginAttempts("failure")
		}
		return AccessToken{}, err
	}

	token, expiresAt, err := s.tokens.issue(map[string]any{"sub": user.Username})
	if err != nil {
		return AccessToken{}, err
	}

	incrementLoginAttempts("success")
	return AccessToken{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt}, nil
}

// CurrentUser resolves the credential record behind a token. A token whose user no longer
// exists is treated as invalid.
func (s *Service) CurrentUser(ctx context.Context, token string) (User, error) {
	subject, err := s.tokens.Decode(token)
	if err != nil {
		return User{}, err
	}

	user, err := s.store.FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidToken
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}

	return user, nil
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	input.Username = normalizeUsername(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if err := s.validate.Struct(input); err != nil {
		return User{}, fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	return s.store.Insert(ctx, User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
	})
}

// BootstrapFromEnv creates the seed user when configured. Registration input rules are not
// applied. An existing user with the same name is left untouched.
func (s *Service) BootstrapFromEnv(ctx context.Context, username, email, password string) error {
	username = normalizeUsername(username)

	if username == "" && password == "" {
		return nil
	}
	if username == "" || password == "" {
		return fmt.Errorf("SEED_USERNAME and SEED_PASSWORD are required together")
	}
	if email == "" {
		email = username + "@localhost"
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	_, err = s.store.Insert(ctx, User{Username: username, Email: email, PasswordHash: hash})
	if err != nil && !errors.Is(err, ErrUsernameTaken) {
		return fmt.Errorf("insert seed user: %w", err)
	}
	return nil
}

func (s *Service) missHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("forkful-timing-equalizer")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func describeValidation(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err.Error()
	}

	first := fieldErrors[0]
	return fmt.Sprintf("%s is invalid", strings.ToLower(first.Field()))
}

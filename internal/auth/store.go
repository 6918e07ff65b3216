package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// CredentialStore owns credential records. Implementations must reject a second Insert of an
// existing username with ErrUsernameTaken and report lookup misses as ErrUserNotFound.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	Insert(ctx context.Context, user User) (User, error)
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]User
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]User)}
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[normalizeUsername(username)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *MemoryStore) Insert(ctx context.Context, user User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	user.Username = normalizeUsername(user.Username)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return User{}, ErrUsernameTaken
	}

	s.nextID++
	user.ID = s.nextID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.Username] = user

	return user, nil
}

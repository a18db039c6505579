package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cleared-dev/estatement/internal/config"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("username is already taken")
	// ErrWrongPassword is returned by ChangePassword when the current password does not match.
	ErrWrongPassword = errors.New("invalid current password")
)

// UserStore holds the users allowed to sign in. When it has a config path,
// every change is written back to the auth.users section of that file.
type UserStore struct {
	mu    sync.RWMutex
	users []config.User
	path  string
	now   func() time.Time
}

// NewUserStore returns a store over users. An empty path keeps changes in memory.
func NewUserStore(users []config.User, path string) *UserStore {
	return &UserStore{users: slices.Clone(users), path: path, now: time.Now}
}

// Len returns the number of users.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Find returns the user named username.
func (s *UserStore) Find(username string) (config.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(username)
	if i < 0 {
		return config.User{}, false
	}
	u := s.users[i]
	if u.Role == "" {
		u.Role = DefaultRole
	}
	return u, true
}

// Authenticate checks password against the stored hash of username.
func (s *UserStore) Authenticate(username, password string) (config.User, error) {
	s.mu.RLock()
	users := slices.Clone(s.users)
	s.mu.RUnlock()
	return Authenticate(users, username, password)
}

// ChangePassword replaces the password of username after checking current.
func (s *UserStore) ChangePassword(username, current, next string) error {
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(username)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if !CheckPassword(s.users[i].PasswordHash, current) {
		return ErrWrongPassword
	}

	updated := slices.Clone(s.users)
	updated[i].PasswordHash = hash
	updated[i].UpdatedAt = s.now().UTC()
	if err := s.persist(updated); err != nil {
		return err
	}
	s.users = updated
	return nil
}

// Register adds a user with the default role.
func (s *UserStore) Register(username, email, password string) (config.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return config.User{}, errors.New("username is required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return config.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index(username) >= 0 {
		return config.User{}, fmt.Errorf("%w: %s", ErrUserExists, username)
	}
	u := config.User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Role:         DefaultRole,
		UpdatedAt:    s.now().UTC(),
	}
	updated := append(slices.Clone(s.users), u)
	if err := s.persist(updated); err != nil {
		return config.User{}, err
	}
	s.users = updated
	return u, nil
}

func (s *UserStore) index(username string) int {
	return slices.IndexFunc(s.users, func(u config.User) bool { return u.Username == username })
}

// persist rewrites the users of the config file. The rest of the file is
// reloaded from disk so runtime overrides are not written back.
func (s *UserStore) persist(users []config.User) error {
	if s.path == "" {
		return nil
	}
	cfg, err := config.Load(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		return fmt.Errorf("saving users: %w", err)
	}
	cfg.Auth.Users = users
	if err := config.Save(s.path, cfg); err != nil {
		return fmt.Errorf("saving users: %w", err)
	}
	return nil
}

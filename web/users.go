package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAdminUser     = "admin"
	defaultAdminPassword = "password"
)

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("payrun-timing-dummy"), bcrypt.DefaultCost)

var (
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrBadCredentials  = errors.New("invalid username or password")
	ErrCannotDropAdmin = errors.New("the admin user cannot be deleted")
)

// UserStore keeps login users in a JSON file of username → bcrypt hash.
// A default admin user is seeded when the file does not exist yet.
type UserStore struct {
	path string

	mu    sync.Mutex
	users map[string]string
}

func NewUserStore(path string) (*UserStore, error) {
	store := &UserStore{path: path}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *UserStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read users file: %w", err)
		}
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
		if hashErr != nil {
			return fmt.Errorf("hash default password: %w", hashErr)
		}
		s.users = map[string]string{defaultAdminUser: string(hash)}
		return s.saveLocked()
	}

	users := make(map[string]string)
	if err := json.Unmarshal(content, &users); err != nil {
		return fmt.Errorf("parse users file %s: %w", s.path, err)
	}
	s.users = users
	return nil
}

func (s *UserStore) saveLocked() error {
	content, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create users directory: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write users temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace users file: %w", err)
	}
	return nil
}

// Authenticate checks a username/password pair.
func (s *UserStore) Authenticate(username, password string) error {
	s.mu.Lock()
	hash, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		// Burn a comparison anyway so missing and wrong fail alike.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrBadCredentials
	}
	return nil
}

// Add creates a new user with the given password.
func (s *UserStore) Add(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return ErrUserExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	s.users[username] = string(hash)
	return s.saveLocked()
}

// Delete removes a user. The admin user is protected.
func (s *UserStore) Delete(username string) error {
	if username == defaultAdminUser {
		return ErrCannotDropAdmin
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; !exists {
		return ErrUserNotFound
	}
	delete(s.users, username)
	return s.saveLocked()
}

// ChangePassword verifies the current password, then replaces it.
func (s *UserStore) ChangePassword(username, current, next string) error {
	if next == "" {
		return fmt.Errorf("new password is required")
	}
	if err := s.Authenticate(username, current); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	s.users[username] = string(hash)
	return s.saveLocked()
}

// Usernames returns all users sorted, for the management page.
func (s *UserStore) Usernames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsAdmin reports whether the user may manage other users.
func IsAdmin(username string) bool {
	return username == defaultAdminUser
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/message-drop-be/internal/auth"
	"github.com/isdelr/message-drop-be/internal/common"
	"github.com/isdelr/message-drop-be/internal/database"
	"github.com/isdelr/message-drop-be/internal/models"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,30}$`)

// MinPasswordLength is the shortest accepted account password.
const MinPasswordLength = 6

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, username, password string) (models.User, error)
	Authenticate(ctx context.Context, username, password string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// UserService is the credential store: users and their password hashes.
type UserService struct {
	db     database.DBTX
	hasher auth.Hasher

	// dummyHash is compared against when the user does not exist, so a
	// missing account costs the same as a wrong password.
	dummyHash func() string
}

// NewUserService creates a new UserService.
func NewUserService(db database.DBTX, hasher auth.Hasher) *UserService {
	return &UserService{
		db:     db,
		hasher: hasher,
		dummyHash: sync.OnceValue(func() string {
			h, _ := hasher.Hash(uuid.NewString())
			return h
		}),
	}
}

// ValidateCredentials checks the username pattern and password length.
func ValidateCredentials(username, password string) error {
	if username == "" || password == "" {
		return common.Invalid("Username and password required")
	}
	if len(username) < 3 || len(username) > 30 {
		return common.Invalid("Username must be 3-30 characters")
	}
	if !usernamePattern.MatchString(username) {
		return common.Invalid("Username can only contain letters, numbers, hyphens, underscores")
	}
	if len(password) < MinPasswordLength {
		return common.Invalid("Password must be at least 6 characters")
	}
	if len(password) > auth.MaxSecretBytes {
		return common.Invalid("Password must be at most 72 bytes")
	}
	return nil
}

// Register creates a new user, hashing their password.
func (s *UserService) Register(ctx context.Context, username, password string) (models.User, error) {
	if err := ValidateCredentials(username, password); err != nil {
		return models.User{}, err
	}

	_, err := s.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return models.User{}, common.Conflict("Username already taken")
	case !errors.Is(err, common.ErrNotFound):
		return models.User{}, err
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)",
		user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, common.Conflict("Username already taken")
		}
		return models.User{}, fmt.Errorf("db error: %w", err)
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// FindByUsername retrieves a user by case-insensitive username, including the
// password hash.
func (s *UserService) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE LOWER(username) = LOWER(?)", username)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, common.NotFound("User not found")
		}
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx, "SELECT id, username, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Username, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, common.NotFound("User not found")
		}
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// Authenticate verifies a user's credentials. Unknown users and wrong
// passwords produce the same error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	if username == "" || password == "" {
		return models.User{}, common.Invalid("Username and password required")
	}

	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return models.User{}, err
		}
		s.hasher.Verify(password, s.dummyHash())
		return models.User{}, common.Unauthenticated("Invalid username or password")
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return models.User{}, common.Unauthenticated("Invalid username or password")
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

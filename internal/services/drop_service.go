package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/message-drop-be/internal/common"
	"github.com/isdelr/message-drop-be/internal/database"
	"github.com/isdelr/message-drop-be/internal/models"
)

// DropServiceProvider defines the interface for drop services.
type DropServiceProvider interface {
	CreateOrUpdate(ctx context.Context, userID, genericMessage string) (models.Drop, bool, error)
	GetByUser(ctx context.Context, userID string) (models.Drop, error)
	GetPublicByUsername(ctx context.Context, username string) (models.PublicDrop, error)
}

// DropService stores the one-per-user public drop.
type DropService struct {
	db database.DBTX
}

// NewDropService creates a new DropService.
func NewDropService(db database.DBTX) *DropService {
	return &DropService{db: db}
}

// CreateOrUpdate publishes the user's drop or replaces its generic message.
// The boolean reports whether a new drop was created.
func (s *DropService) CreateOrUpdate(ctx context.Context, userID, genericMessage string) (models.Drop, bool, error) {
	genericMessage = strings.TrimSpace(genericMessage)
	if genericMessage == "" {
		return models.Drop{}, false, common.Invalid("Generic message is required")
	}

	drop, err := s.GetByUser(ctx, userID)
	switch {
	case err == nil:
		_, err = s.db.ExecContext(ctx, "UPDATE drops SET generic_message = ? WHERE id = ?", genericMessage, drop.ID)
		if err != nil {
			return models.Drop{}, false, fmt.Errorf("db error: %w", err)
		}
		drop.GenericMessage = genericMessage
		return drop, false, nil
	case !errors.Is(err, common.ErrNotFound):
		return models.Drop{}, false, err
	}

	drop = models.Drop{
		ID:             uuid.New().String(),
		UserID:         userID,
		GenericMessage: genericMessage,
		CreatedAt:      time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO drops (id, user_id, generic_message, created_at) VALUES (?, ?, ?, ?)",
		drop.ID, drop.UserID, drop.GenericMessage, drop.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			// A concurrent request created the drop first; last write wins.
			existing, getErr := s.GetByUser(ctx, userID)
			if getErr != nil {
				return models.Drop{}, false, getErr
			}
			_, err = s.db.ExecContext(ctx, "UPDATE drops SET generic_message = ? WHERE id = ?", genericMessage, existing.ID)
			if err != nil {
				return models.Drop{}, false, fmt.Errorf("db error: %w", err)
			}
			existing.GenericMessage = genericMessage
			return existing, false, nil
		}
		return models.Drop{}, false, fmt.Errorf("db error: %w", err)
	}
	return drop, true, nil
}

// GetByUser retrieves the drop owned by userID.
func (s *DropService) GetByUser(ctx context.Context, userID string) (models.Drop, error) {
	var drop models.Drop
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, generic_message, created_at FROM drops WHERE user_id = ?", userID)
	err := row.Scan(&drop.ID, &drop.UserID, &drop.GenericMessage, &drop.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Drop{}, common.NotFound("No drop found")
		}
		return models.Drop{}, fmt.Errorf("db error: %w", err)
	}
	return drop, nil
}

// GetPublicByUsername returns the anonymous view of a drop with a live count
// of its messages.
func (s *DropService) GetPublicByUsername(ctx context.Context, username string) (models.PublicDrop, error) {
	const query = `
		SELECT u.username, d.generic_message, d.created_at,
		       (SELECT COUNT(*) FROM messages m WHERE m.drop_id = d.id) AS message_count
		FROM drops d
		JOIN users u ON d.user_id = u.id
		WHERE LOWER(u.username) = LOWER(?)`

	var pub models.PublicDrop
	err := s.db.QueryRowContext(ctx, query, username).
		Scan(&pub.Username, &pub.GenericMessage, &pub.CreatedAt, &pub.MessageCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PublicDrop{}, common.NotFound("No drop found for this user")
		}
		return models.PublicDrop{}, fmt.Errorf("db error: %w", err)
	}
	return pub, nil
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/message-drop-be/internal/database"
	"github.com/isdelr/message-drop-be/internal/models"
)

// ViewServiceProvider defines the interface for the view ledger.
type ViewServiceProvider interface {
	Record(ctx context.Context, messageID, nickname string) error
	ListByDrop(ctx context.Context, dropID string) ([]models.View, error)
	Totals(ctx context.Context) (models.Totals, error)
}

// ViewService is the append-only log of successful unlocks.
type ViewService struct {
	db database.DBTX
}

// NewViewService creates a new ViewService.
func NewViewService(db database.DBTX) *ViewService {
	return &ViewService{db: db}
}

// Record logs a new view. Repeat views are kept.
func (s *ViewService) Record(ctx context.Context, messageID, nickname string) error {
	view := models.View{
		ID:        uuid.New().String(),
		MessageID: messageID,
		Nickname:  strings.TrimSpace(nickname),
		ViewedAt:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO views (id, message_id, nickname, viewed_at) VALUES (?, ?, ?, ?)",
		view.ID, view.MessageID, view.Nickname, view.ViewedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByDrop retrieves the views of every message in a drop, most recent first.
func (s *ViewService) ListByDrop(ctx context.Context, dropID string) ([]models.View, error) {
	const query = `
		SELECT v.nickname, v.viewed_at, v.message_id
		FROM views v
		INNER JOIN messages m ON v.message_id = m.id
		WHERE m.drop_id = ?
		ORDER BY v.viewed_at DESC`

	rows, err := s.db.QueryContext(ctx, query, dropID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	views := []models.View{}
	for rows.Next() {
		var view models.View
		if err := rows.Scan(&view.Nickname, &view.ViewedAt, &view.MessageID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return views, nil
}

// Totals counts users, drops, messages and views.
func (s *ViewService) Totals(ctx context.Context) (models.Totals, error) {
	const query = `
		SELECT (SELECT COUNT(*) FROM users),
		       (SELECT COUNT(*) FROM drops),
		       (SELECT COUNT(*) FROM messages),
		       (SELECT COUNT(*) FROM views)`

	var t models.Totals
	if err := s.db.QueryRowContext(ctx, query).Scan(&t.Users, &t.Drops, &t.Messages, &t.Views); err != nil {
		return models.Totals{}, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

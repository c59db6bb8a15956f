package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/isdelr/message-drop-be/internal/auth"
	"github.com/isdelr/message-drop-be/internal/common"
	"github.com/isdelr/message-drop-be/internal/database"
	"github.com/isdelr/message-drop-be/internal/models"
	"golang.org/x/text/cases"
)

const (
	// MaxNicknameLength matches the nickname column width.
	MaxNicknameLength = 100
	// MinAutocompletePrefix keeps single-letter probes from listing nicknames.
	MinAutocompletePrefix = 4
	// MaxAutocompleteResults caps the suggestions returned per query.
	MaxAutocompleteResults = 8
)

// MessageServiceProvider defines the interface for message services.
type MessageServiceProvider interface {
	Add(ctx context.Context, userID string, msg models.NewMessage) (models.Message, error)
	ListByDrop(ctx context.Context, dropID string) ([]models.Message, error)
	Delete(ctx context.Context, messageID, dropID string) error
	FindForUnlock(ctx context.Context, username, nickname string) (models.Message, error)
	Autocomplete(ctx context.Context, username, prefix string) ([]string, error)
}

// MessageService stores the secret messages of each drop.
type MessageService struct {
	db     database.DBTX
	drops  DropServiceProvider
	hasher auth.Hasher
}

// NewMessageService creates a new MessageService.
func NewMessageService(db database.DBTX, drops DropServiceProvider, hasher auth.Hasher) *MessageService {
	return &MessageService{db: db, drops: drops, hasher: hasher}
}

// NicknameKey folds a nickname for case-insensitive comparison. SQL LOWER
// only folds ASCII on SQLite, so keys are always computed here.
func NicknameKey(nickname string) string {
	return cases.Fold().String(strings.TrimSpace(nickname))
}

// scanMessage is a helper to scan a message from a row or rows object.
func scanMessage(scanner interface{ Scan(...any) error }, extra ...any) (models.Message, error) {
	var msg models.Message
	var hint sql.NullString
	dest := []any{&msg.ID, &msg.DropID, &msg.Nickname, &msg.Question, &hint, &msg.PasscodeHash, &msg.Content, &msg.CreatedAt}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return msg, err
	}
	if hint.Valid {
		msg.Hint = &hint.String
	}
	return msg, nil
}

// Add stores a new message in the drop owned by userID.
func (s *MessageService) Add(ctx context.Context, userID string, in models.NewMessage) (models.Message, error) {
	nickname := strings.TrimSpace(in.Nickname)
	question := strings.TrimSpace(in.Question)
	content := strings.TrimSpace(in.Content)
	passcode := auth.NormalizePasscode(in.Passcode)

	if nickname == "" || question == "" || passcode == "" || content == "" {
		return models.Message{}, common.Invalid("Nickname, question, passcode, and message are required")
	}
	if utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return models.Message{}, common.Invalid("Nickname must be at most 100 characters")
	}
	if len(passcode) > auth.MaxSecretBytes {
		return models.Message{}, common.Invalid("Passcode must be at most 72 bytes")
	}

	drop, err := s.drops.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return models.Message{}, common.MissingDrop("Create a drop first")
		}
		return models.Message{}, err
	}

	var existing string
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM messages WHERE drop_id = ? AND nickname_key = ?", drop.ID, NicknameKey(nickname)).Scan(&existing)
	switch {
	case err == nil:
		return models.Message{}, common.Conflict("A message for this nickname already exists")
	case !errors.Is(err, sql.ErrNoRows):
		return models.Message{}, fmt.Errorf("db error: %w", err)
	}

	passcodeHash, err := s.hasher.Hash(passcode)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to hash passcode: %w", err)
	}

	msg := models.Message{
		ID:           uuid.New().String(),
		DropID:       drop.ID,
		Nickname:     nickname,
		Question:     question,
		PasscodeHash: passcodeHash,
		Content:      content,
		CreatedAt:    time.Now().UTC(),
	}
	if hint := strings.TrimSpace(in.Hint); hint != "" {
		msg.Hint = &hint
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (id, drop_id, nickname, nickname_key, question, hint, passcode_hash, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.DropID, msg.Nickname, NicknameKey(msg.Nickname), msg.Question, msg.Hint, msg.PasscodeHash, msg.Content, msg.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.Message{}, common.Conflict("A message for this nickname already exists")
		}
		return models.Message{}, fmt.Errorf("db error: %w", err)
	}
	return msg, nil
}

// ListByDrop returns the drop's messages newest first, each with its view count.
func (s *MessageService) ListByDrop(ctx context.Context, dropID string) ([]models.Message, error) {
	const query = `
		SELECT m.id, m.drop_id, m.nickname, m.question, m.hint, m.passcode_hash, m.content, m.created_at,
		       (SELECT COUNT(*) FROM views v WHERE v.message_id = m.id) AS view_count
		FROM messages m
		WHERE m.drop_id = ?
		ORDER BY m.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, dropID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var viewCount int
		msg, err := scanMessage(rows, &viewCount)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		msg.ViewCount = viewCount
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return messages, nil
}

// Delete removes a message only if it belongs to dropID. Deleting a message
// that does not exist, or belongs to someone else, is not an error.
func (s *MessageService) Delete(ctx context.Context, messageID, dropID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE id = ? AND drop_id = ?", messageID, dropID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindForUnlock resolves a message by drop owner and nickname, both
// case-insensitive. The result includes the passcode hash.
func (s *MessageService) FindForUnlock(ctx context.Context, username, nickname string) (models.Message, error) {
	const query = `
		SELECT m.id, m.drop_id, m.nickname, m.question, m.hint, m.passcode_hash, m.content, m.created_at
		FROM messages m
		JOIN drops d ON m.drop_id = d.id
		JOIN users u ON d.user_id = u.id
		WHERE LOWER(u.username) = LOWER(?)
		  AND m.nickname_key = ?`

	msg, err := scanMessage(s.db.QueryRowContext(ctx, query, username, NicknameKey(nickname)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Message{}, common.NotFound("No message found for that name")
		}
		return models.Message{}, fmt.Errorf("db error: %w", err)
	}
	return msg, nil
}

// Autocomplete suggests nicknames in username's drop that start with prefix.
// Prefixes shorter than MinAutocompletePrefix return nothing.
func (s *MessageService) Autocomplete(ctx context.Context, username, prefix string) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if utf8.RuneCountInString(prefix) < MinAutocompletePrefix {
		return []string{}, nil
	}

	const query = `
		SELECT m.nickname
		FROM messages m
		JOIN drops d ON m.drop_id = d.id
		JOIN users u ON d.user_id = u.id
		WHERE LOWER(u.username) = LOWER(?)
		  AND m.nickname_key LIKE ? ESCAPE '\'
		ORDER BY m.nickname
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, username, escapeLike(NicknameKey(prefix))+"%", MaxAutocompleteResults)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	nicknames := []string{}
	for rows.Next() {
		var nickname string
		if err := rows.Scan(&nickname); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		nicknames = append(nicknames, nickname)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return nicknames, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

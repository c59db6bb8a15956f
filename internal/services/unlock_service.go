package services

import (
	"context"
	"strings"

	"github.com/isdelr/message-drop-be/internal/auth"
	"github.com/isdelr/message-drop-be/internal/common"
	"github.com/isdelr/message-drop-be/internal/models"
)

// UnlockServiceProvider defines the interface for the unlock flow.
type UnlockServiceProvider interface {
	Check(ctx context.Context, username, nickname, passcode string) (models.UnlockResult, error)
}

// UnlockService verifies a visitor's nickname and passcode against a drop.
type UnlockService struct {
	messages MessageServiceProvider
	views    ViewServiceProvider
	hasher   auth.Hasher
}

// NewUnlockService creates a new UnlockService.
func NewUnlockService(messages MessageServiceProvider, views ViewServiceProvider, hasher auth.Hasher) *UnlockService {
	return &UnlockService{messages: messages, views: views, hasher: hasher}
}

// Check resolves the message for nickname in username's drop and compares the
// passcode. An unknown nickname is ErrNotFound. A wrong passcode still
// reveals the question and hint but leaves Content nil. A match records a view.
func (s *UnlockService) Check(ctx context.Context, username, nickname, passcode string) (models.UnlockResult, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || strings.TrimSpace(passcode) == "" {
		return models.UnlockResult{Stage: models.AwaitingNickname}, common.Invalid("Nickname and answer required")
	}

	msg, err := s.messages.FindForUnlock(ctx, username, nickname)
	if err != nil {
		return models.UnlockResult{Stage: models.AwaitingNickname}, err
	}

	result := models.UnlockResult{
		Found:    true,
		Question: msg.Question,
		Hint:     msg.Hint,
		Stage:    models.AwaitingPasscode,
	}

	if !s.hasher.Verify(auth.NormalizePasscode(passcode), msg.PasscodeHash) {
		return result, nil
	}

	if err := s.views.Record(ctx, msg.ID, nickname); err != nil {
		return models.UnlockResult{}, err
	}

	content := msg.Content
	result.Content = &content
	result.Stage = models.Resolved
	return result, nil
}

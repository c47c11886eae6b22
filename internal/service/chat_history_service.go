package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/agdesk/agdesk/internal/model"
	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
	"github.com/agdesk/agdesk/internal/repo"
)

const defaultHistoryLimit = 50

// ChatHistoryService stores per-user saved conversations.
type ChatHistoryService struct {
	histories *repo.ChatHistoryRepo
}

func NewChatHistoryService(histories *repo.ChatHistoryRepo) *ChatHistoryService {
	return &ChatHistoryService{histories: histories}
}

// Save creates the conversation on first write and replaces its title and
// messages afterwards.
func (s *ChatHistoryService) Save(ctx context.Context, userID string, history *model.ChatHistory) (*model.ChatHistory, error) {
	if len(history.Messages) == 0 {
		return nil, appErr.ErrInvalid
	}
	now := time.Now().Unix()
	history.UserID = userID
	history.Mtime = now
	if history.Title == "" {
		history.Title = deriveTitle(history.Messages)
	}
	if history.ID == "" {
		history.ID = newID()
		history.Ctime = now
		if err := s.histories.Create(ctx, history); err != nil {
			return nil, err
		}
		return history, nil
	}
	err := s.histories.Update(ctx, history)
	if errors.Is(err, appErr.ErrNotFound) {
		history.Ctime = now
		if err := s.histories.Create(ctx, history); err != nil {
			return nil, err
		}
		return history, nil
	}
	if err != nil {
		return nil, err
	}
	return s.histories.GetByID(ctx, userID, history.ID)
}

func (s *ChatHistoryService) Get(ctx context.Context, userID, historyID string) (*model.ChatHistory, error) {
	return s.histories.GetByID(ctx, userID, historyID)
}

func (s *ChatHistoryService) List(ctx context.Context, userID string) ([]model.ChatHistory, error) {
	return s.histories.List(ctx, userID, defaultHistoryLimit)
}

func (s *ChatHistoryService) Delete(ctx context.Context, userID, historyID string) error {
	return s.histories.Delete(ctx, userID, historyID)
}

func deriveTitle(messages []model.ChatMessage) string {
	for _, msg := range messages {
		if msg.Role != "user" {
			continue
		}
		title := strings.TrimSpace(msg.Content)
		if title == "" {
			continue
		}
		runes := []rune(title)
		if len(runes) > 60 {
			return string(runes[:60])
		}
		return title
	}
	return "New conversation"
}

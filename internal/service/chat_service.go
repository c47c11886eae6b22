package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/agdesk/agdesk/internal/ai"
	"github.com/agdesk/agdesk/internal/model"
	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
	"github.com/agdesk/agdesk/internal/quota"
	"github.com/agdesk/agdesk/internal/rag"
)

const RoleAdmin = "admin"

// ChatService runs one support turn: quota gate, knowledge base retrieval,
// then completion with the full conversation history.
type ChatService struct {
	ledger     quota.Ledger
	retriever  *rag.Retriever
	completer  ai.ICompleter
	dailyLimit int
	now        func() time.Time
}

func NewChatService(ledger quota.Ledger, retriever *rag.Retriever, completer ai.ICompleter, dailyLimit int) *ChatService {
	if dailyLimit <= 0 {
		dailyLimit = quota.DefaultDailyLimit
	}
	return &ChatService{
		ledger:     ledger,
		retriever:  retriever,
		completer:  completer,
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
}

// Chat answers the latest user message. Non-admin users consume one daily
// quota slot before anything else happens; a capped user gets no answer and
// no retrieval work is done on their behalf.
func (s *ChatService) Chat(ctx context.Context, userID, role string, messages []model.ChatMessage) ([]ai.ContentBlock, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID))
	utterance := lastUserMessage(messages)
	if utterance == "" {
		return nil, appErr.ErrInvalid
	}

	if role != RoleAdmin {
		count, err := s.ledger.Increment(ctx, userID, s.now().UTC())
		if err != nil {
			// an unreachable ledger never blocks the turn
			logger.Error("quota ledger unavailable, proceeding ungated", zap.Error(err))
		} else if count > s.dailyLimit {
			logger.Info("daily quota exhausted", zap.Int("count", count))
			return nil, appErr.ErrQuotaExceeded
		}
	}

	contextBlock, err := s.retriever.Retrieve(ctx, utterance)
	if err != nil {
		return nil, err
	}

	blocks, err := s.completer.Complete(ctx, rag.SystemPrompt(contextBlock), messages)
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// Answer extracts the reply text from completion content: the first text
// block wins, anything else degrades to a fixed apology.
func Answer(blocks []ai.ContentBlock) string {
	for _, block := range blocks {
		if block.Type == "text" && block.Text != "" {
			return block.Text
		}
	}
	return rag.ApologyReply
}

func lastUserMessage(messages []model.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}

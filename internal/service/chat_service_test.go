package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agdesk/agdesk/internal/ai"
	"github.com/agdesk/agdesk/internal/embedding"
	"github.com/agdesk/agdesk/internal/model"
	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
	"github.com/agdesk/agdesk/internal/rag"
	"github.com/agdesk/agdesk/internal/vectorstore"
)

type fakeLedger struct {
	counts     map[string]int
	err        error
	increments int
}

func (f *fakeLedger) Increment(ctx context.Context, userID string, day time.Time) (int, error) {
	f.increments++
	if f.err != nil {
		return 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	key := userID + ":" + day.Format("2006-01-02")
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeLedger) Get(ctx context.Context, userID string, day time.Time) (int, error) {
	key := userID + ":" + day.Format("2006-01-02")
	return f.counts[key], nil
}

type fakeCompleter struct {
	blocks []ai.ContentBlock
	err    error
	calls  int
	system string
}

func (f *fakeCompleter) Complete(ctx context.Context, system string, turns []model.ChatMessage) ([]ai.ContentBlock, error) {
	f.calls++
	f.system = system
	return f.blocks, f.err
}

type stubEmbedder struct{}

func (stubEmbedder) ModelName() string { return "stub" }

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, embedding.DefaultDimension)
	vec[0] = 1
	return vec, nil
}

type stubStore struct{}

func (stubStore) Upsert(ctx context.Context, req vectorstore.UpsertRequest) error { return nil }

func (stubStore) Query(ctx context.Context, req vectorstore.QueryRequest) ([]vectorstore.Match, error) {
	return nil, nil
}

func newTestChatService(ledger *fakeLedger, completer *fakeCompleter) *ChatService {
	retriever := rag.NewRetriever(embedding.NewAdapter(stubEmbedder{}), stubStore{})
	return NewChatService(ledger, retriever, completer, 5)
}

func userTurn(content string) []model.ChatMessage {
	return []model.ChatMessage{{Role: "user", Content: content}}
}

func TestChatQuotaCapsAtLimit(t *testing.T) {
	ledger := &fakeLedger{}
	completer := &fakeCompleter{blocks: []ai.ContentBlock{{Type: "text", Text: "ok"}}}
	svc := newTestChatService(ledger, completer)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Chat(ctx, "u1", "member", userTurn("oil capacity?"))
		require.NoError(t, err)
	}
	_, err := svc.Chat(ctx, "u1", "member", userTurn("one more"))
	assert.ErrorIs(t, err, appErr.ErrQuotaExceeded)
	// the rejected turn still burned a slot
	assert.Equal(t, 6, ledger.increments)
	assert.Equal(t, 5, completer.calls)
}

func TestChatAdminBypassesQuota(t *testing.T) {
	ledger := &fakeLedger{}
	completer := &fakeCompleter{blocks: []ai.ContentBlock{{Type: "text", Text: "ok"}}}
	svc := newTestChatService(ledger, completer)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := svc.Chat(ctx, "boss", RoleAdmin, userTurn("query"))
		require.NoError(t, err)
	}
	assert.Equal(t, 0, ledger.increments)
	assert.Equal(t, 10, completer.calls)
}

func TestChatLedgerFailureDoesNotBlock(t *testing.T) {
	ledger := &fakeLedger{err: fmt.Errorf("index unreachable")}
	completer := &fakeCompleter{blocks: []ai.ContentBlock{{Type: "text", Text: "ok"}}}
	svc := newTestChatService(ledger, completer)

	blocks, err := svc.Chat(context.Background(), "u1", "member", userTurn("query"))
	require.NoError(t, err)
	assert.Equal(t, "ok", Answer(blocks))
}

func TestChatRequiresUserMessage(t *testing.T) {
	svc := newTestChatService(&fakeLedger{}, &fakeCompleter{})
	_, err := svc.Chat(context.Background(), "u1", "member", []model.ChatMessage{{Role: "assistant", Content: "hi"}})
	assert.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestChatSendsContextInSystemPrompt(t *testing.T) {
	ledger := &fakeLedger{}
	completer := &fakeCompleter{blocks: []ai.ContentBlock{{Type: "text", Text: "ok"}}}
	svc := newTestChatService(ledger, completer)

	_, err := svc.Chat(context.Background(), "u1", "member", userTurn("model: 450K oil filter"))
	require.NoError(t, err)
	assert.Contains(t, completer.system, "John Deere")
}

func TestAnswerFallsBackToApology(t *testing.T) {
	assert.Equal(t, rag.ApologyReply, Answer(nil))
	assert.Equal(t, rag.ApologyReply, Answer([]ai.ContentBlock{{Type: "tool_use"}}))
	assert.Equal(t, "hello", Answer([]ai.ContentBlock{{Type: "tool_use"}, {Type: "text", Text: "hello"}}))
}

package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/agdesk/agdesk/internal/vectorstore"
)

// DefaultDailyLimit is the number of chat turns a non-admin user gets per
// calendar day.
const DefaultDailyLimit = 5

// Ledger tracks per-user daily usage counts. Increment records one more use
// and returns the count after recording; the caller decides whether that
// count is over the cap.
type Ledger interface {
	Increment(ctx context.Context, userID string, day time.Time) (int, error)
	Get(ctx context.Context, userID string, day time.Time) (int, error)
}

// VectorLedger keeps usage counters in the same hosted index that serves
// content search, under "user:<id>:<date>" keys. Counter records are probed
// lexically so they never need a real embedding.
type VectorLedger struct {
	store vectorstore.Store
	now   func() time.Time
}

func NewVectorLedger(store vectorstore.Store) *VectorLedger {
	return &VectorLedger{store: store, now: time.Now}
}

func ledgerKey(userID string, day time.Time) string {
	return fmt.Sprintf("user:%s:%s", userID, day.Format("2006-01-02"))
}

// Increment reads the current count, writes count+1, and returns the new
// value. The write happens before any cap decision; a rejected turn still
// consumed a slot.
func (l *VectorLedger) Increment(ctx context.Context, userID string, day time.Time) (int, error) {
	key := ledgerKey(userID, day)
	count, err := l.lookup(ctx, key)
	if err != nil {
		return 0, err
	}
	count++
	err = l.store.Upsert(ctx, vectorstore.UpsertRequest{
		ID:   key,
		Data: key,
		Metadata: map[string]interface{}{
			"messageCount": count,
			"lastMessage":  l.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Get returns the recorded count without consuming a slot.
func (l *VectorLedger) Get(ctx context.Context, userID string, day time.Time) (int, error) {
	return l.lookup(ctx, ledgerKey(userID, day))
}

func (l *VectorLedger) lookup(ctx context.Context, key string) (int, error) {
	matches, err := l.store.Query(ctx, vectorstore.QueryRequest{
		Data:            key,
		TopK:            1,
		IncludeMetadata: true,
	})
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 || matches[0].ID != key || matches[0].Metadata == nil {
		return 0, nil
	}
	count, ok := matches[0].Metadata["messageCount"].(float64)
	if !ok {
		return 0, nil
	}
	return int(count), nil
}

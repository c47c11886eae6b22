package quota

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agdesk/agdesk/internal/vectorstore"
)

// memStore emulates the hosted index's lexical probe for exact-key records.
type memStore struct {
	records  map[string]vectorstore.UpsertRequest
	queryErr error
	writeErr error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]vectorstore.UpsertRequest{}}
}

func (m *memStore) Upsert(ctx context.Context, req vectorstore.UpsertRequest) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.records[req.ID] = req
	return nil
}

func (m *memStore) Query(ctx context.Context, req vectorstore.QueryRequest) ([]vectorstore.Match, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	rec, ok := m.records[req.Data]
	if !ok {
		return nil, nil
	}
	// metadata comes back json-typed, numbers as float64
	meta := map[string]interface{}{}
	for k, v := range rec.Metadata {
		if n, ok := v.(int); ok {
			meta[k] = float64(n)
		} else {
			meta[k] = v
		}
	}
	return []vectorstore.Match{{ID: rec.ID, Score: 1, Metadata: meta}}, nil
}

func day(t *testing.T) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", "2026-08-30")
	require.NoError(t, err)
	return d
}

func TestIncrementStartsAtOne(t *testing.T) {
	ledger := NewVectorLedger(newMemStore())
	count, err := ledger.Increment(context.Background(), "u1", day(t))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIncrementAccumulates(t *testing.T) {
	store := newMemStore()
	ledger := NewVectorLedger(store)
	ctx := context.Background()

	var count int
	var err error
	for i := 0; i < 6; i++ {
		count, err = ledger.Increment(ctx, "u1", day(t))
		require.NoError(t, err)
	}
	assert.Equal(t, 6, count)

	rec, ok := store.records["user:u1:2026-08-30"]
	require.True(t, ok)
	assert.Equal(t, "user:u1:2026-08-30", rec.Data)
	assert.Equal(t, 6, rec.Metadata["messageCount"])
	assert.NotEmpty(t, rec.Metadata["lastMessage"])
}

func TestIncrementIsolatesUsersAndDays(t *testing.T) {
	ledger := NewVectorLedger(newMemStore())
	ctx := context.Background()

	_, err := ledger.Increment(ctx, "u1", day(t))
	require.NoError(t, err)

	count, err := ledger.Increment(ctx, "u2", day(t))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = ledger.Increment(ctx, "u1", day(t).AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetDoesNotConsume(t *testing.T) {
	ledger := NewVectorLedger(newMemStore())
	ctx := context.Background()

	count, err := ledger.Get(ctx, "u1", day(t))
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = ledger.Increment(ctx, "u1", day(t))
	require.NoError(t, err)

	count, err = ledger.Get(ctx, "u1", day(t))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIncrementPropagatesStoreErrors(t *testing.T) {
	store := newMemStore()
	store.queryErr = fmt.Errorf("index unreachable")
	ledger := NewVectorLedger(store)

	_, err := ledger.Increment(context.Background(), "u1", day(t))
	assert.Error(t, err)

	store.queryErr = nil
	store.writeErr = fmt.Errorf("write refused")
	_, err = ledger.Increment(context.Background(), "u1", day(t))
	assert.Error(t, err)
}

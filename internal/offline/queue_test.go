package offline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salgaderia/pos/internal/model"
)

func openTestQueue(t *testing.T) *SQLiteQueue {
	t.Helper()
	q, err := OpenSQLiteQueue(filepath.Join(t.TempDir(), "pending.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func draftOrder(customer string) model.Order {
	return model.Order{
		CustomerName: customer,
		DeliveryDate: "2026-09-01",
		DeliveryTime: "12:00",
		Status:       model.StatusNew,
		Items:        []model.OrderItem{{Name: "coxinha", Quantity: 10, CapacityWeight: 10}},
	}
}

func TestQueue_FIFOAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pending.db")
	ctx := context.Background()

	q, err := OpenSQLiteQueue(path)
	require.NoError(t, err)
	for _, name := range []string{"ana", "bruno", "carla"} {
		_, err := q.Enqueue(ctx, draftOrder(name))
		require.NoError(t, err)
	}
	require.NoError(t, q.Close())

	// Durability: entries survive a restart in enqueue order.
	q, err = OpenSQLiteQueue(path)
	require.NoError(t, err)
	defer q.Close()

	entries, err := q.PeekAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "ana", entries[0].Order.CustomerName)
	assert.Equal(t, "bruno", entries[1].Order.CustomerName)
	assert.Equal(t, "carla", entries[2].Order.CustomerName)
	for _, e := range entries {
		assert.NotEmpty(t, e.LocalID)
		assert.False(t, e.QueuedAt.IsZero())
	}
}

func TestQueue_RemoveKeepsRemainderOrdered(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, draftOrder("ana"))
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, draftOrder("bruno"))
	require.NoError(t, err)

	require.NoError(t, q.Remove(ctx, first.LocalID))

	entries, err := q.PeekAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bruno", entries[0].Order.CustomerName)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestQueue_ReplaceAll(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, draftOrder("ana"))
	require.NoError(t, err)
	second, err := q.Enqueue(ctx, draftOrder("bruno"))
	require.NoError(t, err)

	require.NoError(t, q.ReplaceAll(ctx, []model.PendingOrder{*second}))

	entries, err := q.PeekAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bruno", entries[0].Order.CustomerName)
}

func TestQueue_CorruptedStateDegradesToEmpty(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, draftOrder("ana"))
	require.NoError(t, err)
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO pending_orders (local_id, queued_at, payload) VALUES ('broken', '2026-09-01T00:00:00Z', '{not json')`)
	require.NoError(t, err)

	entries, err := q.PeekAll(ctx)
	require.NoError(t, err, "corruption must not surface as a blocking error")
	assert.Empty(t, entries)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "corrupted contents are discarded")
}

package memory

import (
	"context"
	stdErrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcatalog/domain"
	"erpcatalog/domain/audited"
	"erpcatalog/errors"
	"erpcatalog/logging"
	"erpcatalog/messaging"
)

func counting(cnt *int32) messaging.IMessageHandler {
	return messaging.NewHandler("counting", func(ctx context.Context, m messaging.IMessage) error {
		atomic.AddInt32(cnt, 1)
		return nil
	})
}

func TestMemoryTransport_PublishFlow(t *testing.T) {
	tpt := NewMemoryTransport(16, 2)
	require.NoError(t, tpt.Start(context.Background()))

	var cnt int32
	require.NoError(t, tpt.Subscribe("test", counting(&cnt)))

	require.NoError(t, tpt.Publish(context.Background(), &messaging.Message{ID: "m1", Type: "test"}))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&cnt) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, tpt.Close())
}

func TestMemoryTransport_CloseDrainsQueue(t *testing.T) {
	tpt := NewMemoryTransport(16, 1)
	require.NoError(t, tpt.Start(context.Background()))

	var cnt int32
	require.NoError(t, tpt.Subscribe("*", counting(&cnt)))

	msgs := []messaging.IMessage{
		&messaging.Message{ID: "m1", Type: "a"},
		&messaging.Message{ID: "m2", Type: "b"},
		&messaging.Message{ID: "m3", Type: "c"},
	}
	require.NoError(t, tpt.PublishAll(context.Background(), msgs))
	require.NoError(t, tpt.Close())

	assert.Equal(t, int32(3), atomic.LoadInt32(&cnt))
	assert.Error(t, tpt.Publish(context.Background(), &messaging.Message{ID: "m4", Type: "a"}))
	assert.Error(t, tpt.Start(context.Background()))
}

func TestMemoryTransport_NotRunning(t *testing.T) {
	tpt := NewMemoryTransport(1, 1)
	assert.Error(t, tpt.Publish(context.Background(), &messaging.Message{ID: "m1", Type: "a"}))
	assert.Error(t, tpt.Close())
}

func TestMemoryTransport_QueueFull(t *testing.T) {
	tpt := NewMemoryTransport(1, 1)
	require.NoError(t, tpt.Start(context.Background()))

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	require.NoError(t, tpt.Subscribe("slow", messaging.NewHandler("blocking", func(ctx context.Context, m messaging.IMessage) error {
		started <- struct{}{}
		<-release
		return nil
	})))

	require.NoError(t, tpt.Publish(context.Background(), &messaging.Message{ID: "m1", Type: "slow"}))
	<-started
	require.NoError(t, tpt.Publish(context.Background(), &messaging.Message{ID: "m2", Type: "slow"}))
	assert.Error(t, tpt.Publish(context.Background(), &messaging.Message{ID: "m3", Type: "slow"}))

	stats := tpt.Stats()
	assert.True(t, stats.Running)
	assert.Equal(t, 1, stats.QueueDepth)
	assert.Equal(t, 1, stats.HandlerCount)

	close(release)
	require.NoError(t, tpt.Close())
}

func TestMemoryTransport_Unsubscribe(t *testing.T) {
	tpt := NewMemoryTransport(4, 1)
	var cnt int32
	h := counting(&cnt)

	require.NoError(t, tpt.Subscribe("a", h))
	require.NoError(t, tpt.Unsubscribe("a", h))
	assert.Error(t, tpt.Unsubscribe("a", h))
	assert.Equal(t, 0, tpt.Stats().HandlerCount)
}

func TestMemoryTransport_HandlerErrorDoesNotStopOthers(t *testing.T) {
	tpt := NewMemoryTransport(4, 1)
	tpt.logger = logging.NewNoopLogger()
	require.NoError(t, tpt.Start(context.Background()))

	var cnt int32
	require.NoError(t, tpt.Subscribe("a", messaging.NewHandler("failing", func(ctx context.Context, m messaging.IMessage) error {
		return stdErrors.New("boom")
	})))
	require.NoError(t, tpt.Subscribe("a", counting(&cnt)))

	require.NoError(t, tpt.Publish(context.Background(), &messaging.Message{ID: "m1", Type: "a"}))
	require.NoError(t, tpt.Close())
	assert.Equal(t, int32(1), atomic.LoadInt32(&cnt))
}

func TestChangeFeed_WithTracker(t *testing.T) {
	ctx := context.Background()
	tpt := NewMemoryTransport(16, 1)
	require.NoError(t, tpt.Start(ctx))

	var (
		mu       sync.Mutex
		received []audited.ChangeLog
	)
	require.NoError(t, tpt.Subscribe("*", messaging.NewHandler("collector", func(ctx context.Context, m messaging.IMessage) error {
		entry, err := messaging.DecodeChangeLog(m)
		if err != nil {
			return err
		}
		mu.Lock()
		received = append(received, entry)
		mu.Unlock()
		return nil
	})))

	tracker := audited.NewChangeTracker(audited.NewMemoryAuditStore(),
		audited.WithLogger(logging.NewNoopLogger()),
		audited.WithListener(messaging.NewChangeFeed(tpt, logging.NewNoopLogger())))

	_, err := tracker.LogCreate(ctx, entity{id: "e-1", name: "first"})
	require.NoError(t, err)
	_, err = tracker.LogDelete(ctx, entity{id: "e-1", name: "first"})
	require.NoError(t, err)
	require.NoError(t, tpt.Close())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	assert.Equal(t, int64(1), received[0].ID)
	assert.Equal(t, audited.OperationCreate, received[0].Operation)
	assert.Equal(t, audited.OperationDelete, received[1].Operation)
}

func TestChangeFeed_PublishFailureKeepsAuditEntry(t *testing.T) {
	ctx := context.Background()
	tpt := NewMemoryTransport(1, 1) // 未启动，发布必然失败
	store := audited.NewMemoryAuditStore()

	feed := messaging.NewChangeFeed(tpt, logging.NewNoopLogger())
	err := feed.OnChange(ctx, audited.ChangeLog{ID: 7, Operation: audited.OperationCreate})
	assert.True(t, errors.IsErrorCode(err, errors.ErrCodeQueue))

	tracker := audited.NewChangeTracker(store,
		audited.WithLogger(logging.NewNoopLogger()),
		audited.WithListener(feed))
	entry, err := tracker.LogCreate(ctx, entity{id: "e-1", name: "first"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.ID)
	assert.Equal(t, 1, store.Len())
}

type entity struct{ id, name string }

func (e entity) GetID() string     { return e.id }
func (e entity) GetName() string   { return e.name }
func (e entity) Kind() domain.Kind { return "Test" }

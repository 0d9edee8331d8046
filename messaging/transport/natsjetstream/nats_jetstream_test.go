package natsjetstream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcatalog/domain"
	"erpcatalog/domain/audited"
	"erpcatalog/messaging"
)

func TestNewTransportDefaults(t *testing.T) {
	tr := NewTransport(Config{})
	assert.Equal(t, "ERPCATALOG", tr.cfg.Stream)
	assert.Equal(t, "erpcatalog.", tr.cfg.SubjectPrefix)
	assert.Equal(t, 2*time.Minute, tr.cfg.DuplicateWindow)
	assert.NotNil(t, tr.logger)
}

func TestSubject(t *testing.T) {
	tr := NewTransport(Config{SubjectPrefix: "feed."})
	entry := audited.ChangeLog{ID: 7, EntityKind: domain.KindPackaging, EntityID: "pk-1", Operation: audited.OperationUpdate}

	route, ok := messaging.RouteOf(messaging.NewChangeLogMessage(entry))
	require.True(t, ok)
	assert.Equal(t, "feed.changelog.packagingaccessory.update", tr.Subject(route))
}

func TestFilterSubject(t *testing.T) {
	tr := NewTransport(Config{SubjectPrefix: "feed."})

	tests := []struct {
		name        string
		messageType string
		subject     string
		durable     string
		wantErr     bool
	}{
		{name: "全部审计记录", messageType: "*", subject: "feed.changelog.>", durable: "erpcatalog-all"},
		{name: "按操作过滤", messageType: "catalog.changelog.delete", subject: "feed.changelog.*.delete", durable: "erpcatalog-catalog_changelog_delete"},
		{name: "非审计类型", messageType: "order.created", wantErr: true},
		{name: "操作为空", messageType: "catalog.changelog.", wantErr: true},
		{name: "操作含通配符", messageType: "catalog.changelog.>", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, err := tr.filterSubject(tt.messageType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.subject, subject)
			assert.Equal(t, tt.durable, durableName(tr.cfg.DurablePrefix+tt.messageType))
		})
	}
}

func TestPublish_RequiresChangeLogAndStart(t *testing.T) {
	tr := NewTransport(Config{})
	ctx := context.Background()

	err := tr.Publish(ctx, &messaging.Message{ID: "m1", Type: "order.created"})
	assert.ErrorContains(t, err, "only carries change logs")

	entry := audited.ChangeLog{ID: 1, EntityKind: domain.KindProduct, EntityID: "p-1", Operation: audited.OperationCreate}
	err = tr.Publish(ctx, messaging.NewChangeLogMessage(entry))
	assert.ErrorContains(t, err, "not running")
}

func TestSubscribeBeforeStart(t *testing.T) {
	tr := NewTransport(Config{})
	h := messaging.NewHandler("noop", func(ctx context.Context, m messaging.IMessage) error { return nil })

	assert.Error(t, tr.Subscribe("order.created", h))
	require.NoError(t, tr.Subscribe("*", h))
	stats := tr.Stats()
	assert.False(t, stats.Running)
	assert.Equal(t, 1, stats.HandlerCount)

	require.NoError(t, tr.Unsubscribe("*", h))
	assert.Equal(t, 0, tr.Stats().HandlerCount)
	require.NoError(t, tr.Close())
}

package audited

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertConcurrentAppends N 个并发追加得到 N 条记录，ID 为 1..N 且各出现一次
func assertConcurrentAppends(t *testing.T, store IAuditStore, n int) {
	t.Helper()
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]int64, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, err := store.Append(ctx, ChangeLog{
				EntityID:  fmt.Sprintf("e-%d", i),
				Operation: OperationCreate,
			})
			ids[i], errs[i] = entry.ID, err
		}(i)
	}

	// 追加期间的快照读取必须始终是一致的前缀
	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			snapshot, err := store.List(ctx)
			if !assert.NoError(t, err) {
				return
			}
			for j, e := range snapshot {
				if e.ID != int64(j+1) || e.EntityID == "" {
					t.Errorf("snapshot 不一致: index=%d id=%d entity=%q", j, e.ID, e.EntityID)
					return
				}
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-readerDone

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	for i, id := range ids {
		require.Equal(t, int64(i+1), id)
	}

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, n)
	seen := make(map[string]int, n)
	for _, e := range all {
		seen[e.EntityID]++
	}
	assert.Len(t, seen, n)
}

func TestMemoryAuditStore_ConcurrentAppend(t *testing.T) {
	assertConcurrentAppends(t, NewMemoryAuditStore(), 500)
}

func TestMemoryAuditStore_ListIsDefensiveCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAuditStore()
	old, updated := "a", "b"
	_, err := store.Append(ctx, ChangeLog{
		EntityID:  "e-1",
		Operation: OperationUpdate,
		Details:   []ChangeDetail{{FieldName: "name", OldValue: &old, NewValue: &updated}},
	})
	require.NoError(t, err)

	snapshot, err := store.List(ctx)
	require.NoError(t, err)
	snapshot[0].Details[0].FieldName = "tampered"
	snapshot[0].EntityID = "tampered"

	again, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "name", again[0].Details[0].FieldName)
	assert.Equal(t, "e-1", again[0].EntityID)
}

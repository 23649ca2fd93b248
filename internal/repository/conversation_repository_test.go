package repository

import (
	"context"
	"rag-chat-go/internal/config"
	"rag-chat-go/internal/model"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *memoryConversationRepository {
	t.Helper()
	repo := NewConversationRepository(config.ConversationConfig{
		RecentLimit:          10,
		InactivityMinutes:    60,
		SweepIntervalMinutes: 15,
	})
	return repo.(*memoryConversationRepository)
}

func TestCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)

	id := repo.Create("user-1")
	require.NotEmpty(t, id)

	msgs, meta, ok := repo.Get(id)
	require.True(t, ok)
	assert.Empty(t, msgs)
	assert.Equal(t, "user-1", meta.UserID)
	assert.False(t, meta.StartTime.IsZero())
}

func TestGetUnknownConversation(t *testing.T) {
	repo := newTestRepo(t)

	_, _, ok := repo.Get("conv-missing")
	assert.False(t, ok)
}

func TestAppendPreservesOrder(t *testing.T) {
	repo := newTestRepo(t)
	id := repo.Create("")

	require.True(t, repo.Append(id, model.RoleUser, "你好"))
	require.True(t, repo.Append(id, model.RoleAssistant, "你好，有什么可以帮您？"))

	msgs, _, ok := repo.Get(id)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "你好", msgs[0].Content)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
}

func TestAppendUnknownConversationIsNoOp(t *testing.T) {
	repo := newTestRepo(t)

	assert.False(t, repo.Append("conv-missing", model.RoleUser, "hello"))
	assert.False(t, repo.Append("", model.RoleUser, "hello"))
}

func TestGetReturnsOnlyRecentMessages(t *testing.T) {
	repo := newTestRepo(t)
	id := repo.Create("")

	for i := 0; i < 15; i++ {
		content := string(rune('a' + i))
		require.True(t, repo.Append(id, model.RoleUser, content))
	}

	msgs, _, ok := repo.Get(id)
	require.True(t, ok)
	require.Len(t, msgs, 10)
	// 应为最后 10 条，保持原始顺序
	assert.Equal(t, "f", msgs[0].Content)
	assert.Equal(t, "o", msgs[9].Content)
}

func TestGetReturnsCopy(t *testing.T) {
	repo := newTestRepo(t)
	id := repo.Create("")
	require.True(t, repo.Append(id, model.RoleUser, "original"))

	msgs, _, _ := repo.Get(id)
	msgs[0].Content = "mutated"

	again, _, _ := repo.Get(id)
	assert.Equal(t, "original", again[0].Content)
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	id := repo.Create("")

	assert.True(t, repo.Delete(id))
	// 幂等：第二次删除返回 false
	assert.False(t, repo.Delete(id))

	_, _, ok := repo.Get(id)
	assert.False(t, ok)
}

func TestClearAll(t *testing.T) {
	repo := newTestRepo(t)
	repo.Create("")
	repo.Create("")
	repo.Create("")

	assert.Equal(t, 3, repo.ClearAll())
	assert.Equal(t, 0, repo.ClearAll())
}

func TestSweepExpired(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Now()
	repo.now = func() time.Time { return base }

	stale := repo.Create("")
	fresh := repo.Create("")

	// fresh 在 50 分钟后仍有活动，stale 没有
	repo.now = func() time.Time { return base.Add(50 * time.Minute) }
	require.True(t, repo.Append(fresh, model.RoleUser, "still here"))

	// 推进到 70 分钟：stale 超过 60 分钟不活跃阈值
	repo.now = func() time.Time { return base.Add(70 * time.Minute) }
	assert.Equal(t, 1, repo.SweepExpired())

	_, _, ok := repo.Get(stale)
	assert.False(t, ok)
	_, _, ok = repo.Get(fresh)
	assert.True(t, ok)
}

func TestAppendRefreshesActivity(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Now()
	repo.now = func() time.Time { return base }
	id := repo.Create("")

	// 每 30 分钟追加一次，会话应持续存活
	for i := 1; i <= 4; i++ {
		repo.now = func() time.Time { return base.Add(time.Duration(i*30) * time.Minute) }
		require.True(t, repo.Append(id, model.RoleUser, "ping"))
		assert.Equal(t, 0, repo.SweepExpired())
	}
}

func TestStartSweeperRemovesExpiredConversations(t *testing.T) {
	repo := newTestRepo(t)
	repo.sweepInterval = 5 * time.Millisecond

	// 可偏移的时钟：offset 原子更新，避免与后台清理 goroutine 竞争
	base := time.Now()
	var offset int64
	repo.now = func() time.Time {
		return base.Add(time.Duration(atomic.LoadInt64(&offset)))
	}

	id := repo.Create("")
	atomic.StoreInt64(&offset, int64(2*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repo.StartSweeper(ctx)

	require.Eventually(t, func() bool {
		_, _, ok := repo.Get(id)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestStartSweeperStopsOnContextCancel(t *testing.T) {
	repo := newTestRepo(t)
	repo.sweepInterval = 5 * time.Millisecond

	base := time.Now()
	var offset int64
	var clockReads int64
	repo.now = func() time.Time {
		atomic.AddInt64(&clockReads, 1)
		return base.Add(time.Duration(atomic.LoadInt64(&offset)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	repo.StartSweeper(ctx)
	cancel()

	// 每次后台清理都会读取时钟；cancel 后读取应归于停止
	require.Eventually(t, func() bool {
		before := atomic.LoadInt64(&clockReads)
		time.Sleep(25 * time.Millisecond)
		return atomic.LoadInt64(&clockReads) == before
	}, time.Second, time.Millisecond)

	// goroutine 已退出：过期会话不再被回收
	stale := repo.Create("")
	atomic.StoreInt64(&offset, int64(2*time.Hour))
	time.Sleep(30 * time.Millisecond)

	_, _, ok := repo.Get(stale)
	assert.True(t, ok)
}

func TestCreateGeneratesUniqueIDs(t *testing.T) {
	repo := newTestRepo(t)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := repo.Create("")
		assert.False(t, seen[id])
		seen[id] = true
	}
}

// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"fmt"
	"rag-chat-go/internal/config"
	"rag-chat-go/internal/model"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/token"
	"sync"
	"time"
)

// ConversationRepository 定义了会话存储的操作接口。
// 存储为进程内内存实现：会话随进程生命周期存在，由后台清理任务按不活跃时长回收。
type ConversationRepository interface {
	// Create 分配一个新会话并返回其 ID，永不失败。
	Create(userID string) string
	// Append 向会话追加一条消息并刷新活跃时间。
	// 会话不存在时静默忽略并返回 false（不是错误）：
	// 这容忍了“查找与追加之间会话刚好过期”的竞争，代价是静默丢弃该消息。
	Append(id, role, content string) bool
	// Get 返回最近的若干条消息（原始顺序）与元数据；完整历史不透出。
	Get(id string) ([]model.ChatMessage, model.ConversationMetadata, bool)
	// Delete 删除单个会话，返回其是否存在过。
	Delete(id string) bool
	// ClearAll 删除全部会话并返回删除数量，用于管理端重置。
	ClearAll() int
	// SweepExpired 删除所有超过不活跃阈值的会话，返回删除数量。
	SweepExpired() int
	// StartSweeper 启动后台周期清理，ctx 取消时停止。
	StartSweeper(ctx context.Context)
}

// conversationState 是单个会话的内部状态。
// messages 只追加、不重排；删除只能整会话删除。
type conversationState struct {
	messages     []model.ChatMessage
	lastActivity time.Time
	metadata     model.ConversationMetadata
}

type memoryConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]*conversationState

	recentLimit   int
	inactivityTTL time.Duration
	sweepInterval time.Duration

	// now 可在测试中替换以控制时钟
	now func() time.Time
}

// NewConversationRepository 创建一个新的内存会话存储。
func NewConversationRepository(cfg config.ConversationConfig) ConversationRepository {
	return &memoryConversationRepository{
		conversations: make(map[string]*conversationState),
		recentLimit:   cfg.RecentLimit,
		inactivityTTL: cfg.InactivityTTL(),
		sweepInterval: cfg.SweepInterval(),
		now:           time.Now,
	}
}

// Create 分配一个新会话。ID 使用纳秒时间戳加随机后缀，避免引入额外依赖。
func (r *memoryConversationRepository) Create(userID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	id := fmt.Sprintf("conv-%d-%s", now.UnixNano(), token.GenerateRandomString(4))
	r.conversations[id] = &conversationState{
		messages:     []model.ChatMessage{},
		lastActivity: now,
		metadata: model.ConversationMetadata{
			UserID:    userID,
			StartTime: now,
		},
	}
	return id
}

func (r *memoryConversationRepository) Append(id, role, content string) bool {
	if id == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok {
		return false
	}

	now := r.now()
	conv.messages = append(conv.messages, model.ChatMessage{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	conv.lastActivity = now
	return true
}

func (r *memoryConversationRepository) Get(id string) ([]model.ChatMessage, model.ConversationMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[id]
	if !ok {
		return nil, model.ConversationMetadata{}, false
	}

	msgs := conv.messages
	if r.recentLimit > 0 && len(msgs) > r.recentLimit {
		msgs = msgs[len(msgs)-r.recentLimit:]
	}
	// 返回副本，避免调用方共享内部切片
	out := make([]model.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, conv.metadata, true
}

func (r *memoryConversationRepository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[id]; !ok {
		return false
	}
	delete(r.conversations, id)
	return true
}

func (r *memoryConversationRepository) ClearAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := len(r.conversations)
	r.conversations = make(map[string]*conversationState)
	return count
}

func (r *memoryConversationRepository) SweepExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.inactivityTTL)
	removed := 0
	for id, conv := range r.conversations {
		if conv.lastActivity.Before(cutoff) {
			delete(r.conversations, id)
			removed++
		}
	}
	return removed
}

// StartSweeper 启动后台清理 goroutine，周期执行 SweepExpired 直到 ctx 取消。
func (r *memoryConversationRepository) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info("会话清理任务已停止")
				return
			case <-ticker.C:
				if removed := r.SweepExpired(); removed > 0 {
					log.Infof("会话清理任务完成, 移除 %d 个过期会话", removed)
				}
			}
		}
	}()
}

// Package service 包含了应用的业务逻辑层。
package service

import (
	"rag-chat-go/internal/model"
	"rag-chat-go/internal/repository"
)

// ConversationService 定义了会话生命周期的业务逻辑接口。
type ConversationService interface {
	CreateConversation(userID string) string
	AppendMessage(conversationID, role, content string) bool
	GetRecentConversation(conversationID string) (*model.ConversationSnapshot, bool)
	DeleteConversation(conversationID string) bool
	ClearAllConversations() int
}

type conversationService struct {
	repo repository.ConversationRepository
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(repo repository.ConversationRepository) ConversationService {
	return &conversationService{repo: repo}
}

func (s *conversationService) CreateConversation(userID string) string {
	return s.repo.Create(userID)
}

// AppendMessage 向会话追加一条消息。
// 会话不存在（可能刚被过期清理）时返回 false，消息被静默丢弃。
func (s *conversationService) AppendMessage(conversationID, role, content string) bool {
	return s.repo.Append(conversationID, role, content)
}

// GetRecentConversation 返回会话的最近消息与元数据，不存在时第二个返回值为 false。
func (s *conversationService) GetRecentConversation(conversationID string) (*model.ConversationSnapshot, bool) {
	messages, metadata, ok := s.repo.Get(conversationID)
	if !ok {
		return nil, false
	}
	return &model.ConversationSnapshot{
		ID:       conversationID,
		Messages: messages,
		Metadata: metadata,
	}, true
}

func (s *conversationService) DeleteConversation(conversationID string) bool {
	return s.repo.Delete(conversationID)
}

func (s *conversationService) ClearAllConversations() int {
	return s.repo.ClearAll()
}

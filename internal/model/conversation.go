// Package model 包含了应用的数据模型定义。
package model

import "time"

// 消息角色常量。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage 代表会话中的单条消息。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationMetadata 代表会话创建时写入、此后不可变的元数据。
type ConversationMetadata struct {
	UserID    string    `json:"userId,omitempty"`
	StartTime time.Time `json:"startTime"`
}

// ConversationSnapshot 是返回给调用方的会话视图：
// 仅包含最近的若干条消息，完整历史不会透出。
type ConversationSnapshot struct {
	ID       string               `json:"conversationId"`
	Messages []ChatMessage        `json:"messages"`
	Metadata ConversationMetadata `json:"metadata"`
}

// Package service 包含了应用的业务逻辑层。
package service

import (
	"rag-chat-go/internal/model"
	"strings"
)

// 上下文或历史为空时注入的占位标记，让模型能区分“知识库无命中”与“段落缺失”。
const (
	NoContextPlaceholder = "[No context available]"
	NoHistoryPlaceholder = "[No previous conversation]"
	closingInstruction   = "Answer concisely based on the context documents above. If you are uncertain or the context does not contain the answer, say so explicitly."
	contextSectionHeader = "Context documents:"
	historySectionHeader = "Recent conversation:"
)

// ComposePrompt 确定性地拼装发送给生成模型的完整 prompt。
// 纯函数：相同输入永远产生逐字节相同的输出。
// 段落顺序固定：系统指令、上下文文档、最近对话、用户问题、收尾指令。
func ComposePrompt(systemPrompt, contextText string, history []model.ChatMessage, userQuery string) string {
	var b strings.Builder

	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	b.WriteString(contextSectionHeader)
	b.WriteString("\n")
	if contextText == "" {
		b.WriteString(NoContextPlaceholder)
	} else {
		b.WriteString(contextText)
	}
	b.WriteString("\n\n")

	b.WriteString(historySectionHeader)
	b.WriteString("\n")
	if len(history) == 0 {
		b.WriteString(NoHistoryPlaceholder)
	} else {
		b.WriteString(renderHistory(history))
	}
	b.WriteString("\n\n")

	b.WriteString(userQuery)
	b.WriteString("\n\n")
	b.WriteString(closingInstruction)

	return b.String()
}

// renderHistory 将历史消息渲染为 "User:"/"Assistant:" 行，自旧到新。
func renderHistory(history []model.ChatMessage) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		label := "User"
		if msg.Role == model.RoleAssistant {
			label = "Assistant"
		}
		lines = append(lines, label+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

// TruncateHistory 返回历史的最后 limit 条（原始顺序）。
// 这是刻意的截断：更早的轮次对模型不可见，以限制 prompt 体积与延迟。
func TruncateHistory(history []model.ChatMessage, limit int) []model.ChatMessage {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}

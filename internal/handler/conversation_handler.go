// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"rag-chat-go/internal/service"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 处理与会话生命周期相关的 API 请求。
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// CreateConversationRequest 是创建会话接口的请求体。
type CreateConversationRequest struct {
	UserID string `json:"userId"`
}

// Create 处理创建新会话的请求。
func (h *ConversationHandler) Create(c *gin.Context) {
	var req CreateConversationRequest
	// 请求体可为空，userId 是可选的
	_ = c.ShouldBindJSON(&req)

	id := h.service.CreateConversation(req.UserID)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"conversationId": id},
	})
}

// Get 处理获取会话最近历史的请求。未知会话返回 404，而非错误。
func (h *ConversationHandler) Get(c *gin.Context) {
	id := c.Param("id")
	snapshot, ok := h.service.GetRecentConversation(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "会话不存在",
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    snapshot,
	})
}

// Delete 处理删除单个会话的请求。重复删除返回 deleted=false，不报错。
func (h *ConversationHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	deleted := h.service.DeleteConversation(id)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"deleted": deleted},
	})
}

// ClearAll 处理管理端清空全部会话的请求。
func (h *ConversationHandler) ClearAll(c *gin.Context) {
	removed := h.service.ClearAllConversations()
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"removed": removed},
	})
}

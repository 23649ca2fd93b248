// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"encoding/json"
	"net/http"
	"rag-chat-go/internal/model"
	"rag-chat-go/internal/service"
	"rag-chat-go/pkg/log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理聊天请求（REST 与 WebSocket）。
type ChatHandler struct {
	chatService         service.ChatService
	conversationService service.ConversationService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, conversationService service.ConversationService) *ChatHandler {
	return &ChatHandler{
		chatService:         chatService,
		conversationService: conversationService,
	}
}

// ChatRequest 是 REST 聊天接口的请求体。
type ChatRequest struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	Query          string `json:"query"`
}

// ChatResponse 是 REST 聊天接口的响应数据。
type ChatResponse struct {
	ConversationID string                    `json:"conversationId"`
	Response       string                    `json:"response"`
	Sources        []model.RetrievedDocument `json:"sources"`
	Confidence     model.Confidence          `json:"confidence"`
}

// Chat 处理一次完整的问答请求。
// 会话状态由本层维护：调用 Orchestrator 前读取历史，成功后写回问答两条消息。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求体", "data": nil})
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "query 不能为空", "data": nil})
		return
	}

	// 会话不存在（或未提供 ID）时新建会话
	conversationID := req.ConversationID
	var history []model.ChatMessage
	if conversationID != "" {
		if snapshot, ok := h.conversationService.GetRecentConversation(conversationID); ok {
			history = snapshot.Messages
		} else {
			conversationID = ""
		}
	}
	if conversationID == "" {
		conversationID = h.conversationService.CreateConversation(req.UserID)
	}

	result := h.chatService.AnswerQuery(c.Request.Context(), req.Query, history)

	// 写回会话历史；会话可能在请求期间被清理，此时消息被静默丢弃
	if !h.conversationService.AppendMessage(conversationID, model.RoleUser, req.Query) {
		log.Warnf("[ChatHandler] 会话 %s 已不存在, 用户消息未入库", conversationID)
	}
	if !h.conversationService.AppendMessage(conversationID, model.RoleAssistant, result.Response) {
		log.Warnf("[ChatHandler] 会话 %s 已不存在, 助手消息未入库", conversationID)
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": ChatResponse{
			ConversationID: conversationID,
			Response:       result.Response,
			Sources:        result.Sources,
			Confidence:     result.Confidence,
		},
	})
}

// HandleWebSocket 处理 WebSocket 聊天连接。
// 每个连接绑定一个新会话；每帧文本是一次查询，回复为 JSON 格式的问答结果。
func (h *ChatHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	conversationID := h.conversationService.CreateConversation(c.Query("userId"))
	log.Infof("WebSocket 连接已建立, 会话: %s", conversationID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		query := strings.TrimSpace(string(message))
		if query == "" {
			continue
		}

		var history []model.ChatMessage
		if snapshot, ok := h.conversationService.GetRecentConversation(conversationID); ok {
			history = snapshot.Messages
		}

		result := h.chatService.AnswerQuery(c.Request.Context(), query, history)

		h.conversationService.AppendMessage(conversationID, model.RoleUser, query)
		h.conversationService.AppendMessage(conversationID, model.RoleAssistant, result.Response)

		payload, _ := json.Marshal(ChatResponse{
			ConversationID: conversationID,
			Response:       result.Response,
			Sources:        result.Sources,
			Confidence:     result.Confidence,
		})
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Warnf("向 WebSocket 写入消息失败: %v", err)
			break
		}
		sendCompletion(conn)
	}
}

// sendCompletion 发送完成通知 JSON。
func sendCompletion(ws *websocket.Conn) {
	notif := map[string]interface{}{
		"type":      "completion",
		"status":    "finished",
		"timestamp": time.Now().UnixMilli(),
	}
	b, _ := json.Marshal(notif)
	_ = ws.WriteMessage(websocket.TextMessage, b)
}

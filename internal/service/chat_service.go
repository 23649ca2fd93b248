// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"rag-chat-go/internal/config"
	"rag-chat-go/internal/model"
	"rag-chat-go/pkg/llm"
	"rag-chat-go/pkg/log"
)

// FallbackResponse 是生成失败时返回的固定兜底回答。
const FallbackResponse = "抱歉，AI 服务暂时不可用，请稍后重试。"

// ChatService 定义了 RAG 编排的入口。
type ChatService interface {
	// AnswerQuery 执行一次完整的检索增强问答。
	// 永不向调用方抛出错误：所有内部失败都被降级为一个格式完整的结果。
	AnswerQuery(ctx context.Context, query string, history []model.ChatMessage) model.RAGResult
}

type chatService struct {
	searchService SearchService
	llmClient     llm.Client
	cfg           config.RAGConfig
}

// NewChatService 创建一个新的 ChatService 实例。
// Orchestrator 本身无状态，会话状态全部由调用方通过会话存储维护。
func NewChatService(searchService SearchService, llmClient llm.Client, cfg config.RAGConfig) ChatService {
	return &chatService{
		searchService: searchService,
		llmClient:     llmClient,
		cfg:           cfg,
	}
}

// AnswerQuery 协调检索、拼装、生成与置信度估计。
func (s *chatService) AnswerQuery(ctx context.Context, query string, history []model.ChatMessage) model.RAGResult {
	// 1. 检索上下文。检索是尽力而为的：失败时记录日志并以空上下文继续，绝不中止请求。
	retrieval, err := s.searchService.Retrieve(ctx, query, s.cfg.TopK)
	if err != nil {
		log.Errorf("[ChatService] 检索上下文失败, 以空上下文降级继续: %v", err)
		retrieval = &model.RetrievalResult{}
	}

	// 2. 截断历史，仅保留最近的若干条
	recent := TruncateHistory(history, s.cfg.HistoryLimit)

	// 3. 拼装 prompt
	prompt := ComposePrompt(s.cfg.SystemPrompt, retrieval.ContextText, recent, query)

	// 4. 调用生成模型。失败时返回固定兜底结果——仍然是正常返回值，不是错误。
	answer, err := s.llmClient.Generate(ctx, prompt)
	if err != nil {
		log.Errorf("[ChatService] 生成回答失败, 返回兜底响应: %v", err)
		return model.RAGResult{
			Response:   FallbackResponse,
			Sources:    []model.RetrievedDocument{},
			Confidence: model.ConfidenceLow,
		}
	}

	// 5. 基于第 1 步取得的同一批文档估计置信度
	confidence := EstimateConfidence(retrieval.Documents, s.cfg.HighConfidence, s.cfg.MediumConfidence)

	sources := retrieval.Documents
	if sources == nil {
		sources = []model.RetrievedDocument{}
	}
	return model.RAGResult{
		Response:   answer,
		Sources:    sources,
		Confidence: confidence,
	}
}

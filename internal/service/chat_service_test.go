package service

import (
	"context"
	"errors"
	"rag-chat-go/internal/config"
	"rag-chat-go/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearchService struct {
	result *model.RetrievalResult
	err    error
}

func (f *fakeSearchService) Retrieve(ctx context.Context, query string, topK int) (*model.RetrievalResult, error) {
	return f.result, f.err
}

type fakeLLMClient struct {
	answer string
	err    error

	lastPrompt string
}

func (f *fakeLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.answer, f.err
}

func testRAGConfig() config.RAGConfig {
	return config.RAGConfig{
		TopK:             3,
		HistoryLimit:     5,
		HighConfidence:   0.7,
		MediumConfidence: 0.4,
		SystemPrompt:     config.DefaultSystemPrompt,
	}
}

func TestAnswerQueryHappyPath(t *testing.T) {
	search := &fakeSearchService{result: &model.RetrievalResult{
		ContextText: "[1] (score: 0.82) 相关内容",
		Documents: []model.RetrievedDocument{
			{ID: "doc-1", Score: 0.82, Metadata: model.DocumentMetadata{Text: "相关内容"}},
		},
	}}
	llmClient := &fakeLLMClient{answer: "这是回答"}
	svc := NewChatService(search, llmClient, testRAGConfig())

	result := svc.AnswerQuery(context.Background(), "问题", nil)

	assert.Equal(t, "这是回答", result.Response)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "doc-1", result.Sources[0].ID)
	assert.Equal(t, model.ConfidenceHigh, result.Confidence)
	assert.Contains(t, llmClient.lastPrompt, "[1] (score: 0.82) 相关内容")
	assert.Contains(t, llmClient.lastPrompt, "问题")
}

func TestAnswerQueryRetrievalFailureDegradesToEmptyContext(t *testing.T) {
	search := &fakeSearchService{err: errors.New("vector index unreachable")}
	llmClient := &fakeLLMClient{answer: "没有找到相关资料"}
	svc := NewChatService(search, llmClient, testRAGConfig())

	result := svc.AnswerQuery(context.Background(), "问题", nil)

	// 检索失败不是请求失败：继续生成，来源为空，置信度 low
	assert.Equal(t, "没有找到相关资料", result.Response)
	assert.NotNil(t, result.Sources)
	assert.Empty(t, result.Sources)
	assert.Equal(t, model.ConfidenceLow, result.Confidence)
	assert.Contains(t, llmClient.lastPrompt, NoContextPlaceholder)
}

func TestAnswerQueryGenerationFailureReturnsFallback(t *testing.T) {
	search := &fakeSearchService{result: &model.RetrievalResult{
		Documents: []model.RetrievedDocument{{ID: "doc-1", Score: 0.9}},
	}}
	llmClient := &fakeLLMClient{err: errors.New("llm timeout")}
	svc := NewChatService(search, llmClient, testRAGConfig())

	result := svc.AnswerQuery(context.Background(), "问题", nil)

	assert.Equal(t, FallbackResponse, result.Response)
	assert.NotNil(t, result.Sources)
	assert.Empty(t, result.Sources)
	assert.Equal(t, model.ConfidenceLow, result.Confidence)
}

func TestAnswerQueryTruncatesHistory(t *testing.T) {
	search := &fakeSearchService{result: &model.RetrievalResult{}}
	llmClient := &fakeLLMClient{answer: "ok"}
	svc := NewChatService(search, llmClient, testRAGConfig())

	history := make([]model.ChatMessage, 8)
	for i := range history {
		history[i] = model.ChatMessage{Role: model.RoleUser, Content: string(rune('0' + i))}
	}

	svc.AnswerQuery(context.Background(), "问题", history)

	// history_limit=5：只有最后 5 条进入 prompt
	assert.NotContains(t, llmClient.lastPrompt, "User: 2\n")
	assert.Contains(t, llmClient.lastPrompt, "User: 3")
	assert.Contains(t, llmClient.lastPrompt, "User: 7")
}

func TestAnswerQueryMediumConfidence(t *testing.T) {
	search := &fakeSearchService{result: &model.RetrievalResult{
		Documents: []model.RetrievedDocument{{ID: "doc-1", Score: 0.55}},
	}}
	svc := NewChatService(search, &fakeLLMClient{answer: "ok"}, testRAGConfig())

	result := svc.AnswerQuery(context.Background(), "问题", nil)
	assert.Equal(t, model.ConfidenceMedium, result.Confidence)
}

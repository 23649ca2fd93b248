// Package model 包含了应用的数据模型定义。
package model

// Confidence 是基于检索质量的粗粒度置信度标签。
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// DocumentMetadata 是检索结果携带的文档元数据。
type DocumentMetadata struct {
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
	Source   string `json:"source,omitempty"`
}

// RetrievedDocument 代表向量索引返回的一条命中结果。
// 该对象归属于外部向量索引，本核心只读不持久化。
type RetrievedDocument struct {
	ID       string           `json:"id"`
	Score    float64          `json:"score"` // 相似度，越高越相关
	Metadata DocumentMetadata `json:"metadata"`
}

// RetrievalResult 是 Context Retriever 的阶段性产出。
type RetrievalResult struct {
	ContextText string
	Documents   []RetrievedDocument
}

// RAGResult 是一次完整 RAG 请求的最终产出，按请求生成、不持久化。
type RAGResult struct {
	Response   string              `json:"response"`
	Sources    []RetrievedDocument `json:"sources"` // 按 score 降序
	Confidence Confidence          `json:"confidence"`
}

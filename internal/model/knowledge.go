// Package model 包含了应用的数据模型定义。
package model

import "time"

// 知识文档的处理状态。
const (
	DocStatusPending = "pending"
	DocStatusIndexed = "indexed"
	DocStatusFailed  = "failed"
)

// IndexDocument 代表写入向量索引（Elasticsearch）的单个文本分块。
type IndexDocument struct {
	VectorID    string    `json:"vector_id"` // 唯一标识：docID + chunkID
	DocID       string    `json:"doc_id"`
	ChunkID     int       `json:"chunk_id"`
	TextContent string    `json:"text_content"`
	Vector      []float32 `json:"vector,omitempty"`
	Category    string    `json:"category"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

// IndexEntry 是向量索引全量扫描返回的条目摘要（不含向量本身）。
type IndexEntry struct {
	VectorID    string    `json:"vector_id"`
	DocID       string    `json:"doc_id"`
	ChunkID     int       `json:"chunk_id"`
	TextContent string    `json:"text_content"`
	Category    string    `json:"category"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

// KnowledgeDocument 是知识库文档的登记记录，持久化在 MySQL 中。
type KnowledgeDocument struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocID      string    `gorm:"uniqueIndex;size:64;not null" json:"docId"`
	FileName   string    `gorm:"size:255;not null" json:"fileName"`
	Category   string    `gorm:"size:64;index" json:"category"`
	ObjectName string    `gorm:"size:255;not null" json:"-"`
	Status     string    `gorm:"size:16;not null;default:'pending'" json:"status"`
	ChunkCount int       `gorm:"default:0" json:"chunkCount"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (KnowledgeDocument) TableName() string {
	return "knowledge_documents"
}

// Package repository 提供了数据访问层的实现。
package repository

import (
	"errors"
	"rag-chat-go/internal/model"

	"gorm.io/gorm"
)

// DocumentRepository 定义了知识文档登记记录的操作接口。
type DocumentRepository interface {
	Create(doc *model.KnowledgeDocument) error
	FindByDocID(docID string) (*model.KnowledgeDocument, error)
	FindAll() ([]model.KnowledgeDocument, error)
	UpdateStatus(docID, status string, chunkCount int) error
	DeleteByDocID(docID string) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(doc *model.KnowledgeDocument) error {
	return r.db.Create(doc).Error
}

// FindByDocID 按 docID 查找登记记录，不存在时返回 (nil, nil)。
func (r *documentRepository) FindByDocID(docID string) (*model.KnowledgeDocument, error) {
	var doc model.KnowledgeDocument
	err := r.db.Where("doc_id = ?", docID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) FindAll() ([]model.KnowledgeDocument, error) {
	var docs []model.KnowledgeDocument
	err := r.db.Order("created_at DESC").Find(&docs).Error
	return docs, err
}

func (r *documentRepository) UpdateStatus(docID, status string, chunkCount int) error {
	return r.db.Model(&model.KnowledgeDocument{}).
		Where("doc_id = ?", docID).
		Updates(map[string]interface{}{"status": status, "chunk_count": chunkCount}).Error
}

func (r *documentRepository) DeleteByDocID(docID string) error {
	return r.db.Where("doc_id = ?", docID).Delete(&model.KnowledgeDocument{}).Error
}

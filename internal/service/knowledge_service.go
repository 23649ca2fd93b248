// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"io"
	"rag-chat-go/internal/config"
	"rag-chat-go/internal/model"
	"rag-chat-go/internal/repository"
	"rag-chat-go/pkg/kafka"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/storage"
	"rag-chat-go/pkg/tasks"
	"rag-chat-go/pkg/token"
	"rag-chat-go/pkg/vectorindex"
	"time"
)

// KnowledgeService 定义了知识库管理端的业务逻辑接口。
type KnowledgeService interface {
	// UploadDocument 接收原始文件：写入对象存储、登记记录并投递异步处理任务。
	UploadDocument(ctx context.Context, fileName string, reader io.Reader, size int64, category string) (*model.KnowledgeDocument, error)
	// ListDocuments 返回登记表中的全部知识文档记录。
	ListDocuments(ctx context.Context) ([]model.KnowledgeDocument, error)
	// ListIndexEntries 返回向量索引中的全部条目摘要（全量扫描）。
	ListIndexEntries(ctx context.Context) ([]model.IndexEntry, error)
	// DeleteDocument 删除文档：索引分块、对象存储文件与登记记录。
	DeleteDocument(ctx context.Context, docID string) (bool, error)
}

type knowledgeService struct {
	docRepo  repository.DocumentRepository
	index    vectorindex.Index
	minioCfg config.MinIOConfig
}

// NewKnowledgeService 创建一个新的 KnowledgeService 实例。
func NewKnowledgeService(docRepo repository.DocumentRepository, index vectorindex.Index, minioCfg config.MinIOConfig) KnowledgeService {
	return &knowledgeService{
		docRepo:  docRepo,
		index:    index,
		minioCfg: minioCfg,
	}
}

// UploadDocument 同步落盘，异步向量化：真正的抽取/分块/嵌入在 Kafka 消费端完成。
func (s *knowledgeService) UploadDocument(ctx context.Context, fileName string, reader io.Reader, size int64, category string) (*model.KnowledgeDocument, error) {
	docID := fmt.Sprintf("doc-%d-%s", time.Now().UnixNano(), token.GenerateRandomString(4))
	objectName := fmt.Sprintf("documents/%s/%s", docID, fileName)

	// 1. 原始文件写入 MinIO
	if err := storage.PutObject(ctx, s.minioCfg.BucketName, objectName, reader, size, "application/octet-stream"); err != nil {
		log.Errorf("[KnowledgeService] 上传文件到 MinIO 失败, FileName: %s, Error: %v", fileName, err)
		return nil, fmt.Errorf("上传文件到对象存储失败: %w", err)
	}

	// 2. 登记记录，初始状态 pending
	doc := &model.KnowledgeDocument{
		DocID:      docID,
		FileName:   fileName,
		Category:   category,
		ObjectName: objectName,
		Status:     model.DocStatusPending,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, fmt.Errorf("登记知识文档失败: %w", err)
	}

	// 3. 投递异步处理任务
	task := tasks.DocumentIngestTask{
		DocID:      docID,
		ObjectName: objectName,
		FileName:   fileName,
		Category:   category,
		Source:     fileName,
	}
	if err := kafka.ProduceIngestTask(task); err != nil {
		log.Errorf("[KnowledgeService] 投递文档处理任务失败, DocID: %s, Error: %v", docID, err)
		return nil, fmt.Errorf("投递文档处理任务失败: %w", err)
	}

	log.Infof("[KnowledgeService] 文档已登记并投递处理任务, DocID: %s, FileName: %s", docID, fileName)
	return doc, nil
}

func (s *knowledgeService) ListDocuments(ctx context.Context) ([]model.KnowledgeDocument, error) {
	return s.docRepo.FindAll()
}

func (s *knowledgeService) ListIndexEntries(ctx context.Context) ([]model.IndexEntry, error) {
	return s.index.ListAll(ctx)
}

// DeleteDocument 按 docID 级联删除。第一个返回值表示文档是否存在过。
func (s *knowledgeService) DeleteDocument(ctx context.Context, docID string) (bool, error) {
	doc, err := s.docRepo.FindByDocID(docID)
	if err != nil {
		return false, fmt.Errorf("查询知识文档失败: %w", err)
	}
	if doc == nil {
		return false, nil
	}

	// 1. 删除索引中的全部分块
	if err := s.index.DeleteByDocument(ctx, docID); err != nil {
		return true, fmt.Errorf("删除索引分块失败: %w", err)
	}

	// 2. 删除对象存储中的原始文件（失败只记录，不阻断）
	if err := storage.RemoveObject(ctx, s.minioCfg.BucketName, doc.ObjectName); err != nil {
		log.Warnf("[KnowledgeService] 删除 MinIO 对象失败, Object: %s, Error: %v", doc.ObjectName, err)
	}

	// 3. 删除登记记录
	if err := s.docRepo.DeleteByDocID(docID); err != nil {
		return true, fmt.Errorf("删除知识文档记录失败: %w", err)
	}

	log.Infof("[KnowledgeService] 文档删除完成, DocID: %s", docID)
	return true, nil
}

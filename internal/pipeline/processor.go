// Package pipeline 定义了知识文档处理的核心流程。
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"rag-chat-go/internal/config"
	"rag-chat-go/internal/model"
	"rag-chat-go/internal/repository"
	"rag-chat-go/pkg/embedding"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/storage"
	"rag-chat-go/pkg/tasks"
	"rag-chat-go/pkg/tika"
	"rag-chat-go/pkg/vectorindex"
	"time"
	"unicode/utf8"
)

// 分块参数与嵌入批量大小。
const (
	chunkSize      = 1000
	chunkOverlap   = 100
	embedBatchSize = 16
)

// Processor 封装了文档处理的所有依赖和逻辑。
type Processor struct {
	tikaClient      *tika.Client
	embeddingClient embedding.Client
	index           vectorindex.Index
	minioCfg        config.MinIOConfig
	docRepo         repository.DocumentRepository
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	tikaClient *tika.Client,
	embeddingClient embedding.Client,
	index vectorindex.Index,
	minioCfg config.MinIOConfig,
	docRepo repository.DocumentRepository,
) *Processor {
	return &Processor{
		tikaClient:      tikaClient,
		embeddingClient: embeddingClient,
		index:           index,
		minioCfg:        minioCfg,
		docRepo:         docRepo,
	}
}

// Process 是文档处理的主函数：下载、抽取、分块、向量化并写入索引。
func (p *Processor) Process(ctx context.Context, task tasks.DocumentIngestTask) error {
	log.Infof("[Processor] 开始处理文档, DocID: %s, FileName: %s", task.DocID, task.FileName)

	if err := p.process(ctx, task); err != nil {
		if uerr := p.docRepo.UpdateStatus(task.DocID, model.DocStatusFailed, 0); uerr != nil {
			log.Warnf("[Processor] 更新文档状态为 failed 失败, DocID: %s, Error: %v", task.DocID, uerr)
		}
		return err
	}
	return nil
}

func (p *Processor) process(ctx context.Context, task tasks.DocumentIngestTask) error {
	// 1. 从 MinIO 下载文件
	log.Infof("[Processor] 步骤1: 从MinIO下载文件, Bucket: %s, Object: %s", p.minioCfg.BucketName, task.ObjectName)
	object, err := storage.GetObject(ctx, p.minioCfg.BucketName, task.ObjectName)
	if err != nil {
		return fmt.Errorf("从 MinIO 下载文件失败: %w", err)
	}
	defer object.Close()

	buf := new(bytes.Buffer)
	size, err := buf.ReadFrom(object)
	if err != nil {
		return fmt.Errorf("读取MinIO对象流失败: %w", err)
	}
	if size == 0 {
		log.Warnf("[Processor] 文件 '%s' 内容为空, 处理中止", task.FileName)
		return errors.New("文件内容为空")
	}
	log.Infof("[Processor] 步骤1: 文件下载成功, 大小: %d字节", size)

	// 2. 使用 Tika 提取文本
	log.Info("[Processor] 步骤2: 使用Tika提取文本内容")
	textContent, err := p.tikaClient.ExtractText(ctx, bytes.NewReader(buf.Bytes()), task.FileName)
	if err != nil {
		return fmt.Errorf("使用 Tika 提取文本失败: %w", err)
	}
	if textContent == "" {
		return errors.New("提取的文本内容为空")
	}
	log.Infof("[Processor] 步骤2: 文本提取成功, 内容长度: %d 字符", utf8.RuneCountInString(textContent))

	// 3. 文本切块
	chunks := SplitText(textContent, chunkSize, chunkOverlap)
	log.Infof("[Processor] 步骤3: 文本分块完成, 共生成 %d 个分块", len(chunks))
	if len(chunks) == 0 {
		return errors.New("未生成任何文本分块")
	}

	// 4. 重新导入前先清理该文档既有的索引分块（幂等）
	if err := p.index.DeleteByDocument(ctx, task.DocID); err != nil {
		log.Warnf("[Processor] 清理既有索引分块失败 (doc_id=%s): %v", task.DocID, err)
	}

	// 5. 分批向量化并写入索引
	now := time.Now()
	indexed := 0
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		vectors, err := p.embeddingClient.CreateEmbeddings(ctx, batch)
		if err != nil {
			return fmt.Errorf("分块批次 [%d,%d) 向量化失败: %w", start, end, err)
		}

		for i, vector := range vectors {
			chunkID := start + i
			doc := model.IndexDocument{
				VectorID:    fmt.Sprintf("%s_%d", task.DocID, chunkID),
				DocID:       task.DocID,
				ChunkID:     chunkID,
				TextContent: batch[i],
				Vector:      vector,
				Category:    task.Category,
				Source:      task.Source,
				CreatedAt:   now,
			}
			if err := p.index.Upsert(ctx, doc); err != nil {
				return fmt.Errorf("索引分块 %d 失败: %w", chunkID, err)
			}
			indexed++
		}
		log.Infof("[Processor] 已索引 %d/%d 个分块", indexed, len(chunks))
	}

	// 6. 更新登记记录状态
	if err := p.docRepo.UpdateStatus(task.DocID, model.DocStatusIndexed, indexed); err != nil {
		return fmt.Errorf("更新文档状态失败: %w", err)
	}

	log.Infof("[Processor] 文档处理成功完成, DocID: %s, 分块数: %d", task.DocID, indexed)
	return nil
}

// SplitText 将长文本按指定大小和重叠进行切分（按 rune 计数）。
func SplitText(text string, size, overlap int) []string {
	if size <= overlap {
		return simpleSplit(text, size)
	}

	var chunks []string
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := size - overlap
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func simpleSplit(text string, size int) []string {
	var chunks []string
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

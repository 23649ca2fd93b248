// Package service 提供了检索相关的业务逻辑。
package service

import (
	"context"
	"fmt"
	"rag-chat-go/internal/model"
	"rag-chat-go/pkg/embedding"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/vectorindex"
	"sort"
	"strings"
)

// SearchService 接口定义了上下文检索操作。
type SearchService interface {
	// Retrieve 将自由文本查询映射为一组按相关度排序的文档及可注入 prompt 的上下文文本。
	Retrieve(ctx context.Context, query string, topK int) (*model.RetrievalResult, error)
}

type searchService struct {
	embeddingClient embedding.Client
	index           vectorindex.Index
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(embeddingClient embedding.Client, index vectorindex.Index) SearchService {
	return &searchService{
		embeddingClient: embeddingClient,
		index:           index,
	}
}

// Retrieve 执行两步检索：查询向量化，然后向量索引 knn 查询。
func (s *searchService) Retrieve(ctx context.Context, query string, topK int) (*model.RetrievalResult, error) {
	log.Infof("[SearchService] 开始检索上下文, query: '%s', topK: %d", query, topK)

	// 1. 向量化查询
	queryVector, err := s.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		log.Errorf("[SearchService] 向量化查询失败: %v", err)
		return nil, fmt.Errorf("failed to create query embedding: %w", err)
	}
	log.Infof("[SearchService] 向量化查询成功, 向量维度: %d", len(queryVector))

	// 2. 向量索引近邻查询
	docs, err := s.index.Query(ctx, queryVector, topK)
	if err != nil {
		log.Errorf("[SearchService] 向量索引查询失败: %v", err)
		return nil, fmt.Errorf("vector index query failed: %w", err)
	}
	log.Infof("[SearchService] 向量索引返回 %d 条命中结果", len(docs))

	// 3. 防御性排序：不假设索引保证顺序
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Score > docs[j].Score
	})

	return &model.RetrievalResult{
		ContextText: renderContextText(docs),
		Documents:   docs,
	}, nil
}

// renderContextText 将命中结果渲染为注入 prompt 的上下文文本。
// 每条带序号与分数前缀，条目之间以空行分隔；该格式是契约的一部分。
func renderContextText(docs []model.RetrievedDocument) string {
	if len(docs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(docs))
	for i, doc := range docs {
		parts = append(parts, fmt.Sprintf("[%d] (score: %.2f) %s", i+1, doc.Score, doc.Metadata.Text))
	}
	return strings.Join(parts, "\n\n")
}

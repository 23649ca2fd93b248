// Package vectorindex 提供了基于 Elasticsearch dense_vector 的向量索引客户端。
package vectorindex

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"rag-chat-go/internal/config"
	"rag-chat-go/internal/model"
	"rag-chat-go/pkg/log"
	"sort"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Index 定义了向量索引的操作接口。
// Query 返回的结果顺序不做保证，由调用方自行排序。
type Index interface {
	Upsert(ctx context.Context, doc model.IndexDocument) error
	Query(ctx context.Context, vector []float32, topK int) ([]model.RetrievedDocument, error)
	Delete(ctx context.Context, vectorID string) error
	DeleteByDocument(ctx context.Context, docID string) error
	ListAll(ctx context.Context) ([]model.IndexEntry, error)
}

// maxAttempts 是索引操作的最大尝试次数（立即重试，不做退避）。
const maxAttempts = 3

// listPageSize 是全量扫描的内部分页大小。
const listPageSize = 500

// Client 是 Index 的 Elasticsearch 实现。
type Client struct {
	es        *elasticsearch.Client
	indexName string
}

// NewClient 初始化 Elasticsearch 客户端并确保索引存在。
func NewClient(esCfg config.ElasticsearchConfig) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	c := &Client{es: es, indexName: esCfg.IndexName}
	if err := c.createIndexIfNotExists(esCfg.VectorDims); err != nil {
		return nil, err
	}
	return c, nil
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它。
func (c *Client) createIndexIfNotExists(dims int) error {
	res, err := c.es.Indices.Exists([]string{c.indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", c.indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", c.indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	// cosine 相似度，向量维度由配置决定
	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"vector_id": { "type": "keyword" },
				"doc_id": { "type": "keyword" },
				"chunk_id": { "type": "integer" },
				"text_content": { "type": "text" },
				"vector": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				},
				"category": { "type": "keyword" },
				"source": { "type": "keyword" },
				"created_at": { "type": "date" }
			}
		}
	}`, dims)

	res, err = c.es.Indices.Create(
		c.indexName,
		c.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", c.indexName, err)
		return err
	}
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", c.indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", c.indexName)
	return nil
}

// withRetry 对索引操作做有限次数的立即重试。
func withRetry(op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		log.Warnf("[VectorIndex] %s 第 %d/%d 次尝试失败: %v", op, attempt, maxAttempts, err)
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, maxAttempts, err)
}

// Upsert 将单个分块写入索引，按 vector_id 幂等。
func (c *Client) Upsert(ctx context.Context, doc model.IndexDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	return withRetry("upsert", func() error {
		req := esapi.IndexRequest{
			Index:      c.indexName,
			DocumentID: doc.VectorID,
			Body:       bytes.NewReader(docBytes),
			Refresh:    "true",
		}
		res, err := req.Do(ctx, c.es)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("elasticsearch returned an error: %s", res.String())
		}
		return nil
	})
}

// Query 执行 knn 近邻查询，返回按相似度降序排列的命中结果。
func (c *Client) Query(ctx context.Context, vector []float32, topK int) ([]model.RetrievedDocument, error) {
	esQuery := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   vector,
			"k":              topK,
			"num_candidates": topK * 10,
		},
		"_source": []string{"doc_id", "chunk_id", "text_content", "category", "source"},
		"size":    topK,
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}
	queryBytes := body.Bytes()

	var esResponse struct {
		Hits struct {
			Hits []struct {
				ID     string  `json:"_id"`
				Score  float64 `json:"_score"`
				Source struct {
					DocID       string `json:"doc_id"`
					ChunkID     int    `json:"chunk_id"`
					TextContent string `json:"text_content"`
					Category    string `json:"category"`
					Source      string `json:"source"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	err := withRetry("query", func() error {
		res, err := c.es.Search(
			c.es.Search.WithContext(ctx),
			c.es.Search.WithIndex(c.indexName),
			c.es.Search.WithBody(bytes.NewReader(queryBytes)),
		)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("elasticsearch returned an error: %s", res.String())
		}
		return json.NewDecoder(res.Body).Decode(&esResponse)
	})
	if err != nil {
		return nil, err
	}

	docs := make([]model.RetrievedDocument, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		docs = append(docs, model.RetrievedDocument{
			ID:    hit.ID,
			Score: hit.Score,
			Metadata: model.DocumentMetadata{
				Text:     hit.Source.TextContent,
				Category: hit.Source.Category,
				Source:   hit.Source.Source,
			},
		})
	}
	return docs, nil
}

// Delete 删除索引中的单个分块。
func (c *Client) Delete(ctx context.Context, vectorID string) error {
	return withRetry("delete", func() error {
		req := esapi.DeleteRequest{
			Index:      c.indexName,
			DocumentID: vectorID,
			Refresh:    "true",
		}
		res, err := req.Do(ctx, c.es)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		// 404 视为已删除，幂等
		if res.IsError() && res.StatusCode != http.StatusNotFound {
			return fmt.Errorf("elasticsearch returned an error: %s", res.String())
		}
		return nil
	})
}

// DeleteByDocument 删除归属于某个文档的全部分块。
func (c *Client) DeleteByDocument(ctx context.Context, docID string) error {
	query := fmt.Sprintf(`{"query":{"term":{"doc_id":"%s"}}}`, docID)
	return withRetry("delete_by_document", func() error {
		res, err := c.es.DeleteByQuery(
			[]string{c.indexName},
			strings.NewReader(query),
			c.es.DeleteByQuery.WithContext(ctx),
			c.es.DeleteByQuery.WithRefresh(true),
		)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("elasticsearch returned an error: %s", res.String())
		}
		return nil
	})
}

// ListAll 全量扫描索引条目（不含向量），内部按 listPageSize 分页。
func (c *Client) ListAll(ctx context.Context) ([]model.IndexEntry, error) {
	var entries []model.IndexEntry
	from := 0

	for {
		esQuery := map[string]interface{}{
			"query":   map[string]interface{}{"match_all": map[string]interface{}{}},
			"_source": []string{"vector_id", "doc_id", "chunk_id", "text_content", "category", "source", "created_at"},
			"sort":    []map[string]interface{}{{"doc_id": "asc"}, {"chunk_id": "asc"}},
			"from":    from,
			"size":    listPageSize,
		}
		var body bytes.Buffer
		if err := json.NewEncoder(&body).Encode(esQuery); err != nil {
			return nil, fmt.Errorf("failed to encode es query: %w", err)
		}
		queryBytes := body.Bytes()

		var esResponse struct {
			Hits struct {
				Hits []struct {
					Source model.IndexEntry `json:"_source"`
				} `json:"hits"`
			} `json:"hits"`
		}

		err := withRetry("list_all", func() error {
			res, err := c.es.Search(
				c.es.Search.WithContext(ctx),
				c.es.Search.WithIndex(c.indexName),
				c.es.Search.WithBody(bytes.NewReader(queryBytes)),
			)
			if err != nil {
				return err
			}
			defer res.Body.Close()
			if res.IsError() {
				return fmt.Errorf("elasticsearch returned an error: %s", res.String())
			}
			return json.NewDecoder(res.Body).Decode(&esResponse)
		})
		if err != nil {
			return nil, err
		}

		for _, hit := range esResponse.Hits.Hits {
			entries = append(entries, hit.Source)
		}
		if len(esResponse.Hits.Hits) < listPageSize {
			break
		}
		from += listPageSize
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DocID != entries[j].DocID {
			return entries[i].DocID < entries[j].DocID
		}
		return entries[i].ChunkID < entries[j].ChunkID
	})
	return entries, nil
}

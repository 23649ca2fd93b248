package service

import (
	"context"
	"errors"
	"rag-chat-go/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbeddingClient struct {
	vector []float32
	err    error
}

func (f *fakeEmbeddingClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

func (f *fakeEmbeddingClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, f.err
}

type fakeIndex struct {
	docs []model.RetrievedDocument
	err  error

	lastVector []float32
	lastTopK   int
}

func (f *fakeIndex) Upsert(ctx context.Context, doc model.IndexDocument) error { return nil }

func (f *fakeIndex) Query(ctx context.Context, vector []float32, topK int) ([]model.RetrievedDocument, error) {
	f.lastVector = vector
	f.lastTopK = topK
	return f.docs, f.err
}

func (f *fakeIndex) Delete(ctx context.Context, vectorID string) error        { return nil }
func (f *fakeIndex) DeleteByDocument(ctx context.Context, docID string) error { return nil }
func (f *fakeIndex) ListAll(ctx context.Context) ([]model.IndexEntry, error)  { return nil, nil }

func TestRetrieveSortsByScoreDescending(t *testing.T) {
	index := &fakeIndex{docs: []model.RetrievedDocument{
		{ID: "low", Score: 0.2, Metadata: model.DocumentMetadata{Text: "low text"}},
		{ID: "high", Score: 0.9, Metadata: model.DocumentMetadata{Text: "high text"}},
		{ID: "mid", Score: 0.5, Metadata: model.DocumentMetadata{Text: "mid text"}},
	}}
	svc := NewSearchService(&fakeEmbeddingClient{vector: []float32{0.1, 0.2}}, index)

	result, err := svc.Retrieve(context.Background(), "query", 3)
	require.NoError(t, err)
	require.Len(t, result.Documents, 3)
	assert.Equal(t, "high", result.Documents[0].ID)
	assert.Equal(t, "mid", result.Documents[1].ID)
	assert.Equal(t, "low", result.Documents[2].ID)
	assert.Equal(t, 3, index.lastTopK)
	assert.Equal(t, []float32{0.1, 0.2}, index.lastVector)
}

func TestRetrieveContextTextFormat(t *testing.T) {
	index := &fakeIndex{docs: []model.RetrievedDocument{
		{ID: "a", Score: 0.9, Metadata: model.DocumentMetadata{Text: "第一段"}},
		{ID: "b", Score: 0.5, Metadata: model.DocumentMetadata{Text: "第二段"}},
	}}
	svc := NewSearchService(&fakeEmbeddingClient{vector: []float32{1}}, index)

	result, err := svc.Retrieve(context.Background(), "query", 2)
	require.NoError(t, err)
	assert.Equal(t, "[1] (score: 0.90) 第一段\n\n[2] (score: 0.50) 第二段", result.ContextText)
}

func TestRetrieveEmptyHits(t *testing.T) {
	svc := NewSearchService(&fakeEmbeddingClient{vector: []float32{1}}, &fakeIndex{})

	result, err := svc.Retrieve(context.Background(), "query", 3)
	require.NoError(t, err)
	assert.Empty(t, result.Documents)
	assert.Equal(t, "", result.ContextText)
}

func TestRetrieveEmbeddingError(t *testing.T) {
	svc := NewSearchService(&fakeEmbeddingClient{err: errors.New("embedding down")}, &fakeIndex{})

	_, err := svc.Retrieve(context.Background(), "query", 3)
	assert.Error(t, err)
}

func TestRetrieveIndexError(t *testing.T) {
	index := &fakeIndex{err: errors.New("index down")}
	svc := NewSearchService(&fakeEmbeddingClient{vector: []float32{1}}, index)

	_, err := svc.Retrieve(context.Background(), "query", 3)
	assert.Error(t, err)
}

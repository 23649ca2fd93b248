package service

import (
	"rag-chat-go/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateConfidence(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   model.Confidence
	}{
		{"最高分超过高阈值", []float64{0.71, 0.2}, model.ConfidenceHigh},
		{"最高分落在中间区间", []float64{0.55, 0.1}, model.ConfidenceMedium},
		{"最高分低于中阈值", []float64{0.1, 0.05}, model.ConfidenceLow},
		{"恰好等于高阈值", []float64{0.7}, model.ConfidenceHigh},
		{"恰好等于中阈值", []float64{0.4}, model.ConfidenceMedium},
		{"空文档集", nil, model.ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := make([]model.RetrievedDocument, 0, len(tt.scores))
			for _, s := range tt.scores {
				docs = append(docs, model.RetrievedDocument{Score: s})
			}
			assert.Equal(t, tt.want, EstimateConfidence(docs, 0.7, 0.4))
		})
	}
}

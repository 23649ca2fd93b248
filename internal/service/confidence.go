// Package service 包含了应用的业务逻辑层。
package service

import "rag-chat-go/internal/model"

// EstimateConfidence 将检索质量映射为粗粒度的置信度标签。
// 取所有文档的最高相似度分数：>= high 为 high，>= medium 为 medium，否则为 low。
// 空文档集的最高分按 0 处理，即 low。
func EstimateConfidence(docs []model.RetrievedDocument, high, medium float64) model.Confidence {
	maxScore := 0.0
	for _, doc := range docs {
		if doc.Score > maxScore {
			maxScore = doc.Score
		}
	}

	switch {
	case maxScore >= high:
		return model.ConfidenceHigh
	case maxScore >= medium:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

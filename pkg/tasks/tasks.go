// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// DocumentIngestTask represents the data structure for a knowledge ingestion job.
type DocumentIngestTask struct {
	DocID      string `json:"doc_id"`
	ObjectName string `json:"object_name"`
	FileName   string `json:"file_name"`
	Category   string `json:"category"`
	Source     string `json:"source"`
}

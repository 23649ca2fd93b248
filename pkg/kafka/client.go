// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"rag-chat-go/internal/config"
	"rag-chat-go/pkg/database"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/tasks"
	"time"

	"github.com/segmentio/kafka-go"
)

// TaskProcessor defines the interface for any service that can process a task.
// This decouples the Kafka consumer from the concrete pipeline implementation.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.DocumentIngestTask) error
}

var producer *kafka.Writer

// InitProducer 初始化 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// ProduceIngestTask 发送一个知识文档处理任务到 Kafka。
func ProduceIngestTask(task tasks.DocumentIngestTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}

	return producer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(task.DocID),
			Value: taskBytes,
		},
	)
}

// StartConsumer 启动一个 Kafka 消费者来处理知识文档任务，直到 ctx 取消。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  "rag-chat-go-consumer",
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Kafka 消费者已停止")
				break
			}
			log.Error("从 Kafka 读取消息失败", err)
			break
		}

		log.Infof("收到 Kafka 消息: offset %d", m.Offset)

		var task tasks.DocumentIngestTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		log.Infof("开始处理文档任务: DocID=%s, FileName=%s", task.DocID, task.FileName)
		if err := processor.Process(ctx, task); err != nil {
			log.Errorf("处理文档任务失败: DocID=%s, Error: %v", task.DocID, err)
			// 使用 Redis 计数失败次数，达到阈值后提交 offset 终止重试
			attemptsKey := fmt.Sprintf("kafka:attempts:%s", task.DocID)
			attempts, incErr := database.RDB.Incr(ctx, attemptsKey).Result()
			if incErr == nil {
				_ = database.RDB.Expire(ctx, attemptsKey, 24*time.Hour).Err()
			}
			if incErr != nil {
				// Redis 异常时保守处理：不提交 offset。
				// 注意 FetchMessage 在会话内仍会继续前进，未提交的消息
				// 要等到消费组重平衡或进程重启后才会被重新投递。
				continue
			}
			if attempts >= 3 {
				log.Errorf("文档任务多次失败(>=3)，提交 offset 终止重试: DocID=%s", task.DocID)
				if err := r.CommitMessages(ctx, m); err != nil {
					log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
				}
			}
		} else {
			log.Infof("文档任务处理成功: DocID=%s", task.DocID)
			_ = database.RDB.Del(ctx, fmt.Sprintf("kafka:attempts:%s", task.DocID)).Err()
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}
		}
	}

	if err := r.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
}

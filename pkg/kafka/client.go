// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"amora-go/internal/config"
	"amora-go/pkg/database"
	"amora-go/pkg/log"
	"amora-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// AnalysisProcessor defines the interface for any service that can apply a
// persona analysis result. This decouples the consumer from the concrete
// discovery implementation.
type AnalysisProcessor interface {
	Apply(ctx context.Context, result tasks.AnalysisResult) error
}

var producer *kafka.Writer

// InitProducer 初始化 Kafka 生产者（积分消费审计事件）。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.SpendTopic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// ProduceSpendEvent 发送一条积分消费审计事件到 Kafka。
func ProduceSpendEvent(event tasks.SpendEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = producer.WriteMessages(context.Background(),
		kafka.Message{
			Value: eventBytes,
		},
	)
	return err
}

// StartAnalysisConsumer 启动一个 Kafka 消费者，消费工作流引擎发布的人格分析结果。
// 这是发现流程"推送"路径的事件源：结果落库后由 processor 通知实时通道。
func StartAnalysisConsumer(cfg config.KafkaConfig, processor AnalysisProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.AnalysisTopic,
		GroupID:  "amora-go-consumer",
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.AnalysisTopic)

	for {
		m, err := r.FetchMessage(context.Background())
		if err != nil {
			log.Error("从 Kafka 读取消息失败", err)
			break // 退出循环，可能需要重启策略
		}

		var result tasks.AnalysisResult
		if err := json.Unmarshal(m.Value, &result); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		log.Infof("收到人格分析结果: userID=%d", result.UserID)
		if err := processor.Apply(context.Background(), result); err != nil {
			log.Errorf("应用人格分析结果失败: userID=%d, Error: %v", result.UserID, err)
			// 使用 Redis 计数失败次数，达到阈值后提交 offset 终止重试
			attemptsKey := fmt.Sprintf("kafka:attempts:analysis:%d", result.UserID)
			attempts, incErr := database.RDB.Incr(context.Background(), attemptsKey).Result()
			if incErr == nil {
				_ = database.RDB.Expire(context.Background(), attemptsKey, 24*time.Hour).Err()
			}
			if incErr != nil {
				// Redis 异常时保守处理：不提交 offset，让 Kafka 重试
				continue
			}
			if attempts >= 3 {
				log.Errorf("分析结果多次应用失败(>=3)，提交 offset 终止重试: userID=%d", result.UserID)
				if err := r.CommitMessages(context.Background(), m); err != nil {
					log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
				}
			}
			// attempts < 3 时，不提交 offset 让 Kafka 自动重试
		} else {
			_ = database.RDB.Del(context.Background(), fmt.Sprintf("kafka:attempts:analysis:%d", result.UserID)).Err()
			// 处理成功后，手动提交 offset
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}
		}
	}

	if err := r.Close(); err != nil {
		log.Fatalf("关闭 Kafka 消费者失败: %v", err)
	}
}

package mq

import (
	"context"
	"fmt"
	"os"
	"time"

	"wallet-cleanup-sol/internal/config"
	"wallet-cleanup-sol/internal/pkg/logger"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const (
	defaultBatchSize = 32 * 1024
	defaultLingerMs  = 5
	metadataTimeout  = 10 * time.Second
)

// NewKafkaProducer 创建 Kafka 生产者，结果 topic 不存在时自动创建
func NewKafkaProducer(cfg config.KafkaProducerConfig) (*kafka.Producer, error) {
	if err := ensureTopic(cfg); err != nil {
		return nil, err
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	lingerMs := cfg.LingerMs
	if lingerMs < 0 {
		lingerMs = defaultLingerMs
	}
	host, _ := os.Hostname()

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"client.id":         fmt.Sprintf("wallet-cleanup-%s", host),

		// 可靠性保障
		"acks":                                  "all",
		"enable.idempotence":                    true,
		"max.in.flight.requests.per.connection": 5, // 幂等场景下最大值为 5

		// 超时与重试
		"delivery.timeout.ms": 30000,
		"request.timeout.ms":  30000,
		"retries":             5,
		"retry.backoff.ms":    100,

		"batch.size":       batchSize,
		"linger.ms":        lingerMs,
		"compression.type": "none",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return producer, nil
}

func ensureTopic(cfg config.KafkaProducerConfig) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	meta, err := admin.GetMetadata(nil, true, int(metadataTimeout.Milliseconds()))
	if err != nil {
		return fmt.Errorf("failed to get metadata: %w", err)
	}
	if _, ok := meta.Topics[cfg.Topic]; ok {
		return nil
	}

	replicationFactor := 1
	if len(meta.Brokers) > 1 {
		replicationFactor = 2
	}
	logger.Infof("[mq] creating topic %s, partitions=%d, replication factor=%d", cfg.Topic, cfg.Partitions, replicationFactor)

	ctx, cancel := context.WithTimeout(context.Background(), metadataTimeout)
	defer cancel()
	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             cfg.Topic,
		NumPartitions:     cfg.Partitions,
		ReplicationFactor: replicationFactor,
	}})
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	for _, result := range results {
		if code := result.Error.Code(); code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %w", result.Topic, result.Error)
		}
	}
	return nil
}

package producers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// topicAdmin is the part of *kafka.Conn used to provision topics
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

const topicReadAttempts = 5

var topicReadBackoff = 2 * time.Second

// ensureTopic creates topic unless the broker already reports partitions for
// it. An unknown-topic answer skips the remaining read attempts, and losing a
// creation race to another process counts as success.
func ensureTopic(ctx context.Context, admin topicAdmin, topic string, numPartitions, replicationFactor int, log *slog.Logger) error {
	log = log.With("topic", topic)

	var err error
	for attempt := 1; attempt <= topicReadAttempts; attempt++ {
		var partitions []kafka.Partition
		partitions, err = admin.ReadPartitions(topic)
		if err == nil && len(partitions) > 0 {
			log.Info("Kafka topic already exists", "partitions", len(partitions))
			return nil
		}
		if err == nil || errors.Is(err, kafka.UnknownTopicOrPartition) {
			break
		}
		log.Warn("Failed to read partitions, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(topicReadBackoff):
		}
	}

	cfg := kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     max(numPartitions, 1),
		ReplicationFactor: max(replicationFactor, 1),
	}
	log.Info("Creating Kafka topic",
		"partitions", cfg.NumPartitions,
		"replication_factor", cfg.ReplicationFactor,
		"last_read_error", err,
	)
	if err := admin.CreateTopics(cfg); err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic, err)
	}
	return nil
}

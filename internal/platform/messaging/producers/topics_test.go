package producers

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockTopicAdmin struct {
	mock.Mock
}

func (m *MockTopicAdmin) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	args := m.Called(topics)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]kafka.Partition), args.Error(1)
}

func (m *MockTopicAdmin) CreateTopics(topics ...kafka.TopicConfig) error {
	args := m.Called(topics)
	return args.Error(0)
}

func TestEnsureTopic(t *testing.T) {
	topicReadBackoff = time.Millisecond
	ctx := context.Background()
	topic := "ledger-commands"

	t.Run("ExistingTopic", func(t *testing.T) {
		admin := new(MockTopicAdmin)
		admin.On("ReadPartitions", []string{topic}).Return([]kafka.Partition{{Topic: topic, ID: 0}}, nil).Once()

		assert.NoError(t, ensureTopic(ctx, admin, topic, 3, 1, slog.Default()))
		admin.AssertNotCalled(t, "CreateTopics", mock.Anything)
	})

	t.Run("UnknownTopicIsCreatedWithDefaults", func(t *testing.T) {
		admin := new(MockTopicAdmin)
		admin.On("ReadPartitions", []string{topic}).Return(nil, kafka.UnknownTopicOrPartition).Once()
		admin.On("CreateTopics", []kafka.TopicConfig{{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}}).Return(nil).Once()

		assert.NoError(t, ensureTopic(ctx, admin, topic, 0, 0, slog.Default()))
		admin.AssertExpectations(t)
	})

	t.Run("TransientReadErrorsAreRetried", func(t *testing.T) {
		admin := new(MockTopicAdmin)
		admin.On("ReadPartitions", []string{topic}).Return(nil, errors.New("broker not ready")).Twice()
		admin.On("ReadPartitions", []string{topic}).Return([]kafka.Partition{{Topic: topic}}, nil).Once()

		assert.NoError(t, ensureTopic(ctx, admin, topic, 3, 1, slog.Default()))
		admin.AssertNumberOfCalls(t, "ReadPartitions", 3)
	})

	t.Run("CreationRaceIsSuccess", func(t *testing.T) {
		admin := new(MockTopicAdmin)
		admin.On("ReadPartitions", []string{topic}).Return(nil, kafka.UnknownTopicOrPartition).Once()
		admin.On("CreateTopics", mock.Anything).Return(kafka.TopicAlreadyExists).Once()

		assert.NoError(t, ensureTopic(ctx, admin, topic, 3, 1, slog.Default()))
	})

	t.Run("CreationFailure", func(t *testing.T) {
		admin := new(MockTopicAdmin)
		admin.On("ReadPartitions", []string{topic}).Return(nil, kafka.UnknownTopicOrPartition).Once()
		admin.On("CreateTopics", mock.Anything).Return(kafka.InvalidReplicationFactor).Once()

		err := ensureTopic(ctx, admin, topic, 3, 5, slog.Default())
		assert.ErrorContains(t, err, "failed to create kafka topic ledger-commands")
	})

	t.Run("CancelledWhileRetrying", func(t *testing.T) {
		admin := new(MockTopicAdmin)
		admin.On("ReadPartitions", []string{topic}).Return(nil, errors.New("broker not ready"))
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := ensureTopic(cancelled, admin, topic, 3, 1, slog.Default())
		assert.ErrorIs(t, err, context.Canceled)
		admin.AssertNotCalled(t, "CreateTopics", mock.Anything)
	})
}

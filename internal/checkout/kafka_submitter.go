package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const DefaultTopic = "checkout-submitted"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSubmitter publishes orders; the broker acknowledging the write is the
// confirmation.
type KafkaSubmitter struct {
	writer  messageWriter
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

func NewKafkaSubmitter(topic string, logger *zap.Logger, brokers ...string) *KafkaSubmitter {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newKafkaSubmitter(w, logger)
}

func newKafkaSubmitter(w messageWriter, logger *zap.Logger) *KafkaSubmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaSubmitter{writer: w, timeout: 5 * time.Second, logger: logger, now: time.Now}
}

func (s *KafkaSubmitter) Submit(ctx context.Context, order Order) (Confirmation, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return Confirmation{}, fmt.Errorf("marshal order: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.ID),
		Value: payload,
	})
	if err != nil {
		return Confirmation{}, fmt.Errorf("publish order %s: %w", order.ID, err)
	}

	s.logger.Debug("order published", zap.String("order_id", order.ID), zap.Int("bytes", len(payload)))
	return Confirmation{OrderID: order.ID, ConfirmedAt: s.now()}, nil
}

func (s *KafkaSubmitter) Close() error {
	return s.writer.Close()
}

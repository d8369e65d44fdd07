package eventbus

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	crerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/event"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
)

type PublisherConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// KafkaPublisher re-emits derived events with the shared envelope shape.
// The producer is configured for reliability over throughput: all replicas
// acknowledged, idempotent, one in-flight request.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logging.Logger
}

func NewKafkaPublisher(cfg PublisherConfig, logger *logging.Logger) (*KafkaPublisher, error) {
	if logger == nil {
		logger = logging.Default()
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Retry.Backoff = 100 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	config.Producer.Compression = sarama.CompressionSnappy
	if cfg.ClientID != "" {
		config.ClientID = cfg.ClientID
	} else {
		config.ClientID = "tournament-events-publisher"
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, crerr.Wrap(err, "create kafka producer")
	}

	return &KafkaPublisher{
		producer: producer,
		topic:    cfg.Topic,
		logger:   logger,
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt event.Event) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}

	encoded, err := evt.Encode()
	if err != nil {
		return crerr.Wrap(err, "encode event envelope")
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(partitionKey(evt)),
		Value: sarama.ByteEncoder(encoded),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(evt.ID)},
			{Key: []byte("event_type"), Value: []byte(evt.Type)},
		},
		Timestamp: time.Now().UTC(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return crerr.Wrapf(err, "publish %s", evt.Type)
	}

	p.logger.DebugContext(ctx, "event published",
		"event_id", evt.ID,
		"event_type", evt.Type,
		"topic", p.topic,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// partitionKey keeps all events of one tournament on one partition so
// consumers see them in publish order; events without a tournament fall
// back to their own id.
func partitionKey(evt event.Event) string {
	if ids := event.DecodeEntityIDs(evt.Payload); ids.TournamentID != "" {
		return ids.TournamentID
	}
	return evt.ID
}

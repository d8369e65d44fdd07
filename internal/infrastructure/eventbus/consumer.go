package eventbus

import (
	"context"
	"sync"

	"github.com/IBM/sarama"
	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/event"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
	"github.com/yared-ayele-debela/tournament-events/internal/usecase"
)

type ConsumerConfig struct {
	Brokers  []string
	Topics   []string
	GroupID  string
	ClientID string
	// PoolSize bounds handler concurrency across all claimed partitions.
	PoolSize int
}

// KafkaConsumer pulls events from the bus and runs them through the
// orchestrator on a bounded worker pool. Offsets are marked after the
// orchestrator settles an event (processed or dead-lettered), giving
// at-least-once semantics end to end.
type KafkaConsumer struct {
	group        sarama.ConsumerGroup
	topics       []string
	registry     *usecase.Registry
	orchestrator *usecase.Orchestrator
	pool         *ants.Pool
	logger       *logging.Logger
}

func NewKafkaConsumer(
	cfg ConsumerConfig,
	registry *usecase.Registry,
	orchestrator *usecase.Orchestrator,
	logger *logging.Logger,
) (*KafkaConsumer, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.PoolSize < 1 {
		cfg.PoolSize = 8
	}

	config := sarama.NewConfig()
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Return.Errors = true
	if cfg.ClientID != "" {
		config.ClientID = cfg.ClientID
	} else {
		config.ClientID = "tournament-events-consumer"
	}

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, config)
	if err != nil {
		return nil, crerr.Wrap(err, "create consumer group")
	}

	workers, err := ants.NewPool(cfg.PoolSize)
	if err != nil {
		group.Close()
		return nil, crerr.Wrap(err, "create worker pool")
	}

	return &KafkaConsumer{
		group:        group,
		topics:       cfg.Topics,
		registry:     registry,
		orchestrator: orchestrator,
		pool:         workers,
		logger:       logger,
	}, nil
}

// Run blocks until ctx is cancelled, rejoining the group across rebalances.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	go c.drainErrors(ctx)

	for {
		if err := c.group.Consume(ctx, c.topics, &groupHandler{consumer: c}); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.ErrorContext(ctx, "consumer group session failed", "error", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *KafkaConsumer) Close() error {
	c.pool.Release()
	return c.group.Close()
}

func (c *KafkaConsumer) drainErrors(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-c.group.Errors():
			if !ok {
				return
			}
			c.logger.WarnContext(ctx, "consumer group error", "error", err)
		}
	}
}

// groupHandler adapts the consumer to sarama's session callbacks.
type groupHandler struct {
	consumer *KafkaConsumer
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	c := h.consumer
	ctx := session.Context()

	for msg := range claim.Messages() {
		evt, err := event.Decode(msg.Value)
		if err != nil || evt.ID == "" || evt.Type == "" {
			// A message that is not a valid envelope can never be
			// processed; skip past it rather than wedge the partition.
			c.logger.WarnContext(ctx, "discarding malformed envelope",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			session.MarkMessage(msg, "")
			continue
		}

		c.dispatch(ctx, evt)
		session.MarkMessage(msg, "")
	}
	return nil
}

// dispatch fans the event out to every handler in its allow-list. Handlers
// for one event run concurrently on the shared pool; the claim loop waits
// so the offset is only marked once all of them settled.
func (c *KafkaConsumer) dispatch(ctx context.Context, evt event.Event) {
	handlers := c.registry.HandlersFor(evt.Type)
	if len(handlers) == 0 {
		c.logger.DebugContext(ctx, "no handler registered for event type",
			"event_id", evt.ID,
			"event_type", evt.Type,
		)
		return
	}

	var wg sync.WaitGroup
	for _, handler := range handlers {
		handler := handler
		wg.Add(1)
		submitErr := c.pool.Submit(func() {
			defer wg.Done()
			// Errors are settled inside Process (retry or dead-letter);
			// nothing to do with them here.
			_ = c.orchestrator.Process(ctx, evt, handler)
		})
		if submitErr != nil {
			// Pool rejection must not lose the event: its offset is
			// marked after dispatch, so settle it inline instead.
			c.logger.WarnContext(ctx, "worker pool rejected event, processing inline",
				"event_id", evt.ID,
				"handler", handler.Name(),
				"error", submitErr,
			)
			_ = c.orchestrator.Process(ctx, evt, handler)
			wg.Done()
		}
	}
	wg.Wait()
}

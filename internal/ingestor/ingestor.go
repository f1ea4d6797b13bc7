// Package ingestor implements the Event Ingestor (C7): a Kafka consumer
// group demultiplexing event-stream traffic into Dispatcher calls,
// grounded on the sarama consumer-group session/heartbeat configuration
// and ConsumeClaim handler shape used by pxyz's auth-service pkg/kafka
// package. The teacher's RabbitMQ queue/notification.go supplies the
// retry-topology idiom reused here for malformed-message handling,
// adapted to Kafka's commit-offset model instead of AMQP acking.
package ingestor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/5-VED/nest-notification-svc/internal/dispatcher"
	"github.com/5-VED/nest-notification-svc/internal/model"
)

var topics = []string{"user.events", "auth.events", "order.events", "payment.events", "notification.bulk"}

const bulkTopic = "notification.bulk"

// consumerSubBatch bounds how many entries of one notification.bulk
// message are dispatched concurrently at a time. It is intentionally a
// separate constant from any producer-side chunk size (the admin bulk
// endpoint's 10,000-item guard in C8): a producer may chunk a very large
// batch across many Kafka messages however it likes, but each message
// this consumer receives is still fanned out in-process at this width.
const consumerSubBatch = 100

// Dispatcher is the slice of the Dispatcher the Ingestor drives.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatcher.SendNotificationData) (model.Notification, error)
}

// NewConsumerConfig builds the sarama config for the ingestor's consumer
// group. The rebalance-strategy/version choice and overall config shape
// follow pxyz's Kafka consumer; the numeric timeouts and fetch bounds
// are the service's own event-transport contract (session 30s,
// heartbeat 3s, max wait 100ms, 4MiB/partition, 1MiB/fetch).
func NewConsumerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	cfg.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Group.Session.Timeout = 30 * time.Second
	cfg.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	cfg.Consumer.MaxWaitTime = 100 * time.Millisecond
	cfg.Consumer.Fetch.Max = 4 * 1024 * 1024
	cfg.Consumer.Fetch.Default = 1024 * 1024
	cfg.Consumer.MaxProcessingTime = 30 * time.Second
	return cfg
}

// NewProducerConfig builds the sarama config for a notification.bulk
// producer, per the same event-transport contract: idempotent
// production, bounded in-flight requests, and a fixed retry backoff.
// Nothing in this module constructs a producer with it; the admin bulk
// endpoint dispatches its items in-process.
func NewProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Retry.Max = 8
	cfg.Producer.Retry.Backoff = 100 * time.Millisecond
	cfg.Producer.Transaction.Timeout = 30 * time.Second
	cfg.Net.MaxOpenRequests = 5
	cfg.Producer.Return.Successes = true
	return cfg
}

// Ingestor consumes the event-stream topics and the bulk topic, demuxing
// each message into one or more Dispatcher calls.
type Ingestor struct {
	group      sarama.ConsumerGroup
	dispatcher Dispatcher
	log        *slog.Logger

	skipped   int64
	mu        sync.Mutex
}

// New wraps an already-constructed sarama.ConsumerGroup.
func New(group sarama.ConsumerGroup, d Dispatcher, log *slog.Logger) *Ingestor {
	if log == nil {
		log = slog.Default()
	}
	return &Ingestor{group: group, dispatcher: d, log: log}
}

// Run consumes until ctx is cancelled. A rebalance mid-run causes Consume
// to return; the outer loop simply calls it again, matching the teacher's
// retry-until-cancelled consumer loop.
func (i *Ingestor) Run(ctx context.Context) error {
	handler := &groupHandler{ingestor: i}

	for {
		if err := i.group.Consume(ctx, topics, handler); err != nil {
			i.log.Warn("consumer group session ended with error", "error", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Close releases the underlying consumer group.
func (i *Ingestor) Close() error {
	return i.group.Close()
}

func (i *Ingestor) markSkipped() {
	i.mu.Lock()
	i.skipped++
	i.mu.Unlock()
}

// Skipped reports how many empty or malformed messages (including a bulk
// message with no items) have been committed without dispatching
// anything. Recognised no-op events are not counted.
func (i *Ingestor) Skipped() int64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.skipped
}

func (i *Ingestor) handleEventMessage(ctx context.Context, topic string, payload []byte) {
	if len(payload) == 0 {
		i.log.Warn("skipping empty message", "topic", topic)
		i.markSkipped()
		return
	}

	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		i.log.Warn("skipping malformed message", "topic", topic, "error", err)
		i.markSkipped()
		return
	}

	req, ok, err := translate(topic, ev)
	if err != nil {
		i.log.Warn("skipping message that failed translation", "topic", topic, "eventType", ev.EventType, "error", err)
		i.markSkipped()
		return
	}
	if !ok {
		return
	}

	if _, err := i.dispatcher.Dispatch(ctx, req); err != nil {
		i.log.Warn("dispatch failed for event", "topic", topic, "eventType", ev.EventType, "userId", ev.UserID, "error", err)
	}
}

func (i *Ingestor) handleBulkMessage(ctx context.Context, payload []byte) {
	if len(payload) == 0 {
		i.log.Warn("skipping empty bulk message")
		i.markSkipped()
		return
	}

	var bulk BulkMessage
	if err := json.Unmarshal(payload, &bulk); err != nil {
		i.log.Warn("skipping malformed bulk message", "error", err)
		i.markSkipped()
		return
	}

	total := len(bulk.BulkNotifications)
	if total == 0 {
		i.markSkipped()
		return
	}

	start := time.Now()
	var succeeded, failed int64
	var mu sync.Mutex

	for offset := 0; offset < total; offset += consumerSubBatch {
		end := offset + consumerSubBatch
		if end > total {
			end = total
		}
		subBatch := bulk.BulkNotifications[offset:end]

		var wg sync.WaitGroup
		for _, item := range subBatch {
			wg.Add(1)
			go func(item BulkItem) {
				defer wg.Done()
				if _, err := i.dispatcher.Dispatch(ctx, fromBulkItem(item)); err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
					i.log.Warn("bulk item dispatch failed", "batchId", bulk.BatchID, "userId", item.UserID, "error", err)
					return
				}
				mu.Lock()
				succeeded++
				mu.Unlock()
			}(item)
		}
		wg.Wait()
	}

	i.log.Info("bulk batch processed",
		"batchId", bulk.BatchID,
		"chunk", fmt.Sprintf("%d/%d", bulk.ChunkIndex, bulk.TotalChunks),
		"total", total,
		"succeeded", succeeded,
		"failed", failed,
		"elapsed", time.Since(start),
		"throughputPerSec", float64(total)/time.Since(start).Seconds(),
	)
}

type groupHandler struct {
	ingestor *Ingestor
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()

	for message := range claim.Messages() {
		if message.Topic == bulkTopic {
			h.ingestor.handleBulkMessage(ctx, message.Value)
		} else {
			h.ingestor.handleEventMessage(ctx, message.Topic, message.Value)
		}
		session.MarkMessage(message, "")
	}

	return nil
}

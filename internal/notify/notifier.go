// Package notify publishes domain events (new donation requests, accepts,
// rejects) to a Kafka outbox topic. Publishing is fire-and-forget: callers
// dispatch an event and move on, and delivery failures are logged rather
// than propagated, so a broker outage can never fail a donation operation.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	kafka "github.com/segmentio/kafka-go"
)

// OutboxTopic is where donation events are published for downstream
// consumers (notification senders, analytics).
const OutboxTopic = "donation-events"

// Event types published by the donation workflow.
const (
	EventDonationRequest  = "donation_request"
	EventDonationAccepted = "donation_accepted"
	EventDonationRejected = "donation_rejected"
)

// Event is the JSON schema for messages on the donation-events topic.
type Event struct {
	// ID is generated per event for idempotency and correlation.
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurredAt"`
	Data       map[string]interface{} `json:"data"`
}

// Notifier writes events to Kafka. With no brokers configured it degrades
// to structured log lines only, which keeps development setups broker-free
// while still leaving an observable trail.
type Notifier struct {
	writer *kafka.Writer
}

// New creates a Notifier. brokers may be empty for log-only mode.
func New(brokers []string) *Notifier {
	if len(brokers) == 0 {
		return &Notifier{}
	}
	return &Notifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        OutboxTopic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Close releases the Kafka writer, if any.
func (n *Notifier) Close() error {
	if n.writer == nil {
		return nil
	}
	return n.writer.Close()
}

// Dispatch publishes an event in a detached goroutine. It never blocks the
// caller and never surfaces an error; failures end up in the log.
func (n *Notifier) Dispatch(eventType string, data map[string]interface{}) {
	ev := Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now(),
		Data:       data,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.publish(ctx, ev); err != nil {
			log.Printf("notify: publish %s id=%s failed: %v", ev.Type, ev.ID, err)
		}
	}()
}

func (n *Notifier) publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	if n.writer == nil {
		log.Printf("notify: [%s] id=%s %s", ev.Type, ev.ID, string(body))
		return nil
	}

	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.ID),
		Value: body,
	})
}

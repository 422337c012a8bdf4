// Package events publishes domain events after a write has committed.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gioservice_backend/pkg/utils"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

const (
	JobCreated          = "job.created"
	JobStatusChanged    = "job.status_changed"
	PayrollPeriodCreated = "payroll.period_created"
	InventoryMoved      = "inventory.movement_recorded"
)

const publishTimeout = 10 * time.Second

// Event is the JSON body of every published message.
type Event struct {
	Event      string      `json:"event"`
	EntityID   int64       `json:"entity_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload,omitempty"`
}

// New stamps an event with the current time.
func New(name string, entityID int64, payload interface{}) Event {
	return Event{Event: name, EntityID: entityID, OccurredAt: time.Now().UTC(), Payload: payload}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Emit publishes e and only logs a failure. Request outcomes never depend on it.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		utils.LogWarn("failed to publish event", map[string]interface{}{
			"event":     e.Event,
			"entity_id": e.EntityID,
			"error":     err.Error(),
		})
	}
}

// PubSubPublisher sends events to one Pub/Sub topic.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubPublisher connects with credentialsJSON when given, else application default credentials.
func NewPubSubPublisher(ctx context.Context, projectID, topic, credentialsJSON string) (*PubSubPublisher, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	return &PubSubPublisher{client: client, topic: client.Topic(topic)}, nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", e.Event, err)
	}
	// Detached from the request so a finished response does not cancel delivery.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"event": e.Event},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing %s: %w", e.Event, err)
	}
	return nil
}

// Close flushes pending messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

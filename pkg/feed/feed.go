package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/mwhitfield/wishlist-backend/pkg/logger"
	redisclient "github.com/mwhitfield/wishlist-backend/pkg/redis"
)

// Change is a hint that a collection was modified. Consumers re-fetch the
// affected collection; no record payloads travel over the feed.
type Change struct {
	Collection string    `json:"collection"`
	Action     string    `json:"action"`
	RecordID   string    `json:"record_id,omitempty"`
	At         time.Time `json:"at"`
}

const (
	CollectionItems        = "items"
	CollectionReservations = "reservations"
	CollectionChildren     = "children"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

type publishSubscriber interface {
	Publish(ctx context.Context, channel string, payload any) error
	Subscribe(ctx context.Context, channels ...string) (*redislib.PubSub, error)
	FeedChannel() string
}

// Publisher fans change hints out over redis pub/sub. Publishing is
// best-effort: a broker failure is logged and swallowed so domain writes
// never fail because the feed is down.
type Publisher struct {
	client publishSubscriber
	logg   *logger.Logger
}

// Notifier is the write-side surface services depend on.
type Notifier interface {
	Notify(ctx context.Context, collection, action, recordID string)
}

// NewPublisher builds a Publisher over the shared redis client.
func NewPublisher(client *redisclient.Client, logg *logger.Logger) (*Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Publisher{client: client, logg: logg}, nil
}

// Notify publishes a change hint for the given collection.
func (p *Publisher) Notify(ctx context.Context, collection, action, recordID string) {
	change := Change{
		Collection: collection,
		Action:     action,
		RecordID:   recordID,
		At:         time.Now().UTC(),
	}
	payload, err := json.Marshal(change)
	if err != nil {
		p.logg.Warn(ctx, "feed.marshal_failed")
		return
	}
	if err := p.client.Publish(ctx, p.client.FeedChannel(), string(payload)); err != nil {
		logCtx := p.logg.WithFields(ctx, map[string]any{
			"collection": collection,
			"action":     action,
		})
		p.logg.Warn(logCtx, "feed.publish_failed")
	}
}

// Subscriber delivers change hints to SSE connections.
type Subscriber struct {
	client publishSubscriber
	logg   *logger.Logger
}

// NewSubscriber builds a Subscriber over the shared redis client.
func NewSubscriber(client *redisclient.Client, logg *logger.Logger) (*Subscriber, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Subscriber{client: client, logg: logg}, nil
}

// Listen subscribes to the feed channel and forwards decoded changes until
// ctx is cancelled. Undecodable messages are skipped.
func (s *Subscriber) Listen(ctx context.Context) (<-chan Change, error) {
	sub, err := s.client.Subscribe(ctx, s.client.FeedChannel())
	if err != nil {
		return nil, fmt.Errorf("subscribing to feed: %w", err)
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					s.logg.Warn(ctx, "feed.decode_failed")
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

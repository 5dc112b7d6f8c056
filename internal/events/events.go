// Package events announces complaint lifecycle changes on Redis Pub/Sub so
// dashboards and notifiers can react without polling the database.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"grievance-intake-go/internal/config"
	"grievance-intake-go/internal/logger"
	"grievance-intake-go/internal/types"
)

// Channel is the Pub/Sub channel every event is published on.
const Channel = "complaints.events"

const (
	TypeSubmitted     = "complaint.submitted"
	TypeStatusChanged = "complaint.status_changed"
)

type Event struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	ComplaintID string         `json:"complaintId"`
	SubmitterID string         `json:"submitterId"`
	Status      types.Status   `json:"status"`
	Category    types.Category `json:"category"`
	Department  string         `json:"department"`
	AreaCode    string         `json:"areaCode"`
	ActorID     *string        `json:"actorId,omitempty"`
	Remarks     *string        `json:"remarks,omitempty"`
	OccurredAt  time.Time      `json:"occurredAt"`
}

func Submitted(rec *types.ComplaintRecord) Event {
	return newEvent(TypeSubmitted, rec, rec.CreatedAt)
}

// StatusChanged describes the latest history entry of rec.
func StatusChanged(rec *types.ComplaintRecord) Event {
	last, _ := rec.LastEntry()
	ev := newEvent(TypeStatusChanged, rec, last.Timestamp)
	ev.ActorID = last.ActorID
	ev.Remarks = last.Remarks
	return ev
}

func newEvent(typ string, rec *types.ComplaintRecord, at time.Time) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        typ,
		ComplaintID: rec.ID,
		SubmitterID: rec.SubmitterID,
		Status:      rec.Status,
		Category:    rec.Category,
		Department:  rec.Department,
		AreaCode:    rec.Contact.AreaCode,
		OccurredAt:  at.UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops events; used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

type RedisPublisher struct {
	rdb     redis.UniversalClient
	channel string
	log     *logger.Logger
}

func NewRedisPublisher(rdb redis.UniversalClient, log *logger.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: Channel, log: log.WithComponent("events")}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	p.log.WithField("type", ev.Type).WithField("complaint_id", ev.ComplaintID).Debug("event published")
	return nil
}

// Subscribe delivers decoded events to handle until ctx is cancelled.
// Undecodable payloads are logged and skipped.
func Subscribe(ctx context.Context, rdb redis.UniversalClient, log *logger.Logger, handle func(Event)) error {
	sub := rdb.Subscribe(ctx, Channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.WithError(err).Warn("skipping malformed event")
				continue
			}
			handle(ev)
		}
	}
}

// Connect opens a Redis client and pings it with exponential backoff bounded
// by timeout.
func Connect(ctx context.Context, cfg config.RedisConfig, timeout time.Duration, log *logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = timeout
	op := func() error { return rdb.Ping(ctx).Err() }
	notify := func(err error, wait time.Duration) {
		log.WithError(err).WithField("retry_in", wait.String()).Warn("redis not reachable yet")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

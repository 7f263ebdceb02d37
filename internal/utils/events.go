package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const LeadEventsChannel = "lead_events"

const (
	EventLeadCreated   = "lead.created"
	EventLeadForwarded = "lead.forwarded"
	EventLeadUpdated   = "lead.updated"
	EventLeadDeleted   = "lead.deleted"
)

type LeadEvent struct {
	Type       string    `json:"type"`
	LeadID     string    `json:"leadId"`
	StorageID  string    `json:"id"`
	Status     string    `json:"status,omitempty"`
	AssigneeID string    `json:"assigneeId,omitempty"`
	ActorID    string    `json:"actorId,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event LeadEvent) error
}

type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: LeadEventsChannel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event LeadEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, data).Err()
}

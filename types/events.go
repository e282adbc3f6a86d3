package types

import (
	"context"
	"encoding/json"
	"time"
)

type EventType string

const (
	EventTypeGroupCreated    EventType = "GROUP_CREATED"
	EventTypeGroupUpdated    EventType = "GROUP_UPDATED"
	EventTypeGroupDeleted    EventType = "GROUP_DELETED"
	EventTypeMemberAdded     EventType = "MEMBER_ADDED"
	EventTypeExpenseCreated  EventType = "EXPENSE_CREATED"
	EventTypeTransferCreated EventType = "TRANSFER_CREATED"
)

// Event is a group activity notification published after a successful
// mutation. Delivery is best effort; the ledger itself is the source of truth.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	GroupID   string          `json:"groupId"`
	UserID    string          `json:"userId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// EventPublisher publishes group activity events.
type EventPublisher interface {
	Publish(ctx context.Context, groupID string, event Event) error
}

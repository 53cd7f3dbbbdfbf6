// Package changefeed distributes row change notifications to interested
// subscribers, in process through a Hub and across processes through AMQP.
package changefeed

import (
	"context"
	"time"
)

// Tables that emit change events.
const (
	TableSparkMoments = "spark_moments"
	TableBadges       = "badges"
	TableUserBadges   = "user_badges"
	TableUsers        = "users"
)

// Actions carried by change events.
const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event notes that a row changed. Subscribers re-read state rather than
// applying the event as a diff.
type Event struct {
	Table  string    `json:"table"`
	Action string    `json:"action"`
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
}

// RoutingKey returns the topic routing key "<table>.<action>".
func (e Event) RoutingKey() string {
	return e.Table + "." + e.Action
}

// Publisher accepts change events. Publishing is best effort and never fails
// the operation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event Event)

// Publish calls f(ctx, event).
func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	f(ctx, event)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, Event) {})

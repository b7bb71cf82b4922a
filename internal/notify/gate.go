// Package notify delivers roster notifications to connected browsers and
// mailboxes according to each recipient's preferences.
package notify

import (
	"context"
	"time"

	"github.com/swimref/roster/internal/application"
)

// Channel is a delivery medium.
type Channel string

const (
	ChannelToast Channel = "toast"
	ChannelEmail Channel = "email"
)

// Allows reports whether a notification of category may be delivered over ch.
// Uncategorized notifications always toast and are never emailed.
func Allows(prefs application.NotificationPreferences, category application.Category, ch Channel) bool {
	toggles, ok := prefs.For(category)
	if !ok {
		return ch == ChannelToast
	}
	switch ch {
	case ChannelToast:
		return toggles.Toast
	case ChannelEmail:
		return toggles.Email
	}
	return false
}

// Sink receives a batch of deliveries.
type Sink interface {
	Deliver(ctx context.Context, deliveries []application.Delivery) error
}

// Message is the wire form of a notification pushed to clients.
type Message struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"userId"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Category    string    `json:"category,omitempty"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	Read        bool      `json:"read"`
	LinkTo      string    `json:"linkTo,omitempty"`
}

// NewMessage converts a notification to its wire form.
func NewMessage(n application.Notification) Message {
	return Message{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Title:       n.Title,
		Message:     n.Message,
		Category:    string(n.Category),
		Type:        string(n.Severity),
		Timestamp:   n.CreatedAt,
		Read:        n.Read,
		LinkTo:      n.LinkTo,
	}
}

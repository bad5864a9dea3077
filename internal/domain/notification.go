package domain

import "time"

// NotificationKind enumerates notification sources.
type NotificationKind string

const (
	NotificationShoutout       NotificationKind = "shoutout"
	NotificationReaction       NotificationKind = "reaction"
	NotificationComment        NotificationKind = "comment"
	NotificationReportResolved NotificationKind = "report_resolved"
)

// Notification is a polled message for a single user.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	ActorID     string           `json:"actor_id"`
	Kind        NotificationKind `json:"kind"`
	Message     string           `json:"message"`
	ReferenceID string           `json:"reference_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Read        bool             `json:"-"`
}

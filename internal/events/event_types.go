package events

import (
	"time"

	"github.com/spec-kit/recognition-wall/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPostCreated    EventType = "post_created"
	EventPostDeleted    EventType = "post_deleted"
	EventReactionAdded  EventType = "reaction_added"
	EventCommentAdded   EventType = "comment_added"
	EventReportFiled    EventType = "report_filed"
	EventReportResolved EventType = "report_resolved"
)

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	PostID    string    `json:"post_id,omitempty"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// PostCreatedPayload payload.
type PostCreatedPayload struct {
	AuthorName   string   `json:"author_name"`
	RecipientIDs []string `json:"recipient_ids"`
	Preview      string   `json:"preview"`
}

// PostDeletedPayload payload.
type PostDeletedPayload struct {
	AuthorID         string `json:"author_id"`
	CommentsRemoved  int    `json:"comments_removed"`
	ReportsRemoved   int64  `json:"reports_removed"`
	AttachmentsCount int    `json:"attachments_count"`
}

// ReactionAddedPayload payload.
type ReactionAddedPayload struct {
	PostAuthorID string              `json:"post_author_id"`
	ActorName    string              `json:"actor_name"`
	Type         domain.ReactionType `json:"type"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID      string  `json:"comment_id"`
	PostAuthorID   string  `json:"post_author_id"`
	ParentAuthorID *string `json:"parent_author_id,omitempty"`
	ActorName      string  `json:"actor_name"`
	Preview        string  `json:"preview"`
}

// ReportFiledPayload payload.
type ReportFiledPayload struct {
	ReportID string              `json:"report_id"`
	Target   domain.ReportTarget `json:"target"`
	Reason   string              `json:"reason"`
}

// ReportResolvedPayload payload.
type ReportResolvedPayload struct {
	ReportID   string                  `json:"report_id"`
	ReporterID string                  `json:"reporter_id"`
	Status     domain.ReportStatus     `json:"status"`
	Action     domain.ModerationAction `json:"action"`
	Target     domain.ReportTarget     `json:"target"`
}

package domain

import "time"

// ReportStatus enumerates moderation states.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusResolved  ReportStatus = "resolved"
	ReportStatusDismissed ReportStatus = "dismissed"
)

// Terminal reports whether no further transition is allowed from s.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusResolved || s == ReportStatusDismissed
}

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	return s == ReportStatusPending || s.Terminal()
}

var reportTransitions = map[ReportStatus][]ReportStatus{
	ReportStatusPending:   {ReportStatusResolved, ReportStatusDismissed},
	ReportStatusResolved:  {},
	ReportStatusDismissed: {},
}

// CanTransition reports whether a report may move from current to next.
func CanTransition(current, next ReportStatus) bool {
	for _, candidate := range reportTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// TargetKind identifies what a report points at.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// Valid reports whether k is a known target kind.
func (k TargetKind) Valid() bool {
	return k == TargetPost || k == TargetComment
}

// ReportTarget references exactly one post or comment.
type ReportTarget struct {
	Kind TargetKind
	ID   string
}

// PostTarget builds a target referencing a post.
func PostTarget(id string) ReportTarget {
	return ReportTarget{Kind: TargetPost, ID: id}
}

// CommentTarget builds a target referencing a comment.
func CommentTarget(id string) ReportTarget {
	return ReportTarget{Kind: TargetComment, ID: id}
}

// ModerationAction is what an admin does to the target while resolving.
type ModerationAction string

const (
	ActionIgnore ModerationAction = "ignore"
	ActionDelete ModerationAction = "delete"
)

// Report is a user flag raised against a post or comment.
type Report struct {
	ID              string
	ReporterID      string
	Target          ReportTarget
	Reason          string
	Description     string
	Status          ReportStatus
	CreatedAt       time.Time
	ResolvedByID    *string
	ResolvedAt      *time.Time
	ResolutionNotes *string
}

// ReportResolution carries the fields written by a terminal transition.
type ReportResolution struct {
	Status       ReportStatus
	ResolvedByID string
	ResolvedAt   time.Time
	Notes        *string
}

// ReportStats summarises the moderation queue.
type ReportStats struct {
	Total     int
	Pending   int
	Resolved  int
	Dismissed int
}

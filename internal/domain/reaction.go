package domain

import "time"

// ReactionType enumerates the emoji a user can leave on a post.
type ReactionType string

const (
	ReactionLike ReactionType = "like"
	ReactionClap ReactionType = "clap"
	ReactionStar ReactionType = "star"
)

// ReactionTypes lists every supported type in display order.
var ReactionTypes = []ReactionType{ReactionLike, ReactionClap, ReactionStar}

// Valid reports whether t is a supported reaction type.
func (t ReactionType) Valid() bool {
	switch t {
	case ReactionLike, ReactionClap, ReactionStar:
		return true
	}
	return false
}

// Reaction is the single active reaction of a user on a post.
type Reaction struct {
	ID        string
	PostID    string
	UserID    string
	Type      ReactionType
	CreatedAt time.Time
}

// ReactionCounts aggregates reactions per type.
type ReactionCounts map[ReactionType]int

// Total sums all reaction types.
func (c ReactionCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// CountReactions groups reactions by type. Every supported type is present
// in the result, zero when nobody used it.
func CountReactions(reactions []Reaction) ReactionCounts {
	counts := make(ReactionCounts, len(ReactionTypes))
	for _, t := range ReactionTypes {
		counts[t] = 0
	}
	for _, r := range reactions {
		counts[r.Type]++
	}
	return counts
}

// ReactionState is returned after a react call.
type ReactionState struct {
	PostID string
	Counts ReactionCounts
	Viewer *ReactionType
}

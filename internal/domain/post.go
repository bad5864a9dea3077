package domain

import "time"

// Post is a shout-out recognising one or more colleagues.
type Post struct {
	ID           string
	AuthorID     string
	Content      string
	RecipientIDs []string
	Attachments  []Attachment
	EditCount    int
	IsEdited     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastEditedAt *time.Time
}

// Attachment stores metadata for a file uploaded with a post.
type Attachment struct {
	ID          string
	PostID      string
	FileName    string
	ContentType string
	URL         string
	SizeBytes   int64
	CreatedAt   time.Time
}

// HasRecipient reports whether userID is tagged on the post.
func (p *Post) HasRecipient(userID string) bool {
	for _, id := range p.RecipientIDs {
		if id == userID {
			return true
		}
	}
	return false
}

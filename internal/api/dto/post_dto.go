package dto

import "time"

// CreatePostRequest payload for JSON post creation. Multipart requests carry
// the same fields as form values plus files.
type CreatePostRequest struct {
	Content      string   `json:"content" form:"content"`
	RecipientIDs []string `json:"recipient_ids" form:"recipient_ids"`
}

// UpdatePostRequest payload.
type UpdatePostRequest struct {
	Content string `json:"content"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	URL         string `json:"url"`
}

// PostResponse is a stored post.
type PostResponse struct {
	ID           string               `json:"id"`
	AuthorID     string               `json:"author_id"`
	Content      string               `json:"content"`
	RecipientIDs []string             `json:"recipient_ids"`
	Attachments  []AttachmentResponse `json:"attachments"`
	EditCount    int                  `json:"edit_count"`
	IsEdited     bool                 `json:"is_edited"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	LastEditedAt *time.Time           `json:"last_edited_at"`
}

// FeedItemResponse is a post decorated with aggregates.
type FeedItemResponse struct {
	PostResponse
	Author         *UserResponse          `json:"author"`
	Recipients     []UserResponse         `json:"recipients"`
	Reactions      map[string]int         `json:"reactions"`
	TotalReactions int                    `json:"total_reactions"`
	ViewerReaction *string                `json:"viewer_reaction"`
	CommentCount   int                    `json:"comment_count"`
	Comments       []*CommentNodeResponse `json:"comments,omitempty"`
}

// FeedGroupResponse is a department bucket.
type FeedGroupResponse struct {
	Department string             `json:"department"`
	Items      []FeedItemResponse `json:"items"`
}

// FeedResponse is one page of the feed.
type FeedResponse struct {
	Items  []FeedItemResponse  `json:"items"`
	Groups []FeedGroupResponse `json:"groups,omitempty"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// ReactRequest payload.
type ReactRequest struct {
	Type string `json:"type"`
}

// ReactionStateResponse is returned after toggling a reaction.
type ReactionStateResponse struct {
	PostID         string         `json:"post_id"`
	Reactions      map[string]int `json:"reactions"`
	TotalReactions int            `json:"total_reactions"`
	ViewerReaction *string        `json:"viewer_reaction"`
}

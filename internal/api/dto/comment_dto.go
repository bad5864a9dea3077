package dto

import "time"

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id"`
}

// UpdateCommentRequest payload.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// CommentResponse is a single comment. Tombstones carry no author or content.
type CommentResponse struct {
	ID        string     `json:"id"`
	PostID    string     `json:"post_id"`
	AuthorID  *string    `json:"author_id"`
	ParentID  *string    `json:"parent_id"`
	Content   string     `json:"content"`
	Deleted   bool       `json:"deleted"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// CommentNodeResponse is a comment with its replies.
type CommentNodeResponse struct {
	CommentResponse
	Replies []*CommentNodeResponse `json:"replies"`
}

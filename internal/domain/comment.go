package domain

import (
	"sort"
	"time"
)

// Comment is a flat comment record. ParentID, when set, references a
// comment on the same post.
type Comment struct {
	ID        string
	PostID    string
	UserID    string
	ParentID  *string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// IsDeleted reports whether the comment is a tombstone.
func (c *Comment) IsDeleted() bool {
	return c.DeletedAt != nil
}

// CommentNode is a comment with its nested replies.
type CommentNode struct {
	Comment  Comment
	Replies  []*CommentNode
	Orphaned bool
}

// BuildCommentTree groups flat comments into a forest. Roots are comments
// without a parent, or whose parent is not among the given comments.
// Siblings are ordered by CreatedAt ascending, then by ID.
func BuildCommentTree(comments []Comment) []*CommentNode {
	ordered := make([]Comment, len(comments))
	copy(ordered, comments)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	nodes := make(map[string]*CommentNode, len(ordered))
	for i := range ordered {
		nodes[ordered[i].ID] = &CommentNode{Comment: ordered[i], Replies: []*CommentNode{}}
	}

	roots := make([]*CommentNode, 0)
	for i := range ordered {
		node := nodes[ordered[i].ID]
		if ordered[i].ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*ordered[i].ParentID]
		if !ok || parent == node {
			node.Orphaned = true
			roots = append(roots, node)
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}
	return roots
}

// CountTreeNodes returns the number of nodes in a forest.
func CountTreeNodes(roots []*CommentNode) int {
	total := 0
	stack := append([]*CommentNode{}, roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		total++
		stack = append(stack, n.Replies...)
	}
	return total
}

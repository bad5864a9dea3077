package service

import (
	"context"
	"strings"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/events"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

// CommentService manages threaded comments. Deleted comments become
// tombstones so their replies keep a parent.
type CommentService struct {
	deps Dependencies
	publisher
}

// NewCommentService constructs the service.
func NewCommentService(deps Dependencies) *CommentService {
	deps = deps.withDefaults()
	return &CommentService{deps: deps, publisher: publisher{dispatcher: deps.Dispatcher, now: deps.Now}}
}

// Add stores a comment, optionally replying to parentID on the same post.
func (s *CommentService) Add(ctx context.Context, user *domain.User, postID, content string, parentID *string) (*domain.Comment, error) {
	content, err := cleanContent("content", content, s.deps.Feed.CommentMaxLength)
	if err != nil {
		return nil, err
	}
	post, err := s.deps.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post", postID)
	}

	var parent *domain.Comment
	if parentID != nil && strings.TrimSpace(*parentID) != "" {
		id := strings.TrimSpace(*parentID)
		parent, err = s.deps.Comments.GetByID(ctx, id)
		if err != nil {
			return nil, notFound(err, "parent comment", id)
		}
		if parent.PostID != postID {
			return nil, apperrors.NewNotFound("parent comment", map[string]any{"id": id, "post_id": postID})
		}
	}

	comment := &domain.Comment{PostID: postID, UserID: user.ID, Content: content}
	if parent != nil {
		comment.ParentID = &parent.ID
	}
	if err := s.deps.Comments.Create(ctx, comment); err != nil {
		return nil, notFound(err, "post", postID)
	}

	payload := events.CommentAddedPayload{
		CommentID:    comment.ID,
		PostAuthorID: post.AuthorID,
		ActorName:    user.Name,
		Preview:      preview(comment.Content),
	}
	if parent != nil && !parent.IsDeleted() {
		payload.ParentAuthorID = &parent.UserID
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventCommentAdded,
		PostID:  postID,
		ActorID: user.ID,
		Payload: payload,
	})
	return comment, nil
}

// Edit replaces the content of a live comment authored by editor.
func (s *CommentService) Edit(ctx context.Context, editor *domain.User, commentID, content string) (*domain.Comment, error) {
	comment, err := s.liveComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != editor.ID {
		return nil, apperrors.NewForbidden("only the author can edit this comment")
	}
	content, err = cleanContent("content", content, s.deps.Feed.CommentMaxLength)
	if err != nil {
		return nil, err
	}
	updated, err := s.deps.Comments.UpdateContent(ctx, commentID, content)
	if err != nil {
		return nil, notFound(err, "comment", commentID)
	}
	return updated, nil
}

// Delete tombstones a comment and drops the reports raised against it.
func (s *CommentService) Delete(ctx context.Context, requester *domain.User, commentID string) error {
	comment, err := s.liveComment(ctx, commentID)
	if err != nil {
		return err
	}
	if !requester.CanModify(comment.UserID) {
		return apperrors.NewForbidden("only the author or an admin can delete this comment")
	}
	return s.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.removeWithinTx(ctx, commentID, "")
	})
}

// removeWithinTx tombstones the comment and removes reports targeting it,
// except keepReportID.
func (s *CommentService) removeWithinTx(ctx context.Context, commentID, keepReportID string) error {
	if _, err := s.deps.Reports.DeleteByTargets(ctx, []domain.ReportTarget{domain.CommentTarget(commentID)}, keepReportID); err != nil {
		return err
	}
	if err := s.deps.Comments.Tombstone(ctx, commentID, s.deps.Now()); err != nil {
		return notFound(err, "comment", commentID)
	}
	return nil
}

func (s *CommentService) liveComment(ctx context.Context, commentID string) (*domain.Comment, error) {
	comment, err := s.deps.Comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, notFound(err, "comment", commentID)
	}
	if comment.IsDeleted() {
		return nil, apperrors.NewNotFound("comment", map[string]any{"id": commentID})
	}
	return comment, nil
}

// Tree returns the comment forest of a post.
func (s *CommentService) Tree(ctx context.Context, postID string) ([]*domain.CommentNode, error) {
	if _, err := s.deps.Posts.GetByID(ctx, postID); err != nil {
		return nil, notFound(err, "post", postID)
	}
	comments, err := s.deps.Comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return domain.BuildCommentTree(comments), nil
}

package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/events"
	"github.com/spec-kit/recognition-wall/internal/repository"
	"github.com/spec-kit/recognition-wall/internal/storage"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

// PostService owns shout-out creation, edits and deletion.
type PostService struct {
	deps Dependencies
	publisher
}

// PostCreateInput describes a new shout-out.
type PostCreateInput struct {
	Content      string
	RecipientIDs []string
	Attachments  []AttachmentUpload
}

// AttachmentUpload is a file received with a new post.
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// postRemoval describes what a post delete took with it.
type postRemoval struct {
	post           *domain.Post
	attachments    []domain.Attachment
	comments       int
	reportsRemoved int64
}

// NewPostService constructs the service.
func NewPostService(deps Dependencies) *PostService {
	deps = deps.withDefaults()
	return &PostService{deps: deps, publisher: publisher{dispatcher: deps.Dispatcher, now: deps.Now}}
}

// Create stores a post. Attachments are uploaded before the transaction and
// removed again if it fails.
func (s *PostService) Create(ctx context.Context, author *domain.User, input PostCreateInput) (*domain.Post, error) {
	content, err := cleanContent("content", input.Content, s.deps.Feed.PostMaxLength)
	if err != nil {
		return nil, err
	}
	recipients, err := s.resolveRecipients(ctx, input.RecipientIDs)
	if err != nil {
		return nil, err
	}

	uploaded := make([]domain.Attachment, 0, len(input.Attachments))
	for _, upload := range input.Attachments {
		if s.deps.Blobs == nil {
			return nil, apperrors.NewValidationError("attachments are not supported", nil)
		}
		url, size, err := s.deps.Blobs.Put(ctx, upload.FileName, upload.ContentType, upload.Body)
		if err != nil {
			s.discardBlobs(ctx, uploaded)
			return nil, uploadError(upload.FileName, err)
		}
		uploaded = append(uploaded, domain.Attachment{
			FileName:    upload.FileName,
			ContentType: upload.ContentType,
			URL:         url,
			SizeBytes:   size,
		})
	}

	post := &domain.Post{
		AuthorID:     author.ID,
		Content:      content,
		RecipientIDs: recipients,
	}
	err = s.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.deps.Posts.Create(ctx, post); err != nil {
			return err
		}
		post.Attachments = make([]domain.Attachment, 0, len(uploaded))
		for i := range uploaded {
			attachment := uploaded[i]
			attachment.PostID = post.ID
			if err := s.deps.Attachments.Create(ctx, &attachment); err != nil {
				return err
			}
			post.Attachments = append(post.Attachments, attachment)
		}
		return nil
	})
	if err != nil {
		s.discardBlobs(ctx, uploaded)
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventPostCreated,
		PostID:  post.ID,
		ActorID: author.ID,
		Payload: events.PostCreatedPayload{
			AuthorName:   author.Name,
			RecipientIDs: post.RecipientIDs,
			Preview:      preview(post.Content),
		},
	})
	return post, nil
}

func uploadError(fileName string, err error) error {
	var tooLarge *storage.TooLargeError
	if errors.As(err, &tooLarge) {
		return apperrors.NewValidationError("attachment too large", map[string]any{
			"file":      fileName,
			"max_bytes": tooLarge.MaxBytes,
		})
	}
	return err
}

func (s *PostService) resolveRecipients(ctx context.Context, ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		cleaned = append(cleaned, id)
	}
	if len(cleaned) == 0 {
		return nil, apperrors.NewValidationError("at least one recipient is required", map[string]any{"field": "recipient_ids"})
	}

	known, err := s.deps.Users.ListByIDs(ctx, cleaned)
	if err != nil {
		return nil, err
	}
	if len(known) != len(cleaned) {
		found := make(map[string]struct{}, len(known))
		for _, u := range known {
			found[u.ID] = struct{}{}
		}
		unknown := []string{}
		for _, id := range cleaned {
			if _, ok := found[id]; !ok {
				unknown = append(unknown, id)
			}
		}
		return nil, apperrors.NewValidationError("unknown recipients", map[string]any{"recipient_ids": unknown})
	}
	return cleaned, nil
}

// Edit replaces the content of a post owned by editor.
func (s *PostService) Edit(ctx context.Context, editor *domain.User, postID, content string) (*domain.Post, error) {
	post, err := s.deps.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post", postID)
	}
	if post.AuthorID != editor.ID {
		return nil, apperrors.NewForbidden("only the author can edit this post")
	}
	limit := s.deps.Feed.PostEditLimit
	if post.EditCount >= limit {
		return nil, apperrors.NewEditLimitExceeded(limit)
	}
	content, err = cleanContent("content", content, s.deps.Feed.PostMaxLength)
	if err != nil {
		return nil, err
	}

	updated, err := s.deps.Posts.UpdateContent(ctx, postID, content, limit)
	if errors.Is(err, repository.ErrStaleState) {
		return nil, apperrors.NewEditLimitExceeded(limit)
	}
	if err != nil {
		return nil, notFound(err, "post", postID)
	}
	if err := s.attachFiles(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a post with its attachments, reactions, comments and the
// reports raised against any of them.
func (s *PostService) Delete(ctx context.Context, requester *domain.User, postID string) error {
	post, err := s.deps.Posts.GetByID(ctx, postID)
	if err != nil {
		return notFound(err, "post", postID)
	}
	if !requester.CanModify(post.AuthorID) {
		return apperrors.NewForbidden("only the author or an admin can delete this post")
	}

	var removal *postRemoval
	err = s.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		removal, err = s.removeWithinTx(ctx, postID, "")
		return err
	})
	if err != nil {
		return err
	}
	s.afterRemoval(ctx, requester.ID, removal)
	return nil
}

// removeWithinTx deletes the post and every report targeting it or its
// comments, except keepReportID. Callers run it inside a transaction.
func (s *PostService) removeWithinTx(ctx context.Context, postID, keepReportID string) (*postRemoval, error) {
	post, err := s.deps.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post", postID)
	}
	comments, err := s.deps.Comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	attachments, err := s.deps.Attachments.ListByPosts(ctx, []string{postID})
	if err != nil {
		return nil, err
	}

	targets := make([]domain.ReportTarget, 0, len(comments)+1)
	targets = append(targets, domain.PostTarget(postID))
	for _, c := range comments {
		targets = append(targets, domain.CommentTarget(c.ID))
	}
	removed, err := s.deps.Reports.DeleteByTargets(ctx, targets, keepReportID)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Posts.Delete(ctx, postID); err != nil {
		return nil, notFound(err, "post", postID)
	}
	return &postRemoval{
		post:           post,
		attachments:    attachments[postID],
		comments:       len(comments),
		reportsRemoved: removed,
	}, nil
}

// afterRemoval runs the post-commit side effects of a delete.
func (s *PostService) afterRemoval(ctx context.Context, actorID string, removal *postRemoval) {
	s.discardBlobs(ctx, removal.attachments)
	s.publishEvent(ctx, events.Event{
		Type:    events.EventPostDeleted,
		PostID:  removal.post.ID,
		ActorID: actorID,
		Payload: events.PostDeletedPayload{
			AuthorID:         removal.post.AuthorID,
			CommentsRemoved:  removal.comments,
			ReportsRemoved:   removal.reportsRemoved,
			AttachmentsCount: len(removal.attachments),
		},
	})
}

func (s *PostService) discardBlobs(ctx context.Context, attachments []domain.Attachment) {
	if s.deps.Blobs == nil {
		return
	}
	for _, a := range attachments {
		if err := s.deps.Blobs.Delete(ctx, a.URL); err != nil {
			s.deps.Logger.Warn("failed to delete attachment blob", zap.String("url", a.URL), zap.Error(err))
		}
	}
}

// Get returns a post with its attachments.
func (s *PostService) Get(ctx context.Context, postID string) (*domain.Post, error) {
	post, err := s.deps.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post", postID)
	}
	if err := s.attachFiles(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// List returns posts matching filter, newest first.
func (s *PostService) List(ctx context.Context, filter repository.PostFilter) ([]domain.Post, error) {
	return s.deps.Posts.List(ctx, filter)
}

func (s *PostService) attachFiles(ctx context.Context, post *domain.Post) error {
	files, err := s.deps.Attachments.ListByPosts(ctx, []string{post.ID})
	if err != nil {
		return err
	}
	post.Attachments = files[post.ID]
	if post.Attachments == nil {
		post.Attachments = []domain.Attachment{}
	}
	return nil
}

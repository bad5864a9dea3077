package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/recognition-wall/internal/config"
	"github.com/spec-kit/recognition-wall/internal/events"
	"github.com/spec-kit/recognition-wall/internal/repository"
	"github.com/spec-kit/recognition-wall/internal/storage"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

// Dependencies bundles repositories and collaborators shared by services.
type Dependencies struct {
	Tx          repository.Transactor
	Users       repository.UserRepository
	Posts       repository.PostRepository
	Attachments repository.AttachmentRepository
	Reactions   repository.ReactionRepository
	Comments    repository.CommentRepository
	Reports     repository.ReportRepository
	Blobs       storage.BlobStore
	Dispatcher  events.Dispatcher
	Feed        config.FeedConfig
	Logger      *zap.Logger
	Now         func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

type publisher struct {
	dispatcher events.Dispatcher
	now        func() time.Time
}

func (p publisher) publishEvent(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now().UTC()
	}
	_ = p.dispatcher.Publish(ctx, event)
}

// notFound converts a repository miss into a NotFoundError for resource.
func notFound(err error, resource, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}

// cleanContent trims s and enforces the non-empty and rune-length rules.
func cleanContent(field, s string, maxLen int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperrors.NewValidationError(field+" must not be empty", map[string]any{"field": field})
	}
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		return "", apperrors.NewValidationError(field+" is too long", map[string]any{"field": field, "max_length": maxLen})
	}
	return s, nil
}

func preview(s string) string {
	const maxPreview = 80
	if utf8.RuneCountInString(s) <= maxPreview {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxPreview]) + "…"
}

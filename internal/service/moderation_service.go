package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/events"
	"github.com/spec-kit/recognition-wall/internal/repository"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

const (
	defaultReportLimit = 50
	maxReportLimit     = 200
)

// ModerationService runs the report workflow: pending, then resolved or
// dismissed, both terminal.
type ModerationService struct {
	deps     Dependencies
	posts    *PostService
	comments *CommentService
	publisher
}

// ReportInput describes a new report.
type ReportInput struct {
	Target      domain.ReportTarget
	Reason      string
	Description string
}

// ResolveInput describes an admin decision on a report.
type ResolveInput struct {
	Status domain.ReportStatus
	Notes  *string
	Action domain.ModerationAction
}

// NewModerationService constructs the service. Post and comment services
// perform target deletion for the delete action.
func NewModerationService(deps Dependencies, posts *PostService, comments *CommentService) *ModerationService {
	deps = deps.withDefaults()
	return &ModerationService{
		deps:      deps,
		posts:     posts,
		comments:  comments,
		publisher: publisher{dispatcher: deps.Dispatcher, now: deps.Now},
	}
}

// File raises a pending report against a post or comment.
func (s *ModerationService) File(ctx context.Context, reporter *domain.User, input ReportInput) (*domain.Report, error) {
	if !input.Target.Kind.Valid() {
		return nil, apperrors.NewValidationError("unknown report target", map[string]any{"target_kind": input.Target.Kind})
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reason must not be empty", map[string]any{"field": "reason"})
	}

	authorID, err := s.targetAuthor(ctx, input.Target)
	if err != nil {
		return nil, err
	}
	if authorID == reporter.ID {
		return nil, apperrors.NewSelfReport()
	}

	report := &domain.Report{
		ReporterID:  reporter.ID,
		Target:      input.Target,
		Reason:      reason,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.ReportStatusPending,
	}
	err = s.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.deps.Reports.FindPending(ctx, reporter.ID, input.Target)
		switch {
		case err == nil:
			return duplicateReport(existing.ID)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		err = s.deps.Reports.Create(ctx, report)
		if errors.Is(err, repository.ErrDuplicate) {
			return duplicateReport("")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventReportFiled,
		PostID:  s.postOf(ctx, input.Target),
		ActorID: reporter.ID,
		Payload: events.ReportFiledPayload{ReportID: report.ID, Target: report.Target, Reason: report.Reason},
	})
	return report, nil
}

func duplicateReport(existingID string) error {
	details := map[string]any{}
	if existingID != "" {
		details["report_id"] = existingID
	}
	return apperrors.NewConflict("you already have a pending report on this content", details)
}

// targetAuthor returns the author of a live target.
func (s *ModerationService) targetAuthor(ctx context.Context, target domain.ReportTarget) (string, error) {
	switch target.Kind {
	case domain.TargetPost:
		post, err := s.deps.Posts.GetByID(ctx, target.ID)
		if err != nil {
			return "", notFound(err, "post", target.ID)
		}
		return post.AuthorID, nil
	default:
		comment, err := s.deps.Comments.GetByID(ctx, target.ID)
		if err != nil {
			return "", notFound(err, "comment", target.ID)
		}
		if comment.IsDeleted() {
			return "", apperrors.NewNotFound("comment", map[string]any{"id": target.ID})
		}
		return comment.UserID, nil
	}
}

func (s *ModerationService) postOf(ctx context.Context, target domain.ReportTarget) string {
	if target.Kind == domain.TargetPost {
		return target.ID
	}
	comment, err := s.deps.Comments.GetByID(ctx, target.ID)
	if err != nil {
		return ""
	}
	return comment.PostID
}

// ListPending returns the open moderation queue.
func (s *ModerationService) ListPending(ctx context.Context, admin *domain.User, filter repository.ReportFilter) ([]domain.Report, error) {
	pending := domain.ReportStatusPending
	filter.Status = &pending
	return s.ListAll(ctx, admin, filter)
}

// ListAll returns reports matching filter, newest first.
func (s *ModerationService) ListAll(ctx context.Context, admin *domain.User, filter repository.ReportFilter) ([]domain.Report, error) {
	if !admin.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown report status", map[string]any{"status": *filter.Status})
	}
	if filter.TargetKind != nil && !filter.TargetKind.Valid() {
		return nil, apperrors.NewValidationError("unknown report target", map[string]any{"target_kind": *filter.TargetKind})
	}
	filter.Limit = clampReportLimit(filter.Limit)
	return s.deps.Reports.List(ctx, filter)
}

// ListMine returns the reports filed by reporter.
func (s *ModerationService) ListMine(ctx context.Context, reporter *domain.User, limit int) ([]domain.Report, error) {
	return s.deps.Reports.List(ctx, repository.ReportFilter{
		ReporterID: &reporter.ID,
		Limit:      clampReportLimit(limit),
	})
}

func clampReportLimit(limit int) int {
	if limit <= 0 {
		return defaultReportLimit
	}
	if limit > maxReportLimit {
		return maxReportLimit
	}
	return limit
}

// Resolve closes a pending report. With the delete action the target is
// removed in the same transaction; the resolving report is kept.
func (s *ModerationService) Resolve(ctx context.Context, admin *domain.User, reportID string, input ResolveInput) (*domain.Report, error) {
	if !admin.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if !domain.CanTransition(domain.ReportStatusPending, input.Status) {
		return nil, apperrors.NewValidationError("status must be resolved or dismissed", map[string]any{"status": input.Status})
	}
	if input.Action == "" {
		input.Action = domain.ActionIgnore
	}
	switch input.Action {
	case domain.ActionIgnore, domain.ActionDelete:
	default:
		return nil, apperrors.NewValidationError("action must be ignore or delete", map[string]any{"action": input.Action})
	}
	if input.Action == domain.ActionDelete && input.Status == domain.ReportStatusDismissed {
		return nil, apperrors.NewValidationError("a dismissed report cannot delete its target", nil)
	}
	if input.Notes != nil {
		notes := strings.TrimSpace(*input.Notes)
		input.Notes = nil
		if notes != "" {
			input.Notes = &notes
		}
	}

	var (
		report      *domain.Report
		postRemoved *postRemoval
	)
	err := s.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		report, err = s.deps.Reports.Transition(ctx, reportID, domain.ReportStatusPending, domain.ReportResolution{
			Status:       input.Status,
			ResolvedByID: admin.ID,
			ResolvedAt:   s.deps.Now(),
			Notes:        input.Notes,
		})
		if errors.Is(err, repository.ErrStaleState) {
			current, getErr := s.deps.Reports.GetByID(ctx, reportID)
			if getErr != nil {
				return notFound(getErr, "report", reportID)
			}
			if !domain.CanTransition(current.Status, input.Status) {
				return apperrors.NewInvalidTransition(string(current.Status), string(input.Status))
			}
			return err
		}
		if err != nil {
			return notFound(err, "report", reportID)
		}

		if input.Action != domain.ActionDelete {
			return nil
		}
		switch report.Target.Kind {
		case domain.TargetPost:
			postRemoved, err = s.posts.removeWithinTx(ctx, report.Target.ID, report.ID)
		case domain.TargetComment:
			err = s.comments.removeWithinTx(ctx, report.Target.ID, report.ID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if postRemoved != nil {
		s.posts.afterRemoval(ctx, admin.ID, postRemoved)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventReportResolved,
		ActorID: admin.ID,
		Payload: events.ReportResolvedPayload{
			ReportID:   report.ID,
			ReporterID: report.ReporterID,
			Status:     report.Status,
			Action:     input.Action,
			Target:     report.Target,
		},
	})
	return report, nil
}

// Stats summarises the moderation queue.
func (s *ModerationService) Stats(ctx context.Context, admin *domain.User) (domain.ReportStats, error) {
	if !admin.IsAdmin() {
		return domain.ReportStats{}, apperrors.NewForbidden("admin role required")
	}
	return s.deps.Reports.Stats(ctx)
}

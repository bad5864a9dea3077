package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/repository"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

func TestFileReportRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	post := h.post(t, h.u1, "A", "2")

	_, err := h.moderation.File(ctx, h.u1, ReportInput{Target: domain.PostTarget(post.ID), Reason: "spam"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSelfReport))

	_, err = h.moderation.File(ctx, h.u2, ReportInput{Target: domain.PostTarget(post.ID), Reason: "  "})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = h.moderation.File(ctx, h.u2, ReportInput{Target: domain.PostTarget("missing"), Reason: "spam"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = h.moderation.File(ctx, h.u2, ReportInput{Target: domain.ReportTarget{Kind: "user", ID: "1"}, Reason: "spam"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	first, err := h.moderation.File(ctx, h.u2, ReportInput{Target: domain.PostTarget(post.ID), Reason: "spam"})
	require.NoError(t, err)
	_, err = h.moderation.File(ctx, h.u2, ReportInput{Target: domain.PostTarget(post.ID), Reason: "again"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	mine, err := h.moderation.ListMine(ctx, h.u2, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)
}

func TestResolveValidationAndPermissions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	post := h.post(t, h.u1, "A", "2")
	report, err := h.moderation.File(ctx, h.u2, ReportInput{Target: domain.PostTarget(post.ID), Reason: "spam"})
	require.NoError(t, err)

	_, err = h.moderation.Resolve(ctx, h.u3, report.ID, ResolveInput{Status: domain.ReportStatusResolved})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = h.moderation.Resolve(ctx, h.admin, report.ID, ResolveInput{Status: domain.ReportStatusPending})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = h.moderation.Resolve(ctx, h.admin, report.ID, ResolveInput{Status: domain.ReportStatusResolved, Action: "ban"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = h.moderation.Resolve(ctx, h.admin, report.ID, ResolveInput{Status: domain.ReportStatusDismissed, Action: domain.ActionDelete})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = h.moderation.Resolve(ctx, h.admin, "missing", ResolveInput{Status: domain.ReportStatusResolved})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	dismissed, err := h.moderation.Resolve(ctx, h.admin, report.ID, ResolveInput{Status: domain.ReportStatusDismissed})
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusDismissed, dismissed.Status)

	_, err = h.moderation.Resolve(ctx, h.admin, report.ID, ResolveInput{Status: domain.ReportStatusResolved})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))

	_, err = h.posts.Get(ctx, post.ID)
	assert.NoError(t, err, "dismissing leaves the post in place")
}

func TestResolveDeleteCommentKeepsAuditRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	post := h.post(t, h.u1, "A", "2")
	comment, err := h.comments.Add(ctx, h.u2, post.ID, "rude words", nil)
	require.NoError(t, err)

	report, err := h.moderation.File(ctx, h.u3, ReportInput{Target: domain.CommentTarget(comment.ID), Reason: "rude"})
	require.NoError(t, err)
	other, err := h.moderation.File(ctx, h.u4, ReportInput{Target: domain.CommentTarget(comment.ID), Reason: "rude"})
	require.NoError(t, err)

	_, err = h.moderation.Resolve(ctx, h.admin, report.ID, ResolveInput{Status: domain.ReportStatusResolved, Action: domain.ActionDelete})
	require.NoError(t, err)

	stored, err := h.store.Comments().GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted())

	_, err = h.store.Reports().GetByID(ctx, report.ID)
	assert.NoError(t, err)
	_, err = h.store.Reports().GetByID(ctx, other.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConcurrentResolveHasOneWinner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	post := h.post(t, h.u1, "A", "2")
	report, err := h.moderation.File(ctx, h.u4, ReportInput{Target: domain.PostTarget(post.ID), Reason: "spam"})
	require.NoError(t, err)

	var wins, conflicts int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := domain.ReportStatusResolved
			if i%2 == 1 {
				status = domain.ReportStatusDismissed
			}
			_, err := h.moderation.Resolve(ctx, h.admin, report.ID, ResolveInput{Status: status})
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case apperrors.HasCode(err, apperrors.CodeInvalidTransition):
				atomic.AddInt32(&conflicts, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins)
	assert.EqualValues(t, 15, conflicts)
}

func TestModerationListsAndStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	post := h.post(t, h.u1, "A", "2")
	comment, err := h.comments.Add(ctx, h.u1, post.ID, "note", nil)
	require.NoError(t, err)

	r1, err := h.moderation.File(ctx, h.u2, ReportInput{Target: domain.PostTarget(post.ID), Reason: "spam"})
	require.NoError(t, err)
	_, err = h.moderation.File(ctx, h.u3, ReportInput{Target: domain.CommentTarget(comment.ID), Reason: "rude"})
	require.NoError(t, err)
	_, err = h.moderation.Resolve(ctx, h.admin, r1.ID, ResolveInput{Status: domain.ReportStatusDismissed})
	require.NoError(t, err)

	_, err = h.moderation.ListPending(ctx, h.u2, repository.ReportFilter{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	pending, err := h.moderation.ListPending(ctx, h.admin, repository.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.TargetComment, pending[0].Target.Kind)

	kind := domain.TargetPost
	posts, err := h.moderation.ListAll(ctx, h.admin, repository.ReportFilter{TargetKind: &kind})
	require.NoError(t, err)
	require.Len(t, posts, 1)

	all, err := h.moderation.ListAll(ctx, h.admin, repository.ReportFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	stats, err := h.moderation.Stats(ctx, h.admin)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStats{Total: 2, Pending: 1, Dismissed: 1}, stats)

	_, err = h.moderation.Stats(ctx, h.u1)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

type failingPostDeletes struct {
	repository.PostRepository
	err error
}

func (f failingPostDeletes) Delete(context.Context, string) error {
	return f.err
}

func TestResolveRollsBackWhenTargetDeleteFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	post := h.post(t, h.u1, "A", "2")
	resolving, err := h.moderation.File(ctx, h.u2, ReportInput{Target: domain.PostTarget(post.ID), Reason: "spam"})
	require.NoError(t, err)
	other, err := h.moderation.File(ctx, h.u3, ReportInput{Target: domain.PostTarget(post.ID), Reason: "rude"})
	require.NoError(t, err)

	diskFull := errors.New("disk full")
	deps := h.deps
	deps.Posts = failingPostDeletes{PostRepository: h.store.Posts(), err: diskFull}
	posts := NewPostService(deps)
	moderation := NewModerationService(deps, posts, NewCommentService(deps))

	_, err = moderation.Resolve(ctx, h.admin, resolving.ID, ResolveInput{
		Status: domain.ReportStatusResolved,
		Action: domain.ActionDelete,
	})
	require.ErrorIs(t, err, diskFull)

	report, err := h.store.Reports().GetByID(ctx, resolving.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusPending, report.Status)
	assert.Nil(t, report.ResolvedAt)

	_, err = h.store.Reports().GetByID(ctx, other.ID)
	assert.NoError(t, err, "sibling report survives the rollback")
	_, err = h.posts.Get(ctx, post.ID)
	assert.NoError(t, err)
}

func TestResolveDropsBlankNotes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	post := h.post(t, h.u1, "A", "2")
	first, err := h.moderation.File(ctx, h.u2, ReportInput{Target: domain.PostTarget(post.ID), Reason: "spam"})
	require.NoError(t, err)
	second, err := h.moderation.File(ctx, h.u3, ReportInput{Target: domain.PostTarget(post.ID), Reason: "spam"})
	require.NoError(t, err)

	blank := "   "
	resolved, err := h.moderation.Resolve(ctx, h.admin, first.ID, ResolveInput{Status: domain.ReportStatusDismissed, Notes: &blank})
	require.NoError(t, err)
	assert.Nil(t, resolved.ResolutionNotes)

	notes := "  checked with the team "
	resolved, err = h.moderation.Resolve(ctx, h.admin, second.ID, ResolveInput{Status: domain.ReportStatusDismissed, Notes: &notes})
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolutionNotes)
	assert.Equal(t, "checked with the team", *resolved.ResolutionNotes)
}

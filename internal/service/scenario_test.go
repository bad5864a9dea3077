package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/recognition-wall/internal/domain"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

func TestScenarioFeedAndReactionToggle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.post(t, h.u2, "older shout-out", "1")
	post := h.post(t, h.u1, "Great work", "2", "3")

	page, err := h.feed.AssembleFeed(ctx, h.u1, FeedQuery{Sort: SortNewest})
	require.NoError(t, err)
	require.NotEmpty(t, page.Items)
	assert.Equal(t, post.ID, page.Items[0].Post.ID)

	state, err := h.reactions.React(ctx, h.u2, post.ID, domain.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Counts[domain.ReactionLike])
	assert.Equal(t, 1, state.Counts.Total())

	state, err = h.reactions.React(ctx, h.u2, post.ID, domain.ReactionClap)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Counts[domain.ReactionLike])
	assert.Equal(t, 1, state.Counts[domain.ReactionClap])
	require.NotNil(t, state.Viewer)
	assert.Equal(t, domain.ReactionClap, *state.Viewer)

	counts, err := h.reactions.Counts(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReactionCounts{domain.ReactionLike: 0, domain.ReactionClap: 1, domain.ReactionStar: 0}, counts)
}

func TestScenarioReplyTree(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	post := h.post(t, h.u1, "Great work", "2", "3")

	root, err := h.comments.Add(ctx, h.u3, post.ID, "Nice!", nil)
	require.NoError(t, err)
	reply, err := h.comments.Add(ctx, h.u1, post.ID, "Thanks", &root.ID)
	require.NoError(t, err)

	tree, err := h.comments.Tree(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, root.ID, tree[0].Comment.ID)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, reply.ID, tree[0].Replies[0].Comment.ID)
}

func TestScenarioResolveWithDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	post := h.post(t, h.u1, "Great work", "2", "3")

	report, err := h.moderation.File(ctx, h.u4, ReportInput{Target: domain.PostTarget(post.ID), Reason: "spam"})
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusPending, report.Status)

	notes := "removed"
	resolved, err := h.moderation.Resolve(ctx, h.admin, report.ID, ResolveInput{
		Status: domain.ReportStatusResolved,
		Notes:  &notes,
		Action: domain.ActionDelete,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedByID)
	assert.Equal(t, h.admin.ID, *resolved.ResolvedByID)

	_, err = h.posts.Get(ctx, post.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	stored, err := h.store.Reports().GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusResolved, stored.Status)

	_, err = h.moderation.Resolve(ctx, h.admin, report.ID, ResolveInput{Status: domain.ReportStatusResolved, Action: domain.ActionDelete})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
}

func TestScenarioEditCap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	post := h.post(t, h.u1, "Great work", "2")

	first, err := h.posts.Edit(ctx, h.u1, post.ID, "Great work, team")
	require.NoError(t, err)
	assert.Equal(t, 1, first.EditCount)
	assert.True(t, first.IsEdited)
	require.NotNil(t, first.LastEditedAt)

	second, err := h.posts.Edit(ctx, h.u1, post.ID, "Great work, whole team")
	require.NoError(t, err)
	assert.Equal(t, 2, second.EditCount)

	_, err = h.posts.Edit(ctx, h.u1, post.ID, "third time")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeEditLimitExceeded))

	stored, err := h.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Great work, whole team", stored.Content)
	assert.Equal(t, 2, stored.EditCount)
}

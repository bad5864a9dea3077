package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/repository"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

func feedIDs(page *FeedPage) []string {
	ids := make([]string, len(page.Items))
	for i, item := range page.Items {
		ids[i] = item.Post.ID
	}
	return ids
}

func TestFeedSortOrders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.post(t, h.u1, "first", "2")
	second := h.post(t, h.u2, "second", "1")
	third := h.post(t, h.u3, "third", "1")

	_, err := h.reactions.React(ctx, h.u2, first.ID, domain.ReactionLike)
	require.NoError(t, err)
	_, err = h.reactions.React(ctx, h.u3, first.ID, domain.ReactionStar)
	require.NoError(t, err)
	_, err = h.reactions.React(ctx, h.u1, second.ID, domain.ReactionClap)
	require.NoError(t, err)

	newest, err := h.feed.AssembleFeed(ctx, h.u1, FeedQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, feedIDs(newest))

	oldest, err := h.feed.AssembleFeed(ctx, h.u1, FeedQuery{Sort: SortOldest})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, feedIDs(oldest))

	liked, err := h.feed.AssembleFeed(ctx, h.u1, FeedQuery{Sort: SortMostLiked})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, feedIDs(liked))
	assert.Equal(t, 2, liked.Items[0].TotalReactions)
	assert.Nil(t, liked.Items[0].ViewerReaction)
	require.NotNil(t, liked.Items[1].ViewerReaction)
	assert.Equal(t, domain.ReactionClap, *liked.Items[1].ViewerReaction)

	_, err = h.feed.AssembleFeed(ctx, h.u1, FeedQuery{Sort: "popular"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestParseFeedSort(t *testing.T) {
	sort, err := ParseFeedSort("")
	require.NoError(t, err)
	assert.Equal(t, SortNewest, sort)

	sort, err = ParseFeedSort("most_liked")
	require.NoError(t, err)
	assert.Equal(t, SortMostLiked, sort)

	_, err = ParseFeedSort("random")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestFeedPagination(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		h.post(t, h.u1, fmt.Sprintf("post %d", i), "2")
	}

	page, err := h.feed.AssembleFeed(ctx, h.u1, FeedQuery{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 1, page.Offset)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "post 3", page.Items[0].Post.Content)

	past, err := h.feed.AssembleFeed(ctx, h.u1, FeedQuery{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, past.Items)
	assert.Equal(t, 5, past.Total)

	clamped, err := h.feed.AssembleFeed(ctx, h.u1, FeedQuery{Limit: 1000, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, 100, clamped.Limit)
	assert.Equal(t, 0, clamped.Offset)

	defaulted, err := h.feed.AssembleFeed(ctx, h.u1, FeedQuery{})
	require.NoError(t, err)
	assert.Equal(t, 50, defaulted.Limit)
}

func TestFeedFilters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fromEng := h.post(t, h.u1, "eng post", "3")
	fromSales := h.post(t, h.u3, "sales post", "1", "4")

	eng := "eng"
	page, err := h.feed.AssembleFeed(ctx, h.u1, FeedQuery{Filter: repository.PostFilter{Department: &eng}})
	require.NoError(t, err)
	assert.Equal(t, []string{fromEng.ID}, feedIDs(page))

	sender := h.u3.ID
	page, err = h.feed.AssembleFeed(ctx, h.u1, FeedQuery{Filter: repository.PostFilter{SenderID: &sender}})
	require.NoError(t, err)
	assert.Equal(t, []string{fromSales.ID}, feedIDs(page))

	recipient := h.u4.ID
	page, err = h.feed.AssembleFeed(ctx, h.u1, FeedQuery{Filter: repository.PostFilter{RecipientID: &recipient}})
	require.NoError(t, err)
	assert.Equal(t, []string{fromSales.ID}, feedIDs(page))

	from := fromSales.CreatedAt
	page, err = h.feed.AssembleFeed(ctx, h.u1, FeedQuery{Filter: repository.PostFilter{DateFrom: &from}})
	require.NoError(t, err)
	assert.Equal(t, []string{fromSales.ID}, feedIDs(page))

	to := fromEng.CreatedAt
	page, err = h.feed.AssembleFeed(ctx, h.u1, FeedQuery{Filter: repository.PostFilter{DateTo: &to}})
	require.NoError(t, err)
	assert.Equal(t, []string{fromEng.ID}, feedIDs(page))

	before := to.Add(-time.Hour)
	_, err = h.feed.AssembleFeed(ctx, h.u1, FeedQuery{Filter: repository.PostFilter{DateFrom: &to, DateTo: &before}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestFeedDecorationAndExpand(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	post := h.post(t, h.u1, "thanks", "2", "3")
	other := h.post(t, h.u2, "kudos", "1")

	root, err := h.comments.Add(ctx, h.u2, post.ID, "root", nil)
	require.NoError(t, err)
	_, err = h.comments.Add(ctx, h.u3, post.ID, "reply", &root.ID)
	require.NoError(t, err)
	gone, err := h.comments.Add(ctx, h.u3, post.ID, "gone", nil)
	require.NoError(t, err)
	require.NoError(t, h.comments.Delete(ctx, h.u3, gone.ID))

	page, err := h.feed.AssembleFeed(ctx, h.u1, FeedQuery{Expand: []string{post.ID}})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	item := page.Items[1]
	require.Equal(t, post.ID, item.Post.ID)
	require.NotNil(t, item.Author)
	assert.Equal(t, "Ada", item.Author.Name)
	require.Len(t, item.Recipients, 2)
	assert.Equal(t, 2, item.CommentCount)
	assert.Equal(t, 3, domain.CountTreeNodes(item.Comments))
	assert.NotNil(t, item.Post.Attachments)

	assert.Equal(t, other.ID, page.Items[0].Post.ID)
	assert.Nil(t, page.Items[0].Comments)

	all, err := h.feed.AssembleFeed(ctx, h.u1, FeedQuery{ExpandAll: true})
	require.NoError(t, err)
	assert.NotNil(t, all.Items[0].Comments)
}

func TestFeedGroupByDepartment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.post(t, h.u1, "eng one", "3")
	h.post(t, h.u3, "sales one", "1")
	h.post(t, h.u2, "eng two", "3")

	page, err := h.feed.AssembleFeed(ctx, h.u1, FeedQuery{GroupBy: GroupByDepartment})
	require.NoError(t, err)
	require.Len(t, page.Groups, 2)
	assert.Equal(t, "eng", page.Groups[0].Key)
	assert.Len(t, page.Groups[0].Items, 2)
	assert.Equal(t, "sales", page.Groups[1].Key)
	assert.Len(t, page.Items, 3)

	_, err = h.feed.AssembleFeed(ctx, h.u1, FeedQuery{GroupBy: "team"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestFeedCountsMatchLedger(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	post := h.post(t, h.u1, "thanks", "2")

	for _, u := range []*domain.User{h.u2, h.u3, h.u4} {
		_, err := h.reactions.React(ctx, u, post.ID, domain.ReactionStar)
		require.NoError(t, err)
	}
	_, err := h.reactions.React(ctx, h.u3, post.ID, domain.ReactionStar)
	require.NoError(t, err)
	_, err = h.reactions.React(ctx, h.u4, post.ID, domain.ReactionLike)
	require.NoError(t, err)

	view, err := h.feed.PostView(ctx, h.u4, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Reactions[domain.ReactionStar])
	assert.Equal(t, 1, view.Reactions[domain.ReactionLike])
	assert.Equal(t, 2, view.TotalReactions)
	require.NotNil(t, view.ViewerReaction)
	assert.Equal(t, domain.ReactionLike, *view.ViewerReaction)

	counts, err := h.reactions.Counts(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, counts, view.Reactions)

	_, err = h.feed.PostView(ctx, h.u1, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

package service

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/repository"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

// FeedSort selects the feed ordering.
type FeedSort string

const (
	SortNewest    FeedSort = "newest"
	SortOldest    FeedSort = "oldest"
	SortMostLiked FeedSort = "most_liked"
)

// GroupByDepartment groups a feed page by the author's department.
const GroupByDepartment = "department"

// ParseFeedSort validates a sort key; empty selects newest.
func ParseFeedSort(raw string) (FeedSort, error) {
	switch FeedSort(strings.TrimSpace(raw)) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	case SortMostLiked:
		return SortMostLiked, nil
	}
	return "", apperrors.NewValidationError("unknown sort", map[string]any{
		"sort_by": raw,
		"allowed": []FeedSort{SortNewest, SortOldest, SortMostLiked},
	})
}

// FeedQuery describes one feed request.
type FeedQuery struct {
	Filter    repository.PostFilter
	Sort      FeedSort
	Limit     int
	Offset    int
	Expand    []string
	ExpandAll bool
	GroupBy   string
}

// FeedItem is a post with its server-computed aggregates.
type FeedItem struct {
	Post           domain.Post
	Author         *domain.User
	Recipients     []domain.User
	Reactions      domain.ReactionCounts
	TotalReactions int
	ViewerReaction *domain.ReactionType
	CommentCount   int
	Comments       []*domain.CommentNode
}

// FeedGroup is a run of feed items sharing a department.
type FeedGroup struct {
	Key   string
	Items []FeedItem
}

// FeedPage is one page of the feed.
type FeedPage struct {
	Items  []FeedItem
	Groups []FeedGroup
	Total  int
	Limit  int
	Offset int
}

// FeedService assembles the feed from authoritative rows on every call.
type FeedService struct {
	deps Dependencies
}

// NewFeedService constructs the service.
func NewFeedService(deps Dependencies) *FeedService {
	return &FeedService{deps: deps.withDefaults()}
}

// AssembleFeed filters, aggregates, sorts and paginates posts for viewer.
func (s *FeedService) AssembleFeed(ctx context.Context, viewer *domain.User, q FeedQuery) (*FeedPage, error) {
	if q.Sort == "" {
		q.Sort = SortNewest
	}
	if _, err := ParseFeedSort(string(q.Sort)); err != nil {
		return nil, err
	}
	if q.GroupBy != "" && q.GroupBy != GroupByDepartment {
		return nil, apperrors.NewValidationError("unknown group_by", map[string]any{"group_by": q.GroupBy})
	}
	if q.Filter.DateFrom != nil && q.Filter.DateTo != nil && q.Filter.DateTo.Before(*q.Filter.DateFrom) {
		return nil, apperrors.NewValidationError("date_to is before date_from", nil)
	}
	limit, offset := s.pageBounds(q.Limit, q.Offset)

	posts, err := s.deps.Posts.List(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	reactions, err := s.deps.Reactions.ListByPosts(ctx, ids)
	if err != nil {
		return nil, err
	}
	commentCounts, err := s.deps.Comments.CountLiveByPosts(ctx, ids)
	if err != nil {
		return nil, err
	}

	byPost := make(map[string][]domain.Reaction, len(posts))
	for _, r := range reactions {
		byPost[r.PostID] = append(byPost[r.PostID], r)
	}
	viewerID := ""
	if viewer != nil {
		viewerID = viewer.ID
	}

	items := make([]FeedItem, len(posts))
	for i, p := range posts {
		counts := domain.CountReactions(byPost[p.ID])
		items[i] = FeedItem{
			Post:           p,
			Reactions:      counts,
			TotalReactions: counts.Total(),
			ViewerReaction: viewerReaction(byPost[p.ID], viewerID),
			CommentCount:   commentCounts[p.ID],
		}
	}
	sortFeed(items, q.Sort)

	page := &FeedPage{Total: len(items), Limit: limit, Offset: offset}
	if offset < len(items) {
		end := offset + limit
		if end > len(items) {
			end = len(items)
		}
		items = items[offset:end]
	} else {
		items = []FeedItem{}
	}

	if err := s.decorate(ctx, items, q); err != nil {
		return nil, err
	}
	page.Items = items
	if q.GroupBy == GroupByDepartment {
		page.Groups = groupByDepartment(items)
	}
	return page, nil
}

func (s *FeedService) pageBounds(limit, offset int) (int, int) {
	def := s.deps.Feed.DefaultPageSize
	if def <= 0 {
		def = 50
	}
	maxSize := s.deps.Feed.MaxPageSize
	if maxSize <= 0 {
		maxSize = 100
	}
	if limit <= 0 {
		limit = def
	}
	if limit > maxSize {
		limit = maxSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// sortFeed orders items in place. Ties fall back to creation time, newest
// first, then id.
func sortFeed(items []FeedItem, order FeedSort) {
	newer := func(a, b FeedItem) bool {
		if a.Post.CreatedAt.Equal(b.Post.CreatedAt) {
			return a.Post.ID > b.Post.ID
		}
		return a.Post.CreatedAt.After(b.Post.CreatedAt)
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch order {
		case SortOldest:
			return newer(b, a)
		case SortMostLiked:
			if a.TotalReactions != b.TotalReactions {
				return a.TotalReactions > b.TotalReactions
			}
			return newer(a, b)
		default:
			return newer(a, b)
		}
	})
}

// decorate loads authors, recipients, attachments and requested comment
// trees for the page only.
func (s *FeedService) decorate(ctx context.Context, items []FeedItem, q FeedQuery) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	userIDs := []string{}
	for i, item := range items {
		ids[i] = item.Post.ID
		userIDs = append(userIDs, item.Post.AuthorID)
		userIDs = append(userIDs, item.Post.RecipientIDs...)
	}

	users, err := s.deps.Users.ListByIDs(ctx, userIDs)
	if err != nil {
		return err
	}
	directory := make(map[string]domain.User, len(users))
	for _, u := range users {
		directory[u.ID] = u
	}

	attachments, err := s.deps.Attachments.ListByPosts(ctx, ids)
	if err != nil {
		return err
	}

	expand := make(map[string]struct{}, len(q.Expand))
	for _, id := range q.Expand {
		expand[id] = struct{}{}
	}

	for i := range items {
		item := &items[i]
		if author, ok := directory[item.Post.AuthorID]; ok {
			author := author
			item.Author = &author
		}
		item.Recipients = make([]domain.User, 0, len(item.Post.RecipientIDs))
		for _, id := range item.Post.RecipientIDs {
			if u, ok := directory[id]; ok {
				item.Recipients = append(item.Recipients, u)
			}
		}
		item.Post.Attachments = attachments[item.Post.ID]
		if item.Post.Attachments == nil {
			item.Post.Attachments = []domain.Attachment{}
		}

		if _, ok := expand[item.Post.ID]; ok || q.ExpandAll {
			comments, err := s.deps.Comments.ListByPost(ctx, item.Post.ID)
			if err != nil {
				return err
			}
			item.Comments = domain.BuildCommentTree(comments)
		}
	}
	return nil
}

func groupByDepartment(items []FeedItem) []FeedGroup {
	groups := []FeedGroup{}
	index := map[string]int{}
	for _, item := range items {
		key := ""
		if item.Author != nil {
			key = item.Author.Department
		}
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, FeedGroup{Key: key})
		}
		groups[pos].Items = append(groups[pos].Items, item)
	}
	return groups
}

// PostView returns a single post with aggregates and its full comment tree.
func (s *FeedService) PostView(ctx context.Context, viewer *domain.User, postID string) (*FeedItem, error) {
	post, err := s.deps.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post", postID)
	}
	reactions, err := s.deps.Reactions.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	counts, err := s.deps.Comments.CountLiveByPosts(ctx, []string{postID})
	if err != nil {
		return nil, err
	}
	viewerID := ""
	if viewer != nil {
		viewerID = viewer.ID
	}
	reactionCounts := domain.CountReactions(reactions)
	items := []FeedItem{{
		Post:           *post,
		Reactions:      reactionCounts,
		TotalReactions: reactionCounts.Total(),
		ViewerReaction: viewerReaction(reactions, viewerID),
		CommentCount:   counts[postID],
	}}
	if err := s.decorate(ctx, items, FeedQuery{ExpandAll: true}); err != nil {
		return nil, err
	}
	return &items[0], nil
}

package service

import (
	"context"
	"sort"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/repository"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

// AdminStats is the admin dashboard summary.
type AdminStats struct {
	Users   int
	Posts   int
	Reports domain.ReportStats
}

// LeaderboardService ranks users by recognition activity.
type LeaderboardService struct {
	deps Dependencies
}

// NewLeaderboardService constructs the service.
func NewLeaderboardService(deps Dependencies) *LeaderboardService {
	return &LeaderboardService{deps: deps.withDefaults()}
}

// Leaderboard computes points for every user from posts and the reactions
// their posts received. limit caps each list; non-positive returns all.
func (s *LeaderboardService) Leaderboard(ctx context.Context, limit int) (*domain.Leaderboard, error) {
	users, err := s.deps.Users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, err
	}
	posts, err := s.deps.Posts.List(ctx, repository.PostFilter{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(posts))
	authorOf := make(map[string]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		authorOf[p.ID] = p.AuthorID
	}
	reactions, err := s.deps.Reactions.ListByPosts(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]*domain.LeaderboardEntry, len(users))
	for _, u := range users {
		entries[u.ID] = &domain.LeaderboardEntry{User: u}
	}
	for _, p := range posts {
		if e, ok := entries[p.AuthorID]; ok {
			e.Sent++
		}
		for _, r := range p.RecipientIDs {
			if e, ok := entries[r]; ok {
				e.Received++
			}
		}
	}
	for _, r := range reactions {
		e, ok := entries[authorOf[r.PostID]]
		if !ok {
			continue
		}
		switch r.Type {
		case domain.ReactionStar:
			e.Stars++
		case domain.ReactionClap:
			e.Claps++
		case domain.ReactionLike:
			e.Likes++
		}
	}

	overall := make([]domain.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		e.Points = e.Score()
		overall = append(overall, *e)
	}
	sort.Slice(overall, func(i, j int) bool {
		if overall[i].Points != overall[j].Points {
			return overall[i].Points > overall[j].Points
		}
		return userLess(overall[i].User, overall[j].User)
	})
	for i := range overall {
		overall[i].Rank = i + 1
	}

	board := &domain.Leaderboard{
		Overall:         capList(overall, limit),
		TopContributors: capList(rankCounts(overall, func(e domain.LeaderboardEntry) int { return e.Sent }), limit),
		MostTagged:      capList(rankCounts(overall, func(e domain.LeaderboardEntry) int { return e.Received }), limit),
	}
	return board, nil
}

func rankCounts(entries []domain.LeaderboardEntry, count func(domain.LeaderboardEntry) int) []domain.UserCount {
	result := []domain.UserCount{}
	for _, e := range entries {
		if n := count(e); n > 0 {
			result = append(result, domain.UserCount{User: e.User, Count: n})
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return userLess(result[i].User, result[j].User)
	})
	return result
}

func userLess(a, b domain.User) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}

func capList[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// AdminStats returns platform totals for the admin dashboard.
func (s *LeaderboardService) AdminStats(ctx context.Context, admin *domain.User) (*AdminStats, error) {
	if !admin.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	users, err := s.deps.Users.Count(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.deps.Posts.Count(ctx)
	if err != nil {
		return nil, err
	}
	reports, err := s.deps.Reports.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminStats{Users: users, Posts: posts, Reports: reports}, nil
}

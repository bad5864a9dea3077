package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recognition-wall/internal/api/dto"
	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/service"
)

// LeaderboardHandler serves rankings and the admin dashboard.
type LeaderboardHandler struct {
	leaderboard *service.LeaderboardService
}

// NewLeaderboardHandler constructs handler.
func NewLeaderboardHandler(leaderboard *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// Leaderboard GET /leaderboard.
func (h *LeaderboardHandler) Leaderboard(c *fiber.Ctx) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	limit, err := parseIntQuery(c, "limit", 10)
	if err != nil {
		return err
	}
	board, err := h.leaderboard.Leaderboard(c.UserContext(), limit)
	if err != nil {
		return err
	}

	resp := dto.LeaderboardResponse{
		Overall:         make([]dto.LeaderboardEntryResponse, 0, len(board.Overall)),
		TopContributors: userCounts(board.TopContributors),
		MostTagged:      userCounts(board.MostTagged),
	}
	for i := range board.Overall {
		e := &board.Overall[i]
		resp.Overall = append(resp.Overall, dto.LeaderboardEntryResponse{
			Rank:     e.Rank,
			User:     userResponse(&e.User),
			Points:   e.Points,
			Sent:     e.Sent,
			Received: e.Received,
			Stars:    e.Stars,
			Claps:    e.Claps,
			Likes:    e.Likes,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

func userCounts(counts []domain.UserCount) []dto.UserCountResponse {
	out := make([]dto.UserCountResponse, 0, len(counts))
	for i := range counts {
		out = append(out, dto.UserCountResponse{User: userResponse(&counts[i].User), Count: counts[i].Count})
	}
	return out
}

// AdminStats GET /admin/stats.
func (h *LeaderboardHandler) AdminStats(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	stats, err := h.leaderboard.AdminStats(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AdminStatsResponse{
		Users:   stats.Users,
		Posts:   stats.Posts,
		Reports: reportStatsResponse(stats.Reports),
	}})
}

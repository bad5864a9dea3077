package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recognition-wall/internal/api/dto"
	"github.com/spec-kit/recognition-wall/internal/auth"
	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/service"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

const dateLayout = "2006-01-02"

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal.User, nil
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	return &val
}

func parseIntQuery(c *fiber.Ctx, key string, def int) (int, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, apperrors.NewValidationError(key+" must be an integer", map[string]any{key: val})
	}
	return parsed, nil
}

// parseDateQuery accepts RFC3339 or a bare date. A bare date_to covers the
// whole day.
func parseDateQuery(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, val)
	if err != nil {
		return nil, apperrors.NewValidationError(key+" must be RFC3339 or YYYY-MM-DD", map[string]any{key: val})
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func splitList(values ...string) []string {
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Department: user.Department,
		Role:       string(user.Role),
		CreatedAt:  user.CreatedAt,
	}
}

func userResponses(users []domain.User) []dto.UserResponse {
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userResponse(&users[i]))
	}
	return out
}

func postResponse(post *domain.Post) dto.PostResponse {
	attachments := make([]dto.AttachmentResponse, 0, len(post.Attachments))
	for _, a := range post.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{
			ID:          a.ID,
			FileName:    a.FileName,
			ContentType: a.ContentType,
			SizeBytes:   a.SizeBytes,
			URL:         a.URL,
		})
	}
	recipients := post.RecipientIDs
	if recipients == nil {
		recipients = []string{}
	}
	return dto.PostResponse{
		ID:           post.ID,
		AuthorID:     post.AuthorID,
		Content:      post.Content,
		RecipientIDs: recipients,
		Attachments:  attachments,
		EditCount:    post.EditCount,
		IsEdited:     post.IsEdited,
		CreatedAt:    post.CreatedAt,
		UpdatedAt:    post.UpdatedAt,
		LastEditedAt: post.LastEditedAt,
	}
}

func reactionMap(counts domain.ReactionCounts) map[string]int {
	out := make(map[string]int, len(domain.ReactionTypes))
	for _, t := range domain.ReactionTypes {
		out[string(t)] = counts[t]
	}
	return out
}

func viewerReaction(r *domain.ReactionType) *string {
	if r == nil {
		return nil
	}
	s := string(*r)
	return &s
}

func feedItemResponse(item *service.FeedItem) dto.FeedItemResponse {
	resp := dto.FeedItemResponse{
		PostResponse:   postResponse(&item.Post),
		Recipients:     userResponses(item.Recipients),
		Reactions:      reactionMap(item.Reactions),
		TotalReactions: item.TotalReactions,
		ViewerReaction: viewerReaction(item.ViewerReaction),
		CommentCount:   item.CommentCount,
	}
	if item.Author != nil {
		author := userResponse(item.Author)
		resp.Author = &author
	}
	if item.Comments != nil {
		resp.Comments = commentTree(item.Comments)
	}
	return resp
}

func feedResponse(page *service.FeedPage) dto.FeedResponse {
	resp := dto.FeedResponse{
		Items:  make([]dto.FeedItemResponse, 0, len(page.Items)),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for i := range page.Items {
		resp.Items = append(resp.Items, feedItemResponse(&page.Items[i]))
	}
	for _, group := range page.Groups {
		g := dto.FeedGroupResponse{Department: group.Key, Items: make([]dto.FeedItemResponse, 0, len(group.Items))}
		for i := range group.Items {
			g.Items = append(g.Items, feedItemResponse(&group.Items[i]))
		}
		resp.Groups = append(resp.Groups, g)
	}
	return resp
}

func reactionStateResponse(state *domain.ReactionState) dto.ReactionStateResponse {
	return dto.ReactionStateResponse{
		PostID:         state.PostID,
		Reactions:      reactionMap(state.Counts),
		TotalReactions: state.Counts.Total(),
		ViewerReaction: viewerReaction(state.Viewer),
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	resp := dto.CommentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		ParentID:  comment.ParentID,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
	if comment.IsDeleted() {
		resp.Deleted = true
		resp.DeletedAt = comment.DeletedAt
		return resp
	}
	author := comment.UserID
	resp.AuthorID = &author
	resp.Content = comment.Content
	return resp
}

func commentTree(nodes []*domain.CommentNode) []*dto.CommentNodeResponse {
	out := make([]*dto.CommentNodeResponse, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, &dto.CommentNodeResponse{
			CommentResponse: commentResponse(&node.Comment),
			Replies:         commentTree(node.Replies),
		})
	}
	return out
}

func reportResponse(report *domain.Report) dto.ReportResponse {
	return dto.ReportResponse{
		ID:              report.ID,
		ReporterID:      report.ReporterID,
		TargetKind:      string(report.Target.Kind),
		TargetID:        report.Target.ID,
		Reason:          report.Reason,
		Description:     report.Description,
		Status:          string(report.Status),
		CreatedAt:       report.CreatedAt,
		ResolvedByID:    report.ResolvedByID,
		ResolvedAt:      report.ResolvedAt,
		ResolutionNotes: report.ResolutionNotes,
	}
}

func reportResponses(reports []domain.Report) []dto.ReportResponse {
	out := make([]dto.ReportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, reportResponse(&reports[i]))
	}
	return out
}

func reportStatsResponse(stats domain.ReportStats) dto.ReportStatsResponse {
	return dto.ReportStatsResponse{
		Total:     stats.Total,
		Pending:   stats.Pending,
		Resolved:  stats.Resolved,
		Dismissed: stats.Dismissed,
	}
}

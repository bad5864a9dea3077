package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recognition-wall/internal/api/dto"
	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/repository"
	"github.com/spec-kit/recognition-wall/internal/service"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

// ReportsHandler exposes the moderation workflow.
type ReportsHandler struct {
	moderation *service.ModerationService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(moderation *service.ModerationService) *ReportsHandler {
	return &ReportsHandler{moderation: moderation}
}

// ReportPost POST /posts/:id/reports.
func (h *ReportsHandler) ReportPost(c *fiber.Ctx) error {
	return h.file(c, domain.PostTarget(c.Params("id")))
}

// ReportComment POST /comments/:id/reports.
func (h *ReportsHandler) ReportComment(c *fiber.Ctx) error {
	return h.file(c, domain.CommentTarget(c.Params("id")))
}

func (h *ReportsHandler) file(c *fiber.Ctx, target domain.ReportTarget) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	report, err := h.moderation.File(c.UserContext(), user, service.ReportInput{
		Target:      target,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": reportResponse(report)})
}

// ListMine GET /reports/mine.
func (h *ReportsHandler) ListMine(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		return err
	}
	reports, err := h.moderation.ListMine(c.UserContext(), user, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportResponses(reports)})
}

// ListAll GET /reports/admin.
func (h *ReportsHandler) ListAll(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	filter, err := parseReportFilter(c)
	if err != nil {
		return err
	}
	reports, err := h.moderation.ListAll(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportResponses(reports)})
}

// ListPending GET /reports/admin/pending.
func (h *ReportsHandler) ListPending(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	filter, err := parseReportFilter(c)
	if err != nil {
		return err
	}
	reports, err := h.moderation.ListPending(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportResponses(reports)})
}

// Stats GET /reports/admin/stats.
func (h *ReportsHandler) Stats(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	stats, err := h.moderation.Stats(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportStatsResponse(stats)})
}

// Resolve PUT /reports/:id.
func (h *ReportsHandler) Resolve(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ResolveReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	report, err := h.moderation.Resolve(c.UserContext(), user, c.Params("id"), service.ResolveInput{
		Status: domain.ReportStatus(strings.TrimSpace(req.Status)),
		Notes:  req.ResolutionNotes,
		Action: domain.ModerationAction(strings.TrimSpace(req.Action)),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportResponse(report)})
}

func parseReportFilter(c *fiber.Ctx) (repository.ReportFilter, error) {
	var filter repository.ReportFilter
	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit
	if status := optionalQuery(c, "status"); status != nil {
		s := domain.ReportStatus(*status)
		filter.Status = &s
	}
	if kind := optionalQuery(c, "target_kind"); kind != nil {
		k := domain.TargetKind(*kind)
		filter.TargetKind = &k
	}
	return filter, nil
}

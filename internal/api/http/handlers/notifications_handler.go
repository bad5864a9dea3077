package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recognition-wall/internal/api/dto"
	"github.com/spec-kit/recognition-wall/internal/service"
)

// NotificationsHandler serves the polled inbox.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// Inbox GET /notifications.
func (h *NotificationsHandler) Inbox(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		return err
	}
	inbox, err := h.notifications.Inbox(c.UserContext(), user.ID, limit)
	if err != nil {
		return err
	}
	resp := dto.InboxResponse{Items: make([]dto.NotificationResponse, 0, len(inbox.Items)), Unread: inbox.Unread}
	for _, n := range inbox.Items {
		resp.Items = append(resp.Items, dto.NotificationResponse{
			ID:          n.ID,
			ActorID:     n.ActorID,
			Kind:        string(n.Kind),
			Message:     n.Message,
			ReferenceID: n.ReferenceID,
			Read:        n.Read,
			CreatedAt:   n.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// MarkRead POST /notifications/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkAllRead(c.UserContext(), user.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkOneRead POST /notifications/:id/read.
func (h *NotificationsHandler) MarkOneRead(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.UserContext(), user.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete DELETE /notifications/:id.
func (h *NotificationsHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.notifications.Delete(c.UserContext(), user.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

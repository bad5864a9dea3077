package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recognition-wall/internal/api/dto"
	"github.com/spec-kit/recognition-wall/internal/repository"
	"github.com/spec-kit/recognition-wall/internal/service"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

// UsersHandler exposes the user directory.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// Me GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// UpdateMe PUT /users/me.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.users.UpdateProfile(c.UserContext(), user, service.ProfileUpdate{
		Name:       req.Name,
		Department: req.Department,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(updated)})
}

// List GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		return err
	}
	offset, err := parseIntQuery(c, "offset", 0)
	if err != nil {
		return err
	}
	users, err := h.users.List(c.UserContext(), repository.UserFilter{
		Department: optionalQuery(c, "department"),
		SearchTerm: optionalQuery(c, "search"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponses(users)})
}

// Get GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Departments GET /departments.
func (h *UsersHandler) Departments(c *fiber.Ctx) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	departments, err := h.users.Departments(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departments})
}

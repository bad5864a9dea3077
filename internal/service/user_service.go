package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/repository"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

const maxProfileField = 120

// UserService exposes the user directory.
type UserService struct {
	deps Dependencies
}

// ProfileUpdate holds the fields a user may change about themselves.
type ProfileUpdate struct {
	Name       *string
	Department *string
}

// NewUserService constructs the service.
func NewUserService(deps Dependencies) *UserService {
	return &UserService{deps: deps.withDefaults()}
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.deps.Users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return user, nil
}

// UpdateProfile changes the caller's display name and department.
func (s *UserService) UpdateProfile(ctx context.Context, user *domain.User, update ProfileUpdate) (*domain.User, error) {
	current, err := s.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" || utf8.RuneCountInString(name) > maxProfileField {
			return nil, apperrors.NewValidationError("name must be between 1 and 120 characters", map[string]any{"field": "name"})
		}
		current.Name = name
	}
	if update.Department != nil {
		department := strings.TrimSpace(*update.Department)
		if utf8.RuneCountInString(department) > maxProfileField {
			return nil, apperrors.NewValidationError("department is too long", map[string]any{"field": "department"})
		}
		current.Department = department
	}
	if err := s.deps.Users.Update(ctx, current); err != nil {
		return nil, notFound(err, "user", user.ID)
	}
	return current, nil
}

// List returns colleagues, optionally filtered by department or a search
// over name and email.
func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.deps.Users.List(ctx, filter)
}

// Departments lists the departments colleagues belong to.
func (s *UserService) Departments(ctx context.Context) ([]string, error) {
	return s.deps.Users.Departments(ctx)
}

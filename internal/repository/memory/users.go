package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/repository"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) SyncIdentity(ctx context.Context, user *domain.User) (*domain.User, error) {
	defer r.s.lock(ctx)()
	now := r.s.tick()
	existing, ok := r.s.data.users[user.ID]
	if !ok {
		existing = *user
		existing.CreatedAt = now
	} else {
		existing.Email = user.Email
		existing.Role = user.Role
	}
	existing.UpdatedAt = now
	put(r.s, r.s.data.users, user.ID, existing)
	out := existing
	return &out, nil
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	defer r.s.lock(ctx)()
	existing, ok := r.s.data.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = user.Name
	existing.Department = user.Department
	existing.UpdatedAt = r.s.tick()
	put(r.s, r.s.data.users, user.ID, existing)
	user.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	defer r.s.lock(ctx)()
	user, ok := r.s.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	defer r.s.lock(ctx)()
	result := []domain.User{}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if user, ok := r.s.data.users[id]; ok {
			result = append(result, user)
		}
	}
	sortUsers(result)
	return result, nil
}

func (r *userRepo) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	defer r.s.lock(ctx)()
	search := ""
	if filter.SearchTerm != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
	}
	result := []domain.User{}
	for _, user := range r.s.data.users {
		if filter.Department != nil && user.Department != *filter.Department {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(user.Name), search) &&
			!strings.Contains(strings.ToLower(user.Email), search) {
			continue
		}
		result = append(result, user)
	}
	sortUsers(result)
	if filter.Limit > 0 {
		result = page(result, filter.Limit, filter.Offset)
	}
	return result, nil
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	defer r.s.lock(ctx)()
	return len(r.s.data.users), nil
}

func (r *userRepo) Departments(ctx context.Context) ([]string, error) {
	defer r.s.lock(ctx)()
	seen := make(map[string]struct{})
	departments := []string{}
	for _, user := range r.s.data.users {
		if user.Department == "" {
			continue
		}
		if _, dup := seen[user.Department]; dup {
			continue
		}
		seen[user.Department] = struct{}{}
		departments = append(departments, user.Department)
	}
	sort.Strings(departments)
	return departments, nil
}

func sortUsers(users []domain.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name == users[j].Name {
			return users[i].ID < users[j].ID
		}
		return users[i].Name < users[j].Name
	})
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

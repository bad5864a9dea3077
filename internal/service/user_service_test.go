package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/repository"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	name := "  Ada Lovelace "
	dept := "research"
	updated, err := h.users.UpdateProfile(ctx, h.u1, ProfileUpdate{Name: &name, Department: &dept})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)
	assert.Equal(t, "research", updated.Department)

	stored, err := h.users.Get(ctx, h.u1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", stored.Name)

	blank := " "
	_, err = h.users.UpdateProfile(ctx, h.u1, ProfileUpdate{Name: &blank})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	long := strings.Repeat("x", 121)
	_, err = h.users.UpdateProfile(ctx, h.u1, ProfileUpdate{Department: &long})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = h.users.Get(ctx, "ghost")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestListUsers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	eng := "eng"
	users, err := h.users.List(ctx, repository.UserFilter{Department: &eng})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Ada", users[0].Name)

	search := "cle"
	users, err = h.users.List(ctx, repository.UserFilter{SearchTerm: &search})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "3", users[0].ID)
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, term := range []string{"%", "_", "a%"} {
		term := term
		users, err := h.users.List(ctx, repository.UserFilter{SearchTerm: &term})
		require.NoError(t, err)
		assert.Empty(t, users, term)
	}
}

func TestDepartments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user(t, "5", "Eve", "", domain.RoleEmployee)

	departments, err := h.users.Departments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"eng", "ops", "sales"}, departments)
}

package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/persistence"
)

// testPool connects to TEST_POSTGRES_DSN, applies the migrations and empties
// every table. Tests are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()))
	_, err = pool.Exec(ctx, `TRUNCATE reports, comments, reactions, attachments, post_recipients, posts, users CASCADE`)
	require.NoError(t, err)
	return pool
}

func seedUsers(t *testing.T, users UserRepository, seeds ...domain.User) {
	t.Helper()
	for i := range seeds {
		_, err := users.SyncIdentity(context.Background(), &seeds[i])
		require.NoError(t, err)
	}
}

var (
	pgAda = domain.User{ID: "ada", Name: "Ada", Email: "ada@example.com", Department: "eng", Role: domain.RoleEmployee}
	pgBen = domain.User{ID: "ben", Name: "Ben", Email: "ben@example.com", Department: "sales", Role: domain.RoleEmployee}
)

func TestContainsPatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%ada%", containsPattern("ada"))
	assert.Equal(t, `%100\%%`, containsPattern("100%"))
	assert.Equal(t, `%a\_b%`, containsPattern("a_b"))
	assert.Equal(t, `%c:\\dir%`, containsPattern(`c:\dir`))
}

func TestPostgresPostEditCap(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	seedUsers(t, NewUserRepository(pool), pgAda, pgBen)
	posts := NewPostRepository(pool)

	post := &domain.Post{AuthorID: "ada", Content: "thanks", RecipientIDs: []string{"ben"}}
	require.NoError(t, posts.Create(ctx, post))

	for i := 1; i <= 2; i++ {
		edited, err := posts.UpdateContent(ctx, post.ID, "edit", 2)
		require.NoError(t, err)
		assert.Equal(t, i, edited.EditCount)
		assert.True(t, edited.IsEdited)
		assert.NotNil(t, edited.LastEditedAt)
	}
	_, err := posts.UpdateContent(ctx, post.ID, "third", 2)
	assert.ErrorIs(t, err, ErrStaleState)
	_, err = posts.UpdateContent(ctx, "missing", "x", 2)
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.EditCount)
	assert.Equal(t, []string{"ben"}, stored.RecipientIDs)
}

func TestPostgresReactionUpsertKeepsOneRow(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	seedUsers(t, NewUserRepository(pool), pgAda, pgBen)
	post := &domain.Post{AuthorID: "ada", Content: "thanks", RecipientIDs: []string{"ben"}}
	require.NoError(t, NewPostRepository(pool).Create(ctx, post))
	reactions := NewReactionRepository(pool)
	tx := NewTransactor(pool)

	types := []domain.ReactionType{domain.ReactionLike, domain.ReactionClap, domain.ReactionStar}
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := tx.WithinTx(ctx, func(ctx context.Context) error {
				if _, err := reactions.GetForUpdate(ctx, post.ID, "ben"); err != nil && !errors.Is(err, ErrNotFound) {
					return err
				}
				return reactions.Upsert(ctx, &domain.Reaction{PostID: post.ID, UserID: "ben", Type: types[i%len(types)]})
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	rows, err := reactions.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	removed, err := reactions.Delete(ctx, post.ID, "ben")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = reactions.Delete(ctx, post.ID, "ben")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPostgresReportLifecycle(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	seedUsers(t, NewUserRepository(pool), pgAda, pgBen,
		domain.User{ID: "root", Name: "Root", Role: domain.RoleAdmin})
	post := &domain.Post{AuthorID: "ada", Content: "thanks", RecipientIDs: []string{"ben"}}
	require.NoError(t, NewPostRepository(pool).Create(ctx, post))
	reports := NewReportRepository(pool)

	keep := &domain.Report{ReporterID: "ben", Target: domain.PostTarget(post.ID), Reason: "spam", Status: domain.ReportStatusPending}
	require.NoError(t, reports.Create(ctx, keep))
	dup := &domain.Report{ReporterID: "ben", Target: domain.PostTarget(post.ID), Reason: "again", Status: domain.ReportStatusPending}
	assert.ErrorIs(t, reports.Create(ctx, dup), ErrDuplicate)
	other := &domain.Report{ReporterID: "root", Target: domain.PostTarget(post.ID), Reason: "rude", Status: domain.ReportStatusPending}
	require.NoError(t, reports.Create(ctx, other))

	found, err := reports.FindPending(ctx, "ben", domain.PostTarget(post.ID))
	require.NoError(t, err)
	assert.Equal(t, keep.ID, found.ID)

	resolution := domain.ReportResolution{Status: domain.ReportStatusResolved, ResolvedByID: "root", ResolvedAt: time.Now().UTC()}
	resolved, err := reports.Transition(ctx, keep.ID, domain.ReportStatusPending, resolution)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusResolved, resolved.Status)
	assert.Nil(t, resolved.ResolutionNotes)
	_, err = reports.Transition(ctx, keep.ID, domain.ReportStatusPending, resolution)
	assert.ErrorIs(t, err, ErrStaleState)

	removed, err := reports.DeleteByTargets(ctx, []domain.ReportTarget{domain.PostTarget(post.ID)}, keep.ID)
	require.NoError(t, err, "no comment targets binds an empty text[]")
	assert.EqualValues(t, 1, removed)

	stats, err := reports.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStats{Total: 1, Resolved: 1}, stats)
}

func TestPostgresUserSearchAndDepartments(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	seedUsers(t, users, pgAda, pgBen,
		domain.User{ID: "pct", Name: "100% Club", Email: "club@example.com", Role: domain.RoleEmployee})

	term := "%"
	found, err := users.List(ctx, UserFilter{SearchTerm: &term})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "pct", found[0].ID)

	term = "_"
	found, err = users.List(ctx, UserFilter{SearchTerm: &term})
	require.NoError(t, err)
	assert.Empty(t, found)

	departments, err := users.Departments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"eng", "sales"}, departments)
}

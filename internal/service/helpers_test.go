package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/recognition-wall/internal/config"
	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/events"
	"github.com/spec-kit/recognition-wall/internal/persistence"
	"github.com/spec-kit/recognition-wall/internal/repository/memory"
)

type harness struct {
	store         *memory.Store
	deps          Dependencies
	posts         *PostService
	reactions     *ReactionService
	comments      *CommentService
	moderation    *ModerationService
	feed          *FeedService
	leaderboard   *LeaderboardService
	users         *UserService
	notifications *NotificationService

	u1, u2, u3, u4, admin *domain.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop(), nil)
	deps := Dependencies{
		Tx:          store,
		Users:       store.Users(),
		Posts:       store.Posts(),
		Attachments: store.Attachments(),
		Reactions:   store.Reactions(),
		Comments:    store.Comments(),
		Reports:     store.Reports(),
		Dispatcher:  dispatcher,
		Feed:        config.Defaults().Feed,
		Logger:      zap.NewNop(),
	}

	h := &harness{store: store, deps: deps}
	h.posts = NewPostService(deps)
	h.reactions = NewReactionService(deps)
	h.comments = NewCommentService(deps)
	h.moderation = NewModerationService(deps, h.posts, h.comments)
	h.feed = NewFeedService(deps)
	h.leaderboard = NewLeaderboardService(deps)
	h.users = NewUserService(deps)
	h.notifications = NewNotificationService(dispatcher, persistence.NewMemoryNotificationStore(100), zap.NewNop())
	h.notifications.RegisterHandlers()

	h.u1 = h.user(t, "1", "Ada", "eng", domain.RoleEmployee)
	h.u2 = h.user(t, "2", "Ben", "eng", domain.RoleEmployee)
	h.u3 = h.user(t, "3", "Cleo", "sales", domain.RoleEmployee)
	h.u4 = h.user(t, "4", "Dev", "ops", domain.RoleEmployee)
	h.admin = h.user(t, "admin", "Root", "ops", domain.RoleAdmin)
	return h
}

func (h *harness) user(t *testing.T, id, name, department string, role domain.Role) *domain.User {
	t.Helper()
	u, err := h.store.Users().SyncIdentity(context.Background(), &domain.User{
		ID: id, Name: name, Email: id + "@example.com", Department: department, Role: role,
	})
	require.NoError(t, err)
	return u
}

func (h *harness) post(t *testing.T, author *domain.User, content string, recipients ...string) *domain.Post {
	t.Helper()
	post, err := h.posts.Create(context.Background(), author, PostCreateInput{Content: content, RecipientIDs: recipients})
	require.NoError(t, err)
	return post
}

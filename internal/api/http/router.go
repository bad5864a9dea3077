package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/recognition-wall/internal/api/http/handlers"
	"github.com/spec-kit/recognition-wall/internal/auth"
	"github.com/spec-kit/recognition-wall/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Posts          *handlers.PostsHandler
	Comments       *handlers.CommentsHandler
	Reports        *handlers.ReportsHandler
	Users          *handlers.UsersHandler
	Leaderboard    *handlers.LeaderboardHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
	WriteLimiter   *auth.WriteLimiter
	Metrics        *observability.Metrics
	UploadDir      string
	UploadPrefix   string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}
	if cfg.UploadDir != "" && cfg.UploadPrefix != "" {
		app.Static(cfg.UploadPrefix, cfg.UploadDir)
	}

	protected := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuthenticated()}
	if cfg.WriteLimiter != nil {
		protected = append(protected, cfg.WriteLimiter.Handle)
	}
	with := func(extra ...fiber.Handler) []fiber.Handler {
		chain := make([]fiber.Handler, 0, len(protected)+len(extra))
		chain = append(chain, protected...)
		return append(chain, extra...)
	}

	posts := app.Group("/posts", protected...)
	posts.Post("/", cfg.Posts.CreatePost)
	posts.Get("/", cfg.Posts.ListPosts)
	posts.Get("/:id", cfg.Posts.GetPost)
	posts.Put("/:id", cfg.Posts.UpdatePost)
	posts.Delete("/:id", cfg.Posts.DeletePost)
	posts.Post("/:id/reactions", cfg.Posts.React)
	posts.Delete("/:id/reactions", cfg.Posts.Unreact)
	posts.Get("/:id/comments", cfg.Comments.ListComments)
	posts.Post("/:id/comments", cfg.Comments.AddComment)
	posts.Post("/:id/reports", cfg.Reports.ReportPost)

	comments := app.Group("/comments", protected...)
	comments.Put("/:id", cfg.Comments.UpdateComment)
	comments.Delete("/:id", cfg.Comments.DeleteComment)
	comments.Post("/:id/reports", cfg.Reports.ReportComment)

	reports := app.Group("/reports", protected...)
	reports.Get("/mine", cfg.Reports.ListMine)
	moderation := reports.Group("/admin", auth.RequireAdmin())
	moderation.Get("/", cfg.Reports.ListAll)
	moderation.Get("/pending", cfg.Reports.ListPending)
	moderation.Get("/stats", cfg.Reports.Stats)
	reports.Put("/:id", auth.RequireAdmin(), cfg.Reports.Resolve)

	users := app.Group("/users", protected...)
	users.Get("/me", cfg.Users.Me)
	users.Put("/me", cfg.Users.UpdateMe)
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)

	app.Get("/departments", with(cfg.Users.Departments)...)

	app.Get("/leaderboard", with(cfg.Leaderboard.Leaderboard)...)

	admin := app.Group("/admin", with(auth.RequireAdmin())...)
	admin.Get("/stats", cfg.Leaderboard.AdminStats)

	notifications := app.Group("/notifications", protected...)
	notifications.Get("/", cfg.Notifications.Inbox)
	notifications.Post("/read", cfg.Notifications.MarkRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkOneRead)
	notifications.Delete("/:id", cfg.Notifications.Delete)
}

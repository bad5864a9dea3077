package handlers

import (
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recognition-wall/internal/api/dto"
	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/service"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

const expandAll = "all"

// PostsHandler serves the feed, posts and reactions.
type PostsHandler struct {
	posts     *service.PostService
	feed      *service.FeedService
	reactions *service.ReactionService
}

// NewPostsHandler constructs handler.
func NewPostsHandler(posts *service.PostService, feed *service.FeedService, reactions *service.ReactionService) *PostsHandler {
	return &PostsHandler{posts: posts, feed: feed, reactions: reactions}
}

// CreatePost POST /posts. Accepts JSON or multipart with files.
func (h *PostsHandler) CreatePost(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var input service.PostCreateInput
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return apperrors.NewValidationError("invalid multipart payload", nil)
		}
		files, err := openUploads(form.File["files"])
		if err != nil {
			return err
		}
		defer func() {
			for _, f := range files {
				_ = f.Close()
			}
		}()
		input.Content = firstValue(form.Value["content"])
		input.RecipientIDs = splitList(form.Value["recipient_ids"]...)
		for i, fh := range form.File["files"] {
			input.Attachments = append(input.Attachments, service.AttachmentUpload{
				FileName:    fh.Filename,
				ContentType: fh.Header.Get(fiber.HeaderContentType),
				Body:        files[i],
			})
		}
	} else {
		var req dto.CreatePostRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		input.Content = req.Content
		input.RecipientIDs = req.RecipientIDs
	}

	post, err := h.posts.Create(c.UserContext(), user, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": postResponse(post)})
}

func openUploads(headers []*multipart.FileHeader) ([]multipart.File, error) {
	files := make([]multipart.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			for _, opened := range files {
				_ = opened.Close()
			}
			return nil, apperrors.NewValidationError("unreadable upload", map[string]any{"file": fh.Filename})
		}
		files = append(files, f)
	}
	return files, nil
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// ListPosts GET /posts.
func (h *PostsHandler) ListPosts(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	query, err := parseFeedQuery(c)
	if err != nil {
		return err
	}
	page, err := h.feed.AssembleFeed(c.UserContext(), user, query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": feedResponse(page)})
}

func parseFeedQuery(c *fiber.Ctx) (service.FeedQuery, error) {
	var q service.FeedQuery
	sort, err := service.ParseFeedSort(c.Query("sort_by"))
	if err != nil {
		return q, err
	}
	q.Sort = sort
	if q.Limit, err = parseIntQuery(c, "limit", 0); err != nil {
		return q, err
	}
	if q.Offset, err = parseIntQuery(c, "offset", 0); err != nil {
		return q, err
	}
	if q.Filter.DateFrom, err = parseDateQuery(c, "date_from", false); err != nil {
		return q, err
	}
	if q.Filter.DateTo, err = parseDateQuery(c, "date_to", true); err != nil {
		return q, err
	}
	q.Filter.Department = optionalQuery(c, "department")
	q.Filter.SenderID = optionalQuery(c, "sender")
	q.Filter.RecipientID = optionalQuery(c, "recipient")
	q.GroupBy = strings.TrimSpace(c.Query("group_by"))

	for _, id := range splitList(c.Query("expand")) {
		if id == expandAll {
			q.ExpandAll = true
			continue
		}
		q.Expand = append(q.Expand, id)
	}
	return q, nil
}

// GetPost GET /posts/:id.
func (h *PostsHandler) GetPost(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	item, err := h.feed.PostView(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": feedItemResponse(item)})
}

// UpdatePost PUT /posts/:id.
func (h *PostsHandler) UpdatePost(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	post, err := h.posts.Edit(c.UserContext(), user, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": postResponse(post)})
}

// DeletePost DELETE /posts/:id.
func (h *PostsHandler) DeletePost(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.posts.Delete(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// React POST /posts/:id/reactions.
func (h *PostsHandler) React(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ReactRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	state, err := h.reactions.React(c.UserContext(), user, c.Params("id"), domain.ReactionType(strings.TrimSpace(req.Type)))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reactionStateResponse(state)})
}

// Unreact DELETE /posts/:id/reactions.
func (h *PostsHandler) Unreact(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.reactions.Unreact(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

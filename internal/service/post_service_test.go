package service

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/repository"
	"github.com/spec-kit/recognition-wall/internal/storage"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

func TestCreatePostValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := map[string]PostCreateInput{
		"empty content":     {Content: "   ", RecipientIDs: []string{"2"}},
		"too long":          {Content: strings.Repeat("é", 1001), RecipientIDs: []string{"2"}},
		"no recipients":     {Content: "hi"},
		"blank recipient":   {Content: "hi", RecipientIDs: []string{" "}},
		"unknown recipient": {Content: "hi", RecipientIDs: []string{"2", "ghost"}},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.posts.Create(ctx, h.u1, input)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
		})
	}

	count, err := h.store.Posts().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreatePostDeduplicatesRecipientsAndTrims(t *testing.T) {
	h := newHarness(t)
	post, err := h.posts.Create(context.Background(), h.u1, PostCreateInput{
		Content:      "  thanks for the help  ",
		RecipientIDs: []string{"3", "2", "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, "thanks for the help", post.Content)
	assert.ElementsMatch(t, []string{"2", "3"}, post.RecipientIDs)

	_, err = h.posts.Create(context.Background(), h.u1, PostCreateInput{
		Content:      strings.Repeat("é", 1000),
		RecipientIDs: []string{"2"},
	})
	assert.NoError(t, err, "limit counts characters, not bytes")
}

func TestCreatePostWithAttachments(t *testing.T) {
	h := newHarness(t)
	blobs, err := storage.NewLocalStore(t.TempDir(), "/uploads", 1024)
	require.NoError(t, err)
	h.deps.Blobs = blobs
	posts := NewPostService(h.deps)
	ctx := context.Background()

	post, err := posts.Create(ctx, h.u1, PostCreateInput{
		Content:      "launch day",
		RecipientIDs: []string{"2"},
		Attachments: []AttachmentUpload{
			{FileName: "photo.png", ContentType: "image/png", Body: strings.NewReader("png")},
		},
	})
	require.NoError(t, err)
	require.Len(t, post.Attachments, 1)
	assert.Equal(t, post.ID, post.Attachments[0].PostID)
	assert.EqualValues(t, 3, post.Attachments[0].SizeBytes)
	assert.True(t, strings.HasPrefix(post.Attachments[0].URL, "/uploads/"))

	fetched, err := posts.Get(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Attachments, 1)

	require.NoError(t, posts.Delete(ctx, h.u1, post.ID))
}

func TestCreatePostRejectsOversizedAttachment(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	blobs, err := storage.NewLocalStore(dir, "/uploads", 4)
	require.NoError(t, err)
	h.deps.Blobs = blobs
	posts := NewPostService(h.deps)
	ctx := context.Background()

	_, err = posts.Create(ctx, h.u1, PostCreateInput{
		Content:      "launch day",
		RecipientIDs: []string{"2"},
		Attachments: []AttachmentUpload{
			{FileName: "small.txt", ContentType: "text/plain", Body: strings.NewReader("ok")},
			{FileName: "big.txt", ContentType: "text/plain", Body: strings.NewReader("0123456789")},
		},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, 400, domainErr.HTTPStatus)
	assert.Equal(t, "big.txt", domainErr.Details["file"])
	assert.EqualValues(t, 4, domainErr.Details["max_bytes"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "earlier uploads are discarded")
	count, err := h.store.Posts().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEditPostPermissions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	post := h.post(t, h.u1, "Great work", "2")

	_, err := h.posts.Edit(ctx, h.u2, post.ID, "hijack")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = h.posts.Edit(ctx, h.admin, post.ID, "admin edit")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = h.posts.Edit(ctx, h.u1, "missing", "text")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = h.posts.Edit(ctx, h.u1, post.ID, " ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestDeletePostCascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	post := h.post(t, h.u1, "Great work", "2")
	other := h.post(t, h.u2, "Other", "1")

	_, err := h.reactions.React(ctx, h.u2, post.ID, domain.ReactionStar)
	require.NoError(t, err)
	comment, err := h.comments.Add(ctx, h.u2, post.ID, "first", nil)
	require.NoError(t, err)
	_, err = h.moderation.File(ctx, h.u3, ReportInput{Target: domain.PostTarget(post.ID), Reason: "spam"})
	require.NoError(t, err)
	_, err = h.moderation.File(ctx, h.u3, ReportInput{Target: domain.CommentTarget(comment.ID), Reason: "rude"})
	require.NoError(t, err)
	unrelated, err := h.moderation.File(ctx, h.u3, ReportInput{Target: domain.PostTarget(other.ID), Reason: "spam"})
	require.NoError(t, err)

	err = h.posts.Delete(ctx, h.u2, post.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	require.NoError(t, h.posts.Delete(ctx, h.u1, post.ID))

	err = h.posts.Delete(ctx, h.u1, post.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	reports, err := h.moderation.ListAll(ctx, h.admin, repository.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, unrelated.ID, reports[0].ID)

	reactions, err := h.store.Reactions().ListByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, reactions)
}

func TestAdminCanDeleteAnyPost(t *testing.T) {
	h := newHarness(t)
	post := h.post(t, h.u1, "Great work", "2")
	require.NoError(t, h.posts.Delete(context.Background(), h.admin, post.ID))
}

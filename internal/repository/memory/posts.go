package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/repository"
)

type postRepo struct {
	s *Store
}

func (r *postRepo) Create(ctx context.Context, post *domain.Post) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.users[post.AuthorID]; !ok {
		return repository.ErrNotFound
	}
	now := r.s.tick()
	post.ID = newID()
	post.EditCount = 0
	post.IsEdited = false
	post.CreatedAt = now
	post.UpdatedAt = now
	post.RecipientIDs = uniqueSorted(post.RecipientIDs)

	stored := *post
	stored.Attachments = nil
	put(r.s, r.s.data.posts, post.ID, stored)
	return nil
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	defer r.s.lock(ctx)()
	post, ok := r.s.data.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyPost(post), nil
}

func (r *postRepo) List(ctx context.Context, filter repository.PostFilter) ([]domain.Post, error) {
	defer r.s.lock(ctx)()
	result := []domain.Post{}
	for _, post := range r.s.data.posts {
		if filter.Department != nil {
			author, ok := r.s.data.users[post.AuthorID]
			if !ok || author.Department != *filter.Department {
				continue
			}
		}
		if filter.SenderID != nil && post.AuthorID != *filter.SenderID {
			continue
		}
		if filter.RecipientID != nil && !post.HasRecipient(*filter.RecipientID) {
			continue
		}
		if filter.DateFrom != nil && post.CreatedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && post.CreatedAt.After(*filter.DateTo) {
			continue
		}
		result = append(result, *copyPost(post))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *postRepo) UpdateContent(ctx context.Context, id, content string, limit int) (*domain.Post, error) {
	defer r.s.lock(ctx)()
	post, ok := r.s.data.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if post.EditCount >= limit {
		return nil, repository.ErrStaleState
	}
	now := r.s.tick()
	post.Content = content
	post.EditCount++
	post.IsEdited = true
	post.LastEditedAt = &now
	post.UpdatedAt = now
	put(r.s, r.s.data.posts, id, post)
	return copyPost(post), nil
}

// Delete removes the post together with the rows a foreign key cascade
// would remove: attachments, reactions and comments.
func (r *postRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.posts[id]; !ok {
		return repository.ErrNotFound
	}
	remove(r.s, r.s.data.posts, id)
	remove(r.s, r.s.data.attachments, id)
	for key := range r.s.data.reactions {
		if key.postID == id {
			remove(r.s, r.s.data.reactions, key)
		}
	}
	for commentID, comment := range r.s.data.comments {
		if comment.PostID == id {
			remove(r.s, r.s.data.comments, commentID)
		}
	}
	return nil
}

func (r *postRepo) Count(ctx context.Context) (int, error) {
	defer r.s.lock(ctx)()
	return len(r.s.data.posts), nil
}

func copyPost(post domain.Post) *domain.Post {
	out := post
	out.RecipientIDs = append([]string{}, post.RecipientIDs...)
	if post.LastEditedAt != nil {
		at := *post.LastEditedAt
		out.LastEditedAt = &at
	}
	return &out
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

type attachmentRepo struct {
	s *Store
}

func (r *attachmentRepo) Create(ctx context.Context, attachment *domain.Attachment) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.posts[attachment.PostID]; !ok {
		return repository.ErrNotFound
	}
	attachment.ID = newID()
	attachment.CreatedAt = r.s.tick()
	put(r.s, r.s.data.attachments, attachment.PostID, append(r.s.data.attachments[attachment.PostID], *attachment))
	return nil
}

func (r *attachmentRepo) ListByPosts(ctx context.Context, postIDs []string) (map[string][]domain.Attachment, error) {
	defer r.s.lock(ctx)()
	result := make(map[string][]domain.Attachment, len(postIDs))
	for _, id := range postIDs {
		if items, ok := r.s.data.attachments[id]; ok {
			result[id] = append([]domain.Attachment(nil), items...)
		}
	}
	return result, nil
}

package memory

import (
	"context"
	"sort"
	"time"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/repository"
)

type reactionRepo struct {
	s *Store
}

func (r *reactionRepo) GetForUpdate(ctx context.Context, postID, userID string) (*domain.Reaction, error) {
	defer r.s.lock(ctx)()
	reaction, ok := r.s.data.reactions[reactionKey{postID: postID, userID: userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &reaction, nil
}

func (r *reactionRepo) Upsert(ctx context.Context, reaction *domain.Reaction) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.posts[reaction.PostID]; !ok {
		return repository.ErrNotFound
	}
	key := reactionKey{postID: reaction.PostID, userID: reaction.UserID}
	existing, ok := r.s.data.reactions[key]
	if ok {
		reaction.ID = existing.ID
	} else {
		reaction.ID = newID()
	}
	reaction.CreatedAt = r.s.tick()
	put(r.s, r.s.data.reactions, key, *reaction)
	return nil
}

func (r *reactionRepo) Delete(ctx context.Context, postID, userID string) (bool, error) {
	defer r.s.lock(ctx)()
	key := reactionKey{postID: postID, userID: userID}
	if _, ok := r.s.data.reactions[key]; !ok {
		return false, nil
	}
	remove(r.s, r.s.data.reactions, key)
	return true, nil
}

func (r *reactionRepo) ListByPost(ctx context.Context, postID string) ([]domain.Reaction, error) {
	return r.ListByPosts(ctx, []string{postID})
}

func (r *reactionRepo) ListByPosts(ctx context.Context, postIDs []string) ([]domain.Reaction, error) {
	defer r.s.lock(ctx)()
	wanted := make(map[string]struct{}, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = struct{}{}
	}
	result := []domain.Reaction{}
	for key, reaction := range r.s.data.reactions {
		if _, ok := wanted[key.postID]; ok {
			result = append(result, reaction)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type commentRepo struct {
	s *Store
}

func (r *commentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.posts[comment.PostID]; !ok {
		return repository.ErrNotFound
	}
	if comment.ParentID != nil {
		if _, ok := r.s.data.comments[*comment.ParentID]; !ok {
			return repository.ErrNotFound
		}
	}
	now := r.s.tick()
	comment.ID = newID()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	comment.DeletedAt = nil
	put(r.s, r.s.data.comments, comment.ID, *comment)
	return nil
}

func (r *commentRepo) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	defer r.s.lock(ctx)()
	comment, ok := r.s.data.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &comment, nil
}

func (r *commentRepo) UpdateContent(ctx context.Context, id, content string) (*domain.Comment, error) {
	defer r.s.lock(ctx)()
	comment, ok := r.s.data.comments[id]
	if !ok || comment.IsDeleted() {
		return nil, repository.ErrNotFound
	}
	comment.Content = content
	comment.UpdatedAt = r.s.tick()
	put(r.s, r.s.data.comments, id, comment)
	return &comment, nil
}

func (r *commentRepo) Tombstone(ctx context.Context, id string, at time.Time) error {
	defer r.s.lock(ctx)()
	comment, ok := r.s.data.comments[id]
	if !ok || comment.IsDeleted() {
		return repository.ErrNotFound
	}
	at = at.UTC()
	comment.Content = ""
	comment.DeletedAt = &at
	comment.UpdatedAt = at
	put(r.s, r.s.data.comments, id, comment)
	return nil
}

func (r *commentRepo) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	defer r.s.lock(ctx)()
	result := []domain.Comment{}
	for _, comment := range r.s.data.comments {
		if comment.PostID == postID {
			result = append(result, comment)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *commentRepo) CountLiveByPosts(ctx context.Context, postIDs []string) (map[string]int, error) {
	defer r.s.lock(ctx)()
	wanted := make(map[string]struct{}, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = struct{}{}
	}
	result := make(map[string]int, len(postIDs))
	for _, comment := range r.s.data.comments {
		if _, ok := wanted[comment.PostID]; ok && !comment.IsDeleted() {
			result[comment.PostID]++
		}
	}
	return result, nil
}

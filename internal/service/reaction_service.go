package service

import (
	"context"
	"errors"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/events"
	"github.com/spec-kit/recognition-wall/internal/repository"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

// ReactionService maintains the single active reaction per user and post.
type ReactionService struct {
	deps Dependencies
	publisher
}

// NewReactionService constructs the service.
func NewReactionService(deps Dependencies) *ReactionService {
	deps = deps.withDefaults()
	return &ReactionService{deps: deps, publisher: publisher{dispatcher: deps.Dispatcher, now: deps.Now}}
}

// React toggles reactionType for user on the post. Repeating the current
// type removes it; a different type replaces it.
func (s *ReactionService) React(ctx context.Context, user *domain.User, postID string, reactionType domain.ReactionType) (*domain.ReactionState, error) {
	if !reactionType.Valid() {
		return nil, apperrors.NewValidationError("unknown reaction type", map[string]any{"type": reactionType})
	}

	var (
		state  *domain.ReactionState
		post   *domain.Post
		placed bool
	)
	err := s.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		post, err = s.deps.Posts.GetByID(ctx, postID)
		if err != nil {
			return notFound(err, "post", postID)
		}

		existing, err := s.deps.Reactions.GetForUpdate(ctx, postID, user.ID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			existing = nil
		case err != nil:
			return err
		}

		if existing != nil && existing.Type == reactionType {
			if _, err := s.deps.Reactions.Delete(ctx, postID, user.ID); err != nil {
				return err
			}
		} else {
			reaction := &domain.Reaction{PostID: postID, UserID: user.ID, Type: reactionType}
			if err := s.deps.Reactions.Upsert(ctx, reaction); err != nil {
				return err
			}
			placed = true
		}

		state, err = s.stateWithinTx(ctx, postID, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if placed && post.AuthorID != user.ID {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventReactionAdded,
			PostID:  postID,
			ActorID: user.ID,
			Payload: events.ReactionAddedPayload{
				PostAuthorID: post.AuthorID,
				ActorName:    user.Name,
				Type:         reactionType,
			},
		})
	}
	return state, nil
}

// Unreact removes the user's reaction. It is a no-op when there is none.
func (s *ReactionService) Unreact(ctx context.Context, user *domain.User, postID string) error {
	if _, err := s.deps.Posts.GetByID(ctx, postID); err != nil {
		return notFound(err, "post", postID)
	}
	_, err := s.deps.Reactions.Delete(ctx, postID, user.ID)
	return err
}

// Counts aggregates the stored reactions of a post.
func (s *ReactionService) Counts(ctx context.Context, postID string) (domain.ReactionCounts, error) {
	if _, err := s.deps.Posts.GetByID(ctx, postID); err != nil {
		return nil, notFound(err, "post", postID)
	}
	reactions, err := s.deps.Reactions.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return domain.CountReactions(reactions), nil
}

// State returns the counts of a post together with viewerID's reaction.
func (s *ReactionService) State(ctx context.Context, postID, viewerID string) (*domain.ReactionState, error) {
	if _, err := s.deps.Posts.GetByID(ctx, postID); err != nil {
		return nil, notFound(err, "post", postID)
	}
	return s.stateWithinTx(ctx, postID, viewerID)
}

func (s *ReactionService) stateWithinTx(ctx context.Context, postID, viewerID string) (*domain.ReactionState, error) {
	reactions, err := s.deps.Reactions.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	state := &domain.ReactionState{PostID: postID, Counts: domain.CountReactions(reactions)}
	state.Viewer = viewerReaction(reactions, viewerID)
	return state, nil
}

func viewerReaction(reactions []domain.Reaction, viewerID string) *domain.ReactionType {
	for _, r := range reactions {
		if r.UserID == viewerID {
			t := r.Type
			return &t
		}
	}
	return nil
}

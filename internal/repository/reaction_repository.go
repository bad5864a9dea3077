package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recognition-wall/internal/domain"
)

// ReactionRepository stores the single active reaction per (post, user).
type ReactionRepository interface {
	// GetForUpdate returns the user's reaction and locks it for the
	// surrounding transaction.
	GetForUpdate(ctx context.Context, postID, userID string) (*domain.Reaction, error)
	// Upsert inserts the reaction or replaces the type of the existing one.
	Upsert(ctx context.Context, reaction *domain.Reaction) error
	Delete(ctx context.Context, postID, userID string) (bool, error)
	ListByPost(ctx context.Context, postID string) ([]domain.Reaction, error)
	ListByPosts(ctx context.Context, postIDs []string) ([]domain.Reaction, error)
}

type reactionRepository struct {
	pool *pgxpool.Pool
}

// NewReactionRepository builds repository.
func NewReactionRepository(pool *pgxpool.Pool) ReactionRepository {
	return &reactionRepository{pool: pool}
}

func (r *reactionRepository) GetForUpdate(ctx context.Context, postID, userID string) (*domain.Reaction, error) {
	const query = `
        SELECT id, post_id, user_id, type, created_at
        FROM reactions WHERE post_id=$1 AND user_id=$2
        FOR UPDATE`
	var reaction domain.Reaction
	if err := conn(ctx, r.pool).QueryRow(ctx, query, postID, userID).Scan(
		&reaction.ID,
		&reaction.PostID,
		&reaction.UserID,
		&reaction.Type,
		&reaction.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *reactionRepository) Upsert(ctx context.Context, reaction *domain.Reaction) error {
	const query = `
        INSERT INTO reactions (post_id, user_id, type)
        VALUES ($1,$2,$3)
        ON CONFLICT (post_id, user_id) DO UPDATE SET type=EXCLUDED.type, created_at=NOW()
        RETURNING id, created_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		reaction.PostID,
		reaction.UserID,
		reaction.Type,
	).Scan(&reaction.ID, &reaction.CreatedAt)
}

func (r *reactionRepository) Delete(ctx context.Context, postID, userID string) (bool, error) {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM reactions WHERE post_id=$1 AND user_id=$2`, postID, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *reactionRepository) ListByPost(ctx context.Context, postID string) ([]domain.Reaction, error) {
	const query = `
        SELECT id, post_id, user_id, type, created_at
        FROM reactions WHERE post_id=$1 ORDER BY created_at ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReactions(rows)
}

func (r *reactionRepository) ListByPosts(ctx context.Context, postIDs []string) ([]domain.Reaction, error) {
	if len(postIDs) == 0 {
		return []domain.Reaction{}, nil
	}
	const query = `
        SELECT id, post_id, user_id, type, created_at
        FROM reactions WHERE post_id = ANY($1::text[]) ORDER BY created_at ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, postIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReactions(rows)
}

func scanReactions(rows pgx.Rows) ([]domain.Reaction, error) {
	result := []domain.Reaction{}
	for rows.Next() {
		var reaction domain.Reaction
		if err := rows.Scan(
			&reaction.ID,
			&reaction.PostID,
			&reaction.UserID,
			&reaction.Type,
			&reaction.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, reaction)
	}
	return result, rows.Err()
}

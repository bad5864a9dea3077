package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recognition-wall/internal/domain"
)

// CommentRepository manages flat comment records. Deletion is a tombstone:
// the row and its id survive so replies keep a valid parent.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	// UpdateContent edits a live comment; tombstones report ErrNotFound.
	UpdateContent(ctx context.Context, id, content string) (*domain.Comment, error)
	// Tombstone clears a live comment's content; tombstones report ErrNotFound.
	Tombstone(ctx context.Context, id string, at time.Time) error
	ListByPost(ctx context.Context, postID string) ([]domain.Comment, error)
	CountLiveByPosts(ctx context.Context, postIDs []string) (map[string]int, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

const commentColumns = `id, post_id, user_id, parent_id, content, created_at, updated_at, deleted_at`

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (post_id, user_id, parent_id, content)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		comment.PostID,
		comment.UserID,
		comment.ParentID,
		comment.Content,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id=$1`
	return scanComment(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *commentRepository) UpdateContent(ctx context.Context, id, content string) (*domain.Comment, error) {
	query := `
        UPDATE comments SET content=$1, updated_at=NOW()
        WHERE id=$2 AND deleted_at IS NULL
        RETURNING ` + commentColumns
	return scanComment(conn(ctx, r.pool).QueryRow(ctx, query, content, id))
}

func (r *commentRepository) Tombstone(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE comments SET content='', deleted_at=$1, updated_at=$1
        WHERE id=$2 AND deleted_at IS NULL`
	cmd, err := conn(ctx, r.pool).Exec(ctx, query, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE post_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *comment)
	}
	return result, rows.Err()
}

func (r *commentRepository) CountLiveByPosts(ctx context.Context, postIDs []string) (map[string]int, error) {
	result := make(map[string]int, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT post_id, COUNT(*) FROM comments
        WHERE post_id = ANY($1::text[]) AND deleted_at IS NULL
        GROUP BY post_id`
	rows, err := conn(ctx, r.pool).Query(ctx, query, postIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var postID string
		var count int
		if err := rows.Scan(&postID, &count); err != nil {
			return nil, err
		}
		result[postID] = count
	}
	return result, rows.Err()
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var comment domain.Comment
	if err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.UserID,
		&comment.ParentID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.UpdatedAt,
		&comment.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}

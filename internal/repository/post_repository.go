package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recognition-wall/internal/domain"
)

// PostRepository encapsulates shout-out persistence, recipients included.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	List(ctx context.Context, filter PostFilter) ([]domain.Post, error)
	// UpdateContent applies an author edit while edit_count is below limit.
	// It returns ErrStaleState when the limit was reached concurrently.
	UpdateContent(ctx context.Context, id, content string, limit int) (*domain.Post, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type postRepository struct {
	pool *pgxpool.Pool
}

// NewPostRepository instantiates repository.
func NewPostRepository(pool *pgxpool.Pool) PostRepository {
	return &postRepository{pool: pool}
}

const postColumns = `p.id, p.author_id, p.content, p.edit_count, p.is_edited, p.created_at, p.updated_at, p.last_edited_at,
               COALESCE((SELECT array_agg(pr.user_id ORDER BY pr.user_id) FROM post_recipients pr WHERE pr.post_id = p.id), '{}')`

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	const query = `
        INSERT INTO posts (author_id, content)
        VALUES ($1,$2)
        RETURNING id, edit_count, is_edited, created_at, updated_at`
	q := conn(ctx, r.pool)
	if err := q.QueryRow(ctx, query,
		post.AuthorID,
		post.Content,
	).Scan(&post.ID, &post.EditCount, &post.IsEdited, &post.CreatedAt, &post.UpdatedAt); err != nil {
		return err
	}

	const recipients = `
        INSERT INTO post_recipients (post_id, user_id)
        SELECT $1, unnest($2::text[])
        ON CONFLICT DO NOTHING`
	_, err := q.Exec(ctx, recipients, post.ID, post.RecipientIDs)
	return err
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id=$1`
	return scanPost(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]domain.Post, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("u.department=$%d", len(args)))
	}
	if filter.SenderID != nil {
		args = append(args, *filter.SenderID)
		clauses = append(clauses, fmt.Sprintf("p.author_id=$%d", len(args)))
	}
	if filter.RecipientID != nil {
		args = append(args, *filter.RecipientID)
		clauses = append(clauses, fmt.Sprintf("EXISTS (SELECT 1 FROM post_recipients fr WHERE fr.post_id = p.id AND fr.user_id=$%d)", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("p.created_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("p.created_at <= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM posts p JOIN users u ON u.id = p.author_id WHERE %s ORDER BY p.created_at DESC, p.id DESC`,
		postColumns, strings.Join(clauses, " AND "))

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *post)
	}
	return result, rows.Err()
}

func (r *postRepository) UpdateContent(ctx context.Context, id, content string, limit int) (*domain.Post, error) {
	const query = `
        UPDATE posts SET content=$1, edit_count=edit_count+1, is_edited=TRUE, last_edited_at=NOW(), updated_at=NOW()
        WHERE id=$2 AND edit_count < $3`
	cmd, err := conn(ctx, r.pool).Exec(ctx, query, content, id, limit)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStaleState
	}
	return r.GetByID(ctx, id)
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *postRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count)
	return count, err
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var post domain.Post
	if err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.Content,
		&post.EditCount,
		&post.IsEdited,
		&post.CreatedAt,
		&post.UpdatedAt,
		&post.LastEditedAt,
		&post.RecipientIDs,
	); err != nil {
		return nil, err
	}
	return &post, nil
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recognition-wall/internal/domain"
)

// AttachmentRepository persists attachment metadata. Rows are removed by
// the posts foreign key cascade.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByPosts(ctx context.Context, postIDs []string) (map[string][]domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (post_id, file_name, content_type, url, size_bytes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		attachment.PostID,
		attachment.FileName,
		attachment.ContentType,
		attachment.URL,
		attachment.SizeBytes,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) ListByPosts(ctx context.Context, postIDs []string) (map[string][]domain.Attachment, error) {
	result := make(map[string][]domain.Attachment, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT id, post_id, file_name, content_type, url, size_bytes, created_at
        FROM attachments WHERE post_id = ANY($1::text[]) ORDER BY created_at ASC, id ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, postIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var attachment domain.Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.PostID,
			&attachment.FileName,
			&attachment.ContentType,
			&attachment.URL,
			&attachment.SizeBytes,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result[attachment.PostID] = append(result[attachment.PostID], attachment)
	}
	return result, rows.Err()
}

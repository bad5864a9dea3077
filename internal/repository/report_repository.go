package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recognition-wall/internal/domain"
)

// ReportRepository persists moderation reports. Targets are weak
// references (kind + id) so a resolved report outlives deleted content.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	FindPending(ctx context.Context, reporterID string, target domain.ReportTarget) (*domain.Report, error)
	List(ctx context.Context, filter ReportFilter) ([]domain.Report, error)
	// Transition moves a report out of from. It returns ErrStaleState when
	// the report is no longer in from.
	Transition(ctx context.Context, id string, from domain.ReportStatus, res domain.ReportResolution) (*domain.Report, error)
	// DeleteByTargets removes reports pointing at any of targets, except keepID.
	DeleteByTargets(ctx context.Context, targets []domain.ReportTarget, keepID string) (int64, error)
	Stats(ctx context.Context) (domain.ReportStats, error)
}

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository builds repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

const reportColumns = `id, reporter_id, target_kind, target_id, reason, description, status, created_at,
               resolved_by_id, resolved_at, resolution_notes`

func (r *reportRepository) Create(ctx context.Context, report *domain.Report) error {
	const query = `
        INSERT INTO reports (reporter_id, target_kind, target_id, reason, description, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		report.ReporterID,
		report.Target.Kind,
		report.Target.ID,
		report.Reason,
		report.Description,
		report.Status,
	).Scan(&report.ID, &report.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id=$1`
	return scanReport(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *reportRepository) FindPending(ctx context.Context, reporterID string, target domain.ReportTarget) (*domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports
        WHERE reporter_id=$1 AND target_kind=$2 AND target_id=$3 AND status=$4
        LIMIT 1`
	return scanReport(conn(ctx, r.pool).QueryRow(ctx, query, reporterID, target.Kind, target.ID, domain.ReportStatusPending))
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter) ([]domain.Report, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.TargetKind != nil {
		args = append(args, *filter.TargetKind)
		clauses = append(clauses, fmt.Sprintf("target_kind=$%d", len(args)))
	}
	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`SELECT %s FROM reports WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d`,
		reportColumns, strings.Join(clauses, " AND "), limit)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *report)
	}
	return result, rows.Err()
}

func (r *reportRepository) Transition(ctx context.Context, id string, from domain.ReportStatus, res domain.ReportResolution) (*domain.Report, error) {
	query := `
        UPDATE reports SET status=$1, resolved_by_id=$2, resolved_at=$3, resolution_notes=$4
        WHERE id=$5 AND status=$6
        RETURNING ` + reportColumns
	report, err := scanReport(conn(ctx, r.pool).QueryRow(ctx, query,
		res.Status,
		res.ResolvedByID,
		res.ResolvedAt,
		res.Notes,
		id,
		from,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrStaleState
	}
	return report, err
}

func (r *reportRepository) DeleteByTargets(ctx context.Context, targets []domain.ReportTarget, keepID string) (int64, error) {
	if len(targets) == 0 {
		return 0, nil
	}
	postIDs := []string{}
	commentIDs := []string{}
	for _, target := range targets {
		switch target.Kind {
		case domain.TargetPost:
			postIDs = append(postIDs, target.ID)
		case domain.TargetComment:
			commentIDs = append(commentIDs, target.ID)
		}
	}
	const query = `
        DELETE FROM reports
        WHERE id <> $3
          AND ((target_kind='post' AND target_id = ANY($1::text[]))
            OR (target_kind='comment' AND target_id = ANY($2::text[])))`
	cmd, err := conn(ctx, r.pool).Exec(ctx, query, postIDs, commentIDs, keepID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *reportRepository) Stats(ctx context.Context) (domain.ReportStats, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='pending'),
               COUNT(*) FILTER (WHERE status='resolved'),
               COUNT(*) FILTER (WHERE status='dismissed')
        FROM reports`
	var stats domain.ReportStats
	err := conn(ctx, r.pool).QueryRow(ctx, query).Scan(&stats.Total, &stats.Pending, &stats.Resolved, &stats.Dismissed)
	return stats, err
}

func scanReport(row pgx.Row) (*domain.Report, error) {
	var report domain.Report
	if err := row.Scan(
		&report.ID,
		&report.ReporterID,
		&report.Target.Kind,
		&report.Target.ID,
		&report.Reason,
		&report.Description,
		&report.Status,
		&report.CreatedAt,
		&report.ResolvedByID,
		&report.ResolvedAt,
		&report.ResolutionNotes,
	); err != nil {
		return nil, err
	}
	return &report, nil
}

package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/repository"
)

type reportRepo struct {
	s *Store
}

func (r *reportRepo) Create(ctx context.Context, report *domain.Report) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.users[report.ReporterID]; !ok {
		return repository.ErrNotFound
	}
	if report.Status == domain.ReportStatusPending {
		for _, existing := range r.s.data.reports {
			if existing.ReporterID == report.ReporterID && existing.Target == report.Target && existing.Status == domain.ReportStatusPending {
				return repository.ErrDuplicate
			}
		}
	}
	report.ID = newID()
	report.CreatedAt = r.s.tick()
	put(r.s, r.s.data.reports, report.ID, *report)
	return nil
}

func (r *reportRepo) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	defer r.s.lock(ctx)()
	report, ok := r.s.data.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &report, nil
}

func (r *reportRepo) FindPending(ctx context.Context, reporterID string, target domain.ReportTarget) (*domain.Report, error) {
	defer r.s.lock(ctx)()
	for _, report := range r.s.data.reports {
		if report.ReporterID == reporterID && report.Target == target && report.Status == domain.ReportStatusPending {
			out := report
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *reportRepo) List(ctx context.Context, filter repository.ReportFilter) ([]domain.Report, error) {
	defer r.s.lock(ctx)()
	result := []domain.Report{}
	for _, report := range r.s.data.reports {
		if filter.Status != nil && report.Status != *filter.Status {
			continue
		}
		if filter.TargetKind != nil && report.Target.Kind != *filter.TargetKind {
			continue
		}
		if filter.ReporterID != nil && report.ReporterID != *filter.ReporterID {
			continue
		}
		result = append(result, report)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *reportRepo) Transition(ctx context.Context, id string, from domain.ReportStatus, res domain.ReportResolution) (*domain.Report, error) {
	defer r.s.lock(ctx)()
	report, ok := r.s.data.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if report.Status != from {
		return nil, repository.ErrStaleState
	}
	resolvedBy := res.ResolvedByID
	resolvedAt := res.ResolvedAt.UTC()
	report.Status = res.Status
	report.ResolvedByID = &resolvedBy
	report.ResolvedAt = &resolvedAt
	report.ResolutionNotes = res.Notes
	put(r.s, r.s.data.reports, id, report)
	return &report, nil
}

func (r *reportRepo) DeleteByTargets(ctx context.Context, targets []domain.ReportTarget, keepID string) (int64, error) {
	defer r.s.lock(ctx)()
	wanted := make(map[domain.ReportTarget]struct{}, len(targets))
	for _, target := range targets {
		wanted[target] = struct{}{}
	}
	var removed int64
	for id, report := range r.s.data.reports {
		if id == keepID {
			continue
		}
		if _, ok := wanted[report.Target]; ok {
			remove(r.s, r.s.data.reports, id)
			removed++
		}
	}
	return removed, nil
}

func (r *reportRepo) Stats(ctx context.Context) (domain.ReportStats, error) {
	defer r.s.lock(ctx)()
	var stats domain.ReportStats
	for _, report := range r.s.data.reports {
		stats.Total++
		switch report.Status {
		case domain.ReportStatusPending:
			stats.Pending++
		case domain.ReportStatusResolved:
			stats.Resolved++
		case domain.ReportStatusDismissed:
			stats.Dismissed++
		}
	}
	return stats, nil
}

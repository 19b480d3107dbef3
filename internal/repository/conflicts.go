package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
)

func (r *Repository) ListUnresolvedConflicts(ctx context.Context) ([]*domain.ScheduleConflict, error) {
	query := `
		SELECT id, event_ids, technician_id, description, created_at, resolved_at, resolved_by
		FROM schedule_conflicts
		WHERE resolved_at IS NULL
		ORDER BY created_at DESC
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conflicts := []*domain.ScheduleConflict{}
	for rows.Next() {
		var (
			conflict     domain.ScheduleConflict
			technicianID sql.NullString
			resolvedAt   sql.NullTime
			resolvedBy   sql.NullString
		)
		dst := []any{
			&conflict.ID,
			pq.Array(&conflict.EventIDs),
			&technicianID,
			&conflict.Description,
			&conflict.CreatedAt,
			&resolvedAt,
			&resolvedBy,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		conflict.TechnicianID = nullStringPtr(technicianID)
		conflict.ResolvedAt = nullTimePtr(resolvedAt)
		conflict.ResolvedBy = nullStringPtr(resolvedBy)
		conflicts = append(conflicts, &conflict)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return conflicts, nil
}

// ResolveConflict 只会处理尚未解决的冲突，已解决或不存在的冲突返回 ErrNotFound
func (r *Repository) ResolveConflict(ctx context.Context, id string, actor string, at time.Time) error {
	query := `
		UPDATE schedule_conflicts
		SET resolved_at = $1, resolved_by = $2
		WHERE id = $3 AND resolved_at IS NULL
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, at, actor, id)
	if err != nil {
		return err
	}

	return expectAffected(res, "冲突", id)
}

func (r *Repository) CreateConflict(ctx context.Context, conflict *domain.ScheduleConflict) error {
	query := `
		INSERT INTO schedule_conflicts (id, event_ids, technician_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{conflict.ID, pq.Array(conflict.EventIDs), conflict.TechnicianID, conflict.Description}
	return r.dbpool.QueryRowContext(ctx, query, params...).Scan(&conflict.CreatedAt)
}

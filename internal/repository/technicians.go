package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
)

func (r *Repository) GetTechnician(ctx context.Context, id string) (*domain.Technician, error) {
	query := `
		SELECT name, email, phone, skills, is_active, created_at
		FROM technicians
		WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	technician := &domain.Technician{
		ID: id,
	}

	dst := []any{
		&technician.Name,
		&technician.Email,
		&technician.Phone,
		pq.Array(&technician.Skills),
		&technician.IsActive,
		&technician.CreatedAt,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("技术员 %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	return technician, nil
}

func (r *Repository) GetTechniciansByIDs(ctx context.Context, ids []string) ([]*domain.Technician, error) {
	query := `
		SELECT id, name, email, phone, skills, is_active, created_at
		FROM technicians
		WHERE id = ANY($1)
		ORDER BY name ASC
	`

	return r.queryTechnicians(ctx, query, pq.Array(ids))
}

func (r *Repository) GetAllTechnicians(ctx context.Context) ([]*domain.Technician, error) {
	query := `
		SELECT id, name, email, phone, skills, is_active, created_at
		FROM technicians
		ORDER BY name ASC
	`

	return r.queryTechnicians(ctx, query)
}

func (r *Repository) queryTechnicians(ctx context.Context, query string, args ...any) ([]*domain.Technician, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	technicians := []*domain.Technician{}
	for rows.Next() {
		technician := &domain.Technician{}
		dst := []any{
			&technician.ID,
			&technician.Name,
			&technician.Email,
			&technician.Phone,
			pq.Array(&technician.Skills),
			&technician.IsActive,
			&technician.CreatedAt,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		technicians = append(technicians, technician)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return technicians, nil
}

func (r *Repository) CreateTechnician(ctx context.Context, technician *domain.Technician) error {
	query := `
		INSERT INTO technicians (id, name, email, phone, skills)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING is_active, created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{technician.ID, technician.Name, technician.Email, technician.Phone, pq.Array(technician.Skills)}
	return r.dbpool.QueryRowContext(ctx, query, params...).Scan(&technician.IsActive, &technician.CreatedAt)
}

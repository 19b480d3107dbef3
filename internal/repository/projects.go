package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
)

func (r *Repository) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	query := `
		SELECT name, customer_id, completion_percentage, created_at
		FROM projects
		WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	project := &domain.Project{
		ID: id,
	}
	var customerID sql.NullString

	dst := []any{&project.Name, &customerID, &project.CompletionPercentage, &project.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("项目 %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	project.CustomerID = nullStringPtr(customerID)

	return project, nil
}

func (r *Repository) GetAllProjects(ctx context.Context) ([]*domain.Project, error) {
	query := `
		SELECT id, name, customer_id, completion_percentage, created_at
		FROM projects
		ORDER BY created_at DESC
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []*domain.Project{}
	for rows.Next() {
		project := &domain.Project{}
		var customerID sql.NullString
		if err := rows.Scan(&project.ID, &project.Name, &customerID, &project.CompletionPercentage, &project.CreatedAt); err != nil {
			return nil, err
		}
		project.CustomerID = nullStringPtr(customerID)
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return projects, nil
}

func (r *Repository) CreateProject(ctx context.Context, project *domain.Project) error {
	query := `
		INSERT INTO projects (id, name, customer_id, completion_percentage)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{project.ID, project.Name, project.CustomerID, project.CompletionPercentage}
	return r.dbpool.QueryRowContext(ctx, query, params...).Scan(&project.CreatedAt)
}

// ListMilestones 按截止日期升序返回项目的里程碑
func (r *Repository) ListMilestones(ctx context.Context, projectID string) ([]*domain.Milestone, error) {
	query := `
		SELECT id, title, due_date, completed
		FROM project_milestones
		WHERE project_id = $1
		ORDER BY due_date ASC
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	milestones := []*domain.Milestone{}
	for rows.Next() {
		milestone := &domain.Milestone{
			ProjectID: projectID,
		}
		if err := rows.Scan(&milestone.ID, &milestone.Title, &milestone.DueDate, &milestone.Completed); err != nil {
			return nil, err
		}
		milestones = append(milestones, milestone)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return milestones, nil
}

func (r *Repository) CreateMilestone(ctx context.Context, milestone *domain.Milestone) error {
	query := `
		INSERT INTO project_milestones (id, project_id, title, due_date, completed)
		VALUES ($1, $2, $3, $4, $5)
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{milestone.ID, milestone.ProjectID, milestone.Title, milestone.DueDate, milestone.Completed}
	_, err := r.dbpool.ExecContext(ctx, query, params...)
	return err
}

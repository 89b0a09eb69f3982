package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/launchpad/pkg/billing"
	"github.com/platinummonkey/launchpad/pkg/projects"
)

const projectColumns = `id, user_id, name, industry, team_size, primary_objective, timeline,
	budget_range, technical_level, need_cofounder, preferred_tech_stack, project_description,
	status, base_documents, used_documents, created_at, updated_at`

// Create implements projects.Store
func (s *Store) Create(ctx context.Context, p *projects.Project) (*projects.Project, error) {
	row := s.conns.Primary().QueryRowContext(ctx, `
		INSERT INTO projects (user_id, name, industry, team_size, primary_objective, timeline,
			budget_range, technical_level, need_cofounder, preferred_tech_stack, project_description,
			status, base_documents, used_documents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+projectColumns,
		p.UserID,
		p.Name,
		p.Industry,
		p.TeamSize,
		p.Objective,
		p.Timeline,
		p.BudgetRange,
		p.TechnicalLevel,
		p.NeedCofounder,
		p.TechStack,
		nullString(p.Description),
		p.Status,
		p.BaseDocuments,
		p.UsedDocuments,
		p.CreatedAt,
		p.UpdatedAt,
	)
	created, err := scanProject(row)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("failed to create project %q", p.Name))
	}
	return created, nil
}

// List implements projects.Store
func (s *Store) List(ctx context.Context, userID int64) ([]projects.Project, error) {
	rows, err := s.conns.Primary().QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, classify(err, "failed to list projects")
	}
	defer rows.Close()

	out := make([]projects.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "failed to list projects")
	}
	return out, nil
}

// Get implements projects.Store
func (s *Store) Get(ctx context.Context, userID, projectID int64) (*projects.Project, error) {
	p, err := scanProject(s.conns.Primary().QueryRowContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1 AND user_id = $2
	`, projectID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, billing.NewError(billing.KindNotFound, "project %d not found", projectID)
	} else if err != nil {
		return nil, classify(err, "failed to get project")
	}
	return p, nil
}

// Update implements projects.Store
func (s *Store) Update(ctx context.Context, userID, projectID int64, name, description string, now time.Time) (*projects.Project, error) {
	p, err := scanProject(s.conns.Primary().QueryRowContext(ctx, `
		UPDATE projects
		SET name = $3, project_description = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2
		RETURNING `+projectColumns,
		projectID, userID, name, description, now,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, billing.NewError(billing.KindNotFound, "project %d not found", projectID)
	} else if err != nil {
		return nil, classify(err, "failed to update project")
	}
	return p, nil
}

// Delete implements projects.Store
func (s *Store) Delete(ctx context.Context, userID, projectID int64) error {
	res, err := s.conns.Primary().ExecContext(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return classify(err, "failed to delete project")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err, "failed to delete project")
	}
	if n == 0 {
		return billing.NewError(billing.KindNotFound, "project %d not found", projectID)
	}
	return nil
}

func scanProject(row rowScanner) (*projects.Project, error) {
	var p projects.Project
	var description sql.NullString
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Industry,
		&p.TeamSize,
		&p.Objective,
		&p.Timeline,
		&p.BudgetRange,
		&p.TechnicalLevel,
		&p.NeedCofounder,
		&p.TechStack,
		&description,
		&p.Status,
		&p.BaseDocuments,
		&p.UsedDocuments,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Description = stringPtr(description)
	return &p, nil
}

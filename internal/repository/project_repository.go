package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rerc-review-api/internal/models"
)

const projectColumns = "id, committee_id, code, title, pi_name, pi_affiliation, college_or_unit, proponent_category, approval_start_date, approval_end_date, created_at, updated_at"

// ProjectRepository persists research projects.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs a project repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// List returns projects matching the filter.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	base := "FROM projects WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CommitteeID != "" {
		conditions = append(conditions, fmt.Sprintf("committee_id = $%d", len(args)+1))
		args = append(args, filter.CommitteeID)
	}
	if filter.CollegeOrUnit != "" {
		conditions = append(conditions, fmt.Sprintf("college_or_unit = $%d", len(args)+1))
		args = append(args, filter.CollegeOrUnit)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR title ILIKE $%d OR pi_name ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", projectColumns, base, size, offset)
	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}
	return projects, total, nil
}

// GetByID fetches a project.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf("SELECT %s FROM projects WHERE id = $1", projectColumns)
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		return nil, err
	}
	return &project, nil
}

// Create inserts a project.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	const query = `INSERT INTO projects (id, committee_id, code, title, pi_name, pi_affiliation, college_or_unit, proponent_category, approval_start_date, approval_end_date, created_at, updated_at)
VALUES (:id, :committee_id, :code, :title, :pi_name, :pi_affiliation, :college_or_unit, :proponent_category, :approval_start_date, :approval_end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// Update modifies a project.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now().UTC()
	const query = `UPDATE projects SET committee_id = :committee_id, code = :code, title = :title, pi_name = :pi_name,
pi_affiliation = :pi_affiliation, college_or_unit = :college_or_unit, proponent_category = :proponent_category,
approval_start_date = :approval_start_date, approval_end_date = :approval_end_date, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

// SetApprovalWindow records the effective clearance window of a project.
func (r *ProjectRepository) SetApprovalWindow(ctx context.Context, id string, start, end *time.Time) error {
	const query = `UPDATE projects SET approval_start_date = $1, approval_end_date = $2, updated_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, start, end, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("set approval window: %w", err)
	}
	return nil
}

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

// CommitteeRepository persists review committees.
type CommitteeRepository struct {
	db *sqlx.DB
}

// NewCommitteeRepository constructs a committee repository.
func NewCommitteeRepository(db *sqlx.DB) *CommitteeRepository {
	return &CommitteeRepository{db: db}
}

// List returns committees matching the filter.
func (r *CommitteeRepository) List(ctx context.Context, filter models.CommitteeFilter) ([]models.Committee, int, error) {
	base := "FROM committees WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
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

	query := fmt.Sprintf("SELECT id, code, name, description, is_active, created_at, updated_at %s ORDER BY code ASC LIMIT %d OFFSET %d", base, size, offset)
	var committees []models.Committee
	if err := r.db.SelectContext(ctx, &committees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list committees: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count committees: %w", err)
	}
	return committees, total, nil
}

// GetByID fetches a committee.
func (r *CommitteeRepository) GetByID(ctx context.Context, id string) (*models.Committee, error) {
	const query = `SELECT id, code, name, description, is_active, created_at, updated_at FROM committees WHERE id = $1`
	var committee models.Committee
	if err := r.db.GetContext(ctx, &committee, query, id); err != nil {
		return nil, err
	}
	return &committee, nil
}

// Create inserts a committee.
func (r *CommitteeRepository) Create(ctx context.Context, committee *models.Committee) error {
	if committee.ID == "" {
		committee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	committee.CreatedAt = now
	committee.UpdatedAt = now
	const query = `INSERT INTO committees (id, code, name, description, is_active, created_at, updated_at)
VALUES (:id, :code, :name, :description, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, committee); err != nil {
		return fmt.Errorf("create committee: %w", err)
	}
	return nil
}

// Update modifies a committee.
func (r *CommitteeRepository) Update(ctx context.Context, committee *models.Committee) error {
	committee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE committees SET code = :code, name = :name, description = :description, is_active = :is_active, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, committee); err != nil {
		return fmt.Errorf("update committee: %w", err)
	}
	return nil
}

// Delete removes a committee.
func (r *CommitteeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM committees WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete committee: %w", err)
	}
	return nil
}

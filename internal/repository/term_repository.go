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

const termColumns = "id, academic_year, term, start_date, end_date, created_at, updated_at"

// TermRepository persists academic term windows.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository constructs a term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// List returns term windows matching the filter.
func (r *TermRepository) List(ctx context.Context, filter models.AcademicTermFilter) ([]models.AcademicTerm, int, error) {
	base := "FROM academic_terms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Term != nil {
		conditions = append(conditions, fmt.Sprintf("term = $%d", len(args)+1))
		args = append(args, *filter.Term)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY academic_year DESC, term ASC LIMIT %d OFFSET %d", termColumns, base, size, offset)
	var terms []models.AcademicTerm
	if err := r.db.SelectContext(ctx, &terms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list academic terms: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count academic terms: %w", err)
	}
	return terms, total, nil
}

// ListByAcademicYear returns the term windows of one academic year in
// term order.
func (r *TermRepository) ListByAcademicYear(ctx context.Context, academicYear string) ([]models.AcademicTerm, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_terms WHERE academic_year = $1 ORDER BY term ASC", termColumns)
	var terms []models.AcademicTerm
	if err := r.db.SelectContext(ctx, &terms, query, academicYear); err != nil {
		return nil, fmt.Errorf("list terms for academic year: %w", err)
	}
	return terms, nil
}

// GetByID fetches a term window.
func (r *TermRepository) GetByID(ctx context.Context, id string) (*models.AcademicTerm, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_terms WHERE id = $1", termColumns)
	var term models.AcademicTerm
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// Create inserts a term window.
func (r *TermRepository) Create(ctx context.Context, term *models.AcademicTerm) error {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	term.CreatedAt = now
	term.UpdatedAt = now
	const query = `INSERT INTO academic_terms (id, academic_year, term, start_date, end_date, created_at, updated_at)
VALUES (:id, :academic_year, :term, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("create academic term: %w", err)
	}
	return nil
}

// Update modifies a term window.
func (r *TermRepository) Update(ctx context.Context, term *models.AcademicTerm) error {
	term.UpdatedAt = time.Now().UTC()
	const query = `UPDATE academic_terms SET academic_year = :academic_year, term = :term, start_date = :start_date,
end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("update academic term: %w", err)
	}
	return nil
}

// Delete removes a term window.
func (r *TermRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM academic_terms WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete academic term: %w", err)
	}
	return nil
}

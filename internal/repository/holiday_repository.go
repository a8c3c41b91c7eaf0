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

// HolidayRepository persists the non-working-day calendar.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs a holiday repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// List returns holidays matching the filter.
func (r *HolidayRepository) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, int, error) {
	base := "FROM holidays WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("date < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, date, name, created_at, updated_at %s ORDER BY date ASC LIMIT %d OFFSET %d", base, size, offset)
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list holidays: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count holidays: %w", err)
	}
	return holidays, total, nil
}

// ListDates returns the holiday dates falling within [from, to).
func (r *HolidayRepository) ListDates(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	const query = `SELECT date FROM holidays WHERE date >= $1 AND date < $2 ORDER BY date ASC`
	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, from, to); err != nil {
		return nil, fmt.Errorf("list holiday dates: %w", err)
	}
	return dates, nil
}

// Create inserts a holiday.
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	holiday.CreatedAt = now
	holiday.UpdatedAt = now
	const query = `INSERT INTO holidays (id, date, name, created_at, updated_at)
VALUES (:id, :date, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// Update modifies a holiday.
func (r *HolidayRepository) Update(ctx context.Context, holiday *models.Holiday) error {
	holiday.UpdatedAt = time.Now().UTC()
	const query = `UPDATE holidays SET date = :date, name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		return fmt.Errorf("update holiday: %w", err)
	}
	return nil
}

// Delete removes a holiday.
func (r *HolidayRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	return nil
}

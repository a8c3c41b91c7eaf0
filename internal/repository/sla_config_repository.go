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

const slaConfigColumns = "id, committee_id, stage, review_type, working_days, is_active, description, created_at, updated_at"

// SLAConfigRepository persists working-day targets.
type SLAConfigRepository struct {
	db *sqlx.DB
}

// NewSLAConfigRepository constructs an SLA config repository.
func NewSLAConfigRepository(db *sqlx.DB) *SLAConfigRepository {
	return &SLAConfigRepository{db: db}
}

// ListByCommittee returns SLA targets for a committee, oldest first so a
// duplicate active triple resolves deterministically to the row created
// first.
func (r *SLAConfigRepository) ListByCommittee(ctx context.Context, committeeID string, activeOnly bool) ([]models.SLAConfig, error) {
	where := []string{"committee_id = $1"}
	args := []interface{}{committeeID}
	if activeOnly {
		where = append(where, "is_active = TRUE")
	}
	query := fmt.Sprintf("SELECT %s FROM sla_configs WHERE %s ORDER BY created_at ASC", slaConfigColumns, strings.Join(where, " AND "))
	var configs []models.SLAConfig
	if err := r.db.SelectContext(ctx, &configs, query, args...); err != nil {
		return nil, fmt.Errorf("list sla configs: %w", err)
	}
	return configs, nil
}

// GetByID fetches one SLA target.
func (r *SLAConfigRepository) GetByID(ctx context.Context, id string) (*models.SLAConfig, error) {
	query := fmt.Sprintf("SELECT %s FROM sla_configs WHERE id = $1", slaConfigColumns)
	var config models.SLAConfig
	if err := r.db.GetContext(ctx, &config, query, id); err != nil {
		return nil, err
	}
	return &config, nil
}

// Create inserts an SLA target.
func (r *SLAConfigRepository) Create(ctx context.Context, config *models.SLAConfig) error {
	if config.ID == "" {
		config.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	config.CreatedAt = now
	config.UpdatedAt = now
	const query = `INSERT INTO sla_configs (id, committee_id, stage, review_type, working_days, is_active, description, created_at, updated_at)
VALUES (:id, :committee_id, :stage, :review_type, :working_days, :is_active, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, config); err != nil {
		return fmt.Errorf("create sla config: %w", err)
	}
	return nil
}

// Update modifies an SLA target.
func (r *SLAConfigRepository) Update(ctx context.Context, config *models.SLAConfig) error {
	config.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sla_configs SET stage = :stage, review_type = :review_type, working_days = :working_days,
is_active = :is_active, description = :description, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, config); err != nil {
		return fmt.Errorf("update sla config: %w", err)
	}
	return nil
}

// Delete removes an SLA target.
func (r *SLAConfigRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sla_configs WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete sla config: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fitclub-crm/fitclub-api/internal/models"
)

// TariffRepository manages persistence for tariff plans.
type TariffRepository struct {
	db *sqlx.DB
}

// NewTariffRepository constructs a TariffRepository.
func NewTariffRepository(db *sqlx.DB) *TariffRepository {
	return &TariffRepository{db: db}
}

const tariffColumns = `id, name, description, price, duration_days, workouts_per_week, is_active, created_at`

// List returns tariff plans, optionally only active ones.
func (r *TariffRepository) List(ctx context.Context, activeOnly bool) ([]models.TariffPlan, error) {
	query := fmt.Sprintf("SELECT %s FROM tariff_plans", tariffColumns)
	if activeOnly {
		query += " WHERE is_active = true"
	}
	query += " ORDER BY price"

	var plans []models.TariffPlan
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("list tariff plans: %w", err)
	}
	return plans, nil
}

// FindByID fetches one tariff plan.
func (r *TariffRepository) FindByID(ctx context.Context, id int64) (*models.TariffPlan, error) {
	query := fmt.Sprintf("SELECT %s FROM tariff_plans WHERE id = $1", tariffColumns)
	var plan models.TariffPlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ExistsByName checks name uniqueness optionally excluding an id.
func (r *TariffRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM tariff_plans WHERE LOWER(name) = LOWER($1)"
	args := []interface{}{name}
	if excludeID > 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check tariff name: %w", err)
	}
	return true, nil
}

// Create inserts a tariff plan and fills in the generated id.
func (r *TariffRepository) Create(ctx context.Context, plan *models.TariffPlan) error {
	plan.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO tariff_plans (name, description, price, duration_days, workouts_per_week, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.GetContext(ctx, &plan.ID, query,
		plan.Name, plan.Description, plan.Price, plan.DurationDays, plan.WorkoutsPerWeek, plan.Active, plan.CreatedAt); err != nil {
		return fmt.Errorf("create tariff plan: %w", err)
	}
	return nil
}

// Update modifies an existing tariff plan.
func (r *TariffRepository) Update(ctx context.Context, plan *models.TariffPlan) error {
	const query = `UPDATE tariff_plans SET name = :name, description = :description, price = :price,
        duration_days = :duration_days, workouts_per_week = :workouts_per_week, is_active = :is_active WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("update tariff plan: %w", err)
	}
	return nil
}

// Deactivate retires a tariff plan without deleting history.
func (r *TariffRepository) Deactivate(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE tariff_plans SET is_active = false WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deactivate tariff plan: %w", err)
	}
	return nil
}

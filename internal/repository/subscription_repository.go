package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fitclub-crm/fitclub-api/internal/models"
)

// SubscriptionRepository manages persistence for subscriptions.
type SubscriptionRepository struct {
	db *sqlx.DB
}

// NewSubscriptionRepository constructs a SubscriptionRepository.
func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// List returns subscriptions matching the filter with tariff context.
func (r *SubscriptionRepository) List(ctx context.Context, filter models.SubscriptionFilter) ([]models.SubscriptionDetail, int, error) {
	base := `FROM subscriptions s LEFT JOIN tariff_plans tp ON tp.id = s.tariff_plan_id`
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ParticipantID > 0 {
		conditions = append(conditions, fmt.Sprintf("s.participant_id = $%d", len(args)+1))
		args = append(args, filter.ParticipantID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.participant_id, s.tariff_plan_id, s.start_date, s.end_date, s.status, s.auto_renew,
        s.created_at, s.updated_at, tp.name AS tariff_name, tp.price AS tariff_price
        %s ORDER BY s.start_date DESC LIMIT %d OFFSET %d`, base, size, offset)

	var subs []models.SubscriptionDetail
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return subs, total, nil
}

// ListByParticipant returns all subscriptions for one participant, newest
// start date first, with tariff context for cost aggregation.
func (r *SubscriptionRepository) ListByParticipant(ctx context.Context, participantID int64) ([]models.SubscriptionDetail, error) {
	const query = `SELECT s.id, s.participant_id, s.tariff_plan_id, s.start_date, s.end_date, s.status, s.auto_renew,
        s.created_at, s.updated_at, tp.name AS tariff_name, tp.price AS tariff_price
        FROM subscriptions s
        LEFT JOIN tariff_plans tp ON tp.id = s.tariff_plan_id
        WHERE s.participant_id = $1
        ORDER BY s.start_date DESC, s.id DESC`

	var subs []models.SubscriptionDetail
	if err := r.db.SelectContext(ctx, &subs, query, participantID); err != nil {
		return nil, fmt.Errorf("list participant subscriptions: %w", err)
	}
	return subs, nil
}

// FindByID fetches one subscription.
func (r *SubscriptionRepository) FindByID(ctx context.Context, id int64) (*models.Subscription, error) {
	const query = `SELECT id, participant_id, tariff_plan_id, start_date, end_date, status, auto_renew, created_at, updated_at
        FROM subscriptions WHERE id = $1`
	var sub models.Subscription
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Create inserts a subscription and fills in the generated id.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	const query = `INSERT INTO subscriptions (participant_id, tariff_plan_id, start_date, end_date, status, auto_renew, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &sub.ID, query,
		sub.ParticipantID, sub.TariffPlanID, sub.StartDate, sub.EndDate, sub.Status, sub.AutoRenew,
		sub.CreatedAt, sub.UpdatedAt); err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// Update modifies an existing subscription.
func (r *SubscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subscriptions SET tariff_plan_id = :tariff_plan_id, start_date = :start_date, end_date = :end_date,
        status = :status, auto_renew = :auto_renew, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return nil
}

// Delete removes a subscription record.
func (r *SubscriptionRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fitclub-crm/fitclub-api/internal/models"
)

// PaymentRepository manages persistence for payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, participant_id, subscription_id, amount, payment_date, payment_method, purpose, status, notes, created_at`

// List returns payments matching the filter.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	base := "FROM payments"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ParticipantID > 0 {
		conditions = append(conditions, fmt.Sprintf("participant_id = $%d", len(args)+1))
		args = append(args, filter.ParticipantID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY payment_date DESC, id DESC LIMIT %d OFFSET %d",
		paymentColumns, base, size, offset)

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// ListByParticipant returns every payment for one participant, newest
// first. Callers decide how many to display; the totals need them all.
func (r *PaymentRepository) ListByParticipant(ctx context.Context, participantID int64) ([]models.Payment, error) {
	query := fmt.Sprintf("SELECT %s FROM payments WHERE participant_id = $1 ORDER BY payment_date DESC, id DESC", paymentColumns)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, participantID); err != nil {
		return nil, fmt.Errorf("list participant payments: %w", err)
	}
	return payments, nil
}

// FindByID fetches one payment.
func (r *PaymentRepository) FindByID(ctx context.Context, id int64) (*models.Payment, error) {
	query := fmt.Sprintf("SELECT %s FROM payments WHERE id = $1", paymentColumns)
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Create inserts a payment and fills in the generated id.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	payment.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO payments (participant_id, subscription_id, amount, payment_date, payment_method, purpose, status, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.GetContext(ctx, &payment.ID, query,
		payment.ParticipantID, payment.SubscriptionID, payment.Amount, payment.PaymentDate,
		payment.PaymentMethod, payment.Purpose, payment.Status, payment.Notes, payment.CreatedAt); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// UpdateStatus changes only the status of a payment record.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE payments SET status = $2 WHERE id = $1`, id, status); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

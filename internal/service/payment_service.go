package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fitclub-crm/fitclub-api/internal/models"
	appErrors "github.com/fitclub-crm/fitclub-api/pkg/errors"
)

type paymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error)
	FindByID(ctx context.Context, id int64) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// CreatePaymentRequest holds payload for recording payments.
type CreatePaymentRequest struct {
	ParticipantID  int64      `json:"participant_id" validate:"required,gt=0"`
	SubscriptionID *int64     `json:"subscription_id"`
	Amount         float64    `json:"amount" validate:"required,gt=0"`
	PaymentDate    *time.Time `json:"payment_date"`
	PaymentMethod  string     `json:"payment_method" validate:"required"`
	Purpose        string     `json:"purpose" validate:"required"`
	Status         string     `json:"status"`
	Notes          *string    `json:"notes"`
}

// PaymentService handles payment use-cases. Payments are append-only;
// only their status can change afterwards.
type PaymentService struct {
	repo         paymentRepository
	participants subscriptionParticipantRepository
	changes      *ChangeLogService
	cards        cardInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewPaymentService constructs the payment service.
func NewPaymentService(repo paymentRepository, participants subscriptionParticipantRepository, changes *ChangeLogService, cards cardInvalidator, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, participants: participants, changes: changes, cards: cards, validator: validate, logger: logger}
}

// List returns payments and pagination metadata.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, *models.Pagination, error) {
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return payments, pagination, nil
}

// Get returns one payment.
func (s *PaymentService) Get(ctx context.Context, id int64) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// Create records a payment.
func (s *PaymentService) Create(ctx context.Context, actorID *int64, req CreatePaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if _, err := s.participants.FindByID(ctx, req.ParticipantID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}

	paymentDate := time.Now().UTC()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}
	status := req.Status
	if status == "" {
		status = models.PaymentStatusCompleted
	}

	payment := &models.Payment{
		ParticipantID:  req.ParticipantID,
		SubscriptionID: req.SubscriptionID,
		Amount:         req.Amount,
		PaymentDate:    paymentDate,
		PaymentMethod:  req.PaymentMethod,
		Purpose:        req.Purpose,
		Status:         status,
		Notes:          req.Notes,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}
	s.changes.Record(ctx, actorID, "payments", payment.ID, models.ChangeActionCreate, payment)
	s.invalidateCard(ctx, payment.ParticipantID)
	return payment, nil
}

// UpdateStatus transitions a payment to another status.
func (s *PaymentService) UpdateStatus(ctx context.Context, actorID *int64, id int64, status string) (*models.Payment, error) {
	switch status {
	case models.PaymentStatusCompleted, models.PaymentStatusPending, models.PaymentStatusFailed, models.PaymentStatusRefunded:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment status")
	}
	payment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment status")
	}
	payment.Status = status
	s.changes.Record(ctx, actorID, "payments", id, models.ChangeActionUpdate, map[string]string{"status": status})
	s.invalidateCard(ctx, payment.ParticipantID)
	return payment, nil
}

func (s *PaymentService) invalidateCard(ctx context.Context, participantID int64) {
	if s.cards == nil {
		return
	}
	s.cards.Invalidate(ctx, participantID)
}

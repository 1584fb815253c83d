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

type subscriptionRepository interface {
	List(ctx context.Context, filter models.SubscriptionFilter) ([]models.SubscriptionDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.Subscription, error)
	Create(ctx context.Context, sub *models.Subscription) error
	Update(ctx context.Context, sub *models.Subscription) error
	Delete(ctx context.Context, id int64) error
}

type subscriptionTariffRepository interface {
	FindByID(ctx context.Context, id int64) (*models.TariffPlan, error)
}

type subscriptionParticipantRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Participant, error)
}

// CreateSubscriptionRequest holds payload for creating subscriptions.
type CreateSubscriptionRequest struct {
	ParticipantID int64     `json:"participant_id" validate:"required,gt=0"`
	TariffPlanID  int64     `json:"tariff_plan_id" validate:"required,gt=0"`
	StartDate     time.Time `json:"start_date" validate:"required"`
	EndDate       time.Time `json:"end_date"`
	Status        string    `json:"status"`
	AutoRenew     bool      `json:"auto_renew"`
}

// UpdateSubscriptionRequest holds payload for updating subscriptions.
type UpdateSubscriptionRequest struct {
	TariffPlanID int64     `json:"tariff_plan_id" validate:"required,gt=0"`
	StartDate    time.Time `json:"start_date" validate:"required"`
	EndDate      time.Time `json:"end_date"`
	Status       string    `json:"status" validate:"required,oneof=active pending expired cancelled"`
	AutoRenew    bool      `json:"auto_renew"`
}

// SubscriptionService handles subscription use-cases.
type SubscriptionService struct {
	repo         subscriptionRepository
	tariffs      subscriptionTariffRepository
	participants subscriptionParticipantRepository
	changes      *ChangeLogService
	cards        cardInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewSubscriptionService constructs the subscription service.
func NewSubscriptionService(
	repo subscriptionRepository,
	tariffs subscriptionTariffRepository,
	participants subscriptionParticipantRepository,
	changes *ChangeLogService,
	cards cardInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *SubscriptionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionService{
		repo: repo, tariffs: tariffs, participants: participants,
		changes: changes, cards: cards, validator: validate, logger: logger,
	}
}

// List returns subscriptions and pagination metadata.
func (s *SubscriptionService) List(ctx context.Context, filter models.SubscriptionFilter) ([]models.SubscriptionDetail, *models.Pagination, error) {
	subs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subscriptions")
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
	return subs, pagination, nil
}

// Get returns one subscription.
func (s *SubscriptionService) Get(ctx context.Context, id int64) (*models.Subscription, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subscription not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subscription")
	}
	return sub, nil
}

// Create registers a subscription. The end date defaults to the tariff
// duration when omitted.
func (s *SubscriptionService) Create(ctx context.Context, actorID *int64, req CreateSubscriptionRequest) (*models.Subscription, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subscription payload")
	}

	if _, err := s.participants.FindByID(ctx, req.ParticipantID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}

	tariff, err := s.tariffs.FindByID(ctx, req.TariffPlanID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tariff plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tariff plan")
	}

	endDate := req.EndDate
	if endDate.IsZero() {
		endDate = req.StartDate.AddDate(0, 0, tariff.DurationDays)
	}
	status := req.Status
	if status == "" {
		status = models.SubscriptionStatusPending
	}

	sub := &models.Subscription{
		ParticipantID: req.ParticipantID,
		TariffPlanID:  req.TariffPlanID,
		StartDate:     req.StartDate,
		EndDate:       endDate,
		Status:        status,
		AutoRenew:     req.AutoRenew,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subscription")
	}
	s.changes.Record(ctx, actorID, "subscriptions", sub.ID, models.ChangeActionCreate, sub)
	s.invalidateCard(ctx, sub.ParticipantID)
	return sub, nil
}

// Update modifies an existing subscription.
func (s *SubscriptionService) Update(ctx context.Context, actorID *int64, id int64, req UpdateSubscriptionRequest) (*models.Subscription, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subscription payload")
	}
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sub.TariffPlanID = req.TariffPlanID
	sub.StartDate = req.StartDate
	if !req.EndDate.IsZero() {
		sub.EndDate = req.EndDate
	}
	sub.Status = req.Status
	sub.AutoRenew = req.AutoRenew

	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subscription")
	}
	s.changes.Record(ctx, actorID, "subscriptions", sub.ID, models.ChangeActionUpdate, sub)
	s.invalidateCard(ctx, sub.ParticipantID)
	return sub, nil
}

// Delete removes a subscription.
func (s *SubscriptionService) Delete(ctx context.Context, actorID *int64, id int64) error {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subscription")
	}
	s.changes.Record(ctx, actorID, "subscriptions", id, models.ChangeActionDelete, nil)
	s.invalidateCard(ctx, sub.ParticipantID)
	return nil
}

func (s *SubscriptionService) invalidateCard(ctx context.Context, participantID int64) {
	if s.cards == nil {
		return
	}
	s.cards.Invalidate(ctx, participantID)
}

package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fitclub-crm/fitclub-api/internal/models"
	appErrors "github.com/fitclub-crm/fitclub-api/pkg/errors"
)

type tariffRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.TariffPlan, error)
	FindByID(ctx context.Context, id int64) (*models.TariffPlan, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, plan *models.TariffPlan) error
	Update(ctx context.Context, plan *models.TariffPlan) error
	Deactivate(ctx context.Context, id int64) error
}

// SaveTariffRequest holds payload for creating or updating tariff plans.
type SaveTariffRequest struct {
	Name            string  `json:"name" validate:"required"`
	Description     *string `json:"description"`
	Price           float64 `json:"price" validate:"required,gt=0"`
	DurationDays    int     `json:"duration_days" validate:"required,gt=0"`
	WorkoutsPerWeek *int    `json:"workouts_per_week" validate:"omitempty,gt=0"`
	Active          bool    `json:"is_active"`
}

// TariffService handles tariff plan use-cases.
type TariffService struct {
	repo      tariffRepository
	changes   *ChangeLogService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTariffService constructs the tariff service.
func NewTariffService(repo tariffRepository, changes *ChangeLogService, validate *validator.Validate, logger *zap.Logger) *TariffService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TariffService{repo: repo, changes: changes, validator: validate, logger: logger}
}

// List returns tariff plans.
func (s *TariffService) List(ctx context.Context, activeOnly bool) ([]models.TariffPlan, error) {
	plans, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tariff plans")
	}
	return plans, nil
}

// Get returns one tariff plan.
func (s *TariffService) Get(ctx context.Context, id int64) (*models.TariffPlan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tariff plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tariff plan")
	}
	return plan, nil
}

// Create registers a tariff plan. Duplicate names are a conflict.
func (s *TariffService) Create(ctx context.Context, actorID *int64, req SaveTariffRequest) (*models.TariffPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tariff payload")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate tariff name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "tariff name already used")
	}

	plan := &models.TariffPlan{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DurationDays:    req.DurationDays,
		WorkoutsPerWeek: req.WorkoutsPerWeek,
		Active:          true,
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tariff plan")
	}
	s.changes.Record(ctx, actorID, "tariff_plans", plan.ID, models.ChangeActionCreate, plan)
	return plan, nil
}

// Update modifies an existing tariff plan.
func (s *TariffService) Update(ctx context.Context, actorID *int64, id int64, req SaveTariffRequest) (*models.TariffPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tariff payload")
	}
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate tariff name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "tariff name already used")
	}

	plan.Name = req.Name
	plan.Description = req.Description
	plan.Price = req.Price
	plan.DurationDays = req.DurationDays
	plan.WorkoutsPerWeek = req.WorkoutsPerWeek
	plan.Active = req.Active

	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tariff plan")
	}
	s.changes.Record(ctx, actorID, "tariff_plans", plan.ID, models.ChangeActionUpdate, plan)
	return plan, nil
}

// Deactivate retires a tariff plan. History referencing it stays intact.
func (s *TariffService) Deactivate(ctx context.Context, actorID *int64, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate tariff plan")
	}
	s.changes.Record(ctx, actorID, "tariff_plans", id, models.ChangeActionDelete, nil)
	return nil
}

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

type equipmentRepository interface {
	List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, int, error)
	FindByID(ctx context.Context, id int64) (*models.Equipment, error)
	Create(ctx context.Context, item *models.Equipment) error
	Update(ctx context.Context, item *models.Equipment) error
	Delete(ctx context.Context, id int64) error
	FindRentalByID(ctx context.Context, id int64) (*models.EquipmentRental, error)
	CreateRental(ctx context.Context, rental *models.EquipmentRental) error
	UpdateRental(ctx context.Context, rental *models.EquipmentRental) error
	ListRentalsByParticipant(ctx context.Context, participantID int64) ([]models.EquipmentRental, error)
}

// SaveEquipmentRequest holds payload for creating or updating equipment.
type SaveEquipmentRequest struct {
	Name                string     `json:"name" validate:"required"`
	Type                string     `json:"type" validate:"required"`
	Size                *string    `json:"size"`
	Condition           *string    `json:"condition"`
	PurchaseDate        *time.Time `json:"purchase_date"`
	PurchasePrice       *float64   `json:"purchase_price"`
	LastMaintenanceDate *time.Time `json:"last_maintenance_date"`
	NextMaintenanceDate *time.Time `json:"next_maintenance_date"`
	Notes               *string    `json:"notes"`
}

// RentEquipmentRequest holds payload for renting out equipment.
type RentEquipmentRequest struct {
	ParticipantID int64      `json:"participant_id" validate:"required,gt=0"`
	EquipmentID   int64      `json:"equipment_id" validate:"required,gt=0"`
	RentalDate    *time.Time `json:"rental_date"`
	ReturnDate    time.Time  `json:"return_date" validate:"required"`
	Cost          *float64   `json:"cost"`
	Notes         *string    `json:"notes"`
}

// EquipmentService handles equipment inventory and rentals.
type EquipmentService struct {
	repo         equipmentRepository
	participants trainingParticipantRepository
	changes      *ChangeLogService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewEquipmentService constructs the equipment service.
func NewEquipmentService(repo equipmentRepository, participants trainingParticipantRepository, changes *ChangeLogService, validate *validator.Validate, logger *zap.Logger) *EquipmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EquipmentService{repo: repo, participants: participants, changes: changes, validator: validate, logger: logger}
}

// List returns equipment and pagination metadata.
func (s *EquipmentService) List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list equipment")
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
	return items, pagination, nil
}

// Get returns one equipment item.
func (s *EquipmentService) Get(ctx context.Context, id int64) (*models.Equipment, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "equipment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load equipment")
	}
	return item, nil
}

// Create registers an equipment item.
func (s *EquipmentService) Create(ctx context.Context, actorID *int64, req SaveEquipmentRequest) (*models.Equipment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid equipment payload")
	}
	item := &models.Equipment{
		Name:                req.Name,
		Type:                req.Type,
		Size:                req.Size,
		Condition:           req.Condition,
		PurchaseDate:        req.PurchaseDate,
		PurchasePrice:       req.PurchasePrice,
		LastMaintenanceDate: req.LastMaintenanceDate,
		NextMaintenanceDate: req.NextMaintenanceDate,
		Notes:               req.Notes,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create equipment")
	}
	s.changes.Record(ctx, actorID, "equipment", item.ID, models.ChangeActionCreate, item)
	return item, nil
}

// Update modifies an existing equipment item.
func (s *EquipmentService) Update(ctx context.Context, actorID *int64, id int64, req SaveEquipmentRequest) (*models.Equipment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid equipment payload")
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Name = req.Name
	item.Type = req.Type
	item.Size = req.Size
	item.Condition = req.Condition
	item.PurchaseDate = req.PurchaseDate
	item.PurchasePrice = req.PurchasePrice
	item.LastMaintenanceDate = req.LastMaintenanceDate
	item.NextMaintenanceDate = req.NextMaintenanceDate
	item.Notes = req.Notes

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update equipment")
	}
	s.changes.Record(ctx, actorID, "equipment", item.ID, models.ChangeActionUpdate, item)
	return item, nil
}

// Delete removes an equipment record.
func (s *EquipmentService) Delete(ctx context.Context, actorID *int64, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete equipment")
	}
	s.changes.Record(ctx, actorID, "equipment", id, models.ChangeActionDelete, nil)
	return nil
}

// Rent opens an equipment rental.
func (s *EquipmentService) Rent(ctx context.Context, actorID *int64, req RentEquipmentRequest) (*models.EquipmentRental, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rental payload")
	}
	if _, err := s.Get(ctx, req.EquipmentID); err != nil {
		return nil, err
	}
	if _, err := s.participants.FindByID(ctx, req.ParticipantID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}

	rentalDate := time.Now().UTC()
	if req.RentalDate != nil {
		rentalDate = *req.RentalDate
	}
	rental := &models.EquipmentRental{
		ParticipantID: req.ParticipantID,
		EquipmentID:   req.EquipmentID,
		RentalDate:    rentalDate,
		ReturnDate:    req.ReturnDate,
		Cost:          req.Cost,
		Status:        "active",
		Notes:         req.Notes,
	}
	if err := s.repo.CreateRental(ctx, rental); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rental")
	}
	s.changes.Record(ctx, actorID, "equipment_rentals", rental.ID, models.ChangeActionCreate, rental)
	return rental, nil
}

// Return closes an equipment rental.
func (s *EquipmentService) Return(ctx context.Context, actorID *int64, rentalID int64) (*models.EquipmentRental, error) {
	rental, err := s.repo.FindRentalByID(ctx, rentalID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rental not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rental")
	}
	now := time.Now().UTC()
	rental.ActualReturnDate = &now
	rental.Status = "returned"
	if err := s.repo.UpdateRental(ctx, rental); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close rental")
	}
	s.changes.Record(ctx, actorID, "equipment_rentals", rental.ID, models.ChangeActionUpdate, rental)
	return rental, nil
}

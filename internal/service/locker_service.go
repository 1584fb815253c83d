package service

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fitclub-crm/fitclub-api/internal/dto"
	"github.com/fitclub-crm/fitclub-api/internal/models"
	appErrors "github.com/fitclub-crm/fitclub-api/pkg/errors"
)

type lockerRepository interface {
	ListLockers(ctx context.Context, filter models.LockerFilter) ([]models.Locker, error)
	FindLockerByID(ctx context.Context, id int64) (*models.Locker, error)
	ExistsByNumber(ctx context.Context, number string, excludeID int64) (bool, error)
	CreateLocker(ctx context.Context, locker *models.Locker) error
	UpdateLocker(ctx context.Context, locker *models.Locker) error
	ListOccupyingRentals(ctx context.Context) ([]models.LockerRental, error)
	ListOccupyingRentalsByLocker(ctx context.Context, lockerID int64) ([]models.LockerRental, error)
	FindRentalByID(ctx context.Context, id int64) (*models.LockerRental, error)
	CreateRental(ctx context.Context, rental *models.LockerRental) error
	UpdateRental(ctx context.Context, rental *models.LockerRental) error
}

type lockerParticipantRepository interface {
	FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Participant, error)
	ListAvailableForLocker(ctx context.Context) ([]models.Participant, error)
}

// CreateLockerRequest holds payload for creating lockers.
type CreateLockerRequest struct {
	Number            string   `json:"number" validate:"required"`
	Zone              *string  `json:"zone"`
	Condition         *string  `json:"condition"`
	MonthlyRentalCost *float64 `json:"monthly_rental_cost"`
	Notes             *string  `json:"notes"`
}

// UpdateLockerRequest holds the partial update payload for lockers. Only
// these five fields are mutable. String fields arrive as raw values so an
// explicit empty string can be normalized to null instead of stored.
type UpdateLockerRequest struct {
	Number            *string `json:"number"`
	Zone              *string `json:"zone"`
	Condition         *string `json:"condition"`
	MonthlyRentalCost *string `json:"monthly_rental_cost"`
	Notes             *string `json:"notes"`
}

// LockerService derives locker occupancy and handles locker mutations.
// A locker row never stores its status; every read recomputes it from the
// rental records.
type LockerService struct {
	repo         lockerRepository
	participants lockerParticipantRepository
	changes      *ChangeLogService
	cards        cardInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewLockerService constructs the locker service.
func NewLockerService(repo lockerRepository, participants lockerParticipantRepository, changes *ChangeLogService, cards cardInvalidator, validate *validator.Validate, logger *zap.Logger) *LockerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LockerService{repo: repo, participants: participants, changes: changes, cards: cards, validator: validate, logger: logger}
}

// List returns locker projections with derived status. The status filter
// is applied after derivation, never pushed into storage.
func (s *LockerService) List(ctx context.Context, filter models.LockerFilter) ([]dto.LockerView, error) {
	lockers, err := s.repo.ListLockers(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lockers")
	}

	rentals, err := s.repo.ListOccupyingRentals(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locker rentals")
	}
	occupying := s.resolveOccupancy(rentals)

	participantIDs := make([]int64, 0, len(occupying))
	for _, rental := range occupying {
		participantIDs = append(participantIDs, rental.ParticipantID)
	}
	occupants, err := s.participants.FindByIDs(ctx, participantIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locker occupants")
	}

	views := make([]dto.LockerView, 0, len(lockers))
	for _, locker := range lockers {
		view := dto.LockerView{Locker: locker, Status: models.LockerStatusAvailable}
		if rental, ok := occupying[locker.ID]; ok {
			view.Status = models.LockerStatusOccupied
			r := rental
			view.Rental = &r
			if occupant, ok := occupants[rental.ParticipantID]; ok {
				o := occupant
				view.Occupant = &o
			}
		}
		if filter.Status != "" && view.Status != filter.Status {
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

// Get returns one locker projection with derived status.
func (s *LockerService) Get(ctx context.Context, id int64) (*dto.LockerView, error) {
	locker, err := s.repo.FindLockerByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "locker not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locker")
	}
	return s.project(ctx, locker)
}

// Create registers a new locker. Duplicate numbers are a conflict, never
// an overwrite.
func (s *LockerService) Create(ctx context.Context, actorID *int64, req CreateLockerRequest) (*dto.LockerView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid locker payload")
	}
	exists, err := s.repo.ExistsByNumber(ctx, req.Number, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate locker number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "locker number already used")
	}

	locker := &models.Locker{
		Number:            req.Number,
		Zone:              normalizeOptional(req.Zone),
		Condition:         normalizeOptional(req.Condition),
		MonthlyRentalCost: req.MonthlyRentalCost,
		Notes:             normalizeOptional(req.Notes),
	}
	if err := s.repo.CreateLocker(ctx, locker); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create locker")
	}
	s.changes.Record(ctx, actorID, "lockers", locker.ID, models.ChangeActionCreate, locker)
	return &dto.LockerView{Locker: *locker, Status: models.LockerStatusAvailable}, nil
}

// Update applies a partial update. Empty strings unset optional fields
// instead of being stored literally. An empty number is ignored since a
// locker cannot lose its number.
func (s *LockerService) Update(ctx context.Context, actorID *int64, id int64, req UpdateLockerRequest) (*dto.LockerView, error) {
	locker, err := s.repo.FindLockerByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "locker not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locker")
	}

	if req.Number != nil && strings.TrimSpace(*req.Number) != "" {
		number := strings.TrimSpace(*req.Number)
		if number != locker.Number {
			exists, err := s.repo.ExistsByNumber(ctx, number, id)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate locker number")
			}
			if exists {
				return nil, appErrors.Clone(appErrors.ErrConflict, "locker number already used")
			}
		}
		locker.Number = number
	}
	if req.Zone != nil {
		locker.Zone = normalizeOptional(req.Zone)
	}
	if req.Condition != nil {
		locker.Condition = normalizeOptional(req.Condition)
	}
	if req.MonthlyRentalCost != nil {
		cost, err := parseOptionalAmount(*req.MonthlyRentalCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid monthly rental cost")
		}
		locker.MonthlyRentalCost = cost
	}
	if req.Notes != nil {
		locker.Notes = normalizeOptional(req.Notes)
	}

	if err := s.repo.UpdateLocker(ctx, locker); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update locker")
	}
	s.changes.Record(ctx, actorID, "lockers", locker.ID, models.ChangeActionUpdate, locker)
	return s.project(ctx, locker)
}

// AvailableParticipants lists active participants without an occupying
// rental, for the locker assignment flow.
func (s *LockerService) AvailableParticipants(ctx context.Context) ([]models.Participant, error) {
	participants, err := s.participants.ListAvailableForLocker(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available participants")
	}
	return participants, nil
}

// CreateRental opens a rental for a locker. An already occupied locker is
// a conflict.
func (s *LockerService) CreateRental(ctx context.Context, actorID *int64, rental *models.LockerRental) (*models.LockerRental, error) {
	if rental.LockerID <= 0 || rental.ParticipantID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "locker and participant are required")
	}
	if rental.Status == "" {
		rental.Status = models.RentalStatusActive
	}
	existing, err := s.repo.ListOccupyingRentalsByLocker(ctx, rental.LockerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locker rentals")
	}
	if len(existing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "locker is already occupied")
	}
	if err := s.repo.CreateRental(ctx, rental); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create locker rental")
	}
	s.changes.Record(ctx, actorID, "locker_rentals", rental.ID, models.ChangeActionCreate, rental)
	s.invalidateCard(ctx, rental.ParticipantID)
	return rental, nil
}

// CloseRental releases a locker by closing its rental.
func (s *LockerService) CloseRental(ctx context.Context, actorID *int64, rentalID int64) (*models.LockerRental, error) {
	rental, err := s.repo.FindRentalByID(ctx, rentalID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "locker rental not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locker rental")
	}
	rental.Status = models.RentalStatusClosed
	if err := s.repo.UpdateRental(ctx, rental); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close locker rental")
	}
	s.changes.Record(ctx, actorID, "locker_rentals", rental.ID, models.ChangeActionUpdate, rental)
	s.invalidateCard(ctx, rental.ParticipantID)
	return rental, nil
}

func (s *LockerService) invalidateCard(ctx context.Context, participantID int64) {
	if s.cards == nil {
		return
	}
	s.cards.Invalidate(ctx, participantID)
}

// project builds the view for one locker, recomputing occupancy.
func (s *LockerService) project(ctx context.Context, locker *models.Locker) (*dto.LockerView, error) {
	rentals, err := s.repo.ListOccupyingRentalsByLocker(ctx, locker.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locker rentals")
	}
	view := &dto.LockerView{Locker: *locker, Status: models.LockerStatusAvailable}
	if rental, ok := s.resolveOccupancy(rentals)[locker.ID]; ok {
		view.Status = models.LockerStatusOccupied
		view.Rental = &rental
		occupants, err := s.participants.FindByIDs(ctx, []int64{rental.ParticipantID})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locker occupant")
		}
		if occupant, ok := occupants[rental.ParticipantID]; ok {
			view.Occupant = &occupant
		}
	}
	return view, nil
}

// resolveOccupancy maps each locker to its single occupying rental. When
// corrupt data holds several occupying rentals for one locker, the rental
// with the lowest id (and earliest start date on equal ids) wins; the
// anomaly is logged, never surfaced to callers, and the choice does not
// depend on input order.
func (s *LockerService) resolveOccupancy(rentals []models.LockerRental) map[int64]models.LockerRental {
	occupying := make(map[int64]models.LockerRental, len(rentals))
	for _, rental := range rentals {
		if !rental.IsOccupying() {
			continue
		}
		current, ok := occupying[rental.LockerID]
		if !ok {
			occupying[rental.LockerID] = rental
			continue
		}
		s.logger.Warn("multiple occupying rentals for locker",
			zap.Int64("locker_id", rental.LockerID),
			zap.Int64("kept_rental_id", minInt64(current.ID, rental.ID)),
			zap.Int64("dropped_rental_id", maxInt64(current.ID, rental.ID)),
		)
		if rental.ID < current.ID || (rental.ID == current.ID && rental.StartDate.Before(current.StartDate)) {
			occupying[rental.LockerID] = rental
		}
	}
	return occupying
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func parseOptionalAmount(raw string) (*float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	amount, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, err
	}
	return &amount, nil
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

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

type participantRepository interface {
	List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, int, error)
	FindByID(ctx context.Context, id int64) (*models.Participant, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, participant *models.Participant) error
	Update(ctx context.Context, participant *models.Participant) error
	Deactivate(ctx context.Context, id int64) error
	ListPositions(ctx context.Context) ([]models.Position, error)
}

// cardInvalidator drops a participant's cached card after a mutation.
type cardInvalidator interface {
	Invalidate(ctx context.Context, participantID int64)
}

// CreateParticipantRequest holds payload for creating participants.
type CreateParticipantRequest struct {
	FirstName        string     `json:"first_name" validate:"required"`
	LastName         string     `json:"last_name" validate:"required"`
	Email            *string    `json:"email" validate:"omitempty,email"`
	Phone            *string    `json:"phone"`
	BirthDate        time.Time  `json:"birth_date" validate:"required"`
	EmergencyContact *string    `json:"emergency_contact"`
	EmergencyPhone   *string    `json:"emergency_phone"`
	Address          *string    `json:"address"`
	JoinDate         *time.Time `json:"join_date"`
	Notes            *string    `json:"notes"`
	ParticipantType  string     `json:"participant_type"`
	PositionID       *int64     `json:"position_id"`
}

// UpdateParticipantRequest holds payload for updating participants.
type UpdateParticipantRequest struct {
	FirstName        string    `json:"first_name" validate:"required"`
	LastName         string    `json:"last_name" validate:"required"`
	Email            *string   `json:"email" validate:"omitempty,email"`
	Phone            *string   `json:"phone"`
	BirthDate        time.Time `json:"birth_date" validate:"required"`
	EmergencyContact *string   `json:"emergency_contact"`
	EmergencyPhone   *string   `json:"emergency_phone"`
	Address          *string   `json:"address"`
	JoinDate         time.Time `json:"join_date"`
	Active           bool      `json:"is_active"`
	Notes            *string   `json:"notes"`
	ParticipantType  string    `json:"participant_type"`
	PositionID       *int64    `json:"position_id"`
}

// ParticipantService handles participant use-cases.
type ParticipantService struct {
	repo      participantRepository
	changes   *ChangeLogService
	cards     cardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewParticipantService constructs the participant service.
func NewParticipantService(repo participantRepository, changes *ChangeLogService, cards cardInvalidator, validate *validator.Validate, logger *zap.Logger) *ParticipantService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParticipantService{repo: repo, changes: changes, cards: cards, validator: validate, logger: logger}
}

// List returns participants and pagination metadata.
func (s *ParticipantService) List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, *models.Pagination, error) {
	participants, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list participants")
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
	return participants, pagination, nil
}

// Get returns one participant.
func (s *ParticipantService) Get(ctx context.Context, id int64) (*models.Participant, error) {
	participant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}
	return participant, nil
}

// Create registers a new participant.
func (s *ParticipantService) Create(ctx context.Context, actorID *int64, req CreateParticipantRequest) (*models.Participant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid participant payload")
	}
	if req.Email != nil && *req.Email != "" {
		exists, err := s.repo.ExistsByEmail(ctx, *req.Email, 0)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
		}
	}

	joinDate := time.Now().UTC()
	if req.JoinDate != nil {
		joinDate = *req.JoinDate
	}
	participantType := req.ParticipantType
	if participantType == "" {
		participantType = models.ParticipantTypeMember
	}

	participant := &models.Participant{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Phone:            req.Phone,
		BirthDate:        req.BirthDate,
		EmergencyContact: req.EmergencyContact,
		EmergencyPhone:   req.EmergencyPhone,
		Address:          req.Address,
		JoinDate:         joinDate,
		Active:           true,
		Notes:            req.Notes,
		ParticipantType:  participantType,
		PositionID:       req.PositionID,
	}
	if err := s.repo.Create(ctx, participant); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create participant")
	}
	s.changes.Record(ctx, actorID, "participants", participant.ID, models.ChangeActionCreate, participant)
	return participant, nil
}

// Update modifies an existing participant.
func (s *ParticipantService) Update(ctx context.Context, actorID *int64, id int64, req UpdateParticipantRequest) (*models.Participant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid participant payload")
	}
	participant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}
	if req.Email != nil && *req.Email != "" {
		exists, err := s.repo.ExistsByEmail(ctx, *req.Email, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
		}
	}

	participant.FirstName = req.FirstName
	participant.LastName = req.LastName
	participant.Email = req.Email
	participant.Phone = req.Phone
	participant.BirthDate = req.BirthDate
	participant.EmergencyContact = req.EmergencyContact
	participant.EmergencyPhone = req.EmergencyPhone
	participant.Address = req.Address
	participant.JoinDate = req.JoinDate
	participant.Active = req.Active
	participant.Notes = req.Notes
	participant.ParticipantType = req.ParticipantType
	participant.PositionID = req.PositionID

	if err := s.repo.Update(ctx, participant); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update participant")
	}
	s.changes.Record(ctx, actorID, "participants", participant.ID, models.ChangeActionUpdate, participant)
	s.invalidateCard(ctx, participant.ID)
	return participant, nil
}

// Deactivate marks a participant inactive. Records are never hard-deleted.
func (s *ParticipantService) Deactivate(ctx context.Context, actorID *int64, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate participant")
	}
	s.changes.Record(ctx, actorID, "participants", id, models.ChangeActionDelete, nil)
	s.invalidateCard(ctx, id)
	return nil
}

// ListPositions returns staff positions for reference dropdowns.
func (s *ParticipantService) ListPositions(ctx context.Context) ([]models.Position, error) {
	positions, err := s.repo.ListPositions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list positions")
	}
	return positions, nil
}

func (s *ParticipantService) invalidateCard(ctx context.Context, participantID int64) {
	if s.cards == nil {
		return
	}
	s.cards.Invalidate(ctx, participantID)
}

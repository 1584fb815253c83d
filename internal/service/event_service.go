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

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	FindByID(ctx context.Context, id int64) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id int64) error
	ParticipationExists(ctx context.Context, eventID, participantID int64) (bool, error)
	CountParticipants(ctx context.Context, eventID int64) (int, error)
	CreateParticipation(ctx context.Context, participation *models.EventParticipant) error
	DeleteParticipation(ctx context.Context, id int64) error
	ListParticipationsByParticipant(ctx context.Context, participantID int64) ([]models.EventParticipationDetail, error)
}

// CreateEventRequest holds payload for creating events.
type CreateEventRequest struct {
	Name                 string     `json:"name" validate:"required"`
	Description          *string    `json:"description"`
	StartsAt             time.Time  `json:"datetime" validate:"required"`
	Location             string     `json:"location" validate:"required"`
	Cost                 *float64   `json:"cost"`
	MaxParticipants      *int       `json:"max_participants"`
	Status               string     `json:"status"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
}

// RegisterEventRequest holds payload for registering a participant.
type RegisterEventRequest struct {
	EventID       int64   `json:"event_id" validate:"required,gt=0"`
	ParticipantID int64   `json:"participant_id" validate:"required,gt=0"`
	Paid          bool    `json:"paid"`
	PaymentID     *int64  `json:"payment_id"`
	Notes         *string `json:"notes"`
}

// EventService handles events and registrations.
type EventService struct {
	repo         eventRepository
	participants trainingParticipantRepository
	changes      *ChangeLogService
	cards        cardInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewEventService constructs the event service.
func NewEventService(repo eventRepository, participants trainingParticipantRepository, changes *ChangeLogService, cards cardInvalidator, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, participants: participants, changes: changes, cards: cards, validator: validate, logger: logger}
}

// List returns events and pagination metadata.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
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
	return events, pagination, nil
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// Create registers a new event.
func (s *EventService) Create(ctx context.Context, actorID *int64, req CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	status := req.Status
	if status == "" {
		status = "planned"
	}
	event := &models.Event{
		Name:                 req.Name,
		Description:          req.Description,
		StartsAt:             req.StartsAt,
		Location:             req.Location,
		Cost:                 req.Cost,
		MaxParticipants:      req.MaxParticipants,
		Status:               status,
		RegistrationDeadline: req.RegistrationDeadline,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.changes.Record(ctx, actorID, "events", event.ID, models.ChangeActionCreate, event)
	return event, nil
}

// Update modifies an existing event.
func (s *EventService) Update(ctx context.Context, actorID *int64, id int64, req CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	event.Name = req.Name
	event.Description = req.Description
	event.StartsAt = req.StartsAt
	event.Location = req.Location
	event.Cost = req.Cost
	event.MaxParticipants = req.MaxParticipants
	if req.Status != "" {
		event.Status = req.Status
	}
	event.RegistrationDeadline = req.RegistrationDeadline

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	s.changes.Record(ctx, actorID, "events", event.ID, models.ChangeActionUpdate, event)
	return event, nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, actorID *int64, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.changes.Record(ctx, actorID, "events", id, models.ChangeActionDelete, nil)
	return nil
}

// Register adds a participant to an event. Duplicate pairs and exceeded
// capacity are conflicts.
func (s *EventService) Register(ctx context.Context, actorID *int64, req RegisterEventRequest) (*models.EventParticipant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	event, err := s.Get(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if _, err := s.participants.FindByID(ctx, req.ParticipantID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}

	exists, err := s.repo.ParticipationExists(ctx, req.EventID, req.ParticipantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate registration")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "participant is already registered")
	}

	if event.MaxParticipants != nil {
		count, err := s.repo.CountParticipants(ctx, req.EventID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
		}
		if count >= *event.MaxParticipants {
			return nil, appErrors.Clone(appErrors.ErrConflict, "event is full")
		}
	}

	participation := &models.EventParticipant{
		EventID:          req.EventID,
		ParticipantID:    req.ParticipantID,
		RegistrationDate: time.Now().UTC(),
		Paid:             req.Paid,
		PaymentID:        req.PaymentID,
		Status:           "registered",
		Notes:            req.Notes,
	}
	if err := s.repo.CreateParticipation(ctx, participation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register participant")
	}
	s.changes.Record(ctx, actorID, "event_participants", participation.ID, models.ChangeActionCreate, participation)
	s.invalidateCard(ctx, participation.ParticipantID)
	return participation, nil
}

// Unregister removes an event registration.
func (s *EventService) Unregister(ctx context.Context, actorID *int64, participationID, participantID int64) error {
	if err := s.repo.DeleteParticipation(ctx, participationID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove registration")
	}
	s.changes.Record(ctx, actorID, "event_participants", participationID, models.ChangeActionDelete, nil)
	s.invalidateCard(ctx, participantID)
	return nil
}

func (s *EventService) invalidateCard(ctx context.Context, participantID int64) {
	if s.cards == nil {
		return
	}
	s.cards.Invalidate(ctx, participantID)
}

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

type trainingRepository interface {
	ListSessions(ctx context.Context, filter models.TrainingSessionFilter) ([]models.TrainingSession, int, error)
	FindSessionByID(ctx context.Context, id int64) (*models.TrainingSession, error)
	CreateSession(ctx context.Context, session *models.TrainingSession) error
	UpdateSession(ctx context.Context, session *models.TrainingSession) error
	DeleteSession(ctx context.Context, id int64) error
	ListAttendanceBySession(ctx context.Context, sessionID int64) ([]models.TrainingAttendance, error)
	AttendanceExists(ctx context.Context, participantID, sessionID int64) (bool, error)
	CreateAttendance(ctx context.Context, mark *models.TrainingAttendance) error
	FindAttendanceByID(ctx context.Context, id int64) (*models.TrainingAttendance, error)
	UpdateAttendance(ctx context.Context, mark *models.TrainingAttendance) error
	DeleteAttendance(ctx context.Context, id int64) error
}

type trainingParticipantRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Participant, error)
}

// CreateSessionRequest holds payload for scheduling training sessions.
type CreateSessionRequest struct {
	TrainerID       int64     `json:"trainer_id" validate:"required,gt=0"`
	StartsAt        time.Time `json:"datetime" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0"`
	Topic           string    `json:"topic" validate:"required"`
	Description     *string   `json:"description"`
	MaxParticipants *int      `json:"max_participants"`
	Location        *string   `json:"location"`
	Status          string    `json:"status"`
}

// MarkAttendanceRequest holds payload for recording attendance. At most
// one record may exist per (participant, session) pair.
type MarkAttendanceRequest struct {
	ParticipantID int64   `json:"participant_id" validate:"required,gt=0"`
	SessionID     int64   `json:"session_id" validate:"required,gt=0"`
	Attended      bool    `json:"attended"`
	Rating        *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Notes         *string `json:"notes"`
}

// UpdateAttendanceRequest holds payload for correcting an attendance mark.
type UpdateAttendanceRequest struct {
	Attended bool    `json:"attended"`
	Rating   *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Notes    *string `json:"notes"`
}

// TrainingService handles session scheduling and attendance marks.
type TrainingService struct {
	repo         trainingRepository
	participants trainingParticipantRepository
	changes      *ChangeLogService
	cards        cardInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewTrainingService constructs the training service.
func NewTrainingService(repo trainingRepository, participants trainingParticipantRepository, changes *ChangeLogService, cards cardInvalidator, validate *validator.Validate, logger *zap.Logger) *TrainingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainingService{repo: repo, participants: participants, changes: changes, cards: cards, validator: validate, logger: logger}
}

// ListSessions returns sessions and pagination metadata.
func (s *TrainingService) ListSessions(ctx context.Context, filter models.TrainingSessionFilter) ([]models.TrainingSession, *models.Pagination, error) {
	sessions, total, err := s.repo.ListSessions(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
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
	return sessions, pagination, nil
}

// GetSession returns one session.
func (s *TrainingService) GetSession(ctx context.Context, id int64) (*models.TrainingSession, error) {
	session, err := s.repo.FindSessionByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "training session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// CreateSession schedules a session. The trainer must be a participant
// of type trainer.
func (s *TrainingService) CreateSession(ctx context.Context, actorID *int64, req CreateSessionRequest) (*models.TrainingSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	trainer, err := s.participants.FindByID(ctx, req.TrainerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "trainer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer")
	}
	if !trainer.IsTrainer() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "participant is not a trainer")
	}

	status := req.Status
	if status == "" {
		status = "scheduled"
	}
	session := &models.TrainingSession{
		TrainerID:       req.TrainerID,
		StartsAt:        req.StartsAt,
		DurationMinutes: req.DurationMinutes,
		Topic:           req.Topic,
		Description:     req.Description,
		MaxParticipants: req.MaxParticipants,
		Location:        req.Location,
		Status:          status,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	s.changes.Record(ctx, actorID, "training_sessions", session.ID, models.ChangeActionCreate, session)
	return session, nil
}

// UpdateSession modifies an existing session.
func (s *TrainingService) UpdateSession(ctx context.Context, actorID *int64, id int64, req CreateSessionRequest) (*models.TrainingSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	session.TrainerID = req.TrainerID
	session.StartsAt = req.StartsAt
	session.DurationMinutes = req.DurationMinutes
	session.Topic = req.Topic
	session.Description = req.Description
	session.MaxParticipants = req.MaxParticipants
	session.Location = req.Location
	if req.Status != "" {
		session.Status = req.Status
	}

	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	s.changes.Record(ctx, actorID, "training_sessions", session.ID, models.ChangeActionUpdate, session)
	return session, nil
}

// DeleteSession removes a session.
func (s *TrainingService) DeleteSession(ctx context.Context, actorID *int64, id int64) error {
	if _, err := s.GetSession(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	s.changes.Record(ctx, actorID, "training_sessions", id, models.ChangeActionDelete, nil)
	return nil
}

// ListAttendance returns the attendance list of one session.
func (s *TrainingService) ListAttendance(ctx context.Context, sessionID int64) ([]models.TrainingAttendance, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	marks, err := s.repo.ListAttendanceBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return marks, nil
}

// MarkAttendance records one participant's presence at one session. A
// duplicate pair is a conflict so storage faults never leak out raw.
func (s *TrainingService) MarkAttendance(ctx context.Context, actorID *int64, req MarkAttendanceRequest) (*models.TrainingAttendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if _, err := s.GetSession(ctx, req.SessionID); err != nil {
		return nil, err
	}
	if _, err := s.participants.FindByID(ctx, req.ParticipantID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}

	exists, err := s.repo.AttendanceExists(ctx, req.ParticipantID, req.SessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate attendance pair")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already recorded for this session")
	}

	mark := &models.TrainingAttendance{
		ParticipantID: req.ParticipantID,
		SessionID:     req.SessionID,
		Attended:      req.Attended,
		Rating:        req.Rating,
		Notes:         req.Notes,
	}
	if err := s.repo.CreateAttendance(ctx, mark); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	s.changes.Record(ctx, actorID, "training_attendance", mark.ID, models.ChangeActionCreate, mark)
	s.invalidateCard(ctx, mark.ParticipantID)
	return mark, nil
}

// UpdateAttendance modifies an existing attendance mark.
func (s *TrainingService) UpdateAttendance(ctx context.Context, actorID *int64, id int64, req UpdateAttendanceRequest) (*models.TrainingAttendance, error) {
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rating must be between 1 and 5")
	}
	mark, err := s.repo.FindAttendanceByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance mark not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	mark.Attended = req.Attended
	mark.Rating = req.Rating
	mark.Notes = req.Notes
	if err := s.repo.UpdateAttendance(ctx, mark); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
	}
	s.changes.Record(ctx, actorID, "training_attendance", mark.ID, models.ChangeActionUpdate, mark)
	s.invalidateCard(ctx, mark.ParticipantID)
	return mark, nil
}

func (s *TrainingService) invalidateCard(ctx context.Context, participantID int64) {
	if s.cards == nil {
		return
	}
	s.cards.Invalidate(ctx, participantID)
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fitclub-crm/fitclub-api/internal/dto"
	"github.com/fitclub-crm/fitclub-api/internal/models"
	appErrors "github.com/fitclub-crm/fitclub-api/pkg/errors"
)

// recentPaymentsLimit caps the payments shown on the card. Statistics and
// notes still read the full history.
const recentPaymentsLimit = 10

type cardParticipantRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Participant, error)
}

type cardSubscriptionRepository interface {
	ListByParticipant(ctx context.Context, participantID int64) ([]models.SubscriptionDetail, error)
}

type cardPaymentRepository interface {
	ListByParticipant(ctx context.Context, participantID int64) ([]models.Payment, error)
}

type cardTrainingRepository interface {
	ListAttendanceByParticipant(ctx context.Context, participantID int64) ([]models.TrainingAttendanceDetail, error)
	ListSessionsAttendedByParticipant(ctx context.Context, participantID int64) ([]models.TrainingSession, error)
	ListSessionsByTrainer(ctx context.Context, trainerID int64) ([]models.TrainingSession, error)
}

type cardLockerRepository interface {
	ListRentalsByParticipant(ctx context.Context, participantID int64) ([]models.LockerRentalDetail, error)
}

type cardEventRepository interface {
	ListParticipationsByParticipant(ctx context.Context, participantID int64) ([]models.EventParticipationDetail, error)
}

type cardUserRepository interface {
	FindByMemberID(ctx context.Context, memberID int64) (*models.SystemUser, error)
}

// CardService assembles the aggregated participant card. Assembly is a
// read-only operation; nothing is written during card construction.
type CardService struct {
	participants  cardParticipantRepository
	subscriptions cardSubscriptionRepository
	payments      cardPaymentRepository
	training      cardTrainingRepository
	lockers       cardLockerRepository
	events        cardEventRepository
	users         cardUserRepository
	cache         *CacheService
	metrics       *MetricsService
	logger        *zap.Logger
	now           func() time.Time
}

// NewCardService constructs the card service. Cache and metrics are
// optional.
func NewCardService(
	participants cardParticipantRepository,
	subscriptions cardSubscriptionRepository,
	payments cardPaymentRepository,
	training cardTrainingRepository,
	lockers cardLockerRepository,
	events cardEventRepository,
	users cardUserRepository,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
) *CardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardService{
		participants:  participants,
		subscriptions: subscriptions,
		payments:      payments,
		training:      training,
		lockers:       lockers,
		events:        events,
		users:         users,
		cache:         cache,
		metrics:       metrics,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func cardCacheKey(participantID int64) string {
	return fmt.Sprintf("card:%d", participantID)
}

// Get assembles the card for one participant.
func (s *CardService) Get(ctx context.Context, participantID int64) (*dto.ParticipantCard, error) {
	key := cardCacheKey(participantID)
	if s.cache.Enabled() {
		var cached dto.ParticipantCard
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}

	card, err := s.assemble(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordCardAssembly()
	}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, card, 0); err != nil {
			s.logger.Warn("failed to cache participant card", zap.Int64("participant_id", participantID), zap.Error(err))
		}
	}
	return card, nil
}

// Invalidate drops the cached card of one participant after a mutation.
func (s *CardService) Invalidate(ctx context.Context, participantID int64) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, cardCacheKey(participantID)); err != nil {
		s.logger.Warn("failed to invalidate participant card", zap.Int64("participant_id", participantID), zap.Error(err))
	}
}

func (s *CardService) assemble(ctx context.Context, participantID int64) (*dto.ParticipantCard, error) {
	participant, err := s.participants.FindByID(ctx, participantID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}

	subscriptions, err := s.subscriptions.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subscriptions")
	}

	payments, err := s.payments.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}

	attendance, err := s.training.ListAttendanceByParticipant(ctx, participantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	attendedSessions, err := s.training.ListSessionsAttendedByParticipant(ctx, participantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attended sessions")
	}

	lockerRentals, err := s.lockers.ListRentalsByParticipant(ctx, participantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locker rentals")
	}

	eventParticipations, err := s.events.ListParticipationsByParticipant(ctx, participantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event participations")
	}

	account, err := s.users.FindByMemberID(ctx, participantID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load linked account")
	}

	now := s.now()
	card := &dto.ParticipantCard{
		Participant:           *participant,
		Subscriptions:         subscriptions,
		SubscriptionsByStatus: groupSubscriptions(subscriptions),
		RecentPayments:        capPayments(payments, recentPaymentsLimit),
		AttendedSessions:      attendedSessions,
		Attendance:            attendance,
		LockerRentals:         lockerRentals,
		EventParticipations:   eventParticipations,
		Account:               account,
		Statistics:            ComputeStatistics(subscriptions, attendance, payments, participant.BirthDate, now),
		Notes:                 MergeNotes(participant, attendance, payments),
	}

	if len(lockerRentals) > 0 {
		current := lockerRentals[0]
		card.CurrentLockerRental = &current
	}

	if participant.IsTrainer() {
		ledSessions, err := s.training.ListSessionsByTrainer(ctx, participantID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer sessions")
		}
		upcoming := 0
		for _, session := range ledSessions {
			if session.StartsAt.After(now) {
				upcoming++
			}
		}
		card.Trainer = &dto.TrainerSection{LedSessions: ledSessions, UpcomingCount: upcoming}
	}

	return card, nil
}

func groupSubscriptions(subscriptions []models.SubscriptionDetail) dto.SubscriptionGroups {
	var groups dto.SubscriptionGroups
	for _, sub := range subscriptions {
		switch sub.Status {
		case models.SubscriptionStatusActive:
			groups.Active = append(groups.Active, sub)
		case models.SubscriptionStatusPending:
			groups.Pending = append(groups.Pending, sub)
		case models.SubscriptionStatusExpired:
			groups.Expired = append(groups.Expired, sub)
		case models.SubscriptionStatusCancelled:
			groups.Cancelled = append(groups.Cancelled, sub)
		}
	}
	return groups
}

func capPayments(payments []models.Payment, limit int) []models.Payment {
	if len(payments) <= limit {
		return payments
	}
	return payments[:limit]
}

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitclub-crm/fitclub-api/internal/models"
	appErrors "github.com/fitclub-crm/fitclub-api/pkg/errors"
)

type fakeCardParticipants struct {
	participant *models.Participant
}

func (f *fakeCardParticipants) FindByID(context.Context, int64) (*models.Participant, error) {
	if f.participant == nil {
		return nil, sql.ErrNoRows
	}
	return f.participant, nil
}

type fakeCardSubscriptions struct {
	subscriptions []models.SubscriptionDetail
}

func (f *fakeCardSubscriptions) ListByParticipant(context.Context, int64) ([]models.SubscriptionDetail, error) {
	return f.subscriptions, nil
}

type fakeCardPayments struct {
	payments []models.Payment
}

func (f *fakeCardPayments) ListByParticipant(context.Context, int64) ([]models.Payment, error) {
	return f.payments, nil
}

type fakeCardTraining struct {
	attendance  []models.TrainingAttendanceDetail
	attended    []models.TrainingSession
	ledSessions []models.TrainingSession
	ledCalled   bool
}

func (f *fakeCardTraining) ListAttendanceByParticipant(context.Context, int64) ([]models.TrainingAttendanceDetail, error) {
	return f.attendance, nil
}

func (f *fakeCardTraining) ListSessionsAttendedByParticipant(context.Context, int64) ([]models.TrainingSession, error) {
	return f.attended, nil
}

func (f *fakeCardTraining) ListSessionsByTrainer(context.Context, int64) ([]models.TrainingSession, error) {
	f.ledCalled = true
	return f.ledSessions, nil
}

type fakeCardLockers struct {
	rentals []models.LockerRentalDetail
}

func (f *fakeCardLockers) ListRentalsByParticipant(context.Context, int64) ([]models.LockerRentalDetail, error) {
	return f.rentals, nil
}

type fakeCardEvents struct {
	participations []models.EventParticipationDetail
}

func (f *fakeCardEvents) ListParticipationsByParticipant(context.Context, int64) ([]models.EventParticipationDetail, error) {
	return f.participations, nil
}

type fakeCardUsers struct {
	account *models.SystemUser
}

func (f *fakeCardUsers) FindByMemberID(context.Context, int64) (*models.SystemUser, error) {
	if f.account == nil {
		return nil, sql.ErrNoRows
	}
	return f.account, nil
}

func newCardServiceForTest(
	participants *fakeCardParticipants,
	subscriptions *fakeCardSubscriptions,
	payments *fakeCardPayments,
	training *fakeCardTraining,
	lockers *fakeCardLockers,
	events *fakeCardEvents,
	users *fakeCardUsers,
) *CardService {
	return NewCardService(participants, subscriptions, payments, training, lockers, events, users, nil, nil, zap.NewNop())
}

func TestCardGet_ParticipantNotFound(t *testing.T) {
	svc := newCardServiceForTest(
		&fakeCardParticipants{},
		&fakeCardSubscriptions{}, &fakeCardPayments{}, &fakeCardTraining{},
		&fakeCardLockers{}, &fakeCardEvents{}, &fakeCardUsers{},
	)

	_, err := svc.Get(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCardGet_RecentPaymentsCappedButStatisticsUseFullHistory(t *testing.T) {
	payments := make([]models.Payment, 0, 15)
	for i := 0; i < 15; i++ {
		payments = append(payments, models.Payment{
			ID:     int64(i + 1),
			Amount: 100,
			Status: models.PaymentStatusCompleted,
		})
	}

	svc := newCardServiceForTest(
		&fakeCardParticipants{participant: &models.Participant{ID: 1, ParticipantType: models.ParticipantTypeMember}},
		&fakeCardSubscriptions{}, &fakeCardPayments{payments: payments}, &fakeCardTraining{},
		&fakeCardLockers{}, &fakeCardEvents{}, &fakeCardUsers{},
	)

	card, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)

	assert.Len(t, card.RecentPayments, 10)
	// all 15 completed payments feed the spend total
	assert.Equal(t, 1500.0, card.Statistics.TotalSpent)
}

func TestCardGet_SubscriptionsPartitionedByStatus(t *testing.T) {
	subs := []models.SubscriptionDetail{
		{Subscription: models.Subscription{ID: 1, Status: models.SubscriptionStatusActive}},
		{Subscription: models.Subscription{ID: 2, Status: models.SubscriptionStatusPending}},
		{Subscription: models.Subscription{ID: 3, Status: models.SubscriptionStatusExpired}},
		{Subscription: models.Subscription{ID: 4, Status: models.SubscriptionStatusCancelled}},
		{Subscription: models.Subscription{ID: 5, Status: models.SubscriptionStatusActive}},
	}

	svc := newCardServiceForTest(
		&fakeCardParticipants{participant: &models.Participant{ID: 1}},
		&fakeCardSubscriptions{subscriptions: subs}, &fakeCardPayments{}, &fakeCardTraining{},
		&fakeCardLockers{}, &fakeCardEvents{}, &fakeCardUsers{},
	)

	card, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)

	assert.Len(t, card.Subscriptions, 5)
	assert.Len(t, card.SubscriptionsByStatus.Active, 2)
	assert.Len(t, card.SubscriptionsByStatus.Pending, 1)
	assert.Len(t, card.SubscriptionsByStatus.Expired, 1)
	assert.Len(t, card.SubscriptionsByStatus.Cancelled, 1)
}

func TestCardGet_TrainerSectionOnlyForTrainers(t *testing.T) {
	future := time.Now().Add(48 * time.Hour)
	past := time.Now().Add(-48 * time.Hour)
	training := &fakeCardTraining{
		ledSessions: []models.TrainingSession{
			{ID: 1, StartsAt: future},
			{ID: 2, StartsAt: past},
		},
	}

	svc := newCardServiceForTest(
		&fakeCardParticipants{participant: &models.Participant{ID: 1, ParticipantType: models.ParticipantTypeTrainer}},
		&fakeCardSubscriptions{}, &fakeCardPayments{}, training,
		&fakeCardLockers{}, &fakeCardEvents{}, &fakeCardUsers{},
	)

	card, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)

	require.NotNil(t, card.Trainer)
	assert.Len(t, card.Trainer.LedSessions, 2)
	assert.Equal(t, 1, card.Trainer.UpcomingCount)
}

func TestCardGet_NoTrainerSectionForMembers(t *testing.T) {
	training := &fakeCardTraining{}
	svc := newCardServiceForTest(
		&fakeCardParticipants{participant: &models.Participant{ID: 1, ParticipantType: models.ParticipantTypeMember}},
		&fakeCardSubscriptions{}, &fakeCardPayments{}, training,
		&fakeCardLockers{}, &fakeCardEvents{}, &fakeCardUsers{},
	)

	card, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)

	assert.Nil(t, card.Trainer)
	assert.False(t, training.ledCalled)
}

func TestCardGet_CurrentLockerRentalIsNewest(t *testing.T) {
	rentals := []models.LockerRentalDetail{
		{LockerRental: models.LockerRental{ID: 3}, LockerNumber: "B-2"},
		{LockerRental: models.LockerRental{ID: 1}, LockerNumber: "A-1"},
	}

	svc := newCardServiceForTest(
		&fakeCardParticipants{participant: &models.Participant{ID: 1}},
		&fakeCardSubscriptions{}, &fakeCardPayments{}, &fakeCardTraining{},
		&fakeCardLockers{rentals: rentals}, &fakeCardEvents{}, &fakeCardUsers{},
	)

	card, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)

	require.NotNil(t, card.CurrentLockerRental)
	assert.Equal(t, "B-2", card.CurrentLockerRental.LockerNumber)
}

func TestCardGet_MissingLinkedAccountTolerated(t *testing.T) {
	svc := newCardServiceForTest(
		&fakeCardParticipants{participant: &models.Participant{ID: 1}},
		&fakeCardSubscriptions{}, &fakeCardPayments{}, &fakeCardTraining{},
		&fakeCardLockers{}, &fakeCardEvents{}, &fakeCardUsers{account: nil},
	)

	card, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, card.Account)
}

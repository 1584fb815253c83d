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

type fakeEventRepo struct {
	events               []models.Event
	participationExists  bool
	participantCount     int
	createdParticipation *models.EventParticipant
	deletedParticipation int64
}

func (f *fakeEventRepo) List(context.Context, models.EventFilter) ([]models.Event, int, error) {
	return f.events, len(f.events), nil
}

func (f *fakeEventRepo) FindByID(_ context.Context, id int64) (*models.Event, error) {
	for i := range f.events {
		if f.events[i].ID == id {
			return &f.events[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEventRepo) Create(_ context.Context, event *models.Event) error {
	event.ID = 100
	return nil
}

func (f *fakeEventRepo) Update(context.Context, *models.Event) error { return nil }

func (f *fakeEventRepo) Delete(context.Context, int64) error { return nil }

func (f *fakeEventRepo) ParticipationExists(context.Context, int64, int64) (bool, error) {
	return f.participationExists, nil
}

func (f *fakeEventRepo) CountParticipants(context.Context, int64) (int, error) {
	return f.participantCount, nil
}

func (f *fakeEventRepo) CreateParticipation(_ context.Context, participation *models.EventParticipant) error {
	participation.ID = 300
	f.createdParticipation = participation
	return nil
}

func (f *fakeEventRepo) DeleteParticipation(_ context.Context, id int64) error {
	f.deletedParticipation = id
	return nil
}

func (f *fakeEventRepo) ListParticipationsByParticipant(context.Context, int64) ([]models.EventParticipationDetail, error) {
	return nil, nil
}

func newEventServiceForTest(repo *fakeEventRepo, participants *fakeTrainingParticipants) *EventService {
	return NewEventService(repo, participants, nil, nil, nil, zap.NewNop())
}

func TestEventCreate_DefaultsStatusToPlanned(t *testing.T) {
	svc := newEventServiceForTest(&fakeEventRepo{}, &fakeTrainingParticipants{})

	event, err := svc.Create(context.Background(), nil, CreateEventRequest{
		Name:     "Open day",
		StartsAt: time.Now().Add(72 * time.Hour),
		Location: "Main hall",
	})
	require.NoError(t, err)
	assert.Equal(t, "planned", event.Status)
	assert.Equal(t, int64(100), event.ID)
}

func TestEventRegister_DuplicateRegistrationConflict(t *testing.T) {
	repo := &fakeEventRepo{
		events:              []models.Event{{ID: 1, Name: "Open day"}},
		participationExists: true,
	}
	participants := &fakeTrainingParticipants{participants: map[int64]*models.Participant{
		7: {ID: 7},
	}}
	svc := newEventServiceForTest(repo, participants)

	_, err := svc.Register(context.Background(), nil, RegisterEventRequest{EventID: 1, ParticipantID: 7})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.createdParticipation)
}

func TestEventRegister_FullEventConflict(t *testing.T) {
	capacity := 10
	repo := &fakeEventRepo{
		events:           []models.Event{{ID: 1, MaxParticipants: &capacity}},
		participantCount: 10,
	}
	participants := &fakeTrainingParticipants{participants: map[int64]*models.Participant{
		7: {ID: 7},
	}}
	svc := newEventServiceForTest(repo, participants)

	_, err := svc.Register(context.Background(), nil, RegisterEventRequest{EventID: 1, ParticipantID: 7})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "event is full", appErr.Message)
}

func TestEventRegister_UnlimitedCapacitySkipsCount(t *testing.T) {
	repo := &fakeEventRepo{
		events:           []models.Event{{ID: 1}},
		participantCount: 10000,
	}
	participants := &fakeTrainingParticipants{participants: map[int64]*models.Participant{
		7: {ID: 7},
	}}
	svc := newEventServiceForTest(repo, participants)

	participation, err := svc.Register(context.Background(), nil, RegisterEventRequest{EventID: 1, ParticipantID: 7, Paid: true})
	require.NoError(t, err)
	assert.Equal(t, "registered", participation.Status)
	assert.True(t, participation.Paid)
	assert.False(t, participation.RegistrationDate.IsZero())
}

func TestEventRegister_UnknownParticipantNotFound(t *testing.T) {
	repo := &fakeEventRepo{events: []models.Event{{ID: 1}}}
	svc := newEventServiceForTest(repo, &fakeTrainingParticipants{})

	_, err := svc.Register(context.Background(), nil, RegisterEventRequest{EventID: 1, ParticipantID: 404})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEventUnregister_DeletesParticipation(t *testing.T) {
	repo := &fakeEventRepo{}
	svc := newEventServiceForTest(repo, &fakeTrainingParticipants{})

	err := svc.Unregister(context.Background(), nil, 300, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(300), repo.deletedParticipation)
}

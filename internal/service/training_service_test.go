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

type fakeTrainingRepo struct {
	sessions    []models.TrainingSession
	marks       []models.TrainingAttendance
	pairExists  bool
	createdMark *models.TrainingAttendance
	updatedMark *models.TrainingAttendance
	created     *models.TrainingSession
}

func (f *fakeTrainingRepo) ListSessions(context.Context, models.TrainingSessionFilter) ([]models.TrainingSession, int, error) {
	return f.sessions, len(f.sessions), nil
}

func (f *fakeTrainingRepo) FindSessionByID(_ context.Context, id int64) (*models.TrainingSession, error) {
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			return &f.sessions[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTrainingRepo) CreateSession(_ context.Context, session *models.TrainingSession) error {
	session.ID = 100
	f.created = session
	return nil
}

func (f *fakeTrainingRepo) UpdateSession(context.Context, *models.TrainingSession) error { return nil }

func (f *fakeTrainingRepo) DeleteSession(context.Context, int64) error { return nil }

func (f *fakeTrainingRepo) ListAttendanceBySession(context.Context, int64) ([]models.TrainingAttendance, error) {
	return f.marks, nil
}

func (f *fakeTrainingRepo) AttendanceExists(context.Context, int64, int64) (bool, error) {
	return f.pairExists, nil
}

func (f *fakeTrainingRepo) CreateAttendance(_ context.Context, mark *models.TrainingAttendance) error {
	mark.ID = 200
	f.createdMark = mark
	return nil
}

func (f *fakeTrainingRepo) FindAttendanceByID(_ context.Context, id int64) (*models.TrainingAttendance, error) {
	for i := range f.marks {
		if f.marks[i].ID == id {
			return &f.marks[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTrainingRepo) UpdateAttendance(_ context.Context, mark *models.TrainingAttendance) error {
	f.updatedMark = mark
	return nil
}

func (f *fakeTrainingRepo) DeleteAttendance(context.Context, int64) error { return nil }

type fakeTrainingParticipants struct {
	participants map[int64]*models.Participant
}

func (f *fakeTrainingParticipants) FindByID(_ context.Context, id int64) (*models.Participant, error) {
	if p, ok := f.participants[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func newTrainingServiceForTest(repo *fakeTrainingRepo, participants *fakeTrainingParticipants) *TrainingService {
	return NewTrainingService(repo, participants, nil, nil, nil, zap.NewNop())
}

func TestCreateSession_RejectsNonTrainer(t *testing.T) {
	participants := &fakeTrainingParticipants{participants: map[int64]*models.Participant{
		3: {ID: 3, ParticipantType: models.ParticipantTypeMember},
	}}
	repo := &fakeTrainingRepo{}
	svc := newTrainingServiceForTest(repo, participants)

	_, err := svc.CreateSession(context.Background(), nil, CreateSessionRequest{
		TrainerID:       3,
		StartsAt:        time.Now().Add(time.Hour),
		DurationMinutes: 60,
		Topic:           "crossfit basics",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestCreateSession_DefaultsStatusToScheduled(t *testing.T) {
	participants := &fakeTrainingParticipants{participants: map[int64]*models.Participant{
		3: {ID: 3, ParticipantType: models.ParticipantTypeTrainer},
	}}
	repo := &fakeTrainingRepo{}
	svc := newTrainingServiceForTest(repo, participants)

	session, err := svc.CreateSession(context.Background(), nil, CreateSessionRequest{
		TrainerID:       3,
		StartsAt:        time.Now().Add(time.Hour),
		DurationMinutes: 45,
		Topic:           "yoga",
	})
	require.NoError(t, err)
	assert.Equal(t, "scheduled", session.Status)
	assert.Equal(t, int64(100), session.ID)
}

func TestMarkAttendance_DuplicatePairConflict(t *testing.T) {
	repo := &fakeTrainingRepo{
		sessions:   []models.TrainingSession{{ID: 1, Topic: "yoga"}},
		pairExists: true,
	}
	participants := &fakeTrainingParticipants{participants: map[int64]*models.Participant{
		7: {ID: 7},
	}}
	svc := newTrainingServiceForTest(repo, participants)

	_, err := svc.MarkAttendance(context.Background(), nil, MarkAttendanceRequest{
		ParticipantID: 7,
		SessionID:     1,
		Attended:      true,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.createdMark)
}

func TestMarkAttendance_UnknownSessionNotFound(t *testing.T) {
	svc := newTrainingServiceForTest(&fakeTrainingRepo{}, &fakeTrainingParticipants{})

	_, err := svc.MarkAttendance(context.Background(), nil, MarkAttendanceRequest{
		ParticipantID: 7,
		SessionID:     99,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMarkAttendance_Succeeds(t *testing.T) {
	repo := &fakeTrainingRepo{sessions: []models.TrainingSession{{ID: 1}}}
	participants := &fakeTrainingParticipants{participants: map[int64]*models.Participant{
		7: {ID: 7},
	}}
	svc := newTrainingServiceForTest(repo, participants)

	rating := 5
	mark, err := svc.MarkAttendance(context.Background(), nil, MarkAttendanceRequest{
		ParticipantID: 7,
		SessionID:     1,
		Attended:      true,
		Rating:        &rating,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(200), mark.ID)
	assert.True(t, mark.Attended)
	require.NotNil(t, mark.Rating)
	assert.Equal(t, 5, *mark.Rating)
}

func TestUpdateAttendance_RatingOutOfRange(t *testing.T) {
	repo := &fakeTrainingRepo{marks: []models.TrainingAttendance{{ID: 1}}}
	svc := newTrainingServiceForTest(repo, &fakeTrainingParticipants{})

	rating := 6
	_, err := svc.UpdateAttendance(context.Background(), nil, 1, UpdateAttendanceRequest{Rating: &rating})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.updatedMark)
}

func TestUpdateAttendance_AppliesFields(t *testing.T) {
	repo := &fakeTrainingRepo{marks: []models.TrainingAttendance{{ID: 1, ParticipantID: 7, Attended: false}}}
	svc := newTrainingServiceForTest(repo, &fakeTrainingParticipants{})

	rating := 4
	notes := "arrived late"
	mark, err := svc.UpdateAttendance(context.Background(), nil, 1, UpdateAttendanceRequest{
		Attended: true,
		Rating:   &rating,
		Notes:    &notes,
	})
	require.NoError(t, err)
	assert.True(t, mark.Attended)
	assert.Equal(t, 4, *mark.Rating)
	assert.Equal(t, "arrived late", *mark.Notes)
	require.NotNil(t, repo.updatedMark)
}

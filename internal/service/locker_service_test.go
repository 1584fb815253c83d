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

type fakeLockerRepo struct {
	lockers       []models.Locker
	rentals       []models.LockerRental
	numberExists  bool
	created       *models.Locker
	updated       *models.Locker
	createdRental *models.LockerRental
	updatedRental *models.LockerRental
}

func (f *fakeLockerRepo) ListLockers(_ context.Context, filter models.LockerFilter) ([]models.Locker, error) {
	return f.lockers, nil
}

func (f *fakeLockerRepo) FindLockerByID(_ context.Context, id int64) (*models.Locker, error) {
	for i := range f.lockers {
		if f.lockers[i].ID == id {
			return &f.lockers[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLockerRepo) ExistsByNumber(context.Context, string, int64) (bool, error) {
	return f.numberExists, nil
}

func (f *fakeLockerRepo) CreateLocker(_ context.Context, locker *models.Locker) error {
	locker.ID = 100
	f.created = locker
	return nil
}

func (f *fakeLockerRepo) UpdateLocker(_ context.Context, locker *models.Locker) error {
	f.updated = locker
	return nil
}

func (f *fakeLockerRepo) ListOccupyingRentals(context.Context) ([]models.LockerRental, error) {
	return f.rentals, nil
}

func (f *fakeLockerRepo) ListOccupyingRentalsByLocker(_ context.Context, lockerID int64) ([]models.LockerRental, error) {
	var out []models.LockerRental
	for _, r := range f.rentals {
		if r.LockerID == lockerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLockerRepo) FindRentalByID(_ context.Context, id int64) (*models.LockerRental, error) {
	for i := range f.rentals {
		if f.rentals[i].ID == id {
			return &f.rentals[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLockerRepo) CreateRental(_ context.Context, rental *models.LockerRental) error {
	rental.ID = 200
	f.createdRental = rental
	return nil
}

func (f *fakeLockerRepo) UpdateRental(_ context.Context, rental *models.LockerRental) error {
	f.updatedRental = rental
	return nil
}

type fakeLockerParticipants struct {
	participants map[int64]models.Participant
	available    []models.Participant
}

func (f *fakeLockerParticipants) FindByIDs(_ context.Context, ids []int64) (map[int64]models.Participant, error) {
	out := make(map[int64]models.Participant)
	for _, id := range ids {
		if p, ok := f.participants[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeLockerParticipants) ListAvailableForLocker(context.Context) ([]models.Participant, error) {
	return f.available, nil
}

type fakeCardCache struct {
	invalidated []int64
}

func (f *fakeCardCache) Invalidate(_ context.Context, participantID int64) {
	f.invalidated = append(f.invalidated, participantID)
}

type fakeChangeLogStore struct {
	entries []models.ChangeLog
}

func (f *fakeChangeLogStore) Insert(_ context.Context, entry *models.ChangeLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeChangeLogStore) List(context.Context, models.ChangeLogFilter) ([]models.ChangeLog, int, error) {
	return f.entries, len(f.entries), nil
}

func newLockerServiceForTest(repo *fakeLockerRepo) *LockerService {
	return NewLockerService(repo, &fakeLockerParticipants{participants: map[int64]models.Participant{}}, nil, nil, nil, zap.NewNop())
}

func TestLockerList_DerivesOccupancy(t *testing.T) {
	repo := &fakeLockerRepo{
		lockers: []models.Locker{{ID: 1, Number: "A-1"}, {ID: 2, Number: "A-2"}},
		rentals: []models.LockerRental{
			{ID: 10, LockerID: 1, ParticipantID: 7, Status: models.RentalStatusActive},
		},
	}
	svc := NewLockerService(repo, &fakeLockerParticipants{
		participants: map[int64]models.Participant{7: {ID: 7, FirstName: "Anna"}},
	}, nil, nil, nil, zap.NewNop())

	views, err := svc.List(context.Background(), models.LockerFilter{})
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, models.LockerStatusOccupied, views[0].Status)
	require.NotNil(t, views[0].Rental)
	assert.Equal(t, int64(10), views[0].Rental.ID)
	require.NotNil(t, views[0].Occupant)
	assert.Equal(t, "Anna", views[0].Occupant.FirstName)

	assert.Equal(t, models.LockerStatusAvailable, views[1].Status)
	assert.Nil(t, views[1].Rental)
}

func TestLockerList_OccupiedStatusHonorsBothRentalStatusStrings(t *testing.T) {
	repo := &fakeLockerRepo{
		lockers: []models.Locker{{ID: 1}, {ID: 2}, {ID: 3}},
		rentals: []models.LockerRental{
			{ID: 10, LockerID: 1, Status: models.RentalStatusActive},
			{ID: 11, LockerID: 2, Status: models.RentalStatusOccupied},
			{ID: 12, LockerID: 3, Status: models.RentalStatusClosed},
		},
	}
	svc := newLockerServiceForTest(repo)

	views, err := svc.List(context.Background(), models.LockerFilter{})
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, models.LockerStatusOccupied, views[0].Status)
	assert.Equal(t, models.LockerStatusOccupied, views[1].Status)
	assert.Equal(t, models.LockerStatusAvailable, views[2].Status)
}

func TestLockerList_StatusFilterAppliedAfterDerivation(t *testing.T) {
	repo := &fakeLockerRepo{
		lockers: []models.Locker{{ID: 1}, {ID: 2}},
		rentals: []models.LockerRental{{ID: 10, LockerID: 1, Status: models.RentalStatusActive}},
	}
	svc := newLockerServiceForTest(repo)

	occupied, err := svc.List(context.Background(), models.LockerFilter{Status: models.LockerStatusOccupied})
	require.NoError(t, err)
	require.Len(t, occupied, 1)
	assert.Equal(t, int64(1), occupied[0].ID)

	available, err := svc.List(context.Background(), models.LockerFilter{Status: models.LockerStatusAvailable})
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, int64(2), available[0].ID)
}

func TestResolveOccupancy_LowestRentalIDWinsRegardlessOfOrder(t *testing.T) {
	svc := newLockerServiceForTest(&fakeLockerRepo{})

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	a := models.LockerRental{ID: 5, LockerID: 1, Status: models.RentalStatusActive, StartDate: first}
	b := models.LockerRental{ID: 9, LockerID: 1, Status: models.RentalStatusOccupied, StartDate: later}

	forward := svc.resolveOccupancy([]models.LockerRental{a, b})
	reversed := svc.resolveOccupancy([]models.LockerRental{b, a})

	require.Contains(t, forward, int64(1))
	require.Contains(t, reversed, int64(1))
	assert.Equal(t, int64(5), forward[1].ID)
	assert.Equal(t, int64(5), reversed[1].ID)
}

func TestLockerCreate_DuplicateNumberConflict(t *testing.T) {
	repo := &fakeLockerRepo{numberExists: true}
	svc := newLockerServiceForTest(repo)

	_, err := svc.Create(context.Background(), nil, CreateLockerRequest{Number: "A-12"})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Nil(t, repo.created, "storage must not be touched on conflict")
}

func TestLockerUpdate_EmptyStringsUnsetOptionalFields(t *testing.T) {
	zone := "B"
	cost := 500.0
	repo := &fakeLockerRepo{
		lockers: []models.Locker{{ID: 1, Number: "A-1", Zone: &zone, MonthlyRentalCost: &cost}},
	}
	svc := newLockerServiceForTest(repo)

	empty := ""
	view, err := svc.Update(context.Background(), nil, 1, UpdateLockerRequest{
		Zone:              &empty,
		MonthlyRentalCost: &empty,
	})
	require.NoError(t, err)

	assert.Nil(t, view.Zone)
	assert.Nil(t, view.MonthlyRentalCost)
	assert.Equal(t, "A-1", view.Number, "number survives untouched")
	require.NotNil(t, repo.updated)
	assert.Nil(t, repo.updated.Zone)
}

func TestLockerUpdate_EmptyNumberIgnored(t *testing.T) {
	repo := &fakeLockerRepo{lockers: []models.Locker{{ID: 1, Number: "A-1"}}}
	svc := newLockerServiceForTest(repo)

	empty := " "
	view, err := svc.Update(context.Background(), nil, 1, UpdateLockerRequest{Number: &empty})
	require.NoError(t, err)
	assert.Equal(t, "A-1", view.Number)
}

func TestLockerCreateRental_OccupiedLockerConflict(t *testing.T) {
	repo := &fakeLockerRepo{
		rentals: []models.LockerRental{{ID: 10, LockerID: 1, Status: models.RentalStatusActive}},
	}
	svc := newLockerServiceForTest(repo)

	_, err := svc.CreateRental(context.Background(), nil, &models.LockerRental{LockerID: 1, ParticipantID: 2})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.createdRental)
}

func TestLockerCloseRental_SetsClosedStatus(t *testing.T) {
	repo := &fakeLockerRepo{
		rentals: []models.LockerRental{{ID: 10, LockerID: 1, Status: models.RentalStatusActive}},
	}
	svc := newLockerServiceForTest(repo)

	rental, err := svc.CloseRental(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusClosed, rental.Status)
	require.NotNil(t, repo.updatedRental)
	assert.Equal(t, models.RentalStatusClosed, repo.updatedRental.Status)
}

func TestLockerRentalMutationsInvalidateCardAndRecordAudit(t *testing.T) {
	repo := &fakeLockerRepo{}
	cards := &fakeCardCache{}
	audit := &fakeChangeLogStore{}
	svc := NewLockerService(repo, &fakeLockerParticipants{}, NewChangeLogService(audit, zap.NewNop()), cards, nil, zap.NewNop())

	actor := int64(1)
	opened, err := svc.CreateRental(context.Background(), &actor, &models.LockerRental{LockerID: 1, ParticipantID: 7})
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, cards.invalidated, "cached card must be dropped when a rental opens")

	repo.rentals = []models.LockerRental{*opened}
	_, err = svc.CloseRental(context.Background(), &actor, opened.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 7}, cards.invalidated, "cached card must be dropped when a rental closes")

	require.Len(t, audit.entries, 2)
	assert.Equal(t, "locker_rentals", audit.entries[0].TableName)
	assert.Equal(t, models.ChangeActionCreate, audit.entries[0].ActionType)
	assert.Equal(t, models.ChangeActionUpdate, audit.entries[1].ActionType)
	assert.Equal(t, opened.ID, audit.entries[1].RecordID)
}

func TestLockerCreateAndUpdateRecordAudit(t *testing.T) {
	zone := "B"
	repo := &fakeLockerRepo{lockers: []models.Locker{{ID: 1, Number: "A-1"}}}
	audit := &fakeChangeLogStore{}
	svc := NewLockerService(repo, &fakeLockerParticipants{}, NewChangeLogService(audit, zap.NewNop()), nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), nil, CreateLockerRequest{Number: "C-3"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), nil, 1, UpdateLockerRequest{Zone: &zone})
	require.NoError(t, err)

	require.Len(t, audit.entries, 2)
	assert.Equal(t, "lockers", audit.entries[0].TableName)
	assert.Equal(t, models.ChangeActionCreate, audit.entries[0].ActionType)
	assert.Equal(t, "lockers", audit.entries[1].TableName)
	assert.Equal(t, models.ChangeActionUpdate, audit.entries[1].ActionType)
}

package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitclub-crm/fitclub-api/internal/models"
)

func newLockerRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func lockerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "number", "zone", "condition", "monthly_rental_cost", "notes"})
}

func TestLockerRepositoryListFiltersByZone(t *testing.T) {
	db, mock, cleanup := newLockerRepoMock(t)
	defer cleanup()
	repo := NewLockerRepository(db)

	mock.ExpectQuery(`FROM lockers WHERE 1=1 AND zone = \$1 ORDER BY number`).
		WithArgs("A").
		WillReturnRows(lockerRows().AddRow(1, "A-1", "A", "good", nil, nil))

	lockers, err := repo.ListLockers(context.Background(), models.LockerFilter{Zone: "A"})
	require.NoError(t, err)
	require.Len(t, lockers, 1)
	assert.Equal(t, "A-1", lockers[0].Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockerRepositoryExistsByNumber(t *testing.T) {
	db, mock, cleanup := newLockerRepoMock(t)
	defer cleanup()
	repo := NewLockerRepository(db)

	mock.ExpectQuery(`SELECT 1 FROM lockers WHERE number = \$1 LIMIT 1`).
		WithArgs("A-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByNumber(context.Background(), "A-1", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	// excluding the locker's own id on update
	mock.ExpectQuery(`SELECT 1 FROM lockers WHERE number = \$1 AND id <> \$2 LIMIT 1`).
		WithArgs("A-1", int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err = repo.ExistsByNumber(context.Background(), "A-1", 5)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockerRepositoryCreateLockerReturnsID(t *testing.T) {
	db, mock, cleanup := newLockerRepoMock(t)
	defer cleanup()
	repo := NewLockerRepository(db)

	mock.ExpectQuery(`INSERT INTO lockers`).
		WithArgs("B-3", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	locker := &models.Locker{Number: "B-3"}
	require.NoError(t, repo.CreateLocker(context.Background(), locker))
	assert.Equal(t, int64(42), locker.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockerRepositoryListOccupyingRentals(t *testing.T) {
	db, mock, cleanup := newLockerRepoMock(t)
	defer cleanup()
	repo := NewLockerRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "locker_id", "participant_id", "start_date", "actual_end_date", "status", "rental_cost",
		"payment_period", "auto_renew", "key_issued", "key_issue_date", "key_return_date", "payment_id", "notes",
	}).
		AddRow(5, 1, 7, time.Now(), nil, models.RentalStatusActive, nil, nil, false, false, nil, nil, nil, nil).
		AddRow(9, 1, 8, time.Now(), nil, models.RentalStatusOccupied, nil, nil, false, false, nil, nil, nil, nil)

	mock.ExpectQuery(`FROM locker_rentals WHERE status IN \(\$1, \$2\) ORDER BY locker_id, id`).
		WithArgs(models.RentalStatusActive, models.RentalStatusOccupied).
		WillReturnRows(rows)

	rentals, err := repo.ListOccupyingRentals(context.Background())
	require.NoError(t, err)
	require.Len(t, rentals, 2)
	assert.Equal(t, int64(5), rentals[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockerRepositoryUpdateRental(t *testing.T) {
	db, mock, cleanup := newLockerRepoMock(t)
	defer cleanup()
	repo := NewLockerRepository(db)

	mock.ExpectExec(`UPDATE locker_rentals SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rental := &models.LockerRental{ID: 5, LockerID: 1, ParticipantID: 7, Status: models.RentalStatusClosed}
	require.NoError(t, repo.UpdateRental(context.Background(), rental))
	assert.NoError(t, mock.ExpectationsWereMet())
}

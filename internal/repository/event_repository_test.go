package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRepositoryParticipationsOrderedByRegistration(t *testing.T) {
	db, mock, cleanup := newLockerRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "event_id", "participant_id", "registration_date", "paid", "payment_id",
		"status", "notes", "event_name", "event_date",
	}).
		AddRow(4, 2, 7, time.Now(), true, nil, "registered", nil, "Open day", time.Now().Add(-time.Hour)).
		AddRow(3, 1, 7, time.Now().Add(-48*time.Hour), false, nil, "registered", nil, "Marathon", time.Now().Add(time.Hour))

	// ordered by when the participant registered, not by event date
	mock.ExpectQuery(`ORDER BY ep.registration_date DESC, ep.id DESC`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	participations, err := repo.ListParticipationsByParticipant(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, participations, 2)
	assert.Equal(t, "Open day", participations[0].EventName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryParticipationExists(t *testing.T) {
	db, mock, cleanup := newLockerRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery(`SELECT 1 FROM event_participants WHERE event_id = \$1 AND participant_id = \$2 LIMIT 1`).
		WithArgs(int64(1), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ParticipationExists(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitclub-crm/fitclub-api/internal/models"
)

func participantRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "first_name", "last_name", "email", "phone", "birth_date", "emergency_contact", "emergency_phone",
		"address", "join_date", "is_active", "notes", "participant_type", "position_id", "created_at", "updated_at",
	})
}

func TestParticipantRepositoryListDefaultsSortAndPaging(t *testing.T) {
	db, mock, cleanup := newLockerRepoMock(t)
	defer cleanup()
	repo := NewParticipantRepository(db)

	rows := participantRows().AddRow(
		1, "Anna", "Ivanova", "anna@club.local", nil, time.Now(), nil, nil,
		nil, time.Now(), true, nil, models.ParticipantTypeMember, nil, time.Now(), time.Now())

	mock.ExpectQuery(`FROM participants WHERE 1=1 ORDER BY last_name ASC, first_name ASC LIMIT 20 OFFSET 0`).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM participants WHERE 1=1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.ParticipantFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepositoryListSearchIsCaseInsensitive(t *testing.T) {
	db, mock, cleanup := newLockerRepoMock(t)
	defer cleanup()
	repo := NewParticipantRepository(db)

	mock.ExpectQuery(`LOWER\(first_name\) LIKE \$1`).
		WithArgs("%anna%").
		WillReturnRows(participantRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM participants`).
		WithArgs("%anna%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.ParticipantFilter{Search: "Anna"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepositoryFindByIDNoRows(t *testing.T) {
	db, mock, cleanup := newLockerRepoMock(t)
	defer cleanup()
	repo := NewParticipantRepository(db)

	mock.ExpectQuery(`FROM participants WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnRows(participantRows())

	_, err := repo.FindByID(context.Background(), 404)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newLockerRepoMock(t)
	defer cleanup()
	repo := NewParticipantRepository(db)

	mock.ExpectQuery(`SELECT 1 FROM participants WHERE LOWER\(email\) = LOWER\(\$1\) LIMIT 1`).
		WithArgs("anna@club.local").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "anna@club.local", 0)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepositoryCreateReturnsID(t *testing.T) {
	db, mock, cleanup := newLockerRepoMock(t)
	defer cleanup()
	repo := NewParticipantRepository(db)

	mock.ExpectQuery(`INSERT INTO participants`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	participant := &models.Participant{FirstName: "Anna", LastName: "Ivanova"}
	require.NoError(t, repo.Create(context.Background(), participant))
	assert.Equal(t, int64(7), participant.ID)
	assert.False(t, participant.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newLockerRepoMock(t)
	defer cleanup()
	repo := NewParticipantRepository(db)

	mock.ExpectExec(`UPDATE participants SET is_active = false`).
		WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

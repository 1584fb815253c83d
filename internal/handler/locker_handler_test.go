package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitclub-crm/fitclub-api/internal/repository"
	"github.com/fitclub-crm/fitclub-api/internal/service"
)

func newLockerHandlerForTest(t *testing.T) (*LockerHandler, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	svc := service.NewLockerService(
		repository.NewLockerRepository(sqlxDB),
		repository.NewParticipantRepository(sqlxDB),
		nil,
		nil,
		nil,
		zap.NewNop(),
	)
	return NewLockerHandler(svc), mock, func() { db.Close() }
}

func TestLockerHandlerListEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, mock, cleanup := newLockerHandlerForTest(t)
	defer cleanup()

	mock.ExpectQuery(`FROM lockers WHERE 1=1 ORDER BY number`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "zone", "condition", "monthly_rental_cost", "notes"}))
	mock.ExpectQuery(`FROM locker_rentals WHERE status IN`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "locker_id", "participant_id", "start_date", "actual_end_date",
			"status", "rental_cost", "payment_period", "auto_renew", "key_issued", "key_issue_date",
			"key_return_date", "payment_id", "notes"}))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/lockers", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockerHandlerGetInvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, cleanup := newLockerHandlerForTest(t)
	defer cleanup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/lockers/abc", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLockerHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, cleanup := newLockerHandlerForTest(t)
	defer cleanup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/lockers", bytes.NewBufferString(`{"number":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLockerHandlerCreateDuplicateNumber(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, mock, cleanup := newLockerHandlerForTest(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT 1 FROM lockers WHERE number = \$1 LIMIT 1`).
		WithArgs("A-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/lockers", bytes.NewBufferString(`{"number":"A-1"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitclub-crm/fitclub-api/internal/models"
)

func attendanceMark(attended bool, rating *int, sessionDate time.Time) models.TrainingAttendanceDetail {
	return models.TrainingAttendanceDetail{
		TrainingAttendance: models.TrainingAttendance{Attended: attended, Rating: rating},
		SessionDate:        sessionDate,
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestActiveSubscriptionCost_OnlyActiveCounted(t *testing.T) {
	subs := []models.SubscriptionDetail{
		{Subscription: models.Subscription{Status: models.SubscriptionStatusActive}, TariffPrice: floatPtr(1500)},
		{Subscription: models.Subscription{Status: models.SubscriptionStatusCancelled}, TariffPrice: floatPtr(3000)},
	}
	assert.Equal(t, 1500.0, ActiveSubscriptionCost(subs))
}

func TestActiveSubscriptionCost_MissingTariffContributesZero(t *testing.T) {
	subs := []models.SubscriptionDetail{
		{Subscription: models.Subscription{Status: models.SubscriptionStatusActive}, TariffPrice: nil},
		{Subscription: models.Subscription{Status: models.SubscriptionStatusActive}, TariffPrice: floatPtr(990.50)},
	}
	assert.Equal(t, 990.50, ActiveSubscriptionCost(subs))
}

func TestAttendancePercentage_ZeroRecords(t *testing.T) {
	assert.Equal(t, 0.0, AttendancePercentage(nil))
}

func TestAttendancePercentage_OneDecimal(t *testing.T) {
	now := time.Now()
	marks := []models.TrainingAttendanceDetail{
		attendanceMark(true, nil, now),
		attendanceMark(true, nil, now),
		attendanceMark(false, nil, now),
	}
	// 2/3 = 66.666... rounds to 66.7
	assert.Equal(t, 66.7, AttendancePercentage(marks))
}

func TestAverageRating_AbsentWhenNoRatings(t *testing.T) {
	marks := []models.TrainingAttendanceDetail{
		attendanceMark(true, nil, time.Now()),
		attendanceMark(false, nil, time.Now()),
	}
	assert.Nil(t, AverageRating(marks))
}

func TestAverageRating_MeanOfNonNull(t *testing.T) {
	marks := []models.TrainingAttendanceDetail{
		attendanceMark(true, intPtr(4), time.Now()),
		attendanceMark(true, intPtr(5), time.Now()),
		attendanceMark(true, nil, time.Now()),
	}
	avg := AverageRating(marks)
	require.NotNil(t, avg)
	assert.Equal(t, 4.5, *avg)
}

func TestTotalSpent_CompletedOnly(t *testing.T) {
	payments := []models.Payment{
		{Amount: 1000, Status: models.PaymentStatusCompleted},
		{Amount: 500, Status: models.PaymentStatusPending},
		{Amount: 250.25, Status: models.PaymentStatusCompleted},
		{Amount: 300, Status: models.PaymentStatusRefunded},
	}
	assert.Equal(t, 1250.25, TotalSpent(payments))
}

func TestAge_CalendarExact(t *testing.T) {
	birth := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 23, Age(birth, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24, Age(birth, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24, Age(birth, time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)))
}

func TestAge_ZeroValueBirthDate(t *testing.T) {
	assert.Equal(t, 0, Age(time.Time{}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAttendanceSeries_OmitsEmptyDatesAndSortsAscending(t *testing.T) {
	now := time.Date(2024, 5, 30, 12, 0, 0, 0, time.UTC)
	marks := []models.TrainingAttendanceDetail{
		attendanceMark(true, nil, time.Date(2024, 5, 28, 10, 0, 0, 0, time.UTC)),
		attendanceMark(false, nil, time.Date(2024, 5, 28, 18, 0, 0, 0, time.UTC)),
		attendanceMark(true, nil, time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)),
		// outside the trailing 30 days, dropped
		attendanceMark(true, nil, time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)),
	}

	points := AttendanceSeries(marks, now)
	require.Len(t, points, 2)

	assert.Equal(t, "2024-05-10", points[0].Date)
	assert.Equal(t, 1, points[0].Attended)
	assert.Equal(t, 1, points[0].Total)

	assert.Equal(t, "2024-05-28", points[1].Date)
	assert.Equal(t, 1, points[1].Attended)
	assert.Equal(t, 2, points[1].Total)
}

func TestComputeStatistics_ZeroAttendance(t *testing.T) {
	stats := ComputeStatistics(nil, nil, nil, time.Time{}, time.Now())

	assert.Equal(t, 0.0, stats.AttendancePercentage)
	assert.Nil(t, stats.AverageRating)
	assert.Equal(t, 0.0, stats.TotalSpent)
	assert.Empty(t, stats.AttendanceSeries)
}

package service

import (
	"math"
	"sort"
	"time"

	"github.com/fitclub-crm/fitclub-api/internal/dto"
	"github.com/fitclub-crm/fitclub-api/internal/models"
)

// attendanceSeriesWindow is the trailing window covered by the
// per-day attendance series on the participant card.
const attendanceSeriesWindow = 30 * 24 * time.Hour

// ComputeStatistics derives the participant figures from already loaded
// records. It is a pure function of its inputs.
func ComputeStatistics(
	subscriptions []models.SubscriptionDetail,
	attendance []models.TrainingAttendanceDetail,
	payments []models.Payment,
	birthDate time.Time,
	now time.Time,
) dto.ParticipantStatistics {
	return dto.ParticipantStatistics{
		ActiveSubscriptionCost: ActiveSubscriptionCost(subscriptions),
		AttendancePercentage:   AttendancePercentage(attendance),
		AverageRating:          AverageRating(attendance),
		TotalSpent:             TotalSpent(payments),
		Age:                    Age(birthDate, now),
		AttendanceSeries:       AttendanceSeries(attendance, now),
	}
}

// ActiveSubscriptionCost sums tariff prices over active subscriptions. A
// subscription without a resolvable tariff price contributes zero.
func ActiveSubscriptionCost(subscriptions []models.SubscriptionDetail) float64 {
	var total float64
	for _, sub := range subscriptions {
		if sub.Status != models.SubscriptionStatusActive {
			continue
		}
		if sub.TariffPrice == nil {
			continue
		}
		total += *sub.TariffPrice
	}
	return round2(total)
}

// AttendancePercentage is attended over total, as a percentage rounded to
// one decimal. Zero records yield 0, never a division fault.
func AttendancePercentage(attendance []models.TrainingAttendanceDetail) float64 {
	if len(attendance) == 0 {
		return 0
	}
	attended := 0
	for _, mark := range attendance {
		if mark.Attended {
			attended++
		}
	}
	pct := float64(attended) / float64(len(attendance)) * 100
	return math.Round(pct*10) / 10
}

// AverageRating is the mean of the non-null ratings. It returns nil, not
// zero, when no ratings exist.
func AverageRating(attendance []models.TrainingAttendanceDetail) *float64 {
	var sum, count int
	for _, mark := range attendance {
		if mark.Rating == nil {
			continue
		}
		sum += *mark.Rating
		count++
	}
	if count == 0 {
		return nil
	}
	avg := round2(float64(sum) / float64(count))
	return &avg
}

// TotalSpent sums completed payment amounts only.
func TotalSpent(payments []models.Payment) float64 {
	var total float64
	for _, payment := range payments {
		if payment.Status != models.PaymentStatusCompleted {
			continue
		}
		total += payment.Amount
	}
	return round2(total)
}

// Age is the exact calendar age in whole years: one less than the year
// difference while this year's birthday has not yet been reached.
func Age(birthDate, now time.Time) int {
	if birthDate.IsZero() {
		return 0
	}
	years := now.Year() - birthDate.Year()
	beforeBirthday := now.Month() < birthDate.Month() ||
		(now.Month() == birthDate.Month() && now.Day() < birthDate.Day())
	if beforeBirthday {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// AttendanceSeries buckets attendance marks by session date over the
// trailing 30 days. Dates without sessions are omitted, not zero-filled.
// Points come back in ascending date order.
func AttendanceSeries(attendance []models.TrainingAttendanceDetail, now time.Time) []dto.AttendancePoint {
	cutoff := now.Add(-attendanceSeriesWindow)

	type bucket struct {
		attended int
		total    int
	}
	buckets := make(map[string]*bucket)
	for _, mark := range attendance {
		if mark.SessionDate.Before(cutoff) || mark.SessionDate.After(now) {
			continue
		}
		day := mark.SessionDate.Format("2006-01-02")
		b := buckets[day]
		if b == nil {
			b = &bucket{}
			buckets[day] = b
		}
		b.total++
		if mark.Attended {
			b.attended++
		}
	}

	points := make([]dto.AttendancePoint, 0, len(buckets))
	for day, b := range buckets {
		points = append(points, dto.AttendancePoint{Date: day, Attended: b.attended, Total: b.total})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitclub-crm/fitclub-api/internal/dto"
	"github.com/fitclub-crm/fitclub-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestMergeNotes_DateDescendingWithStableTieBreak(t *testing.T) {
	tieDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	participant := &models.Participant{
		Notes:     strPtr("profile note"),
		UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	attendance := []models.TrainingAttendanceDetail{
		{
			TrainingAttendance: models.TrainingAttendance{Notes: strPtr("attendance note"), CreatedAt: tieDate},
			SessionTopic:       "yoga",
		},
	}
	payments := []models.Payment{
		{Notes: strPtr("payment note"), Amount: 1500, CreatedAt: tieDate},
	}

	entries := MergeNotes(participant, attendance, payments)
	require.Len(t, entries, 3)

	assert.Equal(t, "attendance note", entries[0].Content)
	assert.Equal(t, "training: yoga", entries[0].Source)
	assert.Equal(t, dto.NoteCategoryAttendance, entries[0].Category)

	assert.Equal(t, "payment note", entries[1].Content)
	assert.Equal(t, "payment: 1500.00", entries[1].Source)
	assert.Equal(t, dto.NoteCategoryPayment, entries[1].Category)

	assert.Equal(t, "profile note", entries[2].Content)
	assert.Equal(t, "profile", entries[2].Source)
	assert.Equal(t, dto.NoteCategoryGeneral, entries[2].Category)
}

func TestMergeNotes_SkipsBlankNotes(t *testing.T) {
	participant := &models.Participant{Notes: strPtr("   ")}
	attendance := []models.TrainingAttendanceDetail{
		{TrainingAttendance: models.TrainingAttendance{Notes: nil}},
	}
	payments := []models.Payment{{Notes: strPtr("")}}

	entries := MergeNotes(participant, attendance, payments)
	assert.Empty(t, entries)
}

func TestMergeNotes_TruncatedToTwentyMostRecent(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var payments []models.Payment
	for i := 0; i < 30; i++ {
		payments = append(payments, models.Payment{
			Notes:     strPtr(fmt.Sprintf("note %d", i)),
			Amount:    float64(i),
			CreatedAt: base.AddDate(0, 0, i),
		})
	}

	entries := MergeNotes(nil, nil, payments)
	require.Len(t, entries, 20)

	// newest first, oldest ten dropped
	assert.Equal(t, "note 29", entries[0].Content)
	assert.Equal(t, "note 10", entries[19].Content)
}

package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fitclub-crm/fitclub-api/internal/dto"
	"github.com/fitclub-crm/fitclub-api/internal/models"
)

// maxTimelineNotes caps the merged notes timeline.
const maxTimelineNotes = 20

// MergeNotes builds the reverse-chronological notes timeline from the
// three note sources. Entries with equal dates keep source order: profile
// first, then attendance, then payment. Pure function, no I/O.
func MergeNotes(
	participant *models.Participant,
	attendance []models.TrainingAttendanceDetail,
	payments []models.Payment,
) []dto.NoteEntry {
	entries := make([]dto.NoteEntry, 0, 1+len(attendance)+len(payments))

	if participant != nil && participant.Notes != nil && strings.TrimSpace(*participant.Notes) != "" {
		entries = append(entries, dto.NoteEntry{
			Date:     participant.UpdatedAt,
			Content:  *participant.Notes,
			Source:   "profile",
			Category: dto.NoteCategoryGeneral,
		})
	}

	for _, mark := range attendance {
		if mark.Notes == nil || strings.TrimSpace(*mark.Notes) == "" {
			continue
		}
		entries = append(entries, dto.NoteEntry{
			Date:     mark.CreatedAt,
			Content:  *mark.Notes,
			Source:   fmt.Sprintf("training: %s", mark.SessionTopic),
			Category: dto.NoteCategoryAttendance,
		})
	}

	for _, payment := range payments {
		if payment.Notes == nil || strings.TrimSpace(*payment.Notes) == "" {
			continue
		}
		entries = append(entries, dto.NoteEntry{
			Date:     payment.CreatedAt,
			Content:  *payment.Notes,
			Source:   fmt.Sprintf("payment: %.2f", payment.Amount),
			Category: dto.NoteCategoryPayment,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})

	if len(entries) > maxTimelineNotes {
		entries = entries[:maxTimelineNotes]
	}
	return entries
}

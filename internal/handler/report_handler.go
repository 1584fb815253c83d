package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/fitclub-crm/fitclub-api/internal/models"
	"github.com/fitclub-crm/fitclub-api/internal/service"
	"github.com/fitclub-crm/fitclub-api/pkg/response"
)

// ReportHandler streams CSV and PDF exports.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) stream(c *gin.Context, file *service.ReportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(200, file.ContentType, file.Content)
}

// MemberRoster godoc
// @Summary Export member roster
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "Export format (csv or pdf)"
// @Param type query string false "Filter by participant type"
// @Param active query bool false "Filter by active state"
// @Success 200 {file} file
// @Router /reports/members [get]
func (h *ReportHandler) MemberRoster(c *gin.Context) {
	filter := models.ParticipantFilter{
		ParticipantType: c.Query("type"),
		Active:          queryBool(c, "active"),
	}
	file, err := h.reports.MemberRoster(c.Request.Context(), filter, c.DefaultQuery("format", service.ReportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stream(c, file)
}

// PaymentHistory godoc
// @Summary Export payment history of one participant
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param id path int true "Participant ID"
// @Param format query string true "Export format (csv or pdf)"
// @Success 200 {file} file
// @Router /reports/participants/{id}/payments [get]
func (h *ReportHandler) PaymentHistory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.reports.PaymentHistory(c.Request.Context(), id, c.DefaultQuery("format", service.ReportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stream(c, file)
}

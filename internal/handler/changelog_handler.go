package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitclub-crm/fitclub-api/internal/models"
	"github.com/fitclub-crm/fitclub-api/internal/service"
	"github.com/fitclub-crm/fitclub-api/pkg/response"
)

// ChangeLogHandler exposes the audit trail endpoint.
type ChangeLogHandler struct {
	changes *service.ChangeLogService
}

// NewChangeLogHandler constructs ChangeLogHandler.
func NewChangeLogHandler(changes *service.ChangeLogService) *ChangeLogHandler {
	return &ChangeLogHandler{changes: changes}
}

// List godoc
// @Summary List change log entries
// @Tags ChangeLog
// @Produce json
// @Param table query string false "Filter by table name"
// @Param record_id query int false "Filter by record id"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /changelog [get]
func (h *ChangeLogHandler) List(c *gin.Context) {
	filter := models.ChangeLogFilter{
		TableName: c.Query("table"),
		RecordID:  queryInt64(c, "record_id"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "limit", 50),
	}
	entries, pagination, err := h.changes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

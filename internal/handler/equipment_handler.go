package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fitclub-crm/fitclub-api/internal/models"
	"github.com/fitclub-crm/fitclub-api/internal/service"
	appErrors "github.com/fitclub-crm/fitclub-api/pkg/errors"
	"github.com/fitclub-crm/fitclub-api/pkg/response"
)

// EquipmentHandler exposes equipment inventory and rental endpoints.
type EquipmentHandler struct {
	equipment *service.EquipmentService
}

// NewEquipmentHandler constructs EquipmentHandler.
func NewEquipmentHandler(equipment *service.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{equipment: equipment}
}

// List godoc
// @Summary List equipment
// @Tags Equipment
// @Produce json
// @Param type query string false "Filter by type"
// @Param condition query string false "Filter by condition"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /equipment [get]
func (h *EquipmentHandler) List(c *gin.Context) {
	filter := models.EquipmentFilter{
		Type:      c.Query("type"),
		Condition: c.Query("condition"),
		Search:    strings.TrimSpace(c.Query("search")),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "limit", 20),
	}
	items, pagination, err := h.equipment.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get equipment detail
// @Tags Equipment
// @Produce json
// @Param id path int true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Router /equipment/{id} [get]
func (h *EquipmentHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.equipment.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create equipment
// @Tags Equipment
// @Accept json
// @Produce json
// @Param payload body service.SaveEquipmentRequest true "Equipment payload"
// @Success 201 {object} response.Envelope
// @Router /equipment [post]
func (h *EquipmentHandler) Create(c *gin.Context) {
	var req service.SaveEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.equipment.Create(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update equipment
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path int true "Equipment ID"
// @Param payload body service.SaveEquipmentRequest true "Equipment payload"
// @Success 200 {object} response.Envelope
// @Router /equipment/{id} [put]
func (h *EquipmentHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SaveEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.equipment.Update(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete equipment
// @Tags Equipment
// @Produce json
// @Param id path int true "Equipment ID"
// @Success 204
// @Router /equipment/{id} [delete]
func (h *EquipmentHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.equipment.Delete(c.Request.Context(), actorID(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Rent godoc
// @Summary Open equipment rental
// @Tags Equipment
// @Accept json
// @Produce json
// @Param payload body service.RentEquipmentRequest true "Rental payload"
// @Success 201 {object} response.Envelope
// @Router /equipment/rentals [post]
func (h *EquipmentHandler) Rent(c *gin.Context) {
	var req service.RentEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rental, err := h.equipment.Rent(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rental)
}

// Return godoc
// @Summary Close equipment rental
// @Tags Equipment
// @Produce json
// @Param id path int true "Rental ID"
// @Success 200 {object} response.Envelope
// @Router /equipment/rentals/{id}/return [post]
func (h *EquipmentHandler) Return(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	rental, err := h.equipment.Return(c.Request.Context(), actorID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rental, nil)
}

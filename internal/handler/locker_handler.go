package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitclub-crm/fitclub-api/internal/models"
	"github.com/fitclub-crm/fitclub-api/internal/service"
	appErrors "github.com/fitclub-crm/fitclub-api/pkg/errors"
	"github.com/fitclub-crm/fitclub-api/pkg/response"
)

// LockerHandler exposes locker and locker rental endpoints.
type LockerHandler struct {
	lockers *service.LockerService
}

// NewLockerHandler constructs LockerHandler.
func NewLockerHandler(lockers *service.LockerService) *LockerHandler {
	return &LockerHandler{lockers: lockers}
}

// List godoc
// @Summary List lockers with derived occupancy
// @Tags Lockers
// @Produce json
// @Param zone query string false "Filter by zone"
// @Param condition query string false "Filter by condition"
// @Param status query string false "Filter by derived status (available, occupied)"
// @Success 200 {object} response.Envelope
// @Router /lockers [get]
func (h *LockerHandler) List(c *gin.Context) {
	filter := models.LockerFilter{
		Zone:      c.Query("zone"),
		Condition: c.Query("condition"),
		Status:    c.Query("status"),
	}
	lockers, err := h.lockers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lockers, nil)
}

// Get godoc
// @Summary Get locker detail with derived occupancy
// @Tags Lockers
// @Produce json
// @Param id path int true "Locker ID"
// @Success 200 {object} response.Envelope
// @Router /lockers/{id} [get]
func (h *LockerHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	locker, err := h.lockers.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, locker, nil)
}

// Create godoc
// @Summary Create locker
// @Tags Lockers
// @Accept json
// @Produce json
// @Param payload body service.CreateLockerRequest true "Locker payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lockers [post]
func (h *LockerHandler) Create(c *gin.Context) {
	var req service.CreateLockerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	locker, err := h.lockers.Create(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, locker)
}

// Update godoc
// @Summary Update locker
// @Description Partial update; an explicit empty string clears a field
// @Tags Lockers
// @Accept json
// @Produce json
// @Param id path int true "Locker ID"
// @Param payload body service.UpdateLockerRequest true "Locker payload"
// @Success 200 {object} response.Envelope
// @Router /lockers/{id} [put]
func (h *LockerHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateLockerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	locker, err := h.lockers.Update(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, locker, nil)
}

// AvailableParticipants godoc
// @Summary List participants eligible for a locker
// @Tags Lockers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lockers/available-participants [get]
func (h *LockerHandler) AvailableParticipants(c *gin.Context) {
	participants, err := h.lockers.AvailableParticipants(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participants, nil)
}

// CreateRental godoc
// @Summary Open a locker rental
// @Tags Lockers
// @Accept json
// @Produce json
// @Param payload body models.LockerRental true "Rental payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lockers/rentals [post]
func (h *LockerHandler) CreateRental(c *gin.Context) {
	var rental models.LockerRental
	if err := c.ShouldBindJSON(&rental); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.lockers.CreateRental(c.Request.Context(), actorID(c), &rental)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// CloseRental godoc
// @Summary Close a locker rental
// @Tags Lockers
// @Produce json
// @Param id path int true "Rental ID"
// @Success 200 {object} response.Envelope
// @Router /lockers/rentals/{id}/close [post]
func (h *LockerHandler) CloseRental(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	rental, err := h.lockers.CloseRental(c.Request.Context(), actorID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rental, nil)
}

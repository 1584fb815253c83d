package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitclub-crm/fitclub-api/internal/service"
	appErrors "github.com/fitclub-crm/fitclub-api/pkg/errors"
	"github.com/fitclub-crm/fitclub-api/pkg/response"
)

// TariffHandler exposes tariff plan endpoints.
type TariffHandler struct {
	tariffs *service.TariffService
}

// NewTariffHandler constructs TariffHandler.
func NewTariffHandler(tariffs *service.TariffService) *TariffHandler {
	return &TariffHandler{tariffs: tariffs}
}

// List godoc
// @Summary List tariff plans
// @Tags Tariffs
// @Produce json
// @Param active query bool false "Only active plans"
// @Success 200 {object} response.Envelope
// @Router /tariffs [get]
func (h *TariffHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	tariffs, err := h.tariffs.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tariffs, nil)
}

// Get godoc
// @Summary Get tariff plan
// @Tags Tariffs
// @Produce json
// @Param id path int true "Tariff ID"
// @Success 200 {object} response.Envelope
// @Router /tariffs/{id} [get]
func (h *TariffHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	tariff, err := h.tariffs.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tariff, nil)
}

// Create godoc
// @Summary Create tariff plan
// @Tags Tariffs
// @Accept json
// @Produce json
// @Param payload body service.SaveTariffRequest true "Tariff payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tariffs [post]
func (h *TariffHandler) Create(c *gin.Context) {
	var req service.SaveTariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tariff, err := h.tariffs.Create(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tariff)
}

// Update godoc
// @Summary Update tariff plan
// @Tags Tariffs
// @Accept json
// @Produce json
// @Param id path int true "Tariff ID"
// @Param payload body service.SaveTariffRequest true "Tariff payload"
// @Success 200 {object} response.Envelope
// @Router /tariffs/{id} [put]
func (h *TariffHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SaveTariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tariff, err := h.tariffs.Update(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tariff, nil)
}

// Delete godoc
// @Summary Deactivate tariff plan
// @Description Plans referenced by subscriptions are deactivated, never removed
// @Tags Tariffs
// @Produce json
// @Param id path int true "Tariff ID"
// @Success 204
// @Router /tariffs/{id} [delete]
func (h *TariffHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.tariffs.Deactivate(c.Request.Context(), actorID(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

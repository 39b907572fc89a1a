package handlers

import (
	"net/http"

	"generator_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// CorrectionRequest overwrites counters by hand. Omitted fields stay unchanged.
type CorrectionRequest struct {
	Fuel        *float64 `json:"fuel,omitempty" example:"171"`
	EngineHours *float64 `json:"engine_hours,omitempty" example:"1200.5"`
	LastOil     *float64 `json:"last_oil,omitempty" example:"1100"`
	LastSpark   *float64 `json:"last_spark,omitempty" example:"1000"`
	Actor       string   `json:"actor,omitempty" example:"Olena"`
}

// @Summary      Correct state
// @Description  Sets fuel, engine hours or the hours of the last oil and spark plug change. Values must be within 0..100000. Refused with 409 while a shift is running.
// @Tags         state
// @Accept       json
// @Produce      json
// @Param        body  body      CorrectionRequest  true  "Values to set"
// @Success      200   {object}  models.GeneratorState
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]interface{}
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/state/correct [post]
// @Security     BearerAuth
func (h *Handler) correctState(c *gin.Context) {
	var req CorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	actor := h.actorFor(c, req.Actor)
	st, err := h.services.Correct(c.Request.Context(), service.CorrectionRequest{
		Fuel:        req.Fuel,
		EngineHours: req.EngineHours,
		LastOil:     req.LastOil,
		LastSpark:   req.LastSpark,
		Actor:       actor,
	})
	if err != nil {
		h.serviceError(c, "failed to correct state", "state_correct_failed", err, "actor", actor)
		return
	}
	c.JSON(http.StatusOK, st)
}

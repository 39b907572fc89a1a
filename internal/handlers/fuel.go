package handlers

import (
	"net/http"

	"generator_ledger/internal/models"
	"generator_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// RefuelRequest is the payload of a delivered refill.
type RefuelRequest struct {
	Liters  float64 `json:"liters" binding:"required" example:"20"`
	Receipt string  `json:"receipt,omitempty" example:"A-1"`
	Driver  string  `json:"driver,omitempty" example:"Petro"`
	Actor   string  `json:"actor,omitempty" example:"Olena"`
}

// MaintenanceRequest records an oil or spark plug service.
type MaintenanceRequest struct {
	// Allowed: oil, spark
	Kind  string `json:"kind" binding:"required" example:"oil"`
	Actor string `json:"actor,omitempty" example:"Mykola"`
}

// @Summary      Record refill
// @Description  Logs a refill. Liters are added to the local level only while the ledger is offline.
// @Tags         fuel
// @Accept       json
// @Produce      json
// @Param        body  body      RefuelRequest  true  "Refill payload"
// @Success      200   {object}  service.RefuelResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/fuel/refuel [post]
// @Security     BearerAuth
func (h *Handler) refuel(c *gin.Context) {
	var req RefuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	actor := h.actorFor(c, req.Actor)
	res, err := h.services.Refuel(c.Request.Context(), service.RefuelRequest{
		Liters:  req.Liters,
		Receipt: req.Receipt,
		Driver:  req.Driver,
		Actor:   actor,
	})
	if err != nil {
		h.serviceError(c, "failed to record refill", "refuel_failed", err, "liters", req.Liters, "actor", actor)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Check fuel level
// @Description  Raises a low-fuel alert when the level is under the threshold and the cooldown has passed.
// @Tags         fuel
// @Produce      json
// @Success      200  {object}  service.FuelAlert
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/fuel/check [post]
// @Security     BearerAuth
func (h *Handler) checkFuel(c *gin.Context) {
	alert, err := h.services.CheckLow(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to check fuel", "fuel_check_failed", err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// @Summary      Maintenance status
// @Tags         maintenance
// @Produce      json
// @Param        limit  query     int  false  "History length"  default(50)
// @Success      200    {object}  map[string]interface{}  "status, history"
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/maintenance [get]
// @Security     BearerAuth
func (h *Handler) getMaintenance(c *gin.Context) {
	ctx := c.Request.Context()
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	status, err := h.services.Maintenance.Status(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load maintenance", "maintenance_status_failed", err)
		return
	}
	history, err := h.services.History(ctx, limit)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load maintenance", "maintenance_history_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "history": history})
}

// @Summary      Record maintenance
// @Tags         maintenance
// @Accept       json
// @Produce      json
// @Param        body  body      MaintenanceRequest  true  "Service payload"
// @Success      200   {object}  models.MaintenanceRecord
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/maintenance [post]
// @Security     BearerAuth
func (h *Handler) recordMaintenance(c *gin.Context) {
	var req MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	kind, err := models.ParseMaintenanceKind(req.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := h.actorFor(c, req.Actor)
	rec, err := h.services.Record(c.Request.Context(), kind, actor)
	if err != nil {
		h.serviceError(c, "failed to record maintenance", "maintenance_record_failed", err, "kind", kind)
		return
	}
	c.JSON(http.StatusOK, rec)
}

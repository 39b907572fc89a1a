package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// OverrideRequest names who switched the ledger mode.
type OverrideRequest struct {
	Actor string `json:"actor,omitempty" example:"admin"`
}

// bindOverride accepts an empty body.
func (h *Handler) bindOverride(c *gin.Context) (string, bool) {
	var req OverrideRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
			return "", false
		}
	}
	return h.actorFor(c, req.Actor), true
}

// @Summary      Force offline
// @Description  Stops all ledger traffic until forced back online. Local accounting takes over.
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        body  body      OverrideRequest  false  "Actor"
// @Success      200   {object}  models.HealthState
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/sync/offline [post]
// @Security     BearerAuth
func (h *Handler) forceOffline(c *gin.Context) {
	actor, ok := h.bindOverride(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.services.ForceOffline(ctx, actor); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to switch offline", "force_offline_failed", err)
		return
	}
	h.respondHealth(c)
}

// @Summary      Force online
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        body  body      OverrideRequest  false  "Actor"
// @Success      200   {object}  models.HealthState
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/sync/online [post]
// @Security     BearerAuth
func (h *Handler) forceOnline(c *gin.Context) {
	actor, ok := h.bindOverride(c)
	if !ok {
		return
	}
	if err := h.services.ForceOnline(c.Request.Context(), actor); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to switch online", "force_online_failed", err)
		return
	}
	h.respondHealth(c)
}

// @Summary      Ledger health
// @Tags         sync
// @Produce      json
// @Success      200  {object}  models.HealthState
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sync/health [get]
// @Security     BearerAuth
func (h *Handler) ledgerHealth(c *gin.Context) {
	h.respondHealth(c)
}

func (h *Handler) respondHealth(c *gin.Context) {
	hs, err := h.services.Health.Snapshot(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load ledger health", "health_snapshot_failed", err)
		return
	}
	c.JSON(http.StatusOK, hs)
}

// @Summary      Run reconciliation
// @Description  Runs one push/pull cycle against the ledger now.
// @Tags         sync
// @Produce      json
// @Success      200  {object}  service.CycleReport
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/sync/run [post]
// @Security     BearerAuth
func (h *Handler) runSync(c *gin.Context) {
	rep, err := h.services.RunCycle(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, "ledger sync failed", "sync_run_failed", err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// queryInt reads an optional non-negative integer parameter, writing a 400 when malformed.
func queryInt(c *gin.Context, name string) (int, bool) {
	s := c.Query(name)
	if s == "" {
		return 0, true
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid '" + name + "'; use a non-negative integer"})
		return 0, false
	}
	return v, true
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"generator_ledger/internal/models"
	"generator_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK      = "ok"
	statusStarted = "started"
	statusStopped = "stopped"

	errStartShift      = "failed to start shift"
	errStopShift       = "failed to stop shift"
	errGetState        = "failed to load state"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if err != nil {
		fields := append([]interface{}{"err", err, "request_id", c.GetString(ctxRequestID)}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// serviceError maps domain errors to client responses and everything else to 500.
// A refused transition is a 409 carrying what is actually running.
func (h *Handler) serviceError(c *gin.Context, userMsg, logKey string, err error, kv ...interface{}) {
	var se *models.ShiftError
	switch {
	case errors.As(err, &se):
		h.log.Infow(logKey, append([]interface{}{"reason", se.Reason}, kv...)...)
		c.JSON(http.StatusConflict, conflictResponse{
			Error:       se.Error(),
			Reason:      string(se.Reason),
			ActiveShift: se.Active,
			StartTime:   se.StartTime,
			Previous:    se.Previous,
		})
	case errors.Is(err, service.ErrInvalidShift),
		errors.Is(err, service.ErrInvalidLiters),
		errors.Is(err, service.ErrInvalidCorrection),
		errors.Is(err, service.ErrUnknownPerson),
		errors.Is(err, service.ErrEmptyActor):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, userMsg, logKey, err, kv...)
	}
}

// actorFor falls back to the authenticated user when the body names nobody:
// the personnel name bound to the user, else "user#<id>".
func (h *Handler) actorFor(c *gin.Context, given string) string {
	if a := strings.TrimSpace(given); a != "" {
		return a
	}
	id, ok := c.Get(ctxUserID)
	if !ok {
		return ""
	}
	if uid, isInt := id.(int); isInt && h.services.Reference != nil {
		name, err := h.services.PersonnelFor(c.Request.Context(), uid)
		if err != nil {
			h.log.Warnw("personnel_lookup_failed", "user_id", uid, "err", err)
		}
		if name != "" {
			return name
		}
	}
	return fmt.Sprintf("user#%v", id)
}

// ShiftRequest is the payload of shift start and stop.
type ShiftRequest struct {
	// Shift to start or stop. Allowed: shift1, shift2, shift3, extra
	Shift string `json:"shift" binding:"required" example:"shift1"`
	// Person operating the generator; defaults to the authenticated user
	Actor string `json:"actor,omitempty" example:"Olena"`
}

type conflictResponse struct {
	Error       string       `json:"error"`
	Reason      string       `json:"reason"`
	ActiveShift models.Shift `json:"active_shift,omitempty"`
	StartTime   string       `json:"start_time,omitempty"`
	Previous    models.Shift `json:"previous,omitempty"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

func (h *Handler) bindShift(c *gin.Context) (models.Shift, string, bool) {
	var req ShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return "", "", false
	}
	shift, err := models.ParseShift(req.Shift)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}
	return shift, h.actorFor(c, req.Actor), true
}

// @Summary      Start shift
// @Description  Turns the generator on for a shift. Refusals return 409 with the running shift.
// @Tags         shifts
// @Accept       json
// @Produce      json
// @Param        body  body      ShiftRequest  true  "Shift payload"
// @Success      200   {object}  map[string]interface{}  "status, result"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]interface{}
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/shifts/start [post]
// @Security     BearerAuth
func (h *Handler) startShift(c *gin.Context) {
	shift, actor, ok := h.bindShift(c)
	if !ok {
		return
	}
	res, err := h.services.Shifts.Start(c.Request.Context(), service.StartRequest{Shift: shift, Actor: actor})
	if err != nil {
		h.serviceError(c, errStartShift, "shift_start_failed", err, "shift", shift, "actor", actor)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusStarted, "result": res})
}

// @Summary      Stop shift
// @Tags         shifts
// @Accept       json
// @Produce      json
// @Param        body  body      ShiftRequest  true  "Shift payload"
// @Success      200   {object}  map[string]interface{}  "status, result"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]interface{}
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/shifts/stop [post]
// @Security     BearerAuth
func (h *Handler) stopShift(c *gin.Context) {
	shift, actor, ok := h.bindShift(c)
	if !ok {
		return
	}
	res, err := h.services.Shifts.Stop(c.Request.Context(), service.StopRequest{Shift: shift, Actor: actor})
	if err != nil {
		h.serviceError(c, errStopShift, "shift_stop_failed", err, "shift", shift, "actor", actor)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusStopped, "result": res})
}

// @Summary      Get generator state
// @Description  Refreshes fuel and engine hours from the ledger when the cached values are stale, then returns the dashboard snapshot.
// @Tags         state
// @Produce      json
// @Success      200  {object}  service.Snapshot
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.RefreshCanonical(ctx); err != nil {
		h.log.Warnw("canonical_refresh_failed", "err", err)
	}
	st, err := h.services.Monitoring.GetState(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

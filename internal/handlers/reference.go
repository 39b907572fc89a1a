package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// PersonnelBindingRequest names the personnel entry a user acts as.
type PersonnelBindingRequest struct {
	// Empty removes the binding
	Name string `json:"name" example:"Коваленко О."`
}

// @Summary      Drivers list
// @Description  Fuel delivery drivers as last imported from the ledger.
// @Tags         reference
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "names"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/reference/drivers [get]
// @Security     BearerAuth
func (h *Handler) getDrivers(c *gin.Context) {
	names, err := h.services.Drivers(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load drivers", "drivers_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"names": names})
}

// @Summary      Personnel list
// @Tags         reference
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "names"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/reference/personnel [get]
// @Security     BearerAuth
func (h *Handler) getPersonnel(c *gin.Context) {
	names, err := h.services.Personnel(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load personnel", "personnel_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"names": names})
}

// @Summary      Bind user to personnel
// @Description  Actions of the user without an explicit actor are then logged under this personnel name.
// @Tags         reference
// @Accept       json
// @Produce      json
// @Param        user_id  path      int                      true  "User ID"
// @Param        body     body      PersonnelBindingRequest  true  "Personnel name"
// @Success      200      {object}  map[string]interface{}  "user_id, name"
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /api/v1/reference/personnel/bindings/{user_id} [put]
// @Security     BearerAuth
func (h *Handler) bindPersonnel(c *gin.Context) {
	uid, err := strconv.Atoi(c.Param("user_id"))
	if err != nil || uid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}
	var req PersonnelBindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.BindPersonnel(c.Request.Context(), uid, req.Name); err != nil {
		h.serviceError(c, "failed to bind personnel", "personnel_bind_failed", err, "user_id", uid)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": uid, "name": strings.TrimSpace(req.Name)})
}

// @Summary      Open shift past work hours
// @Tags         scheduler
// @Produce      json
// @Success      200  {object}  service.OpenShiftReport
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/scheduler/open-shift [get]
// @Security     BearerAuth
func (h *Handler) getOpenShift(c *gin.Context) {
	open, err := h.services.OpenShiftPastEnd(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to check open shift", "open_shift_failed", err)
		return
	}
	c.JSON(http.StatusOK, open)
}

// @Summary      Auto-close
// @Description  Closes a shift left running after work hours. Returns shift "none" when nothing was open.
// @Tags         scheduler
// @Produce      json
// @Success      200  {object}  service.ShiftResult
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/scheduler/auto-close [post]
// @Security     BearerAuth
func (h *Handler) autoClose(c *gin.Context) {
	res, err := h.services.AutoClose(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "auto close failed", "auto_close_failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

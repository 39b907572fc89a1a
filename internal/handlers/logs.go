package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"generator_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List logs
// @Description  Filter the event log by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD' in the generator's time zone). A date-only 'to' is inclusive of the whole day.
// @Tags         logs
// @Produce      json
// @Param        from      query   string  false  "Start of range"  example(2026-05-01)
// @Param        to        query   string  false  "End of range. Date-only treated as end of day."  example(2026-05-31)
// @Param        kind      query   string  false  "Event kind"  Enums(m_start,m_end,d_start,d_end,e_start,e_end,x_start,x_end,refill,auto_close,maintenance_oil,maintenance_spark,sheet_force_offline,sheet_force_online)
// @Param        unsynced  query   bool    false  "Only events not yet written to the ledger"
// @Param        limit     query   int     false  "Maximum number of events"
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		from time.Time
		to   time.Time
		kind = strings.TrimSpace(c.Query("kind"))
		err  error
	)
	if qs := c.Query("from"); qs != "" {
		from, err = h.parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		to, err = h.parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return
		}
		if isDateOnly(qs) {
			to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be <= 'to'"})
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	unsynced := c.Query("unsynced") == "true" || c.Query("unsynced") == "1"

	events, err := h.services.EventLog.List(ctx, service.LogFilter{
		From:     from,
		To:       to,
		Kind:     kind,
		Unsynced: unsynced,
		Limit:    limit,
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load logs", "logs_list_failed", err,
			"from", from, "to", to, "kind", kind)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// parseQueryTime accepts RFC3339 as is and civil formats in the handler's zone.
func (h *Handler) parseQueryTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(h.loc), nil
	}
	for _, layout := range []string{layoutDateTime, layoutDate} {
		if t, err := time.ParseInLocation(layout, s, h.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2026-05-04T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}

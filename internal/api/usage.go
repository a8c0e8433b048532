package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cardify-api/internal/models"
	"cardify-api/internal/response"
	"cardify-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

type usageRequest struct {
	Name      string                 `json:"name"`
	Props     map[string]interface{} `json:"props"`
	Page      string                 `json:"page"`
	SessionID string                 `json:"session_id"`
	DeviceID  string                 `json:"device_id"`
	UserID    string                 `json:"user_id"`
	TS        *time.Time             `json:"ts"`
}

// IngestUsage appends one event to the analytics log. Fire-and-forget from
// the client's perspective; the only rejection is a missing event name.
func (d *Deps) IngestUsage(c *gin.Context) {
	var req usageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		response.Error(c, http.StatusBadRequest, "bad_request", "name is required")
		return
	}

	props := ""
	if len(req.Props) > 0 {
		if raw, err := json.Marshal(req.Props); err == nil {
			props = string(raw)
		}
	}

	event := &models.AppEvent{
		Name:      req.Name,
		Props:     props,
		Page:      req.Page,
		SessionID: req.SessionID,
		DeviceID:  req.DeviceID,
		UserID:    req.UserID,
		UA:        c.GetHeader("User-Agent"),
		IP:        clientIP(c),
		TS:        req.TS,
	}
	if err := d.DB.InsertAppEvent(event); err != nil {
		logging.Errorf("usage event insert failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "db_error", "")
		return
	}
	response.OK(c, gin.H{"ok": true})
}

// clientIP prefers the first X-Forwarded-For hop set by the edge proxy.
func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	return c.ClientIP()
}

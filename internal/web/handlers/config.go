package handlers

import (
	"net/http"

	"github.com/kozaktomas/facegate/internal/config"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config     *config.Config
	auditStore bool
}

// NewConfigHandler creates a new config handler. auditStore reports whether
// events are persisted to PostgreSQL.
func NewConfigHandler(cfg *config.Config, auditStore bool) *ConfigHandler {
	return &ConfigHandler{
		config:     cfg,
		auditStore: auditStore,
	}
}

// ConfigResponse represents the effective decision and timing settings
type ConfigResponse struct {
	Threshold                  float64 `json:"threshold"`
	Scorer                     string  `json:"scorer"`
	RecognitionIntervalSeconds float64 `json:"recognition_interval_seconds"`
	CooldownPeriodSeconds      float64 `json:"cooldown_period_seconds"`
	UnlockDurationSeconds      float64 `json:"unlock_duration_seconds"`
	GalleryDir                 string  `json:"gallery_dir"`
	ActuatorPort               string  `json:"actuator_port,omitempty"`
	ActuatorBaud               int     `json:"actuator_baud"`
	AuditStore                 bool    `json:"audit_store"`
}

// Get returns the effective configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		Threshold:                  h.config.Access.Threshold,
		Scorer:                     h.config.Access.Scorer,
		RecognitionIntervalSeconds: h.config.Access.RecognitionInterval.Seconds(),
		CooldownPeriodSeconds:      h.config.Access.CooldownPeriod.Seconds(),
		UnlockDurationSeconds:      h.config.Access.UnlockDuration.Seconds(),
		GalleryDir:                 h.config.Gallery.Dir,
		ActuatorPort:               h.config.Actuator.Port,
		ActuatorBaud:               h.config.Actuator.Baud,
		AuditStore:                 h.auditStore,
	})
}

package handlers

import (
	"net/http"

	"github.com/wonny/aegis/momentum/internal/strategyconfig"
)

// ConfigHandler serves the active strategy configuration
type ConfigHandler struct {
	cfg  *strategyconfig.Config
	hash string
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *strategyconfig.Config, hash string) *ConfigHandler {
	return &ConfigHandler{cfg: cfg, hash: hash}
}

// GetConfig returns the config and its hash
// GET /api/config
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"hash":     h.hash,
		"config":   h.cfg,
		"warnings": strategyconfig.Warn(h.cfg),
	})
}

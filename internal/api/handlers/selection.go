package handlers

import (
	"errors"
	"net/http"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/internal/selection"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// SelectionHandler serves persisted cycle reports
// ⭐ SSOT: 선정 결과 API 핸들러는 이 구조체에서만
type SelectionHandler struct {
	repo   contracts.CycleRepository
	logger *logger.Logger
}

// NewSelectionHandler creates a new selection handler
func NewSelectionHandler(repo contracts.CycleRepository, log *logger.Logger) *SelectionHandler {
	return &SelectionHandler{
		repo:   repo,
		logger: log,
	}
}

// GetLatest returns the most recent cycle report
// GET /api/selection/latest
func (h *SelectionHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	report, err := h.repo.LatestCycle(r.Context())
	if errors.Is(err, selection.ErrNoCycles) {
		respondError(w, http.StatusNotFound, "No cycles recorded yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest cycle")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest cycle")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetHistory returns recent cycle reports, newest first
// GET /api/selection/history?limit=20
func (h *SelectionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", defaultHistoryLimit, maxHistoryLimit)
	if !ok {
		respondError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	reports, err := h.repo.ListCycles(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list cycles")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve cycle history")
		return
	}
	if reports == nil {
		reports = []*contracts.CycleReport{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(reports),
		"cycles": reports,
	})
}

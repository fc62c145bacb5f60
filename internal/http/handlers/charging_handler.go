package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"evgrid/internal/metrics"
	"evgrid/internal/service"
)

// ChargingHandler exposes session start/stop.
type ChargingHandler struct {
	svc    *service.ChargingService
	logger *zap.Logger
}

// NewChargingHandler builds handler set.
func NewChargingHandler(svc *service.ChargingService, logger *zap.Logger) *ChargingHandler {
	return &ChargingHandler{svc: svc, logger: logger}
}

type startChargingRequest struct {
	BookingID int64 `json:"booking_id"`
}

// HandleStart handles POST /charging/start.
func (h *ChargingHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startChargingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.BookingID == 0 {
		writeError(w, http.StatusBadRequest, "booking_id is required")
		return
	}

	session, err := h.svc.StartCharging(r.Context(), req.BookingID)
	if err != nil {
		h.logger.Info("start charging rejected", zap.Int64("booking_id", req.BookingID), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	metrics.ObserveSessionEvent("start")
	writeJSON(w, http.StatusOK, session)
}

// HandleStop handles POST /charging/stop/{sessionId}.
func (h *ChargingHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "sessionId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	session, err := h.svc.StopCharging(r.Context(), sessionID)
	if err != nil {
		h.logger.Info("stop charging rejected", zap.Int64("session_id", sessionID), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	metrics.ObserveSessionEvent("stop")
	writeJSON(w, http.StatusOK, session)
}

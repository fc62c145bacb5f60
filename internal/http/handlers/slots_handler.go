package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"evgrid/internal/models"
	"evgrid/internal/service"
)

// SlotsHandler exposes slot listing and status updates.
type SlotsHandler struct {
	svc    *service.SlotsService
	logger *zap.Logger
}

// NewSlotsHandler builds handler set.
func NewSlotsHandler(svc *service.SlotsService, logger *zap.Logger) *SlotsHandler {
	return &SlotsHandler{svc: svc, logger: logger}
}

type createSlotRequest struct {
	StationID     int64    `json:"station_id"`
	DispensaryID  *int64   `json:"dispensary_id"`
	Label         string   `json:"slot_label"`
	SlotType      string   `json:"slot_type"`
	ConnectorType string   `json:"connector_type"`
	PowerKw       float64  `json:"power_kw"`
}

// HandleCreate handles POST /slots.
func (h *SlotsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.StationID == 0 || req.Label == "" {
		writeError(w, http.StatusBadRequest, "station_id and slot_label are required")
		return
	}

	slot, err := h.svc.CreateSlot(r.Context(), &models.ChargerSlot{
		StationID:     req.StationID,
		DispensaryID:  req.DispensaryID,
		Label:         req.Label,
		SlotType:      models.SlotType(req.SlotType),
		ConnectorType: models.ConnectorType(req.ConnectorType),
		PowerKw:       req.PowerKw,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

// HandleStationSlots handles GET /stations/{id}/slots.
func (h *SlotsHandler) HandleStationSlots(w http.ResponseWriter, r *http.Request) {
	stationID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid station id")
		return
	}
	slots, err := h.svc.ListSlotsByStation(r.Context(), stationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"slots": slots})
}

// HandleAvailableSlots handles GET /stations/{id}/slots/available.
func (h *SlotsHandler) HandleAvailableSlots(w http.ResponseWriter, r *http.Request) {
	stationID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid station id")
		return
	}
	slots, err := h.svc.ListAvailableSlots(r.Context(), stationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"slots": slots})
}

type updateSlotStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateStatus handles PATCH /slots/{id}/status.
func (h *SlotsHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	slotID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot id")
		return
	}
	var req updateSlotStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	slot, err := h.svc.UpdateSlotStatus(r.Context(), slotID, models.SlotStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

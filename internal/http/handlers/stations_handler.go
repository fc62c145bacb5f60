package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"evgrid/internal/models"
	"evgrid/internal/service"
)

// StationsHandler exposes station metadata management.
type StationsHandler struct {
	svc    *service.StationService
	logger *zap.Logger
}

// NewStationsHandler builds handler set.
func NewStationsHandler(svc *service.StationService, logger *zap.Logger) *StationsHandler {
	return &StationsHandler{svc: svc, logger: logger}
}

type stationRequest struct {
	Name           string                    `json:"name"`
	Address        string                    `json:"address"`
	Latitude       float64                   `json:"latitude"`
	Longitude      float64                   `json:"longitude"`
	OwnerID        int64                     `json:"owner_id"`
	Meta           string                    `json:"meta"`
	Rating         float64                   `json:"rating"`
	PricePerKwh    float64                   `json:"price_per_kwh"`
	TruckPriceKwh  *float64                  `json:"truck_price_per_kwh"`
	OperatingHours string                    `json:"operating_hours"`
	Dispensaries   []service.DispensaryInput `json:"dispensaries"`
}

// HandleCreate handles POST /stations.
func (h *StationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req stationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	station, err := h.svc.CreateStation(r.Context(), service.CreateStationInput{
		Station: models.Station{
			Name:           req.Name,
			Address:        req.Address,
			Latitude:       req.Latitude,
			Longitude:      req.Longitude,
			OwnerID:        req.OwnerID,
			Meta:           req.Meta,
			Rating:         req.Rating,
			PricePerKwh:    req.PricePerKwh,
			TruckPriceKwh:  req.TruckPriceKwh,
			OperatingHours: req.OperatingHours,
		},
		Dispensaries: req.Dispensaries,
	})
	if err != nil {
		h.logger.Error("failed to create station", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create station")
		return
	}
	writeJSON(w, http.StatusCreated, station)
}

// HandleList handles GET /stations with optional ?ownerId filter.
func (h *StationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("ownerId"); raw != "" {
		ownerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid owner id")
			return
		}
		stations, err := h.svc.ListStationsByOwner(r.Context(), ownerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch stations")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"stations": stations})
		return
	}

	stations, err := h.svc.ListStations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch stations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stations": stations})
}

// HandleGet handles GET /stations/{id}.
func (h *StationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid station id")
		return
	}
	station, err := h.svc.GetStation(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, station)
}

// HandleUpdate handles PUT /stations/{id}.
func (h *StationsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid station id")
		return
	}
	var req stationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	station, err := h.svc.UpdateStation(r.Context(), &models.Station{
		ID:             id,
		Name:           req.Name,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		OwnerID:        req.OwnerID,
		Meta:           req.Meta,
		Rating:         req.Rating,
		PricePerKwh:    req.PricePerKwh,
		TruckPriceKwh:  req.TruckPriceKwh,
		OperatingHours: req.OperatingHours,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, station)
}

// HandleDelete handles DELETE /stations/{id}.
func (h *StationsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid station id")
		return
	}
	if err := h.svc.DeleteStation(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"evgrid/internal/service"
)

// DiscoveryHandler exposes the map queries: viewport pins and ranked lists.
type DiscoveryHandler struct {
	svc    *service.DiscoveryService
	logger *zap.Logger
}

// NewDiscoveryHandler builds handler set.
func NewDiscoveryHandler(svc *service.DiscoveryService, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{svc: svc, logger: logger}
}

func parseBox(r *http.Request) (service.BoundingBox, bool) {
	swLat, err1 := queryFloat(r, "swLat")
	neLat, err2 := queryFloat(r, "neLat")
	swLng, err3 := queryFloat(r, "swLng")
	neLng, err4 := queryFloat(r, "neLng")
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return service.BoundingBox{}, false
	}
	return service.BoundingBox{SwLat: swLat, NeLat: neLat, SwLng: swLng, NeLng: neLng}, true
}

// HandleViewport handles GET /discovery/viewport.
func (h *DiscoveryHandler) HandleViewport(w http.ResponseWriter, r *http.Request) {
	box, ok := parseBox(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid bounding box")
		return
	}

	pins, err := h.svc.ViewportPins(r.Context(), box)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"pins": pins})
}

// HandleNearby handles GET /discovery/nearby.
func (h *DiscoveryHandler) HandleNearby(w http.ResponseWriter, r *http.Request) {
	lat, err1 := queryFloat(r, "lat")
	lng, err2 := queryFloat(r, "lng")
	radius, err3 := queryFloat(r, "radiusKm")
	if err1 != nil || err2 != nil || err3 != nil {
		writeError(w, http.StatusBadRequest, "lat, lng and radiusKm are required")
		return
	}
	limit := queryIntDefault(r, "limit", 10)

	stations, err := h.svc.NearbyRanked(r.Context(), lat, lng, radius, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stations": stations})
}

// HandleViewportNearby handles GET /discovery/viewport-nearby: enriched top-N
// plus pin-only remainder in one response.
func (h *DiscoveryHandler) HandleViewportNearby(w http.ResponseWriter, r *http.Request) {
	box, ok := parseBox(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid bounding box")
		return
	}
	lat, err1 := queryFloat(r, "lat")
	lng, err2 := queryFloat(r, "lng")
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}
	limit := queryIntDefault(r, "limit", 10)

	result, err := h.svc.ViewportWithNearby(r.Context(), box, lat, lng, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleStationDetail handles GET /discovery/stations/{id}.
func (h *DiscoveryHandler) HandleStationDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid station id")
		return
	}
	lat, err1 := queryFloat(r, "lat")
	lng, err2 := queryFloat(r, "lng")
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	detail, err := h.svc.StationDetail(r.Context(), id, lat, lng)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

package httpserver

import (
	"net/http"
	"time"

	"evgrid/internal/metrics"
)

// Routes groups handlers.
type Routes struct {
	Health          http.HandlerFunc
	Metrics         http.Handler
	StationCreate   http.HandlerFunc
	StationList     http.HandlerFunc
	StationGet      http.HandlerFunc
	StationUpdate   http.HandlerFunc
	StationDelete   http.HandlerFunc
	StationSlots    http.HandlerFunc
	AvailableSlots  http.HandlerFunc
	SlotCreate      http.HandlerFunc
	SlotStatus      http.HandlerFunc
	BookingCreate   http.HandlerFunc
	BookingsMine    http.HandlerFunc
	BookingCancel   http.HandlerFunc
	ChargingStart   http.HandlerFunc
	ChargingStop    http.HandlerFunc
	Viewport        http.HandlerFunc
	Nearby          http.HandlerFunc
	ViewportNearby  http.HandlerFunc
	StationDetail   http.HandlerFunc
	WebSocket       http.HandlerFunc
}

// NewRouter registers endpoints. auth wraps everything except health, metrics
// and the websocket subscribe endpoint.
func NewRouter(routes Routes, auth func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	register := func(pattern string, handler http.HandlerFunc, protected bool) {
		if handler == nil {
			return
		}
		var h http.Handler = handler
		if protected && auth != nil {
			h = auth(h)
		}
		mux.Handle(pattern, timed(pattern, h))
	}

	register("GET /health", routes.Health, false)
	if routes.Metrics != nil {
		mux.Handle("GET /metrics", routes.Metrics)
	}

	register("POST /stations", routes.StationCreate, true)
	register("GET /stations", routes.StationList, true)
	register("GET /stations/{id}", routes.StationGet, true)
	register("PUT /stations/{id}", routes.StationUpdate, true)
	register("DELETE /stations/{id}", routes.StationDelete, true)
	register("GET /stations/{id}/slots", routes.StationSlots, true)
	register("GET /stations/{id}/slots/available", routes.AvailableSlots, true)

	register("POST /slots", routes.SlotCreate, true)
	register("PATCH /slots/{id}/status", routes.SlotStatus, true)

	register("POST /bookings", routes.BookingCreate, true)
	register("GET /bookings/me", routes.BookingsMine, true)
	register("POST /bookings/{id}/cancel", routes.BookingCancel, true)

	register("POST /charging/start", routes.ChargingStart, true)
	register("POST /charging/stop/{sessionId}", routes.ChargingStop, true)

	register("GET /discovery/viewport", routes.Viewport, true)
	register("GET /discovery/nearby", routes.Nearby, true)
	register("GET /discovery/viewport-nearby", routes.ViewportNearby, true)
	register("GET /discovery/stations/{id}", routes.StationDetail, true)

	register("GET /ws", routes.WebSocket, false)

	return mux
}

func timed(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		metrics.ObserveRequest(route, time.Since(start))
	})
}

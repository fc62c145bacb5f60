package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"evgrid/internal/http/middleware"
	"evgrid/internal/metrics"
	"evgrid/internal/models"
	"evgrid/internal/repository"
	"evgrid/internal/service"
)

// BookingsHandler exposes the reservation lifecycle.
type BookingsHandler struct {
	svc    *service.BookingService
	logger *zap.Logger
}

// NewBookingsHandler builds handler set.
func NewBookingsHandler(svc *service.BookingService, logger *zap.Logger) *BookingsHandler {
	return &BookingsHandler{svc: svc, logger: logger}
}

type createBookingRequest struct {
	SlotID      int64     `json:"slot_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	VehicleType string    `json:"vehicle_type"`
}

// HandleCreate handles POST /bookings.
func (h *BookingsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SlotID == 0 {
		writeError(w, http.StatusBadRequest, "slot_id is required")
		return
	}
	vehicleType := models.VehicleType(req.VehicleType)
	if vehicleType == "" {
		vehicleType = models.VehicleTypeCar
	}

	booking, err := h.svc.CreateBooking(r.Context(), service.CreateBookingInput{
		UserID:      userID,
		SlotID:      req.SlotID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		VehicleType: vehicleType,
	})
	if err != nil {
		metrics.ObserveBookingAttempt(bookingResultLabel(err))
		h.logger.Info("booking rejected", zap.Int64("user_id", userID), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	metrics.ObserveBookingAttempt(metrics.ResultSuccess)
	writeJSON(w, http.StatusCreated, booking)
}

func bookingResultLabel(err error) string {
	switch {
	case errors.Is(err, service.ErrSlotConflict), errors.Is(err, repository.ErrVersionConflict):
		return metrics.ResultConflict
	case errors.Is(err, service.ErrPastStartTime),
		errors.Is(err, service.ErrInvalidInterval),
		errors.Is(err, service.ErrSlotUnavailable),
		errors.Is(err, service.ErrVehicleNotSupported):
		return metrics.ResultRejected
	default:
		return metrics.ResultError
	}
}

// HandleListMine handles GET /bookings/me.
func (h *BookingsHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	bookings, err := h.svc.ListBookingsByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list bookings", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

// HandleCancel handles POST /bookings/{id}/cancel.
func (h *BookingsHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	booking, err := h.svc.CancelBooking(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

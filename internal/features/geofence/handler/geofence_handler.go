package handler

import (
	"context"
	"errors"

	"geofence-tracker/internal/core/logger"
	"geofence-tracker/internal/features/geofence/domain"
	"geofence-tracker/internal/features/geofence/engine"
	"geofence-tracker/internal/features/geofence/ports"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// GeofenceHandler handles HTTP requests for booking geofence sessions.
type GeofenceHandler struct {
	service ports.GeofenceService
	limiter *pingLimiter
}

// NewGeofenceHandler creates a new GeofenceHandler. Location pings are limited
// per booking to pingsPerSecond with the given burst.
func NewGeofenceHandler(service ports.GeofenceService, pingsPerSecond float64, pingBurst int) *GeofenceHandler {
	return &GeofenceHandler{
		service: service,
		limiter: newPingLimiter(pingsPerSecond, pingBurst),
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// StartTrackingRequest is the body of POST /bookings/{id}/tracking.
type StartTrackingRequest struct {
	// Lat and Lon locate the booked space.
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// StartParkingRequest is the body of POST /bookings/{id}/parking.
type StartParkingRequest struct {
	OwnerID string   `json:"owner_id"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

// LocationRequest is one GPS fix from the mobile app.
type LocationRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
	// Accuracy is the reported horizontal accuracy in meters.
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// IgnoredResponse is returned for pings of bookings without a live session.
type IgnoredResponse struct {
	Ignored bool `json:"ignored"`
}

// bookingID copies the path id out of the request buffer, which fasthttp
// reuses once the handler returns.
func bookingID(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}

func rayID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Message: message,
		RayID:   rayID(c),
	})
}

func coordinate(lat, lon *float64) (domain.Coordinate, bool) {
	if lat == nil || lon == nil {
		return domain.Coordinate{}, false
	}
	return domain.Coordinate{Lat: *lat, Lon: *lon}, true
}

// lifecycleError maps engine and domain errors to HTTP responses.
func lifecycleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, engine.ErrMissingBookingID):
		return fail(c, fiber.StatusBadRequest, "booking id is required")
	case errors.Is(err, domain.ErrInvalidCoordinate):
		return fail(c, fiber.StatusBadRequest, "lat/lon out of range")
	case errors.Is(err, engine.ErrInvalidAccuracy):
		return fail(c, fiber.StatusBadRequest, "accuracy must be a non-negative number")
	case errors.Is(err, engine.ErrAlreadyParked):
		return fail(c, fiber.StatusConflict, "booking is already checked in")
	}
	logger.Get().Error("Geofence request failed", zap.String("ray_id", rayID(c)), zap.Error(err))
	return fail(c, fiber.StatusInternalServerError, "internal server error")
}

// StartTracking godoc
// @Summary Start tracking a booking
// @Description Starts following the user on the way to the booked space. Starting twice returns the existing session.
// @Tags geofence
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param body body StartTrackingRequest true "Location of the booked space"
// @Success 201 {object} domain.SessionSnapshot
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /bookings/{id}/tracking [post]
func (h *GeofenceHandler) StartTracking(c *fiber.Ctx) error {
	var req StartTrackingRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	target, ok := coordinate(req.Lat, req.Lon)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "lat and lon are required")
	}

	snap, err := h.service.StartTracking(c.UserContext(), bookingID(c), target)
	if err != nil {
		return lifecycleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(snap)
}

// EndTracking godoc
// @Summary Stop tracking a booking
// @Description Ends the tracking session and records its analytics. Ending a booking that is not tracked is a no-op.
// @Tags geofence
// @Param id path string true "Booking ID"
// @Success 204
// @Router /bookings/{id}/tracking [delete]
func (h *GeofenceHandler) EndTracking(c *fiber.Ctx) error {
	id := bookingID(c)
	if !h.service.EndTracking(c.UserContext(), id) {
		logger.Get().Debug("No tracking session to end", zap.String("booking_id", id))
	}
	h.limiter.Forget(id)
	return c.SendStatus(fiber.StatusNoContent)
}

// StartParking godoc
// @Summary Check a booking in
// @Description Starts the parking session, promoting a tracking session of the same booking. Checking in twice returns the existing session.
// @Tags geofence
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param body body StartParkingRequest true "Owner and location of the space"
// @Success 201 {object} domain.SessionSnapshot
// @Failure 400 {object} ErrorResponse
// @Router /bookings/{id}/parking [post]
func (h *GeofenceHandler) StartParking(c *fiber.Ctx) error {
	var req StartParkingRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	target, ok := coordinate(req.Lat, req.Lon)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "lat and lon are required")
	}

	snap, err := h.service.StartParking(c.UserContext(), bookingID(c), req.OwnerID, target)
	if err != nil {
		return lifecycleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(snap)
}

// EndParking godoc
// @Summary Check a booking out
// @Description Ends the parking session and records its analytics. Ending a booking that is not parked is a no-op.
// @Tags geofence
// @Param id path string true "Booking ID"
// @Success 204
// @Router /bookings/{id}/parking [delete]
func (h *GeofenceHandler) EndParking(c *fiber.Ctx) error {
	id := bookingID(c)
	if !h.service.EndParking(c.UserContext(), id) {
		logger.Get().Debug("No parking session to end", zap.String("booking_id", id))
	}
	h.limiter.Forget(id)
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateLocation godoc
// @Summary Submit a location ping
// @Description Classifies the position against the booked space and returns status, transition and due notifications.
// @Tags geofence
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param body body LocationRequest true "GPS fix"
// @Success 200 {object} engine.UpdateResult
// @Success 202 {object} IgnoredResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /bookings/{id}/location [post]
func (h *GeofenceHandler) UpdateLocation(c *fiber.Ctx) error {
	id := bookingID(c)

	var req LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	pos, ok := coordinate(req.Lat, req.Lon)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "lat and lon are required")
	}

	if !h.limiter.Allow(id) {
		return fail(c, fiber.StatusTooManyRequests, "too many location updates")
	}

	res, err := h.service.UpdateLocation(c.UserContext(), id, pos, req.Accuracy)
	if err != nil {
		if _, ok := h.service.Session(c.UserContext(), id); !ok {
			h.limiter.Forget(id)
		}
		return lifecycleError(c, err)
	}
	if res == nil {
		h.limiter.Forget(id)
		return c.Status(fiber.StatusAccepted).JSON(IgnoredResponse{Ignored: true})
	}
	if res.SessionEnded {
		h.limiter.Forget(id)
	}
	return c.JSON(res)
}

// GetSession godoc
// @Summary Get the live session of a booking
// @Tags geofence
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} domain.SessionSnapshot
// @Failure 404 {object} ErrorResponse
// @Router /bookings/{id}/session [get]
func (h *GeofenceHandler) GetSession(c *fiber.Ctx) error {
	snap, ok := h.service.Session(c.UserContext(), bookingID(c))
	if !ok {
		return fail(c, fiber.StatusNotFound, "no active session")
	}
	return c.JSON(snap)
}

// GetStatus godoc
// @Summary Get the last published geofence status of a booking
// @Tags geofence
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} ports.LiveStatus
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /bookings/{id}/status [get]
func (h *GeofenceHandler) GetStatus(c *fiber.Ctx) error {
	status, err := h.service.LiveStatus(c.UserContext(), bookingID(c))
	if err != nil {
		return lifecycleError(c, err)
	}
	if status == nil {
		return fail(c, fiber.StatusNotFound, "no published status")
	}
	return c.JSON(status)
}

// SessionsReaped drops the ping buckets of expired sessions.
func (h *GeofenceHandler) SessionsReaped(_ context.Context, reaped []domain.SessionSnapshot) {
	for _, snap := range reaped {
		h.limiter.Forget(snap.BookingID)
	}
}

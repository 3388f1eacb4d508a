package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/slot-booking-service/internal/handler"
    "github.com/iliyamo/slot-booking-service/internal/middleware"
    "github.com/iliyamo/slot-booking-service/internal/model"
)

// RegisterBooking registers user-scoped endpoints under /v1.  All routes
// require a valid JWT and the USER role.  Users can reserve a slot,
// list and inspect their bookings and cancel a booking they own.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleUser),
    )
    g.POST("/slots/:id/reserve", h.ReserveSlot)
    g.GET("/my-bookings", h.ListBookings)
    g.GET("/bookings/:id", h.GetBooking)

    // Cancellation is shared with providers; the handler applies the
    // ownership check matching the caller's role.
    e.DELETE("/v1/bookings/:id", h.CancelBooking,
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleUser, model.RoleProvider),
    )
}

package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/slot-booking-service/internal/handler"
    "github.com/iliyamo/slot-booking-service/internal/middleware"
    "github.com/iliyamo/slot-booking-service/internal/model"
)

// RegisterProvider registers provider-scoped endpoints under /v1.  All
// routes require a valid JWT and the PROVIDER role.  Providers manage
// their services and slots and can inspect or cancel bookings taken on
// them.
func RegisterProvider(e *echo.Echo, h *handler.ProviderHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleProvider),
    )
    g.POST("/services", h.CreateService)
    g.GET("/my-services", h.ListMyServices)
    g.POST("/services/:id/slots", h.CreateSlots)
    g.GET("/services/:id/bookings", h.ListServiceBookings)
    g.DELETE("/slots/:id", h.DeleteSlot)
}

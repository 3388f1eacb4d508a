package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/slot-booking-service/internal/repository"
)

// PublicHandler serves the unauthenticated browse endpoints.  These are
// the routes the response cache sits in front of.
type PublicHandler struct {
    Services *repository.ServiceRepo
    Slots    *repository.SlotRepo
}

func NewPublicHandler(s *repository.ServiceRepo, sl *repository.SlotRepo) *PublicHandler {
    if s == nil || sl == nil {
        panic("nil repository passed to NewPublicHandler")
    }
    return &PublicHandler{Services: s, Slots: sl}
}

// ListServices handles GET /v1/services.
func (h *PublicHandler) ListServices(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    items, err := h.Services.ListActive(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"services": items})
}

// ListServiceSlots handles GET /v1/services/:id/slots.  Only available
// future slots are returned; an optional ?from=RFC3339 moves the lower
// bound forward.
func (h *PublicHandler) ListServiceSlots(c echo.Context) error {
    serviceID, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
    }
    from := time.Now().UTC()
    if raw := c.QueryParam("from"); raw != "" {
        parsed, err := time.Parse(time.RFC3339, raw)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from, want RFC3339"})
        }
        if parsed.After(from) {
            from = parsed.UTC()
        }
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Services.GetByID(ctx, serviceID); err != nil {
        if errors.Is(err, repository.ErrServiceNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    slots, err := h.Slots.ListAvailableByService(ctx, serviceID, from)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"slots": slots})
}

package handler

import (
    "context"
    "database/sql"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/slot-booking-service/internal/model"
    "github.com/iliyamo/slot-booking-service/internal/repository"
)

// ProviderHandler groups the repositories providers need to manage
// their services, publish time slots and inspect bookings.
type ProviderHandler struct {
    Services *repository.ServiceRepo
    Slots    *repository.SlotRepo
    Bookings *repository.BookingRepo
}

// NewProviderHandler constructs a ProviderHandler and panics if any
// dependency is nil.
func NewProviderHandler(s *repository.ServiceRepo, sl *repository.SlotRepo, b *repository.BookingRepo) *ProviderHandler {
    if s == nil || sl == nil || b == nil {
        panic("nil repository passed to NewProviderHandler")
    }
    return &ProviderHandler{Services: s, Slots: sl, Bookings: b}
}

type createServiceReq struct {
    Name        string  `json:"name"`
    Description *string `json:"description"`
}

// CreateService handles POST /v1/services.
func (h *ProviderHandler) CreateService(c echo.Context) error {
    providerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createServiceReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    svc := model.Service{
        ProviderID:  providerID,
        Name:        req.Name,
        Description: req.Description,
        IsActive:    true,
    }
    if err := h.Services.Create(ctx, &svc); err != nil {
        if errors.Is(err, repository.ErrServiceExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "service already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create service failed"})
    }
    return c.JSON(http.StatusCreated, svc)
}

// ListMyServices handles GET /v1/my-services.
func (h *ProviderHandler) ListMyServices(c echo.Context) error {
    providerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    items, err := h.Services.ListByProvider(ctx, providerID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"services": items})
}

type slotReq struct {
    StartsAt time.Time `json:"starts_at"`
    EndsAt   time.Time `json:"ends_at"`
}
type createSlotsReq struct {
    Slots []slotReq `json:"slots"`
}

// CreateSlots handles POST /v1/services/:id/slots.  The whole batch is
// validated up front and inserted in one statement; a bad interval
// rejects the entire request rather than inserting a partial batch.
func (h *ProviderHandler) CreateSlots(c echo.Context) error {
    providerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    serviceID, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
    }
    var req createSlotsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if len(req.Slots) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "slots is required"})
    }

    slots := make([]model.TimeSlot, 0, len(req.Slots))
    for _, s := range req.Slots {
        if s.StartsAt.IsZero() || s.EndsAt.IsZero() || !s.StartsAt.Before(s.EndsAt) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "each slot needs starts_at before ends_at"})
        }
        slots = append(slots, model.TimeSlot{
            ServiceID:   serviceID,
            StartsAt:    s.StartsAt.UTC(),
            EndsAt:      s.EndsAt.UTC(),
            IsAvailable: true,
        })
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    // ownership check before the insert
    if _, err := h.Services.GetByIDAndProvider(ctx, serviceID, providerID); err != nil {
        switch {
        case errors.Is(err, repository.ErrServiceNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
        case errors.Is(err, repository.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if err := h.Slots.CreateBulk(ctx, serviceID, slots); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create slots failed"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"created": len(slots)})
}

// ListServiceBookings handles GET /v1/services/:id/bookings.
func (h *ProviderHandler) ListServiceBookings(c echo.Context) error {
    providerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    serviceID, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    items, err := h.Bookings.ListByServiceForProvider(ctx, serviceID, providerID)
    if err != nil {
        switch {
        case err == sql.ErrNoRows:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
        case errors.Is(err, repository.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": items})
}

// DeleteSlot handles DELETE /v1/slots/:id.  Slots with a pending or
// confirmed booking cannot be removed; cancel the booking first.
func (h *ProviderHandler) DeleteSlot(c echo.Context) error {
    providerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    slotID, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Slots.Delete(ctx, slotID, providerID); err != nil {
        switch {
        case errors.Is(err, repository.ErrSlotNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
        case errors.Is(err, repository.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        case errors.Is(err, repository.ErrSlotInUse):
            return c.JSON(http.StatusConflict, echo.Map{"error": "slot has an active booking"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

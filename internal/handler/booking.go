package handler

import (
    "context"
    "database/sql"
    "errors"
    "log"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/slot-booking-service/internal/ledger"
    "github.com/iliyamo/slot-booking-service/internal/queue"
    "github.com/iliyamo/slot-booking-service/internal/repository"
    queue_publisher "github.com/iliyamo/slot-booking-service/internal/service"
)

// BookingHandler serves the user-facing reservation endpoints.  The
// slot-state transitions themselves live in the ledger; this layer does
// request parsing, HTTP error mapping and event publishing.  All methods
// assume JWT authentication and role validation ran in middleware.
type BookingHandler struct {
    Ledger   *ledger.Ledger
    Bookings *repository.BookingRepo
    Slots    *repository.SlotRepo
    Services *repository.ServiceRepo
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must
// be non-nil.
func NewBookingHandler(l *ledger.Ledger, b *repository.BookingRepo, s *repository.SlotRepo, svc *repository.ServiceRepo) *BookingHandler {
    if l == nil || b == nil || s == nil || svc == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{Ledger: l, Bookings: b, Slots: s, Services: svc}
}

type reserveReq struct {
    Notes *string `json:"notes"`
}

// ReserveSlot handles POST /v1/slots/:id/reserve.  Exactly one of any
// number of concurrent callers gets the slot; everyone else receives
// 409.  A 503 means nothing was written and the same request can be
// resubmitted as-is.
func (h *BookingHandler) ReserveSlot(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    slotID, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
    }
    // an absent or malformed body simply means no notes
    var req reserveReq
    _ = c.Bind(&req)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    booking, err := h.Ledger.Reserve(ctx, slotID, userID, req.Notes)
    if err != nil {
        switch {
        case errors.Is(err, ledger.ErrSlotNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
        case errors.Is(err, ledger.ErrUserNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        case errors.Is(err, ledger.ErrSlotTaken):
            return c.JSON(http.StatusConflict, echo.Map{"error": "slot already booked"})
        case errors.Is(err, ledger.ErrLockTimeout):
            c.Response().Header().Set("Retry-After", "1")
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "busy, retry"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve failed"})
    }

    h.publishConfirmed(booking.ID, booking.UserID, booking.SlotID)

    return c.JSON(http.StatusCreated, booking)
}

// CancelBooking handles DELETE /v1/bookings/:id for both roles.  A USER
// may cancel their own booking; a PROVIDER may cancel any booking on a
// slot of a service they own.  The role claim decides which ownership
// check applies.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
    actorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    role := getRole(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    booking, err := h.Ledger.Cancel(ctx, bookingID, actorID, role)
    if err != nil {
        switch {
        case errors.Is(err, ledger.ErrBookingNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        case errors.Is(err, ledger.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        case errors.Is(err, ledger.ErrAlreadyCancelled):
            return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
        case errors.Is(err, ledger.ErrCompleted):
            return c.JSON(http.StatusConflict, echo.Map{"error": "booking already completed"})
        case errors.Is(err, ledger.ErrLockTimeout):
            c.Response().Header().Set("Retry-After", "1")
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "busy, retry"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
    }

    go func() {
        pctx, pcancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer pcancel()
        ev := queue.BookingCancelledEvent{
            BookingID:   booking.ID,
            UserID:      booking.UserID,
            SlotID:      booking.SlotID,
            CancelledBy: role,
            CancelledAt: time.Now().UTC().Format(time.RFC3339),
        }
        if err := queue_publisher.PublishBookingCancelled(pctx, ev); err != nil {
            log.Printf("publish booking.cancelled failed: %v", err)
        }
    }()

    return c.JSON(http.StatusOK, booking)
}

// ListBookings handles GET /v1/my-bookings.
func (h *BookingHandler) ListBookings(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    items, err := h.Bookings.ListByUser(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": items})
}

// GetBooking handles GET /v1/bookings/:id.  Bookings of other users are
// indistinguishable from missing ones.
func (h *BookingHandler) GetBooking(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    detail, err := h.Bookings.GetByIDForUser(ctx, bookingID, userID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, detail)
}

// publishConfirmed enriches the confirmed booking with slot and service
// details and publishes it off the request path.  Publishing is best
// effort; the reservation already committed.
func (h *BookingHandler) publishConfirmed(bookingID, userID, slotID uint64) {
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()

        ev := queue.BookingConfirmedEvent{
            BookingID:   bookingID,
            UserID:      userID,
            SlotID:      slotID,
            ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
        }
        if slot, err := h.Slots.GetByID(ctx, slotID); err == nil {
            ev.ServiceID = slot.ServiceID
            ev.StartsAt = slot.StartsAt.UTC().Format(time.RFC3339)
            ev.EndsAt = slot.EndsAt.UTC().Format(time.RFC3339)
            if svc, err := h.Services.GetByID(ctx, slot.ServiceID); err == nil {
                ev.ServiceName = svc.Name
            }
        }
        if err := queue_publisher.PublishBookingConfirmed(ctx, ev); err != nil {
            log.Printf("publish booking.confirmed failed: %v", err)
        }
    }()
}

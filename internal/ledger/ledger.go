// Package ledger owns the availability state of time slots and the
// bookings that claim them.  It guarantees that a slot is held by at
// most one pending or confirmed booking at any instant, under
// arbitrary concurrent callers.  The storage engine is hidden behind
// the Store interface whose operations are individually atomic, so
// the concurrency contract can be exercised independently of MySQL.
package ledger

import (
    "context"
    "errors"
    "time"

    "github.com/iliyamo/slot-booking-service/internal/model"
)

// Sentinel errors returned by Reserve and Cancel.  Handlers translate
// these into distinct HTTP status categories so clients can tell
// "pick another slot" apart from "retry shortly".
var (
    // ErrSlotNotFound means the slot id does not resolve to a row.
    ErrSlotNotFound = errors.New("slot not found")
    // ErrSlotTaken means the slot was already claimed by the time the
    // reservation attempt reached the conditional update.
    ErrSlotTaken = errors.New("slot already booked")
    // ErrUserNotFound means the reserving user does not exist or is
    // inactive.
    ErrUserNotFound = errors.New("user not found")
    // ErrBookingNotFound means the booking id does not resolve.
    ErrBookingNotFound = errors.New("booking not found")
    // ErrForbidden means the actor has no rights over the booking.
    ErrForbidden = errors.New("forbidden")
    // ErrAlreadyCancelled rejects a second cancel of the same booking.
    ErrAlreadyCancelled = errors.New("booking already cancelled")
    // ErrCompleted rejects cancellation of a completed booking.
    ErrCompleted = errors.New("booking already completed")
    // ErrLockTimeout signals that the store could not serialize the
    // operation in time.  Nothing was committed; the caller may
    // safely resubmit the same request.
    ErrLockTimeout = errors.New("lock timeout, retry")
)

// BookingInfo is the view of a booking the ledger needs to authorize
// and validate a cancellation: the booking row itself plus the slot
// interval and the provider owning the slot's service.
type BookingInfo struct {
    Booking      model.Booking
    SlotStartsAt time.Time
    SlotEndsAt   time.Time
    ProviderID   uint64
}

// Store is the narrow persistence surface the ledger runs on.  Every
// method is a single atomic unit of work: ClaimSlot and
// ReleaseBooking must commit their booking write and the slot
// availability flip together or not at all, and two concurrent
// ClaimSlot calls on the same slot must serialize so that exactly
// one succeeds.
type Store interface {
    // UserActive returns nil when the user exists and is active and
    // ErrUserNotFound otherwise.
    UserActive(ctx context.Context, userID uint64) error

    // ClaimSlot atomically marks the slot unavailable and inserts a
    // confirmed booking for the user.  It returns ErrSlotNotFound,
    // ErrSlotTaken or ErrLockTimeout on failure, with no partial
    // writes in any case.
    ClaimSlot(ctx context.Context, slotID, userID uint64, notes *string) (*model.Booking, error)

    // BookingInfo loads a booking with its slot interval and the
    // provider owning the slot's service.  Returns ErrBookingNotFound
    // when the id does not resolve.
    BookingInfo(ctx context.Context, bookingID uint64) (*BookingInfo, error)

    // ReleaseBooking atomically cancels the booking and returns its
    // slot to the available pool.  The status change is conditional
    // on the booking still being pending or confirmed, so a cancel
    // racing another cancel loses with ErrAlreadyCancelled.
    ReleaseBooking(ctx context.Context, bookingID, slotID uint64) (*model.Booking, error)
}

// Ledger exposes the two slot-state operations.  It performs the
// validation and authorization around the store's atomic primitives.
type Ledger struct {
    store Store
}

// New returns a Ledger bound to the given store.
func New(store Store) *Ledger {
    if store == nil {
        panic("nil store passed to ledger.New")
    }
    return &Ledger{store: store}
}

// Reserve claims the slot for the user and returns the resulting
// confirmed booking.  Under concurrent calls targeting the same slot
// exactly one caller succeeds; the rest observe ErrSlotTaken.  All
// failures leave slot and booking state untouched.
func (l *Ledger) Reserve(ctx context.Context, slotID, userID uint64, notes *string) (*model.Booking, error) {
    if err := l.store.UserActive(ctx, userID); err != nil {
        return nil, err
    }
    return l.store.ClaimSlot(ctx, slotID, userID, notes)
}

// Cancel transitions the booking to cancelled and releases its slot.
// A USER actor must own the booking; a PROVIDER actor must own the
// service the slot belongs to.  Cancelled and completed bookings are
// terminal and cannot be cancelled again.
func (l *Ledger) Cancel(ctx context.Context, bookingID, actorID uint64, role string) (*model.Booking, error) {
    info, err := l.store.BookingInfo(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    switch role {
    case model.RoleUser:
        if info.Booking.UserID != actorID {
            return nil, ErrForbidden
        }
    case model.RoleProvider:
        if info.ProviderID != actorID {
            return nil, ErrForbidden
        }
    default:
        return nil, ErrForbidden
    }
    switch info.Booking.Status {
    case model.BookingCancelled:
        return nil, ErrAlreadyCancelled
    case model.BookingCompleted:
        return nil, ErrCompleted
    }
    return l.store.ReleaseBooking(ctx, bookingID, info.Booking.SlotID)
}

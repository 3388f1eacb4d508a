package model

import "time"

// Booking status values.  The transition graph is forward-only:
// pending/confirmed may move to cancelled (slot released) or
// confirmed to completed (slot stays historical); cancelled and
// completed are terminal.
const (
    BookingPending   = "pending"
    BookingConfirmed = "confirmed"
    BookingCancelled = "cancelled"
    BookingCompleted = "completed"
)

// Booking records a user's claim on a single time slot.  A slot maps
// to at most one non-cancelled booking at a time; the slot ledger
// enforces this invariant together with TimeSlot.IsAvailable.  This
// struct corresponds to a row in the `bookings` table.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – user who made the booking.
//  SlotID       – time slot claimed by the booking.
//  Status       – one of pending, confirmed, cancelled, completed.
//  Notes        – optional free-form note from the customer.
//  ReminderSent – set once, irreversibly, when the reminder fires.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Booking struct {
    ID           uint64    // bookings.id
    UserID       uint64    // bookings.user_id
    SlotID       uint64    // bookings.slot_id
    Status       string    // bookings.status
    Notes        *string   // bookings.notes (nullable)
    ReminderSent bool      // bookings.reminder_sent
    CreatedAt    time.Time // bookings.created_at
    UpdatedAt    time.Time // bookings.updated_at
}

// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a slot reservation commits.
// It carries enough information for downstream consumers to log,
// notify, or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
    BookingID   uint64 `json:"booking_id"`
    UserID      uint64 `json:"user_id"`
    SlotID      uint64 `json:"slot_id"`
    ServiceID   uint64 `json:"service_id"`
    ServiceName string `json:"service_name"`
    StartsAt    string `json:"starts_at"`
    EndsAt      string `json:"ends_at"`
    ConfirmedAt string `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a booking is cancelled and
// its slot released, by either the booking owner or the provider.
type BookingCancelledEvent struct {
    BookingID   uint64 `json:"booking_id"`
    UserID      uint64 `json:"user_id"`
    SlotID      uint64 `json:"slot_id"`
    CancelledBy string `json:"cancelled_by"`
    CancelledAt string `json:"cancelled_at"`
}

// BookingReminderEvent is published by the sweeper for each booking
// whose slot starts within the reminder window.  The notification
// consumer turns these into user-facing deliveries.
type BookingReminderEvent struct {
    BookingID uint64 `json:"booking_id"`
    UserID    uint64 `json:"user_id"`
    SlotID    uint64 `json:"slot_id"`
    StartsAt  string `json:"starts_at"`
    SentAt    string `json:"sent_at"`
}

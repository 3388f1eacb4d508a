package model

import "time"

// TimeSlot represents a fixed interval offered under a service and
// bookable by at most one active booking at a time.  The IsAvailable
// flag is a cached view of the booking table: it is false exactly
// when a pending or confirmed booking references the slot, and only
// the slot ledger writes it.  This struct corresponds to a row in
// the `time_slots` table.
//
// Fields:
//  ID          – primary key identifier.
//  ServiceID   – service to which this slot belongs.
//  StartsAt    – when the slot begins.
//  EndsAt      – when the slot ends (must be after StartsAt).
//  IsAvailable – whether the slot can currently be reserved.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type TimeSlot struct {
    ID          uint64    // time_slots.id
    ServiceID   uint64    // time_slots.service_id
    StartsAt    time.Time // time_slots.starts_at
    EndsAt      time.Time // time_slots.ends_at
    IsAvailable bool      // time_slots.is_available
    CreatedAt   time.Time // time_slots.created_at
    UpdatedAt   time.Time // time_slots.updated_at
}

package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/slot-booking-service/internal/model"
)

// SlotRepo provides persistence for time slots.  Slot availability
// is owned by the ledger store; this repository only creates, lists
// and deletes slots on behalf of providers and the public browse
// endpoints.
type SlotRepo struct {
    db *sql.DB
}

// NewSlotRepo returns a SlotRepo bound to the given database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

// CreateBulk inserts multiple time slots for a service in a single
// statement.  Only service_id, starts_at and ends_at are supplied;
// is_available defaults to 1 and timestamps default in the DB.  The
// ID fields of the passed slots are not populated.  Passing an empty
// slice has no effect and returns nil.
func (r *SlotRepo) CreateBulk(ctx context.Context, serviceID uint64, slots []model.TimeSlot) error {
    if len(slots) == 0 {
        return nil
    }
    query := `INSERT INTO time_slots (service_id, starts_at, ends_at) VALUES `
    args := make([]interface{}, 0, len(slots)*3)
    for i, s := range slots {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, serviceID, s.StartsAt.UTC(), s.EndsAt.UTC())
    }
    _, err := r.db.ExecContext(ctx, query, args...)
    return err
}

// ListAvailableByService returns the available slots of a service
// that start at or after the given instant, soonest first.  This is
// the public read path; the ledger is the only writer of
// is_available.
func (r *SlotRepo) ListAvailableByService(ctx context.Context, serviceID uint64, from time.Time) ([]model.TimeSlot, error) {
    const q = `SELECT id, service_id, starts_at, ends_at, is_available, created_at, updated_at
               FROM time_slots
               WHERE service_id = ? AND is_available = 1 AND starts_at >= ?
               ORDER BY starts_at ASC`
    rows, err := r.db.QueryContext(ctx, q, serviceID, from.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.TimeSlot, 0)
    for rows.Next() {
        var s model.TimeSlot
        if err := rows.Scan(&s.ID, &s.ServiceID, &s.StartsAt, &s.EndsAt, &s.IsAvailable, &s.CreatedAt, &s.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// GetByID fetches a slot by id.  Returns ErrSlotNotFound when the id
// does not resolve.
func (r *SlotRepo) GetByID(ctx context.Context, id uint64) (model.TimeSlot, error) {
    const q = `SELECT id, service_id, starts_at, ends_at, is_available, created_at, updated_at
               FROM time_slots WHERE id = ? LIMIT 1`
    var s model.TimeSlot
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &s.ID, &s.ServiceID, &s.StartsAt, &s.EndsAt, &s.IsAvailable, &s.CreatedAt, &s.UpdatedAt)
    if err == sql.ErrNoRows {
        return s, ErrSlotNotFound
    }
    return s, err
}

// Delete removes a slot owned by the provider.  A slot referenced by
// a pending or confirmed booking must not disappear under the
// booking, so the check and the delete run in one transaction.
// Returns ErrSlotNotFound, ErrForbidden or ErrSlotInUse.
func (r *SlotRepo) Delete(ctx context.Context, slotID, providerID uint64) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var ownerID uint64
    err = tx.QueryRowContext(ctx,
        `SELECT s.provider_id FROM time_slots t JOIN services s ON s.id = t.service_id WHERE t.id = ?`,
        slotID).Scan(&ownerID)
    if err == sql.ErrNoRows {
        return ErrSlotNotFound
    }
    if err != nil {
        return err
    }
    if ownerID != providerID {
        return ErrForbidden
    }

    var active int
    err = tx.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM bookings WHERE slot_id = ? AND status IN ('pending','confirmed')`,
        slotID).Scan(&active)
    if err != nil {
        return err
    }
    if active > 0 {
        return ErrSlotInUse
    }

    if _, err := tx.ExecContext(ctx, `DELETE FROM time_slots WHERE id = ?`, slotID); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/slot-booking-service/internal/sweeper"
)

// BookingRepo provides read access to bookings for customers and
// providers, plus the scan queries the sweeper runs.  State changes
// that touch slot availability go through the ledger store instead.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingDetail is a booking joined with its slot and service for
// display to the booking's owner.
type BookingDetail struct {
    ID           uint64    `json:"id"`
    SlotID       uint64    `json:"slot_id"`
    ServiceID    uint64    `json:"service_id"`
    ServiceName  string    `json:"service_name"`
    Status       string    `json:"status"`
    Notes        *string   `json:"notes,omitempty"`
    ReminderSent bool      `json:"reminder_sent"`
    StartsAt     time.Time `json:"starts_at"`
    EndsAt       time.Time `json:"ends_at"`
    CreatedAt    time.Time `json:"created_at"`
}

// ProviderBookingDetail extends BookingDetail with the booking
// user's identity for provider-facing listings.
type ProviderBookingDetail struct {
    BookingDetail
    UserID    uint64 `json:"user_id"`
    UserEmail string `json:"user_email"`
}

const bookingDetailColumns = `b.id, b.slot_id, t.service_id, s.name, b.status, b.notes, b.reminder_sent,
                              t.starts_at, t.ends_at, b.created_at`

const bookingDetailJoins = `FROM bookings b
                            JOIN time_slots t ON t.id = b.slot_id
                            JOIN services s ON s.id = t.service_id`

func scanBookingDetail(row interface{ Scan(...interface{}) error }, d *BookingDetail) error {
    var notes sql.NullString
    if err := row.Scan(&d.ID, &d.SlotID, &d.ServiceID, &d.ServiceName, &d.Status, &notes,
        &d.ReminderSent, &d.StartsAt, &d.EndsAt, &d.CreatedAt); err != nil {
        return err
    }
    if notes.Valid {
        n := notes.String
        d.Notes = &n
    }
    return nil
}

// ListByUser returns all bookings of the given user, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
    q := `SELECT ` + bookingDetailColumns + ` ` + bookingDetailJoins + `
          WHERE b.user_id = ? ORDER BY b.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]BookingDetail, 0)
    for rows.Next() {
        var d BookingDetail
        if err := scanBookingDetail(rows, &d); err != nil {
            return nil, err
        }
        out = append(out, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// GetByIDForUser returns a single booking restricted to its owner.
// When no booking with the id exists for the user, sql.ErrNoRows is
// returned.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, bookingID, userID uint64) (*BookingDetail, error) {
    q := `SELECT ` + bookingDetailColumns + ` ` + bookingDetailJoins + `
          WHERE b.id = ? AND b.user_id = ?`
    var d BookingDetail
    if err := scanBookingDetail(r.db.QueryRowContext(ctx, q, bookingID, userID), &d); err != nil {
        return nil, err
    }
    return &d, nil
}

// ListByServiceForProvider returns all bookings under a service when
// accessed by its owning provider.  It verifies ownership first:
// sql.ErrNoRows when the service does not exist, ErrForbidden when
// it belongs to a different provider.
func (r *BookingRepo) ListByServiceForProvider(ctx context.Context, serviceID, providerID uint64) ([]ProviderBookingDetail, error) {
    var ownerID uint64
    err := r.db.QueryRowContext(ctx,
        `SELECT provider_id FROM services WHERE id = ?`, serviceID).Scan(&ownerID)
    if err != nil {
        return nil, err
    }
    if ownerID != providerID {
        return nil, ErrForbidden
    }
    q := `SELECT ` + bookingDetailColumns + `, b.user_id, u.email ` + bookingDetailJoins + `
          JOIN users u ON u.id = b.user_id
          WHERE t.service_id = ? ORDER BY t.starts_at ASC`
    rows, err := r.db.QueryContext(ctx, q, serviceID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]ProviderBookingDetail, 0)
    for rows.Next() {
        var d ProviderBookingDetail
        var notes sql.NullString
        if err := rows.Scan(&d.ID, &d.SlotID, &d.ServiceID, &d.ServiceName, &d.Status, &notes,
            &d.ReminderSent, &d.StartsAt, &d.EndsAt, &d.CreatedAt, &d.UserID, &d.UserEmail); err != nil {
            return nil, err
        }
        if notes.Valid {
            n := notes.String
            d.Notes = &n
        }
        out = append(out, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// ----- sweeper.Store implementation -----

// DueReminders returns confirmed, un-reminded bookings whose slot
// starts within the window after now and has not yet ended.
func (r *BookingRepo) DueReminders(ctx context.Context, now time.Time, window time.Duration) ([]sweeper.Reminder, error) {
    const q = `SELECT b.id, b.user_id, b.slot_id, t.starts_at
               FROM bookings b
               JOIN time_slots t ON t.id = b.slot_id
               WHERE b.status = 'confirmed' AND b.reminder_sent = 0
                 AND t.starts_at <= ? AND t.ends_at > ?`
    rows, err := r.db.QueryContext(ctx, q, now.Add(window).UTC(), now.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var due []sweeper.Reminder
    for rows.Next() {
        var rem sweeper.Reminder
        if err := rows.Scan(&rem.BookingID, &rem.UserID, &rem.SlotID, &rem.StartsAt); err != nil {
            return nil, err
        }
        due = append(due, rem)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return due, nil
}

// MarkReminderSent flips reminder_sent once.  The conditional update
// makes the flip idempotent: a row already reminded reports false.
func (r *BookingRepo) MarkReminderSent(ctx context.Context, bookingID uint64) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET reminder_sent = 1 WHERE id = ? AND reminder_sent = 0 AND status = 'confirmed'`,
        bookingID)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// ElapsedBookings returns pending and confirmed bookings whose slot
// end time is at or before now.
func (r *BookingRepo) ElapsedBookings(ctx context.Context, now time.Time) ([]sweeper.Elapsed, error) {
    const q = `SELECT b.id, b.slot_id, b.status
               FROM bookings b
               JOIN time_slots t ON t.id = b.slot_id
               WHERE b.status IN ('pending','confirmed') AND t.ends_at <= ?`
    rows, err := r.db.QueryContext(ctx, q, now.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []sweeper.Elapsed
    for rows.Next() {
        var e sweeper.Elapsed
        if err := rows.Scan(&e.BookingID, &e.SlotID, &e.Status); err != nil {
            return nil, err
        }
        out = append(out, e)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// CompleteBooking moves a confirmed booking to completed.  The slot
// stays unavailable; elapsed slots are historical.
func (r *BookingRepo) CompleteBooking(ctx context.Context, bookingID uint64) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET status = 'completed' WHERE id = ? AND status = 'confirmed'`,
        bookingID)
    return err
}

// CancelStale cancels a pending booking that never confirmed and
// releases its slot in the same transaction.
func (r *BookingRepo) CancelStale(ctx context.Context, bookingID, slotID uint64) error {
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
    res, err := tx.ExecContext(ctx,
        `UPDATE bookings SET status = 'cancelled' WHERE id = ? AND status = 'pending'`,
        bookingID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // Raced with a confirm or another sweep; nothing to release.
        return nil
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE time_slots SET is_available = 1 WHERE id = ?`, slotID); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

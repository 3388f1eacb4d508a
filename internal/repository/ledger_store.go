package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/slot-booking-service/internal/ledger"
    "github.com/iliyamo/slot-booking-service/internal/model"
)

// LedgerStore is the MySQL implementation of ledger.Store.  The
// claim uses a single-row conditional update checked via the
// affected-row count: the row either flips available -> unavailable
// for this transaction or the caller loses, which gives the same
// mutual exclusion as an explicit SELECT ... FOR UPDATE while
// staying portable across storage engines.  The booking write and
// the slot flip always commit together or not at all.
type LedgerStore struct {
    db *sql.DB
}

// NewLedgerStore returns a LedgerStore bound to the given database.
func NewLedgerStore(db *sql.DB) *LedgerStore { return &LedgerStore{db: db} }

// UserActive reports whether the user exists and is active.
func (s *LedgerStore) UserActive(ctx context.Context, userID uint64) error {
    var active bool
    err := s.db.QueryRowContext(ctx,
        `SELECT is_active FROM users WHERE id = ?`, userID).Scan(&active)
    if err == sql.ErrNoRows {
        return ledger.ErrUserNotFound
    }
    if err != nil {
        return mapLockErr(err)
    }
    if !active {
        return ledger.ErrUserNotFound
    }
    return nil
}

// ClaimSlot atomically flips the slot unavailable and inserts a
// confirmed booking.  Exactly one of any set of concurrent callers
// on the same slot gets an affected-row count of 1; the rest observe
// ErrSlotTaken with no partial writes.
func (s *LedgerStore) ClaimSlot(ctx context.Context, slotID, userID uint64, notes *string) (*model.Booking, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, mapLockErr(err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := tx.ExecContext(ctx,
        `UPDATE time_slots SET is_available = 0 WHERE id = ? AND is_available = 1`, slotID)
    if err != nil {
        return nil, mapLockErr(err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return nil, err
    }
    if n == 0 {
        // Either the slot does not exist or somebody else holds it.
        var exists int
        err := tx.QueryRowContext(ctx,
            `SELECT 1 FROM time_slots WHERE id = ?`, slotID).Scan(&exists)
        if err == sql.ErrNoRows {
            return nil, ledger.ErrSlotNotFound
        }
        if err != nil {
            return nil, mapLockErr(err)
        }
        return nil, ledger.ErrSlotTaken
    }

    var notesArg sql.NullString
    if notes != nil && *notes != "" {
        notesArg = sql.NullString{String: *notes, Valid: true}
    }
    ins, err := tx.ExecContext(ctx,
        `INSERT INTO bookings (user_id, slot_id, status, notes) VALUES (?,?,?,?)`,
        userID, slotID, model.BookingConfirmed, notesArg)
    if err != nil {
        return nil, mapLockErr(err)
    }
    id, err := ins.LastInsertId()
    if err != nil {
        return nil, err
    }

    // Query the row back to populate defaults and timestamps.
    b := &model.Booking{}
    var bNotes sql.NullString
    err = tx.QueryRowContext(ctx,
        `SELECT id, user_id, slot_id, status, notes, reminder_sent, created_at, updated_at
         FROM bookings WHERE id = ?`, id).Scan(
        &b.ID, &b.UserID, &b.SlotID, &b.Status, &bNotes, &b.ReminderSent, &b.CreatedAt, &b.UpdatedAt)
    if err != nil {
        return nil, mapLockErr(err)
    }
    if bNotes.Valid {
        v := bNotes.String
        b.Notes = &v
    }

    if err := tx.Commit(); err != nil {
        return nil, mapLockErr(err)
    }
    committed = true
    return b, nil
}

// BookingInfo loads the booking with its slot interval and service
// provider for the ledger's authorization checks.
func (s *LedgerStore) BookingInfo(ctx context.Context, bookingID uint64) (*ledger.BookingInfo, error) {
    const q = `SELECT b.id, b.user_id, b.slot_id, b.status, b.notes, b.reminder_sent,
                      b.created_at, b.updated_at, t.starts_at, t.ends_at, sv.provider_id
               FROM bookings b
               JOIN time_slots t ON t.id = b.slot_id
               JOIN services sv ON sv.id = t.service_id
               WHERE b.id = ?`
    var info ledger.BookingInfo
    var notes sql.NullString
    err := s.db.QueryRowContext(ctx, q, bookingID).Scan(
        &info.Booking.ID, &info.Booking.UserID, &info.Booking.SlotID, &info.Booking.Status,
        &notes, &info.Booking.ReminderSent, &info.Booking.CreatedAt, &info.Booking.UpdatedAt,
        &info.SlotStartsAt, &info.SlotEndsAt, &info.ProviderID)
    if err == sql.ErrNoRows {
        return nil, ledger.ErrBookingNotFound
    }
    if err != nil {
        return nil, mapLockErr(err)
    }
    if notes.Valid {
        v := notes.String
        info.Booking.Notes = &v
    }
    return &info, nil
}

// ReleaseBooking cancels the booking and returns its slot to the
// available pool in one transaction.  The status change is
// conditional on the booking still being active, so a cancel racing
// another cancel loses cleanly.
func (s *LedgerStore) ReleaseBooking(ctx context.Context, bookingID, slotID uint64) (*model.Booking, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, mapLockErr(err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := tx.ExecContext(ctx,
        `UPDATE bookings SET status = 'cancelled' WHERE id = ? AND status IN ('pending','confirmed')`,
        bookingID)
    if err != nil {
        return nil, mapLockErr(err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return nil, err
    }
    if n == 0 {
        var exists int
        err := tx.QueryRowContext(ctx,
            `SELECT 1 FROM bookings WHERE id = ?`, bookingID).Scan(&exists)
        if err == sql.ErrNoRows {
            return nil, ledger.ErrBookingNotFound
        }
        if err != nil {
            return nil, mapLockErr(err)
        }
        return nil, ledger.ErrAlreadyCancelled
    }

    if _, err := tx.ExecContext(ctx,
        `UPDATE time_slots SET is_available = 1 WHERE id = ?`, slotID); err != nil {
        return nil, mapLockErr(err)
    }

    b := &model.Booking{}
    var notes sql.NullString
    err = tx.QueryRowContext(ctx,
        `SELECT id, user_id, slot_id, status, notes, reminder_sent, created_at, updated_at
         FROM bookings WHERE id = ?`, bookingID).Scan(
        &b.ID, &b.UserID, &b.SlotID, &b.Status, &notes, &b.ReminderSent, &b.CreatedAt, &b.UpdatedAt)
    if err != nil {
        return nil, mapLockErr(err)
    }
    if notes.Valid {
        v := notes.String
        b.Notes = &v
    }

    if err := tx.Commit(); err != nil {
        return nil, mapLockErr(err)
    }
    committed = true
    return b, nil
}

// mapLockErr converts MySQL lock-wait timeouts (1205) and deadlock
// victims (1213) into the ledger's retryable error.  In both cases
// the transaction rolled back with nothing committed, so the caller
// can resubmit the same request safely.
func mapLockErr(err error) error {
    var my *mysql.MySQLError
    if errors.As(err, &my) {
        if my.Number == 1205 || my.Number == 1213 {
            return ledger.ErrLockTimeout
        }
    }
    return err
}

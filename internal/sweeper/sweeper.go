// Package sweeper runs the periodic reminder and completion scans
// over bookings.  Each pass is idempotent and re-runnable: the
// reminder flag flips through a conditional update and completion
// only touches rows whose slot has elapsed, so a crashed or repeated
// pass never produces duplicate transitions.  Per-row failures are
// logged and skipped so one bad row cannot halt a scan.
package sweeper

import (
    "context"
    "log"
    "time"

    "github.com/iliyamo/slot-booking-service/internal/model"
)

// Reminder identifies a confirmed booking whose slot starts within
// the reminder window and which has not been reminded yet.
type Reminder struct {
    BookingID uint64
    UserID    uint64
    SlotID    uint64
    StartsAt  time.Time
}

// Elapsed identifies an active booking whose slot end time has
// already passed.
type Elapsed struct {
    BookingID uint64
    SlotID    uint64
    Status    string
}

// Store is the persistence surface the sweeper scans over.  The
// mutation methods are each their own short atomic unit so the
// sweeper never holds locks across rows.
type Store interface {
    // DueReminders returns confirmed, un-reminded bookings whose slot
    // starts within the window after now and has not yet ended.
    DueReminders(ctx context.Context, now time.Time, window time.Duration) ([]Reminder, error)

    // MarkReminderSent flips reminder_sent for the booking and
    // reports whether this call performed the flip.  The flip is
    // conditional so a booking reminded concurrently is not flipped
    // twice.
    MarkReminderSent(ctx context.Context, bookingID uint64) (bool, error)

    // ElapsedBookings returns pending and confirmed bookings whose
    // slot end time is at or before now.
    ElapsedBookings(ctx context.Context, now time.Time) ([]Elapsed, error)

    // CompleteBooking moves a confirmed booking to completed.  The
    // slot stays unavailable; elapsed slots are historical and never
    // re-offered.
    CompleteBooking(ctx context.Context, bookingID uint64) error

    // CancelStale cancels a pending booking that never confirmed and
    // releases its slot, in one atomic unit.
    CancelStale(ctx context.Context, bookingID, slotID uint64) error
}

// Notifier delivers a reminder to its user.  Delivery is
// fire-and-forget from the sweeper's point of view: a failed send is
// logged and the booking is retried on the next pass, giving
// at-least-once semantics.
type Notifier interface {
    SendReminder(ctx context.Context, r Reminder) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, r Reminder) error

// SendReminder calls f.
func (f NotifierFunc) SendReminder(ctx context.Context, r Reminder) error { return f(ctx, r) }

// Sweeper owns the two tickers and the scan loops.
type Sweeper struct {
    store           Store
    notifier        Notifier
    window          time.Duration
    reminderEvery   time.Duration
    completionEvery time.Duration
    stopChan        chan struct{}
}

// New builds a Sweeper.  window is the reminder lookahead;
// reminderEvery and completionEvery are the two scan intervals.
func New(store Store, notifier Notifier, window, reminderEvery, completionEvery time.Duration) *Sweeper {
    if store == nil || notifier == nil {
        panic("nil dependency passed to sweeper.New")
    }
    return &Sweeper{
        store:           store,
        notifier:        notifier,
        window:          window,
        reminderEvery:   reminderEvery,
        completionEvery: completionEvery,
        stopChan:        make(chan struct{}),
    }
}

// Start launches the scan loop in a goroutine.
func (s *Sweeper) Start() {
    go s.run()
    log.Printf("sweeper: started (reminder every %s, completion every %s, window %s)",
        s.reminderEvery, s.completionEvery, s.window)
}

// Stop terminates the scan loop.
func (s *Sweeper) Stop() {
    close(s.stopChan)
    log.Println("sweeper: stopped")
}

func (s *Sweeper) run() {
    reminderTick := time.NewTicker(s.reminderEvery)
    defer reminderTick.Stop()
    completionTick := time.NewTicker(s.completionEvery)
    defer completionTick.Stop()

    for {
        select {
        case <-reminderTick.C:
            s.SweepReminders(context.Background())
        case <-completionTick.C:
            s.SweepCompletions(context.Background())
        case <-s.stopChan:
            return
        }
    }
}

// SweepReminders runs one reminder pass and returns the number of
// reminders delivered.  The flag flips only after a successful send,
// so a send that fails is retried on the next pass.
func (s *Sweeper) SweepReminders(ctx context.Context) int {
    due, err := s.store.DueReminders(ctx, time.Now().UTC(), s.window)
    if err != nil {
        log.Printf("sweeper: reminder scan failed: %v", err)
        return 0
    }
    sent := 0
    for _, r := range due {
        if err := s.notifier.SendReminder(ctx, r); err != nil {
            log.Printf("sweeper: reminder for booking %d failed: %v", r.BookingID, err)
            continue
        }
        flipped, err := s.store.MarkReminderSent(ctx, r.BookingID)
        if err != nil {
            log.Printf("sweeper: flag flip for booking %d failed: %v", r.BookingID, err)
            continue
        }
        if flipped {
            sent++
        }
    }
    return sent
}

// SweepCompletions runs one completion pass and returns the number
// of bookings transitioned.  Confirmed bookings on elapsed slots
// become completed; pending ones that never confirmed are cancelled
// and their slot released.
func (s *Sweeper) SweepCompletions(ctx context.Context) int {
    elapsed, err := s.store.ElapsedBookings(ctx, time.Now().UTC())
    if err != nil {
        log.Printf("sweeper: completion scan failed: %v", err)
        return 0
    }
    done := 0
    for _, e := range elapsed {
        var err error
        if e.Status == model.BookingPending {
            err = s.store.CancelStale(ctx, e.BookingID, e.SlotID)
        } else {
            err = s.store.CompleteBooking(ctx, e.BookingID)
        }
        if err != nil {
            log.Printf("sweeper: transition for booking %d failed: %v", e.BookingID, err)
            continue
        }
        done++
    }
    return done
}

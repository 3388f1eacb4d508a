package sweeper

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/iliyamo/slot-booking-service/internal/model"
)

type memBooking struct {
    id           uint64
    slotID       uint64
    status       string
    reminderSent bool
    startsAt     time.Time
    endsAt       time.Time
}

// memStore is an in-memory sweeper Store.  Slots are tracked only by
// an availability flag keyed on slot id.
type memStore struct {
    mu       sync.Mutex
    bookings map[uint64]*memBooking
    slotFree map[uint64]bool
}

func newMemStore() *memStore {
    return &memStore{bookings: make(map[uint64]*memBooking), slotFree: make(map[uint64]bool)}
}

func (s *memStore) add(b memBooking) {
    s.bookings[b.id] = &b
    s.slotFree[b.slotID] = false
}

func (s *memStore) DueReminders(ctx context.Context, now time.Time, window time.Duration) ([]Reminder, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var due []Reminder
    for _, b := range s.bookings {
        if b.status != model.BookingConfirmed || b.reminderSent {
            continue
        }
        if b.startsAt.After(now.Add(window)) || !b.endsAt.After(now) {
            continue
        }
        due = append(due, Reminder{BookingID: b.id, SlotID: b.slotID, StartsAt: b.startsAt})
    }
    return due, nil
}

func (s *memStore) MarkReminderSent(ctx context.Context, bookingID uint64) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[bookingID]
    if !ok || b.reminderSent {
        return false, nil
    }
    b.reminderSent = true
    return true, nil
}

func (s *memStore) ElapsedBookings(ctx context.Context, now time.Time) ([]Elapsed, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []Elapsed
    for _, b := range s.bookings {
        if b.status != model.BookingPending && b.status != model.BookingConfirmed {
            continue
        }
        if b.endsAt.After(now) {
            continue
        }
        out = append(out, Elapsed{BookingID: b.id, SlotID: b.slotID, Status: b.status})
    }
    return out, nil
}

func (s *memStore) CompleteBooking(ctx context.Context, bookingID uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[bookingID]
    if !ok {
        return errors.New("no such booking")
    }
    b.status = model.BookingCompleted
    return nil
}

func (s *memStore) CancelStale(ctx context.Context, bookingID, slotID uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[bookingID]
    if !ok {
        return errors.New("no such booking")
    }
    b.status = model.BookingCancelled
    s.slotFree[slotID] = true
    return nil
}

// recordingNotifier counts deliveries and can fail specific bookings.
type recordingNotifier struct {
    mu   sync.Mutex
    sent map[uint64]int
    fail map[uint64]bool
}

func newRecordingNotifier() *recordingNotifier {
    return &recordingNotifier{sent: make(map[uint64]int), fail: make(map[uint64]bool)}
}

func (n *recordingNotifier) SendReminder(ctx context.Context, r Reminder) error {
    n.mu.Lock()
    defer n.mu.Unlock()
    if n.fail[r.BookingID] {
        return errors.New("delivery refused")
    }
    n.sent[r.BookingID]++
    return nil
}

func newTestSweeper(store Store, n Notifier) *Sweeper {
    return New(store, n, 30*time.Minute, time.Minute, 5*time.Minute)
}

func TestReminderPassIsIdempotent(t *testing.T) {
    t.Parallel()
    now := time.Now().UTC()
    store := newMemStore()
    store.add(memBooking{id: 1, slotID: 10, status: model.BookingConfirmed,
        startsAt: now.Add(20 * time.Minute), endsAt: now.Add(80 * time.Minute)})
    n := newRecordingNotifier()
    s := newTestSweeper(store, n)

    if got := s.SweepReminders(context.Background()); got != 1 {
        t.Fatalf("first pass sent = %d, want 1", got)
    }
    if got := s.SweepReminders(context.Background()); got != 0 {
        t.Errorf("second pass sent = %d, want 0", got)
    }
    if n.sent[1] != 1 {
        t.Errorf("deliveries = %d, want exactly 1", n.sent[1])
    }
}

func TestReminderWindowSelection(t *testing.T) {
    t.Parallel()
    now := time.Now().UTC()
    store := newMemStore()
    // In window.
    store.add(memBooking{id: 1, slotID: 10, status: model.BookingConfirmed,
        startsAt: now.Add(20 * time.Minute), endsAt: now.Add(time.Hour)})
    // Too far out.
    store.add(memBooking{id: 2, slotID: 11, status: model.BookingConfirmed,
        startsAt: now.Add(2 * time.Hour), endsAt: now.Add(3 * time.Hour)})
    // Slot already over.
    store.add(memBooking{id: 3, slotID: 12, status: model.BookingConfirmed,
        startsAt: now.Add(-2 * time.Hour), endsAt: now.Add(-time.Hour)})
    // Not confirmed.
    store.add(memBooking{id: 4, slotID: 13, status: model.BookingCancelled,
        startsAt: now.Add(20 * time.Minute), endsAt: now.Add(time.Hour)})
    n := newRecordingNotifier()
    s := newTestSweeper(store, n)

    if got := s.SweepReminders(context.Background()); got != 1 {
        t.Errorf("sent = %d, want 1", got)
    }
    if n.sent[1] != 1 || n.sent[2] != 0 || n.sent[3] != 0 || n.sent[4] != 0 {
        t.Errorf("deliveries = %v, want only booking 1", n.sent)
    }
}

func TestFailedDeliveryIsRetriedNextPass(t *testing.T) {
    t.Parallel()
    now := time.Now().UTC()
    store := newMemStore()
    store.add(memBooking{id: 1, slotID: 10, status: model.BookingConfirmed,
        startsAt: now.Add(20 * time.Minute), endsAt: now.Add(time.Hour)})
    n := newRecordingNotifier()
    n.fail[1] = true
    s := newTestSweeper(store, n)

    if got := s.SweepReminders(context.Background()); got != 0 {
        t.Fatalf("failing pass sent = %d, want 0", got)
    }
    if store.bookings[1].reminderSent {
        t.Fatal("flag flipped despite failed delivery")
    }
    n.fail[1] = false
    if got := s.SweepReminders(context.Background()); got != 1 {
        t.Errorf("retry pass sent = %d, want 1", got)
    }
}

func TestFailedRowDoesNotBlockOthers(t *testing.T) {
    t.Parallel()
    now := time.Now().UTC()
    store := newMemStore()
    store.add(memBooking{id: 1, slotID: 10, status: model.BookingConfirmed,
        startsAt: now.Add(10 * time.Minute), endsAt: now.Add(time.Hour)})
    store.add(memBooking{id: 2, slotID: 11, status: model.BookingConfirmed,
        startsAt: now.Add(15 * time.Minute), endsAt: now.Add(time.Hour)})
    n := newRecordingNotifier()
    n.fail[1] = true
    s := newTestSweeper(store, n)

    if got := s.SweepReminders(context.Background()); got != 1 {
        t.Errorf("sent = %d, want 1", got)
    }
    if n.sent[2] != 1 {
        t.Errorf("booking 2 deliveries = %d, want 1", n.sent[2])
    }
}

func TestCompletionPass(t *testing.T) {
    t.Parallel()
    now := time.Now().UTC()
    store := newMemStore()
    // Confirmed and elapsed: completes, slot stays historical.
    store.add(memBooking{id: 1, slotID: 10, status: model.BookingConfirmed,
        startsAt: now.Add(-2 * time.Hour), endsAt: now.Add(-time.Hour)})
    // Stale pending on an elapsed slot: cancelled, slot released.
    store.add(memBooking{id: 2, slotID: 11, status: model.BookingPending,
        startsAt: now.Add(-2 * time.Hour), endsAt: now.Add(-time.Hour)})
    // Still running: untouched.
    store.add(memBooking{id: 3, slotID: 12, status: model.BookingConfirmed,
        startsAt: now.Add(-time.Minute), endsAt: now.Add(time.Hour)})
    s := newTestSweeper(store, newRecordingNotifier())

    if got := s.SweepCompletions(context.Background()); got != 2 {
        t.Fatalf("transitions = %d, want 2", got)
    }
    if got := store.bookings[1].status; got != model.BookingCompleted {
        t.Errorf("booking 1 status = %q, want completed", got)
    }
    if store.slotFree[10] {
        t.Error("completed booking released its slot")
    }
    if got := store.bookings[2].status; got != model.BookingCancelled {
        t.Errorf("booking 2 status = %q, want cancelled", got)
    }
    if !store.slotFree[11] {
        t.Error("stale pending cancel did not release the slot")
    }
    if got := store.bookings[3].status; got != model.BookingConfirmed {
        t.Errorf("booking 3 status = %q, want confirmed", got)
    }

    // A second pass finds nothing further to do.
    if got := s.SweepCompletions(context.Background()); got != 0 {
        t.Errorf("second pass transitions = %d, want 0", got)
    }
}

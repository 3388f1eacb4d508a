package ledger

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/iliyamo/slot-booking-service/internal/model"
)

// fakeStore is an in-memory Store whose operations take a single
// mutex, giving each method the same atomicity the MySQL store gets
// from its transactions.  It lets the reservation contract be tested
// without a database.
type fakeStore struct {
    mu        sync.Mutex
    users     map[uint64]bool   // user id -> active
    slots     map[uint64]*model.TimeSlot
    providers map[uint64]uint64 // slot id -> provider owning its service
    bookings  map[uint64]*model.Booking
    nextID    uint64
}

func newFakeStore() *fakeStore {
    return &fakeStore{
        users:     make(map[uint64]bool),
        slots:     make(map[uint64]*model.TimeSlot),
        providers: make(map[uint64]uint64),
        bookings:  make(map[uint64]*model.Booking),
    }
}

func (s *fakeStore) addUser(id uint64, active bool) { s.users[id] = active }

func (s *fakeStore) addSlot(id, providerID uint64, startsAt time.Time) {
    s.slots[id] = &model.TimeSlot{
        ID:          id,
        ServiceID:   providerID, // one service per provider is enough here
        StartsAt:    startsAt,
        EndsAt:      startsAt.Add(time.Hour),
        IsAvailable: true,
    }
    s.providers[id] = providerID
}

func (s *fakeStore) UserActive(ctx context.Context, userID uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if active, ok := s.users[userID]; !ok || !active {
        return ErrUserNotFound
    }
    return nil
}

func (s *fakeStore) ClaimSlot(ctx context.Context, slotID, userID uint64, notes *string) (*model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    slot, ok := s.slots[slotID]
    if !ok {
        return nil, ErrSlotNotFound
    }
    if !slot.IsAvailable {
        return nil, ErrSlotTaken
    }
    s.nextID++
    b := &model.Booking{
        ID:     s.nextID,
        UserID: userID,
        SlotID: slotID,
        Status: model.BookingConfirmed,
        Notes:  notes,
    }
    s.bookings[b.ID] = b
    slot.IsAvailable = false
    out := *b
    return &out, nil
}

func (s *fakeStore) BookingInfo(ctx context.Context, bookingID uint64) (*BookingInfo, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[bookingID]
    if !ok {
        return nil, ErrBookingNotFound
    }
    slot := s.slots[b.SlotID]
    return &BookingInfo{
        Booking:      *b,
        SlotStartsAt: slot.StartsAt,
        SlotEndsAt:   slot.EndsAt,
        ProviderID:   s.providers[b.SlotID],
    }, nil
}

func (s *fakeStore) ReleaseBooking(ctx context.Context, bookingID, slotID uint64) (*model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[bookingID]
    if !ok {
        return nil, ErrBookingNotFound
    }
    if b.Status != model.BookingPending && b.Status != model.BookingConfirmed {
        return nil, ErrAlreadyCancelled
    }
    b.Status = model.BookingCancelled
    s.slots[slotID].IsAvailable = true
    out := *b
    return &out, nil
}

// checkConsistent verifies that a slot is unavailable exactly when an
// active booking references it.
func (s *fakeStore) checkConsistent(t *testing.T) {
    t.Helper()
    s.mu.Lock()
    defer s.mu.Unlock()
    for slotID, slot := range s.slots {
        active := 0
        for _, b := range s.bookings {
            if b.SlotID == slotID && (b.Status == model.BookingPending || b.Status == model.BookingConfirmed) {
                active++
            }
        }
        if active > 1 {
            t.Errorf("slot %d has %d active bookings, want at most 1", slotID, active)
        }
        if slot.IsAvailable != (active == 0) {
            t.Errorf("slot %d: is_available=%v with %d active bookings", slotID, slot.IsAvailable, active)
        }
    }
}

func TestReserveCreatesConfirmedBooking(t *testing.T) {
    t.Parallel()
    store := newFakeStore()
    store.addUser(1, true)
    store.addSlot(10, 99, time.Now().Add(time.Hour))
    l := New(store)

    b, err := l.Reserve(context.Background(), 10, 1, nil)
    if err != nil {
        t.Fatalf("Reserve: %v", err)
    }
    if b.Status != model.BookingConfirmed {
        t.Errorf("status = %q, want %q", b.Status, model.BookingConfirmed)
    }
    if b.UserID != 1 || b.SlotID != 10 {
        t.Errorf("booking = user %d slot %d, want user 1 slot 10", b.UserID, b.SlotID)
    }
    if store.slots[10].IsAvailable {
        t.Error("slot still available after successful reserve")
    }
    store.checkConsistent(t)
}

func TestReserveFailures(t *testing.T) {
    t.Parallel()
    store := newFakeStore()
    store.addUser(1, true)
    store.addUser(2, false)
    store.addSlot(10, 99, time.Now().Add(time.Hour))
    l := New(store)

    if _, err := l.Reserve(context.Background(), 77, 1, nil); !errors.Is(err, ErrSlotNotFound) {
        t.Errorf("unknown slot: err = %v, want ErrSlotNotFound", err)
    }
    if _, err := l.Reserve(context.Background(), 10, 5, nil); !errors.Is(err, ErrUserNotFound) {
        t.Errorf("unknown user: err = %v, want ErrUserNotFound", err)
    }
    if _, err := l.Reserve(context.Background(), 10, 2, nil); !errors.Is(err, ErrUserNotFound) {
        t.Errorf("inactive user: err = %v, want ErrUserNotFound", err)
    }
    if _, err := l.Reserve(context.Background(), 10, 1, nil); err != nil {
        t.Fatalf("Reserve: %v", err)
    }
    if _, err := l.Reserve(context.Background(), 10, 1, nil); !errors.Is(err, ErrSlotTaken) {
        t.Errorf("taken slot: err = %v, want ErrSlotTaken", err)
    }
    store.checkConsistent(t)
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
    t.Parallel()
    const callers = 32
    store := newFakeStore()
    store.addSlot(10, 99, time.Now().Add(time.Hour))
    for i := uint64(1); i <= callers; i++ {
        store.addUser(i, true)
    }
    l := New(store)

    var wg sync.WaitGroup
    errs := make([]error, callers)
    wg.Add(callers)
    for i := 0; i < callers; i++ {
        go func(i int) {
            defer wg.Done()
            _, errs[i] = l.Reserve(context.Background(), 10, uint64(i+1), nil)
        }(i)
    }
    wg.Wait()

    wins, conflicts := 0, 0
    for _, err := range errs {
        switch {
        case err == nil:
            wins++
        case errors.Is(err, ErrSlotTaken):
            conflicts++
        default:
            t.Errorf("unexpected error: %v", err)
        }
    }
    if wins != 1 {
        t.Errorf("wins = %d, want exactly 1", wins)
    }
    if conflicts != callers-1 {
        t.Errorf("conflicts = %d, want %d", conflicts, callers-1)
    }
    store.checkConsistent(t)
}

func TestCancelByOwnerReleasesSlot(t *testing.T) {
    t.Parallel()
    store := newFakeStore()
    store.addUser(1, true)
    store.addUser(2, true)
    store.addSlot(10, 99, time.Now().Add(time.Hour))
    l := New(store)

    b, err := l.Reserve(context.Background(), 10, 1, nil)
    if err != nil {
        t.Fatalf("Reserve: %v", err)
    }
    got, err := l.Cancel(context.Background(), b.ID, 1, model.RoleUser)
    if err != nil {
        t.Fatalf("Cancel: %v", err)
    }
    if got.Status != model.BookingCancelled {
        t.Errorf("status = %q, want %q", got.Status, model.BookingCancelled)
    }
    if !store.slots[10].IsAvailable {
        t.Error("slot not released after cancel")
    }
    // The released slot is reservable by a different user.
    if _, err := l.Reserve(context.Background(), 10, 2, nil); err != nil {
        t.Errorf("re-reserve after cancel: %v", err)
    }
    store.checkConsistent(t)
}

func TestCancelAuthorization(t *testing.T) {
    t.Parallel()
    store := newFakeStore()
    store.addUser(1, true)
    store.addSlot(10, 99, time.Now().Add(time.Hour))
    l := New(store)

    b, err := l.Reserve(context.Background(), 10, 1, nil)
    if err != nil {
        t.Fatalf("Reserve: %v", err)
    }

    cases := []struct {
        name    string
        actorID uint64
        role    string
        wantErr error
    }{
        {"other user", 2, model.RoleUser, ErrForbidden},
        {"other provider", 55, model.RoleProvider, ErrForbidden},
        {"unknown role", 1, "ADMIN", ErrForbidden},
        {"owning provider", 99, model.RoleProvider, nil},
    }
    for _, tc := range cases {
        _, err := l.Cancel(context.Background(), b.ID, tc.actorID, tc.role)
        if !errors.Is(err, tc.wantErr) {
            t.Errorf("%s: err = %v, want %v", tc.name, err, tc.wantErr)
        }
    }
    // Forbidden attempts must not have touched the slot before the
    // provider's successful cancel released it.
    if !store.slots[10].IsAvailable {
        t.Error("slot not released by provider cancel")
    }
    store.checkConsistent(t)
}

func TestCancelTerminalStates(t *testing.T) {
    t.Parallel()
    store := newFakeStore()
    store.addUser(1, true)
    store.addSlot(10, 99, time.Now().Add(time.Hour))
    l := New(store)

    b, err := l.Reserve(context.Background(), 10, 1, nil)
    if err != nil {
        t.Fatalf("Reserve: %v", err)
    }
    if _, err := l.Cancel(context.Background(), b.ID, 1, model.RoleUser); err != nil {
        t.Fatalf("first Cancel: %v", err)
    }
    if _, err := l.Cancel(context.Background(), b.ID, 1, model.RoleUser); !errors.Is(err, ErrAlreadyCancelled) {
        t.Errorf("double cancel: err = %v, want ErrAlreadyCancelled", err)
    }
    if !store.slots[10].IsAvailable {
        t.Error("double cancel mutated slot availability")
    }

    // Completed bookings are terminal too.
    b2, err := l.Reserve(context.Background(), 10, 1, nil)
    if err != nil {
        t.Fatalf("Reserve: %v", err)
    }
    store.mu.Lock()
    store.bookings[b2.ID].Status = model.BookingCompleted
    store.mu.Unlock()
    if _, err := l.Cancel(context.Background(), b2.ID, 1, model.RoleUser); !errors.Is(err, ErrCompleted) {
        t.Errorf("cancel completed: err = %v, want ErrCompleted", err)
    }
}

func TestCancelUnknownBooking(t *testing.T) {
    t.Parallel()
    l := New(newFakeStore())
    if _, err := l.Cancel(context.Background(), 404, 1, model.RoleUser); !errors.Is(err, ErrBookingNotFound) {
        t.Errorf("err = %v, want ErrBookingNotFound", err)
    }
}

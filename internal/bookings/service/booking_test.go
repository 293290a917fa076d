package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	bookingerrors "voyago/internal/bookings/errors"
	"voyago/internal/bookings/validator"
	traveloptionerrors "voyago/internal/traveloptions/errors"
	"voyago/pkg/config"
	mongotx "voyago/pkg/db/mongo"
	apperrors "voyago/pkg/errors"
	"voyago/pkg/kafka"
	"voyago/pkg/logger"
	"voyago/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testOptionID = "68b1f00000000000000000aa"
	testUserID   = "user-42"
)

var testNow = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

// Mock booking repository; transactions run the callback directly.
type mockBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	nextID   int

	createFunc       func(ctx context.Context, booking *model.Booking) error
	updateStatusFunc func(ctx context.Context, id, fromStatus, toStatus string) error
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[string]*model.Booking)}
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	booking.ID = uuid.NewString()
	booking.CreatedAt = testNow
	booking.UpdatedAt = testNow
	copied := *booking
	m.bookings[booking.ID] = &copied
	return nil
}

func (m *mockBookingRepo) FindByIDForUser(ctx context.Context, id, userID string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok || booking.UserID != userID {
		return nil, bookingerrors.ErrNotFound
	}
	copied := *booking
	return &copied, nil
}

func (m *mockBookingRepo) FindByReferenceForUser(ctx context.Context, reference, userID string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, booking := range m.bookings {
		if booking.Reference == reference && booking.UserID == userID {
			copied := *booking
			return &copied, nil
		}
	}
	return nil, bookingerrors.ErrNotFound
}

func (m *mockBookingRepo) FindAllForUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, booking := range m.bookings {
		if booking.UserID == userID {
			copied := *booking
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) CountForUser(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, booking := range m.bookings {
		if booking.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id, fromStatus, toStatus string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, fromStatus, toStatus)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok || booking.Status != fromStatus {
		return bookingerrors.ErrStatusConflict
	}
	booking.Status = toStatus
	return nil
}

func (m *mockBookingRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (m *mockBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

// memoryInventory is a mutex-guarded seat counter mirroring the conditional
// update semantics of the real repository.
type memoryInventory struct {
	mu     sync.Mutex
	option *model.TravelOption

	findCalls int
}

func newMemoryInventory(option *model.TravelOption) *memoryInventory {
	return &memoryInventory{option: option}
}

func (m *memoryInventory) FindByID(ctx context.Context, id string) (*model.TravelOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	if m.option == nil || m.option.ID != id {
		return nil, traveloptionerrors.ErrNotFound
	}
	copied := *m.option
	return &copied, nil
}

func (m *memoryInventory) ReserveSeats(ctx context.Context, id string, seats int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.option == nil || m.option.ID != id {
		return traveloptionerrors.ErrNotFound
	}
	if m.option.AvailableSeats < seats {
		return traveloptionerrors.ErrInsufficientSeats
	}
	m.option.AvailableSeats -= seats
	return nil
}

func (m *memoryInventory) ReleaseSeats(ctx context.Context, id string, seats int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.option == nil || m.option.ID != id {
		return false, traveloptionerrors.ErrNotFound
	}
	clamped := m.option.AvailableSeats+seats > m.option.TotalSeats
	m.option.AvailableSeats += seats
	if clamped {
		m.option.AvailableSeats = m.option.TotalSeats
	}
	return clamped, nil
}

func (m *memoryInventory) available() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.option.AvailableSeats
}

type mockSeatLocks struct {
	acquireFunc func(ctx context.Context, lock *model.SeatLock) error
	releaseFunc func(ctx context.Context, lockID string) error
}

func (m *mockSeatLocks) Acquire(ctx context.Context, lock *model.SeatLock) error {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, lock)
	}
	return nil
}

func (m *mockSeatLocks) Release(ctx context.Context, lockID string) error {
	if m.releaseFunc != nil {
		return m.releaseFunc(ctx, lockID)
	}
	return nil
}

func (m *mockSeatLocks) EnsureIndexes(ctx context.Context) error { return nil }

type mockPublisher struct {
	mu        sync.Mutex
	published []kafka.Message
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, msg)
	return nil
}

func (m *mockPublisher) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var types []string
	for _, msg := range m.published {
		types = append(types, msg.Headers[kafka.HeaderEventType])
	}
	return types
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.FormatText,
		Output:  io.Discard,
		Service: "test",
	})
}

func testConfig() *config.Config {
	return &config.Config{
		SeatLockTTL:        10 * time.Second,
		MaxSeatsPerBooking: 10,
	}
}

func testOption(available int) *model.TravelOption {
	departure := time.Date(2026, time.September, 15, 6, 30, 0, 0, time.UTC)
	return &model.TravelOption{
		ID:             testOptionID,
		Mode:           model.ModeTrain,
		Operator:       "Rajdhani Express",
		Origin:         "Delhi",
		Destination:    "Mumbai",
		DepartureTime:  departure,
		ArrivalTime:    departure.Add(16 * time.Hour),
		PriceCents:     10000,
		TotalSeats:     2,
		AvailableSeats: available,
	}
}

func newTestService(
	bookings *mockBookingRepo,
	inventory *memoryInventory,
	locks *mockSeatLocks,
	publisher Publisher,
) BookingService {
	log := testLogger()
	svc := NewBookingService(
		bookings,
		inventory,
		locks,
		validator.NewBookingValidator(log),
		publisher,
		testConfig(),
		log,
	)
	svc.(*bookingService).now = func() time.Time { return testNow }
	return svc
}

func createRequest(seats int) *model.CreateBookingRequest {
	passengers := make([]model.Passenger, seats)
	for i := range passengers {
		passengers[i] = model.Passenger{Name: "Asha Rao", Age: 30}
	}
	return &model.CreateBookingRequest{
		TravelOptionID: testOptionID,
		NumberOfSeats:  seats,
		Passengers:     passengers,
	}
}

func TestCreate_Success(t *testing.T) {
	bookings := newMockBookingRepo()
	inventory := newMemoryInventory(testOption(2))
	publisher := &mockPublisher{}
	svc := newTestService(bookings, inventory, &mockSeatLocks{}, publisher)

	booking, err := svc.Create(context.Background(), testUserID, createRequest(2))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := uuid.Parse(booking.Reference); err != nil {
		t.Errorf("expected a UUID reference, got %q", booking.Reference)
	}
	if booking.Status != model.StatusConfirmed {
		t.Errorf("expected status %q, got %q", model.StatusConfirmed, booking.Status)
	}
	if booking.TotalPriceCents != 20000 {
		t.Errorf("expected total price 20000, got %d", booking.TotalPriceCents)
	}
	if booking.UserID != testUserID {
		t.Errorf("expected user id %q, got %q", testUserID, booking.UserID)
	}
	if got := inventory.available(); got != 0 {
		t.Errorf("expected 0 available seats after booking, got %d", got)
	}
	if types := publisher.eventTypes(); len(types) != 1 || types[0] != EventBookingCreated {
		t.Errorf("expected one %s event, got %v", EventBookingCreated, types)
	}
}

func TestCreate_PriceIsServerComputed(t *testing.T) {
	bookings := newMockBookingRepo()
	inventory := newMemoryInventory(testOption(2))
	svc := newTestService(bookings, inventory, &mockSeatLocks{}, nil)

	booking, err := svc.Create(context.Background(), testUserID, createRequest(1))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if booking.TotalPriceCents != 10000 {
		t.Errorf("expected total price 10000, got %d", booking.TotalPriceCents)
	}
}

func TestCreate_OptionNotFound(t *testing.T) {
	bookings := newMockBookingRepo()
	inventory := newMemoryInventory(nil)
	svc := newTestService(bookings, inventory, &mockSeatLocks{}, nil)

	_, err := svc.Create(context.Background(), testUserID, createRequest(1))
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCreate_DepartedOption(t *testing.T) {
	option := testOption(2)
	option.DepartureTime = testNow.Add(-1 * time.Hour)

	bookings := newMockBookingRepo()
	inventory := newMemoryInventory(option)
	svc := newTestService(bookings, inventory, &mockSeatLocks{}, nil)

	_, err := svc.Create(context.Background(), testUserID, createRequest(1))
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if got := inventory.available(); got != 2 {
		t.Errorf("expected seats untouched, got %d available", got)
	}
}

func TestCreate_InsufficientSeats(t *testing.T) {
	bookings := newMockBookingRepo()
	inventory := newMemoryInventory(testOption(1))
	svc := newTestService(bookings, inventory, &mockSeatLocks{}, nil)

	_, err := svc.Create(context.Background(), testUserID, createRequest(2))
	if !apperrors.IsCode(err, apperrors.CodeInsufficientSeats) {
		t.Fatalf("expected INSUFFICIENT_SEATS, got %v", err)
	}
	if got := inventory.available(); got != 1 {
		t.Errorf("expected seats untouched, got %d available", got)
	}
}

func TestCreate_ExceedsMaxSeatsPerBooking(t *testing.T) {
	option := testOption(50)
	option.TotalSeats = 50

	bookings := newMockBookingRepo()
	inventory := newMemoryInventory(option)
	svc := newTestService(bookings, inventory, &mockSeatLocks{}, nil)

	_, err := svc.Create(context.Background(), testUserID, createRequest(11))
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCreate_LockHeldByAnotherRequest(t *testing.T) {
	bookings := newMockBookingRepo()
	inventory := newMemoryInventory(testOption(2))
	locks := &mockSeatLocks{
		acquireFunc: func(ctx context.Context, lock *model.SeatLock) error {
			return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
		},
	}
	svc := newTestService(bookings, inventory, locks, nil)

	_, err := svc.Create(context.Background(), testUserID, createRequest(1))
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestCreate_MissingUserID(t *testing.T) {
	bookings := newMockBookingRepo()
	inventory := newMemoryInventory(testOption(2))
	svc := newTestService(bookings, inventory, &mockSeatLocks{}, nil)

	_, err := svc.Create(context.Background(), "", createRequest(1))
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

// Seats are never overbooked under contention: with one fewer seat than
// requests, exactly one request loses and the counter lands on zero.
func TestCreate_ConcurrentSeatConservation(t *testing.T) {
	const requests = 4

	option := testOption(requests - 1)
	option.TotalSeats = requests - 1

	bookings := newMockBookingRepo()
	inventory := newMemoryInventory(option)
	svc := newTestService(bookings, inventory, &mockSeatLocks{}, nil)

	errs := make([]error, requests)
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), testUserID, createRequest(1))
		}(i)
	}
	wg.Wait()

	succeeded, lost := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperrors.IsCode(err, apperrors.CodeInsufficientSeats):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != requests-1 {
		t.Errorf("expected %d successful bookings, got %d", requests-1, succeeded)
	}
	if lost != 1 {
		t.Errorf("expected 1 request to lose the race, got %d", lost)
	}
	if got := inventory.available(); got != 0 {
		t.Errorf("expected 0 available seats, got %d", got)
	}

	count, _ := bookings.CountForUser(context.Background(), testUserID)
	if count != int64(requests-1) {
		t.Errorf("expected %d stored bookings, got %d", requests-1, count)
	}
}

func TestCancel_Success(t *testing.T) {
	bookings := newMockBookingRepo()
	inventory := newMemoryInventory(testOption(2))
	publisher := &mockPublisher{}
	svc := newTestService(bookings, inventory, &mockSeatLocks{}, publisher)

	booking, err := svc.Create(context.Background(), testUserID, createRequest(2))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if got := inventory.available(); got != 0 {
		t.Fatalf("expected 0 available after create, got %d", got)
	}

	cancelled, err := svc.Cancel(context.Background(), testUserID, booking.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if cancelled.Status != model.StatusCancelled {
		t.Errorf("expected status %q, got %q", model.StatusCancelled, cancelled.Status)
	}
	if got := inventory.available(); got != 2 {
		t.Errorf("expected seats restored to 2, got %d", got)
	}

	stored, err := bookings.FindByIDForUser(context.Background(), booking.ID, testUserID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored.Status != model.StatusCancelled {
		t.Errorf("expected stored status %q, got %q", model.StatusCancelled, stored.Status)
	}

	want := []string{EventBookingCreated, EventBookingCancelled}
	got := publisher.eventTypes()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected events %v, got %v", want, got)
	}
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	bookings := newMockBookingRepo()
	inventory := newMemoryInventory(testOption(2))
	svc := newTestService(bookings, inventory, &mockSeatLocks{}, nil)

	booking, err := svc.Create(context.Background(), testUserID, createRequest(1))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), testUserID, booking.ID); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}

	availableAfterFirst := inventory.available()

	_, err = svc.Cancel(context.Background(), testUserID, booking.ID)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	if got := inventory.available(); got != availableAfterFirst {
		t.Errorf("second cancel must not release seats again: had %d, now %d", availableAfterFirst, got)
	}
}

func TestCancel_NotFound(t *testing.T) {
	bookings := newMockBookingRepo()
	inventory := newMemoryInventory(testOption(2))
	svc := newTestService(bookings, inventory, &mockSeatLocks{}, nil)

	_, err := svc.Cancel(context.Background(), testUserID, uuid.NewString())
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCancel_OtherUsersBooking(t *testing.T) {
	bookings := newMockBookingRepo()
	inventory := newMemoryInventory(testOption(2))
	svc := newTestService(bookings, inventory, &mockSeatLocks{}, nil)

	booking, err := svc.Create(context.Background(), testUserID, createRequest(1))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.Cancel(context.Background(), "someone-else", booking.ID)
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for another user's booking, got %v", err)
	}
}

// A release that would exceed total_seats is clamped; cancellation still
// succeeds.
func TestCancel_ClampedRelease(t *testing.T) {
	bookings := newMockBookingRepo()
	option := testOption(2)
	inventory := newMemoryInventory(option)
	svc := newTestService(bookings, inventory, &mockSeatLocks{}, nil)

	booking, err := svc.Create(context.Background(), testUserID, createRequest(1))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Simulate counter drift from an out-of-band correction.
	inventory.mu.Lock()
	inventory.option.AvailableSeats = option.TotalSeats
	inventory.mu.Unlock()

	cancelled, err := svc.Cancel(context.Background(), testUserID, booking.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Errorf("expected status %q, got %q", model.StatusCancelled, cancelled.Status)
	}
	if got := inventory.available(); got != option.TotalSeats {
		t.Errorf("expected available clamped at %d, got %d", option.TotalSeats, got)
	}
}

func TestGetByReference(t *testing.T) {
	bookings := newMockBookingRepo()
	inventory := newMemoryInventory(testOption(2))
	svc := newTestService(bookings, inventory, &mockSeatLocks{}, nil)

	booking, err := svc.Create(context.Background(), testUserID, createRequest(1))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, err := svc.GetByReference(context.Background(), testUserID, booking.Reference)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if found.ID != booking.ID {
		t.Errorf("expected booking %s, got %s", booking.ID, found.ID)
	}

	if _, err := svc.GetByReference(context.Background(), testUserID, ""); !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for empty reference, got %v", err)
	}

	if _, err := svc.GetByReference(context.Background(), "someone-else", booking.Reference); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND for another user, got %v", err)
	}
}

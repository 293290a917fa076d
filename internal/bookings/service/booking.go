package service

import (
	"context"
	"errors"
	"time"

	bookingerrors "voyago/internal/bookings/errors"
	"voyago/internal/bookings/repository"
	"voyago/internal/bookings/validator"
	traveloptionerrors "voyago/internal/traveloptions/errors"
	"voyago/pkg/config"
	apperrors "voyago/pkg/errors"
	"voyago/pkg/kafka"
	"voyago/pkg/logger"
	"voyago/pkg/model"
	"voyago/pkg/sanitizer"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// InventoryRepository is the slice of the travel option repository the
// booking service mutates. Seat counter changes always happen here, inside
// the booking transaction.
type InventoryRepository interface {
	FindByID(ctx context.Context, id string) (*model.TravelOption, error)
	ReserveSeats(ctx context.Context, id string, seats int) error
	ReleaseSeats(ctx context.Context, id string, seats int) (clamped bool, err error)
}

type BookingService interface {
	Create(ctx context.Context, userID string, req *model.CreateBookingRequest) (*model.Booking, error)
	Cancel(ctx context.Context, userID, bookingID string) (*model.Booking, error)
	GetByID(ctx context.Context, userID, bookingID string) (*model.Booking, error)
	GetByReference(ctx context.Context, userID, reference string) (*model.Booking, error)
	GetAllForUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error)
}

type bookingService struct {
	bookings  repository.BookingRepository
	inventory InventoryRepository
	locks     repository.SeatLockRepository
	validator *validator.BookingValidator
	publisher Publisher
	cfg       *config.Config
	logger    *logger.Logger
	now       func() time.Time
}

func NewBookingService(
	bookings repository.BookingRepository,
	inventory InventoryRepository,
	locks repository.SeatLockRepository,
	v *validator.BookingValidator,
	publisher Publisher,
	cfg *config.Config,
	log *logger.Logger,
) BookingService {
	return &bookingService{
		bookings:  bookings,
		inventory: inventory,
		locks:     locks,
		validator: v,
		publisher: publisher,
		cfg:       cfg,
		logger:    log,
		now:       time.Now,
	}
}

// Create books seats on a travel option. The seat counter mutation and the
// booking insert commit atomically; the advisory lock serializes concurrent
// bookings against the same option so the conditional decrement races stay
// rare rather than correctness-critical.
func (s *bookingService) Create(ctx context.Context, userID string, req *model.CreateBookingRequest) (*model.Booking, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	s.sanitizeRequest(req)

	if err := s.validator.ValidateRequest(req); err != nil {
		return nil, err
	}

	if s.cfg.MaxSeatsPerBooking > 0 && req.NumberOfSeats > s.cfg.MaxSeatsPerBooking {
		return nil, apperrors.Validation(
			"number_of_seats exceeds the per-booking maximum",
			map[string]any{
				"field":     "number_of_seats",
				"max_seats": s.cfg.MaxSeatsPerBooking,
				"requested": req.NumberOfSeats,
			},
		)
	}

	option, err := s.loadOption(ctx, req.TravelOptionID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateCreate(option, req, s.now()); err != nil {
		return nil, err
	}

	release, err := s.acquireLock(ctx, option.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	booking := &model.Booking{
		Reference:       uuid.NewString(),
		UserID:          userID,
		TravelOptionID:  option.ID,
		NumberOfSeats:   req.NumberOfSeats,
		Passengers:      req.Passengers,
		TotalPriceCents: int64(req.NumberOfSeats) * option.PriceCents,
		Status:          model.StatusConfirmed,
	}

	err = s.bookings.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.inventory.ReserveSeats(txCtx, option.ID, req.NumberOfSeats); err != nil {
			if errors.Is(err, traveloptionerrors.ErrInsufficientSeats) {
				return s.insufficientSeats(txCtx, option.ID, req.NumberOfSeats)
			}
			if errors.Is(err, traveloptionerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Travel option", option.ID)
			}
			return apperrors.Internal("Failed to reserve seats", err)
		}

		if err := s.bookings.Create(txCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}

		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Booking transaction failed", err)
	}

	s.logger.Info("booking created",
		"booking_id", booking.ID,
		"reference", booking.Reference,
		"user_id", userID,
		"travel_option_id", option.ID,
		"seats", booking.NumberOfSeats,
	)

	s.publishEvent(ctx, EventBookingCreated, booking)

	return booking, nil
}

// Cancel releases the booking's seats back to the option and marks the
// booking cancelled, atomically. Only confirmed bookings can be cancelled;
// cancelling twice is a conflict, not a second release.
func (s *bookingService) Cancel(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	booking, err := s.bookings.FindByIDForUser(ctx, bookingID, userID)
	if err != nil {
		return nil, mapBookingLookupErr(err, bookingID)
	}

	if booking.Status != model.StatusConfirmed {
		return nil, apperrors.Conflict("only confirmed bookings can be cancelled")
	}

	release, err := s.acquireLock(ctx, booking.TravelOptionID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.bookings.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		clamped, err := s.inventory.ReleaseSeats(txCtx, booking.TravelOptionID, booking.NumberOfSeats)
		if err != nil {
			if errors.Is(err, traveloptionerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Travel option", booking.TravelOptionID)
			}
			return apperrors.Internal("Failed to release seats", err)
		}
		if clamped {
			// Seat counters drifted; the release was capped at total_seats.
			s.logger.Warn("seat release clamped at capacity",
				"travel_option_id", booking.TravelOptionID,
				"booking_id", booking.ID,
				"seats", booking.NumberOfSeats,
			)
		}

		if err := s.bookings.UpdateStatus(txCtx, booking.ID, model.StatusConfirmed, model.StatusCancelled); err != nil {
			if errors.Is(err, bookingerrors.ErrStatusConflict) {
				return apperrors.Conflict("booking was already cancelled")
			}
			return apperrors.Internal("Failed to update booking status", err)
		}

		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Cancellation transaction failed", err)
	}

	booking.Status = model.StatusCancelled

	s.logger.Info("booking cancelled",
		"booking_id", booking.ID,
		"reference", booking.Reference,
		"user_id", userID,
		"travel_option_id", booking.TravelOptionID,
		"seats", booking.NumberOfSeats,
	)

	s.publishEvent(ctx, EventBookingCancelled, booking)

	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	booking, err := s.bookings.FindByIDForUser(ctx, bookingID, userID)
	if err != nil {
		return nil, mapBookingLookupErr(err, bookingID)
	}

	return booking, nil
}

func (s *bookingService) GetByReference(ctx context.Context, userID, reference string) (*model.Booking, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if reference == "" {
		return nil, apperrors.InvalidInput("booking reference is required")
	}

	booking, err := s.bookings.FindByReferenceForUser(ctx, reference, userID)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", reference)
		}
		return nil, apperrors.Internal("Failed to fetch booking", err)
	}

	return booking, nil
}

func (s *bookingService) GetAllForUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if userID == "" {
		return nil, 0, apperrors.InvalidInput("user id is required")
	}

	bookings, err := s.bookings.FindAllForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to fetch bookings", err)
	}

	count, err := s.bookings.CountForUser(ctx, userID)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count bookings", err)
	}

	return bookings, count, nil
}

func (s *bookingService) sanitizeRequest(req *model.CreateBookingRequest) {
	for i := range req.Passengers {
		req.Passengers[i].Name = sanitizer.NormalizeName(req.Passengers[i].Name)
		req.Passengers[i].IDNumber = sanitizer.TrimAndNormalize(req.Passengers[i].IDNumber)
		req.Passengers[i].SpecialRequirements = sanitizer.TrimAndNormalize(req.Passengers[i].SpecialRequirements)
	}
}

func (s *bookingService) loadOption(ctx context.Context, id string) (*model.TravelOption, error) {
	option, err := s.inventory.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, traveloptionerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Travel option", id)
		}
		if errors.Is(err, traveloptionerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("invalid travel option id")
		}
		return nil, apperrors.Internal("Failed to fetch travel option", err)
	}
	return option, nil
}

// acquireLock takes the advisory per-option lock and returns its release
// func. A duplicate key insert means another request is mutating the same
// option's seats right now.
func (s *bookingService) acquireLock(ctx context.Context, travelOptionID string) (func(), error) {
	lock := &model.SeatLock{
		ID:        travelOptionID,
		ExpiresAt: s.now().Add(s.cfg.SeatLockTTL),
	}

	if err := s.locks.Acquire(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.Conflict("travel option is being booked by another request, please retry")
		}
		return nil, apperrors.Internal("Failed to acquire seat lock", err)
	}

	return func() {
		if err := s.locks.Release(ctx, travelOptionID); err != nil {
			// The TTL index reaps the lock if this fails.
			s.logger.Warn("failed to release seat lock",
				"travel_option_id", travelOptionID,
				"error", err,
			)
		}
	}, nil
}

// insufficientSeats refetches the option so the error carries the live seat
// count the caller actually lost to.
func (s *bookingService) insufficientSeats(ctx context.Context, optionID string, requested int) error {
	available := 0
	if fresh, err := s.inventory.FindByID(ctx, optionID); err == nil {
		available = fresh.AvailableSeats
	}
	return apperrors.InsufficientSeats(available, requested)
}

func (s *bookingService) publishEvent(ctx context.Context, eventType string, booking *model.Booking) {
	if s.publisher == nil {
		return
	}

	event := BookingEvent{
		EventType:       eventType,
		BookingID:       booking.ID,
		Reference:       booking.Reference,
		UserID:          booking.UserID,
		TravelOptionID:  booking.TravelOptionID,
		NumberOfSeats:   booking.NumberOfSeats,
		TotalPriceCents: booking.TotalPriceCents,
		Status:          booking.Status,
		OccurredAt:      s.now(),
	}

	msg := kafka.NewMessage().
		WithKey(booking.TravelOptionID).
		WithValue(event).
		WithEventType(eventType).
		WithSource(eventSource).
		Build()

	// Publishing is best effort; the booking is already committed.
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Error("failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

func mapBookingLookupErr(err error, id string) error {
	switch {
	case errors.Is(err, bookingerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingerrors.ErrInvalidID):
		return apperrors.InvalidInput("invalid booking id")
	default:
		return apperrors.Internal("Failed to fetch booking", err)
	}
}

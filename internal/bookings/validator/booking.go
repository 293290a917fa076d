package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "voyago/pkg/errors"
	"voyago/pkg/logger"
	"voyago/pkg/model"

	"github.com/go-playground/validator/v10"
)

const (
	MinPassengerAge = 1
	MaxPassengerAge = 120
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		validate: validator.New(),
		logger:   log,
	}
}

// ValidateRequest checks the request shape before any storage access.
func (v *BookingValidator) ValidateRequest(req *model.CreateBookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return apperrors.Validation("Booking validation failed", map[string]any{
				"error": translate(validationErrs),
			})
		}
		return err
	}
	return nil
}

// ValidateCreate applies the domain checks in order, failing on the first
// violation. The order is part of the contract: seat count, departure,
// availability, passenger count, then per-passenger fields.
func (v *BookingValidator) ValidateCreate(option *model.TravelOption, req *model.CreateBookingRequest, now time.Time) error {
	if req.NumberOfSeats < 1 {
		return apperrors.Validation("number_of_seats must be at least 1", map[string]any{
			"field": "number_of_seats",
		})
	}

	if option.IsDeparted(now) {
		return apperrors.Validation(
			fmt.Sprintf("This %s from %s (%s) departed at %s and can no longer be booked",
				option.Mode, option.Route(), option.Operator, option.FormattedDeparture()),
			map[string]any{
				"field":          "travel_option_id",
				"departure_time": option.DepartureTime,
			},
		)
	}

	if option.AvailableSeats < req.NumberOfSeats {
		return apperrors.InsufficientSeats(option.AvailableSeats, req.NumberOfSeats)
	}

	if len(req.Passengers) != req.NumberOfSeats {
		return apperrors.Validation(
			fmt.Sprintf("passenger details required for each seat: %d seat(s) requested, %d passenger(s) provided",
				req.NumberOfSeats, len(req.Passengers)),
			map[string]any{
				"field": "passengers",
			},
		)
	}

	for i, p := range req.Passengers {
		if strings.TrimSpace(p.Name) == "" {
			return apperrors.Validation(
				fmt.Sprintf("passenger %d: name is required", i+1),
				map[string]any{
					"field":           "passengers",
					"passenger_index": i + 1,
				},
			)
		}
		if p.Age < MinPassengerAge || p.Age > MaxPassengerAge {
			return apperrors.Validation(
				fmt.Sprintf("passenger %d: age must be between %d and %d", i+1, MinPassengerAge, MaxPassengerAge),
				map[string]any{
					"field":           "passengers",
					"passenger_index": i + 1,
				},
			)
		}
	}

	return nil
}

func translate(errs validator.ValidationErrors) string {
	var messages []string

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		}

		messages = append(messages, message)
	}

	return strings.Join(messages, "; ")
}

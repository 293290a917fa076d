package validator

import (
	"errors"
	"fmt"
	"strings"

	"voyago/pkg/logger"
	"voyago/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type TravelOptionValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTravelOptionValidator(log *logger.Logger) *TravelOptionValidator {
	return &TravelOptionValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *TravelOptionValidator) Validate(option *model.TravelOption) error {
	if err := v.validate.Struct(option); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	if !option.ArrivalTime.After(option.DepartureTime) {
		return ValidationErrors{
			ValidationError{
				Field:   "ArrivalTime",
				Message: "departure must be before arrival",
			},
		}
	}

	if option.AvailableSeats > option.TotalSeats {
		return ValidationErrors{
			ValidationError{
				Field:   "AvailableSeats",
				Message: fmt.Sprintf("available seats (%d) cannot exceed total seats (%d)", option.AvailableSeats, option.TotalSeats),
			},
		}
	}

	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

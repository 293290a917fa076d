package validator

import (
	"io"
	"strings"
	"testing"
	"time"

	apperrors "voyago/pkg/errors"
	"voyago/pkg/logger"
	"voyago/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.FormatText,
		Output:  io.Discard,
		Service: "test",
	})
}

func futureOption() *model.TravelOption {
	departure := time.Date(2026, time.September, 15, 6, 30, 0, 0, time.UTC)
	return &model.TravelOption{
		ID:             "68b1f00000000000000000aa",
		Mode:           model.ModeFlight,
		Operator:       "IndiGo",
		Origin:         "Delhi",
		Destination:    "Mumbai",
		DepartureTime:  departure,
		ArrivalTime:    departure.Add(2 * time.Hour),
		PriceCents:     720000,
		TotalSeats:     160,
		AvailableSeats: 5,
	}
}

func passengers(n int) []model.Passenger {
	p := make([]model.Passenger, n)
	for i := range p {
		p[i] = model.Passenger{Name: "Asha Rao", Age: 30}
	}
	return p
}

func TestValidateCreate_Success(t *testing.T) {
	v := NewBookingValidator(testLogger())
	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

	req := &model.CreateBookingRequest{
		TravelOptionID: "68b1f00000000000000000aa",
		NumberOfSeats:  2,
		Passengers:     passengers(2),
	}

	if err := v.ValidateCreate(futureOption(), req, now); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateCreate_OrderedFailures(t *testing.T) {
	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

	departed := futureOption()
	departed.DepartureTime = now.Add(-3 * time.Hour)

	agedPassengers := passengers(2)
	agedPassengers[1].Age = 150

	blankName := passengers(2)
	blankName[0].Name = "   "

	tests := []struct {
		name        string
		option      *model.TravelOption
		seats       int
		passengers  []model.Passenger
		wantCode    string
		wantMessage string
	}{
		{
			name:        "zero seats",
			option:      futureOption(),
			seats:       0,
			passengers:  nil,
			wantCode:    apperrors.CodeValidation,
			wantMessage: "number_of_seats must be at least 1",
		},
		{
			name:        "departed option names mode route operator and time",
			option:      departed,
			seats:       1,
			passengers:  passengers(1),
			wantCode:    apperrors.CodeValidation,
			wantMessage: "This flight from Delhi to Mumbai (IndiGo) departed at 09:00 AM, 01 September 2026",
		},
		{
			name:        "departed wins over insufficient seats",
			option:      departed,
			seats:       100,
			passengers:  passengers(100),
			wantCode:    apperrors.CodeValidation,
			wantMessage: "departed",
		},
		{
			name:        "insufficient seats",
			option:      futureOption(),
			seats:       6,
			passengers:  passengers(6),
			wantCode:    apperrors.CodeInsufficientSeats,
			wantMessage: "only 5 seat(s) available, 6 requested",
		},
		{
			name:        "passenger count mismatch",
			option:      futureOption(),
			seats:       3,
			passengers:  passengers(2),
			wantCode:    apperrors.CodeValidation,
			wantMessage: "3 seat(s) requested, 2 passenger(s) provided",
		},
		{
			name:        "blank passenger name",
			option:      futureOption(),
			seats:       2,
			passengers:  blankName,
			wantCode:    apperrors.CodeValidation,
			wantMessage: "passenger 1: name is required",
		},
		{
			name:        "passenger age out of range",
			option:      futureOption(),
			seats:       2,
			passengers:  agedPassengers,
			wantCode:    apperrors.CodeValidation,
			wantMessage: "passenger 2: age must be between 1 and 120",
		},
	}

	v := NewBookingValidator(testLogger())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &model.CreateBookingRequest{
				TravelOptionID: tt.option.ID,
				NumberOfSeats:  tt.seats,
				Passengers:     tt.passengers,
			}

			err := v.ValidateCreate(tt.option, req, now)
			if err == nil {
				t.Fatal("expected an error, got nil")
			}

			appErr := apperrors.AsAppError(err)
			if appErr.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, appErr.Code)
			}
			if !strings.Contains(appErr.Message, tt.wantMessage) {
				t.Errorf("expected message to contain %q, got %q", tt.wantMessage, appErr.Message)
			}
		})
	}
}

func TestValidateCreate_InsufficientSeatsDetails(t *testing.T) {
	v := NewBookingValidator(testLogger())
	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

	option := futureOption()
	option.AvailableSeats = 1

	req := &model.CreateBookingRequest{
		TravelOptionID: option.ID,
		NumberOfSeats:  2,
		Passengers:     passengers(2),
	}

	err := v.ValidateCreate(option, req, now)
	appErr := apperrors.AsAppError(err)

	if appErr.Details["available_seats"] != 1 {
		t.Errorf("expected available_seats detail 1, got %v", appErr.Details["available_seats"])
	}
	if appErr.Details["requested_seats"] != 2 {
		t.Errorf("expected requested_seats detail 2, got %v", appErr.Details["requested_seats"])
	}
}

func TestValidateRequest(t *testing.T) {
	v := NewBookingValidator(testLogger())

	tests := []struct {
		name    string
		req     *model.CreateBookingRequest
		wantErr bool
	}{
		{
			name: "valid",
			req: &model.CreateBookingRequest{
				TravelOptionID: "68b1f00000000000000000aa",
				NumberOfSeats:  1,
				Passengers:     passengers(1),
			},
			wantErr: false,
		},
		{
			name: "missing travel option id",
			req: &model.CreateBookingRequest{
				NumberOfSeats: 1,
				Passengers:    passengers(1),
			},
			wantErr: true,
		},
		{
			name: "malformed travel option id",
			req: &model.CreateBookingRequest{
				TravelOptionID: "not-an-object-id",
				NumberOfSeats:  1,
				Passengers:     passengers(1),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRequest(tt.req)
			if tt.wantErr && err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

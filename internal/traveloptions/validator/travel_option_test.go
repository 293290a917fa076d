package validator

import (
	"io"
	"strings"
	"testing"
	"time"

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

func validOption() *model.TravelOption {
	departure := time.Date(2026, time.September, 15, 6, 30, 0, 0, time.UTC)
	return &model.TravelOption{
		Mode:           model.ModeBus,
		Operator:       "RedBus",
		Origin:         "Delhi",
		Destination:    "Agra",
		DepartureTime:  departure,
		ArrivalTime:    departure.Add(4 * time.Hour),
		PriceCents:     40000,
		TotalSeats:     45,
		AvailableSeats: 45,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.TravelOption)
		wantErr string
	}{
		{
			name:    "valid option",
			mutate:  func(o *model.TravelOption) {},
			wantErr: "",
		},
		{
			name:    "unknown mode",
			mutate:  func(o *model.TravelOption) { o.Mode = "boat" },
			wantErr: "Mode must be one of: flight train bus",
		},
		{
			name:    "missing operator",
			mutate:  func(o *model.TravelOption) { o.Operator = "" },
			wantErr: "Operator is required",
		},
		{
			name:    "single character origin",
			mutate:  func(o *model.TravelOption) { o.Origin = "D" },
			wantErr: "Origin must be at least 2",
		},
		{
			name:    "arrival before departure",
			mutate:  func(o *model.TravelOption) { o.ArrivalTime = o.DepartureTime.Add(-1 * time.Hour) },
			wantErr: "ArrivalTime must be after DepartureTime",
		},
		{
			name:    "arrival equals departure",
			mutate:  func(o *model.TravelOption) { o.ArrivalTime = o.DepartureTime },
			wantErr: "must be after",
		},
		{
			name:    "zero price",
			mutate:  func(o *model.TravelOption) { o.PriceCents = 0 },
			wantErr: "PriceCents is required",
		},
		{
			name:    "available exceeds total",
			mutate:  func(o *model.TravelOption) { o.AvailableSeats = 50 },
			wantErr: "available seats (50) cannot exceed total seats (45)",
		},
		{
			name:    "negative available seats",
			mutate:  func(o *model.TravelOption) { o.AvailableSeats = -1 },
			wantErr: "AvailableSeats must be at least 0",
		},
	}

	v := NewTravelOptionValidator(testLogger())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			option := validOption()
			tt.mutate(option)

			err := v.Validate(option)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error to contain %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

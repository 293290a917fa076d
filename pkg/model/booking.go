package model

import (
	"time"
)

const (
	// StatusPending exists for data compatibility with older imports; new
	// bookings are always created confirmed.
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Booking ties a seat reservation to a travel option. TotalPriceCents is
// computed server-side from the option price at creation and never taken
// from input. Invariant: len(Passengers) == NumberOfSeats.
type Booking struct {
	ID              string      `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Reference       string      `json:"reference" bson:"reference" validate:"omitempty,uuid4"`
	UserID          string      `json:"user_id" bson:"user_id" validate:"required"`
	TravelOptionID  string      `json:"travel_option_id" bson:"travel_option_id" validate:"required,mongodb"`
	NumberOfSeats   int         `json:"number_of_seats" bson:"number_of_seats" validate:"required,min=1"`
	Passengers      []Passenger `json:"passengers" bson:"passengers" validate:"required,min=1,dive"`
	TotalPriceCents int64       `json:"total_price_cents" bson:"total_price_cents"`
	Status          string      `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled"`
	CreatedAt       time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" bson:"updated_at"`
}

// CreateBookingRequest is the inbound shape for creating a booking. The
// acting user is never part of the body; it arrives as an explicit parameter
// from the transport layer.
type CreateBookingRequest struct {
	TravelOptionID string      `json:"travel_option_id" validate:"required,mongodb"`
	NumberOfSeats  int         `json:"number_of_seats"`
	Passengers     []Passenger `json:"passengers"`
}

// Passenger holds one seat occupant. One entry per reserved seat.
type Passenger struct {
	Name                string `json:"name" bson:"name" validate:"required"`
	Age                 int    `json:"age" bson:"age" validate:"required,min=1,max=120"`
	IDNumber            string `json:"id_number,omitempty" bson:"id_number,omitempty"`
	SpecialRequirements string `json:"special_requirements,omitempty" bson:"special_requirements,omitempty"`
}

package model

import (
	"fmt"
	"time"
)

// Travel modes form a closed enumeration; flights, trains and buses share
// identical inventory behavior, so mode is data, not a type hierarchy.
const (
	ModeFlight = "flight"
	ModeTrain  = "train"
	ModeBus    = "bus"
)

// departureTimeLayout matches the user-facing display format used in
// booking error messages, e.g. "06:30 AM, 15 September 2026".
const departureTimeLayout = "03:04 PM, 02 January 2006"

// TravelOption is one travel offering with a finite seat pool. The seat
// counters are the only mutable shared state; everything else is fixed at
// creation. Invariant: 0 <= available_seats <= total_seats.
type TravelOption struct {
	ID             string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Mode           string        `json:"mode" bson:"mode" validate:"required,oneof=flight train bus"`
	Operator       string        `json:"operator" bson:"operator" validate:"required,min=2,max=100"`
	Origin         string        `json:"origin" bson:"origin" validate:"required,min=2,max=100"`
	Destination    string        `json:"destination" bson:"destination" validate:"required,min=2,max=100"`
	DepartureTime  time.Time     `json:"departure_time" bson:"departure_time" validate:"required"`
	ArrivalTime    time.Time     `json:"arrival_time" bson:"arrival_time" validate:"required,gtfield=DepartureTime"`
	Duration       time.Duration `json:"duration" bson:"duration"`
	PriceCents     int64         `json:"price_cents" bson:"price_cents" validate:"required,min=1"`
	TotalSeats     int           `json:"total_seats" bson:"total_seats" validate:"required,min=0"`
	AvailableSeats int           `json:"available_seats" bson:"available_seats" validate:"min=0"`
	CreatedAt      time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" bson:"updated_at"`
}

// ComputeDuration derives the trip duration from the departure and arrival
// instants. Called once at construction; never recomputed on save.
func (t *TravelOption) ComputeDuration() {
	t.Duration = t.ArrivalTime.Sub(t.DepartureTime)
}

// IsDeparted reports whether the option departed before the given instant.
// Used to block new bookings only; cancellations have no temporal restriction.
func (t *TravelOption) IsDeparted(now time.Time) bool {
	return t.DepartureTime.Before(now)
}

func (t *TravelOption) Route() string {
	return fmt.Sprintf("%s to %s", t.Origin, t.Destination)
}

func (t *TravelOption) FormattedDeparture() string {
	return t.DepartureTime.Format(departureTimeLayout)
}

// FormatCents renders a minor-unit amount with two decimals, e.g. 10000 -> "100.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

package service

import (
	"context"
	"time"

	"voyago/pkg/kafka"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"

	BookingsTopic    = "voyago.bookings"
	BookingsDLQTopic = "voyago.bookings.dlq"

	eventSource = "voyago"
)

// Publisher is the slice of the Kafka producer the booking service needs.
// A nil Publisher disables event publishing entirely.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// BookingEvent is the payload published after a booking transaction commits.
// Messages are keyed by travel option id so consumers see seat changes for
// one option in order.
type BookingEvent struct {
	EventType       string    `json:"event_type"`
	BookingID       string    `json:"booking_id"`
	Reference       string    `json:"reference"`
	UserID          string    `json:"user_id"`
	TravelOptionID  string    `json:"travel_option_id"`
	NumberOfSeats   int       `json:"number_of_seats"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Status          string    `json:"status"`
	OccurredAt      time.Time `json:"occurred_at"`
}

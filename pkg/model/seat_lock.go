package model

import "time"

// SeatLock is an advisory lock serializing seat-counter mutations for one
// travel option. The unique _id makes acquisition an insert race; the TTL
// index on expires_at reaps locks leaked by crashed requests.
type SeatLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

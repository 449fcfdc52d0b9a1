package models

import "time"

// Wallet is a user's single balance record. Amounts are in minor units
// (kobo). CurrentBalance never goes negative; AllTimeFunding and
// AllTimeWithdrawn only grow. Mutated exclusively inside a transfer
// transaction or the external funding/withdrawal flows.
type Wallet struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	CurrentBalance   int64     `json:"current_balance"`
	AllTimeFunding   int64     `json:"all_time_funding"`
	AllTimeWithdrawn int64     `json:"all_time_withdrawn"`
	Active           bool      `json:"active"`
	UpdatedAt        time.Time `json:"updated_at"`
}

package models

import "time"

// Generation is one persisted alt-text generation.
type Generation struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	ImageURL  string    `json:"imageUrl"`
	AltText   string    `json:"altText"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreditStatus is the current window's quota state for one user.
// Derived from the counter on every read, never stored.
type CreditStatus struct {
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	Reset     int64     `json:"reset"` // epoch milliseconds of window end
	ResetDate time.Time `json:"resetDate"`
}

// ConsumeResult is the outcome of an atomic credit consumption.
type ConsumeResult struct {
	Success   bool      `json:"success"`
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	Reset     int64     `json:"reset"`
	ResetDate time.Time `json:"resetDate"`
}

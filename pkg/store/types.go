package store

import (
	"time"
)

// Session is one connection to a host, from dial to close.
type Session struct {
	ID            string     `json:"id"`
	Host          string     `json:"host"`
	Username      string     `json:"username,omitempty"`
	StartedAt     time.Time  `json:"startedAt"`
	EndedAt       *time.Time `json:"endedAt,omitempty"`
	TransferCount int        `json:"transferCount"`
	FailureCount  int        `json:"failureCount"`
}

// TransferFilter selects transfers. Zero fields match everything.
type TransferFilter struct {
	SessionID string
	Host      string
	Since     time.Time
	Until     time.Time

	// Limit caps the number of rows. Zero means no limit.
	Limit int
}

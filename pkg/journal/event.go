package journal

import (
	"fmt"
	"strings"
	"time"
)

// Event is a single journal record.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint" json:"timestamp"`

	// SessionID identifies the client session (UUID), one per connection.
	SessionID string `cbor:"2,keyasint" json:"session_id"`

	// TransferID identifies a single file transfer across its attempts (UUID).
	TransferID string `cbor:"3,keyasint,omitempty" json:"transfer_id,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint" json:"category"`

	// Host is the remote host (host:port).
	Host string `cbor:"5,keyasint,omitempty" json:"host,omitempty"`

	LocalPath  string `cbor:"6,keyasint,omitempty" json:"local_path,omitempty"`
	RemotePath string `cbor:"7,keyasint,omitempty" json:"remote_path,omitempty"`

	// Type-specific payload (one of these will be set).
	Attempt     *AttemptEvent     `cbor:"10,keyasint,omitempty" json:"attempt,omitempty"`
	Transfer    *TransferEvent    `cbor:"11,keyasint,omitempty" json:"transfer,omitempty"`
	Verify      *VerifyEvent      `cbor:"12,keyasint,omitempty" json:"verify,omitempty"`
	StateChange *StateChangeEvent `cbor:"13,keyasint,omitempty" json:"state_change,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty" json:"error,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryAttempt marks the start of an upload attempt or its backoff.
	CategoryAttempt Category = 0
	// CategoryTransfer marks a completed upload.
	CategoryTransfer Category = 1
	// CategoryVerify marks a checksum comparison.
	CategoryVerify Category = 2
	// CategoryState marks a lifecycle change.
	CategoryState Category = 3
	// CategoryError marks a failure.
	CategoryError Category = 4
)

// Categories lists all categories in display order.
var Categories = []Category{CategoryAttempt, CategoryTransfer, CategoryVerify, CategoryState, CategoryError}

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryAttempt:
		return "ATTEMPT"
	case CategoryTransfer:
		return "TRANSFER"
	case CategoryVerify:
		return "VERIFY"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the category by name for JSON exports.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseCategory parses a category name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("invalid category: %s (use: attempt, transfer, verify, state, error)", s)
}

// AttemptEvent describes one upload attempt.
type AttemptEvent struct {
	// Number is the 1-based attempt number.
	Number int `cbor:"1,keyasint" json:"number"`

	// MaxAttempts is the configured attempt limit.
	MaxAttempts int `cbor:"2,keyasint" json:"max_attempts"`

	// Backoff is set when the event records a wait before the next attempt.
	Backoff time.Duration `cbor:"3,keyasint,omitempty" json:"backoff,omitempty"`
}

// TransferEvent captures the metrics of a completed upload.
type TransferEvent struct {
	SizeBytes      int64         `cbor:"1,keyasint" json:"size_bytes"`
	Duration       time.Duration `cbor:"2,keyasint" json:"duration"`
	ThroughputMbps float64       `cbor:"3,keyasint" json:"throughput_mbps"`
	SHA256         string        `cbor:"4,keyasint" json:"sha256"`
	Attempts       int           `cbor:"5,keyasint" json:"attempts"`
	Verified       bool          `cbor:"6,keyasint,omitempty" json:"verified,omitempty"`
}

// VerifyEvent captures a checksum comparison.
type VerifyEvent struct {
	LocalSHA256  string `cbor:"1,keyasint" json:"local_sha256"`
	RemoteSHA256 string `cbor:"2,keyasint" json:"remote_sha256"`
	Match        bool   `cbor:"3,keyasint" json:"match"`
}

// StateChangeEvent captures connection, session and batch lifecycle events.
type StateChangeEvent struct {
	Entity   StateEntity `cbor:"1,keyasint" json:"entity"`
	OldState string      `cbor:"2,keyasint,omitempty" json:"old_state,omitempty"`
	NewState string      `cbor:"3,keyasint" json:"new_state"`
	Reason   string      `cbor:"4,keyasint,omitempty" json:"reason,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	StateEntityConnection StateEntity = 0
	StateEntitySession    StateEntity = 1
	StateEntityBatch      StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntitySession:
		return "SESSION"
	case StateEntityBatch:
		return "BATCH"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the entity by name for JSON exports.
func (s StateEntity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Stage is the part of an attempt that failed.
type Stage uint8

const (
	StageConnect Stage = 0
	StageHash    Stage = 1
	StageUpload  Stage = 2
	StageVerify  Stage = 3
	StagePublish Stage = 4
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageConnect:
		return "CONNECT"
	case StageHash:
		return "HASH"
	case StageUpload:
		return "UPLOAD"
	case StageVerify:
		return "VERIFY"
	case StagePublish:
		return "PUBLISH"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the stage by name for JSON exports.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrorEventData captures a failure.
type ErrorEventData struct {
	// Stage where the error occurred.
	Stage Stage `cbor:"1,keyasint" json:"stage"`

	// Message is the error message.
	Message string `cbor:"2,keyasint" json:"message"`

	// Attempt is the attempt number the error belongs to (0 if none).
	Attempt int `cbor:"3,keyasint,omitempty" json:"attempt,omitempty"`

	// Final is true when no further attempt will be made.
	Final bool `cbor:"4,keyasint,omitempty" json:"final,omitempty"`
}

package transfer

import (
	"errors"
	"fmt"
)

// Transfer errors.
var (
	ErrIntegrity     = errors.New("checksum mismatch")
	ErrMaxRetries    = errors.New("max retries exceeded")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrClosed        = errors.New("client closed")
	ErrShortWrite    = errors.New("source shorter than declared size")
)

// ProtocolError is an error reported by the remote scp sink.
// Code 1 is a warning, code 2 is fatal; both abort the upload.
type ProtocolError struct {
	Code    byte
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("scp: remote error (code %d): %s", e.Code, e.Message)
}

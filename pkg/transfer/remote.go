package transfer

import (
	"context"
	"io"
	"os"
)

// FileInfo describes the file announced to the scp sink.
type FileInfo struct {
	// Name is the file name sent in the C record (no directory part).
	Name string
	Size int64
	Mode os.FileMode
}

// Remote is the remote side of a transfer session.
type Remote interface {
	// Upload streams exactly info.Size bytes from src to remotePath.
	Upload(ctx context.Context, src io.Reader, info FileInfo, remotePath string) error

	// SHA256 returns the lowercase hex SHA-256 of the remote file.
	SHA256(ctx context.Context, remotePath string) (string, error)

	// Addr identifies the remote host (host:port).
	Addr() string

	// Close releases the connection.
	Close() error
}

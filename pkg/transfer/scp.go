package transfer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// SCP sink protocol response codes.
const (
	scpOK      byte = 0
	scpWarning byte = 1
	scpFatal   byte = 2
)

// shellQuote quotes s for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// readAck reads one sink response.
func readAck(r *bufio.Reader) error {
	code, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("scp: reading ack: %w", err)
	}
	if code == scpOK {
		return nil
	}

	msg, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("scp: reading error message: %w", err)
	}
	if code != scpWarning && code != scpFatal {
		return &ProtocolError{Code: code, Message: fmt.Sprintf("unexpected response 0x%02x %s", code, strings.TrimSpace(msg))}
	}
	return &ProtocolError{Code: code, Message: strings.TrimSpace(msg)}
}

// sendFile runs the source side of "scp -t" for a single file: wait for the
// sink, announce the file, stream the content, and wait for each ack.
func sendFile(w io.Writer, r *bufio.Reader, src io.Reader, info FileInfo) error {
	if info.Name == "" || strings.ContainsAny(info.Name, "/\n") {
		return fmt.Errorf("scp: invalid file name %q", info.Name)
	}
	if info.Size < 0 {
		return fmt.Errorf("scp: invalid size %d", info.Size)
	}

	if err := readAck(r); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "C%04o %d %s\n", info.Mode.Perm(), info.Size, info.Name); err != nil {
		return fmt.Errorf("scp: writing header: %w", err)
	}
	if err := readAck(r); err != nil {
		return err
	}

	n, err := io.Copy(w, io.LimitReader(src, info.Size))
	if err != nil {
		return fmt.Errorf("scp: writing content: %w", err)
	}
	if n != info.Size {
		return fmt.Errorf("scp: %w: sent %d of %d bytes", ErrShortWrite, n, info.Size)
	}

	if _, err := w.Write([]byte{scpOK}); err != nil {
		return fmt.Errorf("scp: writing trailer: %w", err)
	}
	return readAck(r)
}

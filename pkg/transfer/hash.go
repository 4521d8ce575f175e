package transfer

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"regexp"
)

// hashChunkSize is the read size used when hashing local files.
const hashChunkSize = 8192

var sha256Hex = regexp.MustCompile(`^[0-9a-f]{64}$`)

// FileSHA256 returns the lowercase hex SHA-256 of the file at path.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, hashChunkSize)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsSHA256Hex reports whether s is a lowercase hex SHA-256 digest.
func IsSHA256Hex(s string) bool {
	return sha256Hex.MatchString(s)
}

// Package integrity computes and checks content digests for downloaded
// release artifacts.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// chunkSize matches the download copy buffer so hashing never holds a full
// artifact in memory.
const chunkSize = 64 * 1024

// FileSHA256 returns the SHA-256 digest of the file at path as uppercase
// hex, streaming the content in fixed-size chunks.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return strings.ToUpper(hex.EncodeToString(h.Sum(nil))), nil
}

// Verify reports whether the file at path matches expectedHex, comparing
// case-insensitively, and returns the actual digest so callers can log a
// mismatch or persist the hash of an installed file. An empty expectedHex
// passes by policy: local and offline sources may publish no digest, and
// the caller is expected to log the skip rather than fail the install.
func Verify(path, expectedHex string) (bool, string, error) {
	actual, err := FileSHA256(path)
	if err != nil {
		return false, "", err
	}
	if expectedHex == "" {
		return true, actual, nil
	}
	return strings.EqualFold(actual, expectedHex), actual, nil
}

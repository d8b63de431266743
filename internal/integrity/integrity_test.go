package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.bin")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestFileSHA256(t *testing.T) {
	content := []byte("zocopos release artifact")
	path := writeTemp(t, content)

	got, err := FileSHA256(path)
	if err != nil {
		t.Fatalf("FileSHA256 failed: %v", err)
	}

	sum := sha256.Sum256(content)
	want := strings.ToUpper(hex.EncodeToString(sum[:]))
	if got != want {
		t.Errorf("digest = %s, want %s", got, want)
	}
	if got != strings.ToUpper(got) {
		t.Errorf("digest %s is not uppercase", got)
	}
}

func TestFileSHA256LargerThanChunk(t *testing.T) {
	// Force multiple read chunks through the streaming path.
	content := make([]byte, chunkSize*3+17)
	for i := range content {
		content[i] = byte(i % 251)
	}
	path := writeTemp(t, content)

	got, err := FileSHA256(path)
	if err != nil {
		t.Fatalf("FileSHA256 failed: %v", err)
	}

	sum := sha256.Sum256(content)
	want := strings.ToUpper(hex.EncodeToString(sum[:]))
	if got != want {
		t.Errorf("digest = %s, want %s", got, want)
	}
}

func TestFileSHA256Missing(t *testing.T) {
	_, err := FileSHA256(filepath.Join(t.TempDir(), "missing.bin"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestVerify(t *testing.T) {
	content := []byte("verify me")
	path := writeTemp(t, content)
	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])

	tests := []struct {
		name     string
		expected string
		want     bool
	}{
		{"uppercase match", strings.ToUpper(digest), true},
		{"lowercase match", strings.ToLower(digest), true},
		{"mismatch", strings.Repeat("AB", 32), false},
		{"empty passes by policy", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, actual, err := Verify(path, tt.expected)
			if err != nil {
				t.Fatalf("Verify failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Verify = %v, want %v", got, tt.want)
			}
			if actual != strings.ToUpper(digest) {
				t.Errorf("actual digest = %s, want %s", actual, strings.ToUpper(digest))
			}
		})
	}
}

func TestVerifyMissingFile(t *testing.T) {
	_, _, err := Verify(filepath.Join(t.TempDir(), "missing.bin"), strings.Repeat("AB", 32))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

package install

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DefaultVersion stands in when no version record exists. A record-less
// executable converges on the next check: "0.0.0" never equals a real
// release version, so an update applies and rewrites the record.
const DefaultVersion = "0.0.0"

const recordTimeLayout = "2006-01-02T15:04:05Z"

// Record is the persisted installed-version file, app/version.json.
// Presence of the executable, not of this record, defines "installed";
// the record only says which version the executable is believed to be.
type Record struct {
	Version     string `json:"version"`
	SHA256      string `json:"sha256"`
	Source      string `json:"source"`
	InstalledAt string `json:"installed_at"`
}

// NewRecord builds a record stamped with the current UTC time.
func NewRecord(version, sha256, source string) Record {
	return Record{
		Version:     version,
		SHA256:      sha256,
		Source:      source,
		InstalledAt: time.Now().UTC().Format(recordTimeLayout),
	}
}

// ReadRecord loads the record at path. A missing or corrupt file yields a
// zero-version record rather than an error.
func ReadRecord(path string) Record {
	fallback := Record{Version: DefaultVersion}

	data, err := os.ReadFile(path)
	if err != nil {
		return fallback
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fallback
	}
	if rec.Version == "" {
		rec.Version = DefaultVersion
	}
	return rec
}

// WriteRecord persists the record wholesale, two-space indented.
func WriteRecord(path string, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal version record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write version record: %w", err)
	}
	return nil
}

// Package release abstracts where application releases come from. Two
// sources exist, a local build directory and GitHub Releases; the install
// engine only ever sees the Source contract and a Descriptor.
package release

import (
	"context"

	goversion "github.com/hashicorp/go-version"
)

// Source kinds, persisted into the installed-version record.
const (
	KindLocal  = "local"
	KindGitHub = "github"
)

// Descriptor describes one fetchable release. It is immutable once fetched
// and is discarded after a single install attempt.
type Descriptor struct {
	Version        string // normalized, leading "v" stripped
	ArtifactURL    string // HTTP URL (github) or filesystem path (local)
	ExpectedSHA256 string // optional hex digest from sidecar metadata
	SizeBytes      int64  // display only, 0 when unknown
	Notes          string
	SourceKind     string
}

// ProgressFunc receives byte progress during artifact acquisition. total is
// 0 when the source cannot tell the full size up front.
type ProgressFunc func(written, total int64)

// Source is the contract both variants implement. FetchLatest returns
// found=false with a nil error when the source is reachable but has nothing
// to offer (missing file, empty release list, no matching asset); errors are
// reserved for transport and decoding failures. Callers treat both the same
// way and differ only in what they log and show.
type Source interface {
	Kind() string
	FetchLatest(ctx context.Context) (Descriptor, bool, error)
	Download(ctx context.Context, desc Descriptor, dest string, progress ProgressFunc) error
}

// ParseVersion parses a version string for ordering checks. The update
// trigger itself is plain string inequality, so this exists only for
// validation and for logging whether a change is an upgrade or a downgrade.
func ParseVersion(s string) (*goversion.Version, error) {
	return goversion.NewVersion(s)
}

// CompareVersions returns -1, 0 or 1 when both sides parse, and ok=false
// when either does not.
func CompareVersions(a, b string) (int, bool) {
	va, err := goversion.NewVersion(a)
	if err != nil {
		return 0, false
	}
	vb, err := goversion.NewVersion(b)
	if err != nil {
		return 0, false
	}
	return va.Compare(vb), true
}

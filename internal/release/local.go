package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/zocopos/launcher/internal/config"
)

// SidecarName is the optional metadata file published next to the
// executable, both in the local build directory and as a release asset.
const SidecarName = "version.json"

// sidecar mirrors the published metadata file.
type sidecar struct {
	Version string `json:"version"`
	SHA256  string `json:"sha256"`
}

// LocalSource serves releases from a local build directory. It exists for
// development and offline deployments: drop a freshly built executable into
// the directory and the launcher picks it up.
type LocalSource struct {
	dir            string
	exeName        string
	defaultVersion string
	logger         zerolog.Logger
}

// NewLocalSource creates a local release source from the launcher config.
func NewLocalSource(cfg *config.Config, logger *zerolog.Logger) *LocalSource {
	return &LocalSource{
		dir:            cfg.Source.Local.Dir,
		exeName:        cfg.App.Executable,
		defaultVersion: cfg.Source.Local.DefaultVersion,
		logger:         logger.With().Str("component", "release.local").Logger(),
	}
}

// Kind implements Source.
func (s *LocalSource) Kind() string { return KindLocal }

// FetchLatest looks for the managed executable in the source directory. A
// missing executable is not an error, just nothing to install.
func (s *LocalSource) FetchLatest(_ context.Context) (Descriptor, bool, error) {
	exePath := filepath.Join(s.dir, s.exeName)

	info, err := os.Stat(exePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug().Str("path", exePath).Msg("no executable in local source directory")
			return Descriptor{}, false, nil
		}
		return Descriptor{}, false, fmt.Errorf("failed to stat %s: %w", exePath, err)
	}

	desc := Descriptor{
		Version:     s.defaultVersion,
		ArtifactURL: exePath,
		SizeBytes:   info.Size(),
		Notes:       "Local build",
		SourceKind:  KindLocal,
	}

	if meta, ok := s.readSidecar(); ok {
		if meta.Version != "" {
			desc.Version = meta.Version
		}
		desc.ExpectedSHA256 = meta.SHA256
	}

	if _, err := ParseVersion(desc.Version); err != nil {
		s.logger.Warn().Str("version", desc.Version).Msg("local version does not parse as semver")
	}

	return desc, true, nil
}

// readSidecar loads the optional version.json next to the executable.
// Parse failures fall back to the configured default version.
func (s *LocalSource) readSidecar() (sidecar, bool) {
	path := filepath.Join(s.dir, SidecarName)

	data, err := os.ReadFile(path)
	if err != nil {
		return sidecar{}, false
	}

	var meta sidecar
	if err := json.Unmarshal(data, &meta); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("failed to parse sidecar metadata, using defaults")
		return sidecar{}, false
	}
	return meta, true
}

// Download copies the executable from the source directory into dest. The
// copy is chunked so cancellation works, but callers typically show coarse
// progress instead of byte progress for local copies.
func (s *LocalSource) Download(ctx context.Context, desc Descriptor, dest string, progress ProgressFunc) error {
	src, err := os.Open(desc.ArtifactURL)
	if err != nil {
		return fmt.Errorf("failed to open local artifact: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat local artifact: %w", err)
	}
	total := info.Size()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}

	// The handle must be closed before the partial file can be removed on
	// Windows.
	discard := func() {
		out.Close()
		os.Remove(dest)
	}

	var written int64
	buf := make([]byte, 64*1024)
	for {
		select {
		case <-ctx.Done():
			discard()
			return ctx.Err()
		default:
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				discard()
				return fmt.Errorf("failed to write staging file: %w", writeErr)
			}
			written += int64(n)
			if progress != nil {
				progress(written, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			discard()
			return fmt.Errorf("failed to read local artifact: %w", readErr)
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to finish staging file: %w", err)
	}

	return nil
}

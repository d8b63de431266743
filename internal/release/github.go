package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zocopos/launcher/internal/config"
	"github.com/zocopos/launcher/internal/retry"
)

// userAgent is fixed by the release feed contract; GitHub rejects requests
// without one.
const userAgent = "ZocoPOS-Launcher/1.0"

type githubRelease struct {
	TagName     string        `json:"tag_name"`
	Name        string        `json:"name"`
	Body        string        `json:"body"`
	Draft       bool          `json:"draft"`
	Prerelease  bool          `json:"prerelease"`
	PublishedAt time.Time     `json:"published_at"`
	Assets      []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
	ContentType        string `json:"content_type"`
}

// GitHubSource serves releases from a public GitHub repository's Releases
// feed. Pre-releases count: the launcher installs whatever the most recent
// entry is.
type GitHubSource struct {
	repo           string
	baseURL        string
	exeName        string
	metaClient     *http.Client
	downloadClient *http.Client
	logger         zerolog.Logger
}

// NewGitHubSource creates a GitHub release source from the launcher config.
func NewGitHubSource(cfg *config.Config, logger *zerolog.Logger) *GitHubSource {
	return &GitHubSource{
		repo:    cfg.Source.GitHub.Repo,
		baseURL: strings.TrimSuffix(cfg.Source.GitHub.APIBaseURL, "/"),
		exeName: cfg.App.Executable,
		metaClient: &http.Client{
			Timeout: cfg.Source.GitHub.MetadataTimeout,
		},
		downloadClient: &http.Client{
			Timeout: cfg.Source.GitHub.DownloadTimeout,
		},
		logger: logger.With().Str("component", "release.github").Logger(),
	}
}

// Kind implements Source.
func (s *GitHubSource) Kind() string { return KindGitHub }

// FetchLatest queries the releases list endpoint for the single most recent
// entry (pre-releases included) and selects the asset matching the managed
// executable name case-insensitively. An optional version.json asset is
// fetched to recover the expected digest.
func (s *GitHubSource) FetchLatest(ctx context.Context) (Descriptor, bool, error) {
	url := fmt.Sprintf("%s/repos/%s/releases?per_page=1", s.baseURL, s.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Descriptor{}, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.metaClient.Do(req)
	if err != nil {
		if retry.IsNetworkError(err) {
			s.logger.Warn().Err(err).Msg("no network connection to release feed")
		}
		return Descriptor{}, false, fmt.Errorf("failed to fetch releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		s.logger.Warn().Str("repo", s.repo).Msg("release repository not found")
		return Descriptor{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Descriptor{}, false, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var releases []githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return Descriptor{}, false, fmt.Errorf("failed to decode releases: %w", err)
	}
	if len(releases) == 0 {
		s.logger.Info().Str("repo", s.repo).Msg("no releases published")
		return Descriptor{}, false, nil
	}

	rel := releases[0]
	desc := Descriptor{
		Version:    strings.TrimPrefix(rel.TagName, "v"),
		Notes:      rel.Body,
		SourceKind: KindGitHub,
	}

	var sidecarURL string
	for i := range rel.Assets {
		switch strings.ToLower(rel.Assets[i].Name) {
		case strings.ToLower(s.exeName):
			desc.ArtifactURL = rel.Assets[i].BrowserDownloadURL
			desc.SizeBytes = rel.Assets[i].Size
		case SidecarName:
			sidecarURL = rel.Assets[i].BrowserDownloadURL
		}
	}

	if desc.ArtifactURL == "" {
		s.logger.Warn().Str("tag", rel.TagName).Str("asset", s.exeName).Msg("release has no matching executable asset")
		return Descriptor{}, false, nil
	}

	if sidecarURL != "" {
		if meta, err := s.fetchSidecar(ctx, sidecarURL); err != nil {
			s.logger.Warn().Err(err).Msg("failed to fetch sidecar metadata, installing unverified")
		} else {
			desc.ExpectedSHA256 = meta.SHA256
		}
	}

	if _, err := ParseVersion(desc.Version); err != nil {
		s.logger.Warn().Str("tag", rel.TagName).Msg("release tag does not parse as semver")
	}

	return desc, true, nil
}

func (s *GitHubSource) fetchSidecar(ctx context.Context, url string) (sidecar, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return sidecar{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.metaClient.Do(req)
	if err != nil {
		return sidecar{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return sidecar{}, fmt.Errorf("sidecar download returned status %d", resp.StatusCode)
	}

	var meta sidecar
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return sidecar{}, err
	}
	return meta, nil
}

// Download streams the release asset into dest. Progress is reported per
// chunk; total is the Content-Length when the server provides one, else 0
// and the caller should show indeterminate progress.
func (s *GitHubSource) Download(ctx context.Context, desc Descriptor, dest string, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, desc.ArtifactURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/octet-stream")

	start := time.Now()
	resp, err := s.downloadClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

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

	var downloaded int64
	buf := make([]byte, 64*1024)
	for {
		select {
		case <-ctx.Done():
			discard()
			return ctx.Err()
		default:
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				discard()
				return fmt.Errorf("failed to write staging file: %w", writeErr)
			}
			downloaded += int64(n)
			if progress != nil {
				progress(downloaded, total)
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			discard()
			return fmt.Errorf("download read error: %w", readErr)
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to finish staging file: %w", err)
	}

	s.logger.Info().
		Str("dest", dest).
		Int64("bytes", downloaded).
		Dur("elapsed", time.Since(start)).
		Msg("artifact downloaded")

	return nil
}

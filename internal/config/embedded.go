package config

// EmbeddedReleaseRepo is the GitHub "owner/name" release repository injected
// at build time via ldflags. It serves as the default and can be overridden
// by environment variables or the config file.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/zocopos/launcher/internal/config.EmbeddedReleaseRepo=owner/name'"
var EmbeddedReleaseRepo string

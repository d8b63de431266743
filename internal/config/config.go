package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Mode selects where releases come from.
const (
	ModeLocal  = "local"
	ModeGitHub = "github"
)

// Config holds all launcher configuration. It is built once at startup and
// passed by value into every component; nothing mutates it afterwards.
type Config struct {
	Mode    string        `mapstructure:"mode"`
	App     AppConfig     `mapstructure:"app"`
	Source  SourceConfig  `mapstructure:"source"`
	Install InstallConfig `mapstructure:"install"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// AppConfig describes the managed application.
type AppConfig struct {
	Executable  string `mapstructure:"executable"`   // file name of the managed binary
	DataFile    string `mapstructure:"data_file"`    // application data file in the data root
	DisplayName string `mapstructure:"display_name"` // shown in shell text and shortcuts
}

// SourceConfig holds per-variant release source settings.
type SourceConfig struct {
	Local  LocalSourceConfig  `mapstructure:"local"`
	GitHub GitHubSourceConfig `mapstructure:"github"`
}

// LocalSourceConfig configures the local build directory source.
type LocalSourceConfig struct {
	Dir            string `mapstructure:"dir"`
	DefaultVersion string `mapstructure:"default_version"` // used when no sidecar metadata exists
}

// GitHubSourceConfig configures the GitHub Releases source.
type GitHubSourceConfig struct {
	Repo            string        `mapstructure:"repo"` // "owner/name"
	APIBaseURL      string        `mapstructure:"api_base_url"`
	MetadataTimeout time.Duration `mapstructure:"metadata_timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
}

// InstallConfig holds filesystem roots. Empty values are resolved to
// OS-appropriate defaults in Load.
type InstallConfig struct {
	Root     string `mapstructure:"root"`      // holds app/, backup/, update/
	DataRoot string `mapstructure:"data_root"` // per-user data: app data file, launcher.db, logs/
}

// MonitorConfig holds background update monitor settings.
type MonitorConfig struct {
	CheckInterval    time.Duration `mapstructure:"check_interval"`
	ExitPollInterval time.Duration `mapstructure:"exit_poll_interval"`
	ExitMaxWait      time.Duration `mapstructure:"exit_max_wait"`
}

// ServerConfig holds the loopback shell server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("launcher")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.zocopos")
	}

	v.SetEnvPrefix("ZOCOPOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults + env vars
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	resolveRoots(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeGitHub)

	v.SetDefault("app.executable", "ZocoPOS.exe")
	v.SetDefault("app.data_file", "zocopos_local.db")
	v.SetDefault("app.display_name", "ZOCO POS")

	v.SetDefault("source.local.dir", "")
	v.SetDefault("source.local.default_version", "1.0.0")

	repo := "remancodeking/zocopos-launcher"
	if EmbeddedReleaseRepo != "" {
		repo = EmbeddedReleaseRepo
	}
	v.SetDefault("source.github.repo", repo)
	v.SetDefault("source.github.api_base_url", "https://api.github.com")
	v.SetDefault("source.github.metadata_timeout", 10*time.Second)
	v.SetDefault("source.github.download_timeout", 120*time.Second)

	v.SetDefault("install.root", "")
	v.SetDefault("install.data_root", "")

	v.SetDefault("monitor.check_interval", 30*time.Minute)
	v.SetDefault("monitor.exit_poll_interval", 10*time.Second)
	v.SetDefault("monitor.exit_max_wait", time.Hour)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 17600)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate rejects configurations the launcher cannot run with.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeLocal:
		if c.Source.Local.Dir == "" {
			return fmt.Errorf("mode is %q but source.local.dir is not set", ModeLocal)
		}
	case ModeGitHub:
		if c.Source.GitHub.Repo == "" || !strings.Contains(c.Source.GitHub.Repo, "/") {
			return fmt.Errorf("source.github.repo must be \"owner/name\", got %q", c.Source.GitHub.Repo)
		}
	default:
		return fmt.Errorf("unknown mode %q (want %q or %q)", c.Mode, ModeLocal, ModeGitHub)
	}
	if c.App.Executable == "" {
		return fmt.Errorf("app.executable must not be empty")
	}
	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zerolog for launcher logging. Besides the rotating file it
// feeds every entry into the broadcaster so the shell can show a live tail.
type Logger struct {
	zerolog.Logger
	rotator     *lumberjack.Logger
	broadcaster *LogBroadcaster
	logPath     string
}

// Config holds logger configuration.
type Config struct {
	Level      string
	Format     string // "console" or "json"
	Path       string // directory for log files
	MaxSizeMB  int    // max size in MB before rotation (default: 10)
	MaxBackups int    // max number of old log files to keep (default: 5)
	MaxAgeDays int    // max age in days to keep old files (default: 30)
	Compress   bool   // compress rotated files
}

// isDevBuild reports whether this process came from "go run". Those
// binaries live under go-build in the build cache.
func isDevBuild() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	return strings.Contains(exe, "go-build")
}

// New creates a new logger instance. The launcher is normally built as a
// windowed process, so console output is best-effort; the rotating file in
// cfg.Path is the durable sink. Dev builds (go run) get debug level
// automatically unless a more verbose level is configured.
func New(cfg Config) *Logger {
	var consoleOutput io.Writer

	if cfg.Format == "json" {
		consoleOutput = os.Stdout
	} else {
		consoleOutput = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	level := parseLevel(cfg.Level)

	if isDevBuild() && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	broadcaster := NewLogBroadcaster(nil, 0)
	writers := []io.Writer{consoleOutput, broadcaster}

	rotator, logPath := newRotator(cfg)
	if rotator != nil {
		writers = append(writers, rotator)
	}

	logger := zerolog.New(io.MultiWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &Logger{
		Logger:      logger,
		rotator:     rotator,
		broadcaster: broadcaster,
		logPath:     logPath,
	}
}

// newRotator builds the rotating file sink, or returns nil when file
// logging is disabled or the directory cannot be created.
func newRotator(cfg Config) (*lumberjack.Logger, string) {
	if cfg.Path == "" {
		return nil, ""
	}
	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, ""
	}

	logPath := filepath.Join(cfg.Path, "launcher.log")

	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 5
	}
	maxAge := cfg.MaxAgeDays
	if maxAge <= 0 {
		maxAge = 30
	}

	return &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}, logPath
}

// SetBroadcastHub enables live log streaming once the hub exists. The hub is
// constructed after the logger, so this runs as a second wiring step.
func (l *Logger) SetBroadcastHub(hub Broadcaster) {
	if l.broadcaster != nil {
		l.broadcaster.SetHub(hub)
	}
}

// RecentLogs returns the buffered tail of log entries.
func (l *Logger) RecentLogs() []LogEntry {
	if l.broadcaster == nil {
		return nil
	}
	return l.broadcaster.RecentLogs()
}

// LogFilePath returns the active log file path, or "" when file logging is
// disabled.
func (l *Logger) LogFilePath() string {
	return l.logPath
}

// Close closes the log file if one is open.
func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// parseLevel maps the configured level name onto zerolog's scale, tolerating
// the "warning" spelling. Unknown or empty names mean info.
func parseLevel(level string) zerolog.Level {
	if level == "warning" {
		level = "warn"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

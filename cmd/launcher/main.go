package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/zocopos/launcher/internal/api"
	"github.com/zocopos/launcher/internal/backup"
	"github.com/zocopos/launcher/internal/config"
	"github.com/zocopos/launcher/internal/database"
	"github.com/zocopos/launcher/internal/history"
	"github.com/zocopos/launcher/internal/install"
	"github.com/zocopos/launcher/internal/logger"
	"github.com/zocopos/launcher/internal/platform"
	"github.com/zocopos/launcher/internal/process"
	"github.com/zocopos/launcher/internal/release"
	"github.com/zocopos/launcher/internal/scheduler"
	"github.com/zocopos/launcher/internal/scheduler/tasks"
	"github.com/zocopos/launcher/internal/shell"
	"github.com/zocopos/launcher/internal/shortcut"
	"github.com/zocopos/launcher/internal/watcher"
	"github.com/zocopos/launcher/web"
)

// bootstrapLog appends to a plain text file that exists before the real
// logger does. The launcher runs as a windowed process on the till; when
// startup dies early this file is the only trace of why.
func bootstrapLog(msg string) {
	f, err := os.OpenFile(bootstrapPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "[%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), msg)
}

// bootstrapPath picks the per-user log location for the host OS and makes
// sure the directory exists.
func bootstrapPath() string {
	var dir string
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			dir = filepath.Join(localAppData, "ZocoPOS", "logs")
		}
	case "darwin":
		if home, _ := os.UserHomeDir(); home != "" {
			dir = filepath.Join(home, "Library", "Logs", "ZocoPOS")
		}
	default:
		if home, _ := os.UserHomeDir(); home != "" {
			dir = filepath.Join(home, ".local", "share", "zocopos", "logs")
		}
	}
	if dir == "" {
		dir = "./logs"
	}

	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "bootstrap.log")
}

func main() {
	// Lock the main goroutine to the main OS thread. The Windows tray loop
	// must run on the thread that initialized it.
	runtime.LockOSThread()

	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	bootstrapLog("=== ZocoPOS Launcher starting ===")
	bootstrapLog(fmt.Sprintf("OS: %s, Arch: %s", runtime.GOOS, runtime.GOARCH))
	bootstrapLog(fmt.Sprintf("Executable: %s", os.Args[0]))

	configPath := flag.String("config", "", "Path to config file")
	portFlag := flag.Int("port", 0, "Override shell server port")
	logLevel := flag.String("log-level", "", "Override log level")
	noTray := flag.Bool("no-tray", false, "Run without system tray (console mode)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootstrapLog(fmt.Sprintf("FATAL: failed to load config: %v", err))
		panic("failed to load config: " + err.Error())
	}
	if *portFlag > 0 {
		cfg.Server.Port = *portFlag
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	bootstrapLog(fmt.Sprintf("Config loaded: mode=%s, port=%d, root=%s", cfg.Mode, cfg.Server.Port, cfg.Install.Root))

	if err := cfg.EnsureDirs(); err != nil {
		bootstrapLog(fmt.Sprintf("FATAL: failed to create directories: %v", err))
		panic("failed to create directories: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Path:   cfg.LogDir(),
	})
	defer log.Close()
	bootstrapLog("Logger initialized")

	log.Info().
		Str("mode", cfg.Mode).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting ZocoPOS Launcher")

	// A second launcher instance must not fight the first one over the
	// install tree. If the port is taken, surface the running instance's
	// shell instead.
	address := cfg.Server.Address()
	serverURL := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	probe, err := net.Listen("tcp", address)
	if err != nil {
		bootstrapLog(fmt.Sprintf("Port %d in use, another launcher instance is likely running", cfg.Server.Port))
		log.Warn().Str("address", address).Msg("address in use, deferring to the running instance")
		openExistingShell(serverURL)
		return
	}
	probe.Close()

	db, err := database.New(cfg.HistoryDBPath())
	if err != nil {
		bootstrapLog(fmt.Sprintf("FATAL: failed to open launcher database: %v", err))
		log.Fatal().Err(err).Msg("failed to open launcher database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		bootstrapLog(fmt.Sprintf("FATAL: failed to run migrations: %v", err))
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	bootstrapLog("Database ready")

	historyService := history.NewService(db.Conn(), &log.Logger)

	hub := shell.NewHub(&log.Logger)
	go hub.Run()

	// Enable log streaming to the shell now that the hub exists
	log.SetBroadcastHub(hub)

	var source release.Source
	switch cfg.Mode {
	case config.ModeLocal:
		source = release.NewLocalSource(cfg, &log.Logger)
	default:
		source = release.NewGitHubSource(cfg, &log.Logger)
	}

	supervisor := process.NewSupervisor(cfg, &log.Logger)

	engine := install.NewEngine(cfg, source,
		backup.NewManager(cfg, &log.Logger),
		supervisor,
		shortcut.New(cfg, &log.Logger),
		historyService, hub, &log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quitChan := make(chan struct{})

	app := platform.NewApp(platform.AppConfig{
		ServerURL:   serverURL,
		DisplayName: cfg.App.DisplayName,
		Version:     install.ReadRecord(cfg.VersionFilePath()).Version,
		NoTray:      *noTray,
		OnLaunch: func() {
			if err := supervisor.Launch(); err != nil {
				log.Error().Err(err).Msg("tray launch failed")
			}
		},
		OnCheckNow: func() {
			if err := engine.CheckAndApply(ctx); err != nil {
				log.Error().Err(err).Msg("tray-triggered check failed")
			}
		},
		OnQuit: func() {
			close(quitChan)
		},
	})

	hub.SetActionHandler(shell.ActionReady, func() { engine.Startup(ctx) })
	hub.SetActionHandler(shell.ActionInstall, func() { engine.ConfirmInstall(ctx) })
	hub.SetActionHandler(shell.ActionRetry, func() { engine.Retry(ctx) })
	hub.SetActionHandler(shell.ActionClose, func() { app.Stop() })

	if cfg.Mode == config.ModeLocal {
		releaseWatcher, werr := watcher.NewReleaseWatcher(cfg, engine.CheckAndApply, &log.Logger)
		if werr != nil {
			log.Warn().Err(werr).Msg("failed to create release watcher")
		} else if werr := releaseWatcher.Start(); werr != nil {
			log.Warn().Err(werr).Msg("failed to watch release directory")
		} else {
			defer releaseWatcher.Stop()
		}
	}

	sched, err := scheduler.New(&log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	if err := tasks.RegisterUpdateCheckTask(sched, engine, cfg.Monitor.CheckInterval, &log.Logger); err != nil {
		log.Fatal().Err(err).Msg("failed to register update check task")
	}

	// The monitor only makes sense once there is a running app to watch, so
	// it starts on the first successful launch, not at boot.
	engine.SetLaunchHook(func() {
		if err := sched.Start(); err != nil {
			log.Error().Err(err).Msg("failed to start background monitor")
			return
		}
		bootstrapLog("Background monitor started")
	})

	server := api.NewServer(cfg, engine, historyService, sched, log, log.Logger)
	server.Echo().GET("/ws", hub.HandleWebSocket)

	if staticFS, err := web.StaticFS(); err == nil {
		registerShellHandler(server.Echo(), staticFS)
	} else {
		log.Warn().Err(err).Msg("failed to load embedded shell page")
	}

	go func() {
		bootstrapLog(fmt.Sprintf("HTTP server listening on %s", address))
		if err := server.Start(address); err != nil {
			bootstrapLog(fmt.Sprintf("HTTP server stopped: %v", err))
			log.Info().Msg("server stopped")
		}
	}()

	// The shell window always opens at startup. The engine hides it again
	// once the app is launched.
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := app.OpenShell(); err != nil {
			log.Warn().Err(err).Msg("failed to open shell window")
		}
	}()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-sigChan:
			bootstrapLog("Received shutdown signal")
			log.Info().Msg("received shutdown signal")
			app.Stop()
		case <-quitChan:
			bootstrapLog("Quit requested")
		}
	}()

	bootstrapLog("Entering main loop")
	if err := app.Run(); err != nil {
		bootstrapLog(fmt.Sprintf("Platform app error: %v", err))
		log.Error().Err(err).Msg("platform app error")
	}
	bootstrapLog("Main loop exited, shutting down")

	cancel()

	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("launcher stopped")
}

// openExistingShell points the default browser at an already running
// launcher so a double-started instance is not silently lost.
func openExistingShell(url string) {
	app := platform.NewApp(platform.AppConfig{ServerURL: url, NoTray: true})
	if err := app.OpenShell(); err != nil {
		bootstrapLog(fmt.Sprintf("Failed to open existing shell: %v", err))
	}
}

// registerShellHandler serves the embedded shell page. The skipper keeps
// the API, the WebSocket endpoint, and the health probe out of the static
// fallback so their unknown paths still answer 404.
func registerShellHandler(e *echo.Echo, staticFS fs.FS) {
	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Filesystem: http.FS(staticFS),
		HTML5:      true,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return strings.HasPrefix(p, "/api/") || p == "/ws" || p == "/healthz"
		},
	}))
}

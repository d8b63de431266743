//go:build windows

package platform

import (
	"context"
	"os/exec"
	"sync"

	"github.com/tailscale/walk"
)

// windowsApp keeps the launcher resident as a tray icon. Once the shell
// window closes the tray is the only sign the update monitor is alive, so
// the menu carries the few actions a till operator ever needs.
type windowsApp struct {
	config     AppConfig
	app        *walk.Application
	notifyIcon *walk.NotifyIcon
	done       chan struct{}
	running    bool
	mu         sync.Mutex
	stopOnce   sync.Once
}

func NewApp(cfg AppConfig) App {
	return &windowsApp{config: cfg, done: make(chan struct{})}
}

func (a *windowsApp) Run() error {
	if a.config.NoTray {
		a.setRunning(true)
		<-a.done
		return nil
	}

	var err error

	// Initialize Walk application - must be called before any other Walk functions
	a.app, err = walk.InitApp()
	if err != nil {
		return err
	}

	walk.App().SetOrganizationName(a.config.DisplayName)
	walk.App().SetProductName(a.config.DisplayName + " Launcher")

	// Create notify icon (no parent window required)
	a.notifyIcon, err = walk.NewNotifyIcon()
	if err != nil {
		return err
	}

	if err := a.notifyIcon.SetToolTip(a.tooltip()); err != nil {
		return err
	}

	a.notifyIcon.MouseDown().Attach(func(x, y int, button walk.MouseButton) {
		if button == walk.LeftButton {
			a.OpenShell()
		}
	})

	a.buildMenu()

	if err := a.notifyIcon.SetVisible(true); err != nil {
		return err
	}

	a.setRunning(true)
	a.app.Run()
	return nil
}

// tooltip includes the installed version so a glance at the tray answers
// whether last night's update landed.
func (a *windowsApp) tooltip() string {
	tip := a.config.DisplayName + " Launcher"
	if a.config.Version != "" {
		tip += " (v" + a.config.Version + ")"
	}
	return tip
}

// buildMenu assembles the context menu. Callbacks run off the message
// loop, same as the shell hub dispatches its actions.
func (a *windowsApp) buildMenu() {
	menu := a.notifyIcon.ContextMenu().Actions()

	open := walk.NewAction()
	open.SetText("Open Status Window")
	open.Triggered().Attach(func() {
		a.OpenShell()
	})
	menu.Add(open)

	if a.config.OnLaunch != nil {
		launch := walk.NewAction()
		launch.SetText("Launch " + a.config.DisplayName)
		launch.Triggered().Attach(func() {
			go a.config.OnLaunch()
		})
		menu.Add(launch)
	}

	if a.config.OnCheckNow != nil {
		check := walk.NewAction()
		check.SetText("Check for Updates")
		check.Triggered().Attach(func() {
			go a.config.OnCheckNow()
		})
		menu.Add(check)
	}

	menu.Add(walk.NewSeparatorAction())

	quit := walk.NewAction()
	quit.SetText("Quit")
	quit.Triggered().Attach(func() {
		a.Stop()
	})
	menu.Add(quit)
}

func (a *windowsApp) OpenShell() error {
	cmd := exec.CommandContext(context.Background(), "cmd", "/c", "start", "", a.config.ServerURL)
	return cmd.Start()
}

func (a *windowsApp) Stop() {
	a.stopOnce.Do(func() {
		a.mu.Lock()
		if a.running {
			if a.notifyIcon != nil {
				a.notifyIcon.Dispose()
			}
			if a.app != nil {
				a.app.Exit(0)
			}
		}
		a.mu.Unlock()

		close(a.done)

		if a.config.OnQuit != nil {
			a.config.OnQuit()
		}
	})
}

func (a *windowsApp) setRunning(v bool) {
	a.mu.Lock()
	a.running = v
	a.mu.Unlock()
}

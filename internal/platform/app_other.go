//go:build !windows

package platform

import (
	"os/exec"
	"runtime"
	"sync"
)

// Non-Windows hosts are developer machines. There is no tray; the process
// blocks until the shell or a signal asks it to quit.
type app struct {
	config   AppConfig
	done     chan struct{}
	stopOnce sync.Once
}

func NewApp(cfg AppConfig) App {
	return &app{
		config: cfg,
		done:   make(chan struct{}),
	}
}

func (a *app) Run() error {
	<-a.done
	return nil
}

func (a *app) OpenShell() error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", a.config.ServerURL)
	default:
		cmd = exec.Command("xdg-open", a.config.ServerURL)
	}
	return cmd.Start()
}

func (a *app) Stop() {
	a.stopOnce.Do(func() {
		close(a.done)
		if a.config.OnQuit != nil {
			a.config.OnQuit()
		}
	})
}

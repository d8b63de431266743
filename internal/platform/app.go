// Package platform keeps the launcher process alive after the shell window
// is gone. On Windows that means a tray icon; elsewhere it just blocks until
// asked to quit. The shell itself is a browser window pointed at the
// loopback server.
package platform

type AppConfig struct {
	ServerURL   string
	DisplayName string
	Version     string // installed app version, shown in the tray tooltip
	NoTray      bool
	OnLaunch    func() // tray "Launch <app>" action
	OnCheckNow  func() // tray "Check for Updates" action
	OnQuit      func()
}

type App interface {
	Run() error
	OpenShell() error
	Stop()
}

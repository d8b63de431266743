// Package shell is the bridge between the launcher core and its user
// interface. The core publishes typed events through the Notifier, any
// number of shell clients subscribe over a loopback WebSocket, and the four
// inbound actions are dispatched back to registered handlers.
package shell

// Outbound event types carried in hub messages.
const (
	EventStatus                = "status:set"
	EventVersion               = "version:set"
	EventProgress              = "progress:set"
	EventProgressIndeterminate = "progress:indeterminate"
	EventProgressLabel         = "progress:label"
	EventButtonInstall         = "button:install"
	EventButtonRetry           = "button:retry"
	EventError                 = "error:set"
	EventWindowHide            = "window:hide"
	EventLogEntry              = "logs:entry"
)

// Inbound action types sent by the shell page.
const (
	ActionReady   = "action:ready"
	ActionInstall = "action:install"
	ActionRetry   = "action:retry"
	ActionClose   = "action:close"
)

// Notifier publishes launcher state to whatever shell is attached. All
// methods are fire-and-forget: they never block and never fail, and with
// zero subscribers the events simply go nowhere.
type Notifier interface {
	Status(text, subtext string)
	Version(version string)
	Progress(percent int)
	ProgressIndeterminate()
	ProgressLabel(left, right string)
	ShowInstallButton()
	HideInstallButton()
	ShowRetryButton()
	HideRetryButton()
	Error(message string)
	HideWindow()
}

// NopNotifier discards every event. Used in tests and before the hub is up.
type NopNotifier struct{}

func (NopNotifier) Status(text, subtext string)      {}
func (NopNotifier) Version(version string)           {}
func (NopNotifier) Progress(percent int)             {}
func (NopNotifier) ProgressIndeterminate()           {}
func (NopNotifier) ProgressLabel(left, right string) {}
func (NopNotifier) ShowInstallButton()               {}
func (NopNotifier) HideInstallButton()               {}
func (NopNotifier) ShowRetryButton()                 {}
func (NopNotifier) HideRetryButton()                 {}
func (NopNotifier) Error(message string)             {}
func (NopNotifier) HideWindow()                      {}

package history

import "time"

// Trigger says what initiated an install attempt.
type Trigger string

const (
	TriggerInstall    Trigger = "install"    // first install, confirmed from the shell
	TriggerUpdate     Trigger = "update"     // version change found during startup
	TriggerBackground Trigger = "background" // scheduled monitor cycle
)

// Outcome is the terminal state of an attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Attempt is one download-and-install invocation, successful or not.
type Attempt struct {
	ID          string    `json:"id"`
	Trigger     Trigger   `json:"trigger"`
	Source      string    `json:"source"`
	FromVersion string    `json:"fromVersion,omitempty"`
	ToVersion   string    `json:"toVersion"`
	Outcome     Outcome   `json:"outcome"`
	Detail      string    `json:"detail,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
}

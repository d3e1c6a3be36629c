// Package threat defines the threat-status contract shared by the status
// service, the dashboard and the MCP tool.
package threat

import "fmt"

// Action is the remediation verdict attached to a status.
type Action string

const (
	ActionFixItNow Action = "FIX_IT_NOW"
	ActionSafe     Action = "SAFE"
)

// Valid reports whether a is one of the enumerated actions.
func (a Action) Valid() bool {
	return a == ActionFixItNow || a == ActionSafe
}

// Color is the indicator color a client paints the score with.
type Color string

const (
	ColorRed     Color = "red"
	ColorYellow  Color = "yellow"
	ColorGreen   Color = "green"
	ColorNeutral Color = "neutral"
)

// ScoreUnknown marks a status that has not been loaded yet.
const ScoreUnknown = -1

// Status is a single threat-status record.
type Status struct {
	Score       int    `json:"score"`
	Message     string `json:"message"`
	Action      Action `json:"action"`
	StatusColor Color  `json:"status_color"`
	Error       string `json:"error,omitempty"`
}

// Trigger describes the event that caused a status request. The service
// accepts it but always analyses the fixed sample log.
type Trigger struct {
	Device     string `json:"device"`
	LogTrigger string `json:"log_trigger"`
}

// ColorFor derives the indicator color from an action.
func ColorFor(a Action) Color {
	if a == ActionFixItNow {
		return ColorRed
	}
	return ColorGreen
}

// NeedsFix reports whether the status asks the user to fix something.
func (s Status) NeedsFix() bool {
	return s.Action == ActionFixItNow
}

// Known reports whether the score has been loaded.
func (s Status) Known() bool {
	return s.Score != ScoreUnknown
}

// ScoreText renders the score for display, "--" when unknown.
func (s Status) ScoreText() string {
	if !s.Known() {
		return "--"
	}
	return fmt.Sprintf("%d", s.Score)
}

// Validate checks a status against the wire contract.
func (s Status) Validate() error {
	if !s.Action.Valid() {
		return fmt.Errorf("invalid action %q", s.Action)
	}
	if s.Score < 0 || s.Score > 100 {
		return fmt.Errorf("score %d out of range 0-100", s.Score)
	}
	if s.Message == "" {
		return fmt.Errorf("message is empty")
	}
	return nil
}

// Package dashboard holds the client-side score state machine and the
// terminal UI that renders it.
package dashboard

import (
	"github.com/kijani/sentinel/internal/config"
	"github.com/kijani/sentinel/internal/threat"
)

// Kind names a dashboard state.
type Kind string

const (
	KindLoading Kind = "loading"
	KindAlert   Kind = "alert"
	KindFixed   Kind = "fixed"
	KindSafe    Kind = "safe"
)

// State is one of Loading, Alert, Fixed or Safe.
type State interface {
	Kind() Kind
	Status() threat.Status
}

// Loading is shown while a check is in flight.
type Loading struct{}

// Alert holds a status that needs a fix.
type Alert struct{ S threat.Status }

// Fixed holds the locally repaired status.
type Fixed struct{ S threat.Status }

// Safe holds a status that needs no action.
type Safe struct{ S threat.Status }

func (Loading) Kind() Kind { return KindLoading }
func (Alert) Kind() Kind   { return KindAlert }
func (Fixed) Kind() Kind   { return KindFixed }
func (Safe) Kind() Kind    { return KindSafe }

func (Loading) Status() threat.Status { return threat.Placeholder() }
func (a Alert) Status() threat.Status { return a.S }
func (f Fixed) Status() threat.Status { return f.S }
func (s Safe) Status() threat.Status  { return s.S }

// Controls lists which UI affordances are visible in a state.
type Controls struct {
	FixItNow       bool
	SimulateAttack bool
	Refresh        bool
	SuccessBanner  bool
	Spinner        bool
}

// Machine is the dashboard state machine. It is not safe for concurrent
// use; the bubbletea event loop serializes access.
type Machine struct {
	variant string
	device  string
	state   State
}

// New returns a machine in the variant's initial state for the named device.
func New(variant, device string) *Machine {
	m := &Machine{variant: variant, device: device}
	if variant == config.VariantDemo {
		m.state = Safe{S: threat.Healthy()}
	} else {
		m.variant = config.VariantLive
		m.state = Loading{}
	}
	return m
}

// Variant returns the machine's variant.
func (m *Machine) Variant() string { return m.variant }

// Device returns the device the dashboard watches.
func (m *Machine) Device() string { return m.device }

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Status returns the status currently on display.
func (m *Machine) Status() threat.Status { return m.state.Status() }

// AutoFetch reports whether a check should run at startup.
func (m *Machine) AutoFetch() bool { return m.variant == config.VariantLive }

// FixedScore is the score shown after a local fix.
func (m *Machine) FixedScore() int {
	if m.variant == config.VariantDemo {
		return 99
	}
	return 95
}

// BeginCheck enters Loading for a manual or automatic check.
func (m *Machine) BeginCheck() {
	m.state = Loading{}
}

// Resolve applies a service response. The status is stored as received,
// including its color. Later responses replace earlier ones.
func (m *Machine) Resolve(s threat.Status) {
	if s.NeedsFix() {
		m.state = Alert{S: s}
		return
	}
	m.state = Safe{S: s}
}

// Fail records a failed check as a local network-error alert.
func (m *Machine) Fail(error) {
	m.state = Alert{S: threat.NetworkError()}
}

// SimulateAttack raises the attack alert. Only the demo variant allows it,
// and only from Safe or Fixed.
func (m *Machine) SimulateAttack() bool {
	if !m.Controls().SimulateAttack {
		return false
	}
	m.state = Alert{S: threat.Attack(m.device)}
	return true
}

// FixItNow repairs an alert locally. It is a no-op outside Alert.
func (m *Machine) FixItNow() bool {
	if _, ok := m.state.(Alert); !ok {
		return false
	}
	m.state = Fixed{S: threat.Repaired(m.FixedScore())}
	return true
}

// Controls derives the visible controls from the current state.
func (m *Machine) Controls() Controls {
	c := Controls{Refresh: true}
	switch m.state.(type) {
	case Loading:
		c.Spinner = true
	case Alert:
		c.FixItNow = true
	case Fixed:
		c.SuccessBanner = true
		c.SimulateAttack = m.variant == config.VariantDemo
	case Safe:
		c.SimulateAttack = m.variant == config.VariantDemo
	}
	return c
}

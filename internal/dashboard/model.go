package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kijani/sentinel/internal/threat"
	"github.com/kijani/sentinel/sdk"
)

const fetchTimeout = 30 * time.Second

var errNoBackend = errors.New("no status backend configured")

// StatusFetcher retrieves a fresh status from the status service.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (threat.Status, error)
}

// SDKFetcher adapts an sdk.Client to StatusFetcher.
type SDKFetcher struct {
	Client  *sdk.Client
	Trigger sdk.TriggerContext
}

// FetchStatus posts the trigger and converts the response.
func (f SDKFetcher) FetchStatus(ctx context.Context) (threat.Status, error) {
	ts, err := f.Client.AnalyseThreat(ctx, f.Trigger)
	if err != nil {
		return threat.Status{}, err
	}
	return threat.Status{
		Score:       ts.Score,
		Message:     ts.Message,
		Action:      threat.Action(ts.Action),
		StatusColor: threat.Color(ts.StatusColor),
		Error:       ts.Error,
	}, nil
}

type statusMsg struct{ status threat.Status }

type fetchErrMsg struct{ err error }

type keyMap struct {
	Check  key.Binding
	Attack key.Binding
	Fix    key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Check, k.Attack, k.Fix, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newKeyMap() keyMap {
	return keyMap{
		Check: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "check"),
		),
		Attack: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "simulate attack"),
		),
		Fix: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fix it now"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Model is the bubbletea model for the terminal dashboard.
type Model struct {
	machine *Machine
	fetcher StatusFetcher
	logger  *slog.Logger

	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

// NewModel builds a dashboard model around a state machine.
func NewModel(machine *Machine, fetcher StatusFetcher, logger *slog.Logger) Model {
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(subtleStyle),
	)
	m := Model{
		machine: machine,
		fetcher: fetcher,
		logger:  logger,
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
	}
	m.syncKeys()
	return m
}

// Machine exposes the underlying state machine.
func (m Model) Machine() *Machine { return m.machine }

// Init starts the automatic check for the live variant.
func (m Model) Init() tea.Cmd {
	if !m.machine.AutoFetch() {
		return nil
	}
	m.machine.BeginCheck()
	return tea.Batch(m.spinner.Tick, m.fetch())
}

// Update handles key presses, fetch results and spinner ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case statusMsg:
		m.machine.Resolve(msg.status)
		m.logger.Debug("status received",
			"state", m.machine.State().Kind(),
			"score", msg.status.Score,
			"action", msg.status.Action,
		)
		m.syncKeys()
		return m, nil

	case fetchErrMsg:
		m.machine.Fail(msg.err)
		m.logger.Warn("status check failed", "error", msg.err)
		m.syncKeys()
		return m, nil

	case spinner.TickMsg:
		if m.machine.State().Kind() != KindLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Check):
		m.machine.BeginCheck()
		m.syncKeys()
		return m, tea.Batch(m.spinner.Tick, m.fetch())

	case key.Matches(msg, m.keys.Attack):
		if m.machine.SimulateAttack() {
			m.logger.Info("attack simulated")
		}

	case key.Matches(msg, m.keys.Fix):
		if m.machine.FixItNow() {
			m.logger.Info("threat fixed locally", "score", m.machine.Status().Score)
		}
	}
	m.syncKeys()
	return m, nil
}

func (m Model) fetch() tea.Cmd {
	f := m.fetcher
	return func() tea.Msg {
		if f == nil {
			return fetchErrMsg{err: errNoBackend}
		}
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		s, err := f.FetchStatus(ctx)
		if err != nil {
			return fetchErrMsg{err: err}
		}
		return statusMsg{status: s}
	}
}

// syncKeys enables only the bindings whose controls are visible.
func (m *Model) syncKeys() {
	c := m.machine.Controls()
	m.keys.Check.SetEnabled(c.Refresh)
	m.keys.Attack.SetEnabled(c.SimulateAttack)
	m.keys.Fix.SetEnabled(c.FixItNow)
}

// View renders the score card and the help line.
func (m Model) View() string {
	st := m.machine.Status()
	c := m.machine.Controls()

	var card strings.Builder
	fmt.Fprintf(&card, "%s\n", subtleStyle.Render("Security score"))
	fmt.Fprintf(&card, "%s\n\n", scoreStyle(st.StatusColor).Render(st.ScoreText()))
	card.WriteString(messageStyle.Render(st.Message))
	if st.Error != "" {
		fmt.Fprintf(&card, "\n\n%s", errorStyle.Render(st.Error))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Kijani CyberProtect"))
	if d := m.machine.Device(); d != "" {
		b.WriteString(subtleStyle.Render("  " + d))
	}
	b.WriteString("\n\n")
	b.WriteString(cardStyle(st.StatusColor).Render(card.String()))
	b.WriteString("\n\n")

	switch {
	case c.Spinner:
		fmt.Fprintf(&b, "%s Analysing security logs...\n\n", m.spinner.View())
	case c.SuccessBanner:
		fmt.Fprintf(&b, "%s\n\n", bannerStyle.Render("Threat neutralised"))
	case c.FixItNow:
		fmt.Fprintf(&b, "%s\n\n", scoreStyle(threat.ColorRed).Render("Press f to FIX IT NOW"))
	}

	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

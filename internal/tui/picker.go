// Package tui runs an association picker in the terminal.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-admingen/pkg/picker"
)

// Result is the selection the user left the picker with.
type Result struct {
	Selected  []picker.Item
	Hidden    []picker.Hidden
	Cancelled bool
}

type Styles struct {
	Title    lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

type changedMsg struct{}

// Model adapts a picker.Controller to bubbletea. The controller owns the
// state; the model renders its snapshots and forwards keys.
type Model struct {
	title   string
	ctrl    *picker.Controller
	changed <-chan struct{}
	input   textinput.Model
	snap    picker.Snapshot
	styles  Styles
	done    bool
	result  Result
}

// NewModel wires ctrl to the terminal. changed must receive a value after
// controller state changes; see Notify.
func NewModel(title string, ctrl *picker.Controller, changed <-chan struct{}) Model {
	in := textinput.New()
	in.Prompt = "> "
	in.CharLimit = 120
	snap := ctrl.Snapshot()
	in.Placeholder = snap.Label
	in.Focus()
	return Model{
		title:   title,
		ctrl:    ctrl,
		changed: changed,
		input:   in,
		snap:    snap,
		styles:  DefaultStyles(),
	}
}

// Notify returns an OnChange hook and the channel it signals. Signals
// coalesce; the model always reads the latest snapshot. Close the channel
// only after the controller is closed.
func Notify(next func(picker.Snapshot)) (func(picker.Snapshot), chan struct{}) {
	ch := make(chan struct{}, 1)
	return func(s picker.Snapshot) {
		select {
		case ch <- struct{}{}:
		default:
		}
		if next != nil {
			next(s)
		}
	}, ch
}

func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-m.changed; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	m.ctrl.Focus()
	return tea.Batch(textinput.Blink, m.waitForChange())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.snap = m.ctrl.Snapshot()
		return m, m.waitForChange()
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m.finish(true)
		case tea.KeyEsc:
			m.ctrl.ClickOutside()
			return m.finish(false)
		case tea.KeyUp, tea.KeyShiftTab:
			m.ctrl.MoveCursor(-1)
			m.snap = m.ctrl.Snapshot()
			return m, nil
		case tea.KeyDown, tea.KeyTab:
			m.ctrl.MoveCursor(1)
			m.snap = m.ctrl.Snapshot()
			return m, nil
		case tea.KeyEnter:
			if !m.snap.State.Open() {
				m.ctrl.Toggle()
				m.snap = m.ctrl.Snapshot()
				return m, nil
			}
			if err := m.ctrl.CommitHighlighted(); err != nil {
				return m, nil
			}
			m.snap = m.ctrl.Snapshot()
			if m.snap.Mode == picker.Single {
				return m.finish(false)
			}
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.ctrl.Type(after)
		m.snap = m.ctrl.Snapshot()
	}
	return m, cmd
}

func (m Model) finish(cancelled bool) (tea.Model, tea.Cmd) {
	snap := m.ctrl.Snapshot()
	m.snap = snap
	m.done = true
	m.result = Result{Selected: snap.Selected, Hidden: snap.Hidden, Cancelled: cancelled}
	return m, tea.Quit
}

// Result is valid once the program has quit.
func (m Model) Result() Result { return m.result }

func (m Model) View() string {
	var b strings.Builder
	if m.title != "" {
		b.WriteString(m.styles.Title.Render(m.title))
		b.WriteByte('\n')
	}
	if m.snap.Placeholder {
		b.WriteString(m.styles.Muted.Render(m.snap.Label))
	} else {
		b.WriteString(m.styles.Selected.Render(m.snap.Label))
	}
	b.WriteByte('\n')
	if m.done {
		return b.String()
	}
	b.WriteString(m.input.View())
	b.WriteByte('\n')

	switch {
	case m.snap.Err != nil:
		b.WriteString(m.styles.Error.Render(m.snap.Err.Error()))
		b.WriteByte('\n')
	case m.snap.State == picker.OpenLoading:
		b.WriteString(m.styles.Muted.Render("Loading..."))
		b.WriteByte('\n')
	case m.snap.State == picker.OpenIdle && len(m.snap.Options) == 0:
		b.WriteString(m.styles.Muted.Render("No records found."))
		b.WriteByte('\n')
	}
	if m.snap.State.Open() {
		for i, opt := range m.snap.Options {
			b.WriteString(m.option(i, opt))
			b.WriteByte('\n')
		}
	}
	b.WriteString(m.styles.Muted.Render(m.help()))
	return b.String()
}

func (m Model) option(i int, opt picker.Option) string {
	marker := "  "
	if i == m.snap.Cursor {
		marker = m.styles.Cursor.Render("> ")
	}
	check := "( )"
	if m.snap.Mode == picker.Multiple {
		check = "[ ]"
	}
	if opt.Selected {
		check = strings.NewReplacer(" ", "x").Replace(check)
		return marker + m.styles.Selected.Render(check+" "+opt.Label)
	}
	return marker + check + " " + opt.Label
}

func (m Model) help() string {
	if m.snap.Mode == picker.Multiple {
		return "up/down move, enter toggle, esc done, ctrl+c cancel"
	}
	return "up/down move, enter choose, esc done, ctrl+c cancel"
}

// Options configures Run.
type Options struct {
	Title  string
	Input  io.Reader
	Output io.Writer
}

// Run shows a picker configured by cfg until the user chooses, finishes, or
// cancels. The controller is closed before Run returns.
func Run(ctx context.Context, cfg picker.Config, opts Options) (Result, error) {
	onChange, changed := Notify(cfg.OnChange)
	cfg.OnChange = onChange
	ctrl, err := picker.New(ctx, cfg)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		ctrl.Close()
		close(changed)
	}()

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}
	final, err := tea.NewProgram(NewModel(opts.Title, ctrl, changed), programOpts...).Run()
	if err != nil {
		return Result{}, fmt.Errorf("tui: picker: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return Result{}, fmt.Errorf("tui: unexpected model %T", final)
	}
	return m.Result(), nil
}

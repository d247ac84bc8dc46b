// Package tui is the interactive schema bootstrap for the shop CLI.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marshallshelly/pebble-shop/pkg/migration"
)

// Actions the model can run.
const (
	ActionUp    = "up"
	ActionDown  = "down"
	ActionReset = "reset"
)

// Runner applies a plan. *migration.Executor satisfies it.
type Runner interface {
	Status(ctx context.Context, plan *migration.Plan) ([]migration.TableStatus, error)
	Up(ctx context.Context, plan *migration.Plan) error
	Down(ctx context.Context, plan *migration.Plan) error
	Reset(ctx context.Context, plan *migration.Plan) error
}

// MigrateMode represents the current mode of the migration UI
type MigrateMode int

const (
	ModeList MigrateMode = iota
	ModeConfirm
	ModeExecuting
	ModeComplete
	ModeError
)

// MigrateModel lists the planned tables and runs one action over all of them.
type MigrateModel struct {
	ctx          context.Context
	mode         MigrateMode
	action       string
	plan         *migration.Plan
	runner       Runner
	list         list.Model
	confirmation ConfirmationDialog
	logs         LogView
	status       []migration.TableStatus
	step         int
	notice       string
	err          error
	width        int
	height       int
}

// NewMigrateModel creates the model for action over plan.
func NewMigrateModel(ctx context.Context, action string, plan *migration.Plan, runner Runner) MigrateModel {
	l := list.New(nil, TableItemDelegate{}, 0, 0)
	l.Title = "Schema " + strings.ToUpper(action)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle

	return MigrateModel{
		ctx:    ctx,
		mode:   ModeList,
		action: action,
		plan:   plan,
		runner: runner,
		list:   l,
		logs:   NewLogView(10),
	}
}

// Mode returns the current mode.
func (m MigrateModel) Mode() MigrateMode { return m.mode }

// Err returns the failure that ended the run, if any.
func (m MigrateModel) Err() error { return m.err }

type statusLoadedMsg struct {
	status []migration.TableStatus
}

type executedMsg struct {
	err error
}

type errorMsg struct {
	err error
}

func (m MigrateModel) loadStatusCmd() tea.Cmd {
	return func() tea.Msg {
		status, err := m.runner.Status(m.ctx, m.plan)
		if err != nil {
			return errorMsg{err: fmt.Errorf("failed to read table status: %w", err)}
		}
		return statusLoadedMsg{status: status}
	}
}

func (m MigrateModel) executeCmd() tea.Cmd {
	return func() tea.Msg {
		var err error
		switch m.action {
		case ActionUp:
			err = m.runner.Up(m.ctx, m.plan)
		case ActionDown:
			err = m.runner.Down(m.ctx, m.plan)
		case ActionReset:
			err = m.runner.Reset(m.ctx, m.plan)
		default:
			err = fmt.Errorf("unknown action %q", m.action)
		}
		return executedMsg{err: err}
	}
}

// Init loads the table status.
func (m MigrateModel) Init() tea.Cmd {
	return m.loadStatusCmd()
}

// affected returns the tables the action would change.
func (m MigrateModel) affected() []string {
	var names []string
	for _, s := range m.status {
		switch {
		case m.action == ActionUp && !s.Exists,
			m.action == ActionDown && s.Exists,
			m.action == ActionReset:
			names = append(names, s.Table)
		}
	}
	return names
}

func (m *MigrateModel) setItems(state func(s migration.TableStatus) string) {
	counts := make(map[string]int)
	for _, t := range m.plan.Tables {
		counts[t.Name] = 1 + len(t.Indexes)
	}
	items := make([]list.Item, len(m.status))
	for i, s := range m.status {
		items[i] = TableItem{Name: s.Table, State: state(s), Statements: counts[s.Table]}
	}
	m.list.SetItems(items)
}

func existsState(s migration.TableStatus) string {
	if s.Exists {
		return StateExists
	}
	return StateMissing
}

// Update handles messages
func (m MigrateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case statusLoadedMsg:
		m.status = msg.status
		m.setItems(existsState)
		if m.mode == ModeExecuting {
			m.step++
			m.mode = ModeComplete
		}
		return m, nil

	case confirmedMsg:
		affected := m.affected()
		m.mode = ModeExecuting
		m.step = 0
		m.setItems(func(s migration.TableStatus) string {
			for _, name := range affected {
				if name == s.Table {
					return StateRunning
				}
			}
			return existsState(s)
		})
		m.logs.AddLog(infoStyle.Render(fmt.Sprintf("Running %s on %d table(s)", m.action, len(affected))))
		return m, m.executeCmd()

	case cancelledMsg:
		m.mode = ModeList
		return m, nil

	case executedMsg:
		if msg.err != nil {
			m.mode = ModeError
			m.err = msg.err
			m.setItems(func(s migration.TableStatus) string {
				if s.Exists {
					return StateExists
				}
				return StateFailed
			})
			m.logs.AddLog(dangerStyle.Render("Failed: " + msg.err.Error()))
			return m, nil
		}
		m.step++
		m.logs.AddLog(successStyle.Render("✓ " + strings.ToUpper(m.action) + " committed"))
		return m, m.loadStatusCmd()

	case errorMsg:
		m.mode = ModeError
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeList:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "enter", " ":
				affected := m.affected()
				if len(affected) == 0 {
					m.notice = "Nothing to " + m.action
					return m, nil
				}
				m.notice = ""
				m.confirmation = NewConfirmationDialog(
					fmt.Sprintf("Confirm Schema %s", strings.ToUpper(m.action)),
					fmt.Sprintf("Are you sure you want to %s these tables:\n%s", m.action, strings.Join(affected, ", ")),
				)
				m.mode = ModeConfirm
				return m, nil
			}

		case ModeConfirm:
			switch msg.String() {
			case "ctrl+c", "q", "esc":
				m.mode = ModeList
				return m, nil
			default:
				return m, m.confirmation.Update(msg)
			}

		case ModeComplete, ModeError:
			switch msg.String() {
			case "ctrl+c", "q", "enter":
				return m, tea.Quit
			}
		}
	}

	if m.mode == ModeList {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m MigrateModel) centered(s string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}

// View renders the UI
func (m MigrateModel) View() string {
	switch m.mode {
	case ModeList:
		parts := []string{m.list.View()}
		if m.notice != "" {
			parts = append(parts, warningStyle.Render(m.notice))
		}
		parts = append(parts, helpStyle.Render(
			FormatKey("↑/↓", "navigate")+" • "+
				FormatKey("enter", m.action)+" • "+
				FormatKey("q", "quit"),
		))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)

	case ModeConfirm:
		return m.centered(m.confirmation.View())

	case ModeExecuting:
		progress := titleStyle.Render("Schema "+strings.ToUpper(m.action)) + "\n\n" +
			FormatProgressBar(m.step, 2, 40)
		return m.centered(lipgloss.JoinVertical(lipgloss.Left, boxStyle.Render(progress), "", m.logs.View()))

	case ModeComplete:
		msg := titleStyle.Render("Schema Updated") + "\n\n" +
			successStyle.Render(fmt.Sprintf("%s finished: %d table(s) present", strings.ToUpper(m.action), m.present())) + "\n\n" +
			helpStyle.Render(FormatKey("enter/q", "exit"))
		return m.centered(boxStyle.Render(msg))

	case ModeError:
		msg := titleStyle.Render("Schema Update Failed") + "\n\n" +
			errorStyle.Render(m.err.Error()) + "\n\n" +
			m.logs.View() + "\n" +
			helpStyle.Render(FormatKey("enter/q", "exit"))
		return m.centered(boxStyle.Render(msg))
	}

	return "Unknown mode"
}

func (m MigrateModel) present() int {
	n := 0
	for _, s := range m.status {
		if s.Exists {
			n++
		}
	}
	return n
}

// RunMigrateUI runs the interactive model until the user quits and returns
// the failure of the action, if any.
func RunMigrateUI(ctx context.Context, action string, plan *migration.Plan, runner Runner) error {
	final, err := tea.NewProgram(NewMigrateModel(ctx, action, plan, runner),
		tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(MigrateModel); ok {
		return m.Err()
	}
	return nil
}

package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/pebble-shop/pkg/migration"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

type fakeRunner struct {
	exists map[string]bool
	upErr  error
	calls  []string
}

func (r *fakeRunner) Status(_ context.Context, plan *migration.Plan) ([]migration.TableStatus, error) {
	var out []migration.TableStatus
	for _, name := range plan.TableNames() {
		out = append(out, migration.TableStatus{Table: name, Exists: r.exists[name]})
	}
	return out, nil
}

func (r *fakeRunner) Up(_ context.Context, plan *migration.Plan) error {
	r.calls = append(r.calls, ActionUp)
	if r.upErr != nil {
		return r.upErr
	}
	for _, name := range plan.TableNames() {
		r.exists[name] = true
	}
	return nil
}

func (r *fakeRunner) Down(_ context.Context, plan *migration.Plan) error {
	r.calls = append(r.calls, ActionDown)
	clear(r.exists)
	return nil
}

func (r *fakeRunner) Reset(context.Context, *migration.Plan) error {
	r.calls = append(r.calls, ActionReset)
	return nil
}

func testPlan() *migration.Plan {
	return &migration.Plan{Tables: []*schema.TableMetadata{{Name: "users"}, {Name: "posts"}}}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step feeds msg to m and then every message its command produces.
func step(t *testing.T, m MigrateModel, msg tea.Msg) MigrateModel {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(MigrateModel)
	for cmd != nil {
		out := cmd()
		if out == nil {
			break
		}
		next, cmd = m.Update(out)
		m = next.(MigrateModel)
	}
	return m
}

func loaded(t *testing.T, action string, r *fakeRunner) MigrateModel {
	t.Helper()
	m := NewMigrateModel(context.Background(), action, testPlan(), r)
	m = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return step(t, m, m.Init()())
}

func TestMigrateModel_UpConfirmed(t *testing.T) {
	r := &fakeRunner{exists: map[string]bool{"users": true}}
	m := loaded(t, ActionUp, r)
	require.Equal(t, ModeList, m.Mode())
	assert.Equal(t, []string{"posts"}, m.affected())

	m = step(t, m, key("enter"))
	require.Equal(t, ModeConfirm, m.Mode())
	assert.Contains(t, m.View(), "posts")

	m = step(t, m, key("left"))
	m = step(t, m, key("enter"))

	assert.Equal(t, ModeComplete, m.Mode())
	assert.Equal(t, []string{ActionUp}, r.calls)
	assert.Empty(t, m.affected())
	assert.Contains(t, m.View(), "2 table(s) present")
	assert.NoError(t, m.Err())
}

func TestMigrateModel_CancelReturnsToList(t *testing.T) {
	r := &fakeRunner{exists: map[string]bool{}}
	m := loaded(t, ActionUp, r)

	m = step(t, m, key("enter"))
	require.Equal(t, ModeConfirm, m.Mode())
	m = step(t, m, key("enter"))
	assert.Equal(t, ModeList, m.Mode())

	m = step(t, m, key("enter"))
	m = step(t, m, key("esc"))
	assert.Equal(t, ModeList, m.Mode())
	assert.Empty(t, r.calls)
}

func TestMigrateModel_NothingToDo(t *testing.T) {
	r := &fakeRunner{exists: map[string]bool{}}
	m := loaded(t, ActionDown, r)

	m = step(t, m, key("enter"))
	assert.Equal(t, ModeList, m.Mode())
	assert.Contains(t, m.View(), "Nothing to down")
}

func TestMigrateModel_Failure(t *testing.T) {
	r := &fakeRunner{exists: map[string]bool{}, upErr: errors.New("relation exists")}
	m := loaded(t, ActionUp, r)

	m = step(t, m, key("enter"))
	m = step(t, m, key("y"))
	m = step(t, m, key("enter"))

	assert.Equal(t, ModeError, m.Mode())
	assert.EqualError(t, m.Err(), "relation exists")
	assert.Contains(t, m.View(), "relation exists")

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLogView_KeepsTail(t *testing.T) {
	l := NewLogView(2)
	l.AddLog("a")
	l.AddLog("b")
	l.AddLog("c")
	assert.Equal(t, []string{"b", "c"}, l.Logs)
}

func TestFormatProgressBar(t *testing.T) {
	assert.Contains(t, FormatProgressBar(1, 2, 10), "1/2")
	assert.NotContains(t, FormatProgressBar(0, 0, 10), "/")
}

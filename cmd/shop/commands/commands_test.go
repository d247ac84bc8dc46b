package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/pebble-shop/cmd/shop/tui"
	"github.com/marshallshelly/pebble-shop/pkg/migration"
)

func withJSON(t *testing.T, on bool) {
	t.Helper()
	prev := jsonOutput
	jsonOutput = on
	t.Cleanup(func() { jsonOutput = prev })
}

func TestSchemaPlan(t *testing.T) {
	plan, err := schemaPlan()
	require.NoError(t, err)

	names := plan.TableNames()
	assert.ElementsMatch(t, []string{"users", "posts", "comments", "store", "user_store"}, names)
	assert.Less(t, indexOf(names, "posts"), indexOf(names, "comments"))
	assert.Less(t, indexOf(names, "users"), indexOf(names, "user_store"))
	assert.Less(t, indexOf(names, "store"), indexOf(names, "user_store"))

	// Registering twice is harmless.
	_, err = schemaPlan()
	require.NoError(t, err)
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func TestStatements(t *testing.T) {
	plan := &migration.Plan{Up: []string{"CREATE a", "CREATE b"}, Down: []string{"DROP b", "DROP a"}}
	assert.Equal(t, plan.Up, statements(plan, tui.ActionUp))
	assert.Equal(t, plan.Down, statements(plan, tui.ActionDown))
	assert.Equal(t, []string{"DROP b", "DROP a", "CREATE a", "CREATE b"}, statements(plan, tui.ActionReset))
	assert.Len(t, plan.Up, 2)
}

func TestPrintStatus_Table(t *testing.T) {
	withJSON(t, false)
	var buf bytes.Buffer
	require.NoError(t, printStatus(&buf, []migration.TableStatus{
		{Table: "users", Exists: true},
		{Table: "posts", Exists: false},
	}))

	out := buf.String()
	assert.Contains(t, out, "TABLE")
	assert.Contains(t, out, "users")
	assert.Contains(t, out, "exists")
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "1 table(s) missing")
}

func TestPrintStatus_JSON(t *testing.T) {
	withJSON(t, true)
	var buf bytes.Buffer
	require.NoError(t, printStatus(&buf, []migration.TableStatus{{Table: "users", Exists: true}}))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	assert.Equal(t, []map[string]any{{"table": "users", "exists": true}}, rows)
}

func TestPrintPlan_JSON(t *testing.T) {
	withJSON(t, true)
	plan, err := schemaPlan()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printPlan(&buf, plan))

	var got planJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, plan.TableNames(), got.Tables)
	assert.Len(t, got.Down, len(plan.Tables))
	assert.Contains(t, got.Up[0], "CREATE TABLE")
}

func TestRootFlags(t *testing.T) {
	for _, name := range []string{"db", "addr", "session-backend", "rate-limit", "json", "env-file"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "migrate")
}

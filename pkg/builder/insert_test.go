package builder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertQuery_ToSQL(t *testing.T) {
	tests := []struct {
		name     string
		query    func() *InsertQuery[Widget]
		wantSQL  string
		wantArgs []any
		wantErr  string
	}{
		{
			name:     "zero values with defaults are omitted",
			query:    func() *InsertQuery[Widget] { return Insert[Widget](nil).Values(Widget{Name: "bolt", Price: 5}) },
			wantSQL:  "INSERT INTO widgets (name, price) VALUES ($1, $2)",
			wantArgs: []any{"bolt", int64(5)},
		},
		{
			name: "explicit values override defaults",
			query: func() *InsertQuery[Widget] {
				return Insert[Widget](nil).Values(Widget{Name: "nut", Color: "red", Price: 1, Tags: "a,b"})
			},
			wantSQL:  "INSERT INTO widgets (name, color, price, tags) VALUES ($1, $2, $3, $4)",
			wantArgs: []any{"nut", "red", int64(1), "a,b"},
		},
		{
			name: "multiple rows with returning",
			query: func() *InsertQuery[Widget] {
				return Insert[Widget](nil).
					Values(Widget{Name: "a", Price: 1}, Widget{Name: "b", Price: 2}).
					Returning("id")
			},
			wantSQL:  "INSERT INTO widgets (name, price) VALUES ($1, $2), ($3, $4) RETURNING id",
			wantArgs: []any{"a", int64(1), "b", int64(2)},
		},
		{
			name: "rows with differing columns",
			query: func() *InsertQuery[Widget] {
				return Insert[Widget](nil).Values(Widget{Name: "a", Price: 1}, Widget{Name: "b", Price: 2, Color: "red"})
			},
			wantErr: "row 1 sets columns",
		},
		{
			name:    "no values",
			query:   func() *InsertQuery[Widget] { return Insert[Widget](nil) },
			wantErr: "no values to insert",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.query().ToSQL()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestInsertQuery_ExplicitPrimaryKeyAndTimestamp(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sql, args, err := Insert[Widget](nil).Values(Widget{ID: 9, Name: "x", Price: 3, CreatedAt: at}).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO widgets (id, name, price, created_at) VALUES ($1, $2, $3, $4)", sql)
	assert.Equal(t, []any{int64(9), "x", int64(3), at}, args)
}

func TestInsertQuery_Exec(t *testing.T) {
	rec := &recorder{affected: 1}
	n, err := Insert[Widget](rec).Values(Widget{Name: "bolt", Price: 5}).Returning("id").Exec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "INSERT INTO widgets (name, price) VALUES ($1, $2)", rec.sql)
}

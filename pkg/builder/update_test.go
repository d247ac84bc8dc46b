package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateQuery_ToSQL(t *testing.T) {
	tests := []struct {
		name     string
		query    func() *UpdateQuery[Widget]
		wantSQL  string
		wantArgs []any
		wantErr  string
	}{
		{
			name: "sets keep call order",
			query: func() *UpdateQuery[Widget] {
				return Update[Widget](nil).Set("price", 10).Set("color", "red").Set("name", "n").Where(Eq("id", 1))
			},
			wantSQL:  "UPDATE widgets SET price = $1, color = $2, name = $3 WHERE id = $4",
			wantArgs: []any{10, "red", "n", 1},
		},
		{
			name: "repeated column keeps last value",
			query: func() *UpdateQuery[Widget] {
				return Update[Widget](nil).Set("price", 1).Set("price", 2).Where(Eq("id", 1)).And(Eq("color", "red"))
			},
			wantSQL:  "UPDATE widgets SET price = $1 WHERE id = $2 AND color = $3",
			wantArgs: []any{2, 1, "red"},
		},
		{
			name: "returning",
			query: func() *UpdateQuery[Widget] {
				return Update[Widget](nil).Set("color", "blue").Where(In("id", 1, 2)).Returning("id", "color")
			},
			wantSQL:  "UPDATE widgets SET color = $1 WHERE id IN ($2, $3) RETURNING id, color",
			wantArgs: []any{"blue", 1, 2},
		},
		{
			name:    "nothing to set",
			query:   func() *UpdateQuery[Widget] { return Update[Widget](nil).Where(Eq("id", 1)) },
			wantErr: "no columns to update",
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

func TestUpdateQuery_Exec(t *testing.T) {
	rec := &recorder{affected: 3}
	n, err := Update[Widget](rec).Set("color", "red").Exec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, "UPDATE widgets SET color = $1", rec.sql)
	assert.Equal(t, []any{"red"}, rec.args)
}

package builder

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

type Widget struct {
	ID        int64     `po:"id,primaryKey,bigserial"`
	Name      string    `po:"name,varchar(100),notNull,unique"`
	Color     string    `po:"color,varchar(20),notNull,default('grey')"`
	Price     int64     `po:"price,bigint,notNull"`
	Tags      string    `po:"tags,text,notNull,default('')"`
	CreatedAt time.Time `po:"created_at,timestamptz,notNull,default(now())"`
}

func init() {
	schema.RegisterTableName("Widget", "widgets")
}

// recorder is a Querier that captures the last statement instead of running it.
type recorder struct {
	sql      string
	args     []any
	affected int64
	err      error
}

func (r *recorder) Exec(_ context.Context, sql string, args ...any) (int64, error) {
	r.sql, r.args = sql, args
	return r.affected, r.err
}

func (r *recorder) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	r.sql, r.args = sql, args
	return nil, r.err
}

func (r *recorder) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	r.sql, r.args = sql, args
	return countRow{n: r.affected, err: r.err}
}

type countRow struct {
	n   int64
	err error
}

func (c countRow) Scan(dest ...any) error {
	if c.err != nil {
		return c.err
	}
	*(dest[0].(*int64)) = c.n
	return nil
}

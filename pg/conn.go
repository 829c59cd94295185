// Package pg adapts the host's outbound PostgreSQL interface to a
// conventional Go SQL client and registers a database/sql driver as
// "spin-pg".
//
// Execute reports only the number of affected rows; the Fetch operations
// run the statement as a query and hand back the host's complete row set.
// Transactions, statement introspection and Describe are not available.
package pg

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tomyedwab/hostsql/sqlerr"
	proxy "github.com/tomyedwab/hostsql/sqlproxy/pg"
)

const (
	DriverName = "Spin PostgreSQL"
	URLScheme  = "spin-pg"
)

const backend = "pg"

// Conn owns one host connection. It is not safe for concurrent use.
type Conn struct {
	conn *proxy.Connection
}

func New(conn *proxy.Connection) *Conn {
	return &Conn{conn: conn}
}

// Open connects to the database at address, which the host interprets as a
// libpq-style connection string or postgres:// URL.
func Open(address string) (*Conn, error) {
	conn, err := proxy.Open(address)
	if err != nil {
		return nil, asClientError(err)
	}
	return New(conn), nil
}

type ConnectOptions struct {
	Address string
}

// ParseOptions keeps s as the connection address. A spin-pg:// URL is
// rewritten to postgres:// so the host can parse it.
func ParseOptions(s string) (*ConnectOptions, error) {
	if rest, ok := strings.CutPrefix(s, URLScheme+"://"); ok {
		s = "postgres://" + rest
	}
	return &ConnectOptions{Address: s}, nil
}

func (o *ConnectOptions) Connect(ctx context.Context) (*Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Open(o.Address)
}

// Close releases the host connection.
func (c *Conn) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return asClientError(err)
}

func (c *Conn) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.conn == nil {
		return errClosed
	}
	return nil
}

var errClosed = &sqlerr.IoError{Kind: sqlerr.IoOther, Message: "connection is closed"}

func (c *Conn) check(ctx context.Context, args *Arguments) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.conn == nil {
		return errClosed
	}
	if err := args.Err(); err != nil {
		return &sqlerr.EncodeError{Err: err}
	}
	return nil
}

func (c *Conn) query(ctx context.Context, op, sql string, args *Arguments) (*proxy.RowSet, error) {
	if err := c.check(ctx, args); err != nil {
		return nil, err
	}
	slog.Debug("Running statement", "backend", backend, "op", op, "sql", sql, "args", args.Len())
	rs, err := c.conn.Query(sql, args.host())
	if err != nil {
		return nil, asClientError(err)
	}
	return rs, nil
}

// Execute runs a statement that returns no rows.
func (c *Conn) Execute(ctx context.Context, sql string, args *Arguments) (*QueryResult, error) {
	if err := c.check(ctx, args); err != nil {
		return nil, err
	}
	slog.Debug("Running statement", "backend", backend, "op", "execute", "sql", sql, "args", args.Len())
	n, err := c.conn.Execute(sql, args.host())
	if err != nil {
		return nil, asClientError(err)
	}
	return &QueryResult{count: n}, nil
}

// FetchMany runs a query and returns its rows as a single-pass stream.
func (c *Conn) FetchMany(ctx context.Context, sql string, args *Arguments) (*RowStream, error) {
	rs, err := c.query(ctx, "fetch_many", sql, args)
	if err != nil {
		return nil, err
	}
	return newRowStream(rs), nil
}

func (c *Conn) FetchAll(ctx context.Context, sql string, args *Arguments) ([]*Row, error) {
	rs, err := c.query(ctx, "fetch_all", sql, args)
	if err != nil {
		return nil, err
	}
	columns := newColumns(rs.Columns)
	rows := make([]*Row, len(rs.Rows))
	for i, r := range rs.Rows {
		rows[i] = &Row{columns: columns, values: r}
	}
	return rows, nil
}

// FetchOptional returns the first row, or nil when the query produced none.
func (c *Conn) FetchOptional(ctx context.Context, sql string, args *Arguments) (*Row, error) {
	rs, err := c.query(ctx, "fetch_optional", sql, args)
	if err != nil {
		return nil, err
	}
	if len(rs.Rows) == 0 {
		return nil, nil
	}
	return &Row{columns: newColumns(rs.Columns), values: rs.Rows[0]}, nil
}

func (c *Conn) FetchOne(ctx context.Context, sql string, args *Arguments) (*Row, error) {
	row, err := c.FetchOptional(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, sqlerr.ErrRowNotFound
	}
	return row, nil
}

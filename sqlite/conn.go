// Package sqlite adapts the host's embedded SQLite interface to a
// conventional Go SQL client: typed argument binding, row decoding, and a
// database/sql driver registered as "spin-sqlite".
//
// The host returns every result set in full, so FetchMany performs one host
// call and then hands the buffered rows out one at a time. Transactions,
// statement introspection and Describe are not available and always fail
// with an error wrapping errors.ErrUnsupported.
package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/tomyedwab/hostsql/sqlerr"
	proxy "github.com/tomyedwab/hostsql/sqlproxy/sqlite"
)

const (
	DriverName = "Spin SQLite"
	URLScheme  = "spin-sqlite"
)

const backend = "sqlite"

// Conn owns one host connection. It is not safe for concurrent use.
type Conn struct {
	conn *proxy.Connection
}

// New wraps an open host connection.
func New(conn *proxy.Connection) *Conn {
	return &Conn{conn: conn}
}

// Open opens the database with the given label.
func Open(label string) (*Conn, error) {
	conn, err := proxy.Open(label)
	if err != nil {
		return nil, asClientError(err)
	}
	return New(conn), nil
}

// OpenDefault opens the component's default database.
func OpenDefault() (*Conn, error) {
	return Open(proxy.DefaultLabel)
}

// ConnectOptions holds what is needed to open a connection.
type ConnectOptions struct {
	Label string
}

// ParseOptions accepts either a bare label or a spin-sqlite://<label> URL.
func ParseOptions(s string) (*ConnectOptions, error) {
	if !strings.Contains(s, "://") {
		return &ConnectOptions{Label: s}, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, &sqlerr.ConfigurationError{Err: err}
	}
	return FromURL(u)
}

// FromURL takes the label from the URL's host.
func FromURL(u *url.URL) (*ConnectOptions, error) {
	if u.Host == "" {
		return nil, &sqlerr.ConfigurationError{Err: errors.New("Invalid URL")}
	}
	return &ConnectOptions{Label: u.Host}, nil
}

// Connect opens a connection with these options.
func (o *ConnectOptions) Connect(ctx context.Context) (*Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Open(o.Label)
}

// Close releases the host connection. Further use of c fails.
func (c *Conn) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return asClientError(err)
}

// Ping reports whether the connection is still open. The host has no
// liveness check of its own.
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

func (c *Conn) run(ctx context.Context, op, sql string, args *Arguments) (*proxy.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.conn == nil {
		return nil, errClosed
	}
	if err := args.Err(); err != nil {
		return nil, &sqlerr.EncodeError{Err: err}
	}
	slog.Debug("Running statement", "backend", backend, "op", op, "sql", sql, "args", args.Len())
	rs, err := c.conn.Execute(sql, args.host())
	if err != nil {
		return nil, asClientError(err)
	}
	return rs, nil
}

// Execute runs a statement and returns its full result.
func (c *Conn) Execute(ctx context.Context, sql string, args *Arguments) (*QueryResult, error) {
	rs, err := c.run(ctx, "execute", sql, args)
	if err != nil {
		return nil, err
	}
	return newQueryResult(rs), nil
}

// FetchMany runs a statement and returns its rows as a single-pass stream.
func (c *Conn) FetchMany(ctx context.Context, sql string, args *Arguments) (*RowStream, error) {
	rs, err := c.run(ctx, "fetch_many", sql, args)
	if err != nil {
		return nil, err
	}
	return newRowStream(rs), nil
}

// FetchAll runs a statement and returns every row.
func (c *Conn) FetchAll(ctx context.Context, sql string, args *Arguments) ([]*Row, error) {
	rs, err := c.run(ctx, "fetch_all", sql, args)
	if err != nil {
		return nil, err
	}
	return newQueryResult(rs).Rows(), nil
}

// FetchOptional returns the first row, or nil if there were none.
func (c *Conn) FetchOptional(ctx context.Context, sql string, args *Arguments) (*Row, error) {
	rs, err := c.run(ctx, "fetch_optional", sql, args)
	if err != nil {
		return nil, err
	}
	if len(rs.Rows) == 0 {
		return nil, nil
	}
	return &Row{columns: newColumns(rs.Columns), values: rs.Rows[0].Values}, nil
}

// FetchOne is FetchOptional that fails with sqlerr.ErrRowNotFound when
// there are no rows.
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

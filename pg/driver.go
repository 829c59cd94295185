package pg

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"

	"github.com/tomyedwab/hostsql/sqlerr"
)

func init() {
	sql.Register(URLScheme, &Driver{})
}

// Driver is the database/sql driver for the host's PostgreSQL interface.
// The data source name is a connection string or a spin-pg:// URL.
type Driver struct{}

func (d *Driver) Open(name string) (driver.Conn, error) {
	c, err := d.OpenConnector(name)
	if err != nil {
		return nil, err
	}
	return c.Connect(context.Background())
}

func (d *Driver) OpenConnector(name string) (driver.Connector, error) {
	opts, err := ParseOptions(name)
	if err != nil {
		return nil, err
	}
	return &connector{opts: opts, driver: d}, nil
}

// NewConnector returns a connector for sql.OpenDB.
func NewConnector(opts *ConnectOptions) driver.Connector {
	return &connector{opts: opts, driver: &Driver{}}
}

type connector struct {
	opts   *ConnectOptions
	driver *Driver
}

func (c *connector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.opts.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &driverConn{conn: conn}, nil
}

func (c *connector) Driver() driver.Driver {
	return c.driver
}

type driverConn struct {
	conn *Conn
}

var (
	_ driver.ExecerContext     = (*driverConn)(nil)
	_ driver.QueryerContext    = (*driverConn)(nil)
	_ driver.NamedValueChecker = (*driverConn)(nil)
	_ driver.Pinger            = (*driverConn)(nil)
	_ driver.ConnBeginTx       = (*driverConn)(nil)
	_ driver.Validator         = (*driverConn)(nil)

	_ driver.RowsColumnTypeDatabaseTypeName = (*driverRows)(nil)
)

func (c *driverConn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := c.conn.Prepare(context.Background(), query)
	if err != nil {
		return nil, err
	}
	return &driverStmt{stmt: stmt}, nil
}

func (c *driverConn) Close() error {
	return c.conn.Close()
}

func (c *driverConn) Begin() (driver.Tx, error) {
	return nil, c.conn.Begin(context.Background())
}

func (c *driverConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	return nil, c.conn.Begin(ctx)
}

func (c *driverConn) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *driverConn) IsValid() bool {
	return c.conn.conn != nil
}

func (c *driverConn) CheckNamedValue(nv *driver.NamedValue) error {
	if nv.Name != "" {
		return fmt.Errorf("pg: named argument %q is not supported", nv.Name)
	}
	v, err := EncodeAny(nv.Value)
	if err != nil {
		return &sqlerr.EncodeError{Err: err}
	}
	nv.Value = v
	return nil
}

func namedArgs(args []driver.NamedValue) *Arguments {
	a := &Arguments{}
	a.Reserve(len(args))
	for _, nv := range args {
		if v, ok := nv.Value.(Value); ok {
			a.Push(v)
			continue
		}
		a.Add(nv.Value)
	}
	return a
}

func (c *driverConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	res, err := c.conn.Execute(ctx, query, namedArgs(args))
	if err != nil {
		return nil, err
	}
	return &driverResult{res: res}, nil
}

func (c *driverConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	rows, err := c.conn.FetchMany(ctx, query, namedArgs(args))
	if err != nil {
		return nil, err
	}
	return &driverRows{rows: rows, columns: rows.Columns()}, nil
}

type driverStmt struct {
	stmt *Statement
}

func (s *driverStmt) Close() error {
	return nil
}

func (s *driverStmt) NumInput() int {
	return -1
}

func (s *driverStmt) Exec(args []driver.Value) (driver.Result, error) {
	_, err := s.stmt.QueryWith(context.Background(), nil, nil)
	return nil, err
}

func (s *driverStmt) Query(args []driver.Value) (driver.Rows, error) {
	_, err := s.stmt.Query(context.Background(), nil)
	return nil, err
}

type driverResult struct {
	res *QueryResult
}

// LastInsertId is not reported by the host; use RETURNING instead.
func (r *driverResult) LastInsertId() (int64, error) {
	return 0, sqlerr.Unsupported(backend, "last insert id")
}

func (r *driverResult) RowsAffected() (int64, error) {
	return r.res.rowsAffected()
}

type driverRows struct {
	rows    *RowStream
	columns []Column
}

func (r *driverRows) Columns() []string {
	names := make([]string, len(r.columns))
	for i, c := range r.columns {
		names[i] = c.Name()
	}
	return names
}

// ColumnTypeDatabaseTypeName returns the PostgreSQL name of the column type,
// upper-cased as database/sql expects.
func (r *driverRows) ColumnTypeDatabaseTypeName(index int) string {
	return strings.ToUpper(r.columns[index].TypeInfo().Name())
}

func (r *driverRows) Close() error {
	return r.rows.Close()
}

func (r *driverRows) Next(dest []driver.Value) error {
	if !r.rows.Next() {
		return io.EOF
	}
	row := r.rows.Row()
	if row.Len() != len(dest) {
		return fmt.Errorf("pg: column count mismatch. Expected %d, got %d", len(dest), row.Len())
	}
	for i, v := range row.values {
		dv, err := driverValue(NewValue(v))
		if err != nil {
			return &sqlerr.ColumnDecodeError{Column: row.columnName(i), Err: err}
		}
		dest[i] = dv
	}
	return nil
}

package sqlite

import (
	"context"

	"github.com/tomyedwab/hostsql/sqlerr"
)

// Statement holds SQL text. Nothing is compiled or validated.
type Statement struct {
	sql string
}

// Prepare returns a Statement for sql. It never fails.
func (c *Conn) Prepare(ctx context.Context, sql string) (*Statement, error) {
	return &Statement{sql: sql}, nil
}

func (s *Statement) SQL() string {
	return s.sql
}

func (s *Statement) Parameters() ([]TypeInfo, error) {
	return nil, sqlerr.Unsupported(backend, "prepared statement parameters")
}

func (s *Statement) Columns() ([]Column, error) {
	return nil, sqlerr.Unsupported(backend, "prepared statement columns")
}

func (s *Statement) Query(ctx context.Context, conn *Conn) (*RowStream, error) {
	return nil, sqlerr.Unsupported(backend, "prepared statement queries")
}

func (s *Statement) QueryWith(ctx context.Context, conn *Conn, args *Arguments) (*RowStream, error) {
	return nil, sqlerr.Unsupported(backend, "prepared statement queries")
}

// Description is what Describe would report for a statement.
type Description struct {
	Columns    []Column
	Parameters []TypeInfo
	Nullable   []bool
}

// Describe always fails: the host cannot describe a statement without
// running it.
func (c *Conn) Describe(ctx context.Context, sql string) (*Description, error) {
	return nil, sqlerr.Unsupported(backend, "describe")
}

func (c *Conn) Begin(ctx context.Context) error {
	return sqlerr.Unsupported(backend, "transactions")
}

func (c *Conn) Commit(ctx context.Context) error {
	return sqlerr.Unsupported(backend, "transactions")
}

func (c *Conn) Rollback(ctx context.Context) error {
	return sqlerr.Unsupported(backend, "transactions")
}

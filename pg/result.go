package pg

import (
	"iter"
	"math"

	"github.com/tomyedwab/hostsql/internal/stream"
	proxy "github.com/tomyedwab/hostsql/sqlproxy/pg"
)

// QueryResult counts the rows affected by one or more executions.
type QueryResult struct {
	count uint64
}

// Count is the number of rows affected.
func (r *QueryResult) Count() uint64 {
	return r.count
}

// Extend adds the counts of others to r.
func (r *QueryResult) Extend(others ...*QueryResult) {
	for _, o := range others {
		if o != nil {
			r.count += o.count
		}
	}
}

func (r *QueryResult) rowsAffected() (int64, error) {
	if r.count > math.MaxInt64 {
		return 0, &countOverflowError{count: r.count}
	}
	return int64(r.count), nil
}

type countOverflowError struct {
	count uint64
}

func (e *countOverflowError) Error() string {
	return "pg: affected row count overflows int64"
}

// RowStream is a single-pass view of rows the host has already returned.
type RowStream struct {
	columns []Column
	rows    *stream.Stream[proxy.Values]
	cur     *Row
}

func newRowStream(rs *proxy.RowSet) *RowStream {
	return &RowStream{
		columns: newColumns(rs.Columns),
		rows:    stream.New(rs.Rows),
	}
}

// Columns is nil once the stream is exhausted or closed.
func (s *RowStream) Columns() []Column {
	return s.columns
}

func (s *RowStream) Next() bool {
	if !s.rows.Next() {
		s.cur = nil
		s.columns = nil
		return false
	}
	s.cur = &Row{columns: s.columns, values: s.rows.Current()}
	return true
}

func (s *RowStream) Row() *Row {
	return s.cur
}

func (s *RowStream) Remaining() int {
	return s.rows.Remaining()
}

func (s *RowStream) Close() error {
	s.rows.Close()
	s.cur = nil
	s.columns = nil
	return nil
}

func (s *RowStream) All() iter.Seq[*Row] {
	return func(yield func(*Row) bool) {
		for s.Next() {
			if !yield(s.cur) {
				return
			}
		}
	}
}

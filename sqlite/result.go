package sqlite

import (
	"iter"

	"github.com/tomyedwab/hostsql/internal/stream"
	proxy "github.com/tomyedwab/hostsql/sqlproxy/sqlite"
)

// QueryResult is the host's result for one or more executions. For SQLite
// the host does not distinguish rows returned from rows affected, so the
// full result, rows included, is kept.
type QueryResult struct {
	inner *proxy.QueryResult
}

func newQueryResult(rs *proxy.QueryResult) *QueryResult {
	return &QueryResult{inner: rs}
}

// RowsAffected is the number of rows changed by the statement, or the number
// of rows it returned when it produced a result set. Extended results sum.
func (r *QueryResult) RowsAffected() int64 {
	if r == nil || r.inner == nil {
		return 0
	}
	return r.inner.RowsAffected
}

// LastInsertID is the rowid of the most recent successful INSERT on the
// connection, as seen by the last statement that did not return rows.
func (r *QueryResult) LastInsertID() int64 {
	if r == nil || r.inner == nil {
		return 0
	}
	return r.inner.LastInsertID
}

// Columns returns the result's column names.
func (r *QueryResult) Columns() []string {
	if r == nil || r.inner == nil {
		return nil
	}
	return r.inner.Columns
}

// Rows returns the rows carried by the result.
func (r *QueryResult) Rows() []*Row {
	if r == nil || r.inner == nil {
		return nil
	}
	columns := newColumns(r.inner.Columns)
	rows := make([]*Row, len(r.inner.Rows))
	for i, row := range r.inner.Rows {
		rows[i] = &Row{columns: columns, values: row.Values}
	}
	return rows
}

// Extend folds others into r. Rows are appended in order and counts are
// summed; the last insert id follows the most recent result that set one.
func (r *QueryResult) Extend(others ...*QueryResult) {
	for _, o := range others {
		if o == nil || o.inner == nil {
			continue
		}
		if r.inner == nil {
			r.inner = &proxy.QueryResult{Columns: o.inner.Columns}
		}
		r.inner.Rows = append(r.inner.Rows, o.inner.Rows...)
		r.inner.RowsAffected += o.inner.RowsAffected
		if o.inner.LastInsertID != 0 {
			r.inner.LastInsertID = o.inner.LastInsertID
		}
	}
}

// RowStream is a single-pass view of rows the host has already returned.
type RowStream struct {
	columns []Column
	rows    *stream.Stream[proxy.RowResult]
	cur     *Row
}

func newRowStream(rs *proxy.QueryResult) *RowStream {
	return &RowStream{
		columns: newColumns(rs.Columns),
		rows:    stream.New(rs.Rows),
	}
}

// Columns returns the shared column list. It is available before the first
// row, even when there are no rows, and is released once the stream is
// exhausted or closed. Rows already produced keep their own reference.
func (s *RowStream) Columns() []Column {
	return s.columns
}

// Next advances to the next row.
func (s *RowStream) Next() bool {
	if !s.rows.Next() {
		s.cur = nil
		s.columns = nil
		return false
	}
	s.cur = &Row{columns: s.columns, values: s.rows.Current().Values}
	return true
}

// Row returns the row produced by the last call to Next.
func (s *RowStream) Row() *Row {
	return s.cur
}

// Remaining is the number of rows not yet produced.
func (s *RowStream) Remaining() int {
	return s.rows.Remaining()
}

// Close drops any rows not yet produced. It is safe to call at any time.
func (s *RowStream) Close() error {
	s.rows.Close()
	s.cur = nil
	s.columns = nil
	return nil
}

// All iterates over the remaining rows.
func (s *RowStream) All() iter.Seq[*Row] {
	return func(yield func(*Row) bool) {
		for s.Next() {
			if !yield(s.cur) {
				return
			}
		}
	}
}

package sqlite

import (
	"errors"
	"testing"

	"github.com/tomyedwab/hostsql/sqlerr"
	proxy "github.com/tomyedwab/hostsql/sqlproxy/sqlite"
)

func testRow() *Row {
	return &Row{
		columns: newColumns([]string{"age", "name"}),
		values:  []proxy.Value{proxy.Integer(7), proxy.Text("Rosie")},
	}
}

func TestColumnLookup(t *testing.T) {
	row := testRow()

	byOrdinal, err := row.Get(1)
	if err != nil {
		t.Fatalf("Get(1) returned error: %v", err)
	}
	byName, err := row.GetByName("name")
	if err != nil {
		t.Fatalf("GetByName returned error: %v", err)
	}
	if byOrdinal.Inner() != byName.Inner() {
		t.Errorf("Ordinal and name lookup disagree: %v vs %v", byOrdinal.Inner(), byName.Inner())
	}

	_, err = row.Get(5)
	var oob *sqlerr.ColumnIndexOutOfBoundsError
	if !errors.As(err, &oob) || oob.Index != 5 || oob.Len != 2 {
		t.Errorf("Expected out of bounds error, got %v", err)
	}

	_, err = row.GetByName("nickname")
	var notFound *sqlerr.ColumnNotFoundError
	if !errors.As(err, &notFound) || notFound.Name != "nickname" {
		t.Errorf("Expected column not found, got %v", err)
	}

	if _, err := row.Index("Name"); err == nil {
		t.Error("Column lookup should be case-sensitive")
	}
}

func TestColumnDecodeError(t *testing.T) {
	row := testRow()

	_, err := TryGetByName[int64](row, "name")
	var decErr *sqlerr.ColumnDecodeError
	if !errors.As(err, &decErr) || decErr.Column != "name" {
		t.Fatalf("Expected decode error naming the column, got %v", err)
	}
	if !errors.Is(err, sqlerr.ErrBadType) {
		t.Errorf("Expected bad type, got %v", err)
	}

	_, err = TryGet[int8](&Row{columns: newColumns([]string{"n"}), values: []proxy.Value{proxy.Integer(1000)}}, 0)
	if !errors.Is(err, sqlerr.ErrBadValue) {
		t.Errorf("Expected bad value, got %v", err)
	}
}

func TestTryGetNullable(t *testing.T) {
	row := &Row{
		columns: newColumns([]string{"nickname"}),
		values:  []proxy.Value{proxy.Null{}},
	}
	nick, err := TryGetNullable[string](row, 0)
	if err != nil || nick != nil {
		t.Errorf("Expected nil, got %v (%v)", nick, err)
	}
	if _, err := TryGet[string](row, 0); !errors.Is(err, sqlerr.ErrBadType) {
		t.Errorf("Expected bad type decoding Null, got %v", err)
	}
}

func TestScan(t *testing.T) {
	row := &Row{
		columns: newColumns([]string{"age", "name", "nickname", "raw"}),
		values:  []proxy.Value{proxy.Integer(7), proxy.Text("Rosie"), proxy.Null{}, proxy.Real(1.5)},
	}

	var age int16
	var name string
	var nickname *string
	var raw any
	if err := row.Scan(&age, &name, &nickname, &raw); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if age != 7 || name != "Rosie" || nickname != nil || raw != 1.5 {
		t.Errorf("Unexpected scan result: %d %q %v %v", age, name, nickname, raw)
	}

	if err := row.Scan(&age); err == nil {
		t.Error("Scan with the wrong number of destinations should fail")
	}

	var wrong int64
	err := row.Scan(&age, &wrong, &nickname, &raw)
	var decErr *sqlerr.ColumnDecodeError
	if !errors.As(err, &decErr) || decErr.Column != "name" {
		t.Errorf("Expected decode error for name, got %v", err)
	}
}

package pg

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/tomyedwab/hostsql/sqlerr"
)

type petRecord struct {
	Age     int64  `db:"age"`
	Name    string `db:"name"`
	Finicky bool   `db:"is_finicky"`
}

func openTestDB(t *testing.T) (*sqlx.DB, *fakeHost) {
	t.Helper()
	h := setupTestHost(t)
	db, err := sqlx.Open(URLScheme, "spin-pg://spin@localhost/pets")
	if err != nil {
		t.Fatalf("sqlx.Open returned error: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		db.Close()
	})
	return db, h
}

func TestDriverSelect(t *testing.T) {
	db, h := openTestDB(t)

	var pets []petRecord
	if err := db.Select(&pets, selectYoungPets, int32(20)); err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if len(pets) != 2 || pets[1].Name != "Max" || !pets[1].Finicky {
		t.Errorf("Unexpected pets: %+v", pets)
	}
	if h.requests[0].Address != "postgres://spin@localhost/pets" {
		t.Errorf("Expected rewritten address, got %q", h.requests[0].Address)
	}

	var pet petRecord
	if err := db.Get(&pet, selectYoungPets, int32(1)); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows, got %v", err)
	}
}

func TestDriverExec(t *testing.T) {
	db, _ := openTestDB(t)

	res, err := db.Exec(deleteAllPets)
	if err != nil {
		t.Fatalf("Exec returned error: %v", err)
	}
	if n, err := res.RowsAffected(); err != nil || n != 3 {
		t.Errorf("Expected 3 rows affected, got %d, %v", n, err)
	}
	if _, err := res.LastInsertId(); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("Expected LastInsertId to be unsupported, got %v", err)
	}
}

func TestDriverColumnTypes(t *testing.T) {
	db, _ := openTestDB(t)

	rows, err := db.QueryContext(context.Background(), selectYoungPets, int32(20))
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	defer rows.Close()
	types, err := rows.ColumnTypes()
	if err != nil {
		t.Fatalf("ColumnTypes returned error: %v", err)
	}
	want := []string{"INT", "TEXT", "BOOLEAN"}
	for i, ct := range types {
		if ct.DatabaseTypeName() != want[i] {
			t.Errorf("Column %d: expected %s, got %s", i, want[i], ct.DatabaseTypeName())
		}
	}
}

func TestDriverRejectsUnsigned(t *testing.T) {
	db, h := openTestDB(t)
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
	before := len(h.requests)

	if _, err := db.Exec(insertPet, uint32(1), "Rosie", true); err == nil {
		t.Error("Expected uint32 argument to be rejected")
	}
	if _, err := db.Exec(insertPet, sql.Named("age", int32(1)), "Rosie", true); err == nil {
		t.Error("Expected named argument to be rejected")
	}
	if len(h.requests) != before {
		t.Error("Expected rejected arguments not to reach the host")
	}
}

func TestDriverBeginUnsupported(t *testing.T) {
	db, _ := openTestDB(t)
	if _, err := db.Begin(); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
}

func TestCheckNamedValueEncodeError(t *testing.T) {
	var c driverConn
	err := c.CheckNamedValue(&driver.NamedValue{Ordinal: 1, Value: uint64(1)})
	var encErr *sqlerr.EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("Expected EncodeError, got %v", err)
	}

	nv := &driver.NamedValue{Ordinal: 1, Value: int32(7)}
	if err := c.CheckNamedValue(nv); err != nil {
		t.Fatalf("CheckNamedValue returned error: %v", err)
	}
	if _, ok := nv.Value.(Value); !ok {
		t.Errorf("Expected the argument to be encoded, got %T", nv.Value)
	}
}

package pg

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/tomyedwab/hostsql/sqlerr"
	proxy "github.com/tomyedwab/hostsql/sqlproxy/pg"
)

type pet struct {
	age     int32
	name    string
	finicky bool
}

// fakeHost answers pg requests from an in-memory pets table. Statements are
// matched by their exact text.
type fakeHost struct {
	pets     []pet
	requests []proxy.Request
	// fail, when set, is returned for every query and execute.
	fail *proxy.Error
}

const (
	selectYoungPets = "SELECT age, name, is_finicky FROM pets WHERE age < $1 ORDER BY age"
	insertPet       = "INSERT INTO pets (age, name, is_finicky) VALUES ($1, $2, $3)"
	deleteAllPets   = "DELETE FROM pets"
	selectEcho      = "SELECT $1 AS echo"
)

var petColumns = []proxy.Column{
	{Name: "age", DataType: proxy.DataTypeInt32},
	{Name: "name", DataType: proxy.DataTypeStr},
	{Name: "is_finicky", DataType: proxy.DataTypeBoolean},
}

func (h *fakeHost) handle(payload []byte) ([]byte, error) {
	var req proxy.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	h.requests = append(h.requests, req)
	return json.Marshal(h.respond(req))
}

func (h *fakeHost) respond(req proxy.Request) proxy.Response {
	switch req.Command {
	case proxy.CommandOpen:
		if req.Address == "postgres://nowhere" {
			return proxy.Response{Error: &proxy.Error{Kind: proxy.ErrConnectionFailed, Message: "no route to host"}}
		}
		return proxy.Response{Conn: "conn-1"}
	case proxy.CommandClose:
		return proxy.Response{}
	}
	if h.fail != nil {
		return proxy.Response{Error: h.fail}
	}
	switch req.SQL {
	case selectYoungPets:
		limit, ok := req.Args[0].(proxy.Int32)
		if !ok {
			return proxy.Response{Error: &proxy.Error{Kind: proxy.ErrBadParameter, Message: "expected int32"}}
		}
		rs := &proxy.RowSet{Columns: petColumns}
		for _, p := range h.pets {
			if p.age < int32(limit) {
				rs.Rows = append(rs.Rows, proxy.Values{proxy.Int32(p.age), proxy.Str(p.name), proxy.Boolean(p.finicky)})
			}
		}
		return proxy.Response{RowSet: rs}
	case insertPet:
		h.pets = append(h.pets, pet{
			age:     int32(req.Args[0].(proxy.Int32)),
			name:    string(req.Args[1].(proxy.Str)),
			finicky: bool(req.Args[2].(proxy.Boolean)),
		})
		return proxy.Response{Count: 1}
	case selectEcho:
		return proxy.Response{RowSet: &proxy.RowSet{
			Columns: []proxy.Column{{Name: "echo", DataType: proxy.DataTypeOther}},
			Rows:    []proxy.Values{{req.Args[0]}},
		}}
	case deleteAllPets:
		n := len(h.pets)
		h.pets = nil
		return proxy.Response{Count: uint64(n)}
	}
	return proxy.Response{Error: &proxy.Error{Kind: proxy.ErrQueryFailed, Message: "syntax error at or near \"" + req.SQL + "\""}}
}

func setupTestHost(t *testing.T) *fakeHost {
	h := &fakeHost{pets: []pet{
		{3, "Bella", false},
		{12, "Max", true},
		{25, "Methuselah", true},
	}}
	proxy.SetHostHandler(h.handle)
	t.Cleanup(func() {
		proxy.SetHostHandler(nil)
	})
	return h
}

func openTestConn(t *testing.T) (*Conn, *fakeHost) {
	t.Helper()
	h := setupTestHost(t)
	conn, err := Open("host=localhost user=spin dbname=pets")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
	})
	return conn, h
}

func TestFetchManyYoungPets(t *testing.T) {
	conn, _ := openTestConn(t)

	rows, err := conn.FetchMany(context.Background(), selectYoungPets, Args(int32(20)))
	if err != nil {
		t.Fatalf("FetchMany returned error: %v", err)
	}
	defer rows.Close()

	cols := rows.Columns()
	if len(cols) != 3 || cols[0].TypeInfo() != TypeInt32 || cols[1].Name() != "name" {
		t.Fatalf("Unexpected columns: %+v", cols)
	}

	var names []string
	for row := range rows.All() {
		age, err := TryGetByName[int32](row, "age")
		if err != nil {
			t.Fatalf("Decoding age returned error: %v", err)
		}
		if age >= 20 {
			t.Errorf("Expected age < 20, got %d", age)
		}
		name, err := TryGet[string](row, 1)
		if err != nil {
			t.Fatalf("Decoding name returned error: %v", err)
		}
		names = append(names, name)
	}
	if len(names) != 2 || names[0] != "Bella" || names[1] != "Max" {
		t.Errorf("Expected [Bella Max], got %v", names)
	}
	if rows.Next() {
		t.Error("Expected stream to be exhausted")
	}
}

func TestFetchManyEmpty(t *testing.T) {
	conn, _ := openTestConn(t)

	rows, err := conn.FetchMany(context.Background(), selectYoungPets, Args(int32(1)))
	if err != nil {
		t.Fatalf("FetchMany returned error: %v", err)
	}
	defer rows.Close()

	if len(rows.Columns()) != 3 {
		t.Errorf("Columns should be known without rows, got %d", len(rows.Columns()))
	}
	if rows.Remaining() != 0 {
		t.Errorf("Expected no buffered rows, got %d", rows.Remaining())
	}
	if rows.Next() {
		t.Error("Expected no rows")
	}
	if rows.Columns() != nil {
		t.Errorf("Columns should be released after exhaustion, got %d", len(rows.Columns()))
	}
}

func echo[T Scalar](t *testing.T, conn *Conn, v T) T {
	t.Helper()
	row, err := conn.FetchOne(context.Background(), selectEcho, Args(v))
	if err != nil {
		t.Fatalf("FetchOne(%v) returned error: %v", v, err)
	}
	out, err := TryGet[T](row, 0)
	if err != nil {
		t.Fatalf("Decoding echo of %v returned error: %v", v, err)
	}
	return out
}

func TestInvalidUTF8TextRoundTrip(t *testing.T) {
	conn, _ := openTestConn(t)

	for _, s := range []string{"a\xffb", "\xc3", "ok"} {
		if got := echo(t, conn, s); got != s {
			t.Errorf("Expected %q, got %q", s, got)
		}
	}
}

func TestNonFiniteFloatRoundTrip(t *testing.T) {
	conn, _ := openTestConn(t)

	for _, f := range []float64{math.Inf(1), math.Inf(-1)} {
		if got := echo(t, conn, f); got != f {
			t.Errorf("Expected %v, got %v", f, got)
		}
		if got := echo(t, conn, float32(f)); got != float32(f) {
			t.Errorf("Expected float32 %v, got %v", f, got)
		}
	}
	if got := echo(t, conn, math.NaN()); !math.IsNaN(got) {
		t.Errorf("Expected NaN, got %v", got)
	}
	if got := echo(t, conn, float32(math.NaN())); !math.IsNaN(float64(got)) {
		t.Errorf("Expected float32 NaN, got %v", got)
	}
}

func TestExecuteCount(t *testing.T) {
	conn, h := openTestConn(t)
	ctx := context.Background()

	res, err := conn.Execute(ctx, insertPet, Args(int32(1), "Rosie", true))
	if err != nil {
		t.Fatalf("INSERT returned error: %v", err)
	}
	if res.Count() != 1 {
		t.Errorf("Expected count 1, got %d", res.Count())
	}
	if len(h.pets) != 4 {
		t.Errorf("Expected 4 pets, got %d", len(h.pets))
	}

	del, err := conn.Execute(ctx, deleteAllPets, nil)
	if err != nil {
		t.Fatalf("DELETE returned error: %v", err)
	}
	res.Extend(del)
	if res.Count() != 5 {
		t.Errorf("Expected extended count 5, got %d", res.Count())
	}

	last := h.requests[len(h.requests)-1]
	if last.Command != proxy.CommandExecute || last.Conn != "conn-1" {
		t.Errorf("Unexpected request %+v", last)
	}
}

func TestFetchOneAndOptional(t *testing.T) {
	conn, _ := openTestConn(t)
	ctx := context.Background()

	row, err := conn.FetchOne(ctx, selectYoungPets, Args(int32(5)))
	if err != nil {
		t.Fatalf("FetchOne returned error: %v", err)
	}
	var age int64
	var name string
	var finicky *bool
	if err := row.Scan(&age, &name, &finicky); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if age != 3 || name != "Bella" || finicky == nil || *finicky {
		t.Errorf("Unexpected row: %d %q %v", age, name, finicky)
	}

	row, err = conn.FetchOptional(ctx, selectYoungPets, Args(int32(1)))
	if err != nil {
		t.Fatalf("FetchOptional returned error: %v", err)
	}
	if row != nil {
		t.Errorf("Expected no row, got %+v", row)
	}

	if _, err := conn.FetchOne(ctx, selectYoungPets, Args(int32(1))); !errors.Is(err, sqlerr.ErrRowNotFound) {
		t.Errorf("Expected ErrRowNotFound, got %v", err)
	}
}

func TestFetchAllSharesColumns(t *testing.T) {
	conn, _ := openTestConn(t)

	rows, err := conn.FetchAll(context.Background(), selectYoungPets, Args(int32(100)))
	if err != nil {
		t.Fatalf("FetchAll returned error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if &rows[0].Columns()[0] != &rows[2].Columns()[0] {
		t.Error("Expected rows to share one column slice")
	}
}

func TestEncodeErrorSkipsHost(t *testing.T) {
	conn, h := openTestConn(t)
	before := len(h.requests)

	_, err := conn.Execute(context.Background(), insertPet, Args(uint32(1), "Rosie", true))
	var encErr *sqlerr.EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("Expected EncodeError, got %v", err)
	}
	if len(h.requests) != before {
		t.Errorf("Expected no host call, got %d", len(h.requests)-before)
	}
}

func TestErrorMapping(t *testing.T) {
	conn, h := openTestConn(t)
	ctx := context.Background()

	_, err := conn.FetchAll(ctx, "SELEKT 1", nil)
	var ioErr *sqlerr.IoError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Expected IoError, got %v", err)
	}
	if ioErr.Kind != sqlerr.IoOther || ioErr.Message == "" {
		t.Errorf("Unexpected IoError %+v", ioErr)
	}

	h.fail = &proxy.Error{Kind: proxy.ErrValueConversionFailed, Message: "numeric is not supported"}
	_, err = conn.FetchAll(ctx, selectYoungPets, Args(int32(1)))
	var decErr *sqlerr.DecodeError
	if !errors.As(err, &decErr) {
		t.Errorf("Expected DecodeError, got %v", err)
	}

	for _, kind := range []proxy.ErrorKind{proxy.ErrConnectionFailed, proxy.ErrBadParameter, proxy.ErrQueryFailed, proxy.ErrOther} {
		h.fail = &proxy.Error{Kind: kind, Message: string(kind)}
		_, err = conn.Execute(ctx, deleteAllPets, nil)
		if !errors.As(err, &ioErr) || ioErr.Message != string(kind) {
			t.Errorf("%s: expected IoError, got %v", kind, err)
		}
	}
}

func TestOpenError(t *testing.T) {
	setupTestHost(t)

	opts, err := ParseOptions("spin-pg://nowhere")
	if err != nil {
		t.Fatalf("ParseOptions returned error: %v", err)
	}
	_, err = opts.Connect(context.Background())
	var ioErr *sqlerr.IoError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Expected IoError, got %v", err)
	}
}

func TestParseOptions(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{"host=localhost dbname=pets", "host=localhost dbname=pets"},
		{"postgres://spin@db/pets", "postgres://spin@db/pets"},
		{"spin-pg://spin@db/pets?sslmode=disable", "postgres://spin@db/pets?sslmode=disable"},
	} {
		opts, err := ParseOptions(tc.in)
		if err != nil {
			t.Fatalf("ParseOptions(%q) returned error: %v", tc.in, err)
		}
		if opts.Address != tc.want {
			t.Errorf("ParseOptions(%q) = %q, want %q", tc.in, opts.Address, tc.want)
		}
	}
}

func TestClosedConnection(t *testing.T) {
	conn, h := openTestConn(t)
	if err := conn.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if last := h.requests[len(h.requests)-1]; last.Command != proxy.CommandClose {
		t.Errorf("Expected close request, got %+v", last)
	}
	if err := conn.Ping(context.Background()); err == nil {
		t.Error("Expected Ping to fail after Close")
	}
	if _, err := conn.Execute(context.Background(), deleteAllPets, nil); err == nil {
		t.Error("Expected Execute to fail after Close")
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Second Close returned error: %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	conn, h := openTestConn(t)
	before := len(h.requests)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := conn.FetchAll(ctx, selectYoungPets, Args(int32(20))); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(h.requests) != before {
		t.Error("Expected no host call with a canceled context")
	}
}

func TestUnsupported(t *testing.T) {
	conn, _ := openTestConn(t)
	ctx := context.Background()

	stmt, err := conn.Prepare(ctx, selectYoungPets)
	if err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if stmt.SQL() != selectYoungPets {
		t.Errorf("Unexpected SQL %q", stmt.SQL())
	}
	for name, err := range map[string]error{
		"Begin":    conn.Begin(ctx),
		"Commit":   conn.Commit(ctx),
		"Rollback": conn.Rollback(ctx),
	} {
		if !errors.Is(err, errors.ErrUnsupported) {
			t.Errorf("%s: expected ErrUnsupported, got %v", name, err)
		}
	}
	if _, err := conn.Describe(ctx, selectYoungPets); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("Describe: expected ErrUnsupported, got %v", err)
	}
	if _, err := stmt.Parameters(); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("Parameters: expected ErrUnsupported, got %v", err)
	}
}

func TestRowsAffectedOverflow(t *testing.T) {
	r := &QueryResult{count: math.MaxUint64}
	if _, err := r.rowsAffected(); err == nil {
		t.Error("Expected overflow error")
	}
	r = &QueryResult{count: 7}
	if n, err := r.rowsAffected(); err != nil || n != 7 {
		t.Errorf("Expected 7, got %d, %v", n, err)
	}
}

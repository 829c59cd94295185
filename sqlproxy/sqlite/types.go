// Package sqlite is the guest-side binding of the host's embedded SQLite
// interface: connections are opened by label, and every statement is run
// with Execute, which returns the full result set at once.
package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/tomyedwab/hostsql/sqlproxy"
)

// DefaultLabel names the database opened by OpenDefault.
const DefaultLabel = "default"

// Value is one SQLite cell or bound parameter. It is one of Null, Integer,
// Real, Text or Blob.
type Value interface {
	isValue()
}

type Null struct{}

type Integer int64

type Real float64

type Text string

type Blob []byte

func (Null) isValue()    {}
func (Integer) isValue() {}
func (Real) isValue()    {}
func (Text) isValue()    {}
func (Blob) isValue()    {}

// Values is a list of values with a JSON encoding that preserves the variant.
type Values []Value

func (vs Values) MarshalJSON() ([]byte, error) {
	tagged := make([]sqlproxy.TaggedValue, len(vs))
	for i, v := range vs {
		var err error
		switch v := v.(type) {
		case nil, Null:
			tagged[i], err = sqlproxy.Tag("null", nil)
		case Integer:
			tagged[i], err = sqlproxy.Tag("integer", int64(v))
		case Real:
			tagged[i], err = sqlproxy.TagFloat("real", float64(v))
		case Text:
			tagged[i], err = sqlproxy.TagText("text", string(v))
		case Blob:
			tagged[i], err = sqlproxy.Tag("blob", []byte(v))
		default:
			err = fmt.Errorf("unknown sqlite value %T", v)
		}
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(tagged)
}

func (vs *Values) UnmarshalJSON(data []byte) error {
	var tagged []sqlproxy.TaggedValue
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	out := make(Values, len(tagged))
	for i, tv := range tagged {
		var err error
		switch tv.Type {
		case "null":
			out[i] = Null{}
		case "integer":
			var n int64
			n, err = sqlproxy.Untag[int64](tv)
			out[i] = Integer(n)
		case "real":
			var f float64
			f, err = sqlproxy.UntagFloat(tv)
			out[i] = Real(f)
		case "text":
			var s string
			s, err = sqlproxy.UntagText(tv)
			out[i] = Text(s)
		case "blob":
			var b []byte
			b, err = sqlproxy.Untag[[]byte](tv)
			out[i] = Blob(b)
		default:
			err = fmt.Errorf("unknown sqlite value type %q", tv.Type)
		}
		if err != nil {
			return err
		}
	}
	*vs = out
	return nil
}

// RowResult is a single row of a QueryResult.
type RowResult struct {
	Values Values `json:"values"`
}

// QueryResult is everything the host returns for one statement. For
// statements that produce no result set, RowsAffected and LastInsertID are
// taken from the connection after the statement ran; otherwise RowsAffected
// is the number of rows returned.
type QueryResult struct {
	Columns      []string    `json:"columns"`
	Rows         []RowResult `json:"rows"`
	RowsAffected int64       `json:"rows_affected"`
	LastInsertID int64       `json:"last_insert_id"`
}

// ErrorKind enumerates the failures the host can report.
type ErrorKind string

const (
	ErrNoSuchDatabase    ErrorKind = "no_such_database"
	ErrAccessDenied      ErrorKind = "access_denied"
	ErrInvalidConnection ErrorKind = "invalid_connection"
	ErrDatabaseFull      ErrorKind = "database_full"
	ErrIo                ErrorKind = "io"
)

// Error is a host-reported failure.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message,omitempty"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("sqlite host: %s", e.Kind)
	}
	return fmt.Sprintf("sqlite host: %s: %s", e.Kind, e.Message)
}

// Request is sent to the host for every operation.
type Request struct {
	Command string `json:"command"`
	Label   string `json:"label,omitempty"`
	Conn    string `json:"conn,omitempty"`
	SQL     string `json:"sql,omitempty"`
	Args    Values `json:"args,omitempty"`
}

// Response is the host's reply to a Request.
type Response struct {
	Conn   string       `json:"conn,omitempty"`
	Result *QueryResult `json:"result,omitempty"`
	Error  *Error       `json:"error,omitempty"`
}

const (
	CommandOpen    = "open"
	CommandExecute = "execute"
	CommandClose   = "close"
)

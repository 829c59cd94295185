package sqlite

import (
	"github.com/tomyedwab/hostsql/sqlproxy"
)

// CallHost handles SQLite requests. It must be set with SetHostHandler
// before any connection is opened.
var CallHost sqlproxy.HostCall

// SetHostHandler installs the function used to reach the host.
func SetHostHandler(handler sqlproxy.HostCall) {
	CallHost = handler
}

// Connection is a host connection handle.
type Connection struct {
	handle string
}

// Open opens the database with the given label.
func Open(label string) (*Connection, error) {
	resp, err := call(Request{Command: CommandOpen, Label: label})
	if err != nil {
		return nil, err
	}
	if resp.Conn == "" {
		return nil, &Error{Kind: ErrIo, Message: "host did not return a connection handle"}
	}
	return &Connection{handle: resp.Conn}, nil
}

// OpenDefault opens the database with the default label.
func OpenDefault() (*Connection, error) {
	return Open(DefaultLabel)
}

// Handle returns the host's identifier for this connection.
func (c *Connection) Handle() string {
	return c.handle
}

// Execute runs sql with the given parameters and returns the full result.
func (c *Connection) Execute(sql string, args []Value) (*QueryResult, error) {
	resp, err := call(Request{Command: CommandExecute, Conn: c.handle, SQL: sql, Args: args})
	if err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return &QueryResult{}, nil
	}
	return resp.Result, nil
}

// Close releases the host connection. Closing twice reports
// ErrInvalidConnection from the host.
func (c *Connection) Close() error {
	_, err := call(Request{Command: CommandClose, Conn: c.handle})
	return err
}

func call(req Request) (*Response, error) {
	var resp Response
	if err := sqlproxy.Call(CallHost, req.Command, req, &resp); err != nil {
		return nil, &Error{Kind: ErrIo, Message: err.Error()}
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return &resp, nil
}

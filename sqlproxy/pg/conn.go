package pg

import (
	"github.com/tomyedwab/hostsql/sqlproxy"
)

// CallHost handles PostgreSQL requests. It must be set with SetHostHandler
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

// Open connects to the database at address, a libpq-style connection string.
func Open(address string) (*Connection, error) {
	resp, err := call(Request{Command: CommandOpen, Address: address})
	if err != nil {
		return nil, err
	}
	if resp.Conn == "" {
		return nil, &Error{Kind: ErrOther, Message: "host did not return a connection handle"}
	}
	return &Connection{handle: resp.Conn}, nil
}

// Handle returns the host's identifier for this connection.
func (c *Connection) Handle() string {
	return c.handle
}

// Query runs a statement and returns every row it produced.
func (c *Connection) Query(sql string, params []Value) (*RowSet, error) {
	resp, err := call(Request{Command: CommandQuery, Conn: c.handle, SQL: sql, Args: params})
	if err != nil {
		return nil, err
	}
	if resp.RowSet == nil {
		return &RowSet{}, nil
	}
	return resp.RowSet, nil
}

// Execute runs a statement and returns the number of rows it affected.
func (c *Connection) Execute(sql string, params []Value) (uint64, error) {
	resp, err := call(Request{Command: CommandExecute, Conn: c.handle, SQL: sql, Args: params})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Close releases the host connection.
func (c *Connection) Close() error {
	_, err := call(Request{Command: CommandClose, Conn: c.handle})
	return err
}

func call(req Request) (*Response, error) {
	var resp Response
	if err := sqlproxy.Call(CallHost, req.Command, req, &resp); err != nil {
		return nil, &Error{Kind: ErrOther, Message: err.Error()}
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return &resp, nil
}

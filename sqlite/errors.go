package sqlite

import (
	"errors"

	"github.com/tomyedwab/hostsql/sqlerr"
	proxy "github.com/tomyedwab/hostsql/sqlproxy/sqlite"
)

// asClientError translates a host error into the sqlerr taxonomy. Errors
// that did not come from the host are returned unchanged.
func asClientError(err error) error {
	if err == nil {
		return nil
	}
	var hostErr *proxy.Error
	if !errors.As(err, &hostErr) {
		return err
	}
	switch hostErr.Kind {
	case proxy.ErrAccessDenied:
		return &sqlerr.IoError{Kind: sqlerr.IoNotFound, Message: "Component does not have access to database"}
	case proxy.ErrDatabaseFull:
		return &sqlerr.DatabaseError{Message: "Database full", Kind: sqlerr.KindOther}
	case proxy.ErrInvalidConnection:
		return &sqlerr.IoError{Kind: sqlerr.IoNotFound, Message: "Invalid connection handle"}
	case proxy.ErrNoSuchDatabase:
		return &sqlerr.IoError{Kind: sqlerr.IoNotFound, Message: "No such database"}
	}
	return &sqlerr.IoError{Kind: sqlerr.IoOther, Message: hostErr.Message}
}

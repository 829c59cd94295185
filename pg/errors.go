package pg

import (
	"errors"

	"github.com/tomyedwab/hostsql/sqlerr"
	proxy "github.com/tomyedwab/hostsql/sqlproxy/pg"
)

func asClientError(err error) error {
	if err == nil {
		return nil
	}
	var hostErr *proxy.Error
	if !errors.As(err, &hostErr) {
		return err
	}
	switch hostErr.Kind {
	case proxy.ErrValueConversionFailed, proxy.ErrDecode:
		return &sqlerr.DecodeError{Err: errors.New(hostErr.Message)}
	}
	return &sqlerr.IoError{Kind: sqlerr.IoOther, Message: hostErr.Message}
}

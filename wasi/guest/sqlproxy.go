//go:build wasip1

package guest

import (
	"fmt"

	"github.com/tomyedwab/hostsql/sqlproxy"
	"github.com/tomyedwab/hostsql/sqlproxy/pg"
	"github.com/tomyedwab/hostsql/sqlproxy/sqlite"
)

//go:wasmimport env sqlite_host_handler
func sqlite_host_handler(requestPayload string, destPtr *uint32) int32

//go:wasmimport env pg_host_handler
func pg_host_handler(requestPayload string, destPtr *uint32) int32

func hostCall(name string, fn func(string, *uint32) int32) sqlproxy.HostCall {
	return func(payload []byte) ([]byte, error) {
		var handle uint32
		size := fn(string(payload), &handle)
		if size < 0 {
			ret := takeBytes(handle, uint32(-size))
			return nil, fmt.Errorf("%s returned error: %s", name, string(ret))
		}
		return takeBytes(handle, uint32(size)), nil
	}
}

// InitSQLProxy routes both database bindings through the host.
func InitSQLProxy() {
	sqlite.SetHostHandler(hostCall("sqlite_host_handler", sqlite_host_handler))
	pg.SetHostHandler(hostCall("pg_host_handler", pg_host_handler))
}

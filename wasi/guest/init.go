//go:build wasip1

// Package guest is the component side of the host runtime. It exports the
// buffer functions the host writes through and wires the database bindings
// to the host calls.
package guest

import "github.com/tomyedwab/hostsql/wasi/types"

func Init() {
	InitSQLProxy()

	RegisterHandler("/api/status", func(params types.RequestParams) types.Response {
		return RespondSuccess("ok")
	})
}

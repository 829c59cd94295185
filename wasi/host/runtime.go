// Package host runs a guest component under wazero and exposes the host
// functions it imports from the "env" module:
//
//	register_handler(uri string, handlerId uint32)
//	write_response(message string)
//	sqlite_host_handler(request string, destPtr *uint32) int32
//	pg_host_handler(request string, destPtr *uint32) int32
//
// Payloads returned to the guest are written into buffers obtained from the
// guest's alloc_bytes export. The buffer handle is stored at destPtr and the
// return value is the payload size, negated when the payload is an error
// message.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	sqlhost "github.com/tomyedwab/hostsql/sqlproxy/host"
)

// RequestPayloadHandler serves one backend's requests.
type RequestPayloadHandler interface {
	HandleRequest(ctx context.Context, requestPayload []byte) ([]byte, error)
}

// Config holds configuration options for the Runtime.
type Config struct {
	SQLite *sqlhost.SQLiteHost
	Pg     *sqlhost.PgHost
	Logger *slog.Logger // Optional, defaults to slog.Default()
}

// Runtime hosts a single guest component. Calls into the guest are
// serialized.
type Runtime struct {
	runtime wazero.Runtime
	module  api.Module
	sqlite  RequestPayloadHandler
	pg      RequestPayloadHandler
	logger  *slog.Logger
	mux     *http.ServeMux

	// callMu guards every call into the guest.
	callMu sync.Mutex
}

type contextKey int

const contextKeyResponse contextKey = iota

// New creates the wazero runtime and registers the host module.
func New(ctx context.Context, config Config) (*Runtime, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runtime{
		runtime: wazero.NewRuntime(ctx),
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	if config.SQLite != nil {
		r.sqlite = config.SQLite
	}
	if config.Pg != nil {
		r.pg = config.Pg
	}

	wasi_snapshot_preview1.MustInstantiate(ctx, r.runtime)

	_, err := r.runtime.NewHostModuleBuilder("env").
		NewFunctionBuilder().WithFunc(r.writeResponse).Export("write_response").
		NewFunctionBuilder().WithFunc(r.registerHandler).Export("register_handler").
		NewFunctionBuilder().WithFunc(r.sqliteHostHandler).Export("sqlite_host_handler").
		NewFunctionBuilder().WithFunc(r.pgHostHandler).Export("pg_host_handler").
		Instantiate(ctx)
	if err != nil {
		r.runtime.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate host module: %w", err)
	}
	return r, nil
}

// Load instantiates the guest and runs its _initialize export, during which
// the guest registers its HTTP handlers.
func (r *Runtime) Load(ctx context.Context, wasmBytes []byte) error {
	if r.module != nil {
		return errors.New("a component is already loaded")
	}
	module, err := r.runtime.InstantiateWithConfig(
		ctx,
		wasmBytes,
		wazero.NewModuleConfig().WithStartFunctions("_initialize"),
	)
	if err != nil {
		return fmt.Errorf("failed to instantiate component: %w", err)
	}
	r.module = module
	return nil
}

// Handler returns the mux holding the guest's registered routes.
func (r *Runtime) Handler() http.Handler {
	return r.mux
}

func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

func readBytes(m api.Module, offset, byteCount uint32) ([]byte, error) {
	buf, ok := m.Memory().Read(offset, byteCount)
	if !ok {
		return nil, fmt.Errorf("Memory.Read(%d, %d) out of range", offset, byteCount)
	}
	return buf, nil
}

// writeBytes copies data into a fresh guest buffer and returns its handle.
// The guest owns the buffer afterwards.
func writeBytes(ctx context.Context, m api.Module, data []byte) (uint32, error) {
	alloc := m.ExportedFunction("alloc_bytes")
	if alloc == nil {
		return 0, errors.New("component does not export alloc_bytes")
	}
	result, err := alloc.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("alloc_bytes failed: %w", err)
	}
	handle, ptr := splitAllocResult(result[0])
	if !m.Memory().Write(ptr, data) {
		return 0, fmt.Errorf("Memory.Write(%d, %d) out of range", ptr, len(data))
	}
	return handle, nil
}

// splitAllocResult unpacks alloc_bytes' result: the handle in the high 32
// bits and the buffer address in the low 32 bits.
func splitAllocResult(v uint64) (handle, ptr uint32) {
	return uint32(v >> 32), uint32(v)
}

func (r *Runtime) registerHandler(ctx context.Context, m api.Module, uriOffset, uriByteCount uint32, handlerId uint32) {
	uri, err := readBytes(m, uriOffset, uriByteCount)
	if err != nil {
		r.logger.Error("Failed to read handler URI", "error", err)
		return
	}
	r.logger.Info("Registering handler", "uri", string(uri), "handlerId", handlerId)
	r.mux.HandleFunc(string(uri), func(w http.ResponseWriter, req *http.Request) {
		r.serveGuest(w, req, m, handlerId)
	})
}

func (r *Runtime) serveGuest(w http.ResponseWriter, req *http.Request, m api.Module, handlerId uint32) {
	params, err := requestParams(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.callMu.Lock()
	defer r.callMu.Unlock()

	rec := &responseRecorder{}
	ctx := context.WithValue(req.Context(), contextKeyResponse, rec)
	handle, err := writeBytes(ctx, m, params)
	if err != nil {
		r.logger.Error("Failed to pass request to component", "path", req.URL.Path, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	handlerFn := m.ExportedFunction("handle_request")
	if handlerFn == nil {
		r.logger.Error("Component does not export handle_request")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if _, err := handlerFn.Call(ctx, uint64(handle), uint64(len(params)), uint64(handlerId)); err != nil {
		r.logger.Error("Request returned an error", "path", req.URL.Path, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	rec.flush(w, r.logger)
}

func (r *Runtime) writeResponse(ctx context.Context, m api.Module, respOffset, respByteCount uint32) {
	rec, _ := ctx.Value(contextKeyResponse).(*responseRecorder)
	if rec == nil {
		r.logger.Error("write_response called outside of a request")
		return
	}
	response, err := readBytes(m, respOffset, respByteCount)
	if err != nil {
		r.logger.Error("Failed to read response", "error", err)
		return
	}
	rec.record(response)
}

func (r *Runtime) sqliteHostHandler(ctx context.Context, m api.Module, reqOffset, reqByteCount, destPtr uint32) int32 {
	return r.proxyHostCall(ctx, m, "sqlite", r.sqlite, reqOffset, reqByteCount, destPtr)
}

func (r *Runtime) pgHostHandler(ctx context.Context, m api.Module, reqOffset, reqByteCount, destPtr uint32) int32 {
	return r.proxyHostCall(ctx, m, "pg", r.pg, reqOffset, reqByteCount, destPtr)
}

func (r *Runtime) proxyHostCall(ctx context.Context, m api.Module, backend string, handler RequestPayloadHandler, reqOffset, reqByteCount, destPtr uint32) int32 {
	request, err := readBytes(m, reqOffset, reqByteCount)
	if err != nil {
		return r.replyError(ctx, m, backend, destPtr, err)
	}
	if handler == nil {
		return r.replyError(ctx, m, backend, destPtr, fmt.Errorf("%s is not enabled on this host", backend))
	}
	r.logger.Debug("Host call", "backend", backend, "bytes", len(request))

	response, err := handler.HandleRequest(ctx, request)
	if err != nil {
		return r.replyError(ctx, m, backend, destPtr, err)
	}
	handle, err := writeBytes(ctx, m, response)
	if err != nil {
		r.logger.Error("Failed to write host response", "backend", backend, "error", err)
		return 0
	}
	m.Memory().WriteUint32Le(destPtr, handle)
	return int32(len(response))
}

func (r *Runtime) replyError(ctx context.Context, m api.Module, backend string, destPtr uint32, err error) int32 {
	r.logger.Error("Error handling host call", "backend", backend, "error", err)
	msg := []byte(err.Error())
	handle, werr := writeBytes(ctx, m, msg)
	if werr != nil {
		r.logger.Error("Failed to write host error", "backend", backend, "error", werr)
		return 0
	}
	m.Memory().WriteUint32Le(destPtr, handle)
	return -int32(len(msg))
}

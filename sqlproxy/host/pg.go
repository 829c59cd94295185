package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"slices"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	proxy "github.com/tomyedwab/hostsql/sqlproxy/pg"
)

// PgConfig holds configuration options for the PgHost.
type PgConfig struct {
	// AllowedHosts lists the servers a component may connect to, as "host"
	// or "host:port". "*" allows any server.
	AllowedHosts []string
	Logger       *slog.Logger // Optional, defaults to slog.Default()
}

// PgHost serves the outbound PostgreSQL interface. Each opened connection
// is a dedicated pgx connection.
type PgHost struct {
	allowed []string
	logger  *slog.Logger

	mu    sync.Mutex
	conns map[string]*pgx.Conn
}

// NewPgHost creates a new PgHost.
func NewPgHost(config PgConfig) *PgHost {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PgHost{
		allowed: config.AllowedHosts,
		logger:  logger,
		conns:   make(map[string]*pgx.Conn),
	}
}

// HandleRequest processes a raw request payload and returns a raw response
// payload.
func (h *PgHost) HandleRequest(ctx context.Context, requestPayload []byte) ([]byte, error) {
	var req proxy.Request
	if err := json.Unmarshal(requestPayload, &req); err != nil {
		return marshalPgError(&proxy.Error{Kind: proxy.ErrOther, Message: fmt.Sprintf("failed to unmarshal request: %v", err)})
	}

	var resp proxy.Response
	var opErr *proxy.Error

	switch req.Command {
	case proxy.CommandOpen:
		resp.Conn, opErr = h.handleOpen(ctx, req.Address)
	case proxy.CommandQuery:
		resp.RowSet, opErr = h.handleQuery(ctx, &req)
	case proxy.CommandExecute:
		resp.Count, opErr = h.handleExecute(ctx, &req)
	case proxy.CommandClose:
		opErr = h.handleClose(ctx, req.Conn)
	default:
		opErr = &proxy.Error{Kind: proxy.ErrOther, Message: fmt.Sprintf("unknown command: %s", req.Command)}
	}

	if opErr != nil {
		h.logger.Debug("PostgreSQL request failed", "command", req.Command, "kind", opErr.Kind, "error", opErr.Message)
		return marshalPgError(opErr)
	}
	return json.Marshal(resp)
}

func marshalPgError(e *proxy.Error) ([]byte, error) {
	payload, err := json.Marshal(proxy.Response{Error: e})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal error response for '%s': %w", e.Message, err)
	}
	return payload, nil
}

func (h *PgHost) hostAllowed(host string, port uint16) bool {
	if slices.Contains(h.allowed, "*") {
		return true
	}
	return slices.Contains(h.allowed, host) ||
		slices.Contains(h.allowed, net.JoinHostPort(host, strconv.Itoa(int(port))))
}

func (h *PgHost) handleOpen(ctx context.Context, address string) (string, *proxy.Error) {
	config, err := pgx.ParseConfig(address)
	if err != nil {
		return "", &proxy.Error{Kind: proxy.ErrConnectionFailed, Message: fmt.Sprintf("invalid address: %v", err)}
	}
	if !h.hostAllowed(config.Host, config.Port) {
		return "", &proxy.Error{Kind: proxy.ErrConnectionFailed, Message: fmt.Sprintf("destination %s is not allowed", config.Host)}
	}

	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return "", &proxy.Error{Kind: proxy.ErrConnectionFailed, Message: err.Error()}
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.conns[id] = conn
	h.mu.Unlock()

	h.logger.Debug("Opened PostgreSQL connection", "host", config.Host, "database", config.Database, "conn", id)
	return id, nil
}

func (h *PgHost) lookup(id string) (*pgx.Conn, *proxy.Error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.conns[id]
	if !ok {
		return nil, &proxy.Error{Kind: proxy.ErrConnectionFailed, Message: "invalid connection handle"}
	}
	return conn, nil
}

func (h *PgHost) handleQuery(ctx context.Context, req *proxy.Request) (*proxy.RowSet, *proxy.Error) {
	conn, opErr := h.lookup(req.Conn)
	if opErr != nil {
		return nil, opErr
	}
	args, opErr := pgArgs(req.Args)
	if opErr != nil {
		return nil, opErr
	}

	rows, err := conn.Query(ctx, req.SQL, args...)
	if err != nil {
		return nil, queryError(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	rowSet := &proxy.RowSet{Columns: make([]proxy.Column, len(fields)), Rows: []proxy.Values{}}
	for i, f := range fields {
		rowSet.Columns[i] = proxy.Column{Name: f.Name, DataType: dataType(f.DataTypeOID)}
	}

	for rows.Next() {
		raw, err := rows.Values()
		if err != nil {
			return nil, &proxy.Error{Kind: proxy.ErrValueConversionFailed, Message: err.Error()}
		}
		values := make(proxy.Values, len(raw))
		for i, v := range raw {
			values[i] = resultPgValue(v)
		}
		rowSet.Rows = append(rowSet.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err)
	}
	return rowSet, nil
}

func (h *PgHost) handleExecute(ctx context.Context, req *proxy.Request) (uint64, *proxy.Error) {
	conn, opErr := h.lookup(req.Conn)
	if opErr != nil {
		return 0, opErr
	}
	args, opErr := pgArgs(req.Args)
	if opErr != nil {
		return 0, opErr
	}

	tag, err := conn.Exec(ctx, req.SQL, args...)
	if err != nil {
		return 0, queryError(err)
	}
	return uint64(tag.RowsAffected()), nil
}

func (h *PgHost) handleClose(ctx context.Context, id string) *proxy.Error {
	h.mu.Lock()
	conn, ok := h.conns[id]
	delete(h.conns, id)
	h.mu.Unlock()

	if !ok {
		return &proxy.Error{Kind: proxy.ErrConnectionFailed, Message: "invalid connection handle"}
	}
	if err := conn.Close(ctx); err != nil {
		return &proxy.Error{Kind: proxy.ErrOther, Message: err.Error()}
	}
	return nil
}

// Close closes every open connection.
func (h *PgHost) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for id, conn := range h.conns {
		errs = append(errs, conn.Close(ctx))
		delete(h.conns, id)
	}
	return errors.Join(errs...)
}

func pgArgs(values proxy.Values) ([]any, *proxy.Error) {
	args := make([]any, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case nil, proxy.DbNull:
			args[i] = nil
		case proxy.Boolean:
			args[i] = bool(x)
		case proxy.Int16:
			args[i] = int16(x)
		case proxy.Int32:
			args[i] = int32(x)
		case proxy.Int64:
			args[i] = int64(x)
		case proxy.Uint8:
			args[i] = int16(x)
		case proxy.Uint16:
			args[i] = int32(x)
		case proxy.Uint32:
			args[i] = int64(x)
		case proxy.Uint64:
			if uint64(x) > math.MaxInt64 {
				return nil, &proxy.Error{Kind: proxy.ErrBadParameter, Message: fmt.Sprintf("parameter %d: %d is out of range", i+1, uint64(x))}
			}
			args[i] = int64(x)
		case proxy.Floating32:
			args[i] = float32(x)
		case proxy.Floating64:
			args[i] = float64(x)
		case proxy.Str:
			args[i] = string(x)
		case proxy.Binary:
			args[i] = []byte(x)
		default:
			return nil, &proxy.Error{Kind: proxy.ErrBadParameter, Message: fmt.Sprintf("parameter %d: unsupported value %T", i+1, v)}
		}
	}
	return args, nil
}

func resultPgValue(v any) proxy.Value {
	switch x := v.(type) {
	case nil:
		return proxy.DbNull{}
	case bool:
		return proxy.Boolean(x)
	case int16:
		return proxy.Int16(x)
	case int32:
		return proxy.Int32(x)
	case int64:
		return proxy.Int64(x)
	case float32:
		return proxy.Floating32(x)
	case float64:
		return proxy.Floating64(x)
	case string:
		return proxy.Str(x)
	case []byte:
		return proxy.Binary(x)
	}
	return proxy.Unsupported{}
}

func dataType(oid uint32) proxy.DataType {
	switch oid {
	case pgtype.BoolOID:
		return proxy.DataTypeBoolean
	case pgtype.Int2OID:
		return proxy.DataTypeInt16
	case pgtype.Int4OID:
		return proxy.DataTypeInt32
	case pgtype.Int8OID:
		return proxy.DataTypeInt64
	case pgtype.Float4OID:
		return proxy.DataTypeFloating32
	case pgtype.Float8OID:
		return proxy.DataTypeFloating64
	case pgtype.TextOID, pgtype.VarcharOID, pgtype.BPCharOID, pgtype.NameOID:
		return proxy.DataTypeStr
	case pgtype.ByteaOID:
		return proxy.DataTypeBinary
	}
	return proxy.DataTypeOther
}

func queryError(err error) *proxy.Error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &proxy.Error{Kind: proxy.ErrQueryFailed, Message: pgErr.Message}
	}
	if pgconn.SafeToRetry(err) || errors.Is(err, context.Canceled) {
		return &proxy.Error{Kind: proxy.ErrConnectionFailed, Message: err.Error()}
	}
	return &proxy.Error{Kind: proxy.ErrOther, Message: err.Error()}
}

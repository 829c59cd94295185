package host

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	proxy "github.com/tomyedwab/hostsql/sqlproxy/sqlite"
)

// SQLiteConfig holds configuration options for the SQLiteHost.
type SQLiteConfig struct {
	// Databases maps labels to database file paths.
	Databases map[string]string
	// AllowedLabels lists the labels the component may open. Optional,
	// defaults to every configured label.
	AllowedLabels []string
	Logger        *slog.Logger // Optional, defaults to slog.Default()
}

// SQLiteHost serves the embedded database interface. Every opened
// connection pins one connection from the label's pool so that
// connection-scoped state such as last_insert_rowid() stays consistent.
type SQLiteHost struct {
	paths   map[string]string
	allowed []string
	logger  *slog.Logger

	mu    sync.Mutex
	dbs   map[string]*sqlx.DB
	conns map[string]*sqlx.Conn
}

// NewSQLiteHost creates a new SQLiteHost. Databases are opened on first use.
func NewSQLiteHost(config SQLiteConfig) *SQLiteHost {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteHost{
		paths:   config.Databases,
		allowed: config.AllowedLabels,
		logger:  logger,
		dbs:     make(map[string]*sqlx.DB),
		conns:   make(map[string]*sqlx.Conn),
	}
}

// HandleRequest processes a raw request payload and returns a raw response
// payload. Operational failures are reported inside the response; the
// returned error is only set when the response itself cannot be produced.
func (h *SQLiteHost) HandleRequest(ctx context.Context, requestPayload []byte) ([]byte, error) {
	var req proxy.Request
	if err := json.Unmarshal(requestPayload, &req); err != nil {
		return marshalSQLiteError(&proxy.Error{Kind: proxy.ErrIo, Message: fmt.Sprintf("failed to unmarshal request: %v", err)})
	}

	var resp proxy.Response
	var opErr *proxy.Error

	switch req.Command {
	case proxy.CommandOpen:
		resp.Conn, opErr = h.handleOpen(ctx, req.Label)
	case proxy.CommandExecute:
		resp.Result, opErr = h.handleExecute(ctx, &req)
	case proxy.CommandClose:
		opErr = h.handleClose(req.Conn)
	default:
		opErr = &proxy.Error{Kind: proxy.ErrIo, Message: fmt.Sprintf("unknown command: %s", req.Command)}
	}

	if opErr != nil {
		h.logger.Debug("SQLite request failed", "command", req.Command, "kind", opErr.Kind, "error", opErr.Message)
		return marshalSQLiteError(opErr)
	}
	return json.Marshal(resp)
}

func marshalSQLiteError(e *proxy.Error) ([]byte, error) {
	payload, err := json.Marshal(proxy.Response{Error: e})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal error response for '%s': %w", e.Message, err)
	}
	return payload, nil
}

func (h *SQLiteHost) handleOpen(ctx context.Context, label string) (string, *proxy.Error) {
	path, ok := h.paths[label]
	if !ok {
		return "", &proxy.Error{Kind: proxy.ErrNoSuchDatabase}
	}
	if h.allowed != nil && !slices.Contains(h.allowed, label) {
		return "", &proxy.Error{Kind: proxy.ErrAccessDenied}
	}

	h.mu.Lock()
	db, ok := h.dbs[label]
	if !ok {
		var err error
		db, err = sqlx.Open("sqlite3", path)
		if err != nil {
			h.mu.Unlock()
			return "", &proxy.Error{Kind: proxy.ErrIo, Message: fmt.Sprintf("open failed: %v", err)}
		}
		h.dbs[label] = db
	}
	h.mu.Unlock()

	conn, err := db.Connx(ctx)
	if err != nil {
		return "", sqliteError(err)
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.conns[id] = conn
	h.mu.Unlock()

	h.logger.Debug("Opened SQLite connection", "label", label, "conn", id)
	return id, nil
}

func (h *SQLiteHost) handleExecute(ctx context.Context, req *proxy.Request) (*proxy.QueryResult, *proxy.Error) {
	h.mu.Lock()
	conn, ok := h.conns[req.Conn]
	h.mu.Unlock()
	if !ok {
		return nil, &proxy.Error{Kind: proxy.ErrInvalidConnection}
	}

	args := make([]driver.NamedValue, len(req.Args))
	for i, v := range req.Args {
		args[i] = driver.NamedValue{Ordinal: i + 1, Value: argValue(v)}
	}

	result, err := queryStored(ctx, conn, req.SQL, args)
	if err != nil {
		return nil, sqliteError(err)
	}

	if len(result.Columns) > 0 {
		result.RowsAffected = int64(len(result.Rows))
		return result, nil
	}

	// Statements without a result set report what they changed.
	err = conn.QueryRowxContext(ctx, "SELECT changes(), last_insert_rowid()").Scan(&result.RowsAffected, &result.LastInsertID)
	if err != nil {
		return nil, sqliteError(err)
	}
	return result, nil
}

// queryStored runs query on the driver connection underneath conn and
// returns every cell with the storage class SQLite holds for it. Going
// through database/sql would let go-sqlite3 rewrite cells by declared column
// type (BOOLEAN to bool, DATE, DATETIME and TIMESTAMP to time.Time).
func queryStored(ctx context.Context, conn *sqlx.Conn, query string, args []driver.NamedValue) (*proxy.QueryResult, error) {
	result := &proxy.QueryResult{Rows: []proxy.RowResult{}}
	err := conn.Raw(func(driverConn any) error {
		queryer, ok := driverConn.(driver.QueryerContext)
		if !ok {
			return fmt.Errorf("driver connection %T cannot run queries", driverConn)
		}
		rows, err := queryer.QueryContext(ctx, query, args)
		if err != nil {
			return err
		}
		defer rows.Close()

		// go-sqlite3 converts by the declared types it hands out here.
		if sqliteRows, ok := rows.(*sqlite3.SQLiteRows); ok {
			clear(sqliteRows.DeclTypes())
		}

		result.Columns = rows.Columns()
		dest := make([]driver.Value, len(result.Columns))
		for {
			if err := rows.Next(dest); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
			values := make(proxy.Values, len(dest))
			for i, v := range dest {
				values[i] = resultValue(v)
			}
			result.Rows = append(result.Rows, proxy.RowResult{Values: values})
		}
	})
	return result, err
}

func (h *SQLiteHost) handleClose(id string) *proxy.Error {
	h.mu.Lock()
	conn, ok := h.conns[id]
	delete(h.conns, id)
	h.mu.Unlock()

	if !ok {
		return &proxy.Error{Kind: proxy.ErrInvalidConnection}
	}
	if err := conn.Close(); err != nil {
		return sqliteError(err)
	}
	return nil
}

// Close releases every open connection and database.
func (h *SQLiteHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for id, conn := range h.conns {
		errs = append(errs, conn.Close())
		delete(h.conns, id)
	}
	for label, db := range h.dbs {
		errs = append(errs, db.Close())
		delete(h.dbs, label)
	}
	return errors.Join(errs...)
}

func argValue(v proxy.Value) any {
	switch x := v.(type) {
	case proxy.Integer:
		return int64(x)
	case proxy.Real:
		return float64(x)
	case proxy.Text:
		return string(x)
	case proxy.Blob:
		return []byte(x)
	}
	return nil
}

func resultValue(v any) proxy.Value {
	switch x := v.(type) {
	case nil:
		return proxy.Null{}
	case int64:
		return proxy.Integer(x)
	case float64:
		return proxy.Real(x)
	case string:
		return proxy.Text(x)
	case []byte:
		return proxy.Blob(x)
	}
	return proxy.Text(fmt.Sprint(v))
}

func sqliteError(err error) *proxy.Error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrFull:
			return &proxy.Error{Kind: proxy.ErrDatabaseFull}
		case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
			return &proxy.Error{Kind: proxy.ErrAccessDenied}
		}
	}
	return &proxy.Error{Kind: proxy.ErrIo, Message: err.Error()}
}

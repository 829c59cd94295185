package host

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomyedwab/hostsql/wasi/types"
)

func TestSplitAllocResult(t *testing.T) {
	handle, ptr := splitAllocResult(uint64(7)<<32 | 0x1000)
	if handle != 7 || ptr != 0x1000 {
		t.Errorf("Expected handle 7 at 0x1000, got %d at %#x", handle, ptr)
	}
}

func TestRequestParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/fetch-one?backend=sqlite&name=Max", strings.NewReader(`{"age":3}`))
	payload, err := requestParams(req)
	if err != nil {
		t.Fatalf("requestParams returned error: %v", err)
	}
	var params types.RequestParams
	if err := json.Unmarshal(payload, &params); err != nil {
		t.Fatalf("Failed to unmarshal params: %v", err)
	}
	if params.Method != http.MethodPost || params.Path != "/fetch-one" || params.Body != `{"age":3}` {
		t.Errorf("Unexpected params: %+v", params)
	}
	if params.Query().Get("name") != "Max" {
		t.Errorf("Expected name=Max, got %q", params.Query().Get("name"))
	}
}

func TestRequestParamsBodyLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", maxRequestBody+1)))
	if _, err := requestParams(req); err == nil {
		t.Error("Expected oversized body to be rejected")
	}
}

func TestResponseRecorderFlush(t *testing.T) {
	rec := &responseRecorder{}
	payload, _ := json.Marshal(types.Response{
		Body:    "created",
		Status:  http.StatusCreated,
		Headers: map[string]string{"Content-Type": "text/plain"},
	})
	rec.record(payload)

	w := httptest.NewRecorder()
	rec.flush(w, slog.Default())
	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
	if w.Body.String() != "created" {
		t.Errorf("Expected body 'created', got %q", w.Body.String())
	}
	if w.Header().Get("Content-Type") != "text/plain" {
		t.Errorf("Unexpected Content-Type %q", w.Header().Get("Content-Type"))
	}
}

func TestResponseRecorderMissingOrInvalid(t *testing.T) {
	w := httptest.NewRecorder()
	(&responseRecorder{}).flush(w, slog.Default())
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 without a response, got %d", w.Code)
	}

	rec := &responseRecorder{}
	rec.record([]byte("not json"))
	w = httptest.NewRecorder()
	rec.flush(w, slog.Default())
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 for invalid response, got %d", w.Code)
	}
}

func TestResponseRecorderDefaultStatus(t *testing.T) {
	rec := &responseRecorder{}
	rec.record([]byte(`{"Body":"ok"}`))
	w := httptest.NewRecorder()
	rec.flush(w, slog.Default())
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Errorf("Expected 200 ok, got %d %q", w.Code, w.Body.String())
	}
}

func TestRuntimeRejectsInvalidComponent(t *testing.T) {
	ctx := context.Background()
	r, err := New(ctx, Config{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer r.Close(ctx)

	if err := r.Load(ctx, []byte("not a wasm module")); err == nil {
		t.Error("Expected Load to fail")
	}
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fetch-one", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 with no registered handlers, got %d", w.Code)
	}
}

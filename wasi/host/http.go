package host

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/tomyedwab/hostsql/wasi/types"
)

// maxRequestBody bounds the body copied into guest memory.
const maxRequestBody = 1 << 20

func requestParams(req *http.Request) ([]byte, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(req.Body, maxRequestBody+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		if len(body) > maxRequestBody {
			return nil, fmt.Errorf("request body exceeds %d bytes", maxRequestBody)
		}
	}
	return json.Marshal(types.RequestParams{
		Method:   req.Method,
		Path:     req.URL.Path,
		RawQuery: req.URL.RawQuery,
		Body:     string(body),
	})
}

// responseRecorder keeps the last response the guest wrote during a request.
type responseRecorder struct {
	payload []byte
	written bool
}

func (rec *responseRecorder) record(payload []byte) {
	rec.payload = append(rec.payload[:0], payload...)
	rec.written = true
}

func (rec *responseRecorder) flush(w http.ResponseWriter, logger *slog.Logger) {
	if !rec.written {
		logger.Error("Component did not write a response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	var resp types.Response
	if err := json.Unmarshal(rec.payload, &resp); err != nil {
		logger.Error("Failed to decode component response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	w.WriteHeader(resp.Status)
	io.WriteString(w, resp.Body)
}

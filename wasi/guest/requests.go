//go:build wasip1

package guest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tomyedwab/hostsql/wasi/types"
)

func RespondSuccess(body string) types.Response {
	return types.Response{
		Body:    body,
		Status:  http.StatusOK,
		Headers: make(map[string]string),
	}
}

func RespondError(status int, err error) types.Response {
	return types.Response{
		Body:    err.Error(),
		Status:  status,
		Headers: make(map[string]string),
	}
}

// CreateResponse marshals ret as a JSON response, or reports err prefixed by
// message as an internal server error.
func CreateResponse(ret any, err error, message string) types.Response {
	if err != nil {
		return RespondError(http.StatusInternalServerError, fmt.Errorf("%s: %v", message, err))
	}
	responseJson, err := json.Marshal(ret)
	if err != nil {
		return RespondError(http.StatusInternalServerError, fmt.Errorf("Error marshaling JSON: %v", err))
	}
	return types.Response{
		Body:    string(responseJson),
		Status:  http.StatusOK,
		Headers: map[string]string{"Content-Type": "application/json"},
	}
}

type RequestHandler func(params types.RequestParams) types.Response

var requestHandlers = make(map[uint32]RequestHandler)
var nextHandlerId uint32 = 1

//go:wasmimport env register_handler
func register_handler(uri string, handlerId uint32)

//go:wasmimport env write_response
func write_response(message string)

//go:wasmexport handle_request
func handleRequest(paramsHandle, paramsSize, handlerId uint32) int32 {
	handler := requestHandlers[handlerId]
	if handler == nil {
		writeResponse(RespondError(http.StatusInternalServerError, fmt.Errorf("missing handler %d", handlerId)))
		return -1
	}

	var params types.RequestParams
	if err := json.Unmarshal(takeBytes(paramsHandle, paramsSize), &params); err != nil {
		writeResponse(RespondError(http.StatusBadRequest, err))
		return 0
	}
	writeResponse(handler(params))
	return 0
}

func writeResponse(resp types.Response) {
	respJson, _ := json.Marshal(resp)
	write_response(string(respJson))
}

// RegisterHandler routes requests for uri to handler.
func RegisterHandler(uri string, handler RequestHandler) {
	register_handler(uri, nextHandlerId)
	requestHandlers[nextHandlerId] = handler
	nextHandlerId++
}

// Package command implements the local control plane: JSON-RPC 2.0 over a
// Unix domain socket, one request per line.
package command

import (
	"encoding/json"
	"errors"
	"fmt"

	"netlens.dev/netlens/internal/core"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo is the JSON-RPC error member.
type ErrorInfo struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Application error codes, in the JSON-RPC server-defined range. -32001 is
// retired; stop on an idle daemon reports the state instead of failing.
const (
	ErrCodeAlreadyRunning    = -32000
	ErrCodeSessionBusy       = -32002
	ErrCodeInterfaceNotFound = -32003
	ErrCodeUnknownFormat     = -32004
)

// errorInfoFor maps domain errors onto application codes so clients can
// branch without string matching.
func errorInfoFor(err error) *ErrorInfo {
	code := ErrCodeInternalError
	switch {
	case errors.Is(err, core.ErrAlreadyRunning):
		code = ErrCodeAlreadyRunning
	case errors.Is(err, core.ErrSessionBusy):
		code = ErrCodeSessionBusy
	case errors.Is(err, core.ErrInterfaceUnavailable):
		code = ErrCodeInterfaceNotFound
	case errors.Is(err, core.ErrUnknownFormat):
		code = ErrCodeUnknownFormat
	}
	return &ErrorInfo{Code: code, Message: err.Error()}
}

func (e *ErrorInfo) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every failure surfaced by an operation wraps exactly one of these.
var (
	ErrUnknownOperation    = errors.New("unknown operation")
	ErrInvalidParameters   = errors.New("invalid parameters")
	ErrDeviceCommandFailed = errors.New("device command failed")
	ErrBackendUnavailable  = errors.New("vision backend unavailable")
	ErrBackendError        = errors.New("vision backend error")
)

// ErrRateLimited is returned by the gateway when a remote sender exceeds its
// request budget. It never reaches the registry.
var ErrRateLimited = errors.New("请求过于频繁，请稍后再试")

// ToolError is the typed failure carried from operations and collaborators up to
// the registry boundary, where it becomes an error Result.
type ToolError struct {
	Kind    error  // one of the Err* kinds above
	Message string // user-facing text, printed by the shell as-is
	Cause   error
}

func (e *ToolError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ToolError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// UnknownOperation reports an invoke with an unregistered name.
func UnknownOperation(name string) *ToolError {
	return &ToolError{Kind: ErrUnknownOperation, Message: "工具不存在: " + name}
}

// InvalidParameters reports a missing or mistyped parameter.
func InvalidParameters(format string, args ...any) *ToolError {
	return &ToolError{Kind: ErrInvalidParameters, Message: fmt.Sprintf(format, args...)}
}

// BackendUnavailable reports a vision backend without credentials.
func BackendUnavailable(message string) *ToolError {
	return &ToolError{Kind: ErrBackendUnavailable, Message: message}
}

// BackendFailed wraps a transport or remote failure of the vision backend.
func BackendFailed(message string, cause error) *ToolError {
	return &ToolError{Kind: ErrBackendError, Message: message, Cause: cause}
}

// CommandError 描述一條失敗的設備控制命令
type CommandError struct {
	Command  string
	ExitCode int // -1 when the process never started or was killed
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("ADB命令执行失败，退出码: %d, 命令: %s", e.ExitCode, e.Command)
	if e.Output != "" {
		msg += ", 输出: " + e.Output
	}
	return msg
}

func (e *CommandError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDeviceCommandFailed, e.Err}
	}
	return []error{ErrDeviceCommandFailed}
}

// KindOf returns the matching error kind, or nil when err carries none.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrUnknownOperation,
		ErrInvalidParameters,
		ErrDeviceCommandFailed,
		ErrBackendUnavailable,
		ErrBackendError,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// HTTPStatus maps an error kind to the status code used by HTTP transports.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrRateLimited) {
		return http.StatusTooManyRequests
	}
	switch KindOf(err) {
	case ErrUnknownOperation:
		return http.StatusNotFound
	case ErrInvalidParameters:
		return http.StatusBadRequest
	case ErrBackendUnavailable:
		return http.StatusServiceUnavailable
	case ErrDeviceCommandFailed, ErrBackendError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

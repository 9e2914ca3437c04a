package agent

import "fmt"

// scriptFailure is returned when a wrapped script resolved with an
// {error, message, stacktrace} payload rather than a return value — i.e.
// the user or synthesized script threw inside the web view.
type scriptFailure struct {
	name    string
	message string
}

func (e *scriptFailure) Error() string {
	return fmt.Sprintf("javascript error: %s: %s", e.name, e.message)
}

// httpError carries the status code an endpoint wants reflected in the
// Agent's private HTTP response, mirroring the teacher's own
// status-code-carrying error type in internal/mcp/server.go.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func notFound(format string, args ...any) error {
	return &httpError{status: 404, msg: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...any) error {
	return &httpError{status: 400, msg: fmt.Sprintf(format, args...)}
}

func internal(format string, args ...any) error {
	return &httpError{status: 500, msg: fmt.Sprintf(format, args...)}
}

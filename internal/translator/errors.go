package translator

import (
	"encoding/json"
	"net/http"
)

// W3CError is the typed error the Translator's HTTP layer emits, carrying
// both the response status and the W3C error kind (§7).
type W3CError struct {
	Status  int
	Kind    string
	Message string
}

func (e *W3CError) Error() string { return e.Kind + ": " + e.Message }

func newW3CError(status int, kind, message string) *W3CError {
	return &W3CError{Status: status, Kind: kind, Message: message}
}

func errNoSession() *W3CError {
	return newW3CError(http.StatusNotFound, "invalid session id", "no active session")
}

func errNoElement(id string) *W3CError {
	return newW3CError(http.StatusNotFound, "no such element", "element "+id+" not found")
}

func errNoShadowRoot(message string) *W3CError {
	return newW3CError(http.StatusNotFound, "no such shadow root", message)
}

func errNoWindow(message string) *W3CError {
	return newW3CError(http.StatusNotFound, "no such window", message)
}

func errNoCookie(name string) *W3CError {
	return newW3CError(http.StatusNotFound, "no such cookie", "cookie '"+name+"' not found")
}

func errNoAlert(message string) *W3CError {
	return newW3CError(http.StatusNotFound, "no such alert", message)
}

func errBadRequest(message string) *W3CError {
	return newW3CError(http.StatusBadRequest, "invalid argument", message)
}

func errSessionNotCreated(message string) *W3CError {
	return newW3CError(http.StatusInternalServerError, "session not created", message)
}

func errJavaScript(message string) *W3CError {
	return newW3CError(http.StatusInternalServerError, "javascript error", message)
}

func errUnknown(message string) *W3CError {
	return newW3CError(http.StatusInternalServerError, "unknown error", message)
}

// writeW3CValue writes a successful {"value": ...} envelope.
func writeW3CValue(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	body, err := json.Marshal(map[string]any{"value": value})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"value":{"error":"unknown error","message":"failed to encode response","stacktrace":""}}`))
		return
	}
	w.WriteHeader(status)
	w.Write(body)
}

// writeW3CError writes the standard error envelope (§4.3's "W3C response envelope").
func writeW3CError(w http.ResponseWriter, err error) {
	wErr, ok := err.(*W3CError)
	if !ok {
		wErr = errUnknown(err.Error())
	}
	writeW3CValue(w, wErr.Status, map[string]string{
		"error":      wErr.Kind,
		"message":    wErr.Message,
		"stacktrace": "",
	})
}

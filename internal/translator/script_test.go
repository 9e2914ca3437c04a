package translator

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestScriptExecuteErrorDistinguishesTimeout(t *testing.T) {
	timeoutErr := scriptExecuteError(errUnknown("script timed out"))
	if timeoutErr.Kind != "unknown error" {
		t.Errorf("expected a rendezvous timeout to map to unknown error, got %q", timeoutErr.Kind)
	}

	jsErr := scriptExecuteError(errUnknown("ReferenceError: foo is not defined"))
	if jsErr.Kind != "javascript error" {
		t.Errorf("expected a non-timeout agent error to map to javascript error, got %q", jsErr.Kind)
	}
}

func TestHandleExecuteSyncTimeoutMapsToUnknownError(t *testing.T) {
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"script timed out"}`))
	}))
	defer agent.Close()
	srv, sess := newTestTranslator(t, agent.URL)
	sess.HTTPClient = agent.Client()

	rec := doReq(t, srv.Routes(), "POST", "/session/sess-1/execute/sync", map[string]any{
		"script": "return 1", "args": []any{},
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Error string `json:"error"`
	}
	decodeValue(t, rec, &body)
	if body.Error != "unknown error" {
		t.Errorf("expected error kind 'unknown error', got %q", body.Error)
	}
}

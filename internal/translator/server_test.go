package translator

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"webdriver-bridge/internal/levellog"
)

func testLogger() *levellog.Logger {
	return levellog.New(log.New(io.Discard, "", 0), levellog.LevelError)
}

// fakeAgent builds an httptest server that answers Agent RPC paths with a
// fixed JSON response, for exercising Translator routes without spawning a
// real subprocess.
func fakeAgent(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"no handler for ` + r.URL.Path + `"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func newTestTranslator(t *testing.T, agentURL string) (*Server, *Session) {
	t.Helper()
	registry := NewRegistry(0)
	srv := NewServer(registry, 0, testLogger())

	sess := newSession("sess-1", agentURL, "/bin/fake-app", nil)
	registry.insert(sess)
	return srv, sess
}

func doReq(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeValue(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode envelope: %v, body=%s", err, rec.Body.String())
	}
	if dst == nil {
		return
	}
	if err := json.Unmarshal(envelope.Value, dst); err != nil {
		t.Fatalf("failed to decode value: %v, raw=%s", err, envelope.Value)
	}
}

func TestHandleStatusReportsReadiness(t *testing.T) {
	registry := NewRegistry(1)
	srv := NewServer(registry, 0, testLogger())

	rec := doReq(t, srv.Routes(), "GET", "/status", nil)
	var status struct {
		Ready bool `json:"ready"`
	}
	decodeValue(t, rec, &status)
	if !status.Ready {
		t.Error("expected an empty registry to report ready")
	}

	registry.insert(newSession("a", "http://127.0.0.1:1", "", nil))
	rec = doReq(t, srv.Routes(), "GET", "/status", nil)
	decodeValue(t, rec, &status)
	if status.Ready {
		t.Error("expected a registry at its one-session capacity to report not ready")
	}
}

func TestHandleDeleteSessionUnknown(t *testing.T) {
	registry := NewRegistry(0)
	srv := NewServer(registry, 0, testLogger())

	rec := doReq(t, srv.Routes(), "DELETE", "/session/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown session, got %d", rec.Code)
	}
}

func TestHandleGetSetTimeouts(t *testing.T) {
	agent := fakeAgent(t, nil)
	defer agent.Close()
	srv, sess := newTestTranslator(t, agent.URL)
	sess.HTTPClient = agent.Client()

	rec := doReq(t, srv.Routes(), "GET", "/session/sess-1/timeouts", nil)
	var got map[string]int64
	decodeValue(t, rec, &got)
	if got["script"] != 30000 {
		t.Errorf("expected default script timeout 30000, got %d", got["script"])
	}

	rec = doReq(t, srv.Routes(), "POST", "/session/sess-1/timeouts", map[string]int64{"implicit": 5000})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doReq(t, srv.Routes(), "GET", "/session/sess-1/timeouts", nil)
	decodeValue(t, rec, &got)
	if got["implicit"] != 5000 {
		t.Errorf("expected implicit timeout updated to 5000, got %d", got["implicit"])
	}
	if got["script"] != 30000 {
		t.Errorf("expected script timeout to remain 30000, got %d", got["script"])
	}
}

func TestHandleNavigateToForwardsURL(t *testing.T) {
	var capturedBody string
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		capturedBody = string(raw)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer agent.Close()
	srv, sess := newTestTranslator(t, agent.URL)
	sess.HTTPClient = agent.Client()

	rec := doReq(t, srv.Routes(), "POST", "/session/sess-1/url", map[string]string{"url": "https://example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if capturedBody != `{"url":"https://example.com"}` {
		t.Errorf("expected the Agent to receive the url field, got %s", capturedBody)
	}
}

func TestHandleFindElementNotFoundImmediatelyWhenNoImplicitWait(t *testing.T) {
	agent := fakeAgent(t, map[string]string{
		"/element/find": `{"elements":[]}`,
	})
	defer agent.Close()
	srv, sess := newTestTranslator(t, agent.URL)
	sess.HTTPClient = agent.Client()

	rec := doReq(t, srv.Routes(), "POST", "/session/sess-1/element", map[string]string{
		"using": "css selector", "value": "#missing",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for no matching element, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleFindElementStoresAndReturnsRef(t *testing.T) {
	agent := fakeAgent(t, map[string]string{
		"/element/find": `{"elements":[{"selector":"#foo","index":0,"using":"css"}]}`,
	})
	defer agent.Close()
	srv, sess := newTestTranslator(t, agent.URL)
	sess.HTTPClient = agent.Client()

	rec := doReq(t, srv.Routes(), "POST", "/session/sess-1/element", map[string]string{
		"using": "css selector", "value": "#foo",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var ref map[string]string
	decodeValue(t, rec, &ref)
	if ref[elementKey] == "" {
		t.Errorf("expected a populated element reference, got %v", ref)
	}
}

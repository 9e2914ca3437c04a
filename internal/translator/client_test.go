package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testSession(t *testing.T, ts *httptest.Server) *Session {
	t.Helper()
	s := newSession("sid", ts.URL, "", nil)
	s.HTTPClient = ts.Client()
	return s
}

func TestAgentPostDecodesObject(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url":"https://example.com"}`))
	}))
	defer ts.Close()

	fields, err := agentPost(context.Background(), testSession(t, ts), "/navigate/current", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var url string
	if err := agentField(fields, "url", &url); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if url != "https://example.com" {
		t.Errorf("expected url 'https://example.com', got %q", url)
	}
}

func TestAgentPostSurfacesErrorField(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no such window"}`))
	}))
	defer ts.Close()

	_, err := agentPost(context.Background(), testSession(t, ts), "/window/handle", nil)
	if err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}
	if err.Error() != "unknown error: no such window" {
		t.Errorf("expected the agent's error field to be surfaced, got %q", err.Error())
	}
}

func TestAgentPostValueDecodesBareString(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`"main"`))
	}))
	defer ts.Close()

	var handle string
	if err := agentPostValue(context.Background(), testSession(t, ts), "/window/handle", nil, &handle); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handle != "main" {
		t.Errorf("expected handle \"main\", got %q", handle)
	}
}

func TestAgentPostValueDecodesBareArray(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["main","second"]`))
	}))
	defer ts.Close()

	var handles []string
	if err := agentPostValue(context.Background(), testSession(t, ts), "/window/handles", nil, &handles); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(handles) != 2 {
		t.Fatalf("expected 2 handles, got %d", len(handles))
	}
}

func TestAgentPostValueDiscardsNilDst(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`true`))
	}))
	defer ts.Close()

	if err := agentPostValue(context.Background(), testSession(t, ts), "/actions/release", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAgentPostValueSurfacesErrorOnFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid frame id"}`))
	}))
	defer ts.Close()

	var discard bool
	err := agentPostValue(context.Background(), testSession(t, ts), "/frame/switch", nil, &discard)
	if err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}
	if err.Error() != "unknown error: invalid frame id" {
		t.Errorf("expected the agent's error field to be surfaced, got %q", err.Error())
	}
}

func TestRawOrDefault(t *testing.T) {
	fields := map[string]json.RawMessage{"value": json.RawMessage(`42`)}

	if got := rawOrDefault(fields, "value", json.RawMessage("null")); string(got) != "42" {
		t.Errorf("expected \"42\", got %q", got)
	}
	if got := rawOrDefault(fields, "missing", json.RawMessage("null")); string(got) != "null" {
		t.Errorf("expected default \"null\", got %q", got)
	}
}

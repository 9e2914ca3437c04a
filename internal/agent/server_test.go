package agent

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"testing"

	"webdriver-bridge/internal/fakehost"
	"webdriver-bridge/internal/levellog"
)

func newTestServer(t *testing.T) (*Server, *fakehost.Host) {
	t.Helper()
	host := fakehost.NewHost(nil)
	host.AddWindow(fakehost.NewWindow("main", nil))
	logger := levellog.New(log.New(io.Discard, "", 0), levellog.LevelError)
	return NewServer(host, logger), host
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) (int, []byte) {
	t.Helper()
	encoded, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	resp, err := ts.Client().Post(ts.URL+path, "application/json", bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp.StatusCode, raw
}

func TestHandleWindowHandle(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	status, raw := postJSON(t, ts, "/window/handle", nil)
	if status != 200 {
		t.Fatalf("expected status 200, got %d: %s", status, raw)
	}
	var handle string
	if err := json.Unmarshal(raw, &handle); err != nil {
		t.Fatalf("failed to decode bare string response: %v", err)
	}
	if handle != "main" {
		t.Errorf("expected handle \"main\", got %q", handle)
	}
}

func TestHandleWindowHandles(t *testing.T) {
	s, host := newTestServer(t)
	host.AddWindow(fakehost.NewWindow("second", nil))
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	status, raw := postJSON(t, ts, "/window/handles", nil)
	if status != 200 {
		t.Fatalf("expected status 200, got %d: %s", status, raw)
	}
	var handles []string
	if err := json.Unmarshal(raw, &handles); err != nil {
		t.Fatalf("failed to decode bare array response: %v", err)
	}
	if len(handles) != 2 {
		t.Errorf("expected 2 handles, got %d (%v)", len(handles), handles)
	}
}

func TestHandleWindowSetCurrentUnknownLabel(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	status, _ := postJSON(t, ts, "/window/set-current", map[string]string{"label": "nope"})
	if status == 200 {
		t.Error("expected switching to an unknown window to fail")
	}
}

func TestHandleWindowSetCurrentResetsFrameStack(t *testing.T) {
	s, host := newTestServer(t)
	host.AddWindow(fakehost.NewWindow("second", nil))
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	s.pushFrame(frameRef{})
	status, _ := postJSON(t, ts, "/window/set-current", map[string]string{"label": "second"})
	if status != 200 {
		t.Fatalf("expected status 200, got %d", status)
	}
	s.mu.RLock()
	n := len(s.frameStack)
	label := s.currentWindowLabel
	s.mu.RUnlock()
	if n != 0 {
		t.Errorf("expected frame stack to be reset on window switch, got length %d", n)
	}
	if label != "second" {
		t.Errorf("expected current window label \"second\", got %q", label)
	}
}

func TestHandleWindowCloseUnknownLabel(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	status, _ := postJSON(t, ts, "/window/close", map[string]string{"label": "nope"})
	if status == 200 {
		t.Error("expected closing an unknown window to fail")
	}
}

func TestHandleWindowNewCreatesDistinctWindows(t *testing.T) {
	s, host := newTestServer(t)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	status, raw := postJSON(t, ts, "/window/new", nil)
	if status != 200 {
		t.Fatalf("expected status 200, got %d: %s", status, raw)
	}
	var result struct {
		Handle string `json:"handle"`
		Type   string `json:"type"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Type != "window" {
		t.Errorf("expected type \"window\", got %q", result.Type)
	}
	if result.Handle == "" || result.Handle == "main" {
		t.Errorf("expected a freshly generated handle, got %q", result.Handle)
	}
	if len(host.WebviewWindows()) != 2 {
		t.Errorf("expected 2 windows after creating one, got %d", len(host.WebviewWindows()))
	}
}

func TestHandleWindowRectUsesScaleFactor(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	status, raw := postJSON(t, ts, "/window/rect", nil)
	if status != 200 {
		t.Fatalf("expected status 200, got %d: %s", status, raw)
	}
	var rect map[string]float64
	if err := json.Unmarshal(raw, &rect); err != nil {
		t.Fatalf("failed to decode rect: %v", err)
	}
	if rect["width"] != 800 || rect["height"] != 600 {
		t.Errorf("expected default fake window size 800x600, got %v", rect)
	}
}

func TestHandleFrameSwitchAndParent(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	status, raw := postJSON(t, ts, "/frame/switch", map[string]any{"id": 0})
	if status != 200 {
		t.Fatalf("expected status 200, got %d: %s", status, raw)
	}
	s.mu.RLock()
	n := len(s.frameStack)
	s.mu.RUnlock()
	if n != 1 {
		t.Errorf("expected one frame pushed, got %d", n)
	}

	status, raw = postJSON(t, ts, "/frame/parent", nil)
	if status != 200 {
		t.Fatalf("expected status 200, got %d: %s", status, raw)
	}
	s.mu.RLock()
	n = len(s.frameStack)
	s.mu.RUnlock()
	if n != 0 {
		t.Errorf("expected frame stack to be popped back to empty, got %d", n)
	}
}

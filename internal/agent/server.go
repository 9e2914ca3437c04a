// Package agent implements the Automation Agent: the per-application HTTP
// server embedded in the process under test. It exposes a private RPC
// vocabulary that the Translator Server drives, and implements every
// automation primitive by composing a synthesized script against Bridge
// helpers (internal/bridge) and, where chrome operations are required,
// the host capability interface (Host/Window).
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"webdriver-bridge/internal/levellog"
)

// Server is the Agent's HTTP server and per-agent state: the current
// window label, the frame stack, and the script-result rendezvous table.
type Server struct {
	mu                 sync.RWMutex
	currentWindowLabel string
	frameStack         []frameRef
	host               Host
	rendezvous         *rendezvous
	logger             *levellog.Logger
}

// NewServer builds an Agent bound to host. logger is stored as given; a
// nil logger turns off the Agent's own log lines. A non-nil logger should
// write to stderr or a file, never stdout (stdout is reserved for the
// port-announcement line).
func NewServer(host Host, logger *levellog.Logger) *Server {
	return &Server{
		host:       host,
		rendezvous: newRendezvous(),
		logger:     logger,
	}
}

// resolveWindow implements the default-window resolution rule: the
// current label if set, else "main" if present, else the window whose
// label sorts first. Go map iteration order is randomized, so the labels
// are sorted to make the fallback the same on every call.
func (s *Server) resolveWindow() (Window, error) {
	s.mu.RLock()
	label := s.currentWindowLabel
	s.mu.RUnlock()

	windows := s.host.WebviewWindows()
	if label != "" {
		if w, ok := windows[label]; ok {
			return w, nil
		}
		return nil, notFound("no such window")
	}
	if w, ok := windows["main"]; ok {
		return w, nil
	}
	if len(windows) == 0 {
		return nil, notFound("no such window")
	}
	labels := make([]string, 0, len(windows))
	for l := range windows {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return windows[labels[0]], nil
}

func (s *Server) setCurrentWindow(label string) {
	s.mu.Lock()
	s.currentWindowLabel = label
	s.frameStack = nil
	s.mu.Unlock()
}

func (s *Server) clearFrameStack() {
	s.mu.Lock()
	s.frameStack = nil
	s.mu.Unlock()
}

func (s *Server) pushFrame(fr frameRef) {
	s.mu.Lock()
	s.frameStack = append(s.frameStack, fr)
	s.mu.Unlock()
}

func (s *Server) popFrame() {
	s.mu.Lock()
	if n := len(s.frameStack); n > 0 {
		s.frameStack = s.frameStack[:n-1]
	}
	s.mu.Unlock()
}

// Listen binds an ephemeral local port, prints the stdout contract line
// (§6.5), and serves until ctx is cancelled.
func (s *Server) Listen(ctx context.Context) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	port := ln.Addr().(*net.TCPAddr).Port

	srv := &http.Server{Handler: s.routes()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	// The literal stdout contract line the Translator scans for. Must go
	// to stdout specifically — the Agent's logger is wired to stderr so
	// this line is never interleaved with log output.
	fmt.Fprintf(os.Stdout, "[webdriver] listening on port %d\n", port)
	if s.logger != nil {
		s.logger.Infof("agent listening on port %d", port)
	}

	select {
	case <-ctx.Done():
		if s.logger != nil {
			s.logger.Infof("agent shutting down")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && s.logger != nil {
			s.logger.Errorf("agent server exited: %v", err)
		}
		return err
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /window/handle", s.handleWindowHandle)
	mux.HandleFunc("POST /window/handles", s.handleWindowHandles)
	mux.HandleFunc("POST /window/close", s.handleWindowClose)
	mux.HandleFunc("POST /window/rect", s.handleWindowRect)
	mux.HandleFunc("POST /window/set-rect", s.handleWindowSetRect)
	mux.HandleFunc("POST /window/fullscreen", s.handleWindowFullscreen)
	mux.HandleFunc("POST /window/minimize", s.handleWindowMinimize)
	mux.HandleFunc("POST /window/maximize", s.handleWindowMaximize)
	mux.HandleFunc("POST /window/insets", s.handleWindowInsets)
	mux.HandleFunc("POST /window/set-current", s.handleWindowSetCurrent)
	mux.HandleFunc("POST /window/new", s.handleWindowNew)

	mux.HandleFunc("POST /element/find", s.handleElementFind)
	mux.HandleFunc("POST /element/find-from", s.handleElementFindFrom)
	mux.HandleFunc("POST /element/text", s.handleElementText)
	mux.HandleFunc("POST /element/attribute", s.handleElementAttribute)
	mux.HandleFunc("POST /element/property", s.handleElementProperty)
	mux.HandleFunc("POST /element/tag", s.handleElementTag)
	mux.HandleFunc("POST /element/rect", s.handleElementRect)
	mux.HandleFunc("POST /element/click", s.handleElementClick)
	mux.HandleFunc("POST /element/clear", s.handleElementClear)
	mux.HandleFunc("POST /element/send-keys", s.handleElementSendKeys)
	mux.HandleFunc("POST /element/set-files", s.handleElementSetFiles)
	mux.HandleFunc("POST /element/displayed", s.handleElementDisplayed)
	mux.HandleFunc("POST /element/enabled", s.handleElementEnabled)
	mux.HandleFunc("POST /element/selected", s.handleElementSelected)
	mux.HandleFunc("POST /element/active", s.handleElementActive)
	mux.HandleFunc("POST /element/shadow", s.handleElementShadow)
	mux.HandleFunc("POST /shadow/find", s.handleShadowFind)
	mux.HandleFunc("POST /element/computed-role", s.handleComputedRole)
	mux.HandleFunc("POST /element/computed-label", s.handleComputedLabel)

	mux.HandleFunc("POST /script/execute", s.handleScriptExecute)
	mux.HandleFunc("POST /script/execute-async", s.handleScriptExecuteAsync)

	mux.HandleFunc("POST /navigate/url", s.handleNavigateURL)
	mux.HandleFunc("POST /navigate/current", s.handleNavigateCurrent)
	mux.HandleFunc("POST /navigate/title", s.handleNavigateTitle)
	mux.HandleFunc("POST /navigate/back", s.handleNavigateBack)
	mux.HandleFunc("POST /navigate/forward", s.handleNavigateForward)
	mux.HandleFunc("POST /navigate/refresh", s.handleNavigateRefresh)

	mux.HandleFunc("POST /screenshot", s.handleScreenshot)
	mux.HandleFunc("POST /screenshot/element", s.handleScreenshotElement)
	mux.HandleFunc("POST /print", s.handlePrint)
	mux.HandleFunc("POST /source", s.handleSource)

	mux.HandleFunc("POST /cookie/get-all", s.handleCookieGetAll)
	mux.HandleFunc("POST /cookie/get", s.handleCookieGet)
	mux.HandleFunc("POST /cookie/add", s.handleCookieAdd)
	mux.HandleFunc("POST /cookie/delete", s.handleCookieDelete)
	mux.HandleFunc("POST /cookie/delete-all", s.handleCookieDeleteAll)

	mux.HandleFunc("POST /alert/text", s.handleAlertGetText)
	mux.HandleFunc("POST /alert/dismiss", s.handleAlertDismiss)
	mux.HandleFunc("POST /alert/accept", s.handleAlertAccept)
	mux.HandleFunc("POST /alert/send-text", s.handleAlertSendText)

	mux.HandleFunc("POST /actions/perform", s.handleActionsPerform)
	mux.HandleFunc("POST /actions/release", s.handleActionsRelease)

	mux.HandleFunc("POST /frame/switch", s.handleFrameSwitch)
	mux.HandleFunc("POST /frame/parent", s.handleFrameParent)

	return mux
}

// --- request/response plumbing ---

func readJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}
	w.WriteHeader(status)
	w.Write(b)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if he, ok := err.(*httpError); ok {
		status = he.status
	} else if _, ok := err.(*scriptFailure); ok {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// timeoutOf converts a millisecond field (0 meaning "use default") into a
// time.Duration. The Translator sets timeoutMs on script-execute and
// actions requests only; every other request leaves it 0 (§9A).
func timeoutOf(ms int64) time.Duration {
	if ms <= 0 {
		return defaultScriptTimeout
	}
	return time.Duration(ms) * time.Millisecond
}

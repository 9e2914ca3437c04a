// Package translator implements the Translator Server: the public-facing
// W3C WebDriver HTTP endpoint. It owns sessions, spawns and supervises the
// application under test, holds the element/shadow reference tables, and
// translates W3C requests into the Agent's private RPC vocabulary.
package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"webdriver-bridge/internal/levellog"
)

const (
	elementKey = "element-6066-11e4-a52e-4f735466cecf"
	shadowKey  = "shadow-6066-11e4-a52e-4f735466cecf"
)

// Server is the Translator's HTTP server.
type Server struct {
	registry            *Registry
	spawnTimeout        time.Duration
	defaultScriptTimeMs int64
	logger              *levellog.Logger
}

func NewServer(registry *Registry, spawnTimeout time.Duration, logger *levellog.Logger) *Server {
	return &Server{registry: registry, spawnTimeout: spawnTimeout, defaultScriptTimeMs: 30000, logger: logger}
}

// WithDefaultScriptTimeout overrides the script timeout seeded into every
// newly created session (config's session.default_script_timeout_ms).
func (s *Server) WithDefaultScriptTimeout(ms int64) *Server {
	s.defaultScriptTimeMs = ms
	return s
}

// Shutdown kills every session's application subprocess.
func (s *Server) Shutdown() {
	s.registry.Shutdown()
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /session", s.handleCreateSession)
	mux.HandleFunc("DELETE /session/{sid}", s.handleDeleteSession)

	mux.HandleFunc("GET /session/{sid}/timeouts", s.handleGetTimeouts)
	mux.HandleFunc("POST /session/{sid}/timeouts", s.handleSetTimeouts)

	mux.HandleFunc("POST /session/{sid}/url", s.handleNavigateTo)
	mux.HandleFunc("GET /session/{sid}/url", s.handleGetURL)
	mux.HandleFunc("GET /session/{sid}/title", s.handleGetTitle)
	mux.HandleFunc("GET /session/{sid}/source", s.handleGetPageSource)
	mux.HandleFunc("POST /session/{sid}/back", s.handleGoBack)
	mux.HandleFunc("POST /session/{sid}/forward", s.handleGoForward)
	mux.HandleFunc("POST /session/{sid}/refresh", s.handleRefresh)

	mux.HandleFunc("GET /session/{sid}/window", s.handleGetWindowHandle)
	mux.HandleFunc("POST /session/{sid}/window", s.handleSwitchToWindow)
	mux.HandleFunc("DELETE /session/{sid}/window", s.handleCloseWindow)
	mux.HandleFunc("GET /session/{sid}/window/handles", s.handleGetWindowHandles)
	mux.HandleFunc("GET /session/{sid}/window/rect", s.handleGetWindowRect)
	mux.HandleFunc("POST /session/{sid}/window/rect", s.handleSetWindowRect)
	mux.HandleFunc("POST /session/{sid}/window/maximize", s.handleMaximizeWindow)
	mux.HandleFunc("POST /session/{sid}/window/minimize", s.handleMinimizeWindow)
	mux.HandleFunc("POST /session/{sid}/window/fullscreen", s.handleFullscreenWindow)
	mux.HandleFunc("POST /session/{sid}/window/new", s.handleNewWindow)

	mux.HandleFunc("POST /session/{sid}/frame", s.handleSwitchToFrame)
	mux.HandleFunc("POST /session/{sid}/frame/parent", s.handleSwitchToParentFrame)

	mux.HandleFunc("POST /session/{sid}/element", s.handleFindElement)
	mux.HandleFunc("POST /session/{sid}/elements", s.handleFindElements)
	mux.HandleFunc("GET /session/{sid}/element/active", s.handleGetActiveElement)
	mux.HandleFunc("POST /session/{sid}/element/{eid}/element", s.handleFindElementFromElement)
	mux.HandleFunc("POST /session/{sid}/element/{eid}/elements", s.handleFindElementsFromElement)
	mux.HandleFunc("POST /session/{sid}/element/{eid}/click", s.handleClickElement)
	mux.HandleFunc("POST /session/{sid}/element/{eid}/clear", s.handleClearElement)
	mux.HandleFunc("POST /session/{sid}/element/{eid}/value", s.handleSendKeys)
	mux.HandleFunc("GET /session/{sid}/element/{eid}/text", s.handleGetElementText)
	mux.HandleFunc("GET /session/{sid}/element/{eid}/name", s.handleGetElementTag)
	mux.HandleFunc("GET /session/{sid}/element/{eid}/attribute/{name}", s.handleGetElementAttribute)
	mux.HandleFunc("GET /session/{sid}/element/{eid}/property/{name}", s.handleGetElementProperty)
	mux.HandleFunc("GET /session/{sid}/element/{eid}/css/{name}", s.handleGetElementCSS)
	mux.HandleFunc("GET /session/{sid}/element/{eid}/rect", s.handleGetElementRect)
	mux.HandleFunc("GET /session/{sid}/element/{eid}/enabled", s.handleIsElementEnabled)
	mux.HandleFunc("GET /session/{sid}/element/{eid}/selected", s.handleIsElementSelected)
	mux.HandleFunc("GET /session/{sid}/element/{eid}/displayed", s.handleIsElementDisplayed)
	mux.HandleFunc("GET /session/{sid}/element/{eid}/shadow", s.handleGetShadowRoot)
	mux.HandleFunc("POST /session/{sid}/shadow/{shadowId}/element", s.handleFindInShadow)
	mux.HandleFunc("POST /session/{sid}/shadow/{shadowId}/elements", s.handleFindAllInShadow)
	mux.HandleFunc("GET /session/{sid}/element/{eid}/computedrole", s.handleGetComputedRole)
	mux.HandleFunc("GET /session/{sid}/element/{eid}/computedlabel", s.handleGetComputedLabel)

	mux.HandleFunc("POST /session/{sid}/execute/sync", s.handleExecuteSync)
	mux.HandleFunc("POST /session/{sid}/execute/async", s.handleExecuteAsync)

	mux.HandleFunc("GET /session/{sid}/cookie", s.handleGetAllCookies)
	mux.HandleFunc("POST /session/{sid}/cookie", s.handleAddCookie)
	mux.HandleFunc("DELETE /session/{sid}/cookie", s.handleDeleteAllCookies)
	mux.HandleFunc("GET /session/{sid}/cookie/{name}", s.handleGetNamedCookie)
	mux.HandleFunc("DELETE /session/{sid}/cookie/{name}", s.handleDeleteCookie)

	mux.HandleFunc("POST /session/{sid}/alert/dismiss", s.handleDismissAlert)
	mux.HandleFunc("POST /session/{sid}/alert/accept", s.handleAcceptAlert)
	mux.HandleFunc("GET /session/{sid}/alert/text", s.handleGetAlertText)
	mux.HandleFunc("POST /session/{sid}/alert/text", s.handleSendAlertText)

	mux.HandleFunc("POST /session/{sid}/actions", s.handlePerformActions)
	mux.HandleFunc("DELETE /session/{sid}/actions", s.handleReleaseActions)

	mux.HandleFunc("GET /session/{sid}/screenshot", s.handleTakeScreenshot)
	mux.HandleFunc("GET /session/{sid}/element/{eid}/screenshot", s.handleElementScreenshot)
	mux.HandleFunc("POST /session/{sid}/print", s.handlePrintPage)

	return mux
}

// --- session plumbing ---

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count := s.registry.Count()
	ready := s.registry.maxSessions == 0 || count < s.registry.maxSessions
	message := "ready"
	switch {
	case count > 0 && ready:
		message = fmt.Sprintf("%d session(s) active, accepting more", count)
	case count > 0:
		message = fmt.Sprintf("%d session(s) active, at capacity", count)
	}
	writeW3CValue(w, http.StatusOK, map[string]any{"ready": ready, "message": message})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeW3CError(w, errBadRequest("invalid request body"))
		return
	}

	if s.registry.atCapacity() {
		writeW3CError(w, errSessionNotCreated("maximum number of sessions reached"))
		return
	}

	binary, ok := extractBinaryPath(body)
	if !ok {
		writeW3CError(w, errSessionNotCreated("missing tauri:options.binary (or application) in capabilities"))
		return
	}

	cmd, port, err := spawnApplication(context.Background(), binary, s.spawnTimeout)
	if err != nil {
		if s.logger != nil {
			s.logger.Errorf("failed to spawn %s: %v", binary, err)
		}
		writeW3CError(w, errSessionNotCreated(err.Error()))
		return
	}

	sessionID := uuid.NewString()
	agentURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	sess := newSession(sessionID, agentURL, binary, cmd)
	sess.Timeouts.Script = s.defaultScriptTimeMs
	s.registry.insert(sess)

	if s.logger != nil {
		s.logger.Infof("session %s created, agent at %s", sessionID, agentURL)
	}

	writeW3CValue(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"capabilities": map[string]any{
			"browserName":   "tauri",
			"platformName":  "desktop",
			"tauri:options": map[string]any{"binary": binary},
		},
	})
}

// extractBinaryPath follows the same 4-way fallback as the reference: prefer
// alwaysMatch, fall back to firstMatch[0]; accept "binary" or "application".
func extractBinaryPath(body map[string]json.RawMessage) (string, bool) {
	var caps struct {
		Capabilities struct {
			AlwaysMatch map[string]json.RawMessage   `json:"alwaysMatch"`
			FirstMatch  []map[string]json.RawMessage `json:"firstMatch"`
		} `json:"capabilities"`
	}
	if err := json.Unmarshal(mustRemarshal(body), &caps); err != nil {
		return "", false
	}

	if v, ok := tauriOption(caps.Capabilities.AlwaysMatch); ok {
		return v, true
	}
	if len(caps.Capabilities.FirstMatch) > 0 {
		if v, ok := tauriOption(caps.Capabilities.FirstMatch[0]); ok {
			return v, true
		}
	}
	return "", false
}

func tauriOption(m map[string]json.RawMessage) (string, bool) {
	raw, ok := m["tauri:options"]
	if !ok {
		return "", false
	}
	var opts struct {
		Binary      string `json:"binary"`
		Application string `json:"application"`
	}
	if err := json.Unmarshal(raw, &opts); err != nil {
		return "", false
	}
	if opts.Binary != "" {
		return opts.Binary, true
	}
	if opts.Application != "" {
		return opts.Application, true
	}
	return "", false
}

func mustRemarshal(body map[string]json.RawMessage) []byte {
	b, _ := json.Marshal(body)
	return b
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	sess, ok := s.registry.remove(sid)
	if !ok {
		writeW3CError(w, errNoSession())
		return
	}
	if sess.Process != nil && sess.Process.Process != nil {
		_ = sess.Process.Process.Kill()
	}
	if s.logger != nil {
		s.logger.Infof("session %s deleted", sid)
	}
	writeW3CValue(w, http.StatusOK, nil)
}

// session looks up the session or writes a "no session" error and reports
// the failure to the caller.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sid := r.PathValue("sid")
	sess, ok := s.registry.get(sid)
	if !ok {
		writeW3CError(w, errNoSession())
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetTimeouts(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	t := sess.getTimeouts()
	writeW3CValue(w, http.StatusOK, map[string]int64{
		"script": t.Script, "pageLoad": t.PageLoad, "implicit": t.Implicit,
	})
}

func (s *Server) handleSetTimeouts(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Script   *int64 `json:"script"`
		PageLoad *int64 `json:"pageLoad"`
		Implicit *int64 `json:"implicit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeW3CError(w, errBadRequest("invalid request body"))
		return
	}
	sess.setTimeouts(body.Script, body.PageLoad, body.Implicit)
	writeW3CValue(w, http.StatusOK, nil)
}

// decodeBody decodes the request body into a map for field-at-a-time
// extraction, writing a standard bad-request error on failure.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, bool) {
	var body map[string]json.RawMessage
	if r.Body == nil {
		return map[string]json.RawMessage{}, true
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeW3CError(w, errBadRequest("invalid request body"))
		return nil, false
	}
	if body == nil {
		body = map[string]json.RawMessage{}
	}
	return body, true
}

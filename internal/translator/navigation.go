package translator

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleNavigateTo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	url, hasURL := stringField(body, "url")
	if !hasURL {
		writeW3CError(w, errBadRequest("missing 'url'"))
		return
	}
	if _, err := agentPost(r.Context(), sess, "/navigate/url", map[string]string{"url": url}); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

func (s *Server) handleGetURL(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/navigate/current", nil)
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var url string
	_ = agentField(fields, "url", &url)
	writeW3CValue(w, http.StatusOK, url)
}

func (s *Server) handleGetTitle(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/navigate/title", nil)
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var title string
	_ = agentField(fields, "title", &title)
	writeW3CValue(w, http.StatusOK, title)
}

func (s *Server) handleGetPageSource(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/source", nil)
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var source string
	_ = agentField(fields, "source", &source)
	writeW3CValue(w, http.StatusOK, source)
}

func (s *Server) handleGoBack(w http.ResponseWriter, r *http.Request) {
	s.simpleNavAction(w, r, "/navigate/back")
}

func (s *Server) handleGoForward(w http.ResponseWriter, r *http.Request) {
	s.simpleNavAction(w, r, "/navigate/forward")
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.simpleNavAction(w, r, "/navigate/refresh")
}

func (s *Server) simpleNavAction(w http.ResponseWriter, r *http.Request, path string) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if _, err := agentPost(r.Context(), sess, path, nil); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

// --- window management ---

func (s *Server) handleGetWindowHandle(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var handle string
	if err := agentPostValue(r.Context(), sess, "/window/handle", nil, &handle); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, handle)
}

func (s *Server) handleGetWindowHandles(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var handles []string
	if err := agentPostValue(r.Context(), sess, "/window/handles", nil, &handles); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, handles)
}

func (s *Server) handleSwitchToWindow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	handle, hasHandle := stringField(body, "handle")
	if !hasHandle {
		writeW3CError(w, errBadRequest("missing 'handle'"))
		return
	}
	var result bool
	if err := agentPostValue(r.Context(), sess, "/window/set-current", map[string]string{"label": handle}, &result); err != nil {
		writeW3CError(w, errNoWindow(err.Error()))
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

func (s *Server) handleCloseWindow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var current string
	if err := agentPostValue(r.Context(), sess, "/window/handle", nil, &current); err == nil && current != "" {
		var closed bool
		// Tolerate the current window already being gone: the goal is an
		// up to date handle list, not a hard failure on a stale label.
		_ = agentPostValue(r.Context(), sess, "/window/close", map[string]string{"label": current}, &closed)
	}
	var handles []string
	if err := agentPostValue(r.Context(), sess, "/window/handles", nil, &handles); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, handles)
}

func (s *Server) handleGetWindowRect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var rect map[string]float64
	if err := agentPostValue(r.Context(), sess, "/window/rect", nil, &rect); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, rect)
}

func (s *Server) handleSetWindowRect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	var result bool
	if err := agentPostValue(r.Context(), sess, "/window/set-rect", body, &result); err != nil {
		writeW3CError(w, err)
		return
	}
	var rect map[string]float64
	if err := agentPostValue(r.Context(), sess, "/window/rect", nil, &rect); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, rect)
}

func (s *Server) handleMaximizeWindow(w http.ResponseWriter, r *http.Request) {
	s.windowAction(w, r, "/window/maximize")
}

func (s *Server) handleMinimizeWindow(w http.ResponseWriter, r *http.Request) {
	s.windowAction(w, r, "/window/minimize")
}

func (s *Server) handleFullscreenWindow(w http.ResponseWriter, r *http.Request) {
	s.windowAction(w, r, "/window/fullscreen")
}

func (s *Server) windowAction(w http.ResponseWriter, r *http.Request, path string) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var result bool
	if err := agentPostValue(r.Context(), sess, path, nil, &result); err != nil {
		writeW3CError(w, err)
		return
	}
	var rect map[string]float64
	if err := agentPostValue(r.Context(), sess, "/window/rect", nil, &rect); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, rect)
}

func (s *Server) handleNewWindow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/window/new", nil)
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var handle, typ string
	_ = agentField(fields, "handle", &handle)
	_ = agentField(fields, "type", &typ)
	if typ == "" {
		typ = "window"
	}
	writeW3CValue(w, http.StatusOK, map[string]string{"handle": handle, "type": typ})
}

// --- frames ---

func (s *Server) handleSwitchToFrame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	id, hasID := body["id"]
	if !hasID {
		writeW3CError(w, errBadRequest("missing 'id'"))
		return
	}
	if _, err := agentPost(r.Context(), sess, "/frame/switch", map[string]json.RawMessage{"id": id}); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

func (s *Server) handleSwitchToParentFrame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if _, err := agentPost(r.Context(), sess, "/frame/parent", nil); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

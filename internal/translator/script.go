package translator

import (
	"encoding/json"
	"net/http"
)

type scriptReq struct {
	Script string          `json:"script"`
	Args   json.RawMessage `json:"args"`
}

func (s *Server) handleExecuteSync(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, "/script/execute")
}

func (s *Server) handleExecuteAsync(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, "/script/execute-async")
}

// scriptExecuteError classifies an Agent error from a script execute call.
// A rendezvous timeout (the Agent's literal "script timed out" message) is
// an `unknown error`, not a `javascript error` (§7): the script never ran
// to completion, so nothing about it is known to have thrown.
func scriptExecuteError(err error) *W3CError {
	if wErr, ok := err.(*W3CError); ok {
		if wErr.Message == "script timed out" {
			return errUnknown(wErr.Message)
		}
		return errJavaScript(wErr.Message)
	}
	return errJavaScript(err.Error())
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, path string) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var body scriptReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeW3CError(w, errBadRequest("invalid request body"))
		return
	}
	args := body.Args
	if len(args) == 0 {
		args = json.RawMessage("[]")
	}
	timeoutMs := sess.getTimeouts().Script
	fields, err := agentPost(r.Context(), sess, path, map[string]any{
		"script": body.Script, "args": args, "timeoutMs": timeoutMs,
	})
	if err != nil {
		writeW3CError(w, scriptExecuteError(err))
		return
	}
	writeW3CValue(w, http.StatusOK, rawOrDefault(fields, "value", json.RawMessage("null")))
}

// --- screenshot / print ---

func (s *Server) handleTakeScreenshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/screenshot", nil)
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var data string
	_ = agentField(fields, "data", &data)
	writeW3CValue(w, http.StatusOK, data)
}

func (s *Server) handleElementScreenshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ref, ok := s.resolveElementParam(w, r, sess)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/screenshot/element", elementBody(ref))
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var data string
	_ = agentField(fields, "data", &data)
	writeW3CValue(w, http.StatusOK, data)
}

func (s *Server) handlePrintPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/print", nil)
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var data string
	_ = agentField(fields, "data", &data)
	writeW3CValue(w, http.StatusOK, data)
}

// --- cookies ---

func (s *Server) handleGetAllCookies(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/cookie/get-all", nil)
	if err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, rawOrDefault(fields, "cookies", json.RawMessage("[]")))
}

func (s *Server) handleGetNamedCookie(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	name := r.PathValue("name")
	fields, err := agentPost(r.Context(), sess, "/cookie/get", map[string]string{"name": name})
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var raw json.RawMessage
	_ = agentField(fields, "cookie", &raw)
	if len(raw) == 0 || string(raw) == "null" {
		writeW3CError(w, errNoCookie(name))
		return
	}
	writeW3CValue(w, http.StatusOK, raw)
}

func (s *Server) handleAddCookie(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	cookie, hasCookie := body["cookie"]
	if !hasCookie {
		writeW3CError(w, errBadRequest("missing 'cookie'"))
		return
	}
	if _, err := agentPost(r.Context(), sess, "/cookie/add", map[string]json.RawMessage{"cookie": cookie}); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

func (s *Server) handleDeleteCookie(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	name := r.PathValue("name")
	if _, err := agentPost(r.Context(), sess, "/cookie/delete", map[string]string{"name": name}); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

func (s *Server) handleDeleteAllCookies(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if _, err := agentPost(r.Context(), sess, "/cookie/delete-all", nil); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

// --- alerts ---

// alertErrorAsW3C maps any Agent error during an alert operation to the
// "no such alert" 404, matching the reference's string-matching behavior:
// the Agent only ever fails these calls when no dialog is open.
func alertErrorAsW3C(err error) error {
	if err == nil {
		return nil
	}
	return errNoAlert(err.Error())
}

func (s *Server) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if _, err := agentPost(r.Context(), sess, "/alert/dismiss", nil); err != nil {
		writeW3CError(w, alertErrorAsW3C(err))
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

func (s *Server) handleAcceptAlert(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if _, err := agentPost(r.Context(), sess, "/alert/accept", nil); err != nil {
		writeW3CError(w, alertErrorAsW3C(err))
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

func (s *Server) handleGetAlertText(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/alert/text", nil)
	if err != nil {
		writeW3CError(w, alertErrorAsW3C(err))
		return
	}
	var text string
	_ = agentField(fields, "text", &text)
	writeW3CValue(w, http.StatusOK, text)
}

func (s *Server) handleSendAlertText(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	text, _ := stringField(body, "text")
	if _, err := agentPost(r.Context(), sess, "/alert/send-text", map[string]string{"text": text}); err != nil {
		writeW3CError(w, alertErrorAsW3C(err))
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

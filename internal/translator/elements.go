package translator

import (
	"encoding/base64"
	"encoding/json"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// elementBody is the wire shape the Agent expects for every element
// operation: a structural (selector, index, using) triple.
func elementBody(ref ElementRef) map[string]any {
	return map[string]any{"selector": ref.Selector, "index": ref.Index, "using": ref.Using}
}

// resolveElementParam reads an element id out of a path value and resolves
// it against the session's reference table, writing a "no such element"
// error on miss.
func (s *Server) resolveElementParam(w http.ResponseWriter, r *http.Request, sess *Session) (ElementRef, bool) {
	id := r.PathValue("eid")
	ref, ok := sess.resolveElement(id)
	if !ok {
		writeW3CError(w, errNoElement(id))
		return ElementRef{}, false
	}
	return ref, true
}

func (s *Server) handleFindElement(w http.ResponseWriter, r *http.Request) {
	s.findElements(w, r, true)
}

func (s *Server) handleFindElements(w http.ResponseWriter, r *http.Request) {
	s.findElements(w, r, false)
}

func (s *Server) findElements(w http.ResponseWriter, r *http.Request, single bool) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	using, value, err := extractLocator(body)
	if err != nil {
		writeW3CError(w, err)
		return
	}

	implicit := sess.getTimeouts().Implicit
	refs, err := s.pollFindElements(r, sess, "/element/find", map[string]any{"using": using, "value": value}, implicit)
	if err != nil {
		writeW3CError(w, err)
		return
	}

	if single {
		if len(refs) == 0 {
			writeW3CError(w, newW3CError(http.StatusNotFound, "no such element", "no element found for "+value))
			return
		}
		writeW3CValue(w, http.StatusOK, elementRefValue(sess.storeElement(refs[0])))
		return
	}

	out := make([]map[string]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, elementRefValue(sess.storeElement(ref)))
	}
	writeW3CValue(w, http.StatusOK, out)
}

const implicitWaitPollInterval = 100 * time.Millisecond

// pollFindElements retries an empty find result for up to implicitMs,
// honoring the implicit wait timeout (§9A): the Agent itself performs no
// retries, so a bounded poll loop lives here on the Translator side.
func (s *Server) pollFindElements(r *http.Request, sess *Session, path string, reqBody map[string]any, implicitMs int64) ([]ElementRef, error) {
	deadline := time.Now().Add(time.Duration(implicitMs) * time.Millisecond)
	for {
		fields, err := agentPost(r.Context(), sess, path, reqBody)
		if err != nil {
			return nil, err
		}
		var raw []elementRefWire
		_ = agentField(fields, "elements", &raw)
		refs := make([]ElementRef, 0, len(raw))
		for _, w := range raw {
			refs = append(refs, ElementRef{Selector: w.Selector, Index: w.Index, Using: w.Using})
		}
		if len(refs) > 0 || implicitMs <= 0 || time.Now().After(deadline) {
			return refs, nil
		}
		select {
		case <-r.Context().Done():
			return refs, nil
		case <-time.After(implicitWaitPollInterval):
		}
	}
}

type elementRefWire struct {
	Selector string `json:"selector"`
	Index    int    `json:"index"`
	Using    string `json:"using"`
}

func elementRefValue(id string) map[string]string {
	return map[string]string{elementKey: id}
}

func (s *Server) handleGetActiveElement(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/element/active", nil)
	if err != nil {
		writeW3CError(w, err)
		return
	}
	elementRaw, hasElement := fields["element"]
	if !hasElement || string(elementRaw) == "null" {
		writeW3CError(w, errNoElement("active"))
		return
	}
	var raw elementRefWire
	if err := json.Unmarshal(elementRaw, &raw); err != nil || raw.Selector == "" {
		writeW3CError(w, errNoElement("active"))
		return
	}
	id := sess.storeElement(ElementRef{Selector: raw.Selector, Index: raw.Index, Using: raw.Using})
	writeW3CValue(w, http.StatusOK, elementRefValue(id))
}

func (s *Server) handleFindElementFromElement(w http.ResponseWriter, r *http.Request) {
	s.findFromElement(w, r, true)
}

func (s *Server) handleFindElementsFromElement(w http.ResponseWriter, r *http.Request) {
	s.findFromElement(w, r, false)
}

func (s *Server) findFromElement(w http.ResponseWriter, r *http.Request, single bool) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	parent, ok := s.resolveElementParam(w, r, sess)
	if !ok {
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	using, value, err := extractLocator(body)
	if err != nil {
		writeW3CError(w, err)
		return
	}

	reqBody := map[string]any{
		"parent_selector": parent.Selector, "parent_index": parent.Index, "parent_using": parent.Using,
		"using": using, "value": value,
	}
	implicit := sess.getTimeouts().Implicit
	refs, err := s.pollFindElements(r, sess, "/element/find-from", reqBody, implicit)
	if err != nil {
		writeW3CError(w, err)
		return
	}

	if single {
		if len(refs) == 0 {
			writeW3CError(w, newW3CError(http.StatusNotFound, "no such element", "no element found for "+value))
			return
		}
		writeW3CValue(w, http.StatusOK, elementRefValue(sess.storeElement(refs[0])))
		return
	}
	out := make([]map[string]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, elementRefValue(sess.storeElement(ref)))
	}
	writeW3CValue(w, http.StatusOK, out)
}

// --- shadow DOM ---

func (s *Server) handleGetShadowRoot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ref, ok := s.resolveElementParam(w, r, sess)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/element/shadow", elementBody(ref))
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var hasShadow bool
	_ = agentField(fields, "hasShadow", &hasShadow)
	if !hasShadow {
		writeW3CError(w, errNoShadowRoot("element has no shadow root"))
		return
	}
	id := sess.storeShadow(ShadowRef{HostSelector: ref.Selector, HostIndex: ref.Index, HostUsing: ref.Using})
	writeW3CValue(w, http.StatusOK, map[string]string{shadowKey: id})
}

func (s *Server) handleFindInShadow(w http.ResponseWriter, r *http.Request) {
	s.findInShadow(w, r, true)
}

func (s *Server) handleFindAllInShadow(w http.ResponseWriter, r *http.Request) {
	s.findInShadow(w, r, false)
}

func (s *Server) findInShadow(w http.ResponseWriter, r *http.Request, single bool) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	shadowID := r.PathValue("shadowId")
	host, ok := sess.resolveShadow(shadowID)
	if !ok {
		writeW3CError(w, errNoShadowRoot("shadow root "+shadowID+" not found"))
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	_, value, err := extractLocator(body)
	if err != nil {
		writeW3CError(w, err)
		return
	}

	reqBody := map[string]any{
		"host_selector": host.HostSelector, "host_index": host.HostIndex, "host_using": host.HostUsing,
		"value": value,
	}
	fields, err := agentPost(r.Context(), sess, "/shadow/find", reqBody)
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var raw []elementRefWire
	_ = agentField(fields, "elements", &raw)

	if single {
		if len(raw) == 0 {
			writeW3CError(w, newW3CError(http.StatusNotFound, "no such element", "no element found for "+value))
			return
		}
		id := sess.storeElement(ElementRef{Selector: raw[0].Selector, Index: raw[0].Index, Using: raw[0].Using})
		writeW3CValue(w, http.StatusOK, elementRefValue(id))
		return
	}
	out := make([]map[string]string, 0, len(raw))
	for _, rw := range raw {
		out = append(out, elementRefValue(sess.storeElement(ElementRef{Selector: rw.Selector, Index: rw.Index, Using: rw.Using})))
	}
	writeW3CValue(w, http.StatusOK, out)
}

// --- element operate ---

func (s *Server) handleClickElement(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ref, ok := s.resolveElementParam(w, r, sess)
	if !ok {
		return
	}
	if _, err := agentPost(r.Context(), sess, "/element/click", elementBody(ref)); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

func (s *Server) handleClearElement(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ref, ok := s.resolveElementParam(w, r, sess)
	if !ok {
		return
	}
	if _, err := agentPost(r.Context(), sess, "/element/clear", elementBody(ref)); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

// mimeFromExtension covers the handful of file types exercised in practice;
// anything else falls back to application/octet-stream.
var mimeFromExtension = map[string]string{
	".txt": "text/plain", ".png": "image/png", ".jpg": "image/jpeg",
	".jpeg": "image/jpeg", ".gif": "image/gif", ".pdf": "application/pdf",
	".json": "application/json", ".csv": "text/csv",
}

func guessMIME(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if m, ok := mimeFromExtension[ext]; ok {
		return m
	}
	if m := mime.TypeByExtension(ext); m != "" {
		return m
	}
	return "application/octet-stream"
}

// handleSendKeys is W3C's "Element Send Keys". A <input type=file> target
// is special-cased: the text is newline-separated local file paths that get
// read, base64-encoded, and pushed into the native file input; anything
// else is plain keystroke append (§4.3, file-upload special path).
func (s *Server) handleSendKeys(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ref, ok := s.resolveElementParam(w, r, sess)
	if !ok {
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	text, _ := stringField(body, "text")

	tagFields, err := agentPost(r.Context(), sess, "/element/tag", elementBody(ref))
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var tag string
	_ = agentField(tagFields, "tag", &tag)

	isFileInput := false
	if tag == "input" {
		attrFields, err := agentPost(r.Context(), sess, "/element/attribute", map[string]any{
			"selector": ref.Selector, "index": ref.Index, "using": ref.Using, "name": "type",
		})
		if err == nil {
			var typeAttr *string
			_ = agentField(attrFields, "value", &typeAttr)
			isFileInput = typeAttr != nil && *typeAttr == "file"
		}
	}

	if isFileInput {
		paths := strings.Split(text, "\n")
		files := make([]map[string]string, 0, len(paths))
		for _, p := range paths {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			data, err := os.ReadFile(p)
			if err != nil {
				writeW3CError(w, errBadRequest("reading file "+p+": "+err.Error()))
				return
			}
			files = append(files, map[string]string{
				"name": filepath.Base(p),
				"mime": guessMIME(p),
				"data": base64.StdEncoding.EncodeToString(data),
			})
		}
		if _, err := agentPost(r.Context(), sess, "/element/set-files", map[string]any{
			"selector": ref.Selector, "index": ref.Index, "using": ref.Using, "files": files,
		}); err != nil {
			writeW3CError(w, err)
			return
		}
		writeW3CValue(w, http.StatusOK, nil)
		return
	}

	if _, err := agentPost(r.Context(), sess, "/element/send-keys", map[string]any{
		"selector": ref.Selector, "index": ref.Index, "using": ref.Using, "text": text,
	}); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

func (s *Server) handleGetElementText(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ref, ok := s.resolveElementParam(w, r, sess)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/element/text", elementBody(ref))
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var text string
	_ = agentField(fields, "text", &text)
	writeW3CValue(w, http.StatusOK, text)
}

func (s *Server) handleGetElementTag(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ref, ok := s.resolveElementParam(w, r, sess)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/element/tag", elementBody(ref))
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var tag string
	_ = agentField(fields, "tag", &tag)
	writeW3CValue(w, http.StatusOK, tag)
}

func (s *Server) handleGetElementAttribute(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ref, ok := s.resolveElementParam(w, r, sess)
	if !ok {
		return
	}
	name := r.PathValue("name")
	fields, err := agentPost(r.Context(), sess, "/element/attribute", map[string]any{
		"selector": ref.Selector, "index": ref.Index, "using": ref.Using, "name": name,
	})
	if err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, rawOrDefault(fields, "value", json.RawMessage("null")))
}

func (s *Server) handleGetElementProperty(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ref, ok := s.resolveElementParam(w, r, sess)
	if !ok {
		return
	}
	name := r.PathValue("name")
	fields, err := agentPost(r.Context(), sess, "/element/property", map[string]any{
		"selector": ref.Selector, "index": ref.Index, "using": ref.Using, "name": name,
	})
	if err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, rawOrDefault(fields, "value", json.RawMessage("null")))
}

// handleGetElementCSS implements "Get Element CSS Value" by routing through
// the Agent's property endpoint with the __css__ prefix convention the
// Agent recognizes, tolerating any Agent error as an empty string per the
// W3C spec's "default to empty string" guidance.
func (s *Server) handleGetElementCSS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ref, ok := s.resolveElementParam(w, r, sess)
	if !ok {
		return
	}
	name := r.PathValue("name")
	fields, err := agentPost(r.Context(), sess, "/element/property", map[string]any{
		"selector": ref.Selector, "index": ref.Index, "using": ref.Using, "name": "__css__" + name,
	})
	if err != nil {
		writeW3CValue(w, http.StatusOK, "")
		return
	}
	var value string
	if agentField(fields, "value", &value) != nil {
		value = ""
	}
	writeW3CValue(w, http.StatusOK, value)
}

func (s *Server) handleGetElementRect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ref, ok := s.resolveElementParam(w, r, sess)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/element/rect", elementBody(ref))
	if err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, map[string]json.RawMessage{
		"x":      rawOrDefault(fields, "x", json.RawMessage("0")),
		"y":      rawOrDefault(fields, "y", json.RawMessage("0")),
		"width":  rawOrDefault(fields, "width", json.RawMessage("0")),
		"height": rawOrDefault(fields, "height", json.RawMessage("0")),
	})
}

func (s *Server) handleIsElementEnabled(w http.ResponseWriter, r *http.Request) {
	s.elementBoolProperty(w, r, "/element/enabled", "enabled")
}

func (s *Server) handleIsElementSelected(w http.ResponseWriter, r *http.Request) {
	s.elementBoolProperty(w, r, "/element/selected", "selected")
}

func (s *Server) handleIsElementDisplayed(w http.ResponseWriter, r *http.Request) {
	s.elementBoolProperty(w, r, "/element/displayed", "displayed")
}

func (s *Server) elementBoolProperty(w http.ResponseWriter, r *http.Request, path, field string) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ref, ok := s.resolveElementParam(w, r, sess)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, path, elementBody(ref))
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var value bool
	_ = agentField(fields, field, &value)
	writeW3CValue(w, http.StatusOK, value)
}

func (s *Server) handleGetComputedRole(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ref, ok := s.resolveElementParam(w, r, sess)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/element/computed-role", elementBody(ref))
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var role string
	_ = agentField(fields, "role", &role)
	writeW3CValue(w, http.StatusOK, role)
}

func (s *Server) handleGetComputedLabel(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ref, ok := s.resolveElementParam(w, r, sess)
	if !ok {
		return
	}
	fields, err := agentPost(r.Context(), sess, "/element/computed-label", elementBody(ref))
	if err != nil {
		writeW3CError(w, err)
		return
	}
	var label string
	_ = agentField(fields, "label", &label)
	writeW3CValue(w, http.StatusOK, label)
}


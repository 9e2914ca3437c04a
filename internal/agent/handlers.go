package agent

import (
	"context"
	"net/http"

	"webdriver-bridge/internal/bridge"
)

// --- window handlers ---

func (s *Server) handleWindowHandle(w http.ResponseWriter, r *http.Request) {
	win, err := s.resolveWindow()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, win.Label())
}

func (s *Server) handleWindowHandles(w http.ResponseWriter, r *http.Request) {
	labels := make([]string, 0, len(s.host.WebviewWindows()))
	for label := range s.host.WebviewWindows() {
		labels = append(labels, label)
	}
	writeJSON(w, 200, labels)
}

type closeReq struct {
	Label string `json:"label"`
}

func (s *Server) handleWindowClose(w http.ResponseWriter, r *http.Request) {
	var body closeReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	win, ok := s.host.WebviewWindows()[body.Label]
	if !ok {
		writeError(w, notFound("window %q not found", body.Label))
		return
	}
	if err := win.Close(); err != nil {
		writeError(w, internal("%v", err))
		return
	}
	s.mu.Lock()
	if s.currentWindowLabel == body.Label {
		s.currentWindowLabel = ""
	}
	s.frameStack = nil
	s.mu.Unlock()
	writeJSON(w, 200, true)
}

type labelReq struct {
	Label string `json:"label"`
}

func (s *Server) windowByOptionalLabel(label string) (Window, error) {
	if label == "" {
		return s.resolveWindow()
	}
	win, ok := s.host.WebviewWindows()[label]
	if !ok {
		return nil, notFound("no window")
	}
	return win, nil
}

func (s *Server) handleWindowRect(w http.ResponseWriter, r *http.Request) {
	var body labelReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	win, err := s.windowByOptionalLabel(body.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	scale, err := win.ScaleFactor()
	if err != nil {
		writeError(w, internal("%v", err))
		return
	}
	px, py, err := win.OuterPosition()
	if err != nil {
		writeError(w, internal("%v", err))
		return
	}
	sw, sh, err := win.OuterSize()
	if err != nil {
		writeError(w, internal("%v", err))
		return
	}
	writeJSON(w, 200, map[string]float64{
		"x": px / scale, "y": py / scale,
		"width": sw / scale, "height": sh / scale,
	})
}

type setRectReq struct {
	Label  string   `json:"label"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

func (s *Server) handleWindowSetRect(w http.ResponseWriter, r *http.Request) {
	var body setRectReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	win, err := s.windowByOptionalLabel(body.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	if body.X != nil && body.Y != nil {
		if err := win.SetPosition(*body.X, *body.Y); err != nil {
			writeError(w, internal("%v", err))
			return
		}
	}
	if body.Width != nil && body.Height != nil {
		if err := win.SetSize(*body.Width, *body.Height); err != nil {
			writeError(w, internal("%v", err))
			return
		}
	}
	writeJSON(w, 200, true)
}

func (s *Server) handleWindowFullscreen(w http.ResponseWriter, r *http.Request) {
	var body labelReq
	readJSON(r, &body)
	win, err := s.windowByOptionalLabel(body.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := win.SetFullscreen(true); err != nil {
		writeError(w, internal("%v", err))
		return
	}
	writeJSON(w, 200, true)
}

func (s *Server) handleWindowMinimize(w http.ResponseWriter, r *http.Request) {
	var body labelReq
	readJSON(r, &body)
	win, err := s.windowByOptionalLabel(body.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := win.Minimize(); err != nil {
		writeError(w, internal("%v", err))
		return
	}
	writeJSON(w, 200, true)
}

func (s *Server) handleWindowMaximize(w http.ResponseWriter, r *http.Request) {
	var body labelReq
	readJSON(r, &body)
	win, err := s.windowByOptionalLabel(body.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := win.Maximize(); err != nil {
		writeError(w, internal("%v", err))
		return
	}
	writeJSON(w, 200, true)
}

func (s *Server) handleWindowInsets(w http.ResponseWriter, r *http.Request) {
	var body labelReq
	readJSON(r, &body)
	win, err := s.windowByOptionalLabel(body.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	scale, err := win.ScaleFactor()
	if err != nil {
		writeError(w, internal("%v", err))
		return
	}
	ox, oy, err := win.OuterPosition()
	if err != nil {
		writeError(w, internal("%v", err))
		return
	}
	ix, iy, err := win.InnerPosition()
	if err != nil {
		writeError(w, internal("%v", err))
		return
	}
	top := (iy - oy) / scale
	left := (ix - ox) / scale
	writeJSON(w, 200, map[string]float64{"top": top, "bottom": 0, "x": left, "y": top})
}

func (s *Server) handleWindowSetCurrent(w http.ResponseWriter, r *http.Request) {
	var body labelReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	win, ok := s.host.WebviewWindows()[body.Label]
	if !ok {
		writeError(w, notFound("window %q not found", body.Label))
		return
	}
	_ = win.SetFocus()
	s.setCurrentWindow(body.Label)
	writeJSON(w, 200, true)
}

func (s *Server) handleWindowNew(w http.ResponseWriter, r *http.Request) {
	label := "wd-" + newID()
	win, err := s.host.NewWindow(label, "", 800, 600)
	if err != nil {
		writeError(w, internal("failed to create window: %v", err))
		return
	}
	_ = win.SetFocus()
	writeJSON(w, 200, map[string]string{"handle": label, "type": "window"})
}

// --- element locate handlers ---

type findReq struct {
	Using     string `json:"using"`
	Value     string `json:"value"`
	TimeoutMs int64  `json:"timeoutMs"`
}

func (s *Server) handleElementFind(w http.ResponseWriter, r *http.Request) {
	var body findReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.eval(r.Context(), findScript(body.Using, body.Value), timeoutOf(body.TimeoutMs))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"elements": rawJSON(result)})
}

type findFromReq struct {
	ParentSelector string `json:"parent_selector"`
	ParentIndex    int    `json:"parent_index"`
	ParentUsing    string `json:"parent_using"`
	Using          string `json:"using"`
	Value          string `json:"value"`
	TimeoutMs      int64  `json:"timeoutMs"`
}

func (s *Server) handleElementFindFrom(w http.ResponseWriter, r *http.Request) {
	var body findFromReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	script := findFromScript(body.ParentSelector, body.ParentIndex, body.ParentUsing, body.Using, body.Value)
	result, err := s.eval(r.Context(), script, timeoutOf(body.TimeoutMs))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"elements": rawJSON(result)})
}

type shadowFindReq struct {
	HostSelector string `json:"host_selector"`
	HostIndex    int    `json:"host_index"`
	HostUsing    string `json:"host_using"`
	Value        string `json:"value"`
	TimeoutMs    int64  `json:"timeoutMs"`
}

func (s *Server) handleShadowFind(w http.ResponseWriter, r *http.Request) {
	var body shadowFindReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	script := shadowFindScript(body.HostSelector, body.HostIndex, body.HostUsing, body.Value)
	result, err := s.eval(r.Context(), script, timeoutOf(body.TimeoutMs))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"elements": rawJSON(result)})
}

// --- element operate handlers ---

type elemReq struct {
	Selector  string `json:"selector"`
	Index     int    `json:"index"`
	Using     string `json:"using"`
	TimeoutMs int64  `json:"timeoutMs"`
}

func (s *Server) evalElem(ctx context.Context, body elemReq, jsBody string) (rawJSON, error) {
	result, err := s.evalOnElement(ctx, body.Selector, body.Index, body.Using, jsBody, timeoutOf(body.TimeoutMs))
	return rawJSON(result), err
}

func (s *Server) handleElementText(w http.ResponseWriter, r *http.Request) {
	var body elemReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.evalElem(r.Context(), body, "return el.textContent||''")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"text": result})
}

type elemAttrReq struct {
	Selector  string `json:"selector"`
	Index     int    `json:"index"`
	Using     string `json:"using"`
	Name      string `json:"name"`
	TimeoutMs int64  `json:"timeoutMs"`
}

func (s *Server) handleElementAttribute(w http.ResponseWriter, r *http.Request) {
	var body elemAttrReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	js := "return el.getAttribute(" + jsString(body.Name) + ")"
	result, err := s.evalOnElement(r.Context(), body.Selector, body.Index, body.Using, js, timeoutOf(body.TimeoutMs))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"value": rawJSON(result)})
}

func (s *Server) handleElementProperty(w http.ResponseWriter, r *http.Request) {
	var body elemAttrReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	// The `__css__<name>` convention (§4.3 "Element CSS Value") is routed
	// here by the Translator; honor it by reading computed style instead
	// of a plain property when the name carries the prefix.
	var js string
	if cssName, ok := cssPropertyName(body.Name); ok {
		js = "return window.getComputedStyle(el).getPropertyValue(" + jsString(cssName) + ")||''"
	} else {
		js = "return el[" + jsString(body.Name) + "]"
	}
	result, err := s.evalOnElement(r.Context(), body.Selector, body.Index, body.Using, js, timeoutOf(body.TimeoutMs))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"value": rawJSON(result)})
}

func cssPropertyName(name string) (string, bool) {
	const prefix = "__css__"
	if len(name) > len(prefix) && name[:len(prefix)] == prefix {
		return name[len(prefix):], true
	}
	return "", false
}

func (s *Server) handleElementTag(w http.ResponseWriter, r *http.Request) {
	var body elemReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.evalElem(r.Context(), body, "return el.tagName.toLowerCase()")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"tag": result})
}

func (s *Server) handleElementRect(w http.ResponseWriter, r *http.Request) {
	var body elemReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.evalElem(r.Context(), body,
		"var r=el.getBoundingClientRect();return{x:r.x,y:r.y,width:r.width,height:r.height}")
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(result)
}

func (s *Server) handleElementClick(w http.ResponseWriter, r *http.Request) {
	var body elemReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	_, err := s.evalElem(r.Context(), body,
		"el.scrollIntoView({block:'center',inline:'center'});el.focus();el.click();return null")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, nil)
}

func (s *Server) handleElementClear(w http.ResponseWriter, r *http.Request) {
	var body elemReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	_, err := s.evalElem(r.Context(), body,
		"el.focus();el.value='';el.dispatchEvent(new Event('input',{bubbles:true}));"+
			"el.dispatchEvent(new Event('change',{bubbles:true}));return null")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, nil)
}

type sendKeysReq struct {
	Selector  string `json:"selector"`
	Index     int    `json:"index"`
	Using     string `json:"using"`
	Text      string `json:"text"`
	TimeoutMs int64  `json:"timeoutMs"`
}

func (s *Server) handleElementSendKeys(w http.ResponseWriter, r *http.Request) {
	var body sendKeysReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	js := "el.focus();el.value+=" + jsString(body.Text) + ";" +
		"el.dispatchEvent(new Event('input',{bubbles:true}));" +
		"el.dispatchEvent(new Event('change',{bubbles:true}));return null"
	_, err := s.evalOnElement(r.Context(), body.Selector, body.Index, body.Using, js, timeoutOf(body.TimeoutMs))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, nil)
}

type setFilesReq struct {
	Selector  string     `json:"selector"`
	Index     int        `json:"index"`
	Using     string     `json:"using"`
	Files     []FileInfo `json:"files"`
	TimeoutMs int64      `json:"timeoutMs"`
}

func (s *Server) handleElementSetFiles(w http.ResponseWriter, r *http.Request) {
	var body setFilesReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	js := setFilesScript(body.Files)
	_, err := s.evalOnElement(r.Context(), body.Selector, body.Index, body.Using, js, timeoutOf(body.TimeoutMs))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, nil)
}

func (s *Server) handleElementDisplayed(w http.ResponseWriter, r *http.Request) {
	var body elemReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.evalElem(r.Context(), body,
		"var s=window.getComputedStyle(el);"+
			"return s.display!=='none'&&s.visibility!=='hidden'&&s.opacity!=='0'")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"displayed": result})
}

func (s *Server) handleElementEnabled(w http.ResponseWriter, r *http.Request) {
	var body elemReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.evalElem(r.Context(), body, "return !el.disabled")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"enabled": result})
}

func (s *Server) handleElementSelected(w http.ResponseWriter, r *http.Request) {
	var body elemReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.evalElem(r.Context(), body, "return el.selected||el.checked||false")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"selected": result})
}

func (s *Server) handleElementShadow(w http.ResponseWriter, r *http.Request) {
	var body elemReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.evalElem(r.Context(), body, "return el.shadowRoot !== null")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"hasShadow": result})
}

func (s *Server) handleComputedRole(w http.ResponseWriter, r *http.Request) {
	var body elemReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.evalElem(r.Context(), body, computedRoleScript)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"role": result})
}

func (s *Server) handleComputedLabel(w http.ResponseWriter, r *http.Request) {
	var body elemReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.evalElem(r.Context(), body, computedLabelScript)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"label": result})
}

func (s *Server) handleElementActive(w http.ResponseWriter, r *http.Request) {
	result, err := s.eval(r.Context(), "return window."+bridge.Namespace+".getActiveElement()", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"element": rawJSON(result)})
}

// --- script handlers ---

type scriptReq struct {
	Script    string  `json:"script"`
	Args      rawJSON `json:"args"`
	TimeoutMs int64   `json:"timeoutMs"`
}

func (s *Server) handleScriptExecute(w http.ResponseWriter, r *http.Request) {
	var body scriptReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	args := body.Args
	if args == nil {
		args = rawJSON("[]")
	}
	script := "var __args=" + string(args) + ";return (function(){" + body.Script + "}).apply(null,__args)"
	result, err := s.eval(r.Context(), script, timeoutOf(body.TimeoutMs))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"value": rawJSON(result)})
}

func (s *Server) handleScriptExecuteAsync(w http.ResponseWriter, r *http.Request) {
	var body scriptReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	args := body.Args
	if args == nil {
		args = rawJSON("[]")
	}
	id := newID()
	win, err := s.resolveWindow()
	if err != nil {
		writeError(w, err)
		return
	}
	sink := s.rendezvous.register(id)

	script := "(function(){var __args=" + string(args) + ";" +
		"var __done=function(r){window." + bridge.Namespace + ".resolve(" + jsString(id) + ",r)};" +
		"__args.push(__done);" +
		"try{(function(){" + body.Script + "}).apply(null,__args)}" +
		"catch(__e){window." + bridge.Namespace + ".resolve(" + jsString(id) + "," +
		"{error:__e.name,message:__e.message,stacktrace:__e.stack||\"\"})}})();"

	if err := win.Eval(script); err != nil {
		s.rendezvous.remove(id)
		writeError(w, internal("eval failed: %v", err))
		return
	}

	timeout := timeoutOf(body.TimeoutMs)
	select {
	case value := <-sink:
		result, err := scriptOutcome(value)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, 200, map[string]rawJSON{"value": rawJSON(result)})
	case <-r.Context().Done():
		s.rendezvous.remove(id)
		writeError(w, r.Context().Err())
	case <-timeAfter(timeout):
		s.rendezvous.remove(id)
		writeError(w, internal("script timed out"))
	}
}

// --- navigation handlers ---

type navReq struct {
	URL       string `json:"url"`
	TimeoutMs int64  `json:"timeoutMs"`
}

func (s *Server) handleNavigateURL(w http.ResponseWriter, r *http.Request) {
	var body navReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	_, err := s.eval(r.Context(), "window.location.href="+jsString(body.URL)+";return null", timeoutOf(body.TimeoutMs))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, nil)
}

func (s *Server) handleNavigateCurrent(w http.ResponseWriter, r *http.Request) {
	result, err := s.eval(r.Context(), "return window.location.href", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"url": rawJSON(result)})
}

func (s *Server) handleNavigateTitle(w http.ResponseWriter, r *http.Request) {
	result, err := s.eval(r.Context(), "return window.document.title", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"title": rawJSON(result)})
}

func (s *Server) handleNavigateBack(w http.ResponseWriter, r *http.Request) {
	if _, err := s.eval(r.Context(), "window.history.back();return null", 0); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, nil)
}

func (s *Server) handleNavigateForward(w http.ResponseWriter, r *http.Request) {
	if _, err := s.eval(r.Context(), "window.history.forward();return null", 0); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, nil)
}

func (s *Server) handleNavigateRefresh(w http.ResponseWriter, r *http.Request) {
	if _, err := s.eval(r.Context(), "window.location.reload();return null", 0); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, nil)
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	result, err := s.eval(r.Context(), "return document.documentElement.outerHTML", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"source": rawJSON(result)})
}

// --- screenshot / print handlers ---

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	result, err := s.evalCallback(r.Context(), screenshotScript, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"data": rawJSON(result)})
}

func (s *Server) handleScreenshotElement(w http.ResponseWriter, r *http.Request) {
	var body elemReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	script := elementScreenshotScript(body.Selector, body.Index, body.Using)
	result, err := s.evalCallback(r.Context(), script, timeoutOf(body.TimeoutMs))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"data": rawJSON(result)})
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	result, err := s.evalCallback(r.Context(), printScript, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"data": rawJSON(result)})
}

// --- cookie handlers ---

func (s *Server) handleCookieGetAll(w http.ResponseWriter, r *http.Request) {
	script := "var store=window." + bridge.Namespace + ".cookies;" +
		"var cookies=[];var keys=Object.keys(store);" +
		"for(var i=0;i<keys.length;i++)cookies.push(store[keys[i]]);" +
		"return cookies;"
	result, err := s.eval(r.Context(), script, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"cookies": rawJSON(result)})
}

type cookieNameReq struct {
	Name string `json:"name"`
}

func (s *Server) handleCookieGet(w http.ResponseWriter, r *http.Request) {
	var body cookieNameReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	script := "var c=window." + bridge.Namespace + ".cookies[" + jsString(body.Name) + "];return c||null"
	result, err := s.eval(r.Context(), script, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"cookie": rawJSON(result)})
}

type cookieData struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Path     string `json:"path"`
	Domain   string `json:"domain"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"httpOnly"`
	Expiry   *int64 `json:"expiry"`
}

type cookieAddReq struct {
	Cookie cookieData `json:"cookie"`
}

func (s *Server) handleCookieAdd(w http.ResponseWriter, r *http.Request) {
	var body cookieAddReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	c := body.Cookie
	path := c.Path
	if path == "" {
		path = "/"
	}
	domainJS := "window.location.hostname"
	if c.Domain != "" {
		domainJS = jsString(c.Domain)
	}
	expiryJS := "null"
	if c.Expiry != nil {
		expiryJS = jsValue(*c.Expiry)
	}
	script := "window." + bridge.Namespace + ".cookies[" + jsString(c.Name) + "]={" +
		"name:" + jsString(c.Name) + ",value:" + jsString(c.Value) + ",path:" + jsString(path) + "," +
		"domain:" + domainJS + ",secure:" + jsValue(c.Secure) + ",httpOnly:" + jsValue(c.HTTPOnly) + "," +
		"expiry:" + expiryJS + ",sameSite:\"Lax\"" +
		"};return null"
	if _, err := s.eval(r.Context(), script, 0); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, nil)
}

func (s *Server) handleCookieDelete(w http.ResponseWriter, r *http.Request) {
	var body cookieNameReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	script := "delete window." + bridge.Namespace + ".cookies[" + jsString(body.Name) + "];return null"
	if _, err := s.eval(r.Context(), script, 0); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, nil)
}

func (s *Server) handleCookieDeleteAll(w http.ResponseWriter, r *http.Request) {
	script := "var s=window." + bridge.Namespace + ".cookies;" +
		"var k=Object.keys(s);for(var i=0;i<k.length;i++)delete s[k[i]];return null"
	if _, err := s.eval(r.Context(), script, 0); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, nil)
}

// --- alert handlers ---

func (s *Server) handleAlertGetText(w http.ResponseWriter, r *http.Request) {
	script := "var d=window." + bridge.Namespace + ".__dialog;" +
		"if(!d.open)throw new Error('no such alert');return d.text"
	result, err := s.eval(r.Context(), script, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]rawJSON{"text": rawJSON(result)})
}

func (s *Server) handleAlertDismiss(w http.ResponseWriter, r *http.Request) {
	script := "var d=window." + bridge.Namespace + ".__dialog;" +
		"if(!d.open)throw new Error('no such alert');" +
		"if(d.type==='confirm')d.response=false;" +
		"if(d.type==='prompt')d.response=null;" +
		"d.open=false;return null"
	if _, err := s.eval(r.Context(), script, 0); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, nil)
}

func (s *Server) handleAlertAccept(w http.ResponseWriter, r *http.Request) {
	script := "var d=window." + bridge.Namespace + ".__dialog;" +
		"if(!d.open)throw new Error('no such alert');" +
		"if(d.type==='confirm')d.response=true;" +
		"if(d.type==='prompt'&&d.response===null)d.response=d.defaultValue||'';" +
		"d.open=false;return null"
	if _, err := s.eval(r.Context(), script, 0); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, nil)
}

type alertTextReq struct {
	Text string `json:"text"`
}

func (s *Server) handleAlertSendText(w http.ResponseWriter, r *http.Request) {
	var body alertTextReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	script := "var d=window." + bridge.Namespace + ".__dialog;" +
		"if(!d.open)throw new Error('no such alert');" +
		"if(d.type!=='prompt')throw new Error('no such alert');" +
		"d.response=" + jsString(body.Text) + ";return null"
	if _, err := s.eval(r.Context(), script, 0); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, nil)
}

// --- actions handlers ---

type actionsPerformReq struct {
	Actions   []ActionSequence `json:"actions"`
	TimeoutMs int64            `json:"timeoutMs"`
}

func (s *Server) handleActionsPerform(w http.ResponseWriter, r *http.Request) {
	var body actionsPerformReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := s.performActions(r.Context(), body.Actions); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, nil)
}

func (s *Server) handleActionsRelease(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, nil)
}

// --- frame handlers ---

type frameSwitchReq struct {
	ID rawJSON `json:"id"`
}

func (s *Server) handleFrameSwitch(w http.ResponseWriter, r *http.Request) {
	var body frameSwitchReq
	if err := readJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	switch {
	case len(body.ID) == 0 || string(body.ID) == "null":
		s.clearFrameStack()
	default:
		var asInt int
		if err := unmarshalInto(body.ID, &asInt); err == nil {
			s.pushFrame(frameRef{selector: "iframe", index: asInt})
			break
		}
		var asObj struct {
			Selector string `json:"selector"`
			Index    int    `json:"index"`
		}
		if err := unmarshalInto(body.ID, &asObj); err == nil && asObj.Selector != "" {
			s.pushFrame(frameRef{selector: asObj.Selector, index: asObj.Index})
			break
		}
		writeError(w, badRequest("invalid frame id"))
		return
	}
	writeJSON(w, 200, nil)
}

func (s *Server) handleFrameParent(w http.ResponseWriter, r *http.Request) {
	s.popFrame()
	writeJSON(w, 200, nil)
}

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"webdriver-bridge/internal/bridge"
)

// defaultScriptTimeout is the rendezvous ceiling used when the caller does
// not pass a session-scoped override (see §9A: timeouts.script).
const defaultScriptTimeout = 30 * time.Second

// rendezvous owns the pending-script table: every in-flight eval allocates
// one entry here and the Bridge's resolve() call, relayed through Resolve,
// fills and removes it.
type rendezvous struct {
	mu      sync.Mutex
	pending map[string]chan json.RawMessage
}

func newRendezvous() *rendezvous {
	return &rendezvous{pending: make(map[string]chan json.RawMessage)}
}

func (r *rendezvous) register(id string) chan json.RawMessage {
	sink := make(chan json.RawMessage, 1)
	r.mu.Lock()
	r.pending[id] = sink
	r.mu.Unlock()
	return sink
}

// remove deletes the entry if it is still present, returning whether it
// was removed. Safe to call more than once for the same id.
func (r *rendezvous) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[id]; !ok {
		return false
	}
	delete(r.pending, id)
	return true
}

// Resolve is the entrypoint a host IPC binding calls when the Bridge's
// resolve(id, value) fires. It is the only path by which an Agent endpoint
// obtains data back out of the web view.
func (s *Server) Resolve(id string, result json.RawMessage) error {
	s.rendezvous.mu.Lock()
	sink, ok := s.rendezvous.pending[id]
	if ok {
		delete(s.rendezvous.pending, id)
	}
	s.rendezvous.mu.Unlock()
	if !ok {
		return fmt.Errorf("no pending script with id %q", id)
	}
	if result == nil {
		result = json.RawMessage("null")
	}
	sink <- result
	return nil
}

// scriptOutcome classifies a resolved value: either a plain result or a
// script-level failure ({error, message, stacktrace}).
func scriptOutcome(raw json.RawMessage) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		// Not an object (string/number/array/bool/null) — a plain result.
		return raw, nil
	}
	_, hasError := obj["error"]
	_, hasMessage := obj["message"]
	if !hasError || !hasMessage {
		return raw, nil
	}
	var name, message string
	_ = json.Unmarshal(obj["error"], &name)
	_ = json.Unmarshal(obj["message"], &message)
	if message == "" {
		message = "script error"
	}
	return nil, &scriptFailure{name: name, message: message}
}

// eval wraps script in the try/catch/resolve shell, synthesizes the frame
// prefix if the Agent is currently inside a frame, evaluates it in the
// current window, and awaits the result with timeout as the ceiling.
func (s *Server) eval(ctx context.Context, script string, timeout time.Duration) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = defaultScriptTimeout
	}

	win, err := s.resolveWindow()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	sink := s.rendezvous.register(id)

	s.mu.RLock()
	stack := append([]frameRef(nil), s.frameStack...)
	s.mu.RUnlock()

	prefix := framePrefix(stack)
	var wrapped string
	if len(stack) > 0 {
		wrapped = fmt.Sprintf(
			"(function(){try{%s"+
				"var __r=(function(document){%s}).call(null,__doc);"+
				"window.%s.resolve(%s,__r)"+
				"}catch(__e){window.%s.resolve(%s,"+
				"{error:__e.name,message:__e.message,stacktrace:__e.stack||\"\"})"+
				"}})()",
			prefix, script, bridge.Namespace, jsString(id), bridge.Namespace, jsString(id),
		)
	} else {
		wrapped = fmt.Sprintf(
			"(function(){try{var __r=(function(){%s})();"+
				"window.%s.resolve(%s,__r)"+
				"}catch(__e){window.%s.resolve(%s,"+
				"{error:__e.name,message:__e.message,stacktrace:__e.stack||\"\"})"+
				"}})()",
			script, bridge.Namespace, jsString(id), bridge.Namespace, jsString(id),
		)
	}

	if err := win.Eval(wrapped); err != nil {
		s.rendezvous.remove(id)
		return nil, internal("eval failed: %v", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case value := <-sink:
		return scriptOutcome(value)
	case <-timer.C:
		s.rendezvous.remove(id)
		return nil, internal("script timed out")
	case <-ctx.Done():
		s.rendezvous.remove(id)
		return nil, ctx.Err()
	}
}

// evalOnElement composes elementScript's locate-then-body snippet and
// evaluates it through eval.
func (s *Server) evalOnElement(ctx context.Context, selector string, index int, using, body string, timeout time.Duration) (json.RawMessage, error) {
	return s.eval(ctx, elementScript(selector, index, using, body), timeout)
}

// evalCallback evaluates a script that is NOT wrapped by eval's try/catch
// shell — the script itself must call window.<namespace>.resolve(id, ...)
// once, possibly from an async callback (image onload, etc.). Used by the
// screenshot and print endpoints, whose JS is asynchronous by nature.
func (s *Server) evalCallback(ctx context.Context, scriptTemplate string, timeout time.Duration) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = defaultScriptTimeout
	}

	win, err := s.resolveWindow()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	sink := s.rendezvous.register(id)

	final := replaceCallbackID(scriptTemplate, id)
	if err := win.Eval(final); err != nil {
		s.rendezvous.remove(id)
		return nil, internal("eval failed: %v", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case value := <-sink:
		return scriptOutcome(value)
	case <-timer.C:
		s.rendezvous.remove(id)
		return nil, internal("script timed out")
	case <-ctx.Done():
		s.rendezvous.remove(id)
		return nil, ctx.Err()
	}
}

const callbackPlaceholder = "__CALLBACK_ID__"

func replaceCallbackID(script, id string) string {
	return strings.ReplaceAll(script, callbackPlaceholder, jsString(id))
}

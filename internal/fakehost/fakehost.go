// Package fakehost is an in-memory implementation of agent.Host/agent.Window,
// used by the Agent's own tests and by cmd/demoapp in place of a real
// embedding framework. It has no actual web view: Eval calls are recorded and
// optionally dispatched to a registered callback for tests that need to
// observe script content or simulate the Bridge resolving asynchronously.
package fakehost

import (
	"fmt"
	"sync"

	"webdriver-bridge/internal/agent"
)

// Evaluator lets a test install behavior for Eval calls.
type Evaluator func(script string)

// Window is an in-memory stand-in for a single web-view window. It
// satisfies agent.Window.
type Window struct {
	mu sync.Mutex

	label string
	x, y  float64
	w, h  float64
	scale float64

	closed     bool
	fullscreen bool
	minimized  bool
	maximized  bool
	focused    bool

	Evaluated []string
	onEval    Evaluator
}

// NewWindow builds a fake window at a default size and scale.
func NewWindow(label string, onEval Evaluator) *Window {
	return &Window{
		label: label,
		w:     800, h: 600,
		scale:  1.0,
		onEval: onEval,
	}
}

func (w *Window) Label() string { return w.label }

func (w *Window) ScaleFactor() (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scale, nil
}

func (w *Window) OuterPosition() (float64, float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.x, w.y, nil
}

func (w *Window) OuterSize() (float64, float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w, w.h, nil
}

// InnerPosition simulates a fixed 30-logical-pixel title bar inset.
func (w *Window) InnerPosition() (float64, float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.x, w.y + 30, nil
}

func (w *Window) SetPosition(x, y float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.x, w.y = x, y
	return nil
}

func (w *Window) SetSize(width, height float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.w, w.h = width, height
	return nil
}

func (w *Window) SetFullscreen(v bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fullscreen = v
	return nil
}

func (w *Window) Minimize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.minimized = true
	return nil
}

func (w *Window) Maximize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.maximized = true
	return nil
}

func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("window %q already closed", w.label)
	}
	w.closed = true
	return nil
}

func (w *Window) SetFocus() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focused = true
	return nil
}

// Eval records the script and, if an evaluator was registered, hands it off
// synchronously — tests use this to simulate the Bridge resolving
// immediately rather than wiring a real IPC round trip.
func (w *Window) Eval(script string) error {
	w.mu.Lock()
	w.Evaluated = append(w.Evaluated, script)
	cb := w.onEval
	w.mu.Unlock()
	if cb != nil {
		cb(script)
	}
	return nil
}

// IsClosed reports whether Close has been called, for test assertions.
func (w *Window) IsClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Host is an in-memory directory of fake windows. It satisfies agent.Host.
type Host struct {
	mu      sync.Mutex
	windows map[string]*Window
	onEval  Evaluator
}

// NewHost builds an empty fake host. onEval, if non-nil, is installed on
// every window the host creates via NewWindow.
func NewHost(onEval Evaluator) *Host {
	return &Host{windows: make(map[string]*Window), onEval: onEval}
}

// AddWindow registers a pre-built window under its own label, for tests that
// want direct access to the *Window to assert on Evaluated scripts.
func (h *Host) AddWindow(win *Window) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.windows[win.Label()] = win
}

func (h *Host) WebviewWindows() map[string]agent.Window {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]agent.Window, len(h.windows))
	for label, win := range h.windows {
		out[label] = win
	}
	return out
}

func (h *Host) NewWindow(label, url string, w, ht float64) (agent.Window, error) {
	_ = url
	win := NewWindow(label, h.onEval)
	win.w, win.h = w, ht

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.windows[label]; exists {
		return nil, fmt.Errorf("window %q already exists", label)
	}
	h.windows[label] = win
	return win, nil
}

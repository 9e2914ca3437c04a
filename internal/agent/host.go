package agent

// Window is the narrow, implementation-agnostic capability interface the
// Agent requires for a single web-view window. A real host binding and the
// in-memory fakehost package both satisfy this without the Agent depending
// on either.
type Window interface {
	Label() string
	ScaleFactor() (float64, error)
	OuterPosition() (x, y float64, err error)
	OuterSize() (w, h float64, err error)
	InnerPosition() (x, y float64, err error)
	SetPosition(x, y float64) error
	SetSize(w, h float64) error
	SetFullscreen(bool) error
	Minimize() error
	Maximize() error
	Close() error
	SetFocus() error

	// Eval submits scriptText for fire-and-forget evaluation inside the
	// window's web view. It must not block on a return value: results, if
	// any, arrive later through the host's own IPC channel and reach the
	// Agent via Server.Resolve.
	Eval(scriptText string) error
}

// Host is the app-level directory of windows the Agent drives.
type Host interface {
	// WebviewWindows returns every known window keyed by label. Map order
	// carries no meaning; Server.resolveWindow sorts the labels itself
	// when it falls back to a default window.
	WebviewWindows() map[string]Window

	// NewWindow creates a window with the given label, initial URL and
	// logical size, and returns it once created.
	NewWindow(label, url string, w, h float64) (Window, error)
}

package fakehost

import "testing"

func TestWindowEvalRecordsScript(t *testing.T) {
	var seen []string
	win := NewWindow("main", func(script string) { seen = append(seen, script) })

	if err := win.Eval("1+1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(win.Evaluated) != 1 || win.Evaluated[0] != "1+1" {
		t.Errorf("expected Evaluated to record the script, got %v", win.Evaluated)
	}
	if len(seen) != 1 || seen[0] != "1+1" {
		t.Errorf("expected the registered callback to fire, got %v", seen)
	}
}

func TestWindowInnerPositionInset(t *testing.T) {
	win := NewWindow("main", nil)
	if err := win.SetPosition(10, 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ix, iy, err := win.InnerPosition()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ix != 10 || iy != 50 {
		t.Errorf("expected inner position (10, 50), got (%v, %v)", ix, iy)
	}

	ox, oy, err := win.OuterPosition()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ox != 10 || oy != 20 {
		t.Errorf("expected outer position (10, 20), got (%v, %v)", ox, oy)
	}
}

func TestWindowCloseIsNotIdempotent(t *testing.T) {
	win := NewWindow("main", nil)
	if win.IsClosed() {
		t.Fatal("expected a fresh window to not be closed")
	}
	if err := win.Close(); err != nil {
		t.Fatalf("unexpected error on first close: %v", err)
	}
	if !win.IsClosed() {
		t.Error("expected window to be closed after Close")
	}
	if err := win.Close(); err == nil {
		t.Error("expected closing an already-closed window to error")
	}
}

func TestHostAddAndListWindows(t *testing.T) {
	h := NewHost(nil)
	h.AddWindow(NewWindow("main", nil))
	h.AddWindow(NewWindow("settings", nil))

	windows := h.WebviewWindows()
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	if _, ok := windows["main"]; !ok {
		t.Error("expected \"main\" window to be present")
	}
	if _, ok := windows["settings"]; !ok {
		t.Error("expected \"settings\" window to be present")
	}
}

func TestHostNewWindowRejectsDuplicateLabel(t *testing.T) {
	h := NewHost(nil)
	if _, err := h.NewWindow("main", "about:blank", 800, 600); err != nil {
		t.Fatalf("unexpected error creating first window: %v", err)
	}
	if _, err := h.NewWindow("main", "about:blank", 800, 600); err == nil {
		t.Error("expected creating a window with a duplicate label to error")
	}
}

func TestHostNewWindowSize(t *testing.T) {
	h := NewHost(nil)
	win, err := h.NewWindow("main", "about:blank", 1024, 768)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w, ht, err := win.OuterSize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 1024 || ht != 768 {
		t.Errorf("expected size (1024, 768), got (%v, %v)", w, ht)
	}
}

func TestHostOnEvalPropagatesToCreatedWindows(t *testing.T) {
	var seen string
	h := NewHost(func(script string) { seen = script })
	win, err := h.NewWindow("main", "about:blank", 800, 600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := win.Eval("document.title"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "document.title" {
		t.Errorf("expected host-level onEval to be propagated, got %q", seen)
	}
}

package bridge

import (
	"strings"
	"testing"
)

func TestInitDeclaresNamespaceOnce(t *testing.T) {
	if !strings.Contains(Init, "if (window."+Namespace+") return;") {
		t.Error("expected Init to guard against double-injection via the namespace property")
	}
}

func TestInitWiresResolveHook(t *testing.T) {
	if !strings.Contains(Init, "window."+ResolveHookName+"(id, value);") {
		t.Error("expected resolve() to forward to the host-provided resolve hook")
	}
}

func TestInitInterceptsAllThreeDialogTypes(t *testing.T) {
	for _, fn := range []string{"window.alert", "window.confirm", "window.prompt"} {
		if !strings.Contains(Init, fn+" = function") {
			t.Errorf("expected Init to override %s", fn)
		}
	}
}

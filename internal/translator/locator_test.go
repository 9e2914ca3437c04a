package translator

import (
	"encoding/json"
	"testing"
)

func rawBody(t *testing.T, m map[string]string) map[string]json.RawMessage {
	t.Helper()
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %q: %v", v, err)
		}
		out[k] = b
	}
	return out
}

func TestExtractLocator(t *testing.T) {
	tests := []struct {
		name      string
		using     string
		value     string
		wantUsing string
		wantValue string
		wantErr   bool
	}{
		{"css selector", "css selector", "#foo", "css", "#foo", false},
		{"tag name", "tag name", "input", "css", "input", false},
		{"xpath", "xpath", "//div[1]", "xpath", "//div[1]", false},
		{"link text", "link text", "Click me", "xpath", "//a[normalize-space()='Click me']", false},
		{"partial link text", "partial link text", "Click", "xpath", "//a[contains(.,'Click')]", false},
		{"unsupported strategy", "id", "foo", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			using, value, err := extractLocator(rawBody(t, map[string]string{"using": tt.using, "value": tt.value}))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if using != tt.wantUsing {
				t.Errorf("expected using %q, got %q", tt.wantUsing, using)
			}
			if value != tt.wantValue {
				t.Errorf("expected value %q, got %q", tt.wantValue, value)
			}
		})
	}
}

func TestExtractLocatorMissingFields(t *testing.T) {
	_, _, err := extractLocator(rawBody(t, map[string]string{"using": "css selector"}))
	if err == nil {
		t.Error("expected an error when 'value' is missing")
	}
}

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"no quotes here", "'no quotes here'"},
		{"it's broken", `concat('it', "'", 's broken')`},
		{"'", `"'"`},
	}
	for _, tt := range tests {
		got := xpathLiteral(tt.in)
		if got != tt.want {
			t.Errorf("xpathLiteral(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLinkTextEscapesEmbeddedQuote(t *testing.T) {
	_, value, err := extractLocator(rawBody(t, map[string]string{"using": "link text", "value": "it's here"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `//a[normalize-space()=concat('it', "'", 's here')]`
	if value != want {
		t.Errorf("expected %q, got %q", want, value)
	}
}

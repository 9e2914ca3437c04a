package translator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractLocator validates and rewrites a W3C `using`/`value` pair into the
// Agent's internal locator shape (§4.3's locator rewriting table).
func extractLocator(body map[string]json.RawMessage) (using, value string, err error) {
	strategy, svalue, ok := stringPair(body, "using", "value")
	if !ok {
		return "", "", errBadRequest("missing 'using' or 'value'")
	}

	switch strategy {
	case "css selector", "tag name":
		return "css", svalue, nil
	case "xpath":
		return "xpath", svalue, nil
	case "link text":
		return "xpath", fmt.Sprintf("//a[normalize-space()=%s]", xpathLiteral(svalue)), nil
	case "partial link text":
		return "xpath", fmt.Sprintf("//a[contains(.,%s)]", xpathLiteral(svalue)), nil
	default:
		return "", "", errBadRequest("unsupported locator strategy: " + strategy)
	}
}

// xpathLiteral renders v as a complete XPath 1.0 string literal expression,
// quotes included. XPath 1.0 has no escape sequence inside a quoted
// literal, so a value containing a single quote is split on each quote and
// rejoined with concat(), alternating single-quoted segments with the
// double-quoted literal "'" for the separators themselves.
func xpathLiteral(v string) string {
	if !strings.Contains(v, "'") {
		return "'" + v + "'"
	}
	segments := strings.Split(v, "'")
	parts := make([]string, 0, len(segments)*2-1)
	for i, segment := range segments {
		if segment != "" {
			parts = append(parts, "'"+segment+"'")
		}
		if i != len(segments)-1 {
			parts = append(parts, `"'"`)
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "concat(" + strings.Join(parts, ", ") + ")"
}

func stringPair(body map[string]json.RawMessage, a, b string) (string, string, bool) {
	av, aok := stringField(body, a)
	bv, bok := stringField(body, b)
	return av, bv, aok && bok
}

func stringField(body map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := body[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

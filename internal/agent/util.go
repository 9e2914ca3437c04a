package agent

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// rawJSON is an alias for json.RawMessage, used throughout handlers.go to
// splice already-encoded JSON fragments (script results, element refs)
// directly into a response envelope without a decode/re-encode round trip.
type rawJSON = json.RawMessage

func newID() string {
	return uuid.NewString()
}

// timeAfter is a thin wrapper over time.After, broken out so call sites read
// like the rest of the select-based timeout plumbing in rendezvous.go.
func timeAfter(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// unmarshalInto decodes raw into dst, used by handlers that must distinguish
// between a few possible shapes for one JSON field (frame/switch's id).
func unmarshalInto(raw json.RawMessage, dst any) error {
	return json.Unmarshal(raw, dst)
}

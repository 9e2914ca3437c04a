package translator

import (
	"encoding/json"
	"net/http"
)

// actionSequence mirrors one W3C input source exactly as the wire format
// the Agent expects (agent.ActionSequence): an id, a source type, and its
// tick-indexed actions, each left as raw JSON until origin-rewriting.
type actionSequence struct {
	Type    string            `json:"type"`
	ID      string            `json:"id"`
	Actions []json.RawMessage `json:"actions"`
}

func (s *Server) handlePerformActions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Actions []actionSequence `json:"actions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeW3CError(w, errBadRequest("invalid request body"))
		return
	}

	for si, seq := range body.Actions {
		for ti, raw := range seq.Actions {
			rewritten, err := rewriteActionOrigin(sess, raw)
			if err != nil {
				writeW3CError(w, err)
				return
			}
			body.Actions[si].Actions[ti] = rewritten
		}
	}

	timeoutMs := sess.getTimeouts().Script
	if _, err := agentPost(r.Context(), sess, "/actions/perform", map[string]any{
		"actions": body.Actions, "timeoutMs": timeoutMs,
	}); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

// rewriteActionOrigin resolves a pointerMove action's W3C element-reference
// origin (the element-6066... key holding an opaque element id) into the
// structural {selector, index, using} triple the Agent's JS snippets expect
// (§5's origin-resolution step, mirrored from perform_actions in the
// reference implementation).
func rewriteActionOrigin(sess *Session, raw json.RawMessage) (json.RawMessage, error) {
	var action map[string]json.RawMessage
	if err := json.Unmarshal(raw, &action); err != nil {
		// Not an object (or malformed) — leave untouched, the Agent's own
		// per-action decoding will surface any real problem.
		return raw, nil
	}
	originRaw, hasOrigin := action["origin"]
	if !hasOrigin {
		return raw, nil
	}

	var originObj map[string]json.RawMessage
	if err := json.Unmarshal(originRaw, &originObj); err != nil {
		// origin is a bare string ("viewport"/"pointer") — pass through.
		return raw, nil
	}
	idRaw, isElementRef := originObj[elementKey]
	if !isElementRef {
		return raw, nil
	}
	var id string
	if err := json.Unmarshal(idRaw, &id); err != nil {
		return raw, errBadRequest("invalid element reference in action origin")
	}
	ref, ok := sess.resolveElement(id)
	if !ok {
		return raw, errNoElement(id)
	}

	action["origin"] = mustMarshal(map[string]any{
		elementKey: map[string]any{"selector": ref.Selector, "index": ref.Index, "using": ref.Using},
	})
	return mustMarshal(action), nil
}

func mustMarshal(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func (s *Server) handleReleaseActions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if _, err := agentPost(r.Context(), sess, "/actions/release", nil); err != nil {
		writeW3CError(w, err)
		return
	}
	writeW3CValue(w, http.StatusOK, nil)
}

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ActionSequence mirrors one W3C input source: an id, a source type
// ("key"|"pointer"|"wheel"|"none"), and its tick-indexed actions.
type ActionSequence struct {
	Type    string           `json:"type"`
	ID      string           `json:"id"`
	Actions []json.RawMessage `json:"actions"`
}

// performActions runs the W3C actions tick algorithm: for each tick,
// collect one JS snippet per input source, evaluate the concatenation in a
// single round trip, then sleep the tick's pause duration on the host
// side before moving on.
func (s *Server) performActions(ctx context.Context, sequences []ActionSequence) error {
	tickCount := 0
	for _, seq := range sequences {
		if len(seq.Actions) > tickCount {
			tickCount = len(seq.Actions)
		}
	}

	for tick := 0; tick < tickCount; tick++ {
		var parts []string
		pauseMs := int64(0)

		for _, seq := range sequences {
			if tick >= len(seq.Actions) {
				continue
			}
			var action map[string]any
			if err := json.Unmarshal(seq.Actions[tick], &action); err != nil {
				continue
			}
			actionType, _ := action["type"].(string)

			switch {
			case seq.Type == "key" && actionType == "keyDown":
				parts = append(parts, keyEventSnippet("keydown", stringField(action, "value")))
			case seq.Type == "key" && actionType == "keyUp":
				parts = append(parts, keyEventSnippet("keyup", stringField(action, "value")))
			case seq.Type == "pointer" && actionType == "pointerMove":
				parts = append(parts, pointerMoveSnippets(action)...)
			case seq.Type == "pointer" && actionType == "pointerDown":
				parts = append(parts, pointerButtonSnippet("mousedown", action, false))
			case seq.Type == "pointer" && actionType == "pointerUp":
				parts = append(parts, pointerButtonSnippet("mouseup", action, true))
			case seq.Type == "wheel" && actionType == "scroll":
				parts = append(parts, wheelSnippet(action))
			case actionType == "pause":
				if d := int64Field(action, "duration"); d > pauseMs {
					pauseMs = d
				}
			}
		}

		if len(parts) > 0 {
			script := strings.Join(parts, "") + "return null"
			if _, err := s.eval(ctx, script, 0); err != nil {
				return err
			}
		}

		if pauseMs > 0 {
			timer := time.NewTimer(time.Duration(pauseMs) * time.Millisecond)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}

	return nil
}

func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func int64Field(m map[string]any, key string) int64 {
	v, ok := m[key].(float64)
	if !ok {
		return 0
	}
	return int64(v)
}

func keyEventSnippet(eventName, key string) string {
	return fmt.Sprintf(
		"(function(){var k=%s;"+
			"var code=k.length===1?'Key'+k.toUpperCase():k;"+
			"var tgt=document.activeElement||document.body;"+
			"tgt.dispatchEvent(new KeyboardEvent(%s,"+
			"{key:k,code:code,bubbles:true,cancelable:true}))})();",
		jsString(key), jsString(eventName),
	)
}

// pointerMoveSnippets updates the persisted pointer position (on the
// global object, so it survives across eval calls within one window) and
// dispatches a mousemove at the new location.
func pointerMoveSnippets(action map[string]any) []string {
	x := floatField(action, "x")
	y := floatField(action, "y")

	var moveSnippet string
	if originObj, ok := action["origin"].(map[string]any); ok {
		// W3C element-reference origin, already rewritten by the Translator
		// into a structural {selector, index} triple under the reference key.
		for _, v := range originObj {
			elem, ok := v.(map[string]any)
			if !ok {
				continue
			}
			sel := stringField(elem, "selector")
			idx := int64Field(elem, "index")
			moveSnippet = fmt.Sprintf(
				"(function(){var el=document.querySelectorAll(%s)[%d];"+
					"if(el){var r=el.getBoundingClientRect();"+
					"window.__wdPointerX=r.x+r.width/2+%v;"+
					"window.__wdPointerY=r.y+r.height/2+%v;}})();",
				jsString(sel), idx, x, y,
			)
			break
		}
	} else {
		origin, _ := action["origin"].(string)
		switch origin {
		case "pointer":
			moveSnippet = fmt.Sprintf(
				"window.__wdPointerX=(window.__wdPointerX||0)+%v;"+
					"window.__wdPointerY=(window.__wdPointerY||0)+%v;",
				x, y,
			)
		default:
			moveSnippet = fmt.Sprintf("window.__wdPointerX=%v;window.__wdPointerY=%v;", x, y)
		}
	}

	dispatch := "(function(){var tgt=document.elementFromPoint(" +
		"window.__wdPointerX||0,window.__wdPointerY||0)||document.body;" +
		"tgt.dispatchEvent(new MouseEvent('mousemove'," +
		"{clientX:window.__wdPointerX||0,clientY:window.__wdPointerY||0," +
		"bubbles:true,cancelable:true}))})();"

	return []string{moveSnippet, dispatch}
}

func pointerButtonSnippet(eventName string, action map[string]any, alsoClick bool) string {
	button := int64Field(action, "button")
	base := fmt.Sprintf(
		"(function(){var tgt=document.elementFromPoint("+
			"window.__wdPointerX||0,window.__wdPointerY||0)||document.body;"+
			"tgt.dispatchEvent(new MouseEvent(%s,"+
			"{clientX:window.__wdPointerX||0,clientY:window.__wdPointerY||0,"+
			"button:%d,bubbles:true,cancelable:true}))",
		jsString(eventName), button,
	)
	if alsoClick {
		base += fmt.Sprintf(
			";tgt.dispatchEvent(new MouseEvent('click',"+
				"{clientX:window.__wdPointerX||0,clientY:window.__wdPointerY||0,"+
				"button:%d,bubbles:true,cancelable:true}))", button,
		)
	}
	return base + "})();"
}

func wheelSnippet(action map[string]any) string {
	x := floatField(action, "x")
	y := floatField(action, "y")
	dx := floatField(action, "deltaX")
	dy := floatField(action, "deltaY")
	return fmt.Sprintf(
		"(function(){var tgt=document.elementFromPoint(%v,%v)||document.body;"+
			"tgt.dispatchEvent(new WheelEvent('wheel',"+
			"{clientX:%v,clientY:%v,deltaX:%v,deltaY:%v,"+
			"bubbles:true,cancelable:true}))})();",
		x, y, x, y, dx, dy,
	)
}

func floatField(m map[string]any, key string) float64 {
	v, _ := m[key].(float64)
	return v
}

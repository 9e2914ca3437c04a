package agent

import "fmt"

// frameRef identifies one level of the frame stack: the selector and index
// used to locate the iframe element within its parent document.
type frameRef struct {
	selector string
	index    int
}

// framePrefix builds the JS snippet that walks `document` down through the
// frame stack into `__doc`, or the empty string when the stack is empty.
// Mirrors the reference Agent's build_frame_prefix.
func framePrefix(stack []frameRef) string {
	if len(stack) == 0 {
		return ""
	}
	js := "var __doc=document;"
	for _, fr := range stack {
		js += fmt.Sprintf(
			"var __f=__doc.querySelectorAll(%s)[%d];"+
				"if(!__f)throw new Error('frame not found');"+
				"__doc=__f.contentDocument;"+
				"if(!__doc)throw new Error('cannot access frame document');",
			jsString(fr.selector), fr.index,
		)
	}
	return js
}

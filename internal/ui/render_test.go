package ui

import (
	"strings"
	"testing"
)

func TestRenderNarrativeUnescapes(t *testing.T) {
	out := renderNarrative(`<strong>AT&amp;T</strong> said &lt;b&gt; &amp;lt; stays`, 80)
	for _, want := range []string{"AT&T", "said <b>", "&lt; stays"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderNarrative() = %q, missing %q", out, want)
		}
	}
	if strings.Contains(out, "<strong>") {
		t.Errorf("strong tags left in output: %q", out)
	}
}

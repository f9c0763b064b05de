package narrative

import (
	"html"
	"regexp"
	"strings"
)

var (
	boldRe    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	companyRe = regexp.MustCompile(`\[COMPANY:(.*?)\]`)
	personRe  = regexp.MustCompile(`\[PERSON:(.*?)\]`)
	strongTag = regexp.MustCompile(`</?strong>`)
)

// Parsed is a generated response with markup converted and tags pulled out.
type Parsed struct {
	// Text is HTML: the response escaped, with **bold** and every entity tag
	// rendered as <strong>. Those are the only tags it contains.
	Text string
	// Organizations and People are tag names in order of appearance.
	// Repeats are kept; ordering dedupes later.
	Organizations []string
	People        []string
}

// ParseGenerated escapes the response, converts emphasis markup, then
// extracts and strips [COMPANY:Name] and [PERSON:Name] tags. Tag names are
// taken from the unescaped response.
func ParseGenerated(raw string) Parsed {
	raw = strings.TrimSpace(raw)
	p := Parsed{
		Organizations: tagNames(companyRe, raw),
		People:        tagNames(personRe, raw),
	}

	text := html.EscapeString(raw)
	text = boldRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = companyRe.ReplaceAllString(text, "<strong>$1</strong>")
	p.Text = personRe.ReplaceAllString(text, "<strong>$1</strong>")
	return p
}

// PlainText strips the <strong> tags from a parsed narrative and unescapes it.
func PlainText(narrative string) string {
	return html.UnescapeString(strongTag.ReplaceAllString(narrative, ""))
}

func tagNames(re *regexp.Regexp, text string) []string {
	var names []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if name := strings.TrimSpace(m[1]); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Package detect finds lexicon entities mentioned in free-form text.
//
// Matching is lexicon-based: each entry is tested as a case-insensitive
// whole-word pattern, with multi-word names allowing any run of whitespace
// between words. Results follow lexicon declaration order, not position in
// the text.
package detect

import (
	"regexp"
	"strings"

	"github.com/abelbrown/contextrt/internal/lexicon"
)

// Signals is the per-category detection result.
type Signals struct {
	Organizations []string `json:"organizations"`
	People        []string `json:"people"`
}

// Entities flattens signals into organizations followed by people.
func (s Signals) Entities() []lexicon.Entity {
	out := make([]lexicon.Entity, 0, len(s.Organizations)+len(s.People))
	for _, name := range s.Organizations {
		out = append(out, lexicon.Org(name))
	}
	for _, name := range s.People {
		out = append(out, lexicon.Person(name))
	}
	return out
}

// Empty reports whether nothing was detected.
func (s Signals) Empty() bool {
	return len(s.Organizations) == 0 && len(s.People) == 0
}

type matcher struct {
	entry   lexicon.Entry
	pattern *regexp.Regexp
}

// Detector holds precompiled matchers for a lexicon. Safe for concurrent use.
type Detector struct {
	matchers []matcher
}

// New compiles a matcher for every lexicon entry.
func New(lex *lexicon.Lexicon) *Detector {
	entries := lex.Entries()
	d := &Detector{matchers: make([]matcher, 0, len(entries))}
	for _, e := range entries {
		d.matchers = append(d.matchers, matcher{entry: e, pattern: wordPattern(e.Name)})
	}
	return d
}

// wordPattern builds `(?i)\bword1\s+word2\b` for a name.
func wordPattern(name string) *regexp.Regexp {
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b` + strings.Join(words, `\s+`) + `\b`)
}

// Detect returns the lexicon entities mentioned in text. Pure and
// idempotent; an entity appears at most once per category.
func (d *Detector) Detect(text string) Signals {
	var s Signals
	if strings.TrimSpace(text) == "" {
		return s
	}
	for _, m := range d.matchers {
		if !m.pattern.MatchString(text) {
			continue
		}
		switch m.entry.Kind {
		case lexicon.KindOrganization:
			s.Organizations = append(s.Organizations, m.entry.Name)
		case lexicon.KindPerson:
			s.People = append(s.People, m.entry.Name)
		}
	}
	return s
}

// Detect is a convenience for one-off detection against lex.
func Detect(text string, lex *lexicon.Lexicon) Signals {
	return New(lex).Detect(text)
}

package ui

import (
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// State is the controller lifecycle state.
type State int

const (
	StateIdle State = iota
	StatePending
	StateDisplaying
	StateDismissed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateDisplaying:
		return "displaying"
	case StateDismissed:
		return "dismissed"
	default:
		return "unknown"
	}
}

// RequestSession is the request state for one display surface. A new
// generation supersedes every earlier one.
type RequestSession struct {
	Active     bool
	Source     ElementID
	Generation uint64
	State      State
	Text       string
}

// Stale reports whether a response for gen must be dropped.
func (s RequestSession) Stale(gen uint64) bool {
	return !s.Active || gen != s.Generation
}

// SourceKind says how an element exposes its text.
type SourceKind int

const (
	// ValueSource is a single-line input read through its value.
	ValueSource SourceKind = iota
	// TextSource is an editable region read through its text content.
	TextSource
)

// ElementID indexes the controller's elements.
type ElementID int

const (
	ElementInput ElementID = iota
	ElementEditor
	elementCount
)

// element wraps one text-entry widget behind a kind discriminator.
type element struct {
	kind  SourceKind
	input textinput.Model
	area  textarea.Model
}

func newValueElement() element {
	ti := textinput.New()
	ti.Placeholder = "Type a sentence mentioning a company or person..."
	ti.CharLimit = 500
	ti.Prompt = "> "
	return element{kind: ValueSource, input: ti}
}

func newTextElement() element {
	ta := textarea.New()
	ta.Placeholder = "Or write longer text here..."
	ta.ShowLineNumbers = false
	ta.SetHeight(4)
	ta.CharLimit = 2000
	return element{kind: TextSource, area: ta}
}

// Text returns the element's current text.
func (e element) Text() string {
	switch e.kind {
	case TextSource:
		return e.area.Value()
	default:
		return e.input.Value()
	}
}

func (e element) update(msg tea.Msg) (element, tea.Cmd) {
	var cmd tea.Cmd
	switch e.kind {
	case TextSource:
		e.area, cmd = e.area.Update(msg)
	default:
		e.input, cmd = e.input.Update(msg)
	}
	return e, cmd
}

func (e element) focus() (element, tea.Cmd) {
	var cmd tea.Cmd
	switch e.kind {
	case TextSource:
		cmd = e.area.Focus()
	default:
		cmd = e.input.Focus()
	}
	return e, cmd
}

func (e element) blur() element {
	switch e.kind {
	case TextSource:
		e.area.Blur()
	default:
		e.input.Blur()
	}
	return e
}

func (e element) setWidth(w int) element {
	switch e.kind {
	case TextSource:
		e.area.SetWidth(w)
	default:
		e.input.Width = w
	}
	return e
}

func (e element) view() string {
	switch e.kind {
	case TextSource:
		return e.area.View()
	default:
		return e.input.View()
	}
}

// qualifies reports whether text is long enough to request context.
func qualifies(text string, minLength int) bool {
	return utf8.RuneCountInString(text) > minLength
}

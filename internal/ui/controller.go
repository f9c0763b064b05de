package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/contextrt/internal/enrich"
	"github.com/abelbrown/contextrt/internal/lexicon"
	"github.com/abelbrown/contextrt/internal/narrative"
	"github.com/abelbrown/contextrt/internal/otel"
	"github.com/abelbrown/contextrt/internal/pipeline"
	"github.com/abelbrown/contextrt/internal/store"
)

const (
	DefaultDebounce  = time.Second
	DefaultBlurGrace = 200 * time.Millisecond
	DefaultMinLength = 5
)

// Backend runs the pipeline. *pipeline.Service implements it.
type Backend interface {
	GetContext(ctx context.Context, text string) pipeline.Response
	EnrichEntity(ctx context.Context, e lexicon.Entity) enrich.Result
	Settings() store.Settings
}

// Config wires a Controller.
type Config struct {
	Backend   Backend
	Events    *otel.Logger
	Ring      *otel.RingBuffer
	Debounce  time.Duration
	BlurGrace time.Duration
	MinLength int
	// AutoDisplay false requires the trigger key even when the stored
	// settings allow automatic display.
	AutoDisplay bool
}

// Controller is the root Bubble Tea model. It owns the elements and the
// RequestSession; the backend is only reached through commands.
type Controller struct {
	backend   Backend
	events    *otel.Logger
	ring      *otel.RingBuffer
	debounce  time.Duration
	blurGrace time.Duration
	minLength int
	autoCfg   bool

	elements [elementCount]element
	focused  ElementID

	session     RequestSession
	nextGen     uint64
	debounceSeq int
	blurSeq     int

	narrative string
	fallback  bool
	cards     []narrative.Card
	rendered  []string
	spinner   spinner.Model

	debugVisible bool
	width        int
	height       int
}

// NewController creates a Controller with the value element focused.
func NewController(cfg Config) Controller {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.BlurGrace <= 0 {
		cfg.BlurGrace = DefaultBlurGrace
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	c := Controller{
		backend:   cfg.Backend,
		events:    cfg.Events,
		ring:      cfg.Ring,
		debounce:  cfg.Debounce,
		blurGrace: cfg.BlurGrace,
		minLength: cfg.MinLength,
		autoCfg:   cfg.AutoDisplay,
		spinner:   s,
		width:     80,
		height:    24,
	}
	c.elements[ElementInput] = newValueElement()
	c.elements[ElementEditor] = newTextElement()
	c.elements[ElementInput], _ = c.elements[ElementInput].focus()
	return c
}

// Init starts the cursor blink.
func (c Controller) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("contextrt"), textinput.Blink)
}

// Update handles messages.
func (c Controller) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Msg: fmt.Sprintf("%T", msg)})
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width, c.height = msg.Width, msg.Height
		for i := range c.elements {
			c.elements[i] = c.elements[i].setWidth(c.fieldWidth())
		}
		c.rerenderCards()
		return c, nil

	case tea.KeyMsg:
		return c.handleKey(msg)

	case debounceFired:
		if msg.seq != c.debounceSeq || msg.element != c.focused {
			return c, nil
		}
		text := c.elements[msg.element].Text()
		if !qualifies(text, c.minLength) {
			return c, nil
		}
		return c.startRequest(msg.element, text)

	case blurExpired:
		if msg.seq != c.blurSeq || !c.session.Active || c.focused == c.session.Source {
			return c, nil
		}
		c.dismiss("blur")
		return c, nil

	case ContextLoaded:
		return c.handleContext(msg)

	case EnrichmentPublished:
		c.applyEnrichment(msg)
		return c, nil

	case spinner.TickMsg:
		if c.session.State != StatePending {
			return c, nil
		}
		var cmd tea.Cmd
		c.spinner, cmd = c.spinner.Update(msg)
		return c, cmd
	}

	var cmd tea.Cmd
	c.elements[c.focused], cmd = c.elements[c.focused].update(msg)
	return c, cmd
}

func (c Controller) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return c, tea.Quit

	case key.Matches(msg, keys.Debug):
		c.debugVisible = !c.debugVisible
		return c, nil

	case key.Matches(msg, keys.Dismiss):
		if c.session.Active {
			c.dismiss("close")
		}
		return c, nil

	case key.Matches(msg, keys.SwitchFocus):
		return c.switchFocus()

	case key.Matches(msg, keys.Trigger):
		text := c.elements[c.focused].Text()
		if !qualifies(text, c.minLength) || !c.backend.Settings().EnableExtension {
			return c, nil
		}
		c.debounceSeq++
		return c.startRequest(c.focused, text)
	}

	before := c.elements[c.focused].Text()
	var cmd tea.Cmd
	c.elements[c.focused], cmd = c.elements[c.focused].update(msg)
	if c.elements[c.focused].Text() == before {
		return c, cmd
	}
	tick := c.qualifyingEvent(c.focused)
	return c, tea.Batch(cmd, tick)
}

// switchFocus moves focus to the other element. Leaving the session's
// source element starts the blur grace period; the newly focused element
// gets a qualifying focus event.
func (c Controller) switchFocus() (tea.Model, tea.Cmd) {
	prev := c.focused
	c.elements[prev] = c.elements[prev].blur()
	c.focused = (prev + 1) % elementCount

	var cmds []tea.Cmd
	var cmd tea.Cmd
	c.elements[c.focused], cmd = c.elements[c.focused].focus()
	cmds = append(cmds, cmd)

	c.blurSeq++
	if c.session.Active && prev == c.session.Source {
		seq := c.blurSeq
		cmds = append(cmds, tea.Tick(c.blurGrace, func(time.Time) tea.Msg {
			return blurExpired{seq: seq}
		}))
	}
	cmds = append(cmds, c.qualifyingEvent(c.focused))
	return c, tea.Batch(cmds...)
}

// qualifyingEvent restarts the debounce timer for el. It returns nil when
// context is not shown automatically.
func (c *Controller) qualifyingEvent(el ElementID) tea.Cmd {
	if !c.autoDisplay() {
		return nil
	}
	c.debounceSeq++
	seq := c.debounceSeq
	return tea.Tick(c.debounce, func(time.Time) tea.Msg {
		return debounceFired{element: el, seq: seq}
	})
}

func (c Controller) autoDisplay() bool {
	st := c.backend.Settings()
	return c.autoCfg && st.AutoDisplay && st.EnableExtension
}

// startRequest opens a new generation for text and issues the fetch.
func (c Controller) startRequest(el ElementID, text string) (tea.Model, tea.Cmd) {
	c.nextGen++
	c.session = RequestSession{
		Active:     true,
		Source:     el,
		Generation: c.nextGen,
		State:      StatePending,
		Text:       text,
	}
	c.narrative, c.fallback = "", false
	c.cards, c.rendered = nil, nil

	gen, backend := c.nextGen, c.backend
	fetch := func() tea.Msg {
		return ContextLoaded{Generation: gen, Response: backend.GetContext(context.Background(), text)}
	}
	return c, tea.Batch(c.spinner.Tick, fetch)
}

func (c Controller) handleContext(msg ContextLoaded) (tea.Model, tea.Cmd) {
	if c.session.Stale(msg.Generation) {
		c.emit(otel.Event{
			Level:   otel.LevelDebug,
			Kind:    otel.KindRequestStale,
			QueryID: msg.Response.QueryID,
			Extra:   map[string]any{"generation": msg.Generation, "current": c.session.Generation},
		})
		return c, nil
	}

	resp := msg.Response
	c.session.State = StateDisplaying
	c.narrative = resp.Narrative
	if c.narrative == "" && resp.Context != "" && len(resp.Cards) == 0 {
		c.narrative = resp.Context
	}
	c.fallback = resp.Fallback
	if !resp.Success {
		c.narrative, c.fallback = resp.Error, true
	}
	c.cards = resp.Cards
	c.rerenderCards()

	var cmds []tea.Cmd
	for _, card := range c.cards {
		if card.Loading && card.Entity.Kind == lexicon.KindPerson {
			cmds = append(cmds, c.lateFetch(msg.Generation, card.Entity))
		}
	}
	return c, tea.Batch(cmds...)
}

// lateFetch enriches one entity that reached the surface without data.
func (c Controller) lateFetch(gen uint64, e lexicon.Entity) tea.Cmd {
	backend := c.backend
	return func() tea.Msg {
		return EnrichmentPublished{Generation: gen, Entity: e, Result: backend.EnrichEntity(context.Background(), e)}
	}
}

// applyEnrichment patches the card for msg.Entity and redraws only it.
func (c *Controller) applyEnrichment(msg EnrichmentPublished) {
	if c.session.Stale(msg.Generation) {
		return
	}
	for i, card := range c.cards {
		if card.Entity != msg.Entity {
			continue
		}
		patched := card.Apply(msg.Result)
		cards := make([]narrative.Card, len(c.cards))
		copy(cards, c.cards)
		cards[i] = patched
		c.cards = cards

		rendered := make([]string, len(c.rendered))
		copy(rendered, c.rendered)
		rendered[i] = renderCard(patched, c.surfaceWidth())
		c.rendered = rendered
		return
	}
}

func (c *Controller) dismiss(reason string) {
	c.session.Active = false
	c.session.State = StateDismissed
	c.cards, c.rendered = nil, nil
	c.narrative = ""
	c.emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindDismiss,
		Msg:   reason,
		Extra: map[string]any{"generation": c.session.Generation},
	})
}

func (c *Controller) rerenderCards() {
	if len(c.cards) == 0 {
		c.rendered = nil
		return
	}
	c.rendered = make([]string, len(c.cards))
	for i, card := range c.cards {
		c.rendered[i] = renderCard(card, c.surfaceWidth())
	}
}

func (c Controller) emit(ev otel.Event) {
	if c.events == nil {
		return
	}
	ev.Comp = "ui"
	c.events.Emit(ev)
}

func (c Controller) fieldWidth() int {
	w := c.width - FieldStyle.GetHorizontalFrameSize()
	if w < 20 {
		w = 20
	}
	return w
}

func (c Controller) surfaceWidth() int {
	w := c.width - SurfaceStyle.GetHorizontalFrameSize()
	if w < 24 {
		w = 24
	}
	return w
}

// View renders the elements, the context surface, and the status bar.
func (c Controller) View() string {
	if c.debugVisible {
		return debugOverlay(c.ring, c.width, c.height-1) + "\n" + debugStatusBar(c.width)
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("contextrt"))
	b.WriteString("\n")
	for i := range c.elements {
		style := FieldStyle
		if ElementID(i) == c.focused {
			style = FocusedFieldStyle
		}
		b.WriteString(style.Width(c.fieldWidth()).Render(c.elements[i].view()))
		b.WriteString("\n")
	}

	if surface := c.surface(); surface != "" {
		b.WriteString(SurfaceStyle.Width(c.surfaceWidth()).Render(surface))
		b.WriteString("\n")
	}
	b.WriteString(renderStatusBar(c.session, c.autoDisplay(), c.width))
	return b.String()
}

func (c Controller) surface() string {
	if !c.session.Active {
		return ""
	}
	switch c.session.State {
	case StatePending:
		return c.spinner.View() + " Getting context..."
	case StateDisplaying:
		if c.narrative == "" && len(c.rendered) == 0 {
			return CardMuted.Render("No context for this text.")
		}
		parts := []string{renderNarrative(c.narrative, c.surfaceWidth())}
		if c.fallback {
			parts[0] = ErrorStyle.Render(c.narrative)
		}
		if len(c.rendered) > 0 {
			parts = append(parts, MentionedHeader.Render("Mentioned:"))
			parts = append(parts, c.rendered...)
		}
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}
	return ""
}

// Session returns the current request session.
func (c Controller) Session() RequestSession {
	return c.session
}

// Cards returns the cards on the surface.
func (c Controller) Cards() []narrative.Card {
	return c.cards
}

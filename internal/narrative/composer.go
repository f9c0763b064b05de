// Package narrative turns generated text and enrichment results into the
// context shown to the user: an annotated narrative plus one card per
// entity, ordered so that what the user typed outranks what the model added.
package narrative

import (
	"context"
	"time"

	"github.com/abelbrown/contextrt/internal/brain"
	"github.com/abelbrown/contextrt/internal/detect"
	"github.com/abelbrown/contextrt/internal/enrich"
	"github.com/abelbrown/contextrt/internal/lexicon"
	"github.com/abelbrown/contextrt/internal/otel"
)

const (
	DefaultMaxTokens   = 200
	DefaultTemperature = 0.4
	DefaultTimeout     = 30 * time.Second
)

// Composition is the result of one compose run.
type Composition struct {
	// Narrative is the annotated generated text, or the fallback string.
	Narrative string           `json:"narrative"`
	Entities  []lexicon.Entity `json:"entities,omitempty"`
	Cards     []Card           `json:"cards,omitempty"`
	// Fallback is set when generation failed; Entities and Cards are empty.
	Fallback bool   `json:"fallback,omitempty"`
	Model    string `json:"model,omitempty"`
}

// HTML renders the narrative with its "Mentioned:" section.
func (c Composition) HTML() string {
	return RenderHTML(c.Narrative, c.Cards)
}

// Composer runs the generate, parse, reconcile, and card steps.
type Composer struct {
	provider    brain.Provider
	detector    *detect.Detector
	maxTokens   int
	temperature float64
	timeout     time.Duration
	events      *otel.Logger
}

// Option customizes a Composer.
type Option func(*Composer)

// WithGeneration sets max_new_tokens and temperature.
func WithGeneration(maxTokens int, temperature float64) Option {
	return func(c *Composer) {
		if maxTokens > 0 {
			c.maxTokens = maxTokens
		}
		if temperature >= 0 {
			c.temperature = temperature
		}
	}
}

// WithTimeout bounds the generation call.
func WithTimeout(d time.Duration) Option {
	return func(c *Composer) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithEvents emits generate.* and compose.complete events to l.
func WithEvents(l *otel.Logger) Option {
	return func(c *Composer) {
		c.events = l
	}
}

// NewComposer creates a Composer. detector is reused to re-scan the
// generated narrative.
func NewComposer(provider brain.Provider, detector *detect.Detector, opts ...Option) *Composer {
	c := &Composer{
		provider:    provider,
		detector:    detector,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose generates a narrative for text. pre holds the entities detected in
// text and cache their enrichment results. Any generation failure yields
// FallbackNarrative and no cards.
func (c *Composer) Compose(ctx context.Context, text string, pre detect.Signals, cache *enrich.Cache) Composition {
	start := time.Now()
	c.emit(ctx, otel.Event{Level: otel.LevelInfo, Kind: otel.KindGenerateStart, Msg: c.provider.Name()})

	genCtx, cancel := context.WithTimeout(ctx, c.timeout)
	resp, err := c.provider.Generate(genCtx, brain.Request{
		Prompt:      BuildPrompt(text),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	cancel()
	if err != nil {
		c.emit(ctx, otel.Event{Level: otel.LevelError, Kind: otel.KindGenerateError, Err: err.Error(), Dur: time.Since(start)})
		return Composition{Narrative: FallbackNarrative(text), Fallback: true}
	}
	c.emit(ctx, otel.Event{Level: otel.LevelInfo, Kind: otel.KindGenerateComplete, Msg: resp.Model, Dur: time.Since(start)})

	parsed := ParseGenerated(resp.Content)
	order := CanonicalOrder(pre, parsed, c.detector.Detect(PlainText(parsed.Text)))

	comp := Composition{
		Narrative: parsed.Text,
		Entities:  order,
		Cards:     BuildCards(order, cache),
		Model:     resp.Model,
	}
	c.emit(ctx, otel.Event{Level: otel.LevelInfo, Kind: otel.KindComposeComplete, Count: len(order), Dur: time.Since(start)})
	return comp
}

func (c *Composer) emit(ctx context.Context, ev otel.Event) {
	if c.events == nil {
		return
	}
	ev.Comp = "narrative"
	ev.QueryID = otel.QueryIDFrom(ctx)
	c.events.Emit(ev)
}

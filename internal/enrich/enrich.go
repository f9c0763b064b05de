// Package enrich fetches short knowledge-source summaries for detected
// entities. Every entity gets exactly one Result; fetch failures become
// placeholder summaries and never fail the batch.
package enrich

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/contextrt/internal/lexicon"
	"github.com/abelbrown/contextrt/internal/otel"
	"github.com/abelbrown/contextrt/internal/wiki"
)

const (
	// DefaultSummaryLimit is the hard cutoff, in characters, for summaries.
	DefaultSummaryLimit = 200
	// DefaultCallTimeout bounds each search and details call.
	DefaultCallTimeout = 10 * time.Second

	orgSearchSuffix = " company"

	stageSearch  = "search"
	stageDetails = "details"
)

// Source is the knowledge source. *wiki.Client implements it.
type Source interface {
	Search(ctx context.Context, term string) (int, error)
	Details(ctx context.Context, pageID int) (wiki.Page, error)
}

// Result is the enrichment for one entity. ImageURL is empty when the
// source has no image.
type Result struct {
	Summary  string `json:"summary"`
	ImageURL string `json:"imageUrl,omitempty"`
	// Fallback marks placeholder summaries produced from a failed fetch.
	Fallback bool `json:"fallback,omitempty"`
}

// Orchestrator runs enrichment fetches. It keeps no state between calls.
type Orchestrator struct {
	source       Source
	callTimeout  time.Duration
	summaryLimit int
	concurrency  int
	events       *otel.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithCallTimeout bounds each external call. Non-positive values are ignored.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.callTimeout = d
		}
	}
}

// WithSummaryLimit sets the summary cutoff. Non-positive values are ignored.
func WithSummaryLimit(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.summaryLimit = n
		}
	}
}

// WithConcurrency caps in-flight entity fetches. Zero means unlimited, so
// every fetch of a batch is issued before any is awaited.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		o.concurrency = n
	}
}

// WithEvents emits enrich.* events to l.
func WithEvents(l *otel.Logger) Option {
	return func(o *Orchestrator) {
		o.events = l
	}
}

// New creates an Orchestrator over source.
func New(source Source, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:       source,
		callTimeout:  DefaultCallTimeout,
		summaryLimit: DefaultSummaryLimit,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enrich fetches all entities concurrently and returns once every fetch has
// finished or fallen back. The result has exactly one entry per distinct entity.
func (o *Orchestrator) Enrich(ctx context.Context, entities []lexicon.Entity) map[lexicon.Entity]Result {
	cache := NewCache()
	o.Fill(ctx, cache, entities)

	out := make(map[lexicon.Entity]Result, len(entities))
	for _, e := range entities {
		out[e], _ = cache.Get(e)
	}
	return out
}

// Fill enriches the entities missing from cache and stores their results.
// Each goroutine writes only its own entity's key.
func (o *Orchestrator) Fill(ctx context.Context, cache *Cache, entities []lexicon.Entity) {
	pending := dedupe(cache.Missing(entities))
	if len(pending) == 0 {
		return
	}

	start := time.Now()
	o.emit(ctx, otel.Event{Level: otel.LevelInfo, Kind: otel.KindEnrichStart, Count: len(pending)})

	var g errgroup.Group
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}
	for _, e := range pending {
		g.Go(func() error {
			cache.Put(e, o.EnrichOne(ctx, e))
			return nil // failures are already folded into the Result
		})
	}
	_ = g.Wait()

	o.emit(ctx, otel.Event{Level: otel.LevelInfo, Kind: otel.KindEnrichComplete, Count: len(pending), Dur: time.Since(start)})
}

// EnrichOne runs the search-then-details pair for a single entity.
func (o *Orchestrator) EnrichOne(ctx context.Context, e lexicon.Entity) Result {
	term := e.Name
	if e.Kind == lexicon.KindOrganization {
		term += orgSearchSuffix
	}

	searchCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	pageID, err := o.source.Search(searchCtx, term)
	cancel()
	if err != nil {
		return o.fallback(ctx, e, stageSearch, err)
	}

	detailsCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	page, err := o.source.Details(detailsCtx, pageID)
	cancel()
	if err != nil {
		return o.fallback(ctx, e, stageDetails, err)
	}

	r := Result{ImageURL: page.Thumbnail}
	if page.Extract == "" {
		r.Summary = fallbackText(msgNoExtract, e.Name)
	} else {
		first, _, _ := strings.Cut(page.Extract, "\n")
		r.Summary = Truncate(first, o.summaryLimit)
	}
	return r
}

func (o *Orchestrator) fallback(ctx context.Context, e lexicon.Entity, stage string, err error) Result {
	o.emit(ctx, otel.Event{
		Level:  otel.LevelWarn,
		Kind:   otel.KindEnrichFallback,
		Entity: e.Key(),
		Stage:  stage,
		Err:    err.Error(),
	})
	return Result{Summary: fallbackSummary(e.Name, stage, err), Fallback: true}
}

func (o *Orchestrator) emit(ctx context.Context, ev otel.Event) {
	if o.events == nil {
		return
	}
	ev.Comp = "enrich"
	ev.QueryID = otel.QueryIDFrom(ctx)
	o.events.Emit(ev)
}

// Truncate cuts s to limit characters and appends "..." when it was longer.
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

func dedupe(entities []lexicon.Entity) []lexicon.Entity {
	seen := make(map[lexicon.Entity]bool, len(entities))
	out := entities[:0:0]
	for _, e := range entities {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

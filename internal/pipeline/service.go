// Package pipeline dispatches inbound messages to the context pipeline:
// detection, enrichment, composition, and card filtering.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/abelbrown/contextrt/internal/detect"
	"github.com/abelbrown/contextrt/internal/enrich"
	"github.com/abelbrown/contextrt/internal/lexicon"
	"github.com/abelbrown/contextrt/internal/logging"
	"github.com/abelbrown/contextrt/internal/narrative"
	"github.com/abelbrown/contextrt/internal/otel"
	"github.com/abelbrown/contextrt/internal/store"
)

// DefaultMinTextLength is the shortest text that triggers the pipeline.
const DefaultMinTextLength = 5

// Enricher fetches enrichment. *enrich.Orchestrator implements it.
type Enricher interface {
	Fill(ctx context.Context, cache *enrich.Cache, entities []lexicon.Entity)
	EnrichOne(ctx context.Context, e lexicon.Entity) enrich.Result
}

// Composer writes the narrative. *narrative.Composer implements it.
type Composer interface {
	Compose(ctx context.Context, text string, pre detect.Signals, cache *enrich.Cache) narrative.Composition
}

// SettingsStore persists settings and the request journal. *store.Store
// implements it.
type SettingsStore interface {
	LoadSettings() (store.Settings, error)
	SaveSettings(store.Settings) error
	RecordRequest(store.RequestRecord) error
}

// Service handles messages. Safe for concurrent use.
type Service struct {
	detector *detect.Detector
	enricher Enricher
	composer Composer
	store    SettingsStore
	events   *otel.Logger
	minLen   int

	mu       sync.RWMutex
	settings store.Settings
}

// Option customizes a Service.
type Option func(*Service)

// WithStore persists settings and journals requests to s.
func WithStore(s SettingsStore) Option {
	return func(svc *Service) {
		svc.store = s
	}
}

// WithEvents emits request.* events to l.
func WithEvents(l *otel.Logger) Option {
	return func(svc *Service) {
		svc.events = l
	}
}

// WithMinTextLength sets the short-text cutoff.
func WithMinTextLength(n int) Option {
	return func(svc *Service) {
		if n >= 0 {
			svc.minLen = n
		}
	}
}

// New creates a Service. Settings are loaded from the store when one is
// configured, otherwise they start at store.DefaultSettings.
func New(detector *detect.Detector, enricher Enricher, composer Composer, opts ...Option) *Service {
	svc := &Service{
		detector: detector,
		enricher: enricher,
		composer: composer,
		minLen:   DefaultMinTextLength,
		settings: store.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.store != nil {
		st, err := svc.store.LoadSettings()
		if err != nil {
			logging.Warn("load settings failed, using defaults", "err", err)
		} else {
			svc.settings = st
		}
	}
	return svc
}

// Handle dispatches msg by type. Malformed messages get Success false;
// everything else succeeds, with failures folded into placeholder text.
func (s *Service) Handle(ctx context.Context, msg Message) Response {
	switch msg.Type {
	case TypeGetContext:
		return s.GetContext(ctx, msg.Text)
	case TypeUpdateSettings:
		if msg.Settings == nil {
			return failure("settings required")
		}
		s.UpdateSettings(*msg.Settings)
		return Response{Success: true}
	case TypeEnrichEntity:
		if msg.Entity == nil || !msg.Entity.Kind.Valid() || msg.Entity.Name == "" {
			return failure("entity with kind and name required")
		}
		r := s.EnrichEntity(ctx, *msg.Entity)
		return Response{Success: true, Result: &r}
	case "":
		return failure("message type required")
	default:
		return failure(fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

// Settings returns the current settings.
func (s *Service) Settings() store.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings replaces the settings and persists them. A store failure
// is logged; the new settings still apply for this process.
func (s *Service) UpdateSettings(st store.Settings) {
	s.mu.Lock()
	s.settings = st
	s.mu.Unlock()

	s.emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindSettingsUpdate,
		Extra: map[string]any{
			"enableExtension":  st.EnableExtension,
			"showCompanyCards": st.ShowCompanyCards,
			"showPersonCards":  st.ShowPersonCards,
			"autoDisplay":      st.AutoDisplay,
		},
	})
	if s.store == nil {
		return
	}
	if err := s.store.SaveSettings(st); err != nil {
		logging.Error("save settings", "err", err)
		s.emit(otel.Event{Level: otel.LevelError, Kind: otel.KindStoreError, Err: err.Error()})
	}
}

// GetContext runs the full pipeline for text and renders the result.
// Text shorter than the minimum, or any text while the extension is
// disabled, yields an empty context without external calls.
func (s *Service) GetContext(ctx context.Context, text string) Response {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < s.minLen {
		return Response{Success: true}
	}
	settings := s.Settings()
	if !settings.EnableExtension {
		return Response{Success: true}
	}

	start := time.Now()
	qid := otel.NewQueryID()
	ctx = otel.WithQueryID(ctx, qid)
	s.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindRequestStart, QueryID: qid})

	signals := s.detector.Detect(text)
	entities := signals.Entities()
	s.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindDetectComplete, QueryID: qid, Count: len(entities)})

	cache := enrich.NewCache()
	s.enricher.Fill(ctx, cache, entities)

	comp := s.composer.Compose(ctx, text, signals, cache)
	cards := FilterCards(comp.Cards, settings)

	dur := time.Since(start)
	s.journal(store.RequestRecord{
		ID:          qid,
		TextPrefix:  text,
		EntityCount: len(comp.Entities),
		Fallback:    comp.Fallback,
		Duration:    dur,
	})
	s.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindRequestComplete, QueryID: qid, Count: len(cards), Dur: dur})

	return Response{
		Success:   true,
		Context:   narrative.RenderHTML(comp.Narrative, cards),
		Narrative: comp.Narrative,
		Cards:     cards,
		Fallback:  comp.Fallback,
		QueryID:   qid,
	}
}

// EnrichEntity fetches one entity on its own. Used for cards that were
// rendered before their data arrived.
func (s *Service) EnrichEntity(ctx context.Context, e lexicon.Entity) enrich.Result {
	return s.enricher.EnrichOne(ctx, e)
}

// FilterCards drops the card kinds the settings hide.
func FilterCards(cards []narrative.Card, st store.Settings) []narrative.Card {
	if st.ShowCompanyCards && st.ShowPersonCards {
		return cards
	}
	out := make([]narrative.Card, 0, len(cards))
	for _, c := range cards {
		switch c.Entity.Kind {
		case lexicon.KindOrganization:
			if !st.ShowCompanyCards {
				continue
			}
		case lexicon.KindPerson:
			if !st.ShowPersonCards {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

func (s *Service) journal(rec store.RequestRecord) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordRequest(rec); err != nil {
		logging.Warn("journal request", "qid", rec.ID, "err", err)
		s.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindStoreError, QueryID: rec.ID, Err: err.Error()})
	}
}

func (s *Service) emit(ev otel.Event) {
	if s.events == nil {
		return
	}
	ev.Comp = "pipeline"
	s.events.Emit(ev)
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/abelbrown/contextrt/internal/brain"
	"github.com/abelbrown/contextrt/internal/config"
	"github.com/abelbrown/contextrt/internal/detect"
	"github.com/abelbrown/contextrt/internal/enrich"
	"github.com/abelbrown/contextrt/internal/lexicon"
	"github.com/abelbrown/contextrt/internal/logging"
	"github.com/abelbrown/contextrt/internal/narrative"
	"github.com/abelbrown/contextrt/internal/otel"
	"github.com/abelbrown/contextrt/internal/pipeline"
	"github.com/abelbrown/contextrt/internal/store"
	"github.com/abelbrown/contextrt/internal/wiki"
)

// runtime is the wired pipeline shared by every command that runs it.
type runtime struct {
	service *pipeline.Service
	store   *store.Store
	events  *otel.Logger
	ring    *otel.RingBuffer

	eventsFile *os.File
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	rt := &runtime{ring: otel.NewRingBuffer(256)}

	f, err := os.OpenFile(cfg.EventsPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	rt.eventsFile = f
	rt.events = otel.NewLogger(f)
	rt.events.SetRingBuffer(rt.ring)

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.store = st

	lex := lexicon.Default()
	if cfg.Paths.LexiconFile != "" {
		extra, err := lexicon.Load(cfg.Paths.LexiconFile)
		if err != nil {
			rt.Close()
			return nil, err
		}
		lex = lex.Merge(extra...)
	}
	detector := detect.New(lex)

	client := wiki.NewClient(
		wiki.WithEndpoint(cfg.Knowledge.Endpoint),
		wiki.WithUserAgent(cfg.Knowledge.UserAgent),
		wiki.WithRateLimit(cfg.Knowledge.RequestsPerSecond, cfg.Knowledge.Burst),
		wiki.WithRetryBackoff(retryBackoffs(cfg.Knowledge.MaxRetries)...),
	)
	orchestrator := enrich.New(client,
		enrich.WithCallTimeout(cfg.CallTimeout()),
		enrich.WithSummaryLimit(cfg.Knowledge.SummaryLimit),
		enrich.WithConcurrency(cfg.Knowledge.Concurrency),
		enrich.WithEvents(rt.events),
	)

	providers := brain.NewManager(brain.Settings{
		Preferred:      cfg.Generator.Provider,
		Endpoint:       cfg.Generator.Endpoint,
		APIKey:         cfg.Generator.APIKey,
		Model:          cfg.Generator.Model,
		OllamaEndpoint: cfg.Generator.OllamaEndpoint,
		OllamaModel:    cfg.Generator.OllamaModel,
		Timeout:        cfg.GeneratorTimeout(),
	})
	if providers.GetAvailable() == nil {
		logging.Warn("no generator configured; every narrative will be the fallback",
			"hint", "set HF_API_TOKEN or OLLAMA_MODEL")
	}
	composer := narrative.NewComposer(providers, detector,
		narrative.WithGeneration(cfg.Generator.MaxNewTokens, cfg.Generator.Temperature),
		narrative.WithTimeout(cfg.GeneratorTimeout()),
		narrative.WithEvents(rt.events),
	)

	rt.service = pipeline.New(detector, orchestrator, composer,
		pipeline.WithStore(st),
		pipeline.WithEvents(rt.events),
		pipeline.WithMinTextLength(cfg.Pipeline.MinTextLength),
	)

	rt.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Comp: "main", Count: lex.Len()})
	return rt, nil
}

// retryBackoffs returns n delays growing 3x from 500ms.
func retryBackoffs(n int) []time.Duration {
	delays := make([]time.Duration, 0, n)
	d := 500 * time.Millisecond
	for i := 0; i < n; i++ {
		delays = append(delays, d)
		d *= 3
	}
	return delays
}

func (rt *runtime) Close() {
	if rt.events != nil {
		rt.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "main"})
		rt.events.Close()
	}
	if rt.eventsFile != nil {
		rt.eventsFile.Close()
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			logging.Warn("close store", "err", err)
		}
	}
}

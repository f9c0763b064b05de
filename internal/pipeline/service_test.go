package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abelbrown/contextrt/internal/brain"
	"github.com/abelbrown/contextrt/internal/detect"
	"github.com/abelbrown/contextrt/internal/enrich"
	"github.com/abelbrown/contextrt/internal/lexicon"
	"github.com/abelbrown/contextrt/internal/narrative"
	"github.com/abelbrown/contextrt/internal/services"
	"github.com/abelbrown/contextrt/internal/store"
)

type fakeEnricher struct {
	mu      sync.Mutex
	filled  [][]lexicon.Entity
	singles []lexicon.Entity
}

func (f *fakeEnricher) Fill(ctx context.Context, cache *enrich.Cache, entities []lexicon.Entity) {
	f.mu.Lock()
	f.filled = append(f.filled, entities)
	f.mu.Unlock()
	for _, e := range entities {
		cache.Put(e, enrich.Result{Summary: "About " + e.Name})
	}
}

func (f *fakeEnricher) EnrichOne(ctx context.Context, e lexicon.Entity) enrich.Result {
	f.mu.Lock()
	f.singles = append(f.singles, e)
	f.mu.Unlock()
	return enrich.Result{Summary: "Late " + e.Name, ImageURL: "https://img/" + e.Name}
}

type fakeProvider struct {
	content string
	err     error
	calls   int
}

func (p *fakeProvider) Name() string    { return "fake" }
func (p *fakeProvider) Available() bool { return true }
func (p *fakeProvider) Generate(ctx context.Context, req brain.Request) (brain.Response, error) {
	p.calls++
	if p.err != nil {
		return brain.Response{}, p.err
	}
	return brain.Response{Content: p.content, Model: "fake-model"}, nil
}

type fakeStore struct {
	settings *store.Settings
	saved    []store.Settings
	records  []store.RequestRecord
	saveErr  error
}

func (s *fakeStore) LoadSettings() (store.Settings, error) {
	if s.settings == nil {
		return store.DefaultSettings(), nil
	}
	return *s.settings, nil
}

func (s *fakeStore) SaveSettings(st store.Settings) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, st)
	return nil
}

func (s *fakeStore) RecordRequest(rec store.RequestRecord) error {
	s.records = append(s.records, rec)
	return nil
}

type fixture struct {
	svc      *Service
	enricher *fakeEnricher
	provider *fakeProvider
	store    *fakeStore
}

func newFixture(content string, genErr error) fixture {
	det := detect.New(lexicon.Default())
	f := fixture{
		enricher: &fakeEnricher{},
		provider: &fakeProvider{content: content, err: genErr},
		store:    &fakeStore{},
	}
	comp := narrative.NewComposer(f.provider, det)
	f.svc = New(det, f.enricher, comp, WithStore(f.store))
	return f
}

func entityNames(cards []narrative.Card) []string {
	var names []string
	for _, c := range cards {
		names = append(names, c.Entity.Name)
	}
	return names
}

func TestShortTextSkipsPipeline(t *testing.T) {
	f := newFixture("unused", nil)

	for _, text := range []string{"", "Tes", "  Tes  ", "abcd"} {
		resp := f.svc.Handle(context.Background(), Message{Type: TypeGetContext, Text: text})
		if !resp.Success || resp.Context != "" || len(resp.Cards) != 0 {
			t.Errorf("GetContext(%q) = %+v, want empty success", text, resp)
		}
	}
	if f.provider.calls != 0 || len(f.enricher.filled) != 0 {
		t.Errorf("external calls made: provider=%d enrich=%d", f.provider.calls, len(f.enricher.filled))
	}
	if len(f.store.records) != 0 {
		t.Errorf("short text journaled: %v", f.store.records)
	}
}

func TestGetContextComposesCards(t *testing.T) {
	f := newFixture("**Tesla** stock is volatile. [COMPANY:Tesla] [PERSON:Elon Musk]", nil)

	resp := f.svc.GetContext(context.Background(), "Tesla is expanding")
	if !resp.Success || resp.Fallback {
		t.Fatalf("GetContext() = %+v", resp)
	}
	if diff := cmp.Diff([][]lexicon.Entity{{lexicon.Org("Tesla")}}, f.enricher.filled); diff != "" {
		t.Errorf("prefetch batch mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Tesla", "Elon Musk"}, entityNames(resp.Cards)); diff != "" {
		t.Errorf("card order mismatch (-want +got):\n%s", diff)
	}
	if resp.Cards[0].Summary != "About Tesla" || resp.Cards[0].Quote == nil {
		t.Errorf("Tesla card = %+v", resp.Cards[0])
	}
	if !resp.Cards[1].Loading || resp.Cards[1].Summary != "Loading information about Elon Musk..." {
		t.Errorf("Elon Musk card = %+v, want loading placeholder", resp.Cards[1])
	}
	for _, want := range []string{"<strong>Tesla</strong> stock is volatile.", "Mentioned:", "company-card", `data-loading="true"`} {
		if !strings.Contains(resp.Context, want) {
			t.Errorf("context missing %q:\n%s", want, resp.Context)
		}
	}
	if resp.QueryID == "" {
		t.Error("QueryID not set")
	}

	if len(f.store.records) != 1 {
		t.Fatalf("records = %d, want 1", len(f.store.records))
	}
	rec := f.store.records[0]
	if rec.ID != resp.QueryID || rec.TextPrefix != "Tesla is expanding" || rec.EntityCount != 2 || rec.Fallback {
		t.Errorf("journal record = %+v", rec)
	}
}

func TestGetContextGenerationFailure(t *testing.T) {
	genErr := services.Wrap(services.ErrUpstream, "brain", "generate", "503", errors.New("unavailable"))
	f := newFixture("", genErr)

	resp := f.svc.GetContext(context.Background(), "Tesla is expanding")
	want := `We couldn't fetch context right now. You were typing about "Tesla is expanding..."`
	if !resp.Success || resp.Context != want || !resp.Fallback {
		t.Errorf("GetContext() = %+v, want fallback %q", resp, want)
	}
	if len(resp.Cards) != 0 {
		t.Errorf("cards = %v, want none on generation failure", entityNames(resp.Cards))
	}
	if len(f.store.records) != 1 || !f.store.records[0].Fallback {
		t.Errorf("journal = %+v, want one fallback record", f.store.records)
	}
}

func TestSettingsFilterAndDisable(t *testing.T) {
	f := newFixture("Talking about [COMPANY:Apple] and [PERSON:Tim Cook].", nil)
	ctx := context.Background()

	hidePeople := store.DefaultSettings()
	hidePeople.ShowPersonCards = false
	if resp := f.svc.Handle(ctx, Message{Type: TypeUpdateSettings, Settings: &hidePeople}); !resp.Success {
		t.Fatalf("UPDATE_SETTINGS = %+v", resp)
	}
	resp := f.svc.GetContext(ctx, "Apple and Tim Cook news")
	if diff := cmp.Diff([]string{"Apple"}, entityNames(resp.Cards)); diff != "" {
		t.Errorf("filtered cards mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(resp.Context, "person-card") {
		t.Error("person card rendered while hidden")
	}

	off := store.DefaultSettings()
	off.EnableExtension = false
	f.svc.UpdateSettings(off)
	calls := f.provider.calls
	resp = f.svc.GetContext(ctx, "Apple and Tim Cook news")
	if !resp.Success || resp.Context != "" || f.provider.calls != calls {
		t.Errorf("disabled GetContext = %+v, provider calls %d -> %d", resp, calls, f.provider.calls)
	}

	if diff := cmp.Diff([]store.Settings{hidePeople, off}, f.store.saved); diff != "" {
		t.Errorf("saved settings mismatch (-want +got):\n%s", diff)
	}
}

func TestSettingsLoadedFromStore(t *testing.T) {
	saved := store.Settings{EnableExtension: true, AutoDisplay: false}
	det := detect.New(lexicon.Default())
	svc := New(det, &fakeEnricher{}, narrative.NewComposer(&fakeProvider{}, det), WithStore(&fakeStore{settings: &saved}))

	if got := svc.Settings(); got != saved {
		t.Errorf("Settings() = %+v, want %+v", got, saved)
	}
}

func TestSaveFailureStillApplies(t *testing.T) {
	f := newFixture("", nil)
	f.store.saveErr = errors.New("disk full")

	st := store.DefaultSettings()
	st.AutoDisplay = false
	f.svc.UpdateSettings(st)
	if f.svc.Settings().AutoDisplay {
		t.Error("settings not applied after store failure")
	}
}

func TestHandleRejectsMalformed(t *testing.T) {
	f := newFixture("", nil)
	ctx := context.Background()

	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"no type", Message{Text: "hello there"}, "message type required"},
		{"unknown type", Message{Type: "PING"}, `unknown message type "PING"`},
		{"settings missing", Message{Type: TypeUpdateSettings}, "settings required"},
		{"entity missing", Message{Type: TypeEnrichEntity}, "entity with kind and name required"},
		{"entity bad kind", Message{Type: TypeEnrichEntity, Entity: &lexicon.Entity{Kind: "place", Name: "Paris"}}, "entity with kind and name required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.svc.Handle(ctx, tt.msg)
			if resp.Success || resp.Error != tt.want {
				t.Errorf("Handle() = %+v, want error %q", resp, tt.want)
			}
		})
	}
}

func TestEnrichEntityMessage(t *testing.T) {
	f := newFixture("", nil)
	e := lexicon.Person("Elon Musk")

	resp := f.svc.Handle(context.Background(), Message{Type: TypeEnrichEntity, Entity: &e})
	if !resp.Success || resp.Result == nil {
		t.Fatalf("Handle() = %+v", resp)
	}
	want := enrich.Result{Summary: "Late Elon Musk", ImageURL: "https://img/Elon Musk"}
	if diff := cmp.Diff(want, *resp.Result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]lexicon.Entity{e}, f.enricher.singles); diff != "" {
		t.Errorf("EnrichOne calls mismatch (-want +got):\n%s", diff)
	}
}

func TestWithRealStore(t *testing.T) {
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer st.Close()

	det := detect.New(lexicon.Default())
	prov := &fakeProvider{content: "Nothing tagged here."}
	svc := New(det, &fakeEnricher{}, narrative.NewComposer(prov, det), WithStore(st))

	want := store.DefaultSettings()
	want.ShowCompanyCards = false
	svc.UpdateSettings(want)
	if got, err := st.LoadSettings(); err != nil || got != want {
		t.Errorf("LoadSettings() = %+v, %v; want %+v", got, err, want)
	}

	resp := svc.GetContext(context.Background(), "Nvidia earnings were strong")
	recent, err := st.RecentRequests(5)
	if err != nil {
		t.Fatalf("RecentRequests() error = %v", err)
	}
	if len(recent) != 1 || recent[0].ID != resp.QueryID {
		t.Errorf("journal = %+v, want record %s", recent, resp.QueryID)
	}
}

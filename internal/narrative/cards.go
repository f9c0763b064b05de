package narrative

import (
	"bytes"
	"html/template"
	"unicode/utf8"

	"github.com/abelbrown/contextrt/internal/enrich"
	"github.com/abelbrown/contextrt/internal/lexicon"
	"github.com/abelbrown/contextrt/internal/market"
)

// Card is the view model for one entity.
type Card struct {
	Entity   lexicon.Entity `json:"entity"`
	Summary  string         `json:"summary"`
	ImageURL string         `json:"imageUrl,omitempty"`
	// Loading marks a card whose enrichment was not in the cache.
	Loading bool          `json:"loading,omitempty"`
	Quote   *market.Quote `json:"quote,omitempty"`
	Color   string        `json:"color,omitempty"`
}

// Initial returns the first character of the name, shown as the logo.
func (c Card) Initial() string {
	r, _ := utf8.DecodeRuneInString(c.Entity.Name)
	if r == utf8.RuneError {
		return ""
	}
	return string(r)
}

// BuildCards builds one card per entity in order. Entities without a cached
// result get a loading placeholder.
func BuildCards(order []lexicon.Entity, cache *enrich.Cache) []Card {
	cards := make([]Card, 0, len(order))
	for _, e := range order {
		c := Card{Entity: e}
		if r, ok := cache.Get(e); ok {
			c.Summary = r.Summary
			c.ImageURL = r.ImageURL
		} else {
			c.Summary = enrich.LoadingSummary(e.Name)
			c.Loading = true
		}
		if e.Kind == lexicon.KindOrganization {
			q := market.Financials(e.Name)
			c.Quote = &q
			c.Color = market.Color(e.Name)
		}
		cards = append(cards, c)
	}
	return cards
}

// Apply returns c with r filled in. Used when a late fetch completes.
func (c Card) Apply(r enrich.Result) Card {
	c.Summary = r.Summary
	c.ImageURL = r.ImageURL
	c.Loading = false
	return c
}

var cardsTmpl = template.Must(template.New("cards").Parse(`
<div class="mentioned-section">
  <div class="mentioned-header">Mentioned:</div>
  <div class="info-cards-container">
{{- range .}}
{{- if .Quote}}
    <div class="info-card company-card">
      <div class="card-header">
        <div class="company-logo" style="background-color: #{{.Color}}">{{.Initial}}</div>
        <div class="company-info">
          <div class="company-name">{{.Entity.Name}}</div>
          <div class="company-price {{if .Quote.Positive}}change-positive{{else}}change-negative{{end}}">{{.Quote.PriceString}} <span class="price-change">{{.Quote.ChangeString}}</span></div>
        </div>
      </div>
      <div class="company-summary">
        <div class="market-cap">Market Cap: {{.Quote.MarketCap}}</div>
        <p>{{.Summary}}</p>
      </div>
      <div class="card-footer">Data from Wikipedia</div>
    </div>
{{- else}}
    <div class="info-card person-card"{{if .Loading}} data-loading="true"{{end}} data-entity="{{.Entity.Name}}">
      <div class="card-header">
        <div class="person-image"{{with .ImageURL}} style="background-image: url('{{.}}')"{{end}}></div>
        <div class="person-name">{{.Entity.Name}}</div>
      </div>
      <div class="person-info">
        <p>{{.Summary}}</p>
      </div>
      <div class="card-footer">Data from Wikipedia</div>
    </div>
{{- end}}
{{- end}}
  </div>
</div>
`))

// RenderHTML returns the narrative followed by a "Mentioned:" section, or the
// narrative alone when there are no cards. The narrative must come from
// ParseGenerated or FallbackNarrative, which escape their input; card fields
// are escaped by the template.
func RenderHTML(narrative string, cards []Card) string {
	if len(cards) == 0 {
		return narrative
	}
	var buf bytes.Buffer
	buf.WriteString(narrative)
	if err := cardsTmpl.Execute(&buf, cards); err != nil {
		return narrative
	}
	return buf.String()
}

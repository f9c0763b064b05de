package ui

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/contextrt/internal/lexicon"
	"github.com/abelbrown/contextrt/internal/narrative"
)

var strongRe = regexp.MustCompile(`<strong>(.*?)</strong>`)

// renderNarrative turns the narrative's <strong> spans into styled text and
// unescapes the rest.
func renderNarrative(text string, width int) string {
	var b strings.Builder
	last := 0
	for _, m := range strongRe.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(html.UnescapeString(text[last:m[0]]))
		b.WriteString(NarrativeStrong.Render(html.UnescapeString(text[m[2]:m[3]])))
		last = m[1]
	}
	b.WriteString(html.UnescapeString(text[last:]))
	return lipgloss.NewStyle().Width(width).Render(b.String())
}

// renderCard renders one card. Cards are rendered independently so a late
// enrichment only redraws its own card.
func renderCard(c narrative.Card, width int) string {
	var lines []string
	if c.Entity.Kind == lexicon.KindOrganization && c.Quote != nil {
		logo := LogoStyle.Background(lipgloss.Color("#" + c.Color)).Render(c.Initial())
		price := PriceDown
		if c.Quote.Positive() {
			price = PriceUp
		}
		lines = append(lines,
			logo+CardName.Render(c.Entity.Name)+"  "+price.Render(c.Quote.PriceString()+" "+c.Quote.ChangeString()),
			CardMuted.Render("Market Cap: "+c.Quote.MarketCap),
		)
	} else {
		lines = append(lines, CardName.Render(c.Entity.Name))
		if c.ImageURL != "" {
			lines = append(lines, CardMuted.Render("image: "+c.ImageURL))
		}
	}

	summary := c.Summary
	if c.Loading {
		summary = CardMuted.Render(summary)
	}
	lines = append(lines, summary, CardMuted.Render("Data from Wikipedia"))

	inner := width - CardStyle.GetHorizontalFrameSize()
	if inner < 20 {
		inner = 20
	}
	return CardStyle.Width(inner).Render(strings.Join(lines, "\n"))
}

// renderStatusBar renders key hints and the session state.
func renderStatusBar(s RequestSession, autoDisplay bool, width int) string {
	var hints []string
	for _, b := range keys.help(autoDisplay) {
		h := b.Help()
		hints = append(hints, StatusBarKey.Render(h.Key)+StatusBarText.Render(":"+h.Desc))
	}
	state := fmt.Sprintf("[%s gen %d]", s.State, s.Generation)
	return StatusBar.Width(width).Render(state + "  " + strings.Join(hints, "  "))
}

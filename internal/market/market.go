// Package market derives the display-only figures on organization cards.
// Every value is a pure function of the name: the same name always yields
// the same quote and color, with no market-data dependency.
package market

import (
	"fmt"
	"math/big"
	"strconv"
	"unicode/utf16"
)

// Quote is the pseudo-financial triple shown on an organization card.
type Quote struct {
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change"`
	MarketCap     string  `json:"marketCap"`
}

// Financials returns the quote for name. The seed is the sum of the name's
// UTF-16 code units.
func Financials(name string) Quote {
	seed := 0
	for _, u := range utf16.Encode([]rune(name)) {
		seed += int(u)
	}

	price := 50 + seed%450
	change := float64((seed*7)%1000-500) / 100

	return Quote{
		Price:         float64(price),
		ChangePercent: change,
		MarketCap:     marketCap(1 + seed%3000),
	}
}

// marketCap formats billions, switching to trillions with two decimals
// above 1000. Ties round up.
func marketCap(billions int) string {
	if billions <= 1000 {
		return fmt.Sprintf("$%dB", billions)
	}
	cents := billions / 10
	switch rem := billions % 10; {
	case rem > 5:
		cents++
	case rem == 5:
		// billions/1000 is rarely exact in binary; round by its actual value.
		x := new(big.Rat).SetFloat64(float64(billions) / 1000)
		if x.Cmp(big.NewRat(int64(2*cents+1), 200)) >= 0 {
			cents++
		}
	}
	return fmt.Sprintf("$%d.%02dT", cents/100, cents%100)
}

// Positive reports whether the change is zero or up.
func (q Quote) Positive() bool {
	return q.ChangePercent >= 0
}

// PriceString renders the price as "$105".
func (q Quote) PriceString() string {
	return "$" + strconv.FormatFloat(q.Price, 'f', -1, 64)
}

// ChangeString renders the signed change as "+0.35%" or "-2.79%".
func (q Quote) ChangeString() string {
	sign := ""
	if q.Positive() {
		sign = "+"
	}
	return sign + strconv.FormatFloat(q.ChangePercent, 'f', -1, 64) + "%"
}

// Color returns a 6-digit uppercase hex color for name. The hash folds each
// UTF-16 code unit in with 32-bit wraparound, so it is order sensitive.
func Color(name string) string {
	var h int64
	for _, u := range utf16.Encode([]rune(name)) {
		shifted := int32(uint32(h) << 5)
		h = int64(u) + int64(shifted) - h
	}
	return fmt.Sprintf("%06X", int32(uint32(h))&0xFFFFFF)
}

package narrative

import (
	"github.com/abelbrown/contextrt/internal/detect"
	"github.com/abelbrown/contextrt/internal/lexicon"
)

// CanonicalOrder merges entity sources into one list without duplicates.
// Precedence, first occurrence wins:
//
//  1. organizations detected in the input
//  2. people detected in the input
//  3. organizations tagged by the model
//  4. people tagged by the model
//  5. organizations re-detected in the narrative
//  6. people re-detected in the narrative
func CanonicalOrder(input detect.Signals, tagged Parsed, narrative detect.Signals) []lexicon.Entity {
	var order []lexicon.Entity
	seen := make(map[lexicon.Entity]bool)

	add := func(kind lexicon.Kind, names []string) {
		for _, name := range names {
			e := lexicon.Entity{Kind: kind, Name: name}
			if seen[e] {
				continue
			}
			seen[e] = true
			order = append(order, e)
		}
	}

	add(lexicon.KindOrganization, input.Organizations)
	add(lexicon.KindPerson, input.People)
	add(lexicon.KindOrganization, tagged.Organizations)
	add(lexicon.KindPerson, tagged.People)
	add(lexicon.KindOrganization, narrative.Organizations)
	add(lexicon.KindPerson, narrative.People)
	return order
}

// Package ui is the interactive context controller: two text-entry
// elements, a debounced request lifecycle, and the context surface.
package ui

import (
	"github.com/abelbrown/contextrt/internal/enrich"
	"github.com/abelbrown/contextrt/internal/lexicon"
	"github.com/abelbrown/contextrt/internal/pipeline"
)

// ContextLoaded carries a pipeline response stamped with the generation
// that requested it.
type ContextLoaded struct {
	Generation uint64
	Response   pipeline.Response
}

// EnrichmentPublished is a late enrichment result for one card.
type EnrichmentPublished struct {
	Generation uint64
	Entity     lexicon.Entity
	Result     enrich.Result
}

// debounceFired is sent when the quiet period after an input event ends.
// Only the most recent seq counts.
type debounceFired struct {
	element ElementID
	seq     int
}

// blurExpired is sent when the blur grace period ends.
type blurExpired struct {
	seq int
}

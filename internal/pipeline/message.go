package pipeline

import (
	"github.com/abelbrown/contextrt/internal/enrich"
	"github.com/abelbrown/contextrt/internal/lexicon"
	"github.com/abelbrown/contextrt/internal/narrative"
	"github.com/abelbrown/contextrt/internal/store"
)

// MessageType discriminates inbound messages.
type MessageType string

const (
	TypeGetContext     MessageType = "GET_CONTEXT"
	TypeUpdateSettings MessageType = "UPDATE_SETTINGS"
	// TypeEnrichEntity is the follow-up fetch for a card that was
	// rendered with a loading placeholder.
	TypeEnrichEntity MessageType = "ENRICH_ENTITY"
)

// Message is an inbound request from a client.
type Message struct {
	Type     MessageType     `json:"type"`
	Text     string          `json:"text,omitempty"`
	Settings *store.Settings `json:"settings,omitempty"`
	Entity   *lexicon.Entity `json:"entity,omitempty"`
}

// Response answers one Message. Context is the rendered HTML; Narrative and
// Cards carry the same content for clients that render their own.
type Response struct {
	Success   bool             `json:"success"`
	Context   string           `json:"context"`
	Narrative string           `json:"narrative,omitempty"`
	Cards     []narrative.Card `json:"cards,omitempty"`
	Fallback  bool             `json:"fallback,omitempty"`
	QueryID   string           `json:"qid,omitempty"`
	Result    *enrich.Result   `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
}

func failure(msg string) Response {
	return Response{Success: false, Error: msg}
}

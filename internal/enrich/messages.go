package enrich

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abelbrown/contextrt/internal/services"
)

// Placeholder summaries shown in place of a knowledge-source extract.
const (
	msgSearchStatus  = "Couldn't retrieve data for %s."
	msgNoResults     = "No Wikipedia information found for %s."
	msgDetailsStatus = "Couldn't retrieve summary for %s."
	msgBadDetails    = "Error retrieving information about %s."
	msgNoExtract     = "Information about %s not available."
	msgUnavailable   = "Couldn't fetch information about %s at this time."
	msgLoading       = "Loading information about %s..."
)

// LoadingSummary is the card text shown while an entity is still being fetched.
func LoadingSummary(name string) string {
	return fmt.Sprintf(msgLoading, name)
}

// fallbackSummary maps a failed stage and its error to the user-facing text.
func fallbackSummary(name, stage string, err error) string {
	var statusErr *services.StatusError
	hasStatus := errors.As(err, &statusErr)

	switch stage {
	case stageSearch:
		switch {
		case hasStatus:
			return fmt.Sprintf(msgSearchStatus, name)
		case errors.Is(err, services.ErrNotFound):
			return fmt.Sprintf(msgNoResults, name)
		}
	case stageDetails:
		switch {
		case hasStatus:
			return fmt.Sprintf(msgDetailsStatus, name)
		case errors.Is(err, services.ErrMalformed) && !isDecodeError(err):
			return fmt.Sprintf(msgBadDetails, name)
		}
	}
	return fmt.Sprintf(msgUnavailable, name)
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func fallbackText(format, name string) string {
	return fmt.Sprintf(format, name)
}

// Command contextrt detects companies and public figures in text and shows
// a short generated narrative with a card of background for each.
//
// Usage:
//
//	contextrt tui                   Interactive controller
//	contextrt serve                 HTTP + WebSocket transport for the extension shell
//	contextrt context <text>        One-shot pipeline run
//	contextrt events                JSONL event log viewer
//	contextrt config init|show      Configuration utilities
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

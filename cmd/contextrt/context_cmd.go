package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abelbrown/contextrt/internal/logging"
	"github.com/abelbrown/contextrt/internal/narrative"
	"github.com/abelbrown/contextrt/internal/pipeline"
)

func newContextCommand(ctx *commandContext) *cobra.Command {
	var asJSON, asHTML bool
	cmd := &cobra.Command{
		Use:   "context [text]",
		Short: "Run the pipeline once on text (reads stdin when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON && asHTML {
				return errors.New("--json and --html are mutually exclusive")
			}
			text := strings.Join(args, " ")
			if text == "" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(b)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := logging.Init(cfg.Paths.DataDir, ctx.debug()); err != nil {
				logging.SetOutput(os.Stderr, ctx.debug())
			}
			defer logging.Close()

			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			resp := rt.service.Handle(cmd.Context(), pipeline.Message{Type: pipeline.TypeGetContext, Text: text})
			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			case asHTML:
				fmt.Fprintln(out, resp.Context)
				return nil
			}
			if !resp.Success {
				return errors.New(resp.Error)
			}
			writeContext(out, resp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full response as JSON")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Print the rendered HTML fragment")
	return cmd
}

func writeContext(w io.Writer, resp pipeline.Response) {
	if resp.Narrative == "" && len(resp.Cards) == 0 {
		fmt.Fprintln(w, "no entities detected")
		return
	}
	fmt.Fprintln(w, narrative.PlainText(resp.Narrative))
	if resp.Fallback {
		fmt.Fprintln(w, "(generator unavailable, fallback narrative)")
	}
	for _, c := range resp.Cards {
		fmt.Fprintln(w)
		writeCard(w, c)
	}
}

func writeCard(w io.Writer, c narrative.Card) {
	fmt.Fprintf(w, "[%s] %s\n", c.Entity.Kind, c.Entity.Name)
	if c.Summary != "" {
		fmt.Fprintf(w, "  %s\n", c.Summary)
	}
	if c.Quote != nil {
		fmt.Fprintf(w, "  $%.2f (%+.2f%%)  mcap %s\n", c.Quote.Price, c.Quote.ChangePercent, c.Quote.MarketCap)
	}
	if c.ImageURL != "" {
		fmt.Fprintf(w, "  image: %s\n", c.ImageURL)
	}
}

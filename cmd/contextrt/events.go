package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/contextrt/internal/store"
)

// eventRecord mirrors otel.Event for decoding. Decoding from JSONL keeps the
// viewer working across schema changes.
type eventRecord struct {
	Time      time.Time      `json:"t"`
	Level     string         `json:"level"`
	Kind      string         `json:"kind"`
	Comp      string         `json:"comp"`
	SessionID string         `json:"session_id"`
	QueryID   string         `json:"qid"`
	DurMs     float64        `json:"dur_ms"`
	Count     int            `json:"count"`
	Entity    string         `json:"entity"`
	Stage     string         `json:"stage"`
	Err       string         `json:"err"`
	Msg       string         `json:"msg"`
	Extra     map[string]any `json:"extra"`
}

// levelRank orders levels for filtering; higher is more severe.
func levelRank(level string) int {
	switch level {
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

type eventFilter struct {
	kind  string
	level string
	comp  string
	qid   string
}

func (f eventFilter) match(ev eventRecord) bool {
	if f.kind != "" && !strings.HasPrefix(ev.Kind, f.kind) {
		return false
	}
	if f.level != "" && levelRank(ev.Level) < levelRank(f.level) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	if f.qid != "" && ev.QueryID != f.qid {
		return false
	}
	return true
}

func formatEvent(ev eventRecord) string {
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}
	parts := []string{fmt.Sprintf("%s %-5s [%-8s] %-20s", ev.Time.Format("15:04:05.000"), lvl, ev.Comp, ev.Kind)}

	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Entity != "" {
		parts = append(parts, "entity="+ev.Entity)
	}
	if ev.Stage != "" {
		parts = append(parts, "stage="+ev.Stage)
	}
	if ev.QueryID != "" {
		parts = append(parts, "qid="+ev.QueryID)
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

type eventsOptions struct {
	tail     int
	follow   bool
	rawJSON  bool
	filter   eventFilter
	requests bool
	prune    time.Duration
}

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var opts eventsOptions
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the pipeline event log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if opts.requests || opts.prune > 0 {
				return runRequests(cmd.OutOrStdout(), cfg.DatabasePath(), opts)
			}

			f, err := os.Open(cfg.EventsPath())
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("event log not found at %s; run `contextrt tui` or `contextrt serve` first", cfg.EventsPath())
				}
				return err
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			reader := bufio.NewReader(f)
			for _, l := range readTailLines(reader, opts.tail, opts.filter.match) {
				printEvent(out, l, opts.rawJSON)
			}
			if !opts.follow {
				return nil
			}
			return followEvents(cmd.Context(), reader, out, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.tail, "tail", "n", 50, "Number of recent events to show")
	flags.BoolVarP(&opts.follow, "follow", "f", false, "Keep printing new events")
	flags.StringVar(&opts.filter.kind, "kind", "", "Filter by event kind prefix (e.g. 'enrich')")
	flags.StringVar(&opts.filter.level, "level", "", "Minimum level: debug, info, warn, error")
	flags.StringVar(&opts.filter.comp, "comp", "", "Filter by component name")
	flags.StringVar(&opts.filter.qid, "qid", "", "Filter by query id")
	flags.BoolVar(&opts.rawJSON, "json", false, "Print raw JSON lines")
	flags.BoolVar(&opts.requests, "requests", false, "List journaled requests instead of events")
	flags.DurationVar(&opts.prune, "prune", 0, "Delete journaled requests older than this age (e.g. 720h)")
	return cmd
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

func printEvent(w io.Writer, l parsedLine, rawJSON bool) {
	if rawJSON {
		fmt.Fprintln(w, string(l.raw))
		return
	}
	fmt.Fprintln(w, formatEvent(l.ev))
}

// readTailLines returns the last n lines that decode and match.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	if n <= 0 {
		n = 1
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	ring := make([]parsedLine, 0, n)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil || !match(ev) {
			continue
		}
		line := parsedLine{ev: ev, raw: append([]byte(nil), raw...)}
		if len(ring) < n {
			ring = append(ring, line)
			continue
		}
		copy(ring, ring[1:])
		ring[n-1] = line
	}
	return ring
}

func followEvents(ctx context.Context, r *bufio.Reader, w io.Writer, opts eventsOptions) error {
	var partial []byte
	for {
		chunk, err := r.ReadBytes('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return err
			}
			// The writer may be mid-line; keep what arrived and wait for the rest.
			partial = append(partial, chunk...)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		line := trimLine(append(partial, chunk...))
		partial = nil
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil || !opts.filter.match(ev) {
			continue
		}
		printEvent(w, parsedLine{ev: ev, raw: line}, opts.rawJSON)
	}
}

func runRequests(w io.Writer, dbPath string, opts eventsOptions) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.prune > 0 {
		n, err := st.PruneRequests(time.Now().Add(-opts.prune))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "pruned %d requests\n", n)
		if !opts.requests {
			return nil
		}
	}

	recs, err := st.RecentRequests(opts.tail)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		mode := "generated"
		if rec.Fallback {
			mode = "fallback"
		}
		fmt.Fprintf(w, "%s %-9s entities=%d (%s) %s %q\n",
			rec.CreatedAt.Format("2006-01-02 15:04:05"), mode, rec.EntityCount,
			rec.Duration.Round(time.Millisecond), rec.ID, rec.TextPrefix)
	}
	return nil
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}

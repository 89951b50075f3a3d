package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Cycle    string // optional - filter to one cycle
	Type     string // optional - filter to one event type
	Subject  string // optional - filter to one subject
}

// TraceEntry is a journal event in JSON output.
type TraceEntry struct {
	Seq     int64  `json:"seq"`
	CycleID string `json:"cycle_id"`
	Type    string `json:"type"`
	Subject string `json:"subject"`
	Detail  any    `json:"detail"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Events []TraceEntry `json:"events"`
	Stats  TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the journal.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Cycles      int `json:"cycles"`
	Effects     int `json:"effects"`
	Errors      int `json:"errors"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the recorded journal",
		Long: `Print the events a run recorded in its SQLite journal.

Each line shows the logical sequence number, the cycle id, the event
type and its subject. With --verbose the event detail is printed too.

Examples:
  boundary trace --db ./boundary.db
  boundary trace --db ./boundary.db --cycle 0192f5c4-...
  boundary trace --db ./boundary.db --type effect --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Cycle, "cycle", "", "only events of this cycle id")
	cmd.Flags().StringVar(&opts.Type, "type", "", "only events of this type")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "only events with this subject")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// store.Open would create a missing file.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	events, err := st.QueryTrace(ctx, store.TraceFilter{
		CycleID: opts.Cycle,
		Type:    ir.TraceType(opts.Type),
		Subject: opts.Subject,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}

	result := TraceResult{
		Events: toTraceEntries(events),
		Stats:  traceStats(events),
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result, CycleID: opts.Cycle})
	}

	w := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintln(w, "No events recorded.")
		return nil
	}
	writeTraceText(w, events, opts.Verbose)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Cycles:       %d\n", result.Stats.Cycles)
	fmt.Fprintf(w, "  Effects:      %d\n", result.Stats.Effects)
	fmt.Fprintf(w, "  Errors:       %d\n", result.Stats.Errors)
	return nil
}

func toTraceEntries(events []ir.TraceEvent) []TraceEntry {
	entries := make([]TraceEntry, len(events))
	for i, ev := range events {
		entries[i] = TraceEntry{
			Seq:     ev.Seq,
			CycleID: ev.CycleID,
			Type:    string(ev.Type),
			Subject: ev.Subject,
			Detail:  ir.ToAny(ev.Detail),
		}
	}
	return entries
}

func traceStats(events []ir.TraceEvent) TraceStats {
	stats := TraceStats{TotalEvents: len(events)}
	cycles := make(map[string]struct{})
	for _, ev := range events {
		cycles[ev.CycleID] = struct{}{}
		switch ev.Type {
		case ir.TraceEffect:
			stats.Effects++
		case ir.TraceError:
			stats.Errors++
		}
	}
	stats.Cycles = len(cycles)
	return stats
}

// writeTraceText prints one line per event. Errors are red, cycle
// starts are bold.
func writeTraceText(w io.Writer, events []ir.TraceEvent, verbose bool) {
	for _, ev := range events {
		label := fmt.Sprintf("%-18s", ev.Type)
		switch ev.Type {
		case ir.TraceError:
			label = color.New(color.FgRed).Sprint(label)
		case ir.TraceCycle:
			label = color.New(color.Bold).Sprint(label)
		case ir.TraceSubscriptionStart, ir.TraceSubscriptionStop:
			label = color.New(color.FgCyan).Sprint(label)
		}
		fmt.Fprintf(w, "  [%d] %s %s %s\n", ev.Seq, truncateID(ev.CycleID), label, ev.Subject)
		if verbose && !ir.IsNull(ev.Detail) {
			fmt.Fprintf(w, "       %s\n", ir.CanonicalString(ev.Detail))
		}
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

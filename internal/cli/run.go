package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/boundary/internal/config"
	"github.com/roach88/boundary/internal/harness"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
	"github.com/roach88/boundary/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database       string
	Core           string
	PersistStorage bool
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Scenario string       `json:"scenario"`
	Pass     bool         `json:"pass"`
	Model    any          `json:"model"`
	Trace    []TraceEntry `json:"trace"`
	Errors   []string     `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario and print its trace",
		Long: `Run a scenario against the headless host and print the journal.

The scenario's scripted core can be swapped for an external program
with --core; the program reads one JSON request on stdin and writes one
JSON response on stdout per call. With --db
the journal is appended to a SQLite database that 'boundary trace'
can read later, and --persist-storage keeps localStorage there too.

Settings not given as flags come from --config and BOUNDARY_*
environment variables.

Example:
  boundary run ./scenarios/counter.yaml
  boundary run --db ./boundary.db --core "node core.js" ./scenarios/counter.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (default: in-memory)")
	cmd.Flags().StringVar(&opts.Core, "core", "", "external core command, replaces the scripted core")
	cmd.Flags().BoolVar(&opts.PersistStorage, "persist-storage", false, "back localStorage with the journal database")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.Database != "" {
		cfg.Store.Path = opts.Database
	}
	if opts.Core != "" {
		cfg.Core.Command = opts.Core
	}
	if opts.PersistStorage {
		cfg.Store.PersistStorage = true
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	runOpts, err := harnessOptions(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		runOpts = append(runOpts, harness.WithStore(st))
		if cfg.Store.PersistStorage {
			runOpts = append(runOpts, harness.WithPersistentStorage())
		}
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := harness.RunContext(ctx, scenario, runOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "scenario error", err)
	}

	if opts.Verbose {
		logCfg, err := cfg.LoggingConfig()
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid config", err)
		}
		writeLogs(cmd.ErrOrStderr(), logCfg, result)
	}

	if opts.Format == "json" {
		response := CLIResponse{
			Status: "ok",
			Data: RunResult{
				Scenario: scenario.Name,
				Pass:     result.Pass,
				Model:    ir.ToAny(result.Model),
				Trace:    toTraceEntries(result.Trace),
				Errors:   result.Errors,
			},
		}
		if !result.Pass {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    ErrCodeTestFailed,
				Message: fmt.Sprintf("%d assertion(s) failed", len(result.Errors)),
			}
		}
		if err := writeJSON(cmd.OutOrStdout(), response); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Scenario: %s\n\n", scenario.Name)
		fmt.Fprintln(w, "=== Trace ===")
		writeTraceText(w, result.Trace, opts.Verbose)
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Model: %s\n", ir.CanonicalString(result.Model))
		fmt.Fprintf(w, "%s %s\n", passMark(result.Pass), scenario.Name)
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d assertion(s) failed", len(result.Errors)))
	}
	return nil
}

// harnessOptions maps the runtime configuration onto harness options.
func harnessOptions(cfg config.Config) ([]harness.Option, error) {
	logCfg, err := cfg.LoggingConfig()
	if err != nil {
		return nil, err
	}
	customCfg, err := cfg.CustomConfig()
	if err != nil {
		return nil, err
	}

	opts := []harness.Option{
		harness.WithLogging(logCfg),
		harness.WithCustomConfig(customCfg),
		harness.WithMaxCycles(cfg.Engine.MaxCycles),
		harness.WithCoreTimeout(cfg.Core.Timeout),
	}
	if cfg.Core.Command != "" {
		opts = append(opts, harness.WithCoreCommand(cfg.Core.Command))
	}
	if cfg.Core.Validate {
		opts = append(opts, harness.WithCoreValidation())
	}
	return opts, nil
}

// writeLogs replays what the runtime logged during the run in the
// configured format. Entries keep their original time and caller.
func writeLogs(w io.Writer, cfg logging.Config, result *harness.Result) {
	handler := logging.NewHandler(w, cfg)
	for _, entry := range result.Logs {
		r := slog.NewRecord(entry.Time, entry.Level, entry.Message, entry.PC)
		r.Add("domain", entry.Attrs["domain"])
		for _, k := range slices.Sorted(maps.Keys(entry.Attrs)) {
			if k != "domain" {
				r.Add(k, entry.Attrs[k])
			}
		}
		_ = handler.Handle(context.Background(), r)
	}
}

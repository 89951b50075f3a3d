package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/boundary/internal/harness"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Definition string
}

// FileValidation holds the validation results of one file.
type FileValidation struct {
	Path   string                   `json:"path"`
	Valid  bool                     `json:"valid"`
	Errors []schema.ValidationError `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

var definitions = map[string]schema.Definition{
	"output":        schema.Output,
	"effect":        schema.Effect,
	"effects":       schema.Effects,
	"subscription":  schema.Subscription,
	"subscriptions": schema.Subscriptions,
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate scenarios and core output",
		Long: `Check files without running them.

A .yaml or .yml file is loaded as a scenario; the effects and
subscriptions of a scripted core are checked against the declarations
schema. A .json file is checked against the definition named by --def
(output, effect, effects, subscription or subscriptions).

Examples:
  boundary validate ./scenarios/counter.yaml
  boundary validate --def effects ./effects.json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Definition, "def", "output", "schema definition for .json files")

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	def, ok := definitions[opts.Definition]
	if !ok {
		return outputValidateError(formatter, ErrCodeGeneric, fmt.Sprintf("unknown definition %q", opts.Definition))
	}
	validator, err := schema.New()
	if err != nil {
		return outputValidateError(formatter, ErrCodeGeneric, err.Error())
	}

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("file not found: %s", path))
		}
		formatter.VerboseLog("Validating %s", path)

		fv := FileValidation{Path: path}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			fv.Errors = validateScenarioFile(validator, path)
		case ".json":
			fv.Errors = validateJSONFile(validator, def, path)
		default:
			fv.Errors = []schema.ValidationError{{
				Message: "unsupported file type (want .yaml, .yml or .json)",
				Code:    ErrCodeGeneric,
			}}
		}
		fv.Valid = len(fv.Errors) == 0
		result.Valid = result.Valid && fv.Valid
		result.Files = append(result.Files, fv)
	}

	return outputValidation(formatter, result)
}

// validateScenarioFile loads a scenario and checks the declarations of
// its scripted core.
func validateScenarioFile(v *schema.Validator, path string) []schema.ValidationError {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return []schema.ValidationError{{Message: err.Error(), Code: ErrCodeGeneric}}
	}

	var errs []schema.ValidationError
	check := func(where string, def schema.Definition, raw any) {
		val, err := ir.FromAny(raw)
		if err != nil {
			errs = append(errs, schema.ValidationError{Path: where, Message: err.Error(), Code: schema.ErrMalformedInput})
			return
		}
		for _, e := range v.Validate(def, val) {
			e.Path = joinPath(where, e.Path)
			errs = append(errs, e)
		}
	}

	core := scenario.Core
	if len(core.Init.Effects) > 0 {
		check("core.init.effects", schema.Effects, core.Init.Effects)
	}
	for i, rule := range core.Update {
		if len(rule.Effects) > 0 {
			check(fmt.Sprintf("core.update[%d].effects", i), schema.Effects, rule.Effects)
		}
	}
	for i, rule := range core.Host {
		if len(rule.Effects) > 0 {
			check(fmt.Sprintf("core.host[%d].effects", i), schema.Effects, rule.Effects)
		}
	}
	for i, rule := range core.Subscriptions {
		check(fmt.Sprintf("core.subscriptions[%d].subscription", i), schema.Subscription, rule.Subscription)
	}
	return errs
}

func validateJSONFile(v *schema.Validator, def schema.Definition, path string) []schema.ValidationError {
	data, err := os.ReadFile(path)
	if err != nil {
		return []schema.ValidationError{{Message: err.Error(), Code: ErrCodeGeneric}}
	}
	return v.ValidateJSON(def, data)
}

func joinPath(prefix, path string) string {
	if path == "" {
		return prefix
	}
	return prefix + "." + path
}

// outputValidateError outputs a single command error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidation outputs the per-file results.
func outputValidation(formatter *OutputFormatter, result ValidationResult) error {
	failed := 0
	for _, fv := range result.Files {
		failed += len(fv.Errors)
	}

	if formatter.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			first := firstError(result)
			response.Status = "error"
			response.Error = &CLIError{Code: first.Code, Message: first.Message}
		}
		if err := writeJSON(formatter.Writer, response); err != nil {
			return err
		}
	} else {
		for _, fv := range result.Files {
			fmt.Fprintf(formatter.Writer, "%s %s\n", passMark(fv.Valid), fv.Path)
			for _, e := range fv.Errors {
				if e.Line > 0 {
					fmt.Fprintf(formatter.Writer, "  line %d\n", e.Line)
				}
				fmt.Fprintf(formatter.Writer, "  %s\n", e.Error())
			}
		}
	}

	if !result.Valid {
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", failed))
	}
	return nil
}

func firstError(result ValidationResult) schema.ValidationError {
	for _, fv := range result.Files {
		if len(fv.Errors) > 0 {
			return fv.Errors[0]
		}
	}
	return schema.ValidationError{}
}

package cli

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue describes one schema violation.
type ValidationIssue struct {
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command: checks a criteria
// file against the canonical snapshot schema without reconstructing it.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <criteria-file>",
		Short: "Validate a criteria snapshot against the canonical schema",
		Long: `Validate checks a criteria file (JSON or YAML) against the canonical
snapshot schema: fields must be strings, sort directions 1 or -1, skip
non-negative, limit positive or null. Faster feedback than a full
reconstruction when editing criteria files by hand.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "reading criteria file", err)
	}
	if isYAML(path) {
		var decoded map[string]any
		if err := yaml.Unmarshal(data, &decoded); err != nil {
			return WrapExitError(ExitCommandError, "parsing YAML criteria file", err)
		}
		if data, err = json.Marshal(decoded); err != nil {
			return WrapExitError(ExitCommandError, "normalizing YAML criteria file", err)
		}
	}

	issues, err := validateSnapshot(path, data)
	if err != nil {
		return err
	}
	formatter.VerboseLog("validated %s against the snapshot schema", path)

	result := ValidationResult{Valid: len(issues) == 0, Errors: issues}
	if formatter.Format == "json" {
		if err := formatter.PrintJSON(result); err != nil {
			return err
		}
	} else if result.Valid {
		formatter.Printf("%s: valid\n", path)
	} else {
		formatter.Printf("%s: invalid\n", path)
		for _, issue := range issues {
			formatter.Printf("  - %s\n", issue.Message)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "criteria snapshot is invalid")
	}
	return nil
}

// validateSnapshot unifies the JSON document with the #Snapshot
// definition from the embedded CUE schema and collects violations.
func validateSnapshot(path string, data []byte) ([]ValidationIssue, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, WrapExitError(ExitCommandError, "compiling snapshot schema", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Snapshot"))
	if !def.Exists() {
		return nil, NewExitError(ExitCommandError, "snapshot schema has no #Snapshot definition")
	}

	expr, err := cuejson.Extract(path, data)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "parsing criteria file", err)
	}
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return nil, WrapExitError(ExitCommandError, "building criteria document", err)
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		var issues []ValidationIssue
		for _, e := range cueerrors.Errors(err) {
			issues = append(issues, ValidationIssue{Message: fmt.Sprintf("%v", e)})
		}
		return issues, nil
	}
	return nil, nil
}

package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sievekit/sieve/eval"
)

// NewEvalCommand creates the eval command: criteria file × records file
// → the records an offline read would return.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <criteria-file> <records-file>",
		Short: "Evaluate a criteria against a local record file",
		Long: `Eval reads a criteria file and a records file (JSON array or YAML list
of objects) and runs the offline pipeline: filter, project, sort,
paginate. Criteria using operators unsupported offline (e.g.
$nearSphere) fail rather than returning partial results.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runEval(opts *RootOptions, criteriaPath, recordsPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	q, err := LoadCriteria(criteriaPath)
	if err != nil {
		return err
	}
	records, err := LoadRecords(recordsPath)
	if err != nil {
		return err
	}
	formatter.VerboseLog("evaluating %s against %d record(s)", criteriaPath, len(records))

	evaluator := eval.New()
	if opts.Verbose {
		evaluator = eval.New(eval.WithLogger(slog.Default()))
	}
	results, err := evaluator.Process(q, records)
	if err != nil {
		return WrapExitError(ExitFailure, "evaluating criteria", err)
	}

	if formatter.Format == "json" {
		return formatter.PrintJSON(results)
	}
	formatter.Printf("%d record(s)\n", len(results))
	for _, record := range results {
		if err := formatter.PrintJSON(record); err != nil {
			return err
		}
	}
	return nil
}

package cli

import (
	"sort"

	"github.com/spf13/cobra"
)

// NewEncodeCommand creates the encode command: criteria file → the wire
// query-string parameters the transport layer would send.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode <criteria-file>",
		Short: "Encode a criteria snapshot to wire query-string parameters",
		Long: `Encode reads a criteria file (JSON or YAML canonical snapshot) and
prints the query-string parameters a search request would carry. The
"query" and "sort" values are JSON-encoded strings, matching what the
transport sends.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runEncode(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	q, err := LoadCriteria(path)
	if err != nil {
		return err
	}

	params, err := q.QueryString()
	if err != nil {
		return WrapExitError(ExitFailure, "encoding criteria", err)
	}
	formatter.VerboseLog("encoded %d parameter(s) from %s", len(params), path)

	if formatter.Format == "json" {
		return formatter.PrintJSON(params)
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		formatter.Printf("%s=%s\n", k, params[k])
	}
	return nil
}

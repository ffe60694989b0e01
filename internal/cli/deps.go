package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DepsOptions holds flags for the deps command.
type DepsOptions struct {
	*RootOptions
	File string
}

// OpDeps lists one operation's dependency addresses.
type OpDeps struct {
	Index     int      `json:"index"`
	Kind      string   `json:"kind"`
	Addresses []string `json:"addresses"`
	StateKeys []string `json:"state_keys,omitempty"`
}

// NewDepsCommand creates the deps command.
func NewDepsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DepsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Print the dependency addresses of an operation batch",
		Long: `Compute, without touching any store, the state addresses each
operation in a file depends on. Two batches whose address sets are
disjoint can be validated concurrently.

Examples:
  provenant deps --file ops.yaml
  provenant deps --file ops.yaml --format json
  provenant deps --file ops.yaml -v   # include state keys`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "path to operations YAML file (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runDeps(opts *DepsOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	batch, err := LoadOperations(opts.File)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load operations", err)
	}

	all := make([]OpDeps, 0, len(batch))
	for i, op := range batch {
		entry := OpDeps{Index: i, Kind: string(op.Kind())}
		for _, addr := range op.Dependencies() {
			entry.Addresses = append(entry.Addresses, addr.String())
			if opts.Verbose {
				entry.StateKeys = append(entry.StateKeys, addr.StateKey())
			}
		}
		all = append(all, entry)
	}

	if opts.Format == "json" {
		return out.JSON(all)
	}

	for _, entry := range all {
		fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", entry.Index, entry.Kind)
		for j, addr := range entry.Addresses {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", addr)
			if opts.Verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", entry.StateKeys[j])
			}
		}
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/provenant/provenant/internal/ledger"
	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/store"
)

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions
	Database string
	File     string
	TxID     string // optional; a UUIDv7 is minted when empty
}

// SubmitResult is the payload reported after a submission.
type SubmitResult struct {
	TxID     string   `json:"tx_id"`
	Seq      int64    `json:"seq,omitempty"`
	Inserted bool     `json:"inserted"`
	OpCount  int      `json:"op_count"`
	Dirty    []string `json:"dirty,omitempty"`
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an operation batch as one transaction",
		Long: `Load operations from a YAML file and submit them as one atomic
transaction. The whole batch commits or, on the first contradiction,
nothing does.

Exit codes:
  0 - transaction committed (or was already committed)
  1 - contradiction: the batch conflicts with recorded facts
  2 - command error (file or database problems)

Examples:
  provenant submit --db ./ledger.db --file ops.yaml
  provenant submit --db ./ledger.db --file ops.yaml --tx import-2024-08
  provenant submit --db ./ledger.db --file ops.yaml --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.File, "file", "", "path to operations YAML file (required)")
	_ = cmd.MarkFlagRequired("file")
	cmd.Flags().StringVar(&opts.TxID, "tx", "", "transaction id (default: generated UUIDv7)")

	return cmd
}

func runSubmit(opts *SubmitOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	batch, err := LoadOperations(opts.File)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load operations", err)
	}
	out.VerboseLog("loaded %d operations from %s", len(batch), opts.File)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	clock, err := ledger.ResumeClock(ctx, st)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resume clock", err)
	}

	txID := opts.TxID
	if txID == "" {
		txID = ledger.UUIDv7Generator{}.Generate()
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.Verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	}
	proc := ledger.NewProcessor(st, clock, logger)

	res, err := proc.Process(ctx, ledger.Transaction{ID: txID, Ops: batch})
	if err != nil {
		if c, ok := ops.AsContradiction(err); ok {
			if opts.Format == "json" {
				_ = out.ErrorJSON("CONTRADICTION", c.Error(), map[string]any{
					"kind":     string(c.Kind),
					"resource": string(c.Resource),
				})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "contradiction [%s]: %v\n", c.Kind, c)
			}
			return NewExitError(ExitFailure, "transaction rejected")
		}
		return WrapExitError(ExitCommandError, "failed to process transaction", err)
	}

	result := SubmitResult{
		TxID:     res.TxID,
		Seq:      res.Seq,
		Inserted: res.Inserted,
		OpCount:  len(batch),
	}
	for _, addr := range res.Dirty {
		result.Dirty = append(result.Dirty, addr.String())
	}

	if opts.Format == "json" {
		return out.JSON(result)
	}

	if !res.Inserted {
		fmt.Fprintf(cmd.OutOrStdout(), "transaction %s was already committed\n", res.TxID)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "committed %s (seq %d, %d operations, %d fragments changed)\n",
		res.TxID, res.Seq, result.OpCount, len(result.Dirty))
	for _, addr := range result.Dirty {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", addr)
	}
	return nil
}

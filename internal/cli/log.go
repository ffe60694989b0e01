package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/prov"
	"github.com/provenant/provenant/internal/query"
	"github.com/provenant/provenant/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Database string
	Kind     string
	TxID     string
	External string
	UUID     string
	Since    int64
	Until    int64
}

// LogEntry is one reported entry of the committed operation log.
type LogEntry struct {
	Seq  int64           `json:"seq"`
	Idx  int64           `json:"idx"`
	TxID string          `json:"tx_id"`
	Kind string          `json:"kind"`
	Body json.RawMessage `json:"body,omitempty"` // verbose only
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Query the committed operation log",
		Long: `List committed operations in replay order, optionally filtered by
kind, transaction, namespace, or an inclusive seq range. Filters
combine with AND.

Examples:
  provenant log --db ./ledger.db
  provenant log --db ./ledger.db --kind start_activity
  provenant log --db ./ledger.db --tx import-2024-08 --format json
  provenant log --db ./ledger.db --since 10 --until 20 -v`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "restrict to one operation kind")
	cmd.Flags().StringVar(&opts.TxID, "tx", "", "restrict to one transaction")
	cmd.Flags().StringVar(&opts.External, "namespace", "", "restrict to one namespace (external name)")
	cmd.Flags().StringVar(&opts.UUID, "uuid", "", "namespace uuid (required with --namespace)")
	cmd.Flags().Int64Var(&opts.Since, "since", 0, "lowest commit seq to include")
	cmd.Flags().Int64Var(&opts.Until, "until", 0, "highest commit seq to include (0 = no bound)")

	return cmd
}

func (opts *LogOptions) filter() (query.Filter, error) {
	var filters []query.Filter
	if opts.Kind != "" {
		filters = append(filters, query.KindIs{Kind: ops.Kind(opts.Kind)})
	}
	if opts.TxID != "" {
		filters = append(filters, query.TxIs{TxID: opts.TxID})
	}
	if (opts.External == "") != (opts.UUID == "") {
		return nil, NewExitError(ExitCommandError, "--namespace and --uuid must be given together")
	}
	if opts.External != "" {
		id, err := uuid.Parse(opts.UUID)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("namespace uuid %q", opts.UUID), err)
		}
		filters = append(filters, query.NamespaceIs{
			ID: prov.NewNamespaceID(prov.ExternalID(opts.External), id)})
	}
	if opts.Since > 0 {
		filters = append(filters, query.SeqAtLeast{Seq: opts.Since})
	}
	if opts.Until > 0 {
		filters = append(filters, query.SeqAtMost{Seq: opts.Until})
	}
	if len(filters) == 0 {
		return nil, nil
	}
	return query.And{Filters: filters}, nil
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	f, err := opts.filter()
	if err != nil {
		return err
	}
	if err := query.Validate(f); err != nil {
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	logged, err := st.QueryOperations(ctx, f)
	if err != nil {
		return WrapExitError(ExitCommandError, "query operation log", err)
	}

	entries := make([]LogEntry, 0, len(logged))
	for _, l := range logged {
		entry := LogEntry{Seq: l.Seq, Idx: l.Idx, TxID: l.TxID, Kind: string(l.Op.Kind())}
		if opts.Verbose {
			body, err := ops.Encode(l.Op)
			if err != nil {
				return WrapExitError(ExitCommandError, "encode logged operation", err)
			}
			entry.Body = json.RawMessage(body)
		}
		entries = append(entries, entry)
	}

	if opts.Format == "json" {
		return out.JSON(entries)
	}

	for _, entry := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%d.%d %s %s\n", entry.Seq, entry.Idx, entry.TxID, entry.Kind)
		if opts.Verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", entry.Body)
		}
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no matching operations")
	}
	return nil
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provenant/provenant/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	File    string
	Profile string
}

// ValidateResult is the payload reported after validation.
type ValidateResult struct {
	Profile string `json:"profile"`
	OpCount int    `json:"op_count"`
	Valid   bool   `json:"valid"`
	Error   string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check an operation batch against a CUE domain profile",
		Long: `Validate the typed attribute payloads of an operations file against
a CUE domain profile before submission. Structural operations always
pass; only set_attributes payloads are checked.

Exit codes:
  0 - every operation conforms to the profile
  1 - an operation does not conform
  2 - command error (file problems, malformed profile)

Examples:
  provenant validate --file ops.yaml --profile chemistry.cue
  provenant validate --file ops.yaml --profile chemistry.cue --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "path to operations YAML file (required)")
	_ = cmd.MarkFlagRequired("file")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "path to CUE domain profile (required)")
	_ = cmd.MarkFlagRequired("profile")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	source, err := os.ReadFile(opts.Profile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read profile", err)
	}
	profile, err := schema.LoadProfile(string(source))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile profile", err)
	}
	out.VerboseLog("compiled profile %q", profile.Name)

	batch, err := LoadOperations(opts.File)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load operations", err)
	}

	result := ValidateResult{Profile: profile.Name, OpCount: len(batch), Valid: true}
	if err := profile.Validate(batch); err != nil {
		result.Valid = false
		result.Error = err.Error()
	}

	if opts.Format == "json" {
		if err := out.JSON(result); err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "%d operations conform to profile %q\n", result.OpCount, result.Profile)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "validation failed: %s\n", result.Error)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "operations do not conform to the profile")
	}
	return nil
}

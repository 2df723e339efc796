package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/irbind/internal/irdoc"
)

// FileResult is the validation outcome for one IR document.
type FileResult struct {
	Path    string `json:"path"`
	Library string `json:"library,omitempty"`
	Valid   bool   `json:"valid"`
	Error   string `json:"error,omitempty"`
}

// ValidationResult aggregates per-file outcomes.
type ValidationResult struct {
	Valid bool         `json:"valid"`
	Files []FileResult `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <ir-file>...",
		Short: "Validate IR documents without materializing bindings",
		Long: `Validate IR documents against the structural schema.

Each file is parsed and schema-checked; nothing is compiled. Faster than
describe for checking generated IR in a build pipeline.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result := ValidationResult{Valid: true}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if ferr := formatter.Error(ErrCodeParse, err.Error(), nil); ferr != nil {
				return ferr
			}
			return &ExitError{Code: ExitCommandError, Message: "unreadable IR document", Err: err}
		}
		fr := FileResult{Path: path, Valid: true}
		doc, err := irdoc.Parse(path, data)
		if err != nil {
			fr.Valid = false
			fr.Error = err.Error()
			result.Valid = false
		} else {
			fr.Library = doc.Name()
			formatter.VerboseLog("%s: library %s ok", path, doc.Name())
		}
		result.Files = append(result.Files, fr)
	}

	if !result.Valid {
		for _, fr := range result.Files {
			if !fr.Valid {
				if err := formatter.Error(ErrCodeParse, fr.Path+": "+fr.Error, result); err != nil {
					return err
				}
				break
			}
		}
		return &ExitError{Code: ExitFailure, Message: "validation failed"}
	}
	return formatter.Successf(result, "%d document(s) valid", len(result.Files))
}

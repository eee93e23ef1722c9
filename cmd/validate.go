package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/jpegsqueeze/internal/report"
)

var validateCmd = &cobra.Command{
	Use:   "validate <report.json>",
	Short: "Validate a conversion report and check the output file still matches",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	r, err := report.ReadJSON(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errs := report.Validate(r, filepath.Dir(path))
	if len(errs) == 0 {
		fmt.Fprintln(out, "  ✓ Report is valid")
		fmt.Fprintf(out, "  ✓ %s matches (%s, hash %s)\n", r.Output.Path, formatBytes(r.Output.Size), r.Output.Hash)
		return nil
	}

	fmt.Fprintf(out, "  ✗ Report has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(out, "    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

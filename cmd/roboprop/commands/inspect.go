package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/art-e-fact/RoboProp/internal/inspect"
)

// inspect <model_dir>: check the exported files.
func inspectCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <model_dir>",
		Short: "Check an exported model directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := inspect.Dir(args[0])
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return report.Err()
		},
	}
}

func printReport(out io.Writer, r *inspect.Report) {
	for _, m := range r.Manifests {
		fmt.Fprintf(out, "manifest  %s\n", m)
	}
	for _, m := range r.Meshes {
		line := fmt.Sprintf("%-9s %s (%s, %d meshes", m.Role, m.File, m.Format, m.Meshes)
		if !m.Bounds.IsEmpty() {
			s := m.Bounds.Size()
			line += fmt.Sprintf(", %.3g x %.3g x %.3g", s.X, s.Y, s.Z)
		}
		fmt.Fprintln(out, line+")")
	}
	if r.OK() {
		fmt.Fprintln(out, "OK")
	}
}

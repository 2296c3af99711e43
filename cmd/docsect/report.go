package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report <doc-id>",
	Short: "Write the XLSX catalog of a stored document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid document id %q", args[0])
		}
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		out := reportOut
		if out == "" {
			out = fmt.Sprintf("document_%d.xlsx", id)
		}
		if err := eng.Report(cmd.Context(), id, out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s catalog written to %s\n", successStyle.Render("✓"), out)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Output XLSX path (default document_<id>.xlsx)")

	rootCmd.AddCommand(reportCmd)
}

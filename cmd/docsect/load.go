package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load <artifact-dir>...",
	Short: "Load section artifact directories into the database",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		w := cmd.OutOrStdout()
		for _, dir := range args {
			docID, err := eng.Load(cmd.Context(), dir)
			if err != nil {
				return err
			}
			sections, err := eng.Sections(cmd.Context(), docID)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s %s %s %d sections as document %d\n",
				successStyle.Render("✓"), dir, dimStyle.Render("->"), len(sections), docID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

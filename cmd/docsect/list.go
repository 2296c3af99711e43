package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		docs, err := eng.ListDocuments(cmd.Context())
		if err != nil {
			return err
		}
		formatDocuments(cmd.OutOrStdout(), docs)
		return nil
	},
}

var sectionsCmd = &cobra.Command{
	Use:   "sections <doc-id>",
	Short: "Print the stored sections of a document",
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

		sections, err := eng.Sections(cmd.Context(), id)
		if err != nil {
			return err
		}
		formatSections(cmd.OutOrStdout(), sections)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <doc-id>",
	Short: "Remove a document and its sections from the database",
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

		if err := eng.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s document %d deleted\n", successStyle.Render("✓"), id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(deleteCmd)
}

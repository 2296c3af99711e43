package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/docsect"
)

var (
	extractLayout string
	extractSource string
	extractOut    string
	extractForce  bool
)

var errOutWithMany = errors.New("--out needs exactly one PDF")

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>...",
	Short: "Extract section artifacts from one or more PDFs",
	Long: `Extract resolves the sections of each PDF, writes one JSON file per section
plus section_index.json under the output directory, and loads the sections
into the database. Unchanged documents are skipped unless --force is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		var opts []docsect.ExtractOption
		if extractForce {
			opts = append(opts, docsect.WithForce())
		}
		if extractSource != "" {
			opts = append(opts, docsect.WithSource(extractSource))
		}
		if extractLayout != "" {
			opts = append(opts, docsect.WithLayoutFile(extractLayout))
		}
		if extractOut != "" {
			if len(args) > 1 {
				return errOutWithMany
			}
			opts = append(opts, docsect.WithOutputDir(extractOut))
		}

		for _, path := range args {
			res, err := eng.Extract(cmd.Context(), path, opts...)
			if err != nil {
				return err
			}
			formatExtract(cmd.OutOrStdout(), res)
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractLayout, "layout", "", "Layout-detection JSON file to use as the item source")
	extractCmd.Flags().StringVar(&extractSource, "source", "", "Layout source (pdf, layout-json)")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "Artifact directory (single PDF only)")
	extractCmd.Flags().BoolVarP(&extractForce, "force", "f", false, "Rewrite artifacts even if the document is unchanged")

	rootCmd.AddCommand(extractCmd)
}

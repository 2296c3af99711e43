package main

import (
	"github.com/spf13/cobra"

	"github.com/brunobiangulo/docsect"
	"github.com/brunobiangulo/docsect/continuation"
)

var (
	contPolicy string
	contDoc    int64
)

var continuationsCmd = &cobra.Command{
	Use:   "continuations <page-layouts.json>",
	Short: "Detect tables that continue across page breaks",
	Long: `Continuations reads a page layouts file and links each page whose first
table continues the previous page's last table. With --doc the graded
candidates are stored under that document and appear in its report.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		var opts []docsect.ContinuationOption
		if contPolicy != "" {
			policy, err := continuation.ParsePolicy(contPolicy)
			if err != nil {
				return err
			}
			opts = append(opts, docsect.WithPolicy(policy))
		}
		if contDoc != 0 {
			opts = append(opts, docsect.WithDocument(contDoc))
		}

		res, err := eng.Continuations(cmd.Context(), args[0], opts...)
		if err != nil {
			return err
		}
		formatContinuations(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	continuationsCmd.Flags().StringVarP(&contPolicy, "policy", "p", "", "Continuation predicate (structural, positional)")
	continuationsCmd.Flags().Int64Var(&contDoc, "doc", 0, "Store candidates under this document ID")

	rootCmd.AddCommand(continuationsCmd)
}

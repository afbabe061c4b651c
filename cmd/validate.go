package cmd

import (
	"os"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/mgn-tools/launch-template-patcher/internal/overrides"
	"github.com/mgn-tools/launch-template-patcher/internal/report"
	"github.com/mgn-tools/launch-template-patcher/internal/validator"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an override CSV file without applying it",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := overrides.LoadRows(templateFile)
		if err != nil {
			return err
		}

		var summary report.Summary
		for i := range rows {
			row := &rows[i]
			result := report.Result{Hostname: row.ServerName, Status: report.StatusOK}
			if err := validator.ValidateRow(row); err != nil {
				result.Status = report.StatusFailed
				result.Detail = err.Error()
			} else if set, err := overrides.ParseRow(row); err != nil {
				result.Status = report.StatusFailed
				result.Detail = err.Error()
			} else if debug {
				pp.Printf("Overrides for %v: %v\n", row.ServerName, set)
			}
			summary.Add(result)
		}

		summary.Render(os.Stdout)
		pp.Printf("Validated %v row(s), %v invalid\n", summary.Count(), summary.Failed())
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&templateFile, "template-file", "", "Path to the override CSV file")
	validateCmd.MarkFlagRequired("template-file")
	rootCmd.AddCommand(validateCmd)
}

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/mgn"
	mgntypes "github.com/aws/aws-sdk-go-v2/service/mgn/types"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/mgn-tools/launch-template-patcher/internal/discovery"
	"github.com/mgn-tools/launch-template-patcher/internal/merge"
	"github.com/mgn-tools/launch-template-patcher/internal/overrides"
	"github.com/mgn-tools/launch-template-patcher/internal/publish"
	"github.com/mgn-tools/launch-template-patcher/internal/report"
	"github.com/mgn-tools/launch-template-patcher/internal/types"
	"github.com/mgn-tools/launch-template-patcher/internal/validator"
)

var templateFile string

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Apply per-server launch overrides from a CSV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := overrides.LoadRows(templateFile)
		if err != nil {
			return err
		}

		cfg, err := initAWS()
		if err != nil {
			return err
		}

		mgnClient := mgn.NewFromConfig(cfg)
		publisher := &publish.Publisher{
			EC2: ec2.NewFromConfig(cfg),
			MGN: mgnClient,
		}

		servers, err := discovery.ListSourceServers(context.TODO(), mgnClient, &mgntypes.DescribeSourceServersRequestFilters{
			IsArchived: aws.Bool(false),
		})
		if err != nil {
			return err
		}

		var summary report.Summary
		for i := range rows {
			row := &rows[i]
			summary.Add(updateTarget(context.TODO(), publisher, servers, row))
		}

		summary.Render(os.Stdout)
		pp.Printf("Finished updating %v target(s), %v failed\n", summary.Count(), summary.Failed())
		return nil
	},
}

// updateTarget runs one row's merge pass end to end. A failure here is
// recorded and never aborts the remaining rows.
func updateTarget(ctx context.Context, publisher *publish.Publisher, servers []mgntypes.SourceServer, row *types.OverrideRow) report.Result {
	result := report.Result{Hostname: row.ServerName}

	if err := validator.ValidateRow(row); err != nil {
		result.Status = report.StatusFailed
		result.Detail = err.Error()
		return result
	}

	server := discovery.FindByHostname(servers, row.ServerName)
	if server == nil {
		result.Status = report.StatusSkipped
		result.Detail = "no replicating server with this hostname"
		return result
	}
	result.ServerID = aws.ToString(server.SourceServerID)

	if server.LifeCycle != nil && discovery.ExcludedLifecycleState(server.LifeCycle.State) {
		result.Status = report.StatusSkipped
		result.Detail = fmt.Sprintf("server is in %s state", server.LifeCycle.State)
		return result
	}

	set, err := overrides.ParseRow(row)
	if err != nil {
		result.Status = report.StatusFailed
		result.Detail = err.Error()
		return result
	}

	settings, err := publisher.LaunchConfiguration(ctx, result.ServerID)
	if err != nil {
		if publish.IsNotFound(err) {
			result.Status = report.StatusSkipped
			result.Detail = "server has no launch configuration yet"
			return result
		}
		result.Status = report.StatusFailed
		result.Detail = err.Error()
		return result
	}
	templateID := aws.ToString(settings.Ec2LaunchTemplateID)

	version, err := publisher.DefaultTemplateVersion(ctx, templateID)
	if err != nil {
		result.Status = report.StatusFailed
		result.Detail = err.Error()
		return result
	}

	if debug {
		pp.Printf("Current launch settings for %v: %v\n", result.ServerID, settings)
		pp.Printf("Current launch template version for %v: %v\n", result.ServerID, version)
	}

	out := merge.Apply(merge.Input{
		Template:  version.LaunchTemplateData,
		Settings:  settings,
		Overrides: set,
	})

	if debug {
		pp.Printf("Merged launch template data for %v: %v\n", result.ServerID, out.TemplateData)
		pp.Printf("Field changes for %v: %v\n", result.ServerID, out.Changes)
	}

	newVersion, err := publisher.PublishTemplate(ctx, templateID, out.TemplateData, version.VersionNumber)
	if err != nil {
		result.Status = report.StatusFailed
		result.Detail = err.Error()
		return result
	}

	if err := publisher.UpdateSettings(ctx, out.Settings); err != nil {
		result.Status = report.StatusFailed
		result.Detail = err.Error()
		return result
	}

	result.Status = report.StatusUpdated
	result.Detail = fmt.Sprintf("version %d, %d field change(s)", newVersion, len(out.Changes))
	return result
}

func init() {
	updateCmd.Flags().StringVar(&templateFile, "template-file", "", "Path to the override CSV file")
	updateCmd.MarkFlagRequired("template-file")
	rootCmd.AddCommand(updateCmd)
}

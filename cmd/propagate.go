package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
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

var propagation types.PropagationRequest
var parameterList string

// propagateCmd represents the propagate command
var propagateCmd = &cobra.Command{
	Use:   "propagate",
	Short: "Propagate launch template fields from one source to many targets",
	Long: `Copy a whitelisted set of launch template fields from a source server's
template (or an explicit template id) to the launch templates of the selected
target servers, optionally together with launch settings, post-launch settings
and replication settings.
	`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if parameterList != "" {
			for _, p := range strings.Split(parameterList, ",") {
				propagation.Parameters = append(propagation.Parameters, types.Parameter(p))
			}
		} else {
			propagation.Parameters = types.AllParameters()
		}

		if err := validator.ValidatePropagation(&propagation); err != nil {
			return err
		}

		selector, err := discovery.ParseSelector(propagation.Target)
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

		sourceData, err := sourceTemplateData(context.TODO(), publisher)
		if err != nil {
			return err
		}

		var launchSettings *mgn.GetLaunchConfigurationOutput
		if propagation.CopyLaunchSettings {
			launchSettings, err = sourceLaunchSettings(context.TODO(), publisher)
			if err != nil {
				return err
			}
		}

		var postLaunchSource *mgn.GetLaunchConfigurationOutput
		if propagation.CopyPostLaunchSettings {
			postLaunchSource, err = publisher.LaunchConfiguration(context.TODO(), propagation.SourceServer)
			if err != nil {
				return err
			}
		}

		var replication *mgn.GetReplicationConfigurationOutput
		if propagation.CopyReplicationSettings {
			replication, err = publisher.ReplicationConfiguration(context.TODO(), propagation.SourceServer)
			if err != nil {
				return err
			}
		}

		targets, err := discovery.Resolve(context.TODO(), mgnClient, selector, propagation.SourceServer)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			pp.Printf("No target servers found matching the criteria\n")
			return nil
		}
		pp.Printf("Found %v target server(s) matching the criteria\n", len(targets))

		var summary report.Summary
		for _, target := range targets {
			summary.Add(propagateTarget(context.TODO(), publisher, sourceData, launchSettings, postLaunchSource, replication, target))
		}

		summary.Render(os.Stdout)
		pp.Printf("Finished updating %v target(s), %v failed\n", summary.Count(), summary.Failed())
		return nil
	},
}

// sourceTemplateData resolves the source launch template's default version
// data, from a source server's launch configuration or an explicit template id.
func sourceTemplateData(ctx context.Context, publisher *publish.Publisher) (*ec2types.ResponseLaunchTemplateData, error) {
	templateID := propagation.TemplateID
	if propagation.SourceServer != "" {
		settings, err := publisher.LaunchConfiguration(ctx, propagation.SourceServer)
		if err != nil {
			return nil, err
		}
		templateID = aws.ToString(settings.Ec2LaunchTemplateID)
	}

	version, err := publisher.DefaultTemplateVersion(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if debug {
		pp.Printf("Source launch template data: %v\n", version.LaunchTemplateData)
	}
	return version.LaunchTemplateData, nil
}

// sourceLaunchSettings reads the scalar settings to propagate, from the
// settings file when given, otherwise from the source server.
func sourceLaunchSettings(ctx context.Context, publisher *publish.Publisher) (*mgn.GetLaunchConfigurationOutput, error) {
	if propagation.LaunchSettingsFile != "" {
		return overrides.LoadLaunchSettings(propagation.LaunchSettingsFile)
	}
	return publisher.LaunchConfiguration(ctx, propagation.SourceServer)
}

func propagateTarget(
	ctx context.Context,
	publisher *publish.Publisher,
	sourceData *ec2types.ResponseLaunchTemplateData,
	launchSettings *mgn.GetLaunchConfigurationOutput,
	postLaunchSource *mgn.GetLaunchConfigurationOutput,
	replication *mgn.GetReplicationConfigurationOutput,
	target mgntypes.SourceServer,
) report.Result {
	serverID := aws.ToString(target.SourceServerID)
	result := report.Result{ServerID: serverID}
	if target.SourceProperties != nil && target.SourceProperties.IdentificationHints != nil {
		result.Hostname = aws.ToString(target.SourceProperties.IdentificationHints.Hostname)
	}
	pp.Printf("Updating target server %v\n", serverID)

	if launchSettings != nil {
		if err := publisher.UpdateSettings(ctx, merge.PropagateSettings(launchSettings, serverID)); err != nil {
			result.Status = report.StatusFailed
			result.Detail = err.Error()
			return result
		}
	}
	if postLaunchSource != nil {
		if err := publisher.UpdateSettings(ctx, merge.PropagatePostLaunch(postLaunchSource, serverID)); err != nil {
			result.Status = report.StatusFailed
			result.Detail = err.Error()
			return result
		}
	}

	settings, err := publisher.LaunchConfiguration(ctx, serverID)
	if err != nil {
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

	fragment := merge.Propagate(sourceData, version.LaunchTemplateData, propagation.Parameters)
	if debug {
		pp.Printf("Template fragment for %v: %v\n", serverID, fragment)
	}

	newVersion, err := publisher.PublishTemplate(ctx, templateID, fragment, version.VersionNumber)
	if err != nil {
		result.Status = report.StatusFailed
		result.Detail = err.Error()
		return result
	}

	if replication != nil {
		if err := publisher.UpdateReplication(ctx, serverID, replication); err != nil {
			result.Status = report.StatusFailed
			result.Detail = err.Error()
			return result
		}
	}

	result.Status = report.StatusUpdated
	result.Detail = fmt.Sprintf("version %d", newVersion)
	return result
}

func init() {
	propagateCmd.Flags().StringVar(&propagation.Target, "target", "", "Target servers: comma separated ids, 'all', or key=value tag pair")
	propagateCmd.Flags().StringVar(&propagation.SourceServer, "source-server", "", "Source server whose launch template is copied to the targets")
	propagateCmd.Flags().StringVar(&propagation.TemplateID, "template-id", "", "Launch template id to copy from")
	propagateCmd.Flags().StringVar(&parameterList, "parameters", "", "Comma separated launch template fields to copy")
	propagateCmd.Flags().BoolVar(&propagation.CopyLaunchSettings, "copy-launch-settings", false, "Copy launch settings from the source server or settings file")
	propagateCmd.Flags().StringVar(&propagation.LaunchSettingsFile, "launch-settings-file", "", "Path to a launch settings JSON or YAML file")
	propagateCmd.Flags().BoolVar(&propagation.CopyPostLaunchSettings, "copy-post-launch-settings", false, "Copy post-launch settings from the source server")
	propagateCmd.Flags().BoolVar(&propagation.CopyReplicationSettings, "copy-replication-settings", false, "Copy replication settings from the source server")
	propagateCmd.MarkFlagRequired("target")
	rootCmd.AddCommand(propagateCmd)
}

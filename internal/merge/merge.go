// Package merge implements the launch configuration merge engine: given a
// target server's current launch template document and general launch
// settings plus one typed override set, it produces the new template data and
// settings update to publish. The engine performs no I/O and never mutates
// its inputs; fetching documents and publishing new versions belong to the
// discovery and publish packages.
package merge

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/mgn"

	"github.com/mgn-tools/launch-template-patcher/internal/overrides"
	"github.com/mgn-tools/launch-template-patcher/internal/types"
)

// Input is one merge pass: a snapshot of the target's documents plus the
// override set to apply. The snapshot is treated as immutable.
type Input struct {
	Template  *ec2types.ResponseLaunchTemplateData
	Settings  *mgn.GetLaunchConfigurationOutput
	Overrides *overrides.Set
}

// Output is the merged result: the template data for a new version, the
// launch settings update, and the field changes the pass produced.
type Output struct {
	TemplateData *ec2types.RequestLaunchTemplateData
	Settings     *mgn.UpdateLaunchConfigurationInput
	Changes      []types.FieldChange
}

// Apply runs all reconcilers over one target.
func Apply(in Input) *Output {
	settings, instanceType, changes := ReconcileSettings(in.Settings, in.Overrides)

	// the index 0 skip keys off the override row's own flag, not the
	// current settings value
	copyPrivateIP := aws.ToBool(in.Overrides.CopyPrivateIP)
	networkInterfaces, networkChanges := ReconcileNetworkInterfaces(in.Template.NetworkInterfaces, in.Overrides, copyPrivateIP)
	blockDevices, blockChanges := ReconcileBlockDevices(in.Template.BlockDeviceMappings, in.Overrides)
	placement, placementChanges := ReconcilePlacement(in.Template.Placement, in.Overrides)
	tagSpecifications, tagChanges := ReconcileTags(in.Template.TagSpecifications, in.Overrides.Tags)

	data := &ec2types.RequestLaunchTemplateData{
		InstanceType:        in.Template.InstanceType,
		Placement:           placement,
		NetworkInterfaces:   networkInterfaces,
		BlockDeviceMappings: blockDevices,
		TagSpecifications:   tagSpecifications,
		IamInstanceProfile:  requestIamInstanceProfile(in.Template.IamInstanceProfile),
	}
	if instanceType != "" {
		data.InstanceType = ec2types.InstanceType(instanceType)
	}

	changes = append(changes, networkChanges...)
	changes = append(changes, blockChanges...)
	changes = append(changes, placementChanges...)
	changes = append(changes, tagChanges...)

	return &Output{
		TemplateData: data,
		Settings:     settings,
		Changes:      changes,
	}
}

package merge

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/mgn"
	mgntypes "github.com/aws/aws-sdk-go-v2/service/mgn/types"

	"github.com/mgn-tools/launch-template-patcher/internal/types"
)

// Propagate copies the whitelisted fields of a source launch template into a
// template fragment for one target. Only the primary (device index 0) network
// interface is touched: whitelisted boolean fields take the source value or
// their defaults (public IP association defaults to false, delete on
// termination to true), subnet and groups are removed from the target when
// the source lacks them. Instance type, tenancy and IAM instance profile copy
// at the instance level when whitelisted and present on the source. The
// fragment is meant to be published against the target's current default
// version, inheriting every field it does not name.
func Propagate(
	source *ec2types.ResponseLaunchTemplateData,
	target *ec2types.ResponseLaunchTemplateData,
	params []types.Parameter,
) *ec2types.RequestLaunchTemplateData {
	src := extractPrimaryInterface(source.NetworkInterfaces)
	dst := extractPrimaryInterface(target.NetworkInterfaces)

	if types.HasParameter(params, types.ParameterAssociatePublicIPAddress) {
		dst.AssociatePublicIpAddress = aws.Bool(false)
		if src.AssociatePublicIpAddress != nil {
			dst.AssociatePublicIpAddress = src.AssociatePublicIpAddress
		}
	}
	if types.HasParameter(params, types.ParameterDeleteOnTermination) {
		dst.DeleteOnTermination = aws.Bool(true)
		if src.DeleteOnTermination != nil {
			dst.DeleteOnTermination = src.DeleteOnTermination
		}
	}
	if types.HasParameter(params, types.ParameterSubnetID) {
		dst.SubnetId = src.SubnetId
	}
	if types.HasParameter(params, types.ParameterGroups) {
		dst.Groups = append([]string(nil), src.Groups...)
		if len(src.Groups) == 0 {
			dst.Groups = nil
		}
	}

	fragment := &ec2types.RequestLaunchTemplateData{
		NetworkInterfaces: []ec2types.LaunchTemplateInstanceNetworkInterfaceSpecificationRequest{*dst},
	}

	if types.HasParameter(params, types.ParameterInstanceType) && source.InstanceType != "" {
		fragment.InstanceType = source.InstanceType
	}
	if types.HasParameter(params, types.ParameterTenancy) && source.Placement != nil && source.Placement.Tenancy != "" {
		fragment.Placement = &ec2types.LaunchTemplatePlacementRequest{
			Tenancy: source.Placement.Tenancy,
		}
	}
	if types.HasParameter(params, types.ParameterIamInstanceProfile) && source.IamInstanceProfile != nil {
		fragment.IamInstanceProfile = requestIamInstanceProfile(source.IamInstanceProfile)
	}

	return fragment
}

// extractPrimaryInterface reads the device index 0 interface out of a
// template's interface list, defaulting public IP association to false and
// delete on termination to true when found. An empty list is treated as
// holding a bare primary interface; a non-empty list without an index 0
// entry yields a bare interface with no defaults.
func extractPrimaryInterface(
	interfaces []ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification,
) *ec2types.LaunchTemplateInstanceNetworkInterfaceSpecificationRequest {
	out := &ec2types.LaunchTemplateInstanceNetworkInterfaceSpecificationRequest{
		DeviceIndex: aws.Int32(0),
	}
	if len(interfaces) == 0 {
		interfaces = []ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification{
			{DeviceIndex: aws.Int32(0)},
		}
	}
	for _, ni := range interfaces {
		if ni.DeviceIndex == nil || *ni.DeviceIndex != 0 {
			continue
		}
		out.AssociatePublicIpAddress = aws.Bool(false)
		if ni.AssociatePublicIpAddress != nil {
			out.AssociatePublicIpAddress = ni.AssociatePublicIpAddress
		}
		out.DeleteOnTermination = aws.Bool(true)
		if ni.DeleteOnTermination != nil {
			out.DeleteOnTermination = ni.DeleteOnTermination
		}
		if len(ni.Groups) > 0 {
			out.Groups = append([]string(nil), ni.Groups...)
		}
		if ni.SubnetId != nil {
			out.SubnetId = ni.SubnetId
		}
	}
	return out
}

// PropagateSettings builds the whole-record launch settings overwrite for one
// target. Unlike the row merge this path is not guarded per field: the
// source's scalar settings replace the target's.
func PropagateSettings(source *mgn.GetLaunchConfigurationOutput, targetServerID string) *mgn.UpdateLaunchConfigurationInput {
	return &mgn.UpdateLaunchConfigurationInput{
		SourceServerID:                      aws.String(targetServerID),
		CopyPrivateIp:                       source.CopyPrivateIp,
		CopyTags:                            source.CopyTags,
		EnableMapAutoTagging:                source.EnableMapAutoTagging,
		LaunchDisposition:                   source.LaunchDisposition,
		MapAutoTaggingMpeID:                 source.MapAutoTaggingMpeID,
		TargetInstanceTypeRightSizingMethod: source.TargetInstanceTypeRightSizingMethod,
	}
}

// PropagatePostLaunch builds the post-launch actions overwrite for one
// target, substituting an empty value when the source carries none.
func PropagatePostLaunch(source *mgn.GetLaunchConfigurationOutput, targetServerID string) *mgn.UpdateLaunchConfigurationInput {
	actions := source.PostLaunchActions
	if actions == nil {
		actions = &mgntypes.PostLaunchActions{}
	}
	return &mgn.UpdateLaunchConfigurationInput{
		SourceServerID:    aws.String(targetServerID),
		PostLaunchActions: actions,
	}
}

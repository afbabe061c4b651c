package merge

import (
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// The reconcilers consume the fetched (response) form of a launch template and
// build a fresh request form, never mutating the input. These converters copy
// a response entity into its request counterpart field by field.

func requestNetworkInterface(ni ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification) ec2types.LaunchTemplateInstanceNetworkInterfaceSpecificationRequest {
	out := ec2types.LaunchTemplateInstanceNetworkInterfaceSpecificationRequest{
		AssociatePublicIpAddress: ni.AssociatePublicIpAddress,
		DeleteOnTermination:      ni.DeleteOnTermination,
		Description:              ni.Description,
		DeviceIndex:              ni.DeviceIndex,
		Groups:                   append([]string(nil), ni.Groups...),
		NetworkInterfaceId:       ni.NetworkInterfaceId,
		SubnetId:                 ni.SubnetId,
	}
	if len(ni.Groups) == 0 {
		out.Groups = nil
	}
	for _, ip := range ni.PrivateIpAddresses {
		out.PrivateIpAddresses = append(out.PrivateIpAddresses, ec2types.PrivateIpAddressSpecification{
			Primary:          ip.Primary,
			PrivateIpAddress: ip.PrivateIpAddress,
		})
	}
	return out
}

func requestBlockDeviceMapping(bdm ec2types.LaunchTemplateBlockDeviceMapping) ec2types.LaunchTemplateBlockDeviceMappingRequest {
	out := ec2types.LaunchTemplateBlockDeviceMappingRequest{
		DeviceName:  bdm.DeviceName,
		NoDevice:    bdm.NoDevice,
		VirtualName: bdm.VirtualName,
	}
	if bdm.Ebs != nil {
		out.Ebs = &ec2types.LaunchTemplateEbsBlockDeviceRequest{
			DeleteOnTermination: bdm.Ebs.DeleteOnTermination,
			Encrypted:           bdm.Ebs.Encrypted,
			Iops:                bdm.Ebs.Iops,
			KmsKeyId:            bdm.Ebs.KmsKeyId,
			SnapshotId:          bdm.Ebs.SnapshotId,
			Throughput:          bdm.Ebs.Throughput,
			VolumeSize:          bdm.Ebs.VolumeSize,
			VolumeType:          bdm.Ebs.VolumeType,
		}
	}
	return out
}

func requestPlacement(p *ec2types.LaunchTemplatePlacement) *ec2types.LaunchTemplatePlacementRequest {
	if p == nil {
		return nil
	}
	return &ec2types.LaunchTemplatePlacementRequest{
		Affinity:             p.Affinity,
		AvailabilityZone:     p.AvailabilityZone,
		GroupName:            p.GroupName,
		HostId:               p.HostId,
		HostResourceGroupArn: p.HostResourceGroupArn,
		PartitionNumber:      p.PartitionNumber,
		SpreadDomain:         p.SpreadDomain,
		Tenancy:              p.Tenancy,
	}
}

func requestTagSpecification(ts ec2types.LaunchTemplateTagSpecification) ec2types.LaunchTemplateTagSpecificationRequest {
	out := ec2types.LaunchTemplateTagSpecificationRequest{
		ResourceType: ts.ResourceType,
	}
	for _, tag := range ts.Tags {
		out.Tags = append(out.Tags, ec2types.Tag{Key: tag.Key, Value: tag.Value})
	}
	return out
}

func requestIamInstanceProfile(p *ec2types.LaunchTemplateIamInstanceProfileSpecification) *ec2types.LaunchTemplateIamInstanceProfileSpecificationRequest {
	if p == nil {
		return nil
	}
	return &ec2types.LaunchTemplateIamInstanceProfileSpecificationRequest{
		Arn:  p.Arn,
		Name: p.Name,
	}
}

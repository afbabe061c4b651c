package merge

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgn-tools/launch-template-patcher/internal/overrides"
)

func iface(idx int32, fn func(*ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification)) ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification {
	ni := ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification{DeviceIndex: aws.Int32(idx)}
	if fn != nil {
		fn(&ni)
	}
	return ni
}

func TestReconcileNetworkInterfacesUpdateAndCreate(t *testing.T) {
	current := []ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification{
		iface(0, func(ni *ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification) {
			ni.SubnetId = aws.String("subnet-old")
		}),
	}
	set := &overrides.Set{
		SubnetByIndex: map[int32]string{0: "subnet-new", 1: "subnet-extra"},
	}

	result, changes := ReconcileNetworkInterfaces(current, set, false)

	require.Len(t, result, 2)
	assert.Equal(t, int32(0), aws.ToInt32(result[0].DeviceIndex))
	assert.Equal(t, "subnet-new", aws.ToString(result[0].SubnetId))
	assert.Equal(t, int32(1), aws.ToInt32(result[1].DeviceIndex))
	assert.Equal(t, "subnet-extra", aws.ToString(result[1].SubnetId))
	assert.Len(t, changes, 2)
}

func TestReconcileNetworkInterfacesENIClearsAttachmentFields(t *testing.T) {
	current := []ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification{
		iface(0, func(ni *ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification) {
			ni.SubnetId = aws.String("subnet-a")
			ni.Groups = []string{"sg-1"}
			ni.PrivateIpAddresses = []ec2types.PrivateIpAddressSpecification{{
				Primary:          aws.Bool(true),
				PrivateIpAddress: aws.String("10.0.0.5"),
			}}
		}),
	}
	set := &overrides.Set{ENIByIndex: map[int32]string{0: "eni-111"}}

	result, _ := ReconcileNetworkInterfaces(current, set, false)

	require.Len(t, result, 1)
	assert.Equal(t, "eni-111", aws.ToString(result[0].NetworkInterfaceId))
	assert.Nil(t, result[0].SubnetId)
	assert.Nil(t, result[0].Groups)
	assert.Nil(t, result[0].PrivateIpAddresses)
}

func TestReconcileNetworkInterfacesSubnetClearsENI(t *testing.T) {
	current := []ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification{
		iface(0, func(ni *ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification) {
			ni.NetworkInterfaceId = aws.String("eni-111")
		}),
	}
	set := &overrides.Set{SubnetByIndex: map[int32]string{0: "subnet-a"}}

	result, _ := ReconcileNetworkInterfaces(current, set, false)

	require.Len(t, result, 1)
	assert.Equal(t, "subnet-a", aws.ToString(result[0].SubnetId))
	assert.Nil(t, result[0].NetworkInterfaceId)
}

func TestReconcileNetworkInterfacesAbsentPrivateIPChannelWipes(t *testing.T) {
	current := []ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification{
		iface(0, func(ni *ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification) {
			ni.PrivateIpAddresses = []ec2types.PrivateIpAddressSpecification{{
				Primary:          aws.Bool(true),
				PrivateIpAddress: aws.String("10.0.0.5"),
			}}
		}),
		iface(1, func(ni *ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification) {
			ni.PrivateIpAddresses = []ec2types.PrivateIpAddressSpecification{{
				PrivateIpAddress: aws.String("10.0.1.5"),
			}}
		}),
	}
	set := &overrides.Set{
		SubnetByIndex: map[int32]string{0: "subnet-a", 1: "subnet-b"},
	}

	result, _ := ReconcileNetworkInterfaces(current, set, false)

	require.Len(t, result, 2)
	assert.Nil(t, result[0].PrivateIpAddresses)
	assert.Nil(t, result[1].PrivateIpAddresses)
}

func TestReconcileNetworkInterfacesCopyPrivateIPSkipsIndexZero(t *testing.T) {
	current := []ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification{
		iface(0, func(ni *ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification) {
			ni.PrivateIpAddresses = []ec2types.PrivateIpAddressSpecification{{
				Primary:          aws.Bool(true),
				PrivateIpAddress: aws.String("10.0.0.5"),
			}}
		}),
	}
	set := &overrides.Set{
		PrivateIPByIndex:    map[int32]string{0: "10.0.0.99", 1: "10.0.1.99"},
		HasPrivateIPChannel: true,
	}

	result, _ := ReconcileNetworkInterfaces(current, set, true)

	require.Len(t, result, 2)
	// index 0 keeps the platform-managed primary IP
	require.Len(t, result[0].PrivateIpAddresses, 1)
	assert.Equal(t, "10.0.0.5", aws.ToString(result[0].PrivateIpAddresses[0].PrivateIpAddress))
	require.Len(t, result[1].PrivateIpAddresses, 1)
	assert.Equal(t, "10.0.1.99", aws.ToString(result[1].PrivateIpAddresses[0].PrivateIpAddress))
	assert.True(t, aws.ToBool(result[1].PrivateIpAddresses[0].Primary))
}

func TestReconcileNetworkInterfacesPrunesUnreferenced(t *testing.T) {
	current := []ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification{
		iface(0, nil),
		iface(1, func(ni *ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification) {
			ni.SubnetId = aws.String("subnet-stale")
		}),
	}
	set := &overrides.Set{SubnetByIndex: map[int32]string{0: "subnet-a"}}

	result, changes := ReconcileNetworkInterfaces(current, set, false)

	require.Len(t, result, 1)
	assert.Equal(t, int32(0), aws.ToInt32(result[0].DeviceIndex))

	pruned := false
	for _, c := range changes {
		if c.Field == "NetworkInterfaces[1]" && c.New == "pruned" {
			pruned = true
		}
	}
	assert.True(t, pruned)
}

func TestReconcileNetworkInterfacesEmptyValueClears(t *testing.T) {
	current := []ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification{
		iface(0, func(ni *ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification) {
			ni.SubnetId = aws.String("subnet-a")
			ni.Groups = []string{"sg-1", "sg-2"}
		}),
	}
	set := &overrides.Set{
		SubnetByIndex:         map[int32]string{0: ""},
		SecurityGroupsByIndex: map[int32][]string{0: nil},
	}

	result, _ := ReconcileNetworkInterfaces(current, set, false)

	require.Len(t, result, 1)
	assert.Nil(t, result[0].SubnetId)
	assert.Nil(t, result[0].Groups)
}

func TestReconcileNetworkInterfacesNoChannelsPrunesEverything(t *testing.T) {
	current := []ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification{
		iface(0, nil),
		iface(1, nil),
	}

	result, _ := ReconcileNetworkInterfaces(current, &overrides.Set{}, false)
	assert.Empty(t, result)
}

func TestReconcileNetworkInterfacesInputNotMutated(t *testing.T) {
	current := []ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification{
		iface(0, func(ni *ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification) {
			ni.SubnetId = aws.String("subnet-a")
		}),
	}
	set := &overrides.Set{SubnetByIndex: map[int32]string{0: "subnet-b"}}

	_, _ = ReconcileNetworkInterfaces(current, set, false)

	assert.Equal(t, "subnet-a", aws.ToString(current[0].SubnetId))
}

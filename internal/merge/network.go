package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/mgn-tools/launch-template-patcher/internal/overrides"
	"github.com/mgn-tools/launch-template-patcher/internal/types"
)

// ReconcileNetworkInterfaces merges the four network override channels into
// the current interface list and returns the desired interface set, ordered
// by device index.
//
// Channels apply in a fixed order so that attachment identity wins last:
// subnet, then security groups, then primary private IP, then ENI. Assigning
// an ENI clears subnet, groups and private IPs on that interface; assigning
// any of those clears the ENI. Interfaces whose device index is not named by
// any channel are pruned, even if they pre-existed: the override set describes
// the complete desired index space, not an additive patch.
//
// When the private IP channel is absent from the override set altogether,
// private IPs are cleared from every interface in the document. Both reference
// implementations agree on this unspecified-means-none behavior, so it is kept
// as-is. An index 0 private IP override is skipped while copyPrivateIP is set,
// since the platform derives the primary IP itself in that case.
func ReconcileNetworkInterfaces(
	current []ec2types.LaunchTemplateInstanceNetworkInterfaceSpecification,
	set *overrides.Set,
	copyPrivateIP bool,
) ([]ec2types.LaunchTemplateInstanceNetworkInterfaceSpecificationRequest, []types.FieldChange) {
	byIndex := make(map[int32]*ec2types.LaunchTemplateInstanceNetworkInterfaceSpecificationRequest)
	for _, ni := range current {
		if ni.DeviceIndex == nil {
			continue
		}
		req := requestNetworkInterface(ni)
		byIndex[*ni.DeviceIndex] = &req
	}

	var changes []types.FieldChange
	record := func(idx int32, field, old, new string) {
		changes = append(changes, types.FieldChange{
			Field: fmt.Sprintf("NetworkInterfaces[%d].%s", idx, field),
			Old:   old,
			New:   new,
		})
	}

	referenced := set.ReferencedIndexes()
	for idx := range referenced {
		if _, ok := byIndex[idx]; !ok {
			byIndex[idx] = &ec2types.LaunchTemplateInstanceNetworkInterfaceSpecificationRequest{
				DeviceIndex: aws.Int32(idx),
			}
		}
	}

	for _, idx := range sortedIndexes(set.SubnetByIndex) {
		ni := byIndex[idx]
		subnet := set.SubnetByIndex[idx]
		if subnet == "" {
			if ni.SubnetId != nil {
				record(idx, "SubnetId", *ni.SubnetId, "")
			}
			ni.SubnetId = nil
			continue
		}
		record(idx, "SubnetId", aws.ToString(ni.SubnetId), subnet)
		ni.SubnetId = aws.String(subnet)
		ni.NetworkInterfaceId = nil
	}

	for _, idx := range sortedIndexes(set.SecurityGroupsByIndex) {
		ni := byIndex[idx]
		groups := set.SecurityGroupsByIndex[idx]
		if len(groups) == 0 {
			if len(ni.Groups) > 0 {
				record(idx, "Groups", strings.Join(ni.Groups, ";"), "")
			}
			ni.Groups = nil
			continue
		}
		record(idx, "Groups", strings.Join(ni.Groups, ";"), strings.Join(groups, ";"))
		ni.Groups = append([]string(nil), groups...)
		ni.NetworkInterfaceId = nil
	}

	if !set.HasPrivateIPChannel {
		for _, ni := range byIndex {
			ni.PrivateIpAddresses = nil
		}
	} else {
		for _, idx := range sortedIndexes(set.PrivateIPByIndex) {
			if idx == 0 && copyPrivateIP {
				continue
			}
			ni := byIndex[idx]
			ip := set.PrivateIPByIndex[idx]
			if ip == "" {
				if len(ni.PrivateIpAddresses) > 0 {
					record(idx, "PrivateIpAddresses", aws.ToString(ni.PrivateIpAddresses[0].PrivateIpAddress), "")
				}
				ni.PrivateIpAddresses = nil
				continue
			}
			record(idx, "PrivateIpAddresses", primaryIP(ni.PrivateIpAddresses), ip)
			ni.PrivateIpAddresses = []ec2types.PrivateIpAddressSpecification{{
				Primary:          aws.Bool(true),
				PrivateIpAddress: aws.String(ip),
			}}
		}
	}

	for _, idx := range sortedIndexes(set.ENIByIndex) {
		ni := byIndex[idx]
		eni := set.ENIByIndex[idx]
		if eni == "" {
			if ni.NetworkInterfaceId != nil {
				record(idx, "NetworkInterfaceId", *ni.NetworkInterfaceId, "")
			}
			ni.NetworkInterfaceId = nil
			continue
		}
		record(idx, "NetworkInterfaceId", aws.ToString(ni.NetworkInterfaceId), eni)
		ni.NetworkInterfaceId = aws.String(eni)
		ni.SubnetId = nil
		ni.Groups = nil
		ni.PrivateIpAddresses = nil
	}

	result := make([]ec2types.LaunchTemplateInstanceNetworkInterfaceSpecificationRequest, 0, len(referenced))
	for _, idx := range sortedIndexes(referenced) {
		result = append(result, *byIndex[idx])
	}
	for idx := range byIndex {
		if _, ok := referenced[idx]; !ok {
			changes = append(changes, types.FieldChange{
				Field: fmt.Sprintf("NetworkInterfaces[%d]", idx),
				Old:   "present",
				New:   "pruned",
			})
		}
	}
	return result, changes
}

func primaryIP(ips []ec2types.PrivateIpAddressSpecification) string {
	for _, ip := range ips {
		if aws.ToBool(ip.Primary) {
			return aws.ToString(ip.PrivateIpAddress)
		}
	}
	return ""
}

func sortedIndexes[V any](m map[int32]V) []int32 {
	idxs := make([]int32, 0, len(m))
	for idx := range m {
		idxs = append(idxs, idx)
	}
	sort.Slice(idxs, func(i, j int) bool { return idxs[i] < idxs[j] })
	return idxs
}

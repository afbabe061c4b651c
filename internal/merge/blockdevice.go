package merge

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/mgn-tools/launch-template-patcher/internal/overrides"
	"github.com/mgn-tools/launch-template-patcher/internal/types"
)

// ReconcileBlockDevices merges per-device volume performance overrides into
// the current block device mappings, preserving their order. Overrides that
// reference a device name absent from the document are ignored; no mappings
// are created. Volume type applies first, then throughput and IOPS, each
// gated on the resulting volume type: throughput only exists on gp3, IOPS
// only on gp3, io1 and io2; an override landing on any other type removes
// the attribute instead.
func ReconcileBlockDevices(
	current []ec2types.LaunchTemplateBlockDeviceMapping,
	set *overrides.Set,
) ([]ec2types.LaunchTemplateBlockDeviceMappingRequest, []types.FieldChange) {
	result := make([]ec2types.LaunchTemplateBlockDeviceMappingRequest, 0, len(current))
	byName := make(map[string]*ec2types.LaunchTemplateBlockDeviceMappingRequest, len(current))
	for _, bdm := range current {
		result = append(result, requestBlockDeviceMapping(bdm))
		if bdm.DeviceName != nil {
			byName[*bdm.DeviceName] = &result[len(result)-1]
		}
	}

	var changes []types.FieldChange
	record := func(device, field, old, new string) {
		changes = append(changes, types.FieldChange{
			Field: fmt.Sprintf("BlockDeviceMappings[%s].Ebs.%s", device, field),
			Old:   old,
			New:   new,
		})
	}

	for _, device := range sortedDevices(set.VolumeTypeByDevice) {
		bdm, ok := byName[device]
		if !ok {
			continue
		}
		volumeType := set.VolumeTypeByDevice[device]
		if bdm.Ebs == nil {
			bdm.Ebs = &ec2types.LaunchTemplateEbsBlockDeviceRequest{}
		}
		record(device, "VolumeType", string(bdm.Ebs.VolumeType), volumeType)
		bdm.Ebs.VolumeType = ec2types.VolumeType(volumeType)
	}

	for _, device := range sortedDevices(set.ThroughputByDevice) {
		bdm, ok := byName[device]
		if !ok || bdm.Ebs == nil {
			continue
		}
		if bdm.Ebs.VolumeType == ec2types.VolumeTypeGp3 {
			throughput := set.ThroughputByDevice[device]
			record(device, "Throughput", int32String(bdm.Ebs.Throughput), strconv.Itoa(int(throughput)))
			bdm.Ebs.Throughput = aws.Int32(throughput)
		} else if bdm.Ebs.Throughput != nil {
			record(device, "Throughput", int32String(bdm.Ebs.Throughput), "")
			bdm.Ebs.Throughput = nil
		}
	}

	for _, device := range sortedDevices(set.IopsByDevice) {
		bdm, ok := byName[device]
		if !ok || bdm.Ebs == nil {
			continue
		}
		if iopsCapable(bdm.Ebs.VolumeType) {
			iops := set.IopsByDevice[device]
			record(device, "Iops", int32String(bdm.Ebs.Iops), strconv.Itoa(int(iops)))
			bdm.Ebs.Iops = aws.Int32(iops)
		} else if bdm.Ebs.Iops != nil {
			record(device, "Iops", int32String(bdm.Ebs.Iops), "")
			bdm.Ebs.Iops = nil
		}
	}

	return result, changes
}

func iopsCapable(t ec2types.VolumeType) bool {
	switch t {
	case ec2types.VolumeTypeGp3, ec2types.VolumeTypeIo1, ec2types.VolumeTypeIo2:
		return true
	}
	return false
}

func int32String(v *int32) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(int(*v))
}

func sortedDevices[V any](m map[string]V) []string {
	devices := make([]string, 0, len(m))
	for device := range m {
		devices = append(devices, device)
	}
	sort.Strings(devices)
	return devices
}

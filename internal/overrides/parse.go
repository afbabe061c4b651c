package overrides

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/mgn-tools/launch-template-patcher/internal/types"
)

// ParseRow turns a raw CSV row into a typed override set. All stringly-typed
// composite values (index:value channels, device:value channels, key:value
// tags) are decoded here so the reconcilers never see raw strings.
func ParseRow(row *types.OverrideRow) (*Set, error) {
	set := &Set{
		Windows: strings.Contains(strings.ToLower(row.OS), "windows"),

		RightSizingMethod: row.RightSizing,
		InstanceType:      row.InstanceType,
		CopyPrivateIP:     parseBool(row.CopyPrivateIP),
		EnableAutoTagging: parseBool(row.EnableAutoTagging),
		AutoTaggingMpeID:  row.AutoTaggingMpeID,
		LaunchDisposition: row.LaunchDisposition,
		CopyTags:          parseBool(row.CopyTags),
		OSByol:            parseBool(row.OSLicensingByol),
		BootMode:          row.BootMode,

		PlacementGroupName:   row.PlacementGroupName,
		Tenancy:              row.Tenancy,
		HostID:               row.HostID,
		HostResourceGroupArn: row.HostResourceGroupArn,
	}

	var err error
	if set.ENIByIndex, err = parseIndexChannel("ENI", row.ENI); err != nil {
		return nil, err
	}
	if set.SubnetByIndex, err = parseIndexChannel("Subnet_ID", row.SubnetID); err != nil {
		return nil, err
	}
	groups, err := parseIndexChannel("Security_Groups", row.SecurityGroups)
	if err != nil {
		return nil, err
	}
	if groups != nil {
		set.SecurityGroupsByIndex = make(map[int32][]string, len(groups))
		for idx, v := range groups {
			if v == "" {
				set.SecurityGroupsByIndex[idx] = nil
				continue
			}
			set.SecurityGroupsByIndex[idx] = strings.Split(v, ";")
		}
	}
	if set.PrivateIPByIndex, err = parseIndexChannel("Primary_private_ip", row.PrivateIP); err != nil {
		return nil, err
	}
	set.HasPrivateIPChannel = set.PrivateIPByIndex != nil

	if set.VolumeTypeByDevice, err = parseDeviceChannel("volume_type", row.VolumeType, set.Windows); err != nil {
		return nil, err
	}
	if set.ThroughputByDevice, err = parseDeviceIntChannel("volume_throughput", row.VolumeThroughput, set.Windows); err != nil {
		return nil, err
	}
	if set.IopsByDevice, err = parseDeviceIntChannel("volume_iops", row.VolumeIops, set.Windows); err != nil {
		return nil, err
	}

	if set.Tags, err = parseTags(row.ResourceTags); err != nil {
		return nil, err
	}

	return set, nil
}

// parseBool maps a free-form boolean column onto an optional bool: absent when
// empty, true only on a case-insensitive "true".
func parseBool(v string) *bool {
	if v == "" {
		return nil
	}
	return aws.Bool(strings.EqualFold(v, "true"))
}

// parseIndexChannel decodes an "index:value,index:value" channel column.
// Returns nil when the column is empty, so callers can tell an absent channel
// from a present-but-clearing one. Later tokens for the same index win.
func parseIndexChannel(column, raw string) (map[int32]string, error) {
	if raw == "" {
		return nil, nil
	}
	out := make(map[int32]string)
	for _, token := range strings.Split(stripSpace(raw), ",") {
		idxStr, value, ok := strings.Cut(token, ":")
		if !ok {
			return nil, &MalformedOverrideError{Column: column, Token: token, Reason: "expected index:value"}
		}
		idx, err := strconv.ParseInt(idxStr, 10, 32)
		if err != nil || idx < 0 {
			return nil, &MalformedOverrideError{Column: column, Token: token, Reason: "device index is not a non-negative integer"}
		}
		out[int32(idx)] = value
	}
	return out, nil
}

// parseDeviceChannel decodes a "device:value" channel column. Windows device
// names carry a drive-letter segment, so the key is the first two colon
// separated segments there and the first segment otherwise.
func parseDeviceChannel(column, raw string, windows bool) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, token := range strings.Split(raw, ",") {
		parts := strings.Split(token, ":")
		need := 2
		if windows {
			need = 3
		}
		if len(parts) < need {
			return nil, &MalformedOverrideError{Column: column, Token: token, Reason: "expected device:value"}
		}
		out[strings.Join(parts[:need-1], ":")] = parts[need-1]
	}
	return out, nil
}

func parseDeviceIntChannel(column, raw string, windows bool) (map[string]int32, error) {
	byDevice, err := parseDeviceChannel(column, raw, windows)
	if err != nil || byDevice == nil {
		return nil, err
	}
	out := make(map[string]int32, len(byDevice))
	for device, v := range byDevice {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, &MalformedOverrideError{Column: column, Token: device + ":" + v, Reason: "value is not an integer"}
		}
		out[device] = int32(n)
	}
	return out, nil
}

// parseTags decodes the comma separated "key:value" tag column.
func parseTags(raw string) ([]ec2types.Tag, error) {
	if raw == "" {
		return nil, nil
	}
	var tags []ec2types.Tag
	for _, token := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(token, ":")
		if !ok {
			return nil, &MalformedOverrideError{Column: "Resource_tags", Token: token, Reason: "expected key:value"}
		}
		tags = append(tags, ec2types.Tag{Key: aws.String(key), Value: aws.String(value)})
	}
	return tags, nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

package overrides

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mgn"
	mgntypes "github.com/aws/aws-sdk-go-v2/service/mgn/types"
	"gopkg.in/yaml.v2"

	"github.com/mgn-tools/launch-template-patcher/internal/types"
)

// column headers of the override CSV
const (
	colServerName           = "Server_Name"
	colRightSizing          = "Instance_type_right_sizing"
	colInstanceType         = "EC2_Instance_type"
	colCopyPrivateIP        = "Copy_private_ip"
	colEnableAutoTagging    = "Enable_Map_Auto_Tagging"
	colAutoTaggingMpeID     = "Map_Auto_Tagging_Mpe_ID"
	colLaunchDisposition    = "Start_Instance_upon_launch"
	colCopyTags             = "Transfer_Server_tags"
	colOS                   = "OS"
	colOSLicensingByol      = "OS_licensing_byol"
	colBootMode             = "Boot_mode"
	colPlacementGroupName   = "placement_group_name"
	colTenancy              = "Tenancy"
	colHostID               = "HostId"
	colHostResourceGroupArn = "HostresourceGroupArn"
	colENI                  = "ENI"
	colSubnetID             = "Subnet_ID"
	colSecurityGroups       = "Security_Groups"
	colPrivateIP            = "Primary_private_ip"
	colVolumeType           = "volume_type"
	colVolumeThroughput     = "volume_throughput"
	colVolumeIops           = "volume_iops"
	colResourceTags         = "Resource_tags"
)

// LoadRows reads the override CSV and returns one raw row per target server.
// Columns are matched by header name; absent columns read as empty overrides.
func LoadRows(path string) ([]types.OverrideRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading override file %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("override file %s has no header row", path)
	}

	header := records[0]
	if len(header) > 0 {
		// spreadsheet exports often carry a UTF-8 BOM
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	if _, ok := index[colServerName]; !ok {
		return nil, fmt.Errorf("override file %s is missing the %s column", path, colServerName)
	}

	rows := make([]types.OverrideRow, 0, len(records)-1)
	for _, record := range records[1:] {
		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}
		rows = append(rows, types.OverrideRow{
			ServerName:           cell(colServerName),
			RightSizing:          cell(colRightSizing),
			InstanceType:         cell(colInstanceType),
			CopyPrivateIP:        cell(colCopyPrivateIP),
			EnableAutoTagging:    cell(colEnableAutoTagging),
			AutoTaggingMpeID:     cell(colAutoTaggingMpeID),
			LaunchDisposition:    cell(colLaunchDisposition),
			CopyTags:             cell(colCopyTags),
			OS:                   cell(colOS),
			OSLicensingByol:      cell(colOSLicensingByol),
			BootMode:             cell(colBootMode),
			PlacementGroupName:   cell(colPlacementGroupName),
			Tenancy:              cell(colTenancy),
			HostID:               cell(colHostID),
			HostResourceGroupArn: cell(colHostResourceGroupArn),
			ENI:                  cell(colENI),
			SubnetID:             cell(colSubnetID),
			SecurityGroups:       cell(colSecurityGroups),
			PrivateIP:            cell(colPrivateIP),
			VolumeType:           cell(colVolumeType),
			VolumeThroughput:     cell(colVolumeThroughput),
			VolumeIops:           cell(colVolumeIops),
			ResourceTags:         cell(colResourceTags),
		})
	}
	return rows, nil
}

// launchSettingsFile is the standalone scalar-settings document accepted by
// --launch-settings-file, the subset of a launch configuration that can be
// propagated without a source server.
type launchSettingsFile struct {
	CopyPrivateIP     bool   `json:"copyPrivateIp" yaml:"copyPrivateIp"`
	CopyTags          bool   `json:"copyTags" yaml:"copyTags"`
	LaunchDisposition string `json:"launchDisposition" yaml:"launchDisposition"`
	RightSizingMethod string `json:"targetInstanceTypeRightSizingMethod" yaml:"targetInstanceTypeRightSizingMethod"`
	EnableAutoTagging bool   `json:"enableMapAutoTagging" yaml:"enableMapAutoTagging"`
	AutoTaggingMpeID  string `json:"mapAutoTaggingMpeID" yaml:"mapAutoTaggingMpeID"`
}

// LoadLaunchSettings reads a JSON (or YAML) launch settings file and returns
// it in launch configuration shape, so callers treat file- and server-sourced
// settings uniformly.
func LoadLaunchSettings(path string) (*mgn.GetLaunchConfigurationOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file launchSettingsFile
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing launch settings file %s: %w", path, err)
	}

	return &mgn.GetLaunchConfigurationOutput{
		CopyPrivateIp:                       aws.Bool(file.CopyPrivateIP),
		CopyTags:                            aws.Bool(file.CopyTags),
		LaunchDisposition:                   mgntypes.LaunchDisposition(file.LaunchDisposition),
		TargetInstanceTypeRightSizingMethod: mgntypes.TargetInstanceTypeRightSizingMethod(file.RightSizingMethod),
		EnableMapAutoTagging:                aws.Bool(file.EnableAutoTagging),
		MapAutoTaggingMpeID:                 aws.String(file.AutoTaggingMpeID),
	}, nil
}

package types

import (
	"errors"
)

// ErrConflictingSource is returned when both a source server and a launch
// template id are supplied; exactly one of them selects the propagation source.
var ErrConflictingSource = errors.New("both a source server and a launch template id specified; pass one or the other")

// Parameter names a launch template field the propagate command is allowed to copy.
type Parameter string

const (
	ParameterSubnetID                 Parameter = "SubnetId"
	ParameterAssociatePublicIPAddress Parameter = "AssociatePublicIpAddress"
	ParameterDeleteOnTermination      Parameter = "DeleteOnTermination"
	ParameterGroups                   Parameter = "Groups"
	ParameterTenancy                  Parameter = "Tenancy"
	ParameterIamInstanceProfile       Parameter = "IamInstanceProfile"
	ParameterInstanceType             Parameter = "InstanceType"
)

// AllParameters returns the full copy whitelist, the default when --parameters is omitted.
func AllParameters() []Parameter {
	return []Parameter{
		ParameterSubnetID,
		ParameterAssociatePublicIPAddress,
		ParameterDeleteOnTermination,
		ParameterGroups,
		ParameterTenancy,
		ParameterIamInstanceProfile,
		ParameterInstanceType,
	}
}

// HasParameter reports whether p is part of the whitelist.
func HasParameter(params []Parameter, p Parameter) bool {
	for _, v := range params {
		if v == p {
			return true
		}
	}
	return false
}

// OverrideRow is one row of the override CSV, raw column values as read from
// the file. Parsing into typed overrides happens in the overrides package.
type OverrideRow struct {
	// Hostname of the target server. Required
	ServerName string `validate:"required,gt=0"`

	RightSizing       string `validate:"omitempty,oneof=NONE BASIC IN_AWS"`
	InstanceType      string
	CopyPrivateIP     string
	EnableAutoTagging string
	AutoTaggingMpeID  string
	LaunchDisposition string `validate:"omitempty,oneof=STOPPED STARTED"`
	CopyTags          string
	OS                string
	OSLicensingByol   string
	BootMode          string

	PlacementGroupName   string
	Tenancy              string `validate:"omitempty,oneof=default dedicated host"`
	HostID               string
	HostResourceGroupArn string

	ENI            string
	SubnetID       string
	SecurityGroups string
	PrivateIP      string

	VolumeType       string
	VolumeThroughput string
	VolumeIops       string

	ResourceTags string
}

// PropagationRequest drives the propagate command.
type PropagationRequest struct {
	// Target selector: comma separated server ids, "all", or key=value. Required
	Target string `validate:"required,gt=0"`

	// Exactly one of SourceServer or TemplateID must be set.
	SourceServer string `validate:"omitempty,startswith=s-"`
	TemplateID   string `validate:"omitempty,startswith=lt-"`

	// Fields allowed to be copied from the source template.
	Parameters []Parameter `validate:"omitempty,dive,oneof=SubnetId AssociatePublicIpAddress DeleteOnTermination Groups Tenancy IamInstanceProfile InstanceType"`

	CopyLaunchSettings      bool
	LaunchSettingsFile      string
	CopyPostLaunchSettings  bool
	CopyReplicationSettings bool
}

// FieldChange records one field-level difference produced by a merge pass.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

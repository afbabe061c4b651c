package merge

import (
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mgn"
	mgntypes "github.com/aws/aws-sdk-go-v2/service/mgn/types"

	"github.com/mgn-tools/launch-template-patcher/internal/overrides"
	"github.com/mgn-tools/launch-template-patcher/internal/types"
)

// ReconcileSettings merges scalar overrides into the general launch settings
// and returns the update to apply, plus the instance type override destined
// for the launch template. Each field applies only when the override is
// non-empty and differs from the current value, so re-applying the same row
// never drifts. The instance type is honored only while the resulting
// right-sizing method is not BASIC; BYOL licensing and boot mode apply to
// Windows servers only.
func ReconcileSettings(
	current *mgn.GetLaunchConfigurationOutput,
	set *overrides.Set,
) (*mgn.UpdateLaunchConfigurationInput, string, []types.FieldChange) {
	upd := &mgn.UpdateLaunchConfigurationInput{
		SourceServerID:                      current.SourceServerID,
		BootMode:                            current.BootMode,
		CopyPrivateIp:                       current.CopyPrivateIp,
		CopyTags:                            current.CopyTags,
		EnableMapAutoTagging:                current.EnableMapAutoTagging,
		LaunchDisposition:                   current.LaunchDisposition,
		Licensing:                           cloneLicensing(current.Licensing),
		MapAutoTaggingMpeID:                 current.MapAutoTaggingMpeID,
		TargetInstanceTypeRightSizingMethod: current.TargetInstanceTypeRightSizingMethod,
	}

	var changes []types.FieldChange
	record := func(field, old, new string) {
		changes = append(changes, types.FieldChange{Field: field, Old: old, New: new})
	}

	if set.RightSizingMethod != "" && string(current.TargetInstanceTypeRightSizingMethod) != set.RightSizingMethod {
		record("targetInstanceTypeRightSizingMethod", string(current.TargetInstanceTypeRightSizingMethod), set.RightSizingMethod)
		upd.TargetInstanceTypeRightSizingMethod = mgntypes.TargetInstanceTypeRightSizingMethod(set.RightSizingMethod)
	}

	var instanceType string
	if upd.TargetInstanceTypeRightSizingMethod != mgntypes.TargetInstanceTypeRightSizingMethodBasic && set.InstanceType != "" {
		record("InstanceType", "", set.InstanceType)
		instanceType = set.InstanceType
	}

	if set.CopyPrivateIP != nil && aws.ToBool(current.CopyPrivateIp) != *set.CopyPrivateIP {
		record("copyPrivateIp", boolString(current.CopyPrivateIp), strconv.FormatBool(*set.CopyPrivateIP))
		upd.CopyPrivateIp = set.CopyPrivateIP
	}

	if set.EnableAutoTagging != nil && aws.ToBool(current.EnableMapAutoTagging) != *set.EnableAutoTagging {
		record("enableMapAutoTagging", boolString(current.EnableMapAutoTagging), strconv.FormatBool(*set.EnableAutoTagging))
		upd.EnableMapAutoTagging = set.EnableAutoTagging
	}

	if set.AutoTaggingMpeID != "" && aws.ToString(current.MapAutoTaggingMpeID) != set.AutoTaggingMpeID {
		record("mapAutoTaggingMpeID", aws.ToString(current.MapAutoTaggingMpeID), set.AutoTaggingMpeID)
		upd.MapAutoTaggingMpeID = aws.String(set.AutoTaggingMpeID)
	}

	if set.LaunchDisposition != "" && string(current.LaunchDisposition) != set.LaunchDisposition {
		record("launchDisposition", string(current.LaunchDisposition), set.LaunchDisposition)
		upd.LaunchDisposition = mgntypes.LaunchDisposition(set.LaunchDisposition)
	}

	if set.CopyTags != nil && aws.ToBool(current.CopyTags) != *set.CopyTags {
		record("copyTags", boolString(current.CopyTags), strconv.FormatBool(*set.CopyTags))
		upd.CopyTags = set.CopyTags
	}

	if set.Windows && set.OSByol != nil {
		currentByol := current.Licensing != nil && aws.ToBool(current.Licensing.OsByol)
		if currentByol != *set.OSByol {
			record("licensing.osByol", strconv.FormatBool(currentByol), strconv.FormatBool(*set.OSByol))
			if upd.Licensing == nil {
				upd.Licensing = &mgntypes.Licensing{}
			}
			upd.Licensing.OsByol = set.OSByol
		}
	}

	if set.Windows && set.BootMode != "" && string(current.BootMode) != set.BootMode {
		record("bootMode", string(current.BootMode), set.BootMode)
		upd.BootMode = mgntypes.BootMode(set.BootMode)
	}

	return upd, instanceType, changes
}

func cloneLicensing(l *mgntypes.Licensing) *mgntypes.Licensing {
	if l == nil {
		return nil
	}
	out := *l
	return &out
}

func boolString(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

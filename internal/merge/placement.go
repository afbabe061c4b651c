package merge

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/mgn-tools/launch-template-patcher/internal/overrides"
	"github.com/mgn-tools/launch-template-patcher/internal/types"
)

// ReconcilePlacement merges placement overrides into the current placement.
// The placement group name applies unconditionally. Tenancy and the host
// identity fields apply only to Windows servers, since dedicated and host
// tenancy are Windows-only in this product. A tenancy of default or dedicated
// clears both host fields; otherwise the host resource group ARN wins over a
// host id, so at most one of the two is ever set.
func ReconcilePlacement(
	current *ec2types.LaunchTemplatePlacement,
	set *overrides.Set,
) (*ec2types.LaunchTemplatePlacementRequest, []types.FieldChange) {
	placement := requestPlacement(current)

	var changes []types.FieldChange
	record := func(field, old, new string) {
		changes = append(changes, types.FieldChange{Field: "Placement." + field, Old: old, New: new})
	}
	ensure := func() {
		if placement == nil {
			placement = &ec2types.LaunchTemplatePlacementRequest{}
		}
	}

	if set.PlacementGroupName != "" {
		ensure()
		record("GroupName", aws.ToString(placement.GroupName), set.PlacementGroupName)
		placement.GroupName = aws.String(set.PlacementGroupName)
	}

	if set.Windows && set.Tenancy != "" {
		ensure()
		record("Tenancy", string(placement.Tenancy), set.Tenancy)
		placement.Tenancy = ec2types.Tenancy(set.Tenancy)

		switch placement.Tenancy {
		case ec2types.TenancyDefault, ec2types.TenancyDedicated:
			if placement.HostId != nil {
				record("HostId", *placement.HostId, "")
			}
			if placement.HostResourceGroupArn != nil {
				record("HostResourceGroupArn", *placement.HostResourceGroupArn, "")
			}
			placement.HostId = nil
			placement.HostResourceGroupArn = nil
		default:
			if set.HostResourceGroupArn != "" {
				record("HostResourceGroupArn", aws.ToString(placement.HostResourceGroupArn), set.HostResourceGroupArn)
				placement.HostResourceGroupArn = aws.String(set.HostResourceGroupArn)
				placement.HostId = nil
			} else if set.HostID != "" {
				record("HostId", aws.ToString(placement.HostId), set.HostID)
				placement.HostId = aws.String(set.HostID)
				placement.HostResourceGroupArn = nil
			}
		}
	}

	return placement, changes
}

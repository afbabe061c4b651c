package merge

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/mgn-tools/launch-template-patcher/internal/types"
)

// ReconcileTags appends the override tags to every tag specification group.
// Membership is checked against the first group only: groups are assumed to
// carry identical tag lists and this single-group check keeps them in sync.
// Documents without tag groups are left untouched.
func ReconcileTags(
	current []ec2types.LaunchTemplateTagSpecification,
	tags []ec2types.Tag,
) ([]ec2types.LaunchTemplateTagSpecificationRequest, []types.FieldChange) {
	result := make([]ec2types.LaunchTemplateTagSpecificationRequest, 0, len(current))
	for _, ts := range current {
		result = append(result, requestTagSpecification(ts))
	}
	if len(result) == 0 {
		return result, nil
	}

	var changes []types.FieldChange
	for _, tag := range tags {
		if containsTag(result[0].Tags, tag) {
			continue
		}
		for i := range result {
			result[i].Tags = append(result[i].Tags, tag)
		}
		changes = append(changes, types.FieldChange{
			Field: "TagSpecifications",
			New:   aws.ToString(tag.Key) + ":" + aws.ToString(tag.Value),
		})
	}
	return result, changes
}

func containsTag(tags []ec2types.Tag, tag ec2types.Tag) bool {
	for _, t := range tags {
		if aws.ToString(t.Key) == aws.ToString(tag.Key) && aws.ToString(t.Value) == aws.ToString(tag.Value) {
			return true
		}
	}
	return false
}

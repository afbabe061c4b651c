package overrides

import (
	"fmt"

	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// Set is the typed form of one override row. Every field is optional: the zero
// value of a string field and a nil pointer both mean "no override". Channel
// maps distinguish an empty value (clear the attribute) from an absent key
// (leave the attribute alone), and the private IP channel additionally tracks
// whether it was supplied at all, since its absence wipes private IPs from
// every interface in the document.
type Set struct {
	// Windows reports the OS classification of the row. Tenancy, BYOL
	// licensing and boot mode only apply to Windows servers, and block
	// device keys carry an extra drive-letter segment there.
	Windows bool

	RightSizingMethod string
	InstanceType      string
	CopyPrivateIP     *bool
	EnableAutoTagging *bool
	AutoTaggingMpeID  string
	LaunchDisposition string
	CopyTags          *bool
	OSByol            *bool
	BootMode          string

	PlacementGroupName   string
	Tenancy              string
	HostID               string
	HostResourceGroupArn string

	// Network channels, keyed by device index. Empty value means clear.
	ENIByIndex            map[int32]string
	SubnetByIndex         map[int32]string
	SecurityGroupsByIndex map[int32][]string
	PrivateIPByIndex      map[int32]string
	HasPrivateIPChannel   bool

	// Block device channels, keyed by device name.
	VolumeTypeByDevice map[string]string
	ThroughputByDevice map[string]int32
	IopsByDevice       map[string]int32

	Tags []ec2types.Tag
}

// ReferencedIndexes returns the union of device indexes named by any of the
// four network channels. Interfaces outside this set are pruned by the merge.
func (s *Set) ReferencedIndexes() map[int32]struct{} {
	refs := make(map[int32]struct{})
	for idx := range s.ENIByIndex {
		refs[idx] = struct{}{}
	}
	for idx := range s.SubnetByIndex {
		refs[idx] = struct{}{}
	}
	for idx := range s.SecurityGroupsByIndex {
		refs[idx] = struct{}{}
	}
	for idx := range s.PrivateIPByIndex {
		refs[idx] = struct{}{}
	}
	return refs
}

// MalformedOverrideError reports a channel token that could not be parsed,
// either because it is missing a delimiter or because its device index or
// numeric value does not parse. It aborts the affected target's merge only.
type MalformedOverrideError struct {
	Column string
	Token  string
	Reason string
}

func (e *MalformedOverrideError) Error() string {
	return fmt.Sprintf("malformed override in column %s: %q: %s", e.Column, e.Token, e.Reason)
}

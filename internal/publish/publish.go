// Package publish owns the write side of a merge pass: launch template
// versions are never modified in place, a new version is created and the
// default pointer moved to it. It also carries the launch configuration and
// replication configuration writes to MGN.
package publish

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/mgn"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// EC2API is the slice of the EC2 client the publisher uses.
type EC2API interface {
	DescribeLaunchTemplateVersions(ctx context.Context, params *ec2.DescribeLaunchTemplateVersionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeLaunchTemplateVersionsOutput, error)
	CreateLaunchTemplateVersion(ctx context.Context, params *ec2.CreateLaunchTemplateVersionInput, optFns ...func(*ec2.Options)) (*ec2.CreateLaunchTemplateVersionOutput, error)
	ModifyLaunchTemplate(ctx context.Context, params *ec2.ModifyLaunchTemplateInput, optFns ...func(*ec2.Options)) (*ec2.ModifyLaunchTemplateOutput, error)
}

// MGNAPI is the slice of the MGN client the publisher uses.
type MGNAPI interface {
	GetLaunchConfiguration(ctx context.Context, params *mgn.GetLaunchConfigurationInput, optFns ...func(*mgn.Options)) (*mgn.GetLaunchConfigurationOutput, error)
	UpdateLaunchConfiguration(ctx context.Context, params *mgn.UpdateLaunchConfigurationInput, optFns ...func(*mgn.Options)) (*mgn.UpdateLaunchConfigurationOutput, error)
	GetReplicationConfiguration(ctx context.Context, params *mgn.GetReplicationConfigurationInput, optFns ...func(*mgn.Options)) (*mgn.GetReplicationConfigurationOutput, error)
	UpdateReplicationConfiguration(ctx context.Context, params *mgn.UpdateReplicationConfigurationInput, optFns ...func(*mgn.Options)) (*mgn.UpdateReplicationConfigurationOutput, error)
}

// Publisher fetches current documents and publishes merged ones.
type Publisher struct {
	EC2 EC2API
	MGN MGNAPI
}

// LaunchConfiguration fetches a server's general launch settings.
func (p *Publisher) LaunchConfiguration(ctx context.Context, serverID string) (*mgn.GetLaunchConfigurationOutput, error) {
	return p.MGN.GetLaunchConfiguration(ctx, &mgn.GetLaunchConfigurationInput{
		SourceServerID: aws.String(serverID),
	})
}

// DefaultTemplateVersion returns the currently-default version of a launch
// template.
func (p *Publisher) DefaultTemplateVersion(ctx context.Context, templateID string) (*ec2types.LaunchTemplateVersion, error) {
	output, err := p.EC2.DescribeLaunchTemplateVersions(ctx, &ec2.DescribeLaunchTemplateVersionsInput{
		LaunchTemplateId: aws.String(templateID),
	})
	if err != nil {
		return nil, err
	}
	for _, version := range output.LaunchTemplateVersions {
		if aws.ToBool(version.DefaultVersion) {
			return &version, nil
		}
	}
	return nil, fmt.Errorf("launch template %s has no default version", templateID)
}

// PublishTemplate creates a new launch template version from the given data
// and makes it the default. When sourceVersion is set, the new version
// inherits every field the data does not name from it. Returns the new
// version number.
func (p *Publisher) PublishTemplate(ctx context.Context, templateID string, data *ec2types.RequestLaunchTemplateData, sourceVersion *int64) (int64, error) {
	input := &ec2.CreateLaunchTemplateVersionInput{
		ClientToken:        aws.String(uuid.NewString()),
		LaunchTemplateId:   aws.String(templateID),
		LaunchTemplateData: data,
	}
	if sourceVersion != nil {
		input.SourceVersion = aws.String(strconv.FormatInt(*sourceVersion, 10))
	}
	created, err := p.EC2.CreateLaunchTemplateVersion(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("creating launch template version for %s: %w", templateID, err)
	}

	versionNumber := aws.ToInt64(created.LaunchTemplateVersion.VersionNumber)
	_, err = p.EC2.ModifyLaunchTemplate(ctx, &ec2.ModifyLaunchTemplateInput{
		LaunchTemplateId: aws.String(templateID),
		DefaultVersion:   aws.String(strconv.FormatInt(versionNumber, 10)),
	})
	if err != nil {
		return 0, fmt.Errorf("setting default version %d on %s: %w", versionNumber, templateID, err)
	}
	return versionNumber, nil
}

// UpdateSettings applies a launch configuration update to MGN.
func (p *Publisher) UpdateSettings(ctx context.Context, input *mgn.UpdateLaunchConfigurationInput) error {
	_, err := p.MGN.UpdateLaunchConfiguration(ctx, input)
	if err != nil {
		return fmt.Errorf("updating launch configuration for %s: %w", aws.ToString(input.SourceServerID), err)
	}
	return nil
}

// ReplicationConfiguration fetches a server's replication settings.
func (p *Publisher) ReplicationConfiguration(ctx context.Context, serverID string) (*mgn.GetReplicationConfigurationOutput, error) {
	return p.MGN.GetReplicationConfiguration(ctx, &mgn.GetReplicationConfigurationInput{
		SourceServerID: aws.String(serverID),
	})
}

// UpdateReplication copies a fetched replication configuration onto a target
// server.
func (p *Publisher) UpdateReplication(ctx context.Context, targetServerID string, cfg *mgn.GetReplicationConfigurationOutput) error {
	_, err := p.MGN.UpdateReplicationConfiguration(ctx, &mgn.UpdateReplicationConfigurationInput{
		SourceServerID:                      aws.String(targetServerID),
		BandwidthThrottling:                 cfg.BandwidthThrottling,
		CreatePublicIP:                      cfg.CreatePublicIP,
		DataPlaneRouting:                    cfg.DataPlaneRouting,
		DefaultLargeStagingDiskType:         cfg.DefaultLargeStagingDiskType,
		ReplicationServerInstanceType:       cfg.ReplicationServerInstanceType,
		ReplicationServersSecurityGroupsIDs: cfg.ReplicationServersSecurityGroupsIDs,
		StagingAreaSubnetId:                 cfg.StagingAreaSubnetId,
		UseDedicatedReplicationServer:       cfg.UseDedicatedReplicationServer,
	})
	if err != nil {
		return fmt.Errorf("updating replication configuration for %s: %w", targetServerID, err)
	}
	return nil
}

// IsNotFound reports whether an error is a not-found API error; such errors
// propagate unchanged so the caller can tell a missing document apart from a
// failed write.
func IsNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(apiErr.ErrorCode(), "NotFound")
}

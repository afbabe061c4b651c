package overrides

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgn-tools/launch-template-patcher/internal/types"
)

func TestParseRowEmpty(t *testing.T) {
	set, err := ParseRow(&types.OverrideRow{ServerName: "host-1"})
	require.NoError(t, err)

	assert.False(t, set.Windows)
	assert.Nil(t, set.ENIByIndex)
	assert.Nil(t, set.SubnetByIndex)
	assert.Nil(t, set.SecurityGroupsByIndex)
	assert.Nil(t, set.PrivateIPByIndex)
	assert.False(t, set.HasPrivateIPChannel)
	assert.Nil(t, set.VolumeTypeByDevice)
	assert.Nil(t, set.Tags)
	assert.Empty(t, set.ReferencedIndexes())
}

func TestParseRowNetworkChannels(t *testing.T) {
	row := &types.OverrideRow{
		ServerName:     "host-1",
		ENI:            "0:eni-111, 1:",
		SubnetID:       " 0:subnet-a ,2:subnet-b",
		SecurityGroups: "1:sg-1;sg-2,3:",
		PrivateIP:      "0:10.0.0.5",
	}
	set, err := ParseRow(row)
	require.NoError(t, err)

	assert.Equal(t, map[int32]string{0: "eni-111", 1: ""}, set.ENIByIndex)
	assert.Equal(t, map[int32]string{0: "subnet-a", 2: "subnet-b"}, set.SubnetByIndex)
	require.Len(t, set.SecurityGroupsByIndex, 2)
	assert.Equal(t, []string{"sg-1", "sg-2"}, set.SecurityGroupsByIndex[1])
	assert.Nil(t, set.SecurityGroupsByIndex[3])
	assert.True(t, set.HasPrivateIPChannel)
	assert.Equal(t, map[int32]string{0: "10.0.0.5"}, set.PrivateIPByIndex)

	refs := set.ReferencedIndexes()
	assert.Len(t, refs, 4)
	for _, idx := range []int32{0, 1, 2, 3} {
		assert.Contains(t, refs, idx)
	}
}

func TestParseRowMalformedTokens(t *testing.T) {
	tests := []struct {
		name string
		row  types.OverrideRow
	}{
		{"eni without colon", types.OverrideRow{ServerName: "h", ENI: "0eni-111"}},
		{"subnet with bad index", types.OverrideRow{ServerName: "h", SubnetID: "x:subnet-a"}},
		{"subnet with negative index", types.OverrideRow{ServerName: "h", SubnetID: "-1:subnet-a"}},
		{"volume type missing value", types.OverrideRow{ServerName: "h", VolumeType: "/dev/sdb"}},
		{"windows volume type missing segment", types.OverrideRow{ServerName: "h", OS: "Windows", VolumeType: "/dev/sdb:gp3"}},
		{"throughput not an integer", types.OverrideRow{ServerName: "h", VolumeThroughput: "/dev/sdb:fast"}},
		{"tag without colon", types.OverrideRow{ServerName: "h", ResourceTags: "envdev"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRow(&tt.row)
			require.Error(t, err)
			var malformed *MalformedOverrideError
			assert.ErrorAs(t, err, &malformed)
		})
	}
}

func TestParseRowVolumeChannels(t *testing.T) {
	row := &types.OverrideRow{
		ServerName:       "host-1",
		VolumeType:       "/dev/sdb:io2,/dev/sdc:gp3",
		VolumeThroughput: "/dev/sdc:125",
		VolumeIops:       "/dev/sdb:500",
	}
	set, err := ParseRow(row)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"/dev/sdb": "io2", "/dev/sdc": "gp3"}, set.VolumeTypeByDevice)
	assert.Equal(t, map[string]int32{"/dev/sdc": 125}, set.ThroughputByDevice)
	assert.Equal(t, map[string]int32{"/dev/sdb": 500}, set.IopsByDevice)
}

func TestParseRowWindowsDeviceKeys(t *testing.T) {
	row := &types.OverrideRow{
		ServerName: "host-1",
		OS:         "Microsoft Windows Server 2019",
		VolumeType: "/dev/sda1:C:gp3",
		VolumeIops: "/dev/sda1:C:3000",
	}
	set, err := ParseRow(row)
	require.NoError(t, err)

	assert.True(t, set.Windows)
	assert.Equal(t, map[string]string{"/dev/sda1:C": "gp3"}, set.VolumeTypeByDevice)
	assert.Equal(t, map[string]int32{"/dev/sda1:C": 3000}, set.IopsByDevice)
}

func TestParseRowBooleans(t *testing.T) {
	row := &types.OverrideRow{
		ServerName:        "host-1",
		CopyPrivateIP:     "TRUE",
		CopyTags:          "false",
		EnableAutoTagging: "yes",
	}
	set, err := ParseRow(row)
	require.NoError(t, err)

	assert.Equal(t, aws.Bool(true), set.CopyPrivateIP)
	assert.Equal(t, aws.Bool(false), set.CopyTags)
	// anything but "true" reads as false
	assert.Equal(t, aws.Bool(false), set.EnableAutoTagging)
	assert.Nil(t, set.OSByol)
}

func TestParseRowTags(t *testing.T) {
	set, err := ParseRow(&types.OverrideRow{ServerName: "h", ResourceTags: "env:dev,team:platform"})
	require.NoError(t, err)

	require.Len(t, set.Tags, 2)
	assert.Equal(t, "env", aws.ToString(set.Tags[0].Key))
	assert.Equal(t, "dev", aws.ToString(set.Tags[0].Value))
	assert.Equal(t, "team", aws.ToString(set.Tags[1].Key))
	assert.Equal(t, "platform", aws.ToString(set.Tags[1].Value))
}

func TestParseRowLastTokenWins(t *testing.T) {
	set, err := ParseRow(&types.OverrideRow{ServerName: "h", SubnetID: "0:subnet-a,0:subnet-b"})
	require.NoError(t, err)
	assert.Equal(t, map[int32]string{0: "subnet-b"}, set.SubnetByIndex)
}

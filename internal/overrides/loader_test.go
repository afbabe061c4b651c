package overrides

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	mgntypes "github.com/aws/aws-sdk-go-v2/service/mgn/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRows(t *testing.T) {
	path := writeFile(t, "overrides.csv",
		"Server_Name,Instance_type_right_sizing,EC2_Instance_type,Subnet_ID,Resource_tags\n"+
			"db-01,NONE,m5.large,0:subnet-a,env:dev\n"+
			"web-01,,,,\n")

	rows, err := LoadRows(path)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "db-01", rows[0].ServerName)
	assert.Equal(t, "NONE", rows[0].RightSizing)
	assert.Equal(t, "m5.large", rows[0].InstanceType)
	assert.Equal(t, "0:subnet-a", rows[0].SubnetID)
	assert.Equal(t, "env:dev", rows[0].ResourceTags)
	assert.Equal(t, "web-01", rows[1].ServerName)
	assert.Empty(t, rows[1].SubnetID)
	// columns missing from the file read as empty overrides
	assert.Empty(t, rows[0].Tenancy)
}

func TestLoadRowsStripsBOM(t *testing.T) {
	path := writeFile(t, "overrides.csv", "\uFEFFServer_Name\ndb-01\n")

	rows, err := LoadRows(path)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "db-01", rows[0].ServerName)
}

func TestLoadRowsMissingServerNameColumn(t *testing.T) {
	path := writeFile(t, "overrides.csv", "Hostname\ndb-01\n")

	_, err := LoadRows(path)
	assert.Error(t, err)
}

func TestLoadRowsRaggedRecords(t *testing.T) {
	path := writeFile(t, "overrides.csv",
		"Server_Name,Subnet_ID\n"+
			"db-01\n")

	rows, err := LoadRows(path)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].SubnetID)
}

func TestLoadLaunchSettingsJSON(t *testing.T) {
	path := writeFile(t, "settings.json", `{
		"copyPrivateIp": true,
		"copyTags": false,
		"launchDisposition": "STARTED",
		"targetInstanceTypeRightSizingMethod": "NONE",
		"enableMapAutoTagging": true,
		"mapAutoTaggingMpeID": "mpe-1"
	}`)

	cfg, err := LoadLaunchSettings(path)

	require.NoError(t, err)
	assert.Equal(t, aws.Bool(true), cfg.CopyPrivateIp)
	assert.Equal(t, aws.Bool(false), cfg.CopyTags)
	assert.Equal(t, mgntypes.LaunchDispositionStarted, cfg.LaunchDisposition)
	assert.Equal(t, mgntypes.TargetInstanceTypeRightSizingMethodNone, cfg.TargetInstanceTypeRightSizingMethod)
	assert.Equal(t, aws.Bool(true), cfg.EnableMapAutoTagging)
	assert.Equal(t, "mpe-1", aws.ToString(cfg.MapAutoTaggingMpeID))
}

func TestLoadLaunchSettingsYAML(t *testing.T) {
	path := writeFile(t, "settings.yaml",
		"copyPrivateIp: true\nlaunchDisposition: STOPPED\ntargetInstanceTypeRightSizingMethod: BASIC\n")

	cfg, err := LoadLaunchSettings(path)

	require.NoError(t, err)
	assert.Equal(t, aws.Bool(true), cfg.CopyPrivateIp)
	assert.Equal(t, mgntypes.LaunchDispositionStopped, cfg.LaunchDisposition)
	assert.Equal(t, mgntypes.TargetInstanceTypeRightSizingMethodBasic, cfg.TargetInstanceTypeRightSizingMethod)
}

func TestLoadLaunchSettingsMalformed(t *testing.T) {
	path := writeFile(t, "settings.json", "{not json")

	_, err := LoadLaunchSettings(path)
	assert.Error(t, err)
}

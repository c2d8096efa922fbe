package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qosd.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
enabled = true
interval = 30
mbps_threshold = 50.0
`), 0644))

	cfg, err := LoadFromFile("scratch", path)
	require.NoError(t, err)

	assert.Equal(t, "scratch", cfg.Filesystem)
	assert.True(t, cfg.Options.Enabled)
	assert.Equal(t, 30, cfg.Options.IntervalSeconds)
	assert.Equal(t, 50.0, cfg.Options.MbpsThreshold)
	// fields not present in the file fall back to SetDefaults.
	assert.Equal(t, 5.0, cfg.Options.ThrottledOSSRPCRate)
	assert.Equal(t, "http://localhost:8086", cfg.Options.MetricsServer)
}

func TestLoadFromFile_PerUserOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qosd.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
enabled = true

[users.1000]
mbps_threshold = 200.0
throttled_oss_rpc_rate = 2.0
iops_threshold = 500.0
throttled_mds_rpc_rate = 10.0
`), 0644))

	cfg, err := LoadFromFile("scratch", path)
	require.NoError(t, err)

	require.Contains(t, cfg.Options.Users, "1000")
	assert.Equal(t, 200.0, cfg.Options.Users["1000"].MbpsThreshold)

	policy := cfg.Options.Policy()
	u := policy.ForUID("1000")
	assert.Equal(t, 200.0*bytesPerMB, u.ThroughputThresholdBytesPerSec)
	assert.Equal(t, 2.0, u.ThrottledDataRPCRate)
}

func TestLoadUserOverrides_MissingDirIsNotAnError(t *testing.T) {
	overrides, err := loadUserOverrides(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Nil(t, overrides)
}

func TestLoadUserOverrides_DecodesEachFileByBasename(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1001.toml"), []byte(`
mbps_threshold = 10.0
throttled_oss_rpc_rate = 1.0
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	overrides, err := loadUserOverrides(dir)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, 10.0, overrides["1001"].MbpsThreshold)
}

func TestApplyUserOverrides_WinsOverInlineTable(t *testing.T) {
	opts := Options{
		Users: map[string]UserOptions{
			"1001": {MbpsThreshold: 50.0},
		},
	}
	applyUserOverrides(&opts, map[string]UserOptions{
		"1001": {MbpsThreshold: 999.0},
		"1002": {MbpsThreshold: 5.0},
	})

	assert.Equal(t, 999.0, opts.Users["1001"].MbpsThreshold)
	assert.Equal(t, 5.0, opts.Users["1002"].MbpsThreshold)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile("scratch", "/nonexistent/qosd.toml")
	assert.Error(t, err)
}

func TestQosPolicy_ForUID_FallsBackToDefault(t *testing.T) {
	policy := QosPolicy{
		Users: map[string]QosUser{
			"1000": {ThroughputThresholdBytesPerSec: 1234},
		},
		Default:             QosUser{ThroughputThresholdBytesPerSec: 99},
		WindowLengthSeconds: 60,
	}

	assert.Equal(t, float64(1234), policy.ForUID("1000").ThroughputThresholdBytesPerSec)
	assert.Equal(t, float64(99), policy.ForUID("9999").ThroughputThresholdBytesPerSec)
}

func TestQosUser_BudgetHelpers(t *testing.T) {
	u := QosUser{
		ThroughputThresholdBytesPerSec: 100 * bytesPerMB,
		MetadataThresholdOpsPerSec:     1000,
	}

	assert.Equal(t, 100*bytesPerMB*60, u.ThroughputBudget(60))
	assert.Equal(t, 1000.0*60, u.MetadataBudget(60))
}

func TestOptionNames_IsCanonicalAndImmutable(t *testing.T) {
	names := OptionNames()
	require.Len(t, names, 9)
	assert.Equal(t, "enabled", names[0])
	assert.Equal(t, "users", names[len(names)-1])

	// mutating the returned slice must not affect the package-level list.
	names[0] = "mutated"
	assert.Equal(t, "enabled", OptionNames()[0])
}

func TestEncodeFor(t *testing.T) {
	opts := Options{
		Enabled:         true,
		IntervalSeconds: 60,
		MbpsThreshold:   100,
		MetricsServer:   "http://metrics.internal:8086",
	}

	both, err := EncodeFor(opts, true, true)
	require.NoError(t, err)
	assert.NotEmpty(t, both.Values)
	assert.Equal(t, OptionNames(), both.Structure)

	onlyStatus, err := EncodeFor(opts, true, false)
	require.NoError(t, err)
	assert.NotEmpty(t, onlyStatus.Values)
	assert.Nil(t, onlyStatus.Structure)

	onlyStructure, err := EncodeFor(opts, false, true)
	require.NoError(t, err)
	assert.Empty(t, onlyStructure.Values)
	assert.NotNil(t, onlyStructure.Structure)
}

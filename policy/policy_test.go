package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DDNStorage/qosd/config"
	"github.com/DDNStorage/qosd/exec"
	"github.com/DDNStorage/qosd/usage"
)

func testPolicy() config.QosPolicy {
	return config.QosPolicy{
		Users: map[string]config.QosUser{
			"1001": {
				ThroughputThresholdBytesPerSec: 100 * 1048576,
				ThrottledDataRPCRate:           5,
				MetadataThresholdOpsPerSec:     1000,
				ThrottledMetadataRPCRate:       50,
			},
		},
		Default: config.QosUser{
			ThroughputThresholdBytesPerSec: 10 * 1048576,
			ThrottledDataRPCRate:           1,
			MetadataThresholdOpsPerSec:     100,
			ThrottledMetadataRPCRate:       10,
		},
		WindowLengthSeconds: 60,
	}
}

func TestEvaluate_OverBudgetThrottled(t *testing.T) {
	p := testPolicy()
	budget := p.Users["1001"].ThroughputBudget(60)

	usages := map[string]usage.UserUsage{
		"1001": {ThroughputBytes: budget + 1},
	}

	decisions := Evaluate(exec.ScopeData, usages, p)
	assert.Len(t, decisions, 1)
	assert.Equal(t, "1001", decisions[0].UID)
	assert.Equal(t, 5.0, decisions[0].Rate)
}

func TestEvaluate_BoundaryIsInclusiveNotThrottled(t *testing.T) {
	p := testPolicy()
	budget := p.Users["1001"].ThroughputBudget(60)

	usages := map[string]usage.UserUsage{
		"1001": {ThroughputBytes: budget},
	}

	decisions := Evaluate(exec.ScopeData, usages, p)
	assert.Empty(t, decisions)
}

func TestEvaluate_UnknownUIDUsesDefault(t *testing.T) {
	p := testPolicy()
	defaultBudget := p.Default.ThroughputBudget(60)

	usages := map[string]usage.UserUsage{
		"9999": {ThroughputBytes: defaultBudget + 1},
	}

	decisions := Evaluate(exec.ScopeData, usages, p)
	assert.Len(t, decisions, 1)
	assert.Equal(t, "9999", decisions[0].UID)
	assert.Equal(t, 1.0, decisions[0].Rate)
}

func TestEvaluate_MetadataScope(t *testing.T) {
	p := testPolicy()
	budget := p.Users["1001"].MetadataBudget(60) // 1000*60 = 60000

	usages := map[string]usage.UserUsage{
		"1001": {MetadataOps: budget + 1},
	}

	decisions := Evaluate(exec.ScopeMetadata, usages, p)
	assert.Len(t, decisions, 1)
	assert.Equal(t, exec.ScopeMetadata, decisions[0].Scope)
	assert.Equal(t, 50.0, decisions[0].Rate)
}

func TestEvaluate_SortedByUID(t *testing.T) {
	p := testPolicy()
	usages := map[string]usage.UserUsage{
		"9999": {ThroughputBytes: p.Default.ThroughputBudget(60) + 1},
		"1001": {ThroughputBytes: p.Users["1001"].ThroughputBudget(60) + 1},
		"2000": {ThroughputBytes: p.Default.ThroughputBudget(60) + 1},
	}

	decisions := Evaluate(exec.ScopeData, usages, p)
	assert.Len(t, decisions, 3)
	assert.Equal(t, []string{"1001", "2000", "9999"}, []string{
		decisions[0].UID, decisions[1].UID, decisions[2].UID,
	})
}

func TestEvaluate_IsDeterministic(t *testing.T) {
	p := testPolicy()
	usages := map[string]usage.UserUsage{
		"1001": {ThroughputBytes: p.Users["1001"].ThroughputBudget(60) + 1},
	}

	first := Evaluate(exec.ScopeData, usages, p)
	second := Evaluate(exec.ScopeData, usages, p)
	assert.Equal(t, first, second)
}

func TestEvaluate_MonotoneInUsage(t *testing.T) {
	p := testPolicy()
	budget := p.Users["1001"].ThroughputBudget(60)

	below := Evaluate(exec.ScopeData, map[string]usage.UserUsage{"1001": {ThroughputBytes: budget - 1}}, p)
	assert.Empty(t, below)

	above := Evaluate(exec.ScopeData, map[string]usage.UserUsage{"1001": {ThroughputBytes: budget + 1}}, p)
	assert.Len(t, above, 1)

	// increasing usage further must not turn the decision back off.
	wayAbove := Evaluate(exec.ScopeData, map[string]usage.UserUsage{"1001": {ThroughputBytes: budget * 100}}, p)
	assert.Len(t, wayAbove, 1)
}

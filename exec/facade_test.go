package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeFacade_StartStopDataRule(t *testing.T) {
	f := NewFakeFacade()
	ctx := context.Background()

	require.NoError(t, f.StartDataRule(ctx, "oss1", "uid_1001", "uid={1001}", 5.0))

	names, err := f.ListRules(ctx, "oss1", ScopeData)
	require.NoError(t, err)
	assert.Equal(t, []string{"uid_1001"}, names)

	require.NoError(t, f.StopDataRule(ctx, "oss1", "uid_1001"))
	names, err = f.ListRules(ctx, "oss1", ScopeData)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFakeFacade_StopNonExistentRuleIsNoop(t *testing.T) {
	f := NewFakeFacade()
	err := f.StopDataRule(context.Background(), "oss1", "uid_9999")
	assert.NoError(t, err)
}

func TestFakeFacade_ScopesAreIndependent(t *testing.T) {
	f := NewFakeFacade()
	ctx := context.Background()

	require.NoError(t, f.StartDataRule(ctx, "srv1", "uid_1001", "uid={1001}", 5.0))
	require.NoError(t, f.StartMetadataRule(ctx, "srv1", "uid_1001", "uid={1001}", 10.0))

	dataNames, _ := f.ListRules(ctx, "srv1", ScopeData)
	mdNames, _ := f.ListRules(ctx, "srv1", ScopeMetadata)
	assert.Equal(t, []string{"uid_1001"}, dataNames)
	assert.Equal(t, []string{"uid_1001"}, mdNames)
}

func TestFakeFacade_SchedulerMode(t *testing.T) {
	f := NewFakeFacade()
	ctx := context.Background()

	assert.Equal(t, ModeFIFO, f.ModeOf("srv1", ScopeData))

	require.NoError(t, f.EnableTBF(ctx, "srv1", ScopeData))
	assert.Equal(t, ModeTBF, f.ModeOf("srv1", ScopeData))

	require.NoError(t, f.EnableFIFO(ctx, "srv1", ScopeData))
	assert.Equal(t, ModeFIFO, f.ModeOf("srv1", ScopeData))
}

func TestFakeFacade_InjectedFailure(t *testing.T) {
	f := NewFakeFacade()
	f.Failures["badserver"] = assert.AnError

	err := f.StartDataRule(context.Background(), "badserver", "uid_1001", "uid={1001}", 5.0)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSchedulerMode_String(t *testing.T) {
	assert.Equal(t, "tbf", ModeTBF.String())
	assert.Equal(t, "fifo", ModeFIFO.String())
}

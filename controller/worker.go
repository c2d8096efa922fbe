package controller

import (
	"context"

	"github.com/DDNStorage/qosd/exec"
	"github.com/DDNStorage/qosd/internal/logging"
	"github.com/DDNStorage/qosd/internal/util"
	"github.com/DDNStorage/qosd/policy"
	"github.com/DDNStorage/qosd/schedule"
	"github.com/DDNStorage/qosd/usage"

	"go.uber.org/zap"
)

// runWorker is the background loop started by Enable and joined by
// Disable. It is single-threaded and cooperative: one cycle runs to
// completion (modulo the cancellable suspension points in schedule.Wait
// and the metrics/exec RPCs) before the next begins (spec §5).
func (c *Controller) runWorker(ctx context.Context) {
	defer c.wg.Done()

	var lastWindowIndex *int64
	log := logging.Named("worker").With("filesystem", c.filesystem)

	for {
		tick, ok := c.scheduler.Wait(ctx)
		if !ok {
			log.Infow("worker stopping: cancelled")
			return
		}

		if snapshot, err := schedule.ReadSystemSnapshot(); err == nil {
			log.Debugw("tick", "window_index", tick.WindowIndex,
				"mem_used_gb", snapshot.MemoryUsedGB, "mem_percent", snapshot.MemoryPercent)
		}

		w := tick.WindowIndex
		if lastWindowIndex == nil || w != *lastWindowIndex {
			if err := c.reg.ClearAll(ctx); err != nil {
				log.Warnw("clear_all failed, skipping cycle", "window_index", w, "error", err)
				continue
			}
			lastWindowIndex = &w
		}

		c.runCycle(ctx, w, log)
	}
}

// runCycle is one pass of worker-loop steps 3-4 (spec §4.7): query both
// scopes, aggregate, evaluate the admission policy, and apply decisions.
// Data-scope decisions complete before metadata-scope decisions begin
// (spec §5 ordering guarantee).
func (c *Controller) runCycle(ctx context.Context, windowIndex int64, log *zap.SugaredLogger) {
	start := schedule.WindowStart(windowIndex, c.windowLength)
	collectInterval := float64(c.policy.MetricsCollectionIntervalSeconds)

	dataUsage := c.queryAndAggregate(ctx, c.dataQuery, start, collectInterval, "data", log)
	metadataUsage := c.queryAndAggregate(ctx, c.metadataQuery, start, collectInterval, "metadata", log)

	merged := usage.Merge(dataUsage, metadataUsage)
	c.recordStatus(windowIndex, merged)

	for _, decision := range policy.Evaluate(exec.ScopeData, merged, c.policy) {
		if err := c.reg.Upsert(ctx, decision.Scope, decision.UID, decision.Rate); err != nil {
			log.Warnw("upsert failed", "uid", decision.UID, "scope", decision.Scope.String(), "error", err)
		}
	}

	for _, decision := range policy.Evaluate(exec.ScopeMetadata, merged, c.policy) {
		if err := c.reg.Upsert(ctx, decision.Scope, decision.UID, decision.Rate); err != nil {
			log.Warnw("upsert failed", "uid", decision.UID, "scope", decision.Scope.String(), "error", err)
		}
	}
}

func (c *Controller) queryAndAggregate(ctx context.Context, query string, start int64, collectInterval float64, label string, log *zap.SugaredLogger) map[string]float64 {
	rows, qerr := c.querier.Query(ctx, query, start)
	if qerr != nil {
		log.Warnw("metrics query failed, skipping scope this cycle", "scope", label, "error", qerr)
		return map[string]float64{}
	}
	return c.aggregator.Accumulate(rows, collectInterval)
}

func (c *Controller) recordStatus(windowIndex int64, merged map[string]usage.UserUsage) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.status.windowIndex = util.Ptr(windowIndex)
	c.status.usage = merged
}

// Package controller owns the QoS lifecycle for one filesystem: it
// coordinates the Window Scheduler, Metrics Client, Usage Aggregator,
// Admission Policy, and Rule Registry into the worker loop described in
// spec §4.7, and exposes the administrative enable/disable/status/encode
// surface.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/DDNStorage/qosd/config"
	"github.com/DDNStorage/qosd/errors"
	"github.com/DDNStorage/qosd/exec"
	"github.com/DDNStorage/qosd/internal/logging"
	"github.com/DDNStorage/qosd/metrics"
	"github.com/DDNStorage/qosd/registry"
	"github.com/DDNStorage/qosd/schedule"
	"github.com/DDNStorage/qosd/usage"
)

// MetricsQuerier is the subset of metrics.Client the Controller depends
// on, so tests can substitute a fake without a real time-series store.
type MetricsQuerier interface {
	Query(ctx context.Context, q string, startSeconds int64) (metrics.Rows, *metrics.QueryError)
}

// JobIDConfigurer sets the per-process-per-UID job-identifier variable
// format on a server. enable() requires this to succeed everywhere
// before the worker starts (spec §4.7): without it, usage samples cannot
// be attributed to a UID at all.
type JobIDConfigurer interface {
	SetJobIDVar(ctx context.Context, server string, scope exec.Scope) error
}

// Servers names the data and metadata server fleets a Controller manages.
// Filesystem model discovery that would otherwise produce this list is
// out of scope (spec §1); it is supplied by the caller.
type Servers struct {
	Data     []string
	Metadata []string
}

// statusSnapshot is everything status() reports, held under statusMu so
// it can be read without touching the lifecycle mutex or the worker's
// in-flight state.
type statusSnapshot struct {
	windowIndex *int64
	usage       map[string]usage.UserUsage
}

// Controller is the QoS controller for one filesystem.
type Controller struct {
	filesystem string
	cfg        config.Config
	policy     config.QosPolicy

	servers         Servers
	querier         MetricsQuerier
	jobIDConfigurer JobIDConfigurer
	reg             *registry.Registry
	facade          exec.Facade
	aggregator      *usage.Aggregator
	scheduler       *schedule.Scheduler

	dataQuery     string
	metadataQuery string
	windowLength  time.Duration

	lifecycleMu sync.Mutex
	state       State

	cancel context.CancelFunc
	wg     sync.WaitGroup

	statusMu sync.Mutex
	status   statusSnapshot
}

// New constructs a Controller for filesystem. Construction fails with
// errors.ErrDoubleAttach if a Controller for this filesystem is already
// attached in this process (spec §6, §7).
func New(cfg config.Config, facade exec.Facade, querier MetricsQuerier, jobIDConfigurer JobIDConfigurer, servers Servers) (*Controller, error) {
	if err := attach(cfg.Filesystem); err != nil {
		return nil, err
	}

	qosPolicy := cfg.Options.Policy()
	windowLength := time.Duration(qosPolicy.WindowLengthSeconds) * time.Second

	c := &Controller{
		filesystem:      cfg.Filesystem,
		cfg:             cfg,
		policy:          qosPolicy,
		servers:         servers,
		querier:         querier,
		jobIDConfigurer: jobIDConfigurer,
		facade:          facade,
		reg:             registry.New(facade, servers.Data, servers.Metadata, config.DefaultStandingMetadataRate),
		aggregator:      usage.New(),
		scheduler:       schedule.New(windowLength),
		dataQuery:       metrics.DataQuery(cfg.Filesystem),
		metadataQuery:   metrics.MetadataQuery(cfg.Filesystem),
		windowLength:    windowLength,
		state:           Disabled,
	}

	return c, nil
}

// Close releases the double-attach guard. Callers that discard a
// Controller without ever calling Enable/Disable must still call Close
// so the filesystem name can be reattached later (e.g. process restart
// simulated within one test binary).
func (c *Controller) Close() {
	detach(c.filesystem)
}

// Enable transitions Disabled -> Enabling -> Enabled (spec §4.7). It
// verifies the job-identifier variable can be set and switches every
// server's scheduler to TBF before starting the worker. Any failure
// rolls back to Disabled and leaves server scheduler state untouched.
func (c *Controller) Enable(ctx context.Context) error {
	c.lifecycleMu.Lock()
	if c.state != Disabled {
		state := c.state
		c.lifecycleMu.Unlock()
		return errors.Newf("cannot enable: controller is %s", state)
	}
	c.state = Enabling
	c.lifecycleMu.Unlock()

	if err := c.configureJobIDVars(ctx); err != nil {
		c.setState(Disabled)
		return errors.Mark(errors.Wrap(err, "enable: job-identifier variable"), errors.ErrPermanentConfig)
	}

	if err := c.reg.EnforceScopeMode(ctx, exec.ScopeData, exec.ModeTBF); err != nil {
		c.setState(Disabled)
		return errors.Mark(errors.Wrap(err, "enable: switch data scope to tbf"), errors.ErrPermanentConfig)
	}
	if err := c.reg.EnforceScopeMode(ctx, exec.ScopeMetadata, exec.ModeTBF); err != nil {
		c.setState(Disabled)
		return errors.Mark(errors.Wrap(err, "enable: switch metadata scope to tbf"), errors.ErrPermanentConfig)
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go c.runWorker(workerCtx)

	c.setState(Enabled)
	logging.Named("controller").Infow("qos enabled", "filesystem", c.filesystem)
	return nil
}

func (c *Controller) configureJobIDVars(ctx context.Context) error {
	if c.jobIDConfigurer == nil {
		return nil
	}
	for _, server := range c.servers.Data {
		if err := c.jobIDConfigurer.SetJobIDVar(ctx, server, exec.ScopeData); err != nil {
			return err
		}
	}
	for _, server := range c.servers.Metadata {
		if err := c.jobIDConfigurer.SetJobIDVar(ctx, server, exec.ScopeMetadata); err != nil {
			return err
		}
	}
	return nil
}

// Disable transitions Enabled -> Disabling -> Disabled. It signals the
// worker, joins it, clears every recorded rule, then switches every
// server back to FIFO. Repeated calls while already Disabling or Disabled
// are idempotent no-ops.
func (c *Controller) Disable(ctx context.Context) error {
	c.lifecycleMu.Lock()
	switch c.state {
	case Disabled, Disabling:
		c.lifecycleMu.Unlock()
		return nil
	}
	c.state = Disabling
	cancel := c.cancel
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	var firstErr error
	if err := c.reg.ClearAll(ctx); err != nil {
		firstErr = err
	}
	if err := c.reg.EnforceScopeMode(ctx, exec.ScopeData, exec.ModeFIFO); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.reg.EnforceScopeMode(ctx, exec.ScopeMetadata, exec.ModeFIFO); err != nil && firstErr == nil {
		firstErr = err
	}

	c.setState(Disabled)
	logging.Named("controller").Infow("qos disabled", "filesystem", c.filesystem)
	return firstErr
}

// ForceFIFO clears every recorded rule and switches both scopes back to
// FIFO regardless of lifecycle state, for the operator-intervention path
// spec §4.7 describes for a failed enable/disable: it does not touch
// state or the worker, only server-side scheduler mode and rule state.
func (c *Controller) ForceFIFO(ctx context.Context) error {
	if err := c.reg.ClearAll(ctx); err != nil {
		return errors.Wrap(err, "force fifo: clear all")
	}
	if err := c.reg.EnforceScopeMode(ctx, exec.ScopeData, exec.ModeFIFO); err != nil {
		return errors.Wrap(err, "force fifo: data scope")
	}
	if err := c.reg.EnforceScopeMode(ctx, exec.ScopeMetadata, exec.ModeFIFO); err != nil {
		return errors.Wrap(err, "force fifo: metadata scope")
	}
	return nil
}

func (c *Controller) setState(s State) {
	c.lifecycleMu.Lock()
	c.state = s
	c.lifecycleMu.Unlock()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	return c.state
}

// Status is the snapshot status() returns (spec §4.7).
type Status struct {
	State             State
	WindowIndex       *int64
	Usage             map[string]usage.UserUsage
	ThrottledData     []string
	ThrottledMetadata []string
	DroppedSamples    uint64
}

// Status returns a snapshot of lifecycle, the current window index, last
// per-UID usage, and the UIDs currently throttled in each scope.
func (c *Controller) Status() Status {
	c.statusMu.Lock()
	windowIndex := c.status.windowIndex
	usageSnapshot := c.status.usage
	c.statusMu.Unlock()

	return Status{
		State:             c.State(),
		WindowIndex:       windowIndex,
		Usage:             usageSnapshot,
		ThrottledData:     c.reg.ThrottledUIDs(exec.ScopeData),
		ThrottledMetadata: c.reg.ThrottledUIDs(exec.ScopeMetadata),
		DroppedSamples:    c.aggregator.DropCount(),
	}
}

// Encode implements the admin encode(include_status, include_structure)
// surface (spec §4.7).
func (c *Controller) Encode(includeStatus, includeStructure bool) (config.Encoded, error) {
	return config.EncodeFor(c.cfg.Options, includeStatus, includeStructure)
}

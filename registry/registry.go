// Package registry is the Rule Registry (spec §4.3): the authoritative,
// in-memory record of which throttle rules this Controller has installed,
// and the only component that calls through to the Host Executor Facade.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/DDNStorage/qosd/errors"
	"github.com/DDNStorage/qosd/exec"
	"github.com/DDNStorage/qosd/internal/logging"
)

// StandingMetadataRuleName is the reserved name of the lock-enqueue
// protection rule that must stay installed on every metadata server
// whenever the metadata scope holds any per-user rule (spec §3, §4.3).
const StandingMetadataRuleName = "ldlm_enqueue"

// StandingMetadataExpression is the match expression for the standing
// metadata rule.
const StandingMetadataExpression = "opcode={ldlm_enqueue}"

// entry is one installed rule's parameters, keyed by UID within a scope.
type entry struct {
	expression string
	rate       float64
}

// Registry tracks installed ThrottleRules and drives the Facade to keep
// the remote servers consistent with that record.
type Registry struct {
	facade exec.Facade

	dataServers     []string
	metadataServers []string

	// defaultStandingMetadataRate is the rate installed for the standing
	// ldlm_enqueue rule (spec §4.3 default 10000).
	defaultStandingMetadataRate float64

	mu              sync.Mutex
	dataEntries     map[string]entry // uid -> entry
	metadataEntries map[string]entry
	standingPresent bool
}

// New builds a Registry for the given server fleets. defaultStandingRate
// is the rate used for the ldlm_enqueue protective rule.
func New(facade exec.Facade, dataServers, metadataServers []string, defaultStandingRate float64) *Registry {
	return &Registry{
		facade:                      facade,
		dataServers:                 dataServers,
		metadataServers:             metadataServers,
		defaultStandingMetadataRate: defaultStandingRate,
		dataEntries:                 make(map[string]entry),
		metadataEntries:             make(map[string]entry),
	}
}

func ruleName(uid string) string {
	return fmt.Sprintf("uid_%s", uid)
}

func expression(uid string) string {
	return fmt.Sprintf("uid={%s}", uid)
}

// Upsert installs a per-user rule for uid in scope at rate. A no-op if an
// identical entry is already recorded. Failures are logged and skipped
// for this (scope, uid) pair; they do not abort other UIDs in the same
// cycle (spec §4.3 failure policy).
func (r *Registry) Upsert(ctx context.Context, scope exec.Scope, uid string, rate float64) error {
	r.mu.Lock()
	entries := r.entriesFor(scope)
	existing, ok := entries[uid]
	r.mu.Unlock()

	if ok && existing.rate == rate {
		return nil
	}

	servers := r.serversFor(scope)
	expr := expression(uid)
	name := ruleName(uid)

	for _, server := range servers {
		if err := r.startRule(ctx, scope, server, name, expr, rate); err != nil {
			logging.Named("registry").Warnw("upsert failed, will retry next cycle",
				"scope", scope.String(), "uid", uid, "server", server, "error", err)
			return err
		}
	}

	r.mu.Lock()
	r.entriesFor(scope)[uid] = entry{expression: expr, rate: rate}
	r.mu.Unlock()

	if scope == exec.ScopeMetadata {
		return r.ensureStandingRule(ctx)
	}

	return nil
}

// ensureStandingRule installs the ldlm_enqueue protection rule on every
// metadata server if not already recorded present.
func (r *Registry) ensureStandingRule(ctx context.Context) error {
	r.mu.Lock()
	present := r.standingPresent
	r.mu.Unlock()
	if present {
		return nil
	}

	for _, server := range r.metadataServers {
		if err := r.facade.StartMetadataRule(ctx, server, StandingMetadataRuleName, StandingMetadataExpression, r.defaultStandingMetadataRate); err != nil {
			logging.Named("registry").Warnw("failed to install standing metadata rule",
				"server", server, "error", err)
			return err
		}
	}

	r.mu.Lock()
	r.standingPresent = true
	r.mu.Unlock()
	return nil
}

func (r *Registry) startRule(ctx context.Context, scope exec.Scope, server, name, expr string, rate float64) error {
	if scope == exec.ScopeMetadata {
		return r.facade.StartMetadataRule(ctx, server, name, expr, rate)
	}
	return r.facade.StartDataRule(ctx, server, name, expr, rate)
}

func (r *Registry) stopRule(ctx context.Context, scope exec.Scope, server, name string) error {
	if scope == exec.ScopeMetadata {
		return r.facade.StopMetadataRule(ctx, server, name)
	}
	return r.facade.StopDataRule(ctx, server, name)
}

func (r *Registry) entriesFor(scope exec.Scope) map[string]entry {
	if scope == exec.ScopeMetadata {
		return r.metadataEntries
	}
	return r.dataEntries
}

func (r *Registry) serversFor(scope exec.Scope) []string {
	if scope == exec.ScopeMetadata {
		return r.metadataServers
	}
	return r.dataServers
}

// ClearAll stops every rule currently recorded, on every relevant
// server, then empties the registry. If any stop fails, the in-memory
// deletion is rolled back wholesale so the next ClearAll retries from
// the same recorded state (spec §4.3: clear_all failures are fatal for
// the current cycle).
func (r *Registry) ClearAll(ctx context.Context) error {
	r.mu.Lock()
	dataUIDs := uidsOf(r.dataEntries)
	metadataUIDs := uidsOf(r.metadataEntries)
	standing := r.standingPresent
	r.mu.Unlock()

	for _, uid := range dataUIDs {
		name := ruleName(uid)
		for _, server := range r.dataServers {
			if err := r.stopRule(ctx, exec.ScopeData, server, name); err != nil {
				return errors.Wrapf(err, "clear_all: stop data rule %s on %s", name, server)
			}
		}
	}

	for _, uid := range metadataUIDs {
		name := ruleName(uid)
		for _, server := range r.metadataServers {
			if err := r.stopRule(ctx, exec.ScopeMetadata, server, name); err != nil {
				return errors.Wrapf(err, "clear_all: stop metadata rule %s on %s", name, server)
			}
		}
	}

	if standing {
		for _, server := range r.metadataServers {
			if err := r.facade.StopMetadataRule(ctx, server, StandingMetadataRuleName); err != nil {
				return errors.Wrapf(err, "clear_all: stop standing rule on %s", server)
			}
		}
	}

	r.mu.Lock()
	r.dataEntries = make(map[string]entry)
	r.metadataEntries = make(map[string]entry)
	r.standingPresent = false
	r.mu.Unlock()

	return nil
}

// EnforceScopeMode switches every server in scope to mode.
func (r *Registry) EnforceScopeMode(ctx context.Context, scope exec.Scope, mode exec.SchedulerMode) error {
	for _, server := range r.serversFor(scope) {
		var err error
		if mode == exec.ModeTBF {
			err = r.facade.EnableTBF(ctx, server, scope)
		} else {
			err = r.facade.EnableFIFO(ctx, server, scope)
		}
		if err != nil {
			return errors.Wrapf(err, "enforce_scope_mode %s on %s", mode, server)
		}
	}
	return nil
}

// ThrottledUIDs returns the UIDs currently recorded as throttled in
// scope, sorted, for status() snapshots.
func (r *Registry) ThrottledUIDs(scope exec.Scope) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uidsOf(r.entriesFor(scope))
}

// IsEmpty reports whether the registry currently holds no rules at all.
func (r *Registry) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dataEntries) == 0 && len(r.metadataEntries) == 0 && !r.standingPresent
}

func uidsOf(entries map[string]entry) []string {
	uids := make([]string, 0, len(entries))
	for uid := range entries {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

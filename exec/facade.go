// Package exec is the Host Executor Facade (spec §4.2): the narrow
// capability set the Controller needs against a data or metadata server
// — start/stop/list a named throttle rule per scope, and flip the
// server's scheduler between TBF (throttling active) and FIFO (idle).
//
// Implementations plug in per deployment; this package provides the
// interface, an SSH-backed implementation, and an in-memory fake for
// tests.
package exec

import (
	"context"

	"github.com/DDNStorage/qosd/metrics"
)

// Scope re-exports metrics.Scope so callers needn't import both packages
// to express "data or metadata".
type Scope = metrics.Scope

const (
	ScopeData     = metrics.ScopeData
	ScopeMetadata = metrics.ScopeMetadata
)

// SchedulerMode is the server-side request scheduler policy.
type SchedulerMode int

const (
	// ModeFIFO is the idle state: requests are served in arrival order,
	// no rate limiting.
	ModeFIFO SchedulerMode = iota
	// ModeTBF is the active throttling state (token bucket filter):
	// rules installed under it take effect.
	ModeTBF
)

func (m SchedulerMode) String() string {
	if m == ModeTBF {
		return "tbf"
	}
	return "fifo"
}

// Facade is the capability set Controller depends on, spelled out as an
// explicit set rather than an informal "host" duck type (spec §9).
type Facade interface {
	// StartDataRule installs ruleName with expression and rateLimit on a
	// data server. Idempotent: identical parameters are a no-op;
	// different parameters replace the rule.
	StartDataRule(ctx context.Context, server, ruleName, expression string, rateLimit float64) error

	// StopDataRule removes ruleName from a data server. Idempotent:
	// stopping a non-existent rule succeeds.
	StopDataRule(ctx context.Context, server, ruleName string) error

	// StartMetadataRule installs ruleName on a metadata server.
	StartMetadataRule(ctx context.Context, server, ruleName, expression string, rateLimit float64) error

	// StopMetadataRule removes ruleName from a metadata server.
	StopMetadataRule(ctx context.Context, server, ruleName string) error

	// EnableTBF switches server's scope scheduler to TBF, the state
	// under which installed rules take effect.
	EnableTBF(ctx context.Context, server string, scope Scope) error

	// EnableFIFO switches server's scope scheduler back to the idle
	// FIFO state.
	EnableFIFO(ctx context.Context, server string, scope Scope) error

	// ListRules returns every rule name currently installed on server
	// for scope, used for reconciliation and clearing stale state.
	ListRules(ctx context.Context, server string, scope Scope) ([]string, error)
}

package exec

import (
	"context"
	"sort"
	"sync"
)

type fakeRule struct {
	expression string
	rateLimit  float64
}

// FakeFacade is an in-memory Facade used by the exec, registry, and
// controller tests so they never depend on a real server fleet.
type FakeFacade struct {
	mu sync.Mutex

	dataRules     map[string]map[string]fakeRule // server -> ruleName -> rule
	metadataRules map[string]map[string]fakeRule

	dataMode     map[string]SchedulerMode
	metadataMode map[string]SchedulerMode

	// Failures lets tests force an operation to fail for a server, to
	// exercise the TransientExec path (spec §7).
	Failures map[string]error
}

// NewFakeFacade builds an empty FakeFacade.
func NewFakeFacade() *FakeFacade {
	return &FakeFacade{
		dataRules:     make(map[string]map[string]fakeRule),
		metadataRules: make(map[string]map[string]fakeRule),
		dataMode:      make(map[string]SchedulerMode),
		metadataMode:  make(map[string]SchedulerMode),
		Failures:      make(map[string]error),
	}
}

func (f *FakeFacade) failureFor(key string) error {
	if err, ok := f.Failures[key]; ok {
		return err
	}
	return nil
}

func (f *FakeFacade) StartDataRule(_ context.Context, server, ruleName, expression string, rateLimit float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failureFor(server); err != nil {
		return err
	}
	if f.dataRules[server] == nil {
		f.dataRules[server] = make(map[string]fakeRule)
	}
	f.dataRules[server][ruleName] = fakeRule{expression: expression, rateLimit: rateLimit}
	return nil
}

func (f *FakeFacade) StopDataRule(_ context.Context, server, ruleName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failureFor(server); err != nil {
		return err
	}
	delete(f.dataRules[server], ruleName)
	return nil
}

func (f *FakeFacade) StartMetadataRule(_ context.Context, server, ruleName, expression string, rateLimit float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failureFor(server); err != nil {
		return err
	}
	if f.metadataRules[server] == nil {
		f.metadataRules[server] = make(map[string]fakeRule)
	}
	f.metadataRules[server][ruleName] = fakeRule{expression: expression, rateLimit: rateLimit}
	return nil
}

func (f *FakeFacade) StopMetadataRule(_ context.Context, server, ruleName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failureFor(server); err != nil {
		return err
	}
	delete(f.metadataRules[server], ruleName)
	return nil
}

func (f *FakeFacade) EnableTBF(_ context.Context, server string, scope Scope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failureFor(server); err != nil {
		return err
	}
	f.modeMapFor(scope)[server] = ModeTBF
	return nil
}

func (f *FakeFacade) EnableFIFO(_ context.Context, server string, scope Scope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failureFor(server); err != nil {
		return err
	}
	f.modeMapFor(scope)[server] = ModeFIFO
	return nil
}

func (f *FakeFacade) modeMapFor(scope Scope) map[string]SchedulerMode {
	if scope == ScopeMetadata {
		return f.metadataMode
	}
	return f.dataMode
}

func (f *FakeFacade) ListRules(_ context.Context, server string, scope Scope) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failureFor(server); err != nil {
		return nil, err
	}

	rules := f.dataRules[server]
	if scope == ScopeMetadata {
		rules = f.metadataRules[server]
	}

	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ModeOf reports the last scheduler mode set for server/scope, defaulting
// to FIFO (the idle state) until something sets it.
func (f *FakeFacade) ModeOf(server string, scope Scope) SchedulerMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.modeMapFor(scope)[server]
}

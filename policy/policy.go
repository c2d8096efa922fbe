// Package policy implements the Admission Policy (spec §4.6): a pure,
// deterministic map from per-UID usage to throttle decisions given a
// QosPolicy. It has no side effects and no dependency on the clock, the
// network, or any server — identical inputs always yield an identical,
// UID-sorted decision set (testable property 5 and 4 in spec §8).
package policy

import (
	"sort"

	"github.com/DDNStorage/qosd/config"
	"github.com/DDNStorage/qosd/exec"
	"github.com/DDNStorage/qosd/usage"
)

// Decision is one admission outcome: install a throttle rule for uid in
// scope at rate. Decisions are never emitted for UIDs within budget.
type Decision struct {
	Scope exec.Scope
	UID   string
	Rate  float64
}

// Evaluate computes the decision set for one scope given per-UID usage
// and the policy in force, following spec §4.6 steps 1-4:
//  1. resolve the applicable QosUser (explicit entry, else default),
//  2. compute budget = threshold_rate * window_length,
//  3. emit a decision only when accumulated > budget (ties are inclusive
//     and do not throttle),
//  4. return decisions in UID sort order.
func Evaluate(scope exec.Scope, usages map[string]usage.UserUsage, policy config.QosPolicy) []Decision {
	uids := make([]string, 0, len(usages))
	for uid := range usages {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	decisions := make([]Decision, 0, len(uids))
	for _, uid := range uids {
		u := usages[uid]
		qosUser := policy.ForUID(uid)

		var accumulated, budget, rate float64
		switch scope {
		case exec.ScopeData:
			accumulated = u.ThroughputBytes
			budget = qosUser.ThroughputBudget(policy.WindowLengthSeconds)
			rate = qosUser.ThrottledDataRPCRate
		case exec.ScopeMetadata:
			accumulated = u.MetadataOps
			budget = qosUser.MetadataBudget(policy.WindowLengthSeconds)
			rate = qosUser.ThrottledMetadataRPCRate
		}

		if accumulated <= budget {
			continue
		}

		decisions = append(decisions, Decision{Scope: scope, UID: uid, Rate: rate})
	}

	return decisions
}

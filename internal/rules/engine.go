// Package rules computes a grading from a declared cost and the external
// system's answer. This is pure domain logic - no I/O, no side effects.
package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"claimtrail/pkg/domain"
)

// Rule identifies which approval rule matched, for audit display.
type Rule string

const (
	RuleExactMatch Rule = "exact_match"
	RuleMargin     Rule = "margin"
	RuleSurplus    Rule = "surplus"
)

var (
	// exactTolerance is the absolute tolerance for the exact-match rule:
	// one cent.
	exactTolerance = decimal.New(1, -2)

	// marginLimit is the maximum percentage variance the margin rule
	// accepts.
	marginLimit = decimal.New(1, 1) // 10%
)

// Config toggles the optional approval rules. The exact-match rule is not
// configurable: it is always evaluated first.
//
// TreatZeroAsMissing selects the not-found policy: when set, a lookup that
// reports found with a system cost of exactly zero is treated as "not
// found" (the portal had no usable figure). Deployments pick one behavior
// explicitly; both are supported.
type Config struct {
	MarginEnabled      bool
	SurplusEnabled     bool
	TreatZeroAsMissing bool
}

// DefaultConfig is the deployment default: all rules on, zero system cost
// treated as missing.
func DefaultConfig() Config {
	return Config{
		MarginEnabled:      true,
		SurplusEnabled:     true,
		TreatZeroAsMissing: true,
	}
}

// LookupResult is the external system's answer for one claim.
type LookupResult struct {
	Found      bool
	SystemCost domain.Money
}

// Outcome is the result of evaluating one claim.
type Outcome struct {
	Grading       domain.Grading
	Reason        string
	RuleApplied   Rule // empty when no rule matched
	ShouldRelease bool
}

// Evaluate applies the approval rules in fixed priority order and returns
// the first match. No rule matching yields a pending grading for manual
// review.
//
// Rule priority:
//  1. Exact match: |declared - system| <= 1 cent.
//  2. Margin: percentage variance <= 10%.
//  3. Surplus: declared > system (the provider undercharged).
func Evaluate(declared domain.Money, lookup LookupResult, cfg Config) Outcome {
	if !lookup.Found || (cfg.TreatZeroAsMissing && lookup.SystemCost.IsZero()) {
		return Outcome{
			Grading: domain.GradingNotFound,
			Reason:  "claim not found in external system",
		}
	}

	system := lookup.SystemCost

	if declared.AbsDiff(system).LessThanOrEqual(exactTolerance) {
		return approved(RuleExactMatch,
			fmt.Sprintf("declared cost %s matches external cost %s", declared, system))
	}

	if cfg.MarginEnabled {
		if variance := declared.VariancePercent(system); variance.LessThanOrEqual(marginLimit) {
			return approved(RuleMargin,
				fmt.Sprintf("variance %s%% between declared %s and external %s is within the %s%% margin",
					variance.Round(2), declared, system, marginLimit))
		}
	}

	if cfg.SurplusEnabled && declared.GreaterThan(system) {
		return approved(RuleSurplus,
			fmt.Sprintf("declared cost %s exceeds external cost %s", declared, system))
	}

	return Outcome{
		Grading: domain.GradingPending,
		Reason: fmt.Sprintf("no approval rule matched declared %s against external %s; manual review required",
			declared, system),
	}
}

func approved(rule Rule, reason string) Outcome {
	return Outcome{
		Grading:       domain.GradingApproved,
		Reason:        reason,
		RuleApplied:   rule,
		ShouldRelease: true,
	}
}

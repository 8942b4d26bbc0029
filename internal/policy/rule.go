// Package policy parses user-authored policies into typed rules and decides
// whether a rule applies to a property on a given day. Everything here is
// pure; dispatch and persistence live in package engine.
package policy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matthewbaird/nightwatch/internal/types"
)

// ErrInvalidPolicy is wrapped by every policy validation failure.
var ErrInvalidPolicy = errors.New("invalid policy")

// ValidationError describes one rejected field of a stored policy.
type ValidationError struct {
	PolicyID string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("policy %s: %s: %s", e.PolicyID, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidPolicy }

// Trigger is the metric-specific half of a rule. The two implementations
// are LeaseEnd and RentDue.
type Trigger interface {
	Metric() string
	evaluate(p types.Property, env Env) (Match, bool)
}

// LeaseEnd fires while the lease is in the inspection or notice zone.
// Operator and Value are kept for display only; zone logic is authoritative.
type LeaseEnd struct {
	Operator string
	Value    *int
}

// Metric implements Trigger.
func (LeaseEnd) Metric() string { return types.MetricLeaseEnd }

// RentDue fires once the day of month has reached Day. DeclaredOperator is
// what the author wrote; the comparison is always >=.
type RentDue struct {
	Day              int
	DeclaredOperator string
}

// Metric implements Trigger.
func (RentDue) Metric() string { return types.MetricRentDue }

// Rule is a parsed, validated policy.
type Rule struct {
	ID        string
	Name      string
	Scope     string
	Recipient string
	Trigger   Trigger
	Source    types.Policy
}

// Label is a short human name for log lines.
func (r Rule) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("%s/%s/%s", r.Scope, r.Trigger.Metric(), r.Recipient)
}

var validOperators = map[string]bool{"": true, "<": true, ">": true, "=": true, ">=": true}

// Parse validates a stored policy and returns its typed rule.
func Parse(p types.Policy) (Rule, error) {
	invalid := func(field, reason string) (Rule, error) {
		return Rule{}, &ValidationError{PolicyID: p.ID, Field: field, Reason: reason}
	}

	scope := strings.TrimSpace(p.Scope)
	if scope == "" {
		return invalid("scope", "must not be empty")
	}
	operator := strings.TrimSpace(p.Operator)
	if !validOperators[operator] {
		return invalid("operator", fmt.Sprintf("unsupported operator %q", p.Operator))
	}
	recipient := strings.TrimSpace(p.Recipient)
	if recipient != types.RecipientManager && recipient != types.RecipientTenant {
		return invalid("recipient", fmt.Sprintf("must be %q or %q", types.RecipientManager, types.RecipientTenant))
	}

	rule := Rule{
		ID:        p.ID,
		Name:      p.Name,
		Scope:     scope,
		Recipient: recipient,
		Source:    p,
	}

	value := strings.TrimSpace(p.Value)
	switch strings.TrimSpace(p.Metric) {
	case types.MetricLeaseEnd:
		trig := LeaseEnd{Operator: operator}
		if value != "" {
			n, err := strconv.Atoi(value)
			if err != nil {
				return invalid("value", "must be an integer number of days")
			}
			trig.Value = &n
		}
		rule.Trigger = trig
	case types.MetricRentDue:
		n, err := strconv.Atoi(value)
		if err != nil {
			return invalid("value", "must be a day of month")
		}
		if n < 1 || n > 31 {
			return invalid("value", "day of month must be within [1,31]")
		}
		rule.Trigger = RentDue{Day: n, DeclaredOperator: operator}
	default:
		return invalid("metric", fmt.Sprintf("unknown metric %q", p.Metric))
	}
	return rule, nil
}

// ParseAll parses every policy, keeping caller order. Invalid policies are
// reported together; the returned rules contain only the valid ones.
func ParseAll(policies []types.Policy) ([]Rule, error) {
	rules := make([]Rule, 0, len(policies))
	var errs []error
	for _, p := range policies {
		r, err := Parse(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, r)
	}
	return rules, errors.Join(errs...)
}

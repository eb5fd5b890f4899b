package dsl

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/aretw0/reflex/internal/compiler"
	"github.com/aretw0/reflex/pkg/adapters/memory"
	"github.com/aretw0/reflex/pkg/domain"
)

// Builder accumulates rules in evaluation order.
type Builder struct {
	rules []*RuleBuilder
}

// New creates a new rule set builder.
func New() *Builder {
	return &Builder{}
}

// When starts a rule guarded by condition.
func (b *Builder) When(condition domain.Expression) *RuleBuilder {
	rb := &RuleBuilder{rule: domain.Rule{Condition: condition}}
	b.rules = append(b.rules, rb)
	return rb
}

// Rules returns the rule set as built, without checking it.
func (b *Builder) Rules() domain.RuleSet {
	rs := make(domain.RuleSet, len(b.rules))
	for i, rb := range b.rules {
		rs[i] = rb.Build()
	}
	return rs
}

// Text renders the rule set and checks that parsing it gives back the same rules.
// Shapes the rule language cannot express, such as an OR nested inside an AND,
// are reported instead of silently changing meaning.
func (b *Builder) Text() (string, error) {
	rs := b.Rules()
	var errs []error
	for i, r := range rs {
		if r.Condition == nil {
			errs = append(errs, fmt.Errorf("rule %d: missing condition", i))
		}
		if len(r.Actions) == 0 {
			errs = append(errs, fmt.Errorf("rule %d: no actions", i))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return "", err
	}

	text := rs.String()
	parsed, err := compiler.NewParser().Parse(text)
	if err != nil {
		return "", fmt.Errorf("rendered rules do not parse: %w", err)
	}
	for i := range rs {
		if i >= len(parsed) || !reflect.DeepEqual(rs[i], parsed[i]) {
			return "", fmt.Errorf("rule %d cannot be expressed as rule text: %s", i, rs[i])
		}
	}
	return text, nil
}

// Build compiles the rules into an in-memory rule source.
func (b *Builder) Build() (*memory.Source, error) {
	text, err := b.Text()
	if err != nil {
		return nil, fmt.Errorf("failed to build rule source: %w", err)
	}
	return memory.NewSource(text), nil
}

// RuleBuilder provides a fluent API for configuring a rule.
type RuleBuilder struct {
	rule domain.Rule
}

// Then appends actions, run in order when the condition holds.
func (r *RuleBuilder) Then(actions ...domain.Expression) *RuleBuilder {
	r.rule.Actions = append(r.rule.Actions, actions...)
	return r
}

// Build returns the underlying domain.Rule.
func (r *RuleBuilder) Build() domain.Rule {
	actions := append([]domain.Expression(nil), r.rule.Actions...)
	return domain.Rule{Condition: r.rule.Condition, Actions: actions}
}

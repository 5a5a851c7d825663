// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package upgrades

import (
	"github.com/juju/errors"

	"github.com/juju/studyversion/version"
)

// Registry holds a contiguous chain of steps: each step starts at the
// version the previous one ends at.
type Registry struct {
	steps []Step
}

var _ StepResolver = (*Registry)(nil)

// NewRegistry returns a registry of the given steps, in order. It fails if
// a step is invalid or the chain has a gap or an overlap.
func NewRegistry(steps ...Step) (*Registry, error) {
	for i, step := range steps {
		if err := step.Validate(); err != nil {
			return nil, errors.Trace(err)
		}
		if i > 0 && steps[i-1].New != step.Old {
			return nil, errors.NotValidf("step chain: %s is followed by %s", steps[i-1], step)
		}
	}
	return &Registry{steps: append([]Step(nil), steps...)}, nil
}

// DefaultRegistry returns the registry of every known study upgrade.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(builtinSteps()...)
	if err != nil {
		panic(err)
	}
	return r
}

func builtinSteps() []Step {
	return []Step{
		stepTo71(),
		stepTo72(),
		stepTo80(),
		stepTo81(),
		stepTo82(),
		stepTo83(),
		stepTo84(),
		stepTo85(),
		stepTo86(),
		stepTo87(),
		stepTo88(),
		stepTo90(),
		stepTo92(),
	}
}

// Steps returns the registered steps in chain order.
func (r *Registry) Steps() []Step {
	return append([]Step(nil), r.steps...)
}

// Latest returns the version reached by the last step, or version.Zero
// for an empty registry.
func (r *Registry) Latest() version.Number {
	if len(r.steps) == 0 {
		return version.Zero
	}
	return r.steps[len(r.steps)-1].New
}

// Contains reports whether a study at version v can be upgraded.
func (r *Registry) Contains(v version.Number) bool {
	_, err := r.ResolveStep(v)
	return err == nil
}

// ResolveStep returns the step that upgrades a study at version v.
func (r *Registry) ResolveStep(v version.Number) (Step, error) {
	for _, step := range r.steps {
		if step.CanApply(v) {
			return step, nil
		}
	}
	return Step{}, errors.WithType(
		errors.Errorf("Cannot upgrade from version '%s'", v), ErrUnknownVersion)
}

// ResolveFrom returns every step upgrading a study at version from to the
// latest version.
func (r *Registry) ResolveFrom(from version.Number) ([]Step, error) {
	steps := r.chain(from, nil)
	if len(steps) == 0 {
		return nil, errors.WithType(
			errors.Errorf("Cannot upgrade from version '%s': unknown version", from), ErrUnknownVersion)
	}
	return steps, nil
}

// ResolveRange returns the steps upgrading a study from version from to
// version to. Nothing is resolved for a downgrade, a study already at the
// target version or a target the chain does not end a step at.
func (r *Registry) ResolveRange(from, to version.Number) ([]Step, error) {
	switch cmp := from.Compare(to); {
	case cmp == 0:
		return nil, errors.WithType(
			errors.Errorf("Your study is already in version '%s'", to), ErrAlreadyUpToDate)
	case cmp > 0:
		return nil, errors.WithType(
			errors.Errorf("Cannot downgrade from version '%s' to '%s'", from, to), ErrDowngrade)
	}
	steps := r.chain(from, &to)
	if len(steps) == 0 {
		return nil, errors.WithType(
			errors.Errorf("Cannot upgrade from version '%s': unknown version", from), ErrUnknownVersion)
	}
	if steps[len(steps)-1].New != to {
		return nil, errors.WithType(
			errors.Errorf("Cannot upgrade to version '%s': version unreachable", to), ErrUnreachable)
	}
	logger.Debugf("resolved %d upgrade steps from %s to %s", len(steps), from, to)
	return steps, nil
}

// Targets returns the versions a study at version from can be upgraded
// to, in increasing order.
func (r *Registry) Targets(from version.Number) []version.Number {
	var targets []version.Number
	for _, step := range r.chain(from, nil) {
		targets = append(targets, step.New)
	}
	return targets
}

// chain walks the steps starting with the one applicable to from, and
// stops before the first step that would go past end, if set.
func (r *Registry) chain(from version.Number, end *version.Number) []Step {
	var steps []Step
	current := from
	for _, step := range r.steps {
		if !step.CanApply(current) {
			if len(steps) == 0 {
				continue
			}
			break
		}
		if end != nil && end.Less(step.New) {
			break
		}
		steps = append(steps, step)
		current = step.New
	}
	return steps
}

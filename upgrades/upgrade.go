// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package upgrades upgrades a study directory from one version to the
// next by running a contiguous chain of upgrade steps.
package upgrades

import (
	"fmt"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/studyversion/version"
)

var logger = loggo.GetLogger("studyversion.upgrades")

// Step upgrades a study from version Old to version New.
type Step struct {
	// Old is the first study version the step applies to.
	Old version.Number
	// New is the version of the study once the step has run.
	New version.Number
	// Files lists the paths, relative to the study directory, of the files
	// and directories the step may modify. They are backed up before the
	// step runs.
	Files []string
	// RequiresDenormalization is set when the study matrices must not be
	// links for the step to work.
	RequiresDenormalization bool
	// Apply modifies the study in place.
	Apply func(studyDir string) error
}

// CanApply reports whether the step upgrades a study at version v, that
// is Old <= v < New.
func (s Step) CanApply(v version.Number) bool {
	return !v.Less(s.Old) && v.Less(s.New)
}

// Description is a human readable description of the step.
func (s Step) Description() string {
	return fmt.Sprintf("Upgrade Study v%s -> v%s", s.Old.MustFormat("2d"), s.New.MustFormat("2d"))
}

// String implements fmt.Stringer.
func (s Step) String() string {
	return s.Description()
}

// Validate checks the step is usable.
func (s Step) Validate() error {
	if !s.Old.Less(s.New) {
		return errors.NotValidf("step from %s to %s", s.Old, s.New)
	}
	if s.Apply == nil {
		return errors.NotValidf("%s without apply function", s.Description())
	}
	for _, f := range s.Files {
		if f == "" || filepath.IsAbs(f) {
			return errors.NotValidf("%s file %q", s.Description(), f)
		}
	}
	return nil
}

// StepResolver resolves the ordered steps upgrading a study from one
// version to another.
type StepResolver interface {
	ResolveRange(from, to version.Number) ([]Step, error)
}

// stepError records the step being performed and the error.
type stepError struct {
	description string
	err         error
}

func (e *stepError) Error() string {
	return fmt.Sprintf("%s: %v", e.description, e.err)
}

func (e *stepError) Unwrap() error {
	return e.err
}

// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package upgrades

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
)

const (
	// ErrUnknownVersion is returned when no step upgrades a study from
	// the requested version.
	ErrUnknownVersion = errors.ConstError("unknown version")

	// ErrAlreadyUpToDate is returned when the study is already at the
	// requested version.
	ErrAlreadyUpToDate = errors.ConstError("already up to date")

	// ErrDowngrade is returned when the requested version is older than
	// the study version.
	ErrDowngrade = errors.ConstError("downgrade not supported")

	// ErrUnreachable is returned when the chain of steps skips over the
	// requested version.
	ErrUnreachable = errors.ConstError("version unreachable")

	// ErrStepPrecondition is satisfied by the errors returned by a step
	// when the study content prevents the upgrade.
	ErrStepPrecondition = errors.ConstError("step precondition failed")

	// ErrInterrupted is returned when the upgrade is aborted.
	ErrInterrupted = errors.ConstError("upgrade interrupted")
)

// UnexpectedMatrixLinksError is returned when a step finds a matrix link
// file which must have been resolved beforehand.
type UnexpectedMatrixLinksError struct {
	// Path is the slash separated path of the link, relative to the
	// study directory.
	Path string
}

// Error implements error.
func (e *UnexpectedMatrixLinksError) Error() string {
	return fmt.Sprintf("Found unexpected '%s' file in the directory."+
		" The links must be resolved before the upgrade can be done using the denormalization mechanism"+
		" that allows to replace the matrix links by valid TSV matrices.", e.Path)
}

// Is makes the error satisfy ErrStepPrecondition.
func (e *UnexpectedMatrixLinksError) Is(target error) bool {
	return target == ErrStepPrecondition
}

// UnexpectedThematicTrimmingFieldsError is returned when the thematic
// trimming of a study both enables and disables short term storage
// variables.
type UnexpectedThematicTrimmingFieldsError struct {
	Enabled  []string
	Disabled []string
}

// Error implements error.
func (e *UnexpectedThematicTrimmingFieldsError) Error() string {
	return fmt.Sprintf("Found unexpected thematic trimming fields: enabled [%s] and disabled [%s]."+
		" Short-term storage variables must be either all enabled or all disabled before they can be grouped.",
		strings.Join(e.Enabled, ", "), strings.Join(e.Disabled, ", "))
}

// Is makes the error satisfy ErrStepPrecondition.
func (e *UnexpectedThematicTrimmingFieldsError) Is(target error) bool {
	return target == ErrStepPrecondition
}

// RestoreError is returned when an upgrade failed and the study could not
// be fully restored afterwards. Both failures are kept.
type RestoreError struct {
	// Err is the error that aborted the upgrade.
	Err error
	// Restore holds the errors raised while restoring the study.
	Restore []error
	// Staging is the directory holding the copies that could not be
	// restored. It is left on disk.
	Staging string
}

// Error implements error.
func (e *RestoreError) Error() string {
	msgs := make([]string, len(e.Restore))
	for i, err := range e.Restore {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%v (restoring study failed, backup kept in %q: %s)",
		e.Err, e.Staging, strings.Join(msgs, "; "))
}

// Unwrap returns the upgrade error followed by the restore errors.
func (e *RestoreError) Unwrap() []error {
	return append([]error{e.Err}, e.Restore...)
}

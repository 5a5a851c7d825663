// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package version implements the (major, minor, patch) version numbers
// used to identify study formats and solver releases.
//
// A Number is a plain comparable value. Two normalization policies share
// the representation: solver versions keep all three components, study
// versions always drop the patch component (see ParseStudy). Both can be
// compared with each other since comparison only looks at the triplet.
package version

import (
	"fmt"

	"github.com/juju/errors"
)

// Number represents a version number as a (major, minor, patch) triplet.
type Number struct {
	Major int
	Minor int
	Patch int
}

// Zero is the zero version number.
var Zero = Number{}

// New returns the fine grained version number major.minor.patch.
func New(major, minor, patch int) Number {
	return Number{Major: major, Minor: minor, Patch: patch}
}

// NewStudy returns the study version number major.minor.
func NewStudy(major, minor int) Number {
	return Number{Major: major, Minor: minor}
}

// Parse converts any supported version representation into a fine
// grained version number. Supported representations are Number, integer
// kinds, strings, sequences of one to three components and maps with a
// "major" key (see Triplet).
func Parse(v any) (Number, error) {
	if n, ok := v.(Number); ok {
		return n, nil
	}
	major, minor, patch, err := Triplet(v)
	if err != nil {
		return Zero, err
	}
	return Number{Major: major, Minor: minor, Patch: patch}, nil
}

// ParseStudy is like Parse but returns a study version number, whose
// patch component is always zero.
func ParseStudy(v any) (Number, error) {
	n, err := Parse(v)
	if err != nil {
		return Zero, err
	}
	return n.Study(), nil
}

// MustParse parses v and panics if it is not a valid version.
func MustParse(v any) Number {
	n, err := Parse(v)
	if err != nil {
		panic(err)
	}
	return n
}

// MustParseStudy parses a study version and panics on error.
func MustParseStudy(v any) Number {
	n, err := ParseStudy(v)
	if err != nil {
		panic(err)
	}
	return n
}

// Study returns the coarse, two-component form of n.
func (n Number) Study() Number {
	return Number{Major: n.Major, Minor: n.Minor}
}

// String returns the minimal form of the version: trailing zero
// components are dropped, so 9.0.0 renders as "9" and 9.2.0 as "9.2".
// A major of 100 or more with zero minor and patch renders as a bare
// integer that Parse reads as the compact encoding.
func (n Number) String() string {
	switch {
	case n.Patch != 0:
		return fmt.Sprintf("%d.%d.%d", n.Major, n.Minor, n.Patch)
	case n.Minor != 0:
		return fmt.Sprintf("%d.%d", n.Major, n.Minor)
	default:
		return fmt.Sprintf("%d", n.Major)
	}
}

// Int returns the legacy compact encoding major*100 + minor*10 + patch.
func (n Number) Int() int {
	return n.Major*100 + n.Minor*10 + n.Patch
}

// Compare returns -1, 0 or 1 depending on whether n is less than, equal
// to, or greater than other.
func (n Number) Compare(other Number) int {
	switch {
	case n.Major != other.Major:
		return sign(n.Major - other.Major)
	case n.Minor != other.Minor:
		return sign(n.Minor - other.Minor)
	default:
		return sign(n.Patch - other.Patch)
	}
}

// Less reports whether n sorts before other.
func (n Number) Less(other Number) bool {
	return n.Compare(other) < 0
}

// Equal reports whether n equals other, after normalizing other with
// Parse. Values that cannot be converted are never equal.
func (n Number) Equal(other any) bool {
	o, err := Parse(other)
	if err != nil {
		return false
	}
	return n.Compare(o) == 0
}

// CompareAny compares n with any supported version representation.
// An error is returned when other cannot be converted, since such values
// are not orderable.
func (n Number) CompareAny(other any) (int, error) {
	o, err := Parse(other)
	if err != nil {
		return 0, errors.Annotatef(err, "cannot compare %s", n)
	}
	return n.Compare(o), nil
}

// MarshalText implements encoding.TextMarshaler.
func (n Number) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Number) UnmarshalText(data []byte) error {
	v, err := Parse(string(data))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

func sign(i int) int {
	switch {
	case i < 0:
		return -1
	case i > 0:
		return 1
	}
	return 0
}

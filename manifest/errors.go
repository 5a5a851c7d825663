// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manifest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/juju/errors"
)

// ValidationError reports every invalid field of a manifest.
type ValidationError struct {
	Description string
	// Fields maps each invalid field to the reason it was rejected.
	Fields map[string]string
}

// Error implements error.
func (e *ValidationError) Error() string {
	var summary string
	switch n := len(e.Fields); n {
	case 0:
		summary = "No errors"
	case 1:
		summary = "1 invalid field"
	default:
		summary = fmt.Sprintf("%d invalid fields", n)
	}
	lines := []string{e.Description + ": " + summary}
	for _, name := range fieldOrder(e.Fields) {
		lines = append(lines, fmt.Sprintf("- %s: %s", name, e.Fields[name]))
	}
	return strings.Join(lines, "\n")
}

// Is makes a ValidationError satisfy errors.NotValid.
func (e *ValidationError) Is(target error) bool {
	return target == errors.NotValid
}

var keyRank = map[string]int{
	keyCaption:  1,
	keyVersion:  2,
	keyCreated:  3,
	keyLastSave: 4,
	keyAuthor:   5,
}

// fieldOrder lists the manifest keys in file order, unknown names last.
func fieldOrder(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := keyRank[names[i]], keyRank[names[j]]
		if ri == 0 {
			ri = len(keyRank) + 1
		}
		if rj == 0 {
			rj = len(keyRank) + 1
		}
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	return names
}

// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// InvalidError is returned when a value cannot be converted into a
// version number. It carries the offending value.
type InvalidError struct {
	Value  any
	Reason string
}

// Error implements error.
func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid version number %s: %s", literal(e.Value), e.Reason)
}

// Is makes InvalidError satisfy errors.NotValid.
func (e *InvalidError) Is(target error) bool {
	return target == errors.NotValid
}

func invalid(v any, format string, args ...any) error {
	return &InvalidError{Value: v, Reason: fmt.Sprintf(format, args...)}
}

func literal(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%v", v)
}

// Triplet normalizes a version representation into its three components.
//
//   - integers below 100 are bare major versions, larger integers use the
//     compact encoding (870 is 8.7.0, 921 is 9.2.1);
//   - strings are "X", "X.Y" or "X.Y.Z", a bare "X" being read as an
//     integer;
//   - sequences hold one to three numeric components, missing ones are 0;
//   - maps require a "major" key, "minor" and "patch" default to 0.
//
// Booleans are rejected wherever an integer is expected.
func Triplet(v any) (major, minor, patch int, err error) {
	switch val := v.(type) {
	case Number:
		return val.Major, val.Minor, val.Patch, nil
	case string:
		return stringTriplet(val)
	case []int:
		items := make([]any, len(val))
		for i, x := range val {
			items[i] = x
		}
		return sequenceTriplet(v, items)
	case []string:
		items := make([]any, len(val))
		for i, x := range val {
			items[i] = x
		}
		return sequenceTriplet(v, items)
	case []any:
		return sequenceTriplet(v, val)
	case map[string]int:
		items := make(map[string]any, len(val))
		for k, x := range val {
			items[k] = x
		}
		return mapTriplet(v, items)
	case map[string]string:
		items := make(map[string]any, len(val))
		for k, x := range val {
			items[k] = x
		}
		return mapTriplet(v, items)
	case map[string]any:
		return mapTriplet(v, val)
	}
	if i, ok := asInt64(v); ok {
		return intTriplet(v, i)
	}
	return 0, 0, 0, invalid(v, "invalid version type: %T", v)
}

func intTriplet(v any, i int64) (int, int, int, error) {
	switch {
	case i < 0:
		return 0, 0, 0, invalid(v, "unsupported integer value")
	case i < 100:
		return int(i), 0, 0, nil
	}
	major, rem := i/100, i%100
	return int(major), int(rem / 10), int(rem % 10), nil
}

func stringTriplet(s string) (int, int, int, error) {
	parts := strings.Split(s, ".")
	switch len(parts) {
	case 1:
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, 0, 0, invalid(s, "invalid literal for integer: %q", s)
		}
		return intTriplet(s, i)
	case 2, 3:
		var nums [3]int
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return 0, 0, 0, invalid(s, "invalid literal for integer: %q", p)
			}
			if n < 0 {
				return 0, 0, 0, invalid(s, "negative component %d", n)
			}
			nums[i] = n
		}
		return nums[0], nums[1], nums[2], nil
	}
	return 0, 0, 0, invalid(s, "unsupported string format")
}

func sequenceTriplet(v any, items []any) (int, int, int, error) {
	switch {
	case len(items) == 0:
		return 0, 0, 0, invalid(v, "empty version tuple")
	case len(items) > 3:
		return 0, 0, 0, invalid(v, "too many integers in version tuple")
	}
	var nums [3]int
	for i, item := range items {
		n, err := component(item)
		if err != nil {
			return 0, 0, 0, invalid(v, "%v", err)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}

func mapTriplet(v any, values map[string]any) (int, int, int, error) {
	if _, ok := values["major"]; !ok {
		return 0, 0, 0, invalid(v, "missing key 'major'")
	}
	var nums [3]int
	for i, key := range []string{"major", "minor", "patch"} {
		item, ok := values[key]
		if !ok {
			continue
		}
		n, err := component(item)
		if err != nil {
			return 0, 0, 0, invalid(v, "%s: %v", key, err)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}

// component converts a single version component, accepting integer kinds
// and decimal strings.
func component(item any) (int, error) {
	if s, ok := item.(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, errors.Errorf("invalid literal for integer: %q", s)
		}
		if n < 0 {
			return 0, errors.Errorf("negative component %d", n)
		}
		return n, nil
	}
	i, ok := asInt64(item)
	if !ok {
		return 0, errors.Errorf("unsupported value type %T", item)
	}
	if i < 0 {
		return 0, errors.Errorf("negative component %d", i)
	}
	return int(i), nil
}

func asInt64(v any) (int64, bool) {
	switch i := v.(type) {
	case int:
		return int64(i), true
	case int8:
		return int64(i), true
	case int16:
		return int64(i), true
	case int32:
		return int64(i), true
	case int64:
		return i, true
	case uint:
		return int64(i), true
	case uint8:
		return int64(i), true
	case uint16:
		return int64(i), true
	case uint32:
		return int64(i), true
	case uint64:
		return int64(i), true
	}
	return 0, false
}

// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package inifile

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// Section is an ordered set of keys.
type Section struct {
	name   string
	keys   []string
	values map[string][]string
}

func newSection(name string) *Section {
	return &Section{
		name:   name,
		values: make(map[string][]string),
	}
}

// Name returns the section name.
func (s *Section) Name() string {
	return s.name
}

// Keys returns the key names in order.
func (s *Section) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Has reports whether the key is present.
func (s *Section) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Get returns the value of key. For list keys the last value is returned.
func (s *Section) Get(key string) (string, bool) {
	values, ok := s.values[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[len(values)-1], true
}

// Value returns the value of key, or the empty string if it is missing.
func (s *Section) Value(key string) string {
	v, _ := s.Get(key)
	return v
}

// Bool parses the value of key as a boolean.
func (s *Section) Bool(key string) (bool, error) {
	v, ok := s.Get(key)
	if !ok {
		return false, errors.NotFoundf("key %q in section %q", key, s.name)
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, errors.NotValidf("boolean %q for key %q in section %q", v, key, s.name)
	}
	return b, nil
}

// List returns the values of a list key, or a single element list for a
// plain key.
func (s *Section) List(key string) []string {
	return append([]string(nil), s.values[key]...)
}

// Set sets a single value, keeping the key position if it already exists.
func (s *Section) Set(key, value string) {
	s.put(key, []string{value})
}

// SetBool sets a boolean value, written as "true" or "false".
func (s *Section) SetBool(key string, value bool) {
	s.Set(key, strconv.FormatBool(value))
}

// SetInt sets an integer value.
func (s *Section) SetInt(key string, value int) {
	s.Set(key, strconv.Itoa(value))
}

// SetFloat sets a floating point value. The value always carries a
// decimal point so that it reads back as a float.
func (s *Section) SetFloat(key string, value float64) {
	v := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.ContainsAny(v, ".eE") {
		v += ".0"
	}
	s.Set(key, v)
}

// SetList sets the values of a repeatable key.
func (s *Section) SetList(key string, values []string) {
	s.put(key, append([]string(nil), values...))
}

// Pop removes key and returns its value.
func (s *Section) Pop(key string) (string, bool) {
	v, ok := s.Get(key)
	s.Delete(key)
	return v, ok
}

// Delete removes key if present.
func (s *Section) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
}

func (s *Section) put(key string, values []string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = values
}

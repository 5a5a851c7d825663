// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package inifile reads and writes the INI files of a study.
//
// A File keeps sections and keys in the order they were read or added.
// Most keys hold a single value and a repeated key simply overwrites the
// previous value. Keys declared as special when reading are allowed to
// repeat and hold an ordered list of values instead.
package inifile

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/utils/v4"
	"gopkg.in/ini.v1"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// File holds the ordered sections of an INI file.
type File struct {
	sections []*Section
}

// New returns an empty file.
func New() *File {
	return &File{}
}

// Read reads the INI file at path. Keys named in special may be repeated
// within a section; their values are collected into a list.
func Read(path string, special ...string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	f, err := Parse(data, special...)
	if err != nil {
		return nil, errors.Annotatef(err, "reading %q", path)
	}
	return f, nil
}

// Parse parses the INI data.
func Parse(data []byte, special ...string) (*File, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		AllowShadows:            true,
		IgnoreInlineComment:     true,
		IgnoreContinuation:      true,
		PreserveSurroundedQuote: true,
		KeyValueDelimiters:      "=",
	}, data)
	if err != nil {
		return nil, errors.Trace(err)
	}
	lists := set.NewStrings(special...)
	raw := rawValues(data)
	f := New()
	for _, sec := range cfg.Sections() {
		if sec.Name() == ini.DefaultSection && len(sec.Keys()) == 0 {
			continue
		}
		s := f.AddSection(sec.Name())
		for _, key := range sec.Keys() {
			values := raw[sec.Name()][key.Name()]
			if len(values) == 0 {
				values = key.ValueWithShadows()
			}
			if lists.Contains(key.Name()) {
				s.SetList(key.Name(), values)
				continue
			}
			s.Set(key.Name(), values[len(values)-1])
		}
	}
	return f, nil
}

// rawValues collects every value of every key, section by section, in the
// order the lines appear. ini.v1 drops a shadow equal to a value already
// stored for the key, so repeated values are taken from the lines.
func rawValues(data []byte) map[string]map[string][]string {
	out := make(map[string]map[string][]string)
	section := ini.DefaultSection
	for _, line := range strings.Split(string(bytes.TrimPrefix(data, utf8BOM)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == ';' || line[0] == '#' {
			continue
		}
		if line[0] == '[' {
			if end := strings.LastIndexByte(line, ']'); end > 0 {
				section = strings.TrimSpace(line[1:end])
			}
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		keys := out[section]
		if keys == nil {
			keys = make(map[string][]string)
			out[section] = keys
		}
		name = strings.TrimSpace(name)
		keys[name] = append(keys[name], strings.TrimSpace(value))
	}
	return out
}

// Write atomically replaces the file at path with the contents of f.
func Write(path string, f *File) error {
	data, err := f.Bytes()
	if err != nil {
		return errors.Trace(err)
	}
	if err := utils.AtomicWriteFile(path, data, 0644); err != nil {
		return errors.Annotatef(err, "writing %q", path)
	}
	return nil
}

// Bytes serializes the file. Each section is followed by a blank line and
// every value of a key is written on its own "key = value" line.
func (f *File) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	for _, s := range f.sections {
		if s.name == "" || strings.ContainsAny(s.name, "[]\r\n") {
			return nil, errors.NotValidf("section name %q", s.name)
		}
		fmt.Fprintf(&buf, "[%s]\n", s.name)
		for _, name := range s.keys {
			if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "=\r\n") {
				return nil, errors.NotValidf("key %q in section %q", name, s.name)
			}
			for _, v := range s.values[name] {
				if strings.ContainsAny(v, "\r\n") {
					return nil, errors.NotValidf("multi-line value for key %q in section %q", name, s.name)
				}
				fmt.Fprintf(&buf, "%s = %s\n", name, v)
			}
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// Names returns the section names in order.
func (f *File) Names() []string {
	names := make([]string, len(f.sections))
	for i, s := range f.sections {
		names[i] = s.name
	}
	return names
}

// Sections returns the sections in order.
func (f *File) Sections() []*Section {
	return append([]*Section(nil), f.sections...)
}

// Section returns the named section, or nil if there is none.
func (f *File) Section(name string) *Section {
	for _, s := range f.sections {
		if s.name == name {
			return s
		}
	}
	return nil
}

// HasSection reports whether the named section exists.
func (f *File) HasSection(name string) bool {
	return f.Section(name) != nil
}

// AddSection returns the named section, appending a new empty one if it
// does not exist yet.
func (f *File) AddSection(name string) *Section {
	if s := f.Section(name); s != nil {
		return s
	}
	s := newSection(name)
	f.sections = append(f.sections, s)
	return s
}

// RemoveSection removes the named section and reports whether it existed.
func (f *File) RemoveSection(name string) bool {
	for i, s := range f.sections {
		if s.name == name {
			f.sections = append(f.sections[:i], f.sections[i+1:]...)
			return true
		}
	}
	return false
}

// Map returns the contents of the file as nested maps, each key mapping
// to its values. It is mostly useful to compare files.
func (f *File) Map() map[string]map[string][]string {
	out := make(map[string]map[string][]string, len(f.sections))
	for _, s := range f.sections {
		keys := make(map[string][]string, len(s.keys))
		for _, k := range s.keys {
			keys[k] = append([]string(nil), s.values[k]...)
		}
		out[s.name] = keys
	}
	return out
}

// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package manifest models the study.antares file found at the root of
// every study directory.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/juju/studyversion/internal/inifile"
	"github.com/juju/studyversion/version"
)

const (
	// FileName is the path of the manifest relative to the study
	// directory.
	FileName = "study.antares"

	section = "antares"

	keyCaption  = "caption"
	keyVersion  = "version"
	keyCreated  = "created"
	keyLastSave = "lastsave"
	keyAuthor   = "author"

	timeLayout = "2006-01-02 15:04:05"
)

// DottedVersion is the first study version whose manifest stores the
// version as "major.minor". Older studies use the compact three digit
// code, e.g. "880" for 8.8.
var DottedVersion = version.NewStudy(9, 0)

// Manifest holds the content of a study.antares file.
type Manifest struct {
	Caption  string
	Version  version.Number
	Created  time.Time
	LastSave time.Time
	Author   string
}

// Path returns the path of the manifest of the study in studyDir.
func Path(studyDir string) string {
	return filepath.Join(studyDir, FileName)
}

// Read reads and validates the manifest of the study in studyDir.
// Dates that are not numbers are replaced by the current time of clk.
// All invalid fields are reported together in a *ValidationError.
func Read(studyDir string, clk clock.Clock) (*Manifest, error) {
	path := Path(studyDir)
	f, err := inifile.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.NotFoundf("study manifest %q", path)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	sec := f.Section(section)
	if sec == nil {
		return nil, &ValidationError{
			Description: invalidDescription,
			Fields:      map[string]string{section: "missing section"},
		}
	}
	return fromSection(sec, clk)
}

const invalidDescription = "Invalid 'study.antares' file"

func fromSection(sec *inifile.Section, clk clock.Clock) (*Manifest, error) {
	invalid := make(map[string]string)
	get := func(key string) (string, bool) {
		v, ok := sec.Get(key)
		if !ok {
			invalid[key] = "missing key"
		}
		return v, ok
	}

	m := &Manifest{}
	if v, ok := get(keyCaption); ok {
		m.Caption = strings.TrimSpace(v)
	}
	if v, ok := get(keyVersion); ok {
		n, err := version.ParseStudy(strings.TrimSpace(v))
		if err != nil {
			invalid[keyVersion] = err.Error()
		}
		m.Version = n
	}
	if v, ok := get(keyCreated); ok {
		m.Created = parseDate(v, clk)
	}
	if v, ok := get(keyLastSave); ok {
		m.LastSave = parseDate(v, clk)
	}
	if v, ok := get(keyAuthor); ok {
		m.Author = strings.TrimSpace(v)
	}
	if len(invalid) > 0 {
		return nil, &ValidationError{
			Description: invalidDescription,
			Fields:      invalid,
		}
	}
	return m, nil
}

func parseDate(v string, clk clock.Clock) time.Time {
	secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return clk.Now().UTC().Truncate(time.Second)
	}
	return time.Unix(int64(secs), 0).UTC()
}

// Write writes the manifest into studyDir, replacing any existing one.
func (m *Manifest) Write(studyDir string) error {
	f := inifile.New()
	sec := f.AddSection(section)
	sec.Set(keyCaption, m.Caption)
	sec.Set(keyVersion, m.versionString())
	sec.Set(keyCreated, strconv.FormatInt(m.Created.Unix(), 10))
	sec.Set(keyLastSave, strconv.FormatInt(m.LastSave.Unix(), 10))
	sec.Set(keyAuthor, m.Author)
	return errors.Trace(inifile.Write(Path(studyDir), f))
}

func (m *Manifest) versionString() string {
	if m.Version.Less(DottedVersion) {
		return m.Version.MustFormat("ddd")
	}
	return fmt.Sprintf("%d.%d", m.Version.Major, m.Version.Minor)
}

// Touch sets the last save date to now.
func (m *Manifest) Touch(now time.Time) {
	m.LastSave = now.UTC().Truncate(time.Second)
}

// String returns a human readable description of the manifest.
func (m *Manifest) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Caption: %s\n", m.Caption)
	fmt.Fprintf(&b, "Version: v%s\n", m.Version.MustFormat("2d"))
	fmt.Fprintf(&b, "Created: %s\n", m.Created.UTC().Format(timeLayout))
	fmt.Fprintf(&b, "Last Save: %s\n", m.LastSave.UTC().Format(timeLayout))
	fmt.Fprintf(&b, "Author: %s", m.Author)
	return b.String()
}

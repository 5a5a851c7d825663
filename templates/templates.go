// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package templates creates new studies from version specific template
// archives.
package templates

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	jujuzip "github.com/juju/utils/v4/zip"

	"github.com/juju/studyversion/manifest"
	"github.com/juju/studyversion/version"
)

// Templates maps a study version to the path of its template archive.
type Templates map[version.Number]string

// Load scans dir for template archives. An archive is named
// "<anything>_<ddd>.zip", where ddd is the compact study version, for
// example "empty_study_880.zip".
func Load(dir string) (Templates, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Annotate(err, "reading templates")
	}
	t := make(Templates)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".zip") {
			continue
		}
		v, err := archiveVersion(name)
		if err != nil {
			return nil, errors.Annotatef(err, "template %q", name)
		}
		t[v] = filepath.Join(dir, name)
	}
	return t, nil
}

func archiveVersion(name string) (version.Number, error) {
	base := strings.TrimSuffix(name, ".zip")
	code := base[strings.LastIndex(base, "_")+1:]
	return version.ParseStudy(code)
}

// Versions returns the template versions in increasing order.
func (t Templates) Versions() []version.Number {
	versions := make([]version.Number, 0, len(t))
	for v := range t {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Less(versions[j])
	})
	return versions
}

// Latest returns the most recent template version, or version.Zero if
// there is none.
func (t Templates) Latest() version.Number {
	versions := t.Versions()
	if len(versions) == 0 {
		return version.Zero
	}
	return versions[len(versions)-1]
}

// Names returns the versions formatted as "major.minor".
func (t Templates) Names() []string {
	var names []string
	for _, v := range t.Versions() {
		names = append(names, v.MustFormat("2d"))
	}
	return names
}

// Archive returns the path of the template archive for version v.
func (t Templates) Archive(v version.Number) (string, error) {
	path, ok := t[v.Study()]
	if !ok {
		return "", errors.NotFoundf("template for version %s: available templates are [%s]",
			v, strings.Join(t.Names(), ", "))
	}
	return path, nil
}

// CreateParams holds the parameters of a new study.
type CreateParams struct {
	// StudyDir is the directory of the study. It must not exist.
	StudyDir string
	Caption  string
	Author   string
	Version  version.Number
	Clock    clock.Clock
	// Progress, if set, is called before each stage of the creation.
	Progress func(string)
}

// Validate checks the parameters and normalizes the caption and author.
func (p *CreateParams) Validate() error {
	p.Caption = strings.TrimSpace(p.Caption)
	p.Author = strings.TrimSpace(p.Author)
	if p.StudyDir == "" {
		return errors.NotValidf("empty study directory")
	}
	if _, err := os.Lstat(p.StudyDir); err == nil {
		return errors.AlreadyExistsf("study directory %q", p.StudyDir)
	} else if !errors.Is(err, os.ErrNotExist) {
		return errors.Trace(err)
	}
	if p.Caption == "" {
		return errors.NotValidf("empty caption")
	}
	if p.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	return nil
}

func (p *CreateParams) progress(msg string) {
	if p.Progress != nil {
		p.Progress(msg)
	}
}

// Create extracts the template for the requested version into a new
// study directory and writes its manifest.
func (t Templates) Create(p CreateParams) (*manifest.Manifest, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	v := p.Version.Study()
	archive, err := t.Archive(v)
	if err != nil {
		return nil, errors.Trace(err)
	}

	p.progress("Extracting template " + filepath.Base(archive) + " to '" + p.StudyDir + "'...")
	if err := extract(archive, p.StudyDir); err != nil {
		return nil, errors.Annotatef(err, "extracting %q", archive)
	}

	now := p.Clock.Now().UTC().Truncate(time.Second)
	m := &manifest.Manifest{
		Caption:  p.Caption,
		Version:  v,
		Created:  now,
		LastSave: now,
		Author:   p.Author,
	}
	p.progress("Writing '" + manifest.FileName + "' file...")
	if err := m.Write(p.StudyDir); err != nil {
		return nil, errors.Trace(err)
	}
	return m, nil
}

func extract(archive, target string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = r.Close() }()
	if err := os.MkdirAll(target, 0755); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(jujuzip.ExtractAll(&r.Reader, target))
}

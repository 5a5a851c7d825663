// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package upgrades

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/juju/errors"

	"github.com/juju/studyversion/internal/inifile"
	"github.com/juju/studyversion/internal/matrix"
)

// GeneralDataPath is the path of the simulation settings file relative to
// the study directory.
const GeneralDataPath = "settings/generaldata.ini"

// generalDataListKeys are the settings keys which may be repeated within
// a section.
var generalDataListKeys = []string{
	"playlist_year_weight",
	"playlist_year +",
	"playlist_year -",
	"select_var -",
	"select_var +",
}

// Sections of the general data file.
const (
	sectionGeneral          = "general"
	sectionOptimization     = "optimization"
	sectionOtherPreferences = "other preferences"
	sectionAdequacyPatch    = "adequacy patch"
	sectionVariables        = "variables selection"
)

func readGeneralData(studyDir string) (*inifile.File, error) {
	f, err := inifile.Read(filepath.Join(studyDir, GeneralDataPath), generalDataListKeys...)
	return f, errors.Trace(err)
}

func writeGeneralData(studyDir string, f *inifile.File) error {
	return errors.Trace(inifile.Write(filepath.Join(studyDir, GeneralDataPath), f))
}

// updateGeneralData reads the general data file, hands it to update and
// writes it back.
func updateGeneralData(studyDir string, update func(*inifile.File) error) error {
	f, err := readGeneralData(studyDir)
	if err != nil {
		return errors.Trace(err)
	}
	if err := update(f); err != nil {
		return errors.Trace(err)
	}
	return writeGeneralData(studyDir, f)
}

// updateIniFile applies update to every section of the INI file at path.
func updateIniFile(path string, update func(*inifile.Section) error) error {
	f, err := inifile.Read(path)
	if err != nil {
		return errors.Trace(err)
	}
	for _, sec := range f.Sections() {
		if err := update(sec); err != nil {
			return errors.Annotatef(err, "section %q of %q", sec.Name(), path)
		}
	}
	return errors.Trace(inifile.Write(path, f))
}

var invalidIDChars = regexp.MustCompile(`[^a-zA-Z0-9_(),& -]+`)

// TransformNameToID turns an area or cluster name into its identifier:
// every run of invalid characters becomes a single space, surrounding
// spaces are trimmed and, if lower is set, the result is lower cased.
func TransformNameToID(name string, lower bool) string {
	id := strings.TrimSpace(invalidIDChars.ReplaceAllString(name, " "))
	if lower {
		return strings.ToLower(id)
	}
	return id
}

// subdirs returns the sorted paths of the directories directly inside dir.
// A missing dir has no subdirectories.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(dir, e.Name()))
		}
	}
	return dirs, nil
}

// glob is filepath.Glob with sorted results.
func glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Trace(err)
	}
	sort.Strings(matches)
	return matches, nil
}

// checkNoMatrixLinks fails if dir holds an unresolved "*.txt.link" file.
func checkNoMatrixLinks(studyDir, dir string) error {
	links, err := glob(filepath.Join(dir, "*.txt.link"))
	if err != nil {
		return errors.Trace(err)
	}
	if len(links) == 0 {
		return nil
	}
	rel, err := filepath.Rel(studyDir, links[0])
	if err != nil {
		return errors.Trace(err)
	}
	return &UnexpectedMatrixLinksError{Path: filepath.ToSlash(rel)}
}

// touch creates an empty file, and its parent directories, unless it
// already exists.
func touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(matrix.Touch(path))
}

// popKey removes key from the named section and returns its value. The key
// must exist.
func popKey(f *inifile.File, section, key string) (string, error) {
	sec := f.Section(section)
	if sec == nil {
		return "", errors.NotFoundf("section %q in %s", section, GeneralDataPath)
	}
	v, ok := sec.Pop(key)
	if !ok {
		return "", errors.NotFoundf("key %q in section %q of %s", key, section, GeneralDataPath)
	}
	return v, nil
}

// resetSection empties the named section, creating it if needed.
func resetSection(f *inifile.File, name string) *inifile.Section {
	sec := f.AddSection(name)
	for _, key := range sec.Keys() {
		sec.Delete(key)
	}
	return sec
}

// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package upgrades

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"

	"github.com/juju/studyversion/internal/inifile"
	"github.com/juju/studyversion/version"
)

func stepTo80() Step {
	return Step{
		Old:   version.NewStudy(7, 2),
		New:   version.NewStudy(8, 0),
		Files: []string{GeneralDataPath},
		Apply: func(studyDir string) error {
			return updateGeneralData(studyDir, func(f *inifile.File) error {
				f.AddSection(sectionOtherPreferences).Set("hydro-heuristic-policy", "accommodate rule curves")
				optimization := f.AddSection(sectionOptimization)
				optimization.SetBool("include-exportstructure", false)
				optimization.Set("include-unfeasible-problem-behavior", "error-verbose")
				custom, err := popKey(f, sectionGeneral, "custom-ts-numbers")
				if err != nil {
					return errors.Trace(err)
				}
				f.AddSection(sectionGeneral).Set("custom-scenario", custom)
				return nil
			})
		},
	}
}

// stepTo81 introduces renewable clusters.
func stepTo81() Step {
	return Step{
		Old:   version.NewStudy(8, 0),
		New:   version.NewStudy(8, 1),
		Files: []string{GeneralDataPath, "input"},
		Apply: func(studyDir string) error {
			err := updateGeneralData(studyDir, func(f *inifile.File) error {
				f.AddSection(sectionOtherPreferences).Set("renewable-generation-modelling", "aggregated")
				return nil
			})
			if err != nil {
				return errors.Trace(err)
			}
			for _, dir := range []string{"clusters", "series"} {
				if err := os.MkdirAll(filepath.Join(studyDir, "input", "renewables", dir), 0755); err != nil {
					return errors.Trace(err)
				}
			}
			return nil
		},
	}
}

// stepTo83 introduces the adequacy patch. Every area starts outside of it.
func stepTo83() Step {
	return Step{
		Old:   version.NewStudy(8, 2),
		New:   version.NewStudy(8, 3),
		Files: []string{GeneralDataPath, "input/areas"},
		Apply: func(studyDir string) error {
			err := updateGeneralData(studyDir, func(f *inifile.File) error {
				patch := resetSection(f, sectionAdequacyPatch)
				patch.SetBool("include-adq-patch", false)
				patch.SetBool("set-to-null-ntc-between-physical-out-for-first-step", true)
				patch.SetBool("set-to-null-ntc-from-physical-out-to-physical-in-for-first-step", true)
				f.AddSection(sectionOptimization).SetBool("include-split-exported-mps", false)
				return nil
			})
			if err != nil {
				return errors.Trace(err)
			}
			areas, err := subdirs(filepath.Join(studyDir, "input", "areas"))
			if err != nil {
				return errors.Trace(err)
			}
			for _, area := range areas {
				f := inifile.New()
				f.AddSection("adequacy-patch").Set("adequacy-patch-mode", "outside")
				if err := inifile.Write(filepath.Join(area, "adequacy_patch.ini"), f); err != nil {
					return errors.Trace(err)
				}
			}
			return nil
		},
	}
}

var transmissionCapacities = map[string]string{
	"true":     "local-values",
	"false":    "null-for-all-links",
	"infinite": "infinite-for-all-links",
}

// stepTo84 turns the transmission capacities flag into a mode.
func stepTo84() Step {
	return Step{
		Old:   version.NewStudy(8, 3),
		New:   version.NewStudy(8, 4),
		Files: []string{GeneralDataPath},
		Apply: func(studyDir string) error {
			return updateGeneralData(studyDir, func(f *inifile.File) error {
				optimization := f.AddSection(sectionOptimization)
				current, ok := optimization.Get("transmission-capacities")
				if !ok {
					return errors.NotFoundf("key %q in section %q of %s",
						"transmission-capacities", sectionOptimization, GeneralDataPath)
				}
				mode, ok := transmissionCapacities[strings.ToLower(strings.TrimSpace(current))]
				if !ok {
					return errors.NotValidf("transmission capacities %q", current)
				}
				optimization.Set("transmission-capacities", mode)
				optimization.Delete("include-split-exported-mps")
				return nil
			})
		},
	}
}

// stepTo85 adds the curtailment sharing rule settings.
func stepTo85() Step {
	return Step{
		Old:   version.NewStudy(8, 4),
		New:   version.NewStudy(8, 5),
		Files: []string{GeneralDataPath},
		Apply: func(studyDir string) error {
			return updateGeneralData(studyDir, func(f *inifile.File) error {
				patch := f.AddSection(sectionAdequacyPatch)
				patch.Set("price-taking-order", "DENS")
				patch.SetBool("include-hurdle-cost-csr", false)
				patch.SetBool("check-csr-cost-function", false)
				patch.SetFloat("threshold-initiate-curtailment-sharing-rule", 1.0)
				patch.SetFloat("threshold-display-local-matching-rule-violations", 0.0)
				patch.SetInt("threshold-csr-variable-bounds-relaxation", 7)
				return nil
			})
		},
	}
}

// stepTo86 introduces short term storages and hydro minimum generation.
func stepTo86() Step {
	return Step{
		Old:   version.NewStudy(8, 5),
		New:   version.NewStudy(8, 6),
		Files: []string{GeneralDataPath, "input"},
		Apply: func(studyDir string) error {
			err := updateGeneralData(studyDir, func(f *inifile.File) error {
				f.AddSection(sectionAdequacyPatch).SetBool("enable-first-step", false)
				return nil
			})
			if err != nil {
				return errors.Trace(err)
			}
			input := filepath.Join(studyDir, "input")
			for _, dir := range []string{"clusters", "series"} {
				if err := os.MkdirAll(filepath.Join(input, "st-storage", dir), 0755); err != nil {
					return errors.Trace(err)
				}
			}
			areas, err := readAreaIDs(filepath.Join(input, "areas", "list.txt"))
			if err != nil {
				return errors.Trace(err)
			}
			for _, id := range areas {
				if err := touch(filepath.Join(input, "st-storage", "clusters", id, "list.ini")); err != nil {
					return errors.Trace(err)
				}
				if err := touch(filepath.Join(input, "hydro", "series", id, "mingen.txt")); err != nil {
					return errors.Trace(err)
				}
			}
			return nil
		},
	}
}

// readAreaIDs reads the area names listed one per line in path and
// returns their identifiers. Blank lines are ignored.
func readAreaIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer func() { _ = f.Close() }()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if id := TransformNameToID(scanner.Text(), true); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, errors.Trace(scanner.Err())
}

// stepTo88 enables every existing short term storage.
func stepTo88() Step {
	return Step{
		Old:   version.NewStudy(8, 7),
		New:   version.NewStudy(8, 8),
		Files: []string{"input/st-storage/clusters"},
		Apply: func(studyDir string) error {
			// Only studies with short term storages have this directory.
			clusters := filepath.Join(studyDir, "input", "st-storage", "clusters")
			if _, err := os.Stat(clusters); errors.Is(err, os.ErrNotExist) {
				return nil
			}
			files, err := glob(filepath.Join(clusters, "*", "list.ini"))
			if err != nil {
				return errors.Trace(err)
			}
			for _, path := range files {
				err := updateIniFile(path, func(sec *inifile.Section) error {
					sec.SetBool("enabled", true)
					return nil
				})
				if err != nil {
					return errors.Trace(err)
				}
			}
			return nil
		},
	}
}

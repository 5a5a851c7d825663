// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package upgrades

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/juju/studyversion/internal/inifile"
	"github.com/juju/studyversion/internal/matrix"
	"github.com/juju/studyversion/manifest"
	"github.com/juju/studyversion/version"
)

// stepTo90 only changes the way the version is written in the manifest,
// which the upgrader rewrites anyway.
func stepTo90() Step {
	return Step{
		Old:   version.NewStudy(8, 8),
		New:   version.NewStudy(9, 0),
		Files: []string{manifest.FileName},
		Apply: func(string) error {
			return nil
		},
	}
}

const (
	hoursPerYear = 8760
	daysPerYear  = 365
)

var (
	// defaultLinkPrepro is the daily row of a link availability
	// preprocessor: forced and planned outage rates and durations.
	defaultLinkPrepro = []float64{1, 1, 0, 0, 0, 0}

	// groupedStorageVariables are the per group short term storage
	// outputs replaced by the single "STS by group" variable.
	groupedStorageVariables = storageVariables()
)

func storageVariables() set.Strings {
	groups := []string{"psp_open", "psp_closed", "pondage", "battery", "other1", "other2", "other3", "other4", "other5"}
	outputs := []string{"injection", "withdrawal", "level"}
	vars := set.NewStrings()
	for _, g := range groups {
		for _, o := range outputs {
			vars.Add(g + "_" + o)
		}
	}
	return vars
}

// stepTo92 simplifies the adequacy patch, groups short term storage
// outputs, adds link outage models and storage costs.
func stepTo92() Step {
	return Step{
		Old:   version.NewStudy(9, 0),
		New:   version.NewStudy(9, 2),
		Files: []string{"input/st-storage", GeneralDataPath, "input/links"},
		Apply: func(studyDir string) error {
			if err := updateGeneralData(studyDir, upgradeGeneralData92); err != nil {
				return errors.Trace(err)
			}
			if err := upgradeLinks92(studyDir); err != nil {
				return errors.Trace(err)
			}
			return upgradeStorages92(studyDir)
		},
	}
}

func upgradeGeneralData92(f *inifile.File) error {
	patch := f.AddSection(sectionAdequacyPatch)
	patch.Delete("enable-first-step")
	patch.Delete("set-to-null-ntc-between-physical-out-for-first-step")
	other := f.AddSection(sectionOtherPreferences)
	other.Delete("initial-reservoir-levels")
	other.Set("hydro-pmax-format", "daily")
	f.AddSection(sectionGeneral).SetInt("nbtimeserieslinks", 1)
	if vars := f.Section(sectionVariables); vars != nil {
		return errors.Trace(groupStorageVariables(vars))
	}
	return nil
}

// groupStorageVariables replaces the per group short term storage
// variables of the thematic trimming by "STS by group".
func groupStorageVariables(vars *inifile.Section) error {
	type selection struct {
		key          string
		keep, remove []string
	}
	selections := []*selection{{key: "select_var +"}, {key: "select_var -"}}
	for _, sel := range selections {
		for _, v := range vars.List(sel.key) {
			if groupedStorageVariables.Contains(strings.ToLower(v)) {
				sel.remove = append(sel.remove, v)
			} else {
				sel.keep = append(sel.keep, v)
			}
		}
	}
	enabled, disabled := selections[0], selections[1]
	if len(enabled.remove) > 0 && len(disabled.remove) > 0 {
		return &UnexpectedThematicTrimmingFieldsError{
			Enabled:  enabled.remove,
			Disabled: disabled.remove,
		}
	}
	for _, sel := range selections {
		if len(sel.keep) > 0 {
			vars.SetList(sel.key, append(sel.keep, "STS by group"))
		}
	}
	return nil
}

func upgradeLinks92(studyDir string) error {
	areas, err := subdirs(filepath.Join(studyDir, "input", "links"))
	if err != nil {
		return errors.Trace(err)
	}
	prepro := matrix.Tile(defaultLinkPrepro, daysPerYear)
	modulation := matrix.Fill(hoursPerYear, 1, 1)
	for _, area := range areas {
		// Areas without capacities have no links.
		if _, err := os.Stat(filepath.Join(area, "capacities")); errors.Is(err, os.ErrNotExist) {
			continue
		}
		var links []string
		err := updateIniFile(filepath.Join(area, "properties.ini"), func(sec *inifile.Section) error {
			links = append(links, sec.Name())
			sec.SetInt("unitcount", 1)
			sec.SetInt("nominalcapacity", 0)
			sec.Set("law.planned", "uniform")
			sec.Set("law.forced", "uniform")
			sec.SetInt("volatility.planned", 0)
			sec.SetInt("volatility.forced", 0)
			sec.SetBool("force-no-generation", true)
			return nil
		})
		if err != nil {
			return errors.Trace(err)
		}
		dir := filepath.Join(area, "prepro")
		if err := os.Mkdir(dir, 0755); err != nil {
			return errors.Trace(err)
		}
		for _, link := range links {
			outputs := []struct {
				suffix string
				m      matrix.Matrix
			}{
				{"_direct.txt", prepro},
				{"_indirect.txt", prepro},
				{"_mod.txt", modulation},
			}
			for _, out := range outputs {
				if err := matrix.Write(filepath.Join(dir, link+out.suffix), out.m); err != nil {
					return errors.Trace(err)
				}
			}
		}
	}
	return nil
}

var storageCostMatrices = []string{"cost-injection.txt", "cost-withdrawal.txt", "cost-level.txt"}

func upgradeStorages92(studyDir string) error {
	storage := filepath.Join(studyDir, "input", "st-storage")
	files, err := glob(filepath.Join(storage, "clusters", "*", "list.ini"))
	if err != nil {
		return errors.Trace(err)
	}
	for _, path := range files {
		err := updateIniFile(path, func(sec *inifile.Section) error {
			sec.SetInt("efficiencywithdrawal", 1)
			return nil
		})
		if err != nil {
			return errors.Trace(err)
		}
	}
	areas, err := subdirs(filepath.Join(storage, "series"))
	if err != nil {
		return errors.Trace(err)
	}
	for _, area := range areas {
		storages, err := subdirs(area)
		if err != nil {
			return errors.Trace(err)
		}
		for _, dir := range storages {
			for _, name := range storageCostMatrices {
				if err := touch(filepath.Join(dir, name)); err != nil {
					return errors.Trace(err)
				}
			}
		}
	}
	return nil
}

// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package upgrades

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"

	"github.com/juju/studyversion/internal/inifile"
	"github.com/juju/studyversion/internal/matrix"
	"github.com/juju/studyversion/version"
)

// bindingConstraintTerms are the suffixes of the matrices holding the
// less than, greater than and equal terms of a binding constraint, in
// column order.
var bindingConstraintTerms = []string{"lt", "gt", "eq"}

// stepTo87 splits binding constraint matrices by term, groups binding
// constraints and adds cost properties to thermal clusters.
func stepTo87() Step {
	return Step{
		Old:                     version.NewStudy(8, 6),
		New:                     version.NewStudy(8, 7),
		Files:                   []string{"input/bindingconstraints", "input/thermal"},
		RequiresDenormalization: true,
		Apply: func(studyDir string) error {
			if err := upgradeBindingConstraints87(studyDir); err != nil {
				return errors.Trace(err)
			}
			return upgradeThermalClusters87(studyDir)
		},
	}
}

func upgradeBindingConstraints87(studyDir string) error {
	dir := filepath.Join(studyDir, "input", "bindingconstraints")
	if err := checkNoMatrixLinks(studyDir, dir); err != nil {
		return errors.Trace(err)
	}
	files, err := glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return errors.Trace(err)
	}
	for _, path := range files {
		m, err := matrix.Read(path)
		if err != nil {
			return errors.Trace(err)
		}
		name := strings.TrimSuffix(filepath.Base(path), ".txt")
		for i, term := range bindingConstraintTerms {
			target := filepath.Join(dir, name+"_"+term+".txt")
			if err := matrix.Write(target, m.Column(i)); err != nil {
				return errors.Trace(err)
			}
		}
		if err := os.Remove(path); err != nil {
			return errors.Trace(err)
		}
	}
	ini := filepath.Join(dir, "bindingconstraints.ini")
	if _, err := os.Stat(ini); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return updateIniFile(ini, func(sec *inifile.Section) error {
		sec.Set("group", "default")
		return nil
	})
}

func upgradeThermalClusters87(studyDir string) error {
	thermal := filepath.Join(studyDir, "input", "thermal")
	files, err := glob(filepath.Join(thermal, "clusters", "*", "list.ini"))
	if err != nil {
		return errors.Trace(err)
	}
	for _, path := range files {
		area := filepath.Base(filepath.Dir(path))
		err := updateIniFile(path, func(sec *inifile.Section) error {
			series := filepath.Join(thermal, "series", area, strings.ToLower(sec.Name()))
			for _, name := range []string{"CO2Cost.txt", "fuelCost.txt"} {
				if err := touch(filepath.Join(series, name)); err != nil {
					return errors.Trace(err)
				}
			}
			sec.Set("costgeneration", "SetManually")
			sec.SetInt("efficiency", 100)
			sec.SetInt("variableomcost", 0)
			return nil
		})
		if err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

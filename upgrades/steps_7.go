// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package upgrades

import (
	"github.com/juju/errors"

	"github.com/juju/studyversion/internal/inifile"
	"github.com/juju/studyversion/version"
)

// stepTo71 renames the geographic filtering setting and selects the
// default link and hydro pricing modes.
func stepTo71() Step {
	return Step{
		Old:   version.NewStudy(6, 0),
		New:   version.NewStudy(7, 1),
		Files: []string{GeneralDataPath},
		Apply: func(studyDir string) error {
			return updateGeneralData(studyDir, func(f *inifile.File) error {
				filtering, err := popKey(f, sectionGeneral, "filtering")
				if err != nil {
					return errors.Trace(err)
				}
				general := f.AddSection(sectionGeneral)
				general.Set("geographic-trimming", filtering)
				general.SetBool("thematic-trimming", false)
				f.AddSection(sectionOptimization).Set("link-type", "local")
				f.AddSection(sectionOtherPreferences).Set("hydro-pricing-mode", "fast")
				return nil
			})
		},
	}
}

// stepTo72 has nothing to change: 7.2 studies only differ by version.
func stepTo72() Step {
	return Step{
		Old: version.NewStudy(7, 1),
		New: version.NewStudy(7, 2),
		Apply: func(string) error {
			return nil
		},
	}
}

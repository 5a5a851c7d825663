// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package upgrades

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"

	"github.com/juju/studyversion/internal/matrix"
	"github.com/juju/studyversion/version"
)

// stepTo82 splits every link matrix into its parameters and its direct
// and indirect capacities.
func stepTo82() Step {
	return Step{
		Old:                     version.NewStudy(8, 1),
		New:                     version.NewStudy(8, 2),
		Files:                   []string{"input/links"},
		RequiresDenormalization: true,
		Apply: func(studyDir string) error {
			areas, err := subdirs(filepath.Join(studyDir, "input", "links"))
			if err != nil {
				return errors.Trace(err)
			}
			for _, area := range areas {
				if err := checkNoMatrixLinks(studyDir, area); err != nil {
					return errors.Trace(err)
				}
				if err := splitLinkMatrices(area); err != nil {
					return errors.Annotatef(err, "splitting links of %q", filepath.Base(area))
				}
			}
			return nil
		},
	}
}

func splitLinkMatrices(dir string) error {
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
		if err := matrix.Write(filepath.Join(dir, name+"_parameters.txt"), m.Columns(2, 8)); err != nil {
			return errors.Trace(err)
		}
		capacities := filepath.Join(dir, "capacities")
		if err := os.MkdirAll(capacities, 0755); err != nil {
			return errors.Trace(err)
		}
		if err := matrix.Write(filepath.Join(capacities, name+"_direct.txt"), m.Column(0)); err != nil {
			return errors.Trace(err)
		}
		if err := matrix.Write(filepath.Join(capacities, name+"_indirect.txt"), m.Column(1)); err != nil {
			return errors.Trace(err)
		}
		if err := os.Remove(path); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

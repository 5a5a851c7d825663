// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package upgrades

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/utils/v4/fs"

	"github.com/juju/studyversion/manifest"
	"github.com/juju/studyversion/version"
)

const (
	// TemporaryDirPrefix and TemporaryDirSuffix surround the name of the
	// staging directory holding the backup of a study during an upgrade.
	TemporaryDirPrefix = "~"
	TemporaryDirSuffix = ".upgrade.tmp"
)

// Logger is the logging interface used by the upgrader.
type Logger interface {
	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Warningf(string, ...interface{})
	Errorf(string, ...interface{})
}

// UpgraderConfig holds the dependencies of an Upgrader.
type UpgraderConfig struct {
	Resolver StepResolver
	Clock    clock.Clock
	Logger   Logger

	// Abort, if not nil, interrupts the upgrade before the next step
	// runs once it is closed. The study is then restored.
	Abort <-chan struct{}
}

// Validate returns an error if the config cannot be used.
func (config UpgraderConfig) Validate() error {
	if config.Resolver == nil {
		return errors.NotValidf("nil Resolver")
	}
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

// Upgrader upgrades studies in place. When an upgrade fails, the files the
// steps may have modified are restored.
//
// The upgrader expects exclusive access to the study while it runs.
type Upgrader struct {
	config UpgraderConfig
}

// NewUpgrader returns an Upgrader with the given config.
func NewUpgrader(config UpgraderConfig) (*Upgrader, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Upgrader{config: config}, nil
}

// Plan describes the upgrade of a study.
type Plan struct {
	StudyDir string
	Manifest *manifest.Manifest
	Target   version.Number
	Steps    []Step
	// Files are the paths backed up before the steps run, relative to
	// the study directory.
	Files []string
}

// RequiresDenormalization reports whether any step needs the study
// matrices to be resolved first.
func (p *Plan) RequiresDenormalization() bool {
	for _, step := range p.Steps {
		if step.RequiresDenormalization {
			return true
		}
	}
	return false
}

// Plan reads the study and resolves the steps upgrading it to target. The
// study is not modified.
func (u *Upgrader) Plan(studyDir string, target version.Number) (*Plan, error) {
	info, err := os.Stat(studyDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.NotFoundf("study directory %q", studyDir)
	} else if err != nil {
		return nil, errors.Trace(err)
	} else if !info.IsDir() {
		return nil, errors.NotValidf("study directory %q", studyDir)
	}
	m, err := manifest.Read(studyDir, u.config.Clock)
	if err != nil {
		return nil, errors.Trace(err)
	}
	target = target.Study()
	steps, err := u.config.Resolver.ResolveRange(m.Version, target)
	if err != nil {
		return nil, errors.Trace(err)
	}
	files := set.NewStrings(manifest.FileName)
	for _, step := range steps {
		files = files.Union(set.NewStrings(step.Files...))
	}
	return &Plan{
		StudyDir: studyDir,
		Manifest: m,
		Target:   target,
		Steps:    steps,
		Files:    FilterOutChildFiles(files.Values()),
	}, nil
}

// Upgrade upgrades the study in studyDir to the target version. If a step
// or the manifest update fails, every backed up file is put back and the
// error is returned. If putting the files back fails too, a *RestoreError
// is returned and the backup is left on disk.
func (u *Upgrader) Upgrade(studyDir string, target version.Number) error {
	plan, err := u.Plan(studyDir, target)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(u.Apply(plan))
}

// Apply runs a plan returned by Plan.
func (u *Upgrader) Apply(plan *Plan) error {
	logger := u.config.Logger
	studyDir, err := filepath.Abs(plan.StudyDir)
	if err != nil {
		return errors.Trace(err)
	}
	staging, err := os.MkdirTemp(filepath.Dir(studyDir), TemporaryDirPrefix+"*"+TemporaryDirSuffix)
	if err != nil {
		return errors.Annotate(err, "creating staging directory")
	}
	keepStaging := false
	defer func() {
		if keepStaging {
			return
		}
		if rmErr := os.RemoveAll(staging); rmErr != nil {
			logger.Warningf("cannot remove staging directory %q: %v", staging, rmErr)
		}
	}()

	backup, err := u.backup(studyDir, staging, plan.Files)
	if err != nil {
		// The study has not been modified yet; only the partial copies
		// in the staging directory must go.
		return errors.Annotate(err, "backing up study")
	}

	if err := u.apply(studyDir, plan); err != nil {
		logger.Errorf("upgrade of %q failed, restoring study: %v", studyDir, err)
		if restoreErrs := u.restore(studyDir, staging, backup); len(restoreErrs) > 0 {
			keepStaging = true
			return &RestoreError{Err: err, Restore: restoreErrs, Staging: staging}
		}
		return errors.Trace(err)
	}
	logger.Infof("study %q upgraded to v%s", studyDir, plan.Target.MustFormat("2d"))
	return nil
}

func (u *Upgrader) apply(studyDir string, plan *Plan) error {
	for _, step := range plan.Steps {
		select {
		case <-u.config.Abort:
			return errors.Annotatef(ErrInterrupted, "before %s", step.Description())
		default:
		}
		u.config.Logger.Infof("running %s", step.Description())
		if err := step.Apply(studyDir); err != nil {
			return &stepError{description: step.Description(), err: err}
		}
	}
	m := *plan.Manifest
	m.Version = plan.Target
	m.Touch(u.config.Clock.Now())
	if err := m.Write(studyDir); err != nil {
		return errors.Annotate(err, "updating study manifest")
	}
	return nil
}

// backupSet records which entries of the backup set were copied, and which
// did not exist before the upgrade.
type backupSet struct {
	copied  []string
	missing []string
}

func (u *Upgrader) backup(studyDir, staging string, files []string) (backupSet, error) {
	var b backupSet
	for _, rel := range files {
		src := filepath.Join(studyDir, filepath.FromSlash(rel))
		if _, err := os.Lstat(src); errors.Is(err, os.ErrNotExist) {
			u.config.Logger.Debugf("nothing to back up at %q", rel)
			b.missing = append(b.missing, rel)
			continue
		} else if err != nil {
			return b, errors.Trace(err)
		}
		dst := filepath.Join(staging, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return b, errors.Trace(err)
		}
		if err := fs.Copy(src, dst); err != nil {
			return b, errors.Annotatef(err, "copying %q", rel)
		}
		b.copied = append(b.copied, rel)
	}
	return b, nil
}

// restore swaps every live entry with its backed up copy, going through a
// disposable sibling path so that the entry is never missing. Entries that
// did not exist before the upgrade are removed. It carries on after a
// failure and returns every error.
func (u *Upgrader) restore(studyDir, staging string, b backupSet) []error {
	var errs []error
	parent := filepath.Dir(studyDir)
	for k, rel := range b.copied {
		if err := swap(parent, filepath.Join(studyDir, filepath.FromSlash(rel)), filepath.Join(staging, filepath.FromSlash(rel)), k); err != nil {
			errs = append(errs, errors.Annotatef(err, "restoring %q", rel))
		}
	}
	for _, rel := range b.missing {
		if err := os.RemoveAll(filepath.Join(studyDir, filepath.FromSlash(rel))); err != nil {
			errs = append(errs, errors.Annotatef(err, "removing %q", rel))
		}
	}
	return errs
}

func swap(parent, live, staged string, k int) error {
	disposable, err := os.MkdirTemp(parent, fmt.Sprintf("%s*.backup_%d.tmp", TemporaryDirPrefix, k))
	if err != nil {
		return errors.Trace(err)
	}
	if err := os.Remove(disposable); err != nil {
		return errors.Trace(err)
	}
	moved := true
	if err := os.Rename(live, disposable); errors.Is(err, os.ErrNotExist) {
		moved = false
	} else if err != nil {
		return errors.Trace(err)
	}
	if err := os.Rename(staged, live); err != nil {
		if moved {
			// Put the upgraded entry back rather than leave a hole.
			_ = os.Rename(disposable, live)
		}
		return errors.Trace(err)
	}
	if moved {
		return errors.Trace(os.RemoveAll(disposable))
	}
	return nil
}

// FilterOutChildFiles sorts the slash separated paths and drops
// duplicates and every path lying inside another path of the list.
func FilterOutChildFiles(files []string) []string {
	paths := make([][]string, 0, len(files))
	for _, f := range files {
		clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(f)))
		paths = append(paths, strings.Split(clean, "/"))
	}
	sort.Slice(paths, func(i, j int) bool {
		return lessParts(paths[i], paths[j])
	})
	var kept []string
	for _, parts := range paths {
		p := strings.Join(parts, "/")
		if len(kept) > 0 {
			last := kept[len(kept)-1]
			if p == last || strings.HasPrefix(p, last+"/") {
				continue
			}
		}
		kept = append(kept, p)
	}
	return kept
}

// lessParts orders paths component by component so that a directory is
// immediately followed by its content.
func lessParts(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// IsTemporaryUpgradeDir reports whether path is a staging directory left by
// an upgrade.
func IsTemporaryUpgradeDir(path string) bool {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, TemporaryDirPrefix) || !strings.HasSuffix(name, TemporaryDirSuffix) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

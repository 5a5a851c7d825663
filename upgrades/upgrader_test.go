// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package upgrades_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	jujutesting "github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	ft "github.com/juju/testing/filetesting"
	"go.uber.org/mock/gomock"
	gc "gopkg.in/check.v1"

	"github.com/juju/studyversion/internal/inifile"
	"github.com/juju/studyversion/manifest"
	"github.com/juju/studyversion/upgrades"
	"github.com/juju/studyversion/version"
)

type upgraderSuite struct {
	jujutesting.IsolationSuite
	clock *testclock.Clock
	root  string
	study string
}

var _ = gc.Suite(&upgraderSuite{})

var now = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func (s *upgraderSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.clock = testclock.NewClock(now)
	s.root = c.MkDir()
	s.study = filepath.Join(s.root, "study")
}

func manifestData(v string) string {
	return "[antares]\ncaption = Test\nversion = " + v + "\ncreated = 1246524135\nlastsave = 1686128483\nauthor = Jane\n"
}

// createStudy creates a study at the given manifest version holding the
// given entries.
func (s *upgraderSuite) createStudy(c *gc.C, v string, entries ...ft.Entry) ft.Entries {
	all := append(ft.Entries{
		ft.Dir{"study", 0755},
		ft.File{"study/study.antares", manifestData(v), 0644},
	}, entries...)
	return all.Create(c, s.root)
}

func (s *upgraderSuite) newUpgrader(c *gc.C, resolver upgrades.StepResolver) *upgrades.Upgrader {
	u, err := upgrades.NewUpgrader(upgrades.UpgraderConfig{
		Resolver: resolver,
		Clock:    s.clock,
		Logger:   loggo.GetLogger("test"),
	})
	c.Assert(err, jc.ErrorIsNil)
	return u
}

func (s *upgraderSuite) assertNoTemporaryDirs(c *gc.C) {
	entries, err := os.ReadDir(s.root)
	c.Assert(err, jc.ErrorIsNil)
	for _, e := range entries {
		c.Check(e.Name(), gc.Equals, "study")
	}
}

func (s *upgraderSuite) TestConfigValidate(c *gc.C) {
	config := upgrades.UpgraderConfig{
		Resolver: upgrades.DefaultRegistry(),
		Clock:    s.clock,
		Logger:   loggo.GetLogger("test"),
	}
	c.Check(config.Validate(), jc.ErrorIsNil)

	noResolver := config
	noResolver.Resolver = nil
	_, err := upgrades.NewUpgrader(noResolver)
	c.Check(err, gc.ErrorMatches, "nil Resolver not valid")

	noClock := config
	noClock.Clock = nil
	c.Check(noClock.Validate(), gc.ErrorMatches, "nil Clock not valid")

	noLogger := config
	noLogger.Logger = nil
	c.Check(noLogger.Validate(), jc.ErrorIs, errors.NotValid)
}

func (s *upgraderSuite) TestUpgrade60To71(c *gc.C) {
	s.createStudy(c, "600",
		ft.Dir{"study/settings", 0755},
		ft.File{"study/settings/generaldata.ini", `[general]
mode = Economy
filtering = true

[optimization]
include-constraints = true

[other preferences]
power-fluctuations = free modulations
`, 0644},
	)
	u := s.newUpgrader(c, upgrades.DefaultRegistry())
	err := u.Upgrade(s.study, version.NewStudy(7, 1))
	c.Assert(err, jc.ErrorIsNil)

	f, err := inifile.Read(filepath.Join(s.study, upgrades.GeneralDataPath))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(f.Map(), jc.DeepEquals, map[string]map[string][]string{
		"general": {
			"mode":                {"Economy"},
			"geographic-trimming": {"true"},
			"thematic-trimming":   {"false"},
		},
		"optimization": {
			"include-constraints": {"true"},
			"link-type":           {"local"},
		},
		"other preferences": {
			"power-fluctuations": {"free modulations"},
			"hydro-pricing-mode": {"fast"},
		},
	})

	m, err := manifest.Read(s.study, s.clock)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m.Version, gc.Equals, version.NewStudy(7, 1))
	c.Check(m.LastSave, gc.Equals, now)
	c.Check(m.Created, gc.Equals, time.Unix(1246524135, 0).UTC())
	c.Check(m.Caption, gc.Equals, "Test")
	s.assertNoTemporaryDirs(c)
}

func (s *upgraderSuite) TestUpgradeToLatest(c *gc.C) {
	s.createStudy(c, "880")
	u := s.newUpgrader(c, upgrades.DefaultRegistry())
	s.createGeneralData92(c)
	err := u.Upgrade(s.study, upgrades.DefaultRegistry().Latest())
	c.Assert(err, jc.ErrorIsNil)

	data, err := os.ReadFile(filepath.Join(s.study, manifest.FileName))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), jc.Contains, "version = 9.2\n")
	s.assertNoTemporaryDirs(c)
}

func (s *upgraderSuite) createGeneralData92(c *gc.C) {
	ft.Entries{
		ft.Dir{"study/settings", 0755},
		ft.File{"study/settings/generaldata.ini", "[general]\nnbyears = 1\n", 0644},
	}.Create(c, s.root)
}

func (s *upgraderSuite) TestUpgradeLinkErrorRestores(c *gc.C) {
	entries := s.createStudy(c, "810",
		ft.Dir{"study/input/links/de", 0755},
		ft.File{"study/input/links/de/fr.txt", "1\t2\t3\t4\t5\t6\t7\t8\n", 0644},
		ft.Dir{"study/input/links/fr", 0755},
		ft.File{"study/input/links/fr/it.txt.link", "matrix://123\n", 0644},
	)
	u := s.newUpgrader(c, upgrades.DefaultRegistry())
	err := u.Upgrade(s.study, version.NewStudy(8, 2))
	c.Assert(err, gc.ErrorMatches, `Upgrade Study v8.1 -> v8.2: Found unexpected 'input/links/fr/it.txt.link' file in the directory\..*`)
	c.Check(err, jc.ErrorIs, upgrades.ErrStepPrecondition)

	var linksErr *upgrades.UnexpectedMatrixLinksError
	c.Assert(errors.As(err, &linksErr), jc.IsTrue)
	c.Check(linksErr.Path, gc.Equals, "input/links/fr/it.txt.link")

	// The area processed before the failure is back to its original state.
	entries.Check(c, s.root)
	ft.Removed{"study/input/links/de/fr_parameters.txt"}.Check(c, s.root)
	ft.Removed{"study/input/links/de/capacities"}.Check(c, s.root)
	s.assertNoTemporaryDirs(c)
}

// failingChain returns a chain whose last step fails after the first
// one modified the study.
func failingChain(failure error) []upgrades.Step {
	return []upgrades.Step{{
		Old:   version.NewStudy(8, 0),
		New:   version.NewStudy(8, 1),
		Files: []string{"input/a", "input/new"},
		Apply: func(studyDir string) error {
			if err := os.WriteFile(filepath.Join(studyDir, "input", "a", "one.txt"), []byte("changed"), 0644); err != nil {
				return err
			}
			if err := os.Remove(filepath.Join(studyDir, "input", "a", "two.txt")); err != nil {
				return err
			}
			return os.MkdirAll(filepath.Join(studyDir, "input", "new", "dir"), 0755)
		},
	}, {
		Old:   version.NewStudy(8, 1),
		New:   version.NewStudy(8, 2),
		Files: []string{"input/a/one.txt"},
		Apply: func(studyDir string) error {
			return failure
		},
	}}
}

func (s *upgraderSuite) TestUpgradeIsAtomic(c *gc.C) {
	entries := s.createStudy(c, "800",
		ft.Dir{"study/input/a", 0755},
		ft.File{"study/input/a/one.txt", "one", 0644},
		ft.File{"study/input/a/two.txt", "two", 0644},
		ft.File{"study/input/untouched.txt", "same", 0644},
	)
	failure := errors.New("boom")

	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	resolver := NewMockStepResolver(ctrl)
	resolver.EXPECT().ResolveRange(version.NewStudy(8, 0), version.NewStudy(8, 2)).Return(failingChain(failure), nil)

	u := s.newUpgrader(c, resolver)
	err := u.Upgrade(s.study, version.New(8, 2, 3))
	c.Assert(err, gc.ErrorMatches, `Upgrade Study v8.1 -> v8.2: boom`)
	c.Check(errors.Is(err, failure), jc.IsTrue)

	entries.Check(c, s.root)
	ft.Removed{"study/input/new"}.Check(c, s.root)
	s.assertNoTemporaryDirs(c)
}

func (s *upgraderSuite) TestUpgradeManifestWriteFailureRestores(c *gc.C) {
	entries := s.createStudy(c, "880",
		ft.Dir{"study/input", 0755},
		ft.File{"study/input/data.txt", "old", 0644},
	)
	steps := []upgrades.Step{{
		Old:   version.NewStudy(8, 8),
		New:   version.NewStudy(9, 0),
		Files: []string{"input/data.txt"},
		Apply: func(studyDir string) error {
			if err := os.WriteFile(filepath.Join(studyDir, "input", "data.txt"), []byte("new"), 0644); err != nil {
				return err
			}
			// The manifest can no longer be replaced by a file.
			path := filepath.Join(studyDir, manifest.FileName)
			if err := os.Remove(path); err != nil {
				return err
			}
			return os.Mkdir(path, 0755)
		},
	}}

	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	resolver := NewMockStepResolver(ctrl)
	resolver.EXPECT().ResolveRange(version.NewStudy(8, 8), version.NewStudy(9, 0)).Return(steps, nil)

	u := s.newUpgrader(c, resolver)
	err := u.Upgrade(s.study, version.NewStudy(9, 0))
	c.Assert(err, gc.ErrorMatches, `(?s).*updating study manifest.*`)

	entries.Check(c, s.root)
	m, err := manifest.Read(s.study, s.clock)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m.Version, gc.Equals, version.NewStudy(8, 8))
	s.assertNoTemporaryDirs(c)
}

func (s *upgraderSuite) TestRestoreFailureKeepsBoth(c *gc.C) {
	s.createStudy(c, "800",
		ft.Dir{"study/input/a", 0755},
		ft.File{"study/input/a/one.txt", "one", 0644},
	)
	failure := errors.New("boom")
	steps := []upgrades.Step{{
		Old:   version.NewStudy(8, 0),
		New:   version.NewStudy(8, 1),
		Files: []string{"input/a"},
		Apply: func(studyDir string) error {
			// Lose the backup of input/a.
			staging, err := filepath.Glob(filepath.Join(filepath.Dir(studyDir), "~*.upgrade.tmp"))
			if err != nil || len(staging) != 1 {
				return errors.Errorf("staging directory not found: %v", staging)
			}
			if err := os.RemoveAll(filepath.Join(staging[0], "input")); err != nil {
				return err
			}
			return failure
		},
	}}

	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	resolver := NewMockStepResolver(ctrl)
	resolver.EXPECT().ResolveRange(gomock.Any(), gomock.Any()).Return(steps, nil)

	u := s.newUpgrader(c, resolver)
	err := u.Upgrade(s.study, version.NewStudy(8, 1))
	c.Assert(err, gc.NotNil)

	var restoreErr *upgrades.RestoreError
	c.Assert(errors.As(err, &restoreErr), jc.IsTrue)
	c.Check(errors.Is(err, failure), jc.IsTrue)
	c.Check(restoreErr.Restore, gc.HasLen, 1)
	c.Check(restoreErr.Restore[0], gc.ErrorMatches, `restoring "input/a": .*`)
	c.Check(upgrades.IsTemporaryUpgradeDir(restoreErr.Staging), jc.IsTrue)

	// The live entry is left as the step made it.
	ft.File{"study/input/a/one.txt", "one", 0644}.Check(c, s.root)
}

func (s *upgraderSuite) TestPlan(c *gc.C) {
	s.createStudy(c, "810")
	u := s.newUpgrader(c, upgrades.DefaultRegistry())
	plan, err := u.Plan(s.study, version.New(8, 3, 1))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(plan.Target, gc.Equals, version.NewStudy(8, 3))
	c.Check(plan.Steps, gc.HasLen, 2)
	c.Check(plan.RequiresDenormalization(), jc.IsTrue)
	c.Check(plan.Files, jc.DeepEquals, []string{
		"input/areas",
		"input/links",
		"settings/generaldata.ini",
		"study.antares",
	})

	plan, err = u.Plan(s.study, version.NewStudy(8, 1))
	c.Check(err, gc.ErrorMatches, `Your study is already in version '8.1'`)
	c.Check(plan, gc.IsNil)
}

func (s *upgraderSuite) TestPlanRequiresDenormalization(c *gc.C) {
	s.createStudy(c, "860")
	u := s.newUpgrader(c, upgrades.DefaultRegistry())
	plan, err := u.Plan(s.study, version.NewStudy(9, 0))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(plan.RequiresDenormalization(), jc.IsTrue)

	plan, err = u.Plan(s.study, version.NewStudy(8, 7))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(plan.RequiresDenormalization(), jc.IsTrue)

	s.createStudy(c, "870")
	plan, err = u.Plan(s.study, version.NewStudy(9, 2))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(plan.RequiresDenormalization(), jc.IsFalse)
}

func (s *upgraderSuite) TestPlanErrorsLeaveStudyUntouched(c *gc.C) {
	entries := s.createStudy(c, "900")
	u := s.newUpgrader(c, upgrades.DefaultRegistry())
	err := u.Upgrade(s.study, version.NewStudy(8, 8))
	c.Check(err, jc.ErrorIs, upgrades.ErrDowngrade)
	entries.Check(c, s.root)
	s.assertNoTemporaryDirs(c)
}

func (s *upgraderSuite) TestPlanMissingStudy(c *gc.C) {
	u := s.newUpgrader(c, upgrades.DefaultRegistry())
	_, err := u.Plan(s.study, version.NewStudy(8, 8))
	c.Check(err, jc.ErrorIs, errors.NotFound)
	c.Check(err, gc.ErrorMatches, `study directory ".*study" not found`)
}

func (s *upgraderSuite) TestPlanInvalidManifest(c *gc.C) {
	ft.Entries{
		ft.Dir{"study", 0755},
		ft.File{"study/study.antares", "[antares]\nversion = x\n", 0644},
	}.Create(c, s.root)
	u := s.newUpgrader(c, upgrades.DefaultRegistry())
	_, err := u.Plan(s.study, version.NewStudy(8, 8))
	c.Check(err, jc.ErrorIs, errors.NotValid)
	c.Check(err, gc.ErrorMatches, `(?s)Invalid 'study.antares' file: 5 invalid fields.*`)
}

func (s *upgraderSuite) TestFilterOutChildFiles(c *gc.C) {
	for i, test := range []struct {
		files  []string
		expect []string
	}{
		{nil, nil},
		{[]string{"a", "a/b", "a/b/c"}, []string{"a"}},
		{[]string{"a/b/c", "a/b", "a"}, []string{"a"}},
		{[]string{"x/1.txt", "x/2.txt"}, []string{"x/1.txt", "x/2.txt"}},
		{[]string{"a", "a"}, []string{"a"}},
		{[]string{"a-c", "a/b", "a"}, []string{"a", "a-c"}},
		{[]string{"input/links", "input", "study.antares", "./settings/generaldata.ini"},
			[]string{"input", "settings/generaldata.ini", "study.antares"}},
		{[]string{"ab/c", "a"}, []string{"a", "ab/c"}},
	} {
		c.Logf("test %d: %v", i, test.files)
		c.Check(upgrades.FilterOutChildFiles(test.files), jc.DeepEquals, test.expect)
	}
}

func (s *upgraderSuite) TestIsTemporaryUpgradeDir(c *gc.C) {
	ft.Entries{
		ft.Dir{"~study123.upgrade.tmp", 0755},
		ft.File{"~file.upgrade.tmp", "", 0644},
		ft.Dir{"study.upgrade.tmp", 0755},
		ft.Dir{"~study.tmp", 0755},
	}.Create(c, s.root)
	c.Check(upgrades.IsTemporaryUpgradeDir(filepath.Join(s.root, "~study123.upgrade.tmp")), jc.IsTrue)
	c.Check(upgrades.IsTemporaryUpgradeDir(filepath.Join(s.root, "~file.upgrade.tmp")), jc.IsFalse)
	c.Check(upgrades.IsTemporaryUpgradeDir(filepath.Join(s.root, "study.upgrade.tmp")), jc.IsFalse)
	c.Check(upgrades.IsTemporaryUpgradeDir(filepath.Join(s.root, "~study.tmp")), jc.IsFalse)
	c.Check(upgrades.IsTemporaryUpgradeDir(filepath.Join(s.root, "~missing.upgrade.tmp")), jc.IsFalse)
}

func (s *upgraderSuite) TestUpgradeAborted(c *gc.C) {
	entries := s.createStudy(c, "600",
		ft.Dir{"study/settings", 0755},
		ft.File{"study/settings/generaldata.ini", "[general]\nmode = Economy\nfiltering = true\n", 0644},
	)
	abort := make(chan struct{})
	close(abort)
	u, err := upgrades.NewUpgrader(upgrades.UpgraderConfig{
		Resolver: upgrades.DefaultRegistry(),
		Clock:    s.clock,
		Logger:   loggo.GetLogger("test"),
		Abort:    abort,
	})
	c.Assert(err, jc.ErrorIsNil)

	err = u.Upgrade(s.study, version.NewStudy(7, 2))
	c.Check(err, gc.ErrorMatches, `before Upgrade Study v6.0 -> v7.1: upgrade interrupted`)
	c.Check(err, jc.ErrorIs, upgrades.ErrInterrupted)
	entries.Check(c, s.root)
	s.assertNoTemporaryDirs(c)
}

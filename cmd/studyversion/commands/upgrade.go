// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/juju/clock"
	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/mutex/v2"

	"github.com/juju/studyversion/upgrades"
	"github.com/juju/studyversion/version"
)

const defaultLockTimeout = time.Minute

const upgradeDoc = `
Upgrades a study in place to the requested version, which defaults to the
latest known version. The upgrade goes through every intermediate version.

The files an upgrade modifies are backed up first and put back if any step
fails or the command is interrupted, so the study is either fully upgraded
or left untouched. Only one upgrade of a given study can run at a time.
`

const upgradeExamples = `
    antares-study-version upgrade ./my-study
    antares-study-version upgrade ./my-study --version 8.8
`

type upgradeCommand struct {
	cmd.CommandBase

	registry *upgrades.Registry
	clock    clock.Clock

	studyDir    string
	versionArg  string
	target      version.Number
	lockTimeout time.Duration
}

// NewUpgradeCommand returns a command upgrading a study.
func NewUpgradeCommand() cmd.Command {
	return &upgradeCommand{
		registry: upgrades.DefaultRegistry(),
		clock:    clock.WallClock,
	}
}

// Info implements cmd.Command.
func (c *upgradeCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:     "upgrade",
		Args:     "<study-dir>",
		Purpose:  "Upgrade a study to a new version.",
		Doc:      upgradeDoc,
		Examples: upgradeExamples,
		SeeAlso:  []string{"show"},
	}
}

// SetFlags implements cmd.Command.
func (c *upgradeCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.versionArg, "version", "", "Version to upgrade the study to (defaults to the latest version)")
	f.DurationVar(&c.lockTimeout, "lock-timeout", defaultLockTimeout, "How long to wait for another upgrade of the study to finish")
}

// Init implements cmd.Command.
func (c *upgradeCommand) Init(args []string) (err error) {
	c.studyDir, args, err = studyDirArg(args)
	if err != nil {
		return err
	}
	c.target = c.registry.Latest()
	if c.versionArg != "" {
		if c.target, err = version.ParseStudy(c.versionArg); err != nil {
			return errors.Trace(err)
		}
	}
	if c.lockTimeout <= 0 {
		return errors.NotValidf("lock timeout %v", c.lockTimeout)
	}
	return cmd.CheckEmpty(args)
}

// Run implements cmd.Command.
func (c *upgradeCommand) Run(ctx *cmd.Context) error {
	dir := ctx.AbsPath(c.studyDir)

	signals := make(chan os.Signal, 1)
	ctx.InterruptNotify(signals)
	defer ctx.StopInterruptNotify(signals)
	abort := make(chan struct{})
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-signals:
			close(abort)
		case <-done:
		}
	}()

	releaser, err := acquireStudyLock(dir, c.lockTimeout, abort)
	if errors.Is(err, mutex.ErrCancelled) {
		return interrupted(ctx)
	} else if err != nil {
		return errors.Trace(err)
	}
	defer releaser.Release()

	u, err := upgrades.NewUpgrader(upgrades.UpgraderConfig{
		Resolver: c.registry,
		Clock:    c.clock,
		Logger:   logger,
		Abort:    abort,
	})
	if err != nil {
		return errors.Trace(err)
	}
	plan, err := u.Plan(dir, c.target)
	if err != nil {
		return errors.Trace(err)
	}
	if plan.RequiresDenormalization() {
		ctx.Verbosef("The study matrices must not contain links for this upgrade.")
	}
	ctx.Infof("Upgrading study '%s' from v%s to v%s...",
		plan.Manifest.Caption, plan.Manifest.Version.MustFormat("2d"), plan.Target.MustFormat("2d"))

	err = u.Apply(plan)
	var restoreErr *upgrades.RestoreError
	if errors.Is(err, upgrades.ErrInterrupted) && !errors.As(err, &restoreErr) {
		return interrupted(ctx)
	} else if err != nil {
		return errors.Trace(err)
	}
	fmt.Fprintf(ctx.Stdout, "Study '%s' upgraded to v%s.\n", plan.Manifest.Caption, plan.Target.MustFormat("2d"))
	return nil
}

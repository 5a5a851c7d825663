// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gosuri/uitable"
	"github.com/juju/clock"
	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/juju/studyversion/manifest"
	"github.com/juju/studyversion/upgrades"
)

const showDoc = `
Displays the details of a study: caption, version, creation and last save
dates, author, and the versions the study can be upgraded to.
`

const showExamples = `
    antares-study-version show ./my-study
    antares-study-version show ./my-study --format yaml
`

const timeLayout = "2006-01-02 15:04:05"

// StudyInfo is the output of the show command.
type StudyInfo struct {
	Caption           string    `yaml:"caption" json:"caption"`
	Version           string    `yaml:"version" json:"version"`
	Created           time.Time `yaml:"created" json:"created"`
	LastSave          time.Time `yaml:"last-save" json:"last-save"`
	Author            string    `yaml:"author" json:"author"`
	AvailableUpgrades []string  `yaml:"available-upgrades" json:"available-upgrades"`
}

type showCommand struct {
	cmd.CommandBase
	out cmd.Output

	registry *upgrades.Registry
	clock    clock.Clock

	studyDir string
}

// NewShowCommand returns a command displaying the details of a study.
func NewShowCommand() cmd.Command {
	return &showCommand{
		registry: upgrades.DefaultRegistry(),
		clock:    clock.WallClock,
	}
}

// Info implements cmd.Command.
func (c *showCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:     "show",
		Args:     "<study-dir>",
		Purpose:  "Display the details of a study.",
		Doc:      showDoc,
		Examples: showExamples,
		SeeAlso:  []string{"upgrade"},
	}
}

// SetFlags implements cmd.Command.
func (c *showCommand) SetFlags(f *gnuflag.FlagSet) {
	c.out.AddFlags(f, "tabular", map[string]cmd.Formatter{
		"yaml":    cmd.FormatYaml,
		"json":    cmd.FormatJson,
		"tabular": formatStudyTabular,
	})
}

// Init implements cmd.Command.
func (c *showCommand) Init(args []string) (err error) {
	c.studyDir, args, err = studyDirArg(args)
	if err != nil {
		return err
	}
	return cmd.CheckEmpty(args)
}

// Run implements cmd.Command.
func (c *showCommand) Run(ctx *cmd.Context) error {
	dir := ctx.AbsPath(c.studyDir)
	if info, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return errors.NotFoundf("study directory %q", dir)
	} else if err != nil {
		return errors.Trace(err)
	} else if !info.IsDir() {
		return errors.NotValidf("study directory %q", dir)
	}
	m, err := manifest.Read(dir, c.clock)
	if err != nil {
		return errors.Trace(err)
	}
	info := StudyInfo{
		Caption:  m.Caption,
		Version:  m.Version.MustFormat("2d"),
		Created:  m.Created,
		LastSave: m.LastSave,
		Author:   m.Author,
	}
	for _, v := range c.registry.Targets(m.Version) {
		info.AvailableUpgrades = append(info.AvailableUpgrades, v.MustFormat("2d"))
	}
	return c.out.Write(ctx, info)
}

func formatStudyTabular(writer io.Writer, value interface{}) error {
	info, ok := value.(StudyInfo)
	if !ok {
		return errors.Errorf("expected value of type %T, got %T", info, value)
	}
	available := "None"
	if len(info.AvailableUpgrades) > 0 {
		available = "v" + strings.Join(info.AvailableUpgrades, ", v")
	}
	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true
	table.AddRow("Caption:", info.Caption)
	table.AddRow("Version:", "v"+info.Version)
	table.AddRow("Created:", info.Created.UTC().Format(timeLayout))
	table.AddRow("Last Save:", info.LastSave.UTC().Format(timeLayout))
	table.AddRow("Author:", info.Author)
	table.AddRow("Available Upgrades:", available)
	_, err := fmt.Fprintln(writer, table)
	return errors.Trace(err)
}

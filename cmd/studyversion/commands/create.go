// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/juju/clock"
	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/juju/studyversion/osenv"
	"github.com/juju/studyversion/templates"
	"github.com/juju/studyversion/version"
)

const (
	defaultCaption = "New Study"
	defaultAuthor  = "Anonymous"
)

const createDoc = `
Creates a new study in the given directory from the template archive of the
requested version. The directory must not exist.

Template archives are read from the directory given by --templates, which
defaults to $` + osenv.TemplatesEnvKey + ` or to the resources directory installed
next to the executable. The latest template version is used unless
--version is given.
`

const createExamples = `
    antares-study-version create ./my-study
    antares-study-version create ./my-study -c "My Study" -a "Jane" --version 8.8
    antares-study-version create --versions
`

type createCommand struct {
	cmd.CommandBase

	clock        clock.Clock
	templatesDir string

	studyDir     string
	caption      string
	author       string
	versionArg   string
	listVersions bool
}

// NewCreateCommand returns a command creating a study from a template.
func NewCreateCommand() cmd.Command {
	return &createCommand{
		clock:        clock.WallClock,
		templatesDir: osenv.TemplatesDir(),
	}
}

// Info implements cmd.Command.
func (c *createCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:     "create",
		Args:     "<study-dir>",
		Purpose:  "Create a new study.",
		Doc:      createDoc,
		Examples: createExamples,
		SeeAlso:  []string{"show"},
	}
}

// SetFlags implements cmd.Command.
func (c *createCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.caption, "c", defaultCaption, "Caption of the study")
	f.StringVar(&c.caption, "caption", defaultCaption, "")
	f.StringVar(&c.author, "a", defaultAuthor, "Author of the study")
	f.StringVar(&c.author, "author", defaultAuthor, "")
	f.StringVar(&c.versionArg, "version", "", "Version of the study to create (defaults to the latest template)")
	f.BoolVar(&c.listVersions, "versions", false, "Display all available versions and quit")
	f.StringVar(&c.templatesDir, "templates", c.templatesDir, "Directory holding the template archives")
}

// Init implements cmd.Command.
func (c *createCommand) Init(args []string) (err error) {
	if c.listVersions {
		return cmd.CheckEmpty(args)
	}
	c.studyDir, args, err = studyDirArg(args)
	if err != nil {
		return err
	}
	if c.versionArg != "" {
		if _, err := version.ParseStudy(c.versionArg); err != nil {
			return errors.Trace(err)
		}
	}
	return cmd.CheckEmpty(args)
}

// Run implements cmd.Command.
func (c *createCommand) Run(ctx *cmd.Context) error {
	available, err := templates.Load(c.templatesDir)
	if err != nil {
		return errors.Trace(err)
	}
	if c.listVersions {
		fmt.Fprintf(ctx.Stdout, "Available versions: %s\n", strings.Join(available.Names(), ", "))
		return nil
	}

	v := available.Latest()
	if c.versionArg != "" {
		v = version.MustParseStudy(c.versionArg)
	}
	archive, err := available.Archive(v)
	if err != nil {
		return errors.Trace(err)
	}
	if info, err := os.Stat(archive); err == nil {
		ctx.Verbosef("Template %s is %s.", filepath.Base(archive), humanize.Bytes(uint64(info.Size())))
	}

	m, err := available.Create(templates.CreateParams{
		StudyDir: ctx.AbsPath(c.studyDir),
		Caption:  c.caption,
		Author:   c.author,
		Version:  v,
		Clock:    c.clock,
		Progress: func(msg string) {
			ctx.Infof("%s", msg)
		},
	})
	if err != nil {
		return errors.Trace(err)
	}
	fmt.Fprintf(ctx.Stdout, "Study '%s' created successfully.\n", m.Caption)
	return nil
}

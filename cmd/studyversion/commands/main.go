// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package commands holds the antares-study-version command line.
package commands

import (
	"fmt"
	"os"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/studyversion/osenv"
)

var logger = loggo.GetLogger("studyversion.cmd")

// exitErr is returned when the command line cannot be set up.
const exitErr = 2

// interruptedMessage is printed when the user interrupts a command.
const interruptedMessage = "Operation interrupted by the user."

const studyVersionDoc = `
antares-study-version shows, creates and upgrades Antares Simulator studies.

A study is a directory holding a study.antares manifest. Upgrades are
applied in place, one version at a time, and are rolled back if any step
fails.

The logging configuration can be set with $` + osenv.LoggingConfigEnvKey + `.
`

// Main registers the subcommands and hands over control to the cmd
// package. It provides an entry point for testing with arbitrary command
// line arguments.
func Main(args []string) int {
	ctx, err := cmd.DefaultContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitErr
	}
	return cmd.Main(NewStudyVersionCommand(), ctx, args[1:])
}

// NewStudyVersionCommand returns the antares-study-version super command.
func NewStudyVersionCommand() cmd.Command {
	sc := cmd.NewSuperCommand(cmd.SuperCommandParams{
		Name:    "antares-study-version",
		Purpose: "Manage the version of Antares Simulator studies.",
		Doc:     studyVersionDoc,
		Log: &cmd.Log{
			DefaultConfig: osenv.LoggingConfig(),
		},
	})
	registerCommands(sc)
	return sc
}

type commandRegistry interface {
	Register(cmd.Command)
}

func registerCommands(r commandRegistry) {
	r.Register(NewShowCommand())
	r.Register(NewCreateCommand())
	r.Register(NewUpgradeCommand())
}

// studyDirArg parses the single study directory argument of a command.
func studyDirArg(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, errors.New("no study directory specified")
	}
	return args[0], args[1:], nil
}

// interrupted reports a user interrupt and returns the error that makes
// the command exit non-zero without printing anything else.
func interrupted(ctx *cmd.Context) error {
	fmt.Fprintln(ctx.Stderr, interruptedMessage)
	return cmd.ErrSilent
}

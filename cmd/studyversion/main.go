// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"os"
	"runtime"

	"github.com/juju/loggo"

	"github.com/juju/studyversion/cmd/studyversion/commands"
)

var logger = loggo.GetLogger("studyversion.cmd.main")

// exitPanic is returned when we exit due to an unhandled panic.
const exitPanic = 3

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			buf = buf[:runtime.Stack(buf, false)]
			logger.Criticalf("Unhandled panic: \n%v\n%s", r, buf)
			os.Exit(exitPanic)
		}
	}()
	os.Exit(commands.Main(os.Args))
}

// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package osenv holds the environment variables read by the study
// version tool.
package osenv

import (
	"os"
	"path/filepath"
)

const (
	// TemplatesEnvKey names the directory holding the study templates.
	TemplatesEnvKey = "ANTARES_STUDY_TEMPLATES"

	// LoggingConfigEnvKey holds a loggo configuration string, such as
	// "<root>=INFO;studyversion.upgrades=DEBUG".
	LoggingConfigEnvKey = "ANTARES_STUDY_LOGGING_CONFIG"

	// DefaultTemplatesDirName is the name of the templates directory
	// installed next to the executable.
	DefaultTemplatesDirName = "resources"
)

// TemplatesDir returns the directory holding the study templates: the
// value of $ANTARES_STUDY_TEMPLATES if set, else the resources directory
// next to the running executable.
func TemplatesDir() string {
	if dir := os.Getenv(TemplatesEnvKey); dir != "" {
		return dir
	}
	exe, err := os.Executable()
	if err != nil {
		return DefaultTemplatesDirName
	}
	return filepath.Join(filepath.Dir(exe), DefaultTemplatesDirName)
}

// LoggingConfig returns the logging configuration set in the
// environment, if any.
func LoggingConfig() string {
	return os.Getenv(LoggingConfigEnvKey)
}

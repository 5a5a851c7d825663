// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package commands

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/mutex/v2"
)

// lockDelay is how often the study lock is retried while another process
// holds it.
const lockDelay = 250 * time.Millisecond

// lockName returns the machine wide mutex name guarding the study in dir.
// Mutex names are limited to 40 characters, so the path is hashed.
func lockName(dir string) string {
	sum := sha256.Sum256([]byte(dir))
	return "antares-study-" + hex.EncodeToString(sum[:])[:24]
}

// acquireStudyLock waits until no other process upgrades the study in dir.
// Closing cancel stops waiting with mutex.ErrCancelled.
func acquireStudyLock(dir string, timeout time.Duration, cancel <-chan struct{}) (mutex.Releaser, error) {
	releaser, err := mutex.Acquire(mutex.Spec{
		Name:    lockName(dir),
		Clock:   clock.WallClock,
		Delay:   lockDelay,
		Timeout: timeout,
		Cancel:  cancel,
	})
	if err != nil {
		return nil, errors.Annotatef(err, "acquiring lock for study %q", dir)
	}
	return releaser, nil
}

// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package gitzipqr

import (
	"sync/atomic"

	"github.com/gitzipqr/gitzipqr/log"
)

type atomicBool int32

func (b *atomicBool) isSet() bool { return atomic.LoadInt32((*int32)(b)) != 0 }
func (b *atomicBool) setTrue()    { atomic.StoreInt32((*int32)(b), 1) }
func (b *atomicBool) setFalse()   { atomic.StoreInt32((*int32)(b), 0) }

// -----------------------------------------------------------------------------

var verboseMode atomicBool

// InVerboseMode returns the verbose logging flag status. cmd/gitzipqr checks
// this at startup to pick the logrus level its factory installs; library
// packages never read it directly, they only log through log.Logger.
func InVerboseMode() bool {
	return verboseMode.isSet()
}

// SetVerboseMode enables verbose (debug-level) logging and returns a function
// to revert the configuration.
//
// Calling this method multiple times once the flag is enabled produces no effect.
func SetVerboseMode() (revert func()) {
	// Prevent multiple calls to indirectly disable the flag
	if verboseMode.isSet() {
		return func() {}
	}

	verboseMode.setTrue()
	log.Level(log.DebugLevel).Message("gitzipqr: verbose mode enabled")

	return func() {
		verboseMode.setFalse()
		log.Level(log.DebugLevel).Message("gitzipqr: verbose mode disabled")
	}
}

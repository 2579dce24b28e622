// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone/nop config.go
//

package service

import "time"

// Config holds configuration shared by every component in this repository.
//
// Pass this to constructor functions to pre-wire common dependencies. All
// fields have sensible defaults set by [NewConfig]. The h1, httpserver and
// client packages define their own configuration types, which do not
// embed or read this one.
type Config struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now]. Override for deterministic tests.
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		ErrClassifier: DefaultErrClassifier,
		TimeNow:       time.Now,
	}
}

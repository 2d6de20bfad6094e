// SPDX-License-Identifier: MIT

// Package logging builds the slog logger used by sqlctl and carries it
// through a context.
//
// Logging is diagnostic only. The default level is warn, so a successful run
// prints nothing; --log-level debug shows retry attempts and each lifecycle
// step.
package logging

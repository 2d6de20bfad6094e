// SPDX-License-Identifier: MIT

// Package connect retries connection attempts against a database server
// that may not be accepting connections yet.
//
// Failures are classified by Classify. Connection refused, reset and aborted
// are transient and retried with exponential backoff until the connect
// timeout is spent; anything else is permanent and returned at once.
package connect

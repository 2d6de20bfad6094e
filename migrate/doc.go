// SPDX-License-Identifier: MIT

// Package migrate applies, reverts and reports versioned SQL migrations.
//
// Migration files live in a single directory and are named
// <version>.do.<name>.sql, with an optional <version>.undo.<name>.sql that
// reverts it. Applied migrations are recorded, with their MD5 checksum, in a
// schema table ("schemaversion" by default) so that edits to an applied file
// are caught before anything else runs.
package migrate

package migrate

import (
	"errors"
	"fmt"
)

var (
	// ErrVersionMissing is returned when the database records a migration
	// that is no longer in the source directory.
	ErrVersionMissing = errors.New("migration was previously applied but is missing in the resolved migrations")

	// ErrVersionNotPresent is returned for a target version with no migration.
	ErrVersionNotPresent = errors.New("target version does not exist in the resolved migrations")

	// ErrTargetBelowApplied is returned by Run for a target older than the
	// latest applied migration.
	ErrTargetBelowApplied = errors.New("target version is older than the latest applied migration")

	// ErrTargetAboveApplied is returned by Revert for a target newer than
	// the latest applied migration.
	ErrTargetAboveApplied = errors.New("target version is newer than the latest applied migration")

	// ErrNotReversible is returned when a migration to revert has no undo file.
	ErrNotReversible = errors.New("migration has no undo file")

	// ErrBuildScriptExists is returned by BuildScript when the file exists
	// and force is not set.
	ErrBuildScriptExists = errors.New("embed file already exists; use --force to overwrite")

	// ErrNoMigrationFiles is returned by BuildScript for a source without
	// .sql files, where the generated //go:embed pattern would not compile.
	ErrNoMigrationFiles = errors.New("no .sql migration files to embed")
)

// ChecksumError reports an applied migration whose file has changed since.
type ChecksumError struct {
	Version  int64
	Applied  string
	Resolved string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("MD5 checksum failed for migration [%d]: applied %s, file %s", e.Version, e.Applied, e.Resolved)
}

// versionError ties a sentinel to the version it concerns.
func versionError(err error, version int64) error {
	return fmt.Errorf("%w: %d", err, version)
}

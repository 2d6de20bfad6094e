package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// timestampLayout numbers migrations by their UTC creation time.
const timestampLayout = "20060102150405"

// timestampThreshold separates sequential versions from timestamp versions
// when inferring the numbering of an existing directory.
const timestampThreshold = 1_000_000_000

// ErrConflictingNumbering is returned when both numbering modes are requested.
var ErrConflictingNumbering = errors.New("cannot use both sequential and timestamp numbering")

// now is replaced in tests.
var now = time.Now

// Add creates a new migration in source. Sequential numbering uses the next
// integer, zero-padded to three digits; timestamp numbering uses the UTC
// time. With neither flag the existing migrations decide, defaulting to
// timestamps for an empty directory. Reversible migrations get a matching
// undo file. It returns the paths written.
func Add(source, description string, reversible, sequential, timestamp bool) ([]string, error) {
	if sequential && timestamp {
		return nil, ErrConflictingNumbering
	}
	desc := kebabCase(description)
	if desc == "" {
		return nil, fmt.Errorf("migration description %q has no usable characters", description)
	}
	if err := os.MkdirAll(source, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migration directory %s: %w", source, err)
	}

	existing, err := loadMigrations(source, "")
	if err != nil {
		return nil, fmt.Errorf("failed to scan migration files: %w", err)
	}
	var max int64
	for _, m := range existing {
		if m.Version > max {
			max = m.Version
		}
	}
	if !sequential && !timestamp {
		sequential = len(existing) > 0 && max < timestampThreshold
	}

	var nextNumber string
	if sequential {
		nextNumber = fmt.Sprintf("%03d", max+1)
	} else {
		nextNumber = now().UTC().Format(timestampLayout)
	}

	files := []struct {
		action, content string
	}{
		{ActionDo, "-- Write your migration SQL here\n"},
	}
	if reversible {
		files = append(files, struct{ action, content string }{ActionUndo, "-- Write your rollback SQL here\n"})
	}

	var written []string
	for _, f := range files {
		path := filepath.Join(source, fmt.Sprintf("%s.%s.%s.sql", nextNumber, f.action, desc))
		if err := createFile(path, f.content); err != nil {
			return written, fmt.Errorf("failed to create migration file %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// createFile writes content to a new file, failing if path already exists.
func createFile(path, content string) error {
	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := fh.WriteString(content); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

var nonAlphanumeric = regexp.MustCompile("[^a-z0-9]+")

// kebabCase converts a string to kebab-case.
func kebabCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

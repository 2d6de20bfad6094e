package migrate

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Actions of a migration file.
const (
	ActionDo   = "do"
	ActionUndo = "undo"
)

// Migration represents a single migration file.
type Migration struct {
	// Version of the migration.
	Version int64

	// Action is ActionDo or ActionUndo.
	Action string

	// Filename is the path to the migration file.
	Filename string

	// Name is the descriptive part of the filename.
	Name string

	// Md5 is the MD5 checksum of the migration file.
	Md5 string
}

// SQL reads the migration file's content.
func (m *Migration) SQL() (string, error) {
	data, err := os.ReadFile(m.Filename)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Description is the name with dashes turned back into spaces.
func (m *Migration) Description() string {
	return strings.ReplaceAll(m.Name, "-", " ")
}

func sortMigrationsAsc(migs []Migration) {
	sort.Slice(migs, func(i, j int) bool {
		return migs[i].Version < migs[j].Version
	})
}

func sortMigrationsDesc(migs []Migration) {
	sort.Slice(migs, func(i, j int) bool {
		return migs[i].Version > migs[j].Version
	})
}

var newlineRe = regexp.MustCompile(`\r\n|\r|\n`)

// convertLineEnding converts all newline variations in content to the target style.
func convertLineEnding(content, lineEnding string) (string, error) {
	var target string
	switch lineEnding {
	case "LF":
		target = "\n"
	case "CR":
		target = "\r"
	case "CRLF":
		target = "\r\n"
	default:
		return "", fmt.Errorf("newline must be one of: LF, CR, CRLF")
	}
	return newlineRe.ReplaceAllString(content, target), nil
}

// checksum computes the MD5 checksum of the content after converting line endings if set.
func checksum(content, lineEnding string) (string, error) {
	if lineEnding != "" {
		var err error
		content, err = convertLineEnding(content, lineEnding)
		if err != nil {
			return "", err
		}
	}
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:]), nil
}

// fileChecksum reads a file and returns its MD5 checksum.
func fileChecksum(filename, lineEnding string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return checksum(string(data), lineEnding)
}

// parseFilename splits "<version>.<action>[.<name>].sql". ok is false for
// files that do not follow the pattern.
func parseFilename(file string) (version int64, action, name string, ok bool) {
	base := filepath.Base(file)
	if filepath.Ext(base) != ".sql" {
		return 0, "", "", false
	}
	parts := strings.Split(strings.TrimSuffix(base, ".sql"), ".")
	if len(parts) < 2 {
		return 0, "", "", false
	}
	version, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || version <= 0 {
		return 0, "", "", false
	}
	action = parts[1]
	if action != ActionDo && action != ActionUndo {
		return 0, "", "", false
	}
	if len(parts) > 2 {
		name = strings.Join(parts[2:], ".")
	}
	return version, action, name, true
}

// loadMigrations scans source for migration files. A missing directory
// holds no migrations.
func loadMigrations(source, lineEnding string) ([]Migration, error) {
	files, err := filepath.Glob(filepath.Join(source, "*.sql"))
	if err != nil {
		return nil, err
	}
	var migrations []Migration
	migrationKeys := make(map[string]struct{})
	for _, file := range files {
		version, action, name, ok := parseFilename(file)
		if !ok {
			continue
		}
		md5sum, err := fileChecksum(file, lineEnding)
		if err != nil {
			return nil, err
		}
		key := fmt.Sprintf("%d:%s", version, action)
		if _, exists := migrationKeys[key]; exists {
			return nil, fmt.Errorf("duplicate migration for version %d and action %s", version, action)
		}
		migrationKeys[key] = struct{}{}
		migrations = append(migrations, Migration{
			Version:  version,
			Action:   action,
			Filename: file,
			Name:     name,
			Md5:      md5sum,
		})
	}
	sortMigrationsAsc(migrations)
	return migrations, nil
}

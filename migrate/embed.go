package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// EmbedFile is the name of the file BuildScript writes into the source
// directory.
const EmbedFile = "embed.go"

var embedTemplate = template.Must(template.New("embed").Parse(`// Code generated by sqlctl migrate build-script. DO NOT EDIT.

// Package {{.Package}} embeds the SQL migration files of this directory.
package {{.Package}}

import "embed"

// FS holds every migration in this directory.
//
//go:embed *.sql
var FS embed.FS
`))

// BuildScript writes a Go file into source that embeds its migrations, so
// a rebuild picks up new or changed files. An existing file is kept unless
// force is set. source must already hold at least one .sql file.
func BuildScript(source string, force bool) (string, error) {
	sqlFiles, err := filepath.Glob(filepath.Join(source, "*.sql"))
	if err != nil {
		return "", err
	}
	if len(sqlFiles) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoMigrationFiles, source)
	}
	path := filepath.Join(source, EmbedFile)
	if _, err := os.Stat(path); err == nil && !force {
		return "", ErrBuildScriptExists
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := embedTemplate.Execute(f, struct{ Package string }{packageName(source)}); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// packageName derives a Go package name from the directory name.
func packageName(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, filepath.Base(abs))
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		return "migrations"
	}
	return name
}

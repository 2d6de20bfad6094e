package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/spf13/afero"
	"github.com/subosito/gotenv"

	"github.com/bcomnes/sqlctl"
)

const (
	// DefaultPath is the config file location relative to the working directory.
	DefaultPath = "sqlctl-config.json"

	// DefaultEnvPath is the env file used when the config does not name one.
	DefaultEnvPath = ".env"

	// DefaultSchemaURL is written into new config files for editor support.
	DefaultSchemaURL = "https://raw.githubusercontent.com/bcomnes/sqlctl/main/sqlctl-config.schema.json"

	// DatabaseURLKey is the environment variable holding the connection string.
	DatabaseURLKey = "DATABASE_URL"
)

// Config is the sqlctl-config.json document.
type Config struct {
	// Schema points editors at the JSON schema of this document.
	Schema string `json:"$schema,omitempty" jsonschema:"description=URL of the JSON schema for this file"`

	// EnvPath is the env file consulted for DATABASE_URL.
	EnvPath string `json:"env_path,omitempty" jsonschema:"description=Path of the env file that defines DATABASE_URL,default=.env"`
}

// Default returns the document written when none exists.
func Default() Config {
	return Config{
		Schema:  DefaultSchemaURL,
		EnvPath: DefaultEnvPath,
	}
}

// ParseError reports a config file that exists but cannot be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Resolver reads the config document and resolves the connection string.
// The zero value is not usable; use NewResolver.
type Resolver struct {
	// Fs is the storage the config and env files are read from.
	Fs afero.Fs

	// Path is the config file location on Fs.
	Path string

	// LookupEnv reads the process environment.
	LookupEnv func(key string) (string, bool)
}

// NewResolver returns a Resolver over the working directory and the process
// environment.
func NewResolver() *Resolver {
	return &Resolver{
		Fs:        afero.NewOsFs(),
		Path:      DefaultPath,
		LookupEnv: os.LookupEnv,
	}
}

// Read returns the config document, writing the default one first if the
// file does not exist.
func (r *Resolver) Read() (Config, error) {
	data, err := afero.ReadFile(r.Fs, r.Path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		if err := r.write(cfg); err != nil {
			return Config{}, fmt.Errorf("creating %s: %w", r.Path, err)
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, &ParseError{Path: r.Path, Err: err}
	}
	return cfg, nil
}

// write persists cfg through a temp file and a rename so readers never see
// a partial document. Concurrent writers race; the last rename wins.
func (r *Resolver) write(cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(r.Path)
	tmp, err := afero.TempFile(r.Fs, dir, ".sqlctl-config-*.json")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		r.Fs.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		r.Fs.Remove(name)
		return err
	}
	if err := r.Fs.Rename(name, r.Path); err != nil {
		r.Fs.Remove(name)
		return err
	}
	return nil
}

// DatabaseURL returns DATABASE_URL from the process environment or, failing
// that, from the env file named by the config document. A missing env file
// is not an error. ok is false when neither defines the variable.
func (r *Resolver) DatabaseURL() (url string, ok bool, err error) {
	cfg, err := r.Read()
	if err != nil {
		return "", false, err
	}
	if cfg.EnvPath == "" {
		return "", false, nil
	}

	if v, found := r.LookupEnv(DatabaseURLKey); found && v != "" {
		return v, true, nil
	}

	f, err := r.Fs.Open(cfg.EnvPath)
	if err != nil {
		return "", false, nil
	}
	defer f.Close()

	env := gotenv.Parse(f)
	if v := env[DatabaseURLKey]; v != "" {
		return v, true, nil
	}
	return "", false, nil
}

// ResolveDatabaseURL returns the connection string from the config sources,
// falling back to the one in opts. It fails with sqlctl.ErrMissingDatabaseURL
// when neither has a value.
func (r *Resolver) ResolveDatabaseURL(opts sqlctl.ConnectOpts) (string, error) {
	url, ok, err := r.DatabaseURL()
	if err != nil {
		return "", err
	}
	if ok {
		return url, nil
	}
	return opts.RequiredDatabaseURL()
}

// Schema returns the JSON schema describing Config.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	s := reflector.Reflect(&Config{})
	s.Title = "sqlctl config"
	return json.MarshalIndent(s, "", "  ")
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".flowir.yaml"

// EnvFileName is the dotenv file read for FLOWIR_* overrides.
const EnvFileName = ".env"

// Environment variables that override file values.
const (
	EnvCache         = "FLOWIR_CACHE"
	EnvNeo4jURI      = "FLOWIR_NEO4J_URI"
	EnvNeo4jUser     = "FLOWIR_NEO4J_USER"
	EnvNeo4jPassword = "FLOWIR_NEO4J_PASSWORD"
	EnvNeo4jDatabase = "FLOWIR_NEO4J_DATABASE"
)

// Config holds every setting the CLI reads.
type Config struct {
	// Cache is the SQLite parse cache path. Empty disables it.
	Cache string `yaml:"cache"`

	// LRUSize is the number of modules kept in memory. Zero disables the
	// in-memory cache.
	LRUSize int `yaml:"lru_size"`

	// Indent is the JSON indentation width for parse output. Zero emits
	// compact canonical JSON.
	Indent int `yaml:"indent"`

	// ValidateGraph checks graph invariants on every fresh parse.
	ValidateGraph bool `yaml:"validate"`

	// Extensions maps file extensions to language keys, merged over the
	// built-in mapping.
	Extensions map[string]string `yaml:"extensions,omitempty"`

	Neo4j Neo4jConfig `yaml:"neo4j"`
}

// Neo4jConfig locates the graph database used by the export command.
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Cache:         "",
		LRUSize:       256,
		Indent:        2,
		ValidateGraph: true,
		Neo4j: Neo4jConfig{
			URI:  "bolt://localhost:7687",
			User: "neo4j",
		},
	}
}

// Load reads the YAML file at path over the defaults. When optional is
// true a missing file yields the defaults instead of an error.
func Load(path string, optional bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML data over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.LRUSize < 0 {
		return fmt.Errorf("lru_size must not be negative, got %d", c.LRUSize)
	}
	if c.Indent < 0 || c.Indent > 8 {
		return fmt.Errorf("indent must be between 0 and 8, got %d", c.Indent)
	}
	for ext, lang := range c.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
		if strings.TrimSpace(lang) == "" {
			return fmt.Errorf("extension %q has no language", ext)
		}
	}
	if c.Neo4j.URI != "" {
		u, err := url.Parse(c.Neo4j.URI)
		if err != nil {
			return fmt.Errorf("neo4j.uri: %w", err)
		}
		switch u.Scheme {
		case "bolt", "bolt+s", "bolt+ssc", "neo4j", "neo4j+s", "neo4j+ssc":
		default:
			return fmt.Errorf("neo4j.uri: unsupported scheme %q", u.Scheme)
		}
	}
	return nil
}

// ApplyEnv overrides settings from non-empty FLOWIR_* variables returned
// by getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Cache, EnvCache)
	set(&c.Neo4j.URI, EnvNeo4jURI)
	set(&c.Neo4j.User, EnvNeo4jUser)
	set(&c.Neo4j.Password, EnvNeo4jPassword)
	set(&c.Neo4j.Database, EnvNeo4jDatabase)
}

// Env returns a lookup over the process environment backed by the
// variables of the dotenv file at path. Process variables win. A missing
// file is not an error.
func Env(path string) (func(string) string, error) {
	fileVars := map[string]string{}
	if path != "" {
		vars, err := godotenv.Read(path)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileVars[key]
	}, nil
}

// Write stores c as YAML at path. An existing file is only replaced when
// overwrite is set.
func (c *Config) Write(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	out := *c
	out.Extensions = maps.Clone(c.Extensions)

	var buf bytes.Buffer
	buf.WriteString("# flowir configuration\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

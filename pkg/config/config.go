package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/panbanda/reducto/pkg/source"
)

// ErrInvalid is returned when a config file does not satisfy the schema.
var ErrInvalid = errors.New("invalid configuration")

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "reducto.schema.json"

// Config holds all configuration options for reducto.
type Config struct {
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis" json:"analysis"`
	Exclude  ExcludeConfig  `koanf:"exclude" toml:"exclude" json:"exclude"`
	Output   OutputConfig   `koanf:"output" toml:"output" json:"output"`
}

// AnalysisConfig controls the per-file pipeline and the package walk.
type AnalysisConfig struct {
	// Workers caps the number of files analyzed concurrently. 0 picks 2x NumCPU.
	Workers int `koanf:"workers" toml:"workers" json:"workers"`
	// IncludeNested counts functions defined inside other functions as items.
	IncludeNested bool `koanf:"include_nested" toml:"include_nested" json:"include_nested"`
	// EncodingFallback decodes files that are not valid UTF-8 and carry no
	// coding cookie. Empty means such files are rejected.
	EncodingFallback string `koanf:"encoding_fallback" toml:"encoding_fallback" json:"encoding_fallback"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns []string `koanf:"patterns" toml:"patterns" json:"patterns"`

	// Dirs are skipped at any depth unless the directory holds __init__.py.
	Dirs      []string `koanf:"dirs" toml:"dirs" json:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore" json:"gitignore"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format     string `koanf:"format" toml:"format" json:"format"` // json, text, markdown, toon, yaml, raw
	Grouped    bool   `koanf:"grouped" toml:"grouped" json:"grouped"`
	Percentage bool   `koanf:"percentage" toml:"percentage" json:"percentage"`
	Color      bool   `koanf:"color" toml:"color" json:"color"`
	Verbose    bool   `koanf:"verbose" toml:"verbose" json:"verbose"`
	Path       string `koanf:"path" toml:"path" json:"path"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Workers:       0,
			IncludeNested: true,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.egg-info",
			},
			Dirs: []string{
				"__pycache__",
				".git",
				".venv",
				"venv",
				"build",
				"dist",
				".tox",
				".nox",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format: "json",
			Color:  true,
		},
	}
}

// LoadResult is a loaded configuration and the file it came from.
// Source is empty when defaults were used.
type LoadResult struct {
	Config *Config
	Source string
}

type loadOptions struct {
	path string
	dirs []string
}

// LoadOption customizes LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads the given file instead of searching the standard locations.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// WithSearchDirs overrides the directories searched for a config file.
func WithSearchDirs(dirs ...string) LoadOption {
	return func(o *loadOptions) { o.dirs = dirs }
}

// ConfigNames are the file names searched for, in order.
var ConfigNames = []string{
	"reducto.toml",
	"reducto.yaml",
	"reducto.yml",
	"reducto.json",
	".reducto.toml",
	".reducto.yaml",
	".reducto.yml",
	".reducto.json",
}

// LoadConfig loads and validates configuration. Without WithPath it searches
// the current directory and .reducto/ and falls back to defaults.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dirs: []string{".", ".reducto"}}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path == "" {
		path = find(o.dirs)
	}
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

func find(dirs []string) string {
	for _, dir := range dirs {
		for _, name := range ConfigNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return kjson.Parser()
	default:
		return toml.Parser()
	}
}

// Load loads configuration from a file, layered over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if err := ValidateRaw(k.Raw()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	result, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return result.Config
}

// ValidateRaw checks a parsed config document against the embedded schema.
func ValidateRaw(raw map[string]any) error {
	sch, err := compileSchema()
	if err != nil {
		return err
	}

	// Round-trip through JSON so parser-specific scalar types (TOML
	// integers, YAML maps) become plain JSON values.
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return c.Compile(schemaURL)
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("%w: analysis.workers must be >= 0", ErrInvalid)
	}
	if name := c.Analysis.EncodingFallback; name != "" {
		if _, err := source.Lookup(name); err != nil {
			return fmt.Errorf("%w: analysis.encoding_fallback: %v", ErrInvalid, err)
		}
	}
	return nil
}

// ToTOML renders the config as a TOML document.
func (c *Config) ToTOML() ([]byte, error) {
	content, err := gotoml.Marshal(*c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to TOML: %w", err)
	}
	return content, nil
}

// DirPatterns returns the excluded directory names as gitignore patterns
// matching at any depth.
func (c *Config) DirPatterns() []string {
	patterns := make([]string, 0, len(c.Exclude.Dirs))
	for _, dir := range c.Exclude.Dirs {
		patterns = append(patterns, strings.TrimSuffix(dir, "/")+"/")
	}
	return patterns
}

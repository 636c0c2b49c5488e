// Package config loads pushorder settings from an optional YAML file and
// the environment.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/pushorder/internal/capture"
)

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = "PUSHORDER_CONFIG"

// Environment overrides applied after the file is read.
const (
	EnvRootID  = "PUSHORDER_ROOT_ID"
	EnvBaseURL = "PUSHORDER_BASE_URL"
)

// ErrInvalidConfig is returned when a configuration fails the schema.
var ErrInvalidConfig = errors.New("invalid config")

//go:embed schema.cue
var schemaSource string

// Config holds every tunable of an ordering run.
type Config struct {
	// RootID names the root document when its URL has no path.
	RootID string `yaml:"root_id" json:"root_id"`

	// BaseURL is stripped from resource URLs to form ids. Empty means the
	// root document's origin.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// CriticalTypes are the resource types the dependency policy orders.
	CriticalTypes []string `yaml:"critical_types" json:"critical_types"`

	// CacheSize bounds the URL → id memo.
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	Preprocess PreprocessConfig `yaml:"preprocess" json:"preprocess"`
}

// PreprocessConfig filters a raw HAR down to the preprocessed log.
type PreprocessConfig struct {
	// Host keeps only entries for this host. Empty keeps every host.
	Host string `yaml:"host" json:"host"`

	// Status keeps only responses with this status. 0 keeps all.
	Status int `yaml:"status" json:"status"`
}

// Default returns the built-in configuration.
func Default() *Config {
	types := make([]string, len(capture.CriticalTypes))
	for i, t := range capture.CriticalTypes {
		types[i] = string(t)
	}
	return &Config{
		RootID:        capture.DefaultRootID,
		CriticalTypes: types,
		CacheSize:     capture.DefaultCacheSize,
		Preprocess:    PreprocessConfig{Status: 200},
	}
}

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. An empty path loads the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
// Environment overrides are not applied.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := decode(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvRootID); ok && v != "" {
		c.RootID = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
}

// Validate checks the configuration against the embedded CUE schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	v := schema.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ResourceTypes returns CriticalTypes as resource types. Unknown names
// are skipped; Validate rejects them.
func (c *Config) ResourceTypes() []capture.ResourceType {
	out := make([]capture.ResourceType, 0, len(c.CriticalTypes))
	for _, name := range c.CriticalTypes {
		if t, ok := capture.ParseResourceType(name); ok {
			out = append(out, t)
		}
	}
	return out
}

// NewNamer returns a URL → id namer for one run.
func (c *Config) NewNamer() (*capture.Namer, error) {
	return capture.NewNamer(c.BaseURL, c.RootID, c.CacheSize)
}

// PreprocessOptions returns the HAR filter settings.
func (c *Config) PreprocessOptions() capture.PreprocessOptions {
	return capture.PreprocessOptions{Host: c.Preprocess.Host, Status: c.Preprocess.Status}
}

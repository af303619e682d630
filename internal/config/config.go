// Package config loads CLI settings and descriptor files with koanf.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/git-pkgs/pkgdesc/internal/core"
)

const (
	// DefaultConfigFile is read from the working directory when present.
	DefaultConfigFile = "pkgdesc.yaml"
	EnvPrefix         = "PKGDESC_"

	DefaultRegistryURL     = "https://pypi.org"
	DefaultTimeout         = 30 * time.Second
	DefaultDownloadTimeout = 5 * time.Minute // one artifact, body included
	DefaultMaxRetries      = 5
	DefaultConcurrency     = 8
	DefaultOutput          = "text"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultDest            = "wheelhouse"
)

// Config holds CLI settings.
type Config struct {
	Descriptor      string        `koanf:"descriptor"` // empty selects the built-in trainer descriptor
	Root            string        `koanf:"root"`
	RegistryURL     string        `koanf:"registry_url"`
	Timeout         time.Duration `koanf:"timeout"`          // registry API calls
	DownloadTimeout time.Duration `koanf:"download_timeout"` // artifact downloads
	MaxRetries      int           `koanf:"max_retries"`
	Concurrency     int           `koanf:"concurrency"`
	Output          string        `koanf:"output"`
	LogLevel        string        `koanf:"log_level"`
	LogFormat       string        `koanf:"log_format"`
	Exclude         []string      `koanf:"exclude"`
	Dest            string        `koanf:"dest"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

func defaults() map[string]any {
	return map[string]any{
		"descriptor":       "",
		"root":             ".",
		"registry_url":     DefaultRegistryURL,
		"timeout":          DefaultTimeout.String(),
		"download_timeout": DefaultDownloadTimeout.String(),
		"max_retries":      DefaultMaxRetries,
		"concurrency":      DefaultConcurrency,
		"output":           DefaultOutput,
		"log_level":        DefaultLogLevel,
		"log_format":       DefaultLogFormat,
		"exclude":          []string{},
		"dest":             DefaultDest,
	}
}

// Load reads configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// cfgFile may be empty, in which case DefaultConfigFile is used if it exists.
// Only flags that were explicitly set override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// PKGDESC_REGISTRY_URL -> registry_url
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

func (c *Config) validate() error {
	switch c.Output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("invalid output %q: want text, json or yaml", c.Output)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Timeout <= 0 || c.DownloadTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive, got timeout=%s download_timeout=%s", c.Timeout, c.DownloadTimeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// LoadDescriptor reads a descriptor YAML file. An empty path returns the
// built-in trainer descriptor.
func LoadDescriptor(path string) (*core.Descriptor, error) {
	if path == "" {
		return core.Trainer(), nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("reading descriptor %s: %w", path, err)
	}
	if err := checkStringFields(k); err != nil {
		return nil, fmt.Errorf("decoding descriptor %s: %w", path, err)
	}

	var d core.Descriptor
	if err := k.Unmarshal("", &d); err != nil {
		return nil, fmt.Errorf("decoding descriptor %s: %w", path, err)
	}
	return &d, nil
}

// checkStringFields rejects descriptor values YAML did not read as strings.
// Weak decoding would otherwise turn an unquoted `version: 1.10` into "1.1".
func checkStringFields(k *koanf.Koanf) error {
	var problems []string
	for _, key := range []string{"name", "version", "description", "license"} {
		if v := k.Get(key); v != nil {
			if _, ok := v.(string); !ok {
				problems = append(problems, fmt.Sprintf("%s must be a quoted string, got %T %v", key, v, v))
			}
		}
	}

	if v := k.Get("install_requires"); v != nil {
		entries, ok := v.([]any)
		if !ok {
			problems = append(problems, fmt.Sprintf("install_requires must be a list, got %T", v))
		}
		for i, e := range entries {
			if _, ok := e.(string); !ok {
				problems = append(problems, fmt.Sprintf("install_requires[%d] must be a quoted string, got %T %v", i, e, e))
			}
		}
	}

	if len(problems) > 0 {
		return &core.ValidationError{Problems: problems}
	}
	return nil
}

// Package config loads the export configuration: schema version, column casing policy and the
// per-table column selection that decides which tables and columns are exported.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/tordrt/syncschema/internal/projector"
)

// EnvPrefix is the prefix of environment variables that override file values
const EnvPrefix = "SYNCSCHEMA_"

// Flag names that map onto config keys
const (
	FlagVersion = "schema-version"
	FlagCasing  = "casing"
)

// Export is the export configuration.
// A table is exported only when Tables has a non-empty entry for it.
type Export struct {
	Version int                            `koanf:"version"`
	Casing  projector.Casing               `koanf:"casing"`
	Tables  map[string]projector.Inclusion `koanf:"tables"`
}

// Exported reports whether table was selected for export
func (e *Export) Exported(table string) bool {
	inc, ok := e.Tables[table]
	return ok && len(inc) > 0
}

// TableNames returns the exported table names in sorted order
func (e *Export) TableNames() []string {
	names := make([]string, 0, len(e.Tables))
	for name, inc := range e.Tables {
		if len(inc) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Validate checks values that cannot be expressed by the type system
func (e *Export) Validate() error {
	casing, err := projector.ParseCasing(string(e.Casing))
	if err != nil {
		return err
	}
	e.Casing = casing

	if e.Version < 0 {
		return fmt.Errorf("version must not be negative, got %d", e.Version)
	}

	return nil
}

// Load reads the export config.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(path string, flags *pflag.FlagSet) (*Export, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"version": 1,
		"casing":  string(projector.CasingNone),
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// 3. Environment variables: SYNCSCHEMA_VERSION -> version
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			switch f.Name {
			case FlagVersion:
				return "version", posflag.FlagVal(flags, f)
			case FlagCasing:
				return "casing", posflag.FlagVal(flags, f)
			default:
				return "", nil
			}
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Export
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

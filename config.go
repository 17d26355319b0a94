package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/sirkon/qualcheck/internal/directives"
	"github.com/sirkon/qualcheck/internal/qualrules"
)

const defaultMarkerPackage = "github.com/sirkon/qualcheck/qual"

// Config is the analyzer configuration file, either YAML or TOML.
type Config struct {
	// Checkers to run, all of them when empty.
	Checkers []CheckerKind `yaml:"checkers" toml:"checkers"`

	// MarkerPackage is the import path of the package with qualified cast functions.
	MarkerPackage string `yaml:"marker_package" toml:"marker_package"`

	// Ignore lists rules never reported.
	Ignore []qualrules.Rule `yaml:"ignore" toml:"ignore"`

	// Functions declares qualifiers of signatures of functions that cannot carry directives.
	Functions []FunctionConfig `yaml:"functions" toml:"functions"`

	// NoReturn lists more functions and methods that never return.
	NoReturn []directives.Reference `yaml:"noreturn" toml:"noreturn"`
}

// FunctionConfig declares qualifiers of a function signature. Names go in parameter or
// result order, an empty name keeps the default.
type FunctionConfig struct {
	Ref     directives.Reference `yaml:"ref" toml:"ref"`
	Params  []string             `yaml:"params" toml:"params"`
	Results []string             `yaml:"results" toml:"results"`
}

func defaultConfig() *Config {
	return &Config{
		Checkers:      []CheckerKind{CheckerKindSignedness},
		MarkerPackage: defaultMarkerPackage,
	}
}

// loadConfig reads the config file, the format is chosen by its extension. An empty path
// gives the default configuration.
func loadConfig(path string) (*Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := decodeYAML(path, &cfg); err != nil {
			return nil, err
		}
	case ".toml":
		if err := decodeTOML(path, &cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q of %s", ext, path)
	}

	cfg.fillDefaults()
	return &cfg, nil
}

func decodeYAML(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// An empty file is the default configuration.
			return nil
		}
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	return nil
}

func decodeTOML(path string, cfg *Config) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("decode config %s: unknown key %s", path, undecoded[0])
	}

	return nil
}

func (c *Config) fillDefaults() {
	if len(c.Checkers) == 0 {
		c.Checkers = defaultConfig().Checkers
	}
	if c.MarkerPackage == "" {
		c.MarkerPackage = defaultMarkerPackage
	}
}

// checkerList is a flag value of comma separated checker names.
type checkerList []CheckerKind

func (l *checkerList) String() string {
	if l == nil {
		return ""
	}

	names := make([]string, 0, len(*l))
	for _, k := range *l {
		names = append(names, k.String())
	}
	return strings.Join(names, ",")
}

func (l *checkerList) Set(value string) error {
	var res checkerList
	for _, name := range strings.Split(value, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		var k CheckerKind
		if err := k.UnmarshalText([]byte(name)); err != nil {
			return err
		}
		if !slices.Contains(res, k) {
			res = append(res, k)
		}
	}

	*l = res
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/docmirror/pkg/style"
)

// FileName is the configuration file looked up next to the document.
const FileName = "docmirror.yaml"

// Defaults used when docmirror.yaml leaves a field empty.
const (
	DefaultInspectAddr   = "127.0.0.1:7070"
	DefaultWatchInterval = 500 * time.Millisecond
	DefaultLookAhead     = 16
)

// Config represents the optional docmirror.yaml configuration.
type Config struct {
	Version  string         `yaml:"version,omitempty"`
	Document DocumentConfig `yaml:"document"`
	Style    StyleConfig    `yaml:"style"`
	Inspect  InspectConfig  `yaml:"inspect"`
	Watch    WatchConfig    `yaml:"watch"`
}

// DocumentConfig contains mirror settings.
type DocumentConfig struct {
	LookAhead int    `yaml:"lookahead,omitempty"`
	Equality  string `yaml:"equality,omitempty"`
	Normalize bool   `yaml:"normalize,omitempty"`
}

// StyleConfig sets the document base style.
type StyleConfig struct {
	Foreground string `yaml:"foreground,omitempty"`
	Background string `yaml:"background,omitempty"`
}

// InspectConfig contains inspector settings.
type InspectConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// WatchConfig contains file watching settings.
type WatchConfig struct {
	Interval string `yaml:"interval,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Path          string
	LookAhead     int
	Structural    bool
	Normalize     bool
	BaseStyle     style.Style
	InspectAddr   string
	WatchInterval time.Duration
}

// LoadOptional reads docmirror.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Resolve validates cfg and fills in defaults.
func Resolve(cfg *Config) (*Resolved, error) {
	if err := validateVersion(cfg.Version); err != nil {
		return nil, err
	}

	r := &Resolved{
		LookAhead:     cfg.Document.LookAhead,
		Normalize:     cfg.Document.Normalize,
		InspectAddr:   strings.TrimSpace(cfg.Inspect.Addr),
		WatchInterval: DefaultWatchInterval,
	}
	if r.LookAhead < 0 {
		return nil, fmt.Errorf("document.lookahead must not be negative (got %d)", r.LookAhead)
	}
	if r.LookAhead == 0 {
		r.LookAhead = DefaultLookAhead
	}

	switch eq := strings.ToLower(strings.TrimSpace(cfg.Document.Equality)); eq {
	case "", "structural":
		r.Structural = true
	case "identity":
	default:
		return nil, fmt.Errorf("document.equality must be \"identity\" or \"structural\" (got %q)", eq)
	}

	var err error
	if r.BaseStyle.Foreground, err = parseColor("style.foreground", cfg.Style.Foreground); err != nil {
		return nil, err
	}
	if r.BaseStyle.Background, err = parseColor("style.background", cfg.Style.Background); err != nil {
		return nil, err
	}

	if r.InspectAddr == "" {
		r.InspectAddr = DefaultInspectAddr
	}

	if s := strings.TrimSpace(cfg.Watch.Interval); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("watch.interval: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("watch.interval must be positive (got %s)", d)
		}
		r.WatchInterval = d
	}
	return r, nil
}

// ResolveFor loads the configuration that applies to the document at
// docPath: the explicit file when configPath is set, otherwise
// docmirror.yaml next to the document, if any.
func ResolveFor(docPath, configPath string) (*Resolved, error) {
	var (
		cfg *Config
		err error
	)
	if configPath != "" {
		cfg, err = Load(configPath)
	} else {
		configPath = filepath.Join(filepath.Dir(docPath), FileName)
		cfg, err = LoadOptional(filepath.Dir(docPath))
	}
	if err != nil {
		return nil, err
	}
	r, err := Resolve(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	r.Path = configPath
	return r, nil
}

// validateVersion accepts an empty version or any v1 semver.
func validateVersion(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("version %q is not a valid semantic version", v)
	}
	if major := semver.Major(v); major != "v1" {
		return fmt.Errorf("unsupported config version %s (want v1)", major)
	}
	return nil
}

func parseColor(field, s string) (style.Color, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	c, err := style.ParseHex(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return c, nil
}

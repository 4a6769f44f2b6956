package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// SiteConfig groups the user-facing site metadata handed to templates.
type SiteConfig struct {
	Title       string `json:"title" yaml:"title" toml:"title"`
	Description string `json:"description" yaml:"description" toml:"description"`
	RootName    string `json:"rootName" yaml:"rootName" toml:"rootName"`
	URL         string `json:"url" yaml:"url" toml:"url"`
	Language    string `json:"language" yaml:"language" toml:"language"`
}

// AuthorConfig describes the default author of the site, used by the feed.
type AuthorConfig struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Email string `json:"email" yaml:"email" toml:"email"`
	URL   string `json:"url" yaml:"url" toml:"url"`
}

// UserConfig is the part of the configuration kept in the user config file.
type UserConfig struct {
	Site       SiteConfig        `json:"site" yaml:"site" toml:"site"`
	Navigation map[string]string `json:"navigation" yaml:"navigation" toml:"navigation"`
	Author     AuthorConfig      `json:"author" yaml:"author" toml:"author"`
}

// BuildConfig encapsulates everything a build or a serve session needs.
type BuildConfig struct {
	InputPath      string
	OutputPath     string
	AssetsPath     string
	ViewsPath      string
	UserConfigPath string
	IgnoreKeys     []string
	StaticExts     []string
	Quiet          bool
	Verbose        bool
	RenderDrafts   bool
	GitDates       bool
	Port           int
	RefreshDelay   time.Duration
	LogLevel       string
	User           UserConfig
}

// Overrides carries values coming from the command line or the environment.
// Zero values leave the defaults untouched.
type Overrides struct {
	ConfigPath   string
	InputPath    string
	OutputPath   string
	ViewsPath    string
	AssetsPath   string
	Port         int
	Quiet        bool
	Verbose      bool
	RenderDrafts bool
	GitDates     bool
}

// DefaultUserConfig returns the user configuration written by `init`.
func DefaultUserConfig() UserConfig {
	return UserConfig{
		Site: SiteConfig{
			Title:       "Your Blog Name",
			Description: "I am writing about my experiences as a naval navel-gazer",
			RootName:    "index",
			URL:         "https://example.com/",
			Language:    "en",
		},
		Navigation: map[string]string{},
		Author: AuthorConfig{
			Name:  "Your Name Here",
			Email: "youremailaddress@example.com",
			URL:   "https://example.com/about-me/",
		},
	}
}

// Default returns a configuration populated with built-in defaults.
func Default() *BuildConfig {
	return &BuildConfig{
		InputPath:      ".",
		OutputPath:     "_site",
		AssetsPath:     filepath.Join(".ter", "assets"),
		ViewsPath:      filepath.Join(".ter", "views"),
		UserConfigPath: filepath.Join(".ter", "config.yml"),
		IgnoreKeys:     []string{"draft"},
		StaticExts:     []string{"png", "jpg", "jpeg", "gif", "webp", "pdf", "ico", "webm", "mp4"},
		Port:           8080,
		RefreshDelay:   100 * time.Millisecond,
		LogLevel:       "info",
		User:           DefaultUserConfig(),
	}
}

// Load merges overrides into the defaults, reads (or initializes) the user
// config file and validates the result. initialized reports whether a default
// user config file had to be written.
func Load(o Overrides) (cfg *BuildConfig, initialized bool, err error) {
	cfg = Default()
	cfg.apply(o)

	if err := cfg.resolvePaths(); err != nil {
		return nil, false, err
	}

	if _, statErr := os.Stat(cfg.UserConfigPath); statErr != nil {
		if !errors.Is(statErr, os.ErrNotExist) {
			return nil, false, fmt.Errorf("stat user config: %w", statErr)
		}
		if err := WriteUserConfig(cfg.UserConfigPath, cfg.User); err != nil {
			return nil, false, err
		}
		initialized = true
	}

	if err := loadUserConfig(cfg.UserConfigPath, &cfg.User); err != nil {
		return nil, initialized, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, initialized, err
	}
	return cfg, initialized, nil
}

func (c *BuildConfig) apply(o Overrides) {
	if v := strings.TrimSpace(o.ConfigPath); v != "" {
		c.UserConfigPath = v
	}
	if v := strings.TrimSpace(o.InputPath); v != "" {
		c.InputPath = v
	}
	if v := strings.TrimSpace(o.OutputPath); v != "" {
		c.OutputPath = v
	}
	if v := strings.TrimSpace(o.ViewsPath); v != "" {
		c.ViewsPath = v
	}
	if v := strings.TrimSpace(o.AssetsPath); v != "" {
		c.AssetsPath = v
	}
	if o.Port != 0 {
		c.Port = o.Port
	}
	c.Quiet = o.Quiet
	c.Verbose = o.Verbose
	c.RenderDrafts = o.RenderDrafts
	c.GitDates = o.GitDates
}

func (c *BuildConfig) resolvePaths() error {
	for _, p := range []*string{&c.InputPath, &c.OutputPath, &c.AssetsPath, &c.ViewsPath, &c.UserConfigPath} {
		abs, err := filepath.Abs(filepath.Clean(*p))
		if err != nil {
			return fmt.Errorf("resolve %s: %w", *p, err)
		}
		*p = abs
	}
	return nil
}

func (c *BuildConfig) applyDefaults() {
	switch {
	case c.Verbose:
		c.LogLevel = "debug"
	case c.Quiet:
		c.LogLevel = "warn"
	default:
		c.LogLevel = "info"
	}

	c.User.Site.Title = strings.TrimSpace(c.User.Site.Title)
	c.User.Site.RootName = strings.TrimSpace(c.User.Site.RootName)
	if c.User.Site.RootName == "" {
		c.User.Site.RootName = "index"
	}
	if c.User.Site.Language == "" {
		c.User.Site.Language = "en"
	}
	if c.User.Navigation == nil {
		c.User.Navigation = map[string]string{}
	}

	exts := make([]string, 0, len(c.StaticExts))
	seen := make(map[string]struct{}, len(c.StaticExts))
	for _, ext := range c.StaticExts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	c.StaticExts = exts

	if c.RefreshDelay <= 0 {
		c.RefreshDelay = 100 * time.Millisecond
	}
}

func (c *BuildConfig) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.InputPath == c.OutputPath {
		return fmt.Errorf("%w: output directory must differ from input directory", ErrInvalidConfig)
	}
	if within(c.OutputPath, c.InputPath) {
		return fmt.Errorf("%w: output directory %s contains the input directory", ErrInvalidConfig, c.OutputPath)
	}
	if info, err := os.Stat(c.InputPath); err != nil {
		return fmt.Errorf("%w: input directory: %v", ErrInvalidConfig, err)
	} else if !info.IsDir() {
		return fmt.Errorf("%w: input %s is not a directory", ErrInvalidConfig, c.InputPath)
	}
	return nil
}

// HasStaticExt reports whether a file name carries one of the configured
// static extensions.
func (c *BuildConfig) HasStaticExt(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}
	for _, candidate := range c.StaticExts {
		if candidate == ext {
			return true
		}
	}
	return false
}

func within(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, "../")
}

func loadUserConfig(path string, into *UserConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read user config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, into)
	case ".json":
		err = json.Unmarshal(data, into)
	default:
		err = yaml.Unmarshal(data, into)
	}
	if err != nil {
		return fmt.Errorf("parse user config %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteUserConfig serializes cfg to path, choosing the format from the file
// extension.
func WriteUserConfig(path string, cfg UserConfig) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		data, err = toml.Marshal(cfg)
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	default:
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("encode user config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write user config: %w", err)
	}
	return nil
}

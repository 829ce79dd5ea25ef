// Package config handles okink configuration loading.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/benoitkugler/okink/inkdoc"
	"github.com/benoitkugler/okink/inkpdf"
	"github.com/benoitkugler/okink/inkraster"
	"github.com/benoitkugler/okink/server"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Output OutputConfig        `yaml:"output"`
	Render RenderConfig        `yaml:"render"`
	Server server.ServerConfig `yaml:"server"`
}

// OutputConfig holds the settings of the PDF writer.
type OutputConfig struct {
	Backend  string `yaml:"backend"` // "fpdf" or "contentstream"
	Title    string `yaml:"title"`
	Author   string `yaml:"author"`
	Creator  string `yaml:"creator"`
	Compress bool   `yaml:"compress"`
}

// RenderConfig holds the compositor settings.
type RenderConfig struct {
	ErrorMode  string  `yaml:"error_mode"` // "ignore" or "warn"
	PreviewDPI float64 `yaml:"preview_dpi"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Backend:  string(inkpdf.BackendFpdf),
			Title:    "Annotated document",
			Creator:  "okink",
			Compress: true,
		},
		Render: RenderConfig{
			ErrorMode:  inkdoc.IgnoreErrorMode.String(),
			PreviewDPI: inkraster.DefaultDPI,
		},
		Server: *server.DefaultServerConfig(),
	}
}

// Load loads configuration from a file. Missing
// fields keep their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns default if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return Load(path)
}

// Validate checks the enumerated fields.
func (c *Config) Validate() error {
	if _, err := inkpdf.ParseBackend(c.Output.Backend); err != nil {
		return err
	}
	if _, ok := inkdoc.ParseErrorMode(c.Render.ErrorMode); !ok {
		return fmt.Errorf("unknown error mode %q (expected ignore or warn)", c.Render.ErrorMode)
	}
	if !(c.Render.PreviewDPI >= 0 && c.Render.PreviewDPI <= inkraster.MaxDPI) {
		return fmt.Errorf("%w: %g", inkraster.ErrInvalidDPI, c.Render.PreviewDPI)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfigPath returns the default config file path:
// config.yaml in the working directory if present,
// else okink/config.yaml in the user config directory.
func DefaultConfigPath() string {
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "okink", "config.yaml")
}

// InitConfig creates a default config file if it doesn't exist.
func InitConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // Already exists
	}
	return Default().Save(path)
}

// Compositor returns the compositor settings. Warnings
// are sent to `logger`, or to the standard logger if nil.
// The config is assumed valid.
func (c *Config) Compositor(logger *log.Logger) inkdoc.Compositor {
	mode, _ := inkdoc.ParseErrorMode(c.Render.ErrorMode)
	return inkdoc.Compositor{ErrorMode: mode, Logger: logger}
}

// PDFOptions returns the settings used by inkpdf.RenderToPDF.
func (c *Config) PDFOptions(logger *log.Logger) inkpdf.Options {
	return inkpdf.Options{
		Info: inkdoc.Info{
			Title:   c.Output.Title,
			Author:  c.Output.Author,
			Creator: c.Output.Creator,
		},
		Backend:    inkpdf.Backend(c.Output.Backend),
		Compress:   c.Output.Compress,
		Compositor: c.Compositor(logger),
	}
}

// ServerOptions returns the rendering settings of the server.
func (c *Config) ServerOptions(logger *log.Logger) server.Options {
	return server.Options{PDF: c.PDFOptions(logger), PreviewDPI: c.Render.PreviewDPI, Logger: logger}
}

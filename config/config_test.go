package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benoitkugler/okink/inkdoc"
	"github.com/benoitkugler/okink/inkpdf"
	"github.com/benoitkugler/okink/inkraster"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %s", err)
	}
	opts := cfg.PDFOptions(nil)
	if opts.Backend != inkpdf.BackendFpdf || !opts.Compress || opts.Info.Creator != "okink" {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.Compositor.ErrorMode != inkdoc.IgnoreErrorMode {
		t.Errorf("unexpected error mode %s", opts.Compositor.ErrorMode)
	}
	if cfg.Server.Port == 0 || cfg.Server.MaxMessageSize == 0 {
		t.Errorf("server defaults not applied: %+v", cfg.Server)
	}
}

func TestLoadOverride(t *testing.T) {
	path := writeConfig(t, `output:
  backend: contentstream
  title: Corrections
render:
  error_mode: warn
  preview_dpi: 150
server:
  port: 9000
  read_timeout: 5s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Backend != "contentstream" || cfg.Output.Title != "Corrections" {
		t.Errorf("unexpected output config %+v", cfg.Output)
	}
	// untouched fields keep their default
	if cfg.Output.Creator != "okink" || !cfg.Output.Compress {
		t.Errorf("defaults should be kept: %+v", cfg.Output)
	}
	if cfg.Server.Port != 9000 || cfg.Server.ReadTimeout != 5*time.Second || cfg.Server.Host != "localhost" {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	so := cfg.ServerOptions(nil)
	if so.PreviewDPI != 150 || so.PDF.Compositor.ErrorMode != inkdoc.WarnErrorMode {
		t.Errorf("unexpected server options %+v", so)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load("/nonexistent/path/to/config.yaml"); err == nil || !strings.Contains(err.Error(), "failed to read config") {
		t.Errorf("expected read error, got %v", err)
	}

	path := writeConfig(t, "output:\n  backend: [\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Errorf("expected parse error, got %v", err)
	}

	path = writeConfig(t, "output:\n  backend: printpdf\n")
	if _, err := Load(path); !errors.Is(err, inkpdf.ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}

	path = writeConfig(t, "render:\n  error_mode: strict\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "strict") {
		t.Errorf("expected error mode error, got %v", err)
	}

	path = writeConfig(t, "render:\n  preview_dpi: 5000\n")
	if _, err := Load(path); !errors.Is(err, inkraster.ErrInvalidDPI) {
		t.Errorf("expected ErrInvalidDPI, got %v", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Backend != "fpdf" {
		t.Errorf("expected default config, got %+v", cfg.Output)
	}
	if _, err = LoadOrDefault(""); err != nil {
		t.Error(err)
	}
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "okink", "config.yaml")
	if err := InitConfig(path); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("generated config should load: %s", err)
	}
	if cfg.Server.ReadTimeout != Default().Server.ReadTimeout {
		t.Errorf("durations should round trip, got %s", cfg.Server.ReadTimeout)
	}

	// an existing file is kept
	if err = os.WriteFile(path, []byte("output:\n  title: mine\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err = InitConfig(path); err != nil {
		t.Fatal(err)
	}
	if cfg, _ = Load(path); cfg.Output.Title != "mine" {
		t.Errorf("existing config was overwritten")
	}
}

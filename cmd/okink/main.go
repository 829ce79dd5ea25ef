// okink - annotation to PDF compositor
//
// okink merges freehand ink strokes, captured on top of scanned pages,
// into a paginated PDF document. Requests come from a JSON file, a folder
// of images, or over HTTP/WebSocket when running as a server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/benoitkugler/okink/config"
	"github.com/benoitkugler/okink/inkdoc"
	"github.com/benoitkugler/okink/inkpath"
	"github.com/benoitkugler/okink/inkpdf"
	"github.com/benoitkugler/okink/inkraster"
	"github.com/benoitkugler/okink/server"
)

const version = "0.3.0"

func main() {
	configPath := flag.String("config", "", "Config file path (default: ~/.config/okink/config.yaml)")
	initConfig := flag.Bool("init", false, "Initialize default config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	output := flag.String("o", "", "Output PDF file")
	fromImages := flag.Bool("images", false, "Arguments are image files, one page each")
	dir := flag.String("dir", "", "Load every image of this folder, sorted by name")
	preview := flag.String("preview", "", "Also write a PNG preview of each page in this folder")
	backend := flag.String("backend", "", "PDF backend: fpdf or contentstream (overrides config)")
	warn := flag.Bool("warn", false, "Log ignored backgrounds and invalid colors")
	serve := flag.Bool("serve", false, "Run the HTTP/WebSocket server")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: okink [flags] -o out.pdf request.json|-\n"+
			"       okink [flags] -o out.pdf -images scan1.png scan2.png ...\n"+
			"       okink [flags] -o out.pdf -dir scans/\n"+
			"       okink [flags] -serve\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("okink %s\n", version)
		os.Exit(0)
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}

	if *initConfig {
		if err := config.InitConfig(cfgPath); err != nil {
			fatalf("Failed to initialize config: %v", err)
		}
		fmt.Printf("Config initialized at: %s\n", cfgPath)
		os.Exit(0)
	}

	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	if *backend != "" {
		cfg.Output.Backend = *backend
	}
	if *warn {
		cfg.Render.ErrorMode = inkdoc.WarnErrorMode.String()
	}
	if err = cfg.Validate(); err != nil {
		fatalf("Invalid settings: %v", err)
	}

	if *serve {
		runServer(cfg)
		return
	}

	if *output == "" {
		flag.Usage()
		os.Exit(2)
	}

	req, err := loadRequest(*dir, *fromImages, flag.Args(), os.Stdin)
	if err != nil {
		fatalf("Failed to load request: %v", err)
	}

	logger := log.New(os.Stderr, "okink: ", 0)
	report, err := inkpdf.RenderToFile(req, *output, cfg.PDFOptions(logger))
	if err != nil {
		fatalf("Failed to save PDF: %v", err)
	}
	fmt.Printf("Saved %d pages to %s\n", len(report.Pages), *output)
	if report.Degraded() {
		fmt.Println("Some inputs were ignored (run with -warn for details)")
	}

	if *preview != "" {
		if err = writePreviews(req, *preview, cfg.Render.PreviewDPI, cfg.Compositor(logger)); err != nil {
			fatalf("Failed to write previews: %v", err)
		}
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// loadRequest builds the request from the command line arguments.
func loadRequest(dir string, fromImages bool, args []string, stdin io.Reader) (*inkpath.Request, error) {
	switch {
	case dir != "":
		return inkpath.LoadFolder(dir)
	case fromImages:
		return inkpath.LoadImages(args)
	}

	if len(args) != 1 {
		return nil, errors.New("expected exactly one request file (or - for stdin)")
	}
	var (
		content []byte
		err     error
	)
	if args[0] == "-" {
		content, err = ioutil.ReadAll(stdin)
	} else {
		content, err = ioutil.ReadFile(args[0])
	}
	if err != nil {
		return nil, err
	}
	var req inkpath.Request
	if err = json.Unmarshal(content, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &req, nil
}

// writePreviews writes page-001.png, page-002.png, ... in `dir`.
func writePreviews(req *inkpath.Request, dir string, dpi float64, comp inkdoc.Compositor) error {
	pages, _, err := inkraster.RenderPages(req, dpi, comp)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for i, img := range pages {
		path := filepath.Join(dir, fmt.Sprintf("page-%03d.png", i+1))
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		err = inkraster.EncodePNG(f, img)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	fmt.Printf("Wrote %d previews to %s\n", len(pages), dir)
	return nil
}

func runServer(cfg *config.Config) {
	srv := server.New(&cfg.Server, cfg.ServerOptions(nil))
	if err := srv.Start(); err != nil {
		fatalf("%v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\nShutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		fatalf("Shutdown failed: %v", err)
	}
}

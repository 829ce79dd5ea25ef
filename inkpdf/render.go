package inkpdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/benoitkugler/okink/inkdoc"
	"github.com/benoitkugler/okink/inkpath"
	"github.com/benoitkugler/okink/inkpdf/alt"
)

// Backend names a PDF writer.
type Backend string

const (
	// BackendFpdf uses github.com/jung-kurt/gofpdf (the default).
	BackendFpdf Backend = "fpdf"
	// BackendContentStream uses github.com/benoitkugler/pdf.
	BackendContentStream Backend = "contentstream"
)

// ErrUnknownBackend is returned for unsupported Backend values.
var ErrUnknownBackend = errors.New("unknown PDF backend")

// ParseBackend checks `s` against the known backends.
// The empty string selects BackendFpdf.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case "":
		return BackendFpdf, nil
	case BackendFpdf, BackendContentStream:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// Options controls the output of RenderToPDF.
type Options struct {
	Info       inkdoc.Info
	Backend    Backend
	Compress   bool
	Compositor inkdoc.Compositor // error mode, logger and image decoder
}

// document is a Driver able to serialize its content.
type document interface {
	inkdoc.Driver
	Output(w io.Writer) error
}

func newDocument(opts Options) (document, error) {
	backend, err := ParseBackend(string(opts.Backend))
	if err != nil {
		return nil, err
	}
	if backend == BackendContentStream {
		return alt.NewRenderer(opts.Info, opts.Compress), nil
	}
	return NewRenderer(opts.Info, opts.Compress), nil
}

// RenderToPDF composes `req` and writes the resulting PDF to `w`.
// Nothing is written if the request is invalid.
func RenderToPDF(req *inkpath.Request, w io.Writer, opts Options) (*inkdoc.Report, error) {
	doc, err := newDocument(opts)
	if err != nil {
		return nil, err
	}
	report, err := opts.Compositor.Compose(req, doc)
	if err != nil {
		return nil, err
	}
	if err = doc.Output(w); err != nil {
		return nil, err
	}
	return report, nil
}

// RenderToFile composes `req` in memory, then writes it to `path`.
// The file is replaced atomically: on failure, an existing
// file is left untouched and no partial output is kept.
func RenderToFile(req *inkpath.Request, path string, opts Options) (*inkdoc.Report, error) {
	var buf bytes.Buffer
	report, err := RenderToPDF(req, &buf, opts)
	if err != nil {
		return nil, err
	}
	if err = writeFileAtomic(path, buf.Bytes()); err != nil {
		return nil, err
	}
	return report, nil
}

func writeFileAtomic(path string, content []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := ioutil.TempFile(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	tmpName := tmp.Name()
	err = tmp.Chmod(0644)
	if err == nil {
		_, err = tmp.Write(content)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

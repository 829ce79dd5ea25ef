package inkpath

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders
	_ "image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedFormat is returned for files whose extension
	// is not a known image format.
	ErrUnsupportedFormat = errors.New("unsupported file type")

	// ErrNoImages is returned when no file of a batch could be loaded.
	ErrNoImages = errors.New("no supported image files found")
)

var imageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true,
	"bmp": true, "tif": true, "tiff": true, "webp": true,
}

func extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// IsImageFile returns true if the extension of path
// is supported by LoadImage.
func IsImageFile(path string) bool { return imageExtensions[extension(path)] }

// LoadImage reads an image file and returns a page without strokes,
// sized after the image, together with the encoded image content,
// to be used as background.
func LoadImage(path string) (Page, []byte, error) {
	if !IsImageFile(path) {
		return Page{}, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, extension(path))
	}
	content, err := ioutil.ReadFile(path)
	if err != nil {
		return Page{}, nil, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return Page{}, nil, fmt.Errorf("invalid image %s: %w", path, err)
	}
	return Page{Width: uint32(cfg.Width), Height: uint32(cfg.Height)}, content, nil
}

// number of files read at the same time by LoadImages
var maxLoaders = runtime.NumCPU()

// replaced in tests
var loadImage = LoadImage

// LoadImages loads the given files in parallel, one page per image.
// Files which can't be loaded are skipped; the order of
// the remaining pages follows `paths`.
func LoadImages(paths []string) (*Request, error) {
	if len(paths) == 0 {
		return nil, ErrNoImages
	}

	type loaded struct {
		page Page
		bg   []byte
		ok   bool
	}
	results := make([]loaded, len(paths))
	indices := make(chan int)
	workers := maxLoaders
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				page, bg, err := loadImage(paths[i])
				if err != nil {
					continue
				}
				page.Number = i
				results[i] = loaded{page: page, bg: bg, ok: true}
			}
		}()
	}
	for i := range paths {
		indices <- i
	}
	close(indices)
	wg.Wait()

	req := &Request{OriginalPath: paths[0]}
	for _, res := range results {
		if !res.ok {
			continue
		}
		req.Pages = append(req.Pages, res.page)
		req.Backgrounds = append(req.Backgrounds, res.bg)
	}
	if len(req.Pages) == 0 {
		return nil, ErrNoImages
	}
	return req, nil
}

// FolderEntry describes one item of a directory listing.
type FolderEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

// ListFolder lists the content of `dir`. If `ext` is not empty, only files
// with this extension (without dot, case insensitive) are returned.
// Directories are always listed, and come first; entries are then sorted by name.
func ListFolder(dir, ext string) ([]FolderEntry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))

	var out []FolderEntry
	for _, entry := range entries {
		if !entry.IsDir() && ext != "" && extension(entry.Name()) != ext {
			continue
		}
		out = append(out, FolderEntry{
			Name:  entry.Name(),
			Path:  filepath.Join(dir, entry.Name()),
			IsDir: entry.IsDir(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDir != out[j].IsDir {
			return out[i].IsDir
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// LoadFolder loads every supported image of `dir`, sorted by name.
func LoadFolder(dir string) (*Request, error) {
	entries, err := ListFolder(dir, "")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if !entry.IsDir && IsImageFile(entry.Name) {
			paths = append(paths, entry.Path)
		}
	}
	return LoadImages(paths)
}

package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// pdftoppm names pages <prefix>-<n>.png, zero-padding n to the page count width
var pageFilePattern = regexp.MustCompile(`-(\d+)\.png$`)

// Poppler renders pages by invoking pdftoppm on a scratch copy of the document
type Poppler struct {
	cfg config
}

// NewPoppler creates a pdftoppm-backed rasterizer
func NewPoppler(opts ...Option) *Poppler {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Poppler{cfg: cfg}
}

// DPI returns the configured render resolution
func (p *Poppler) DPI() int {
	return p.cfg.dpi
}

// BinaryPath returns the configured pdftoppm path
func (p *Poppler) BinaryPath() string {
	return p.cfg.binaryPath
}

// Available reports whether the configured binary can be resolved
func (p *Poppler) Available() bool {
	_, err := exec.LookPath(p.cfg.binaryPath)
	return err == nil
}

// Rasterize writes data to a scratch directory, renders every page to PNG and
// decodes the results in page order. The scratch directory is removed on every
// return path.
func (p *Poppler) Rasterize(ctx context.Context, data []byte) ([]image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("document is empty")
	}

	if p.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.timeout)
		defer cancel()
	}

	workDir, err := os.MkdirTemp(p.cfg.tempDir, "raster-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(inputPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write scratch document: %w", err)
	}

	prefix := filepath.Join(workDir, "page")
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.cfg.binaryPath, "-r", strconv.Itoa(p.cfg.dpi), "-png", inputPath, prefix)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("pdftoppm interrupted: %w", ctxErr)
		}
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	files, err := pageFiles(workDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages")
	}

	images := make([]image.Image, 0, len(files))
	for _, file := range files {
		img, err := decodePNG(file)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// pageFiles lists rendered page files sorted by page number
func pageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}

	type pageFile struct {
		number int
		path   string
	}
	var pages []pageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pageFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pages = append(pages, pageFile{number: n, path: filepath.Join(dir, entry.Name())})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].number < pages[j].number })

	paths := make([]string, len(pages))
	for i, p := range pages {
		paths[i] = p.path
	}
	return paths, nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rendered page: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered page %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

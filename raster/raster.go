// Package raster turns uploaded documents into page images for OCR.
//
// Single images are decoded in-process. PDFs are validated with pdfcpu and
// rendered page by page with poppler's pdftoppm, the same tool pdf2image
// drives.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/wudi/ocrconvert/document"
	"github.com/wudi/ocrconvert/observability"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultDPI is the resolution PDF pages are rendered at.
const DefaultDPI = 200

// ErrUnsupportedKind is returned for a Document kind the rasterizer cannot handle.
var ErrUnsupportedKind = errors.New("raster: unsupported document kind")

// Rasterizer converts a Document into its ordered pages.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc document.Document) ([]document.Page, error)
}

// runFunc executes an external command; swapped out in tests.
type runFunc func(ctx context.Context, name string, args ...string) error

// Poppler is the default Rasterizer.
type Poppler struct {
	dpi       int
	pdftoppm  string
	tempDir   string
	logger    observability.Logger
	run       runFunc
	pageCount func(data []byte) (int, error)
}

// Option configures a Poppler rasterizer.
type Option func(*Poppler)

// WithDPI sets the PDF render resolution.
func WithDPI(dpi int) Option {
	return func(p *Poppler) {
		if dpi > 0 {
			p.dpi = dpi
		}
	}
}

// WithPdftoppm sets the pdftoppm binary path.
func WithPdftoppm(path string) Option {
	return func(p *Poppler) {
		if path != "" {
			p.pdftoppm = path
		}
	}
}

// WithTempDir sets the parent directory for per-call scratch directories.
func WithTempDir(dir string) Option {
	return func(p *Poppler) { p.tempDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(p *Poppler) {
		if l != nil {
			p.logger = l
		}
	}
}

// New returns a Poppler rasterizer.
func New(opts ...Option) *Poppler {
	p := &Poppler{
		dpi:       DefaultDPI,
		pdftoppm:  "pdftoppm",
		logger:    observability.NopLogger{},
		run:       runCommand,
		pageCount: CountPages,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DPI reports the render resolution.
func (p *Poppler) DPI() int { return p.dpi }

// Rasterize implements Rasterizer.
func (p *Poppler) Rasterize(ctx context.Context, doc document.Document) ([]document.Page, error) {
	switch doc.Kind {
	case document.KindImage:
		img, err := DecodeImage(doc.Data)
		if err != nil {
			return nil, err
		}
		return []document.Page{{Index: 0, Image: img}}, nil
	case document.KindPDF:
		return p.rasterizePDF(ctx, doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, doc.Kind)
	}
}

// DecodeImage decodes a single raster image in any registered format.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// CountPages validates a PDF with pdfcpu and returns its page count.
func CountPages(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	return ctx.PageCount, nil
}

func (p *Poppler) rasterizePDF(ctx context.Context, doc document.Document) ([]document.Page, error) {
	total, err := p.pageCount(doc.Data)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		p.logger.Debug("pdf has no pages", observability.String("name", doc.Name))
		return []document.Page{}, nil
	}

	workDir, err := os.MkdirTemp(p.tempDir, "ocrconvert-")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	in := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(in, doc.Data, 0o600); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	prefix := filepath.Join(workDir, "page")
	args := []string{"-png", "-r", strconv.Itoa(p.dpi), in, prefix}
	if err := p.run(ctx, p.pdftoppm, args...); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w", err)
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	if len(matches) != total {
		return nil, fmt.Errorf("rendered %d pages, expected %d", len(matches), total)
	}
	sort.Slice(matches, func(i, j int) bool {
		return pageIndexFromName(matches[i]) < pageIndexFromName(matches[j])
	})

	pages := make([]document.Page, 0, len(matches))
	for i, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i+1, err)
		}
		img, err := DecodeImage(data)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		pages = append(pages, document.Page{Index: i, Image: img})
	}
	p.logger.Debug("pdf rasterized",
		observability.String("name", doc.Name),
		observability.Int("pages", len(pages)),
		observability.Int("dpi", p.dpi),
	)
	return pages, nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// pageIndexFromName parses the one-based page number pdftoppm appends to the
// output prefix ("page-7.png", "page-007.png") and returns it zero-based.
func pageIndexFromName(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	idx := strings.LastIndex(base, "-")
	if idx >= 0 {
		if v, err := strconv.Atoi(base[idx+1:]); err == nil {
			return v - 1
		}
	}
	return 0
}

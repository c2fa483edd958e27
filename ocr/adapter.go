package ocr

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/wudi/ocrconvert/document"
)

// InputOption mutates an OCR input generated from a page.
type InputOption func(*Input)

// WithLanguages sets language hints on the OCR input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithRegion sets the recognition region on the OCR input.
func WithRegion(region Region) InputOption {
	return func(in *Input) {
		if region.IsEmpty() {
			in.Region = nil
			return
		}
		in.Region = &region
	}
}

// WithDPI overrides the DPI value on the OCR input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata sets provider-specific metadata for the input.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// InputFromPage converts a raster page into an OCR input using PNG encoding.
// The ID is derived from the page index so results can be correlated.
func InputFromPage(page document.Page, opts ...InputOption) (Input, error) {
	if page.Image == nil {
		return Input{}, fmt.Errorf("page %d has no image", page.Index)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, page.Image); err != nil {
		return Input{}, fmt.Errorf("encode page %d: %w", page.Index, err)
	}
	in := Input{
		ID:        fmt.Sprintf("page-%d", page.Index),
		Image:     buf.Bytes(),
		Format:    ImageFormatPNG,
		PageIndex: page.Index,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}

package ocr

import (
	"bytes"
	"image"
	"image/png"
	"reflect"
	"testing"

	"github.com/wudi/ocrconvert/document"
)

func testPage(index, width int) document.Page {
	return document.Page{Index: index, Image: image.NewGray(image.Rect(0, 0, width, 1))}
}

func TestInputFromPage(t *testing.T) {
	region := Region{X: 0, Y: 0, Width: 1, Height: 1}
	meta := map[string]string{"psm": "6"}

	in, err := InputFromPage(
		testPage(2, 3),
		WithLanguages("eng", "spa"),
		WithRegion(region),
		WithDPI(300),
		WithMetadata(meta),
	)
	if err != nil {
		t.Fatalf("InputFromPage() error = %v", err)
	}
	if in.Format != ImageFormatPNG {
		t.Fatalf("unexpected format: %v", in.Format)
	}
	if in.PageIndex != 2 {
		t.Fatalf("unexpected page index: %d", in.PageIndex)
	}
	if got := in.ID; got != "page-2" {
		t.Fatalf("unexpected id: %s", got)
	}
	img, err := png.Decode(bytes.NewReader(in.Image))
	if err != nil {
		t.Fatalf("encoded image is not png: %v", err)
	}
	if img.Bounds().Dx() != 3 {
		t.Fatalf("unexpected encoded width: %d", img.Bounds().Dx())
	}
	if !reflect.DeepEqual(in.Languages, []string{"eng", "spa"}) {
		t.Fatalf("unexpected languages: %+v", in.Languages)
	}
	if in.Region == nil || *in.Region != region {
		t.Fatalf("unexpected region: %#v", in.Region)
	}
	if in.DPI != 300 {
		t.Fatalf("unexpected dpi: %d", in.DPI)
	}
	meta["psm"] = "7"
	if in.Metadata["psm"] != "6" {
		t.Fatalf("metadata was not copied: %+v", in.Metadata)
	}
}

func TestInputFromPageWithoutImage(t *testing.T) {
	if _, err := InputFromPage(document.Page{Index: 1}); err == nil {
		t.Fatalf("expected error for page without image")
	}
}

func TestWithRegionClearsEmpty(t *testing.T) {
	in := Input{Region: &Region{X: 1, Y: 1, Width: 2, Height: 2}}
	WithRegion(Region{})(&in)
	if in.Region != nil {
		t.Fatalf("expected nil region for empty input, got %#v", in.Region)
	}
}

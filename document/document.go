// Package document holds the input model shared by the conversion stages:
// the uploaded Document and the raster Pages derived from it.
package document

import (
	"bytes"
	"image"
	"net/http"
	"path/filepath"
	"strings"
)

// Kind declares how the bytes of a Document are to be interpreted.
type Kind string

const (
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
)

// Document is an uploaded file. It is not modified once constructed.
type Document struct {
	Name string
	Kind Kind
	Data []byte
}

// New returns a Document whose kind is taken from the filename extension,
// falling back to content sniffing when the extension is not conclusive.
func New(name string, data []byte) Document {
	kind, ok := KindFromFilename(name)
	if !ok {
		kind = SniffKind(data)
	}
	return Document{Name: name, Kind: kind, Data: data}
}

// Page is one raster image of a Document. Index is zero-based.
type Page struct {
	Index int
	Image image.Image
}

// Extension returns the lower-cased filename extension without the dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// KindFromFilename maps a filename extension to a Kind. The boolean is false
// when the extension is empty.
func KindFromFilename(name string) (Kind, bool) {
	ext := Extension(name)
	switch ext {
	case "":
		return "", false
	case "pdf":
		return KindPDF, true
	default:
		return KindImage, true
	}
}

var pdfMagic = []byte("%PDF-")

// SniffKind inspects the leading bytes. Anything that is not a PDF is
// treated as an image and left for the decoder to reject.
func SniffKind(data []byte) Kind {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if bytes.Contains(head, pdfMagic) {
		return KindPDF
	}
	if http.DetectContentType(head) == "application/pdf" {
		return KindPDF
	}
	return KindImage
}

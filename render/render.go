// Package render serializes extracted text into the downloadable output
// containers: plain text, a Word document, or a single-page PDF.
package render

import (
	"fmt"
	"strings"
)

// Format identifies an output container.
type Format string

const (
	FormatText Format = "txt"
	FormatDocx Format = "docx"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps a requested format tag to a Format. Unknown or empty tags
// fall back to plain text.
func ParseFormat(tag string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(tag))) {
	case FormatDocx:
		return FormatDocx
	case FormatPDF:
		return FormatPDF
	default:
		return FormatText
	}
}

// MIMEType returns the content type of the container.
func (f Format) MIMEType() string {
	switch f {
	case FormatDocx:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/plain"
	}
}

// Extension returns the filename extension without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatDocx, FormatPDF:
		return string(f)
	default:
		return string(FormatText)
	}
}

// BaseFilename is the stem of every artifact filename.
const BaseFilename = "extracted_text"

// Artifact is a rendered output ready to be returned to a caller.
type Artifact struct {
	Data     []byte
	MIMEType string
	Filename string
}

// Renderer produces Artifacts.
type Renderer struct {
	pdf      PDFOptions
	producer string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithPDFOptions sets the PDF layout.
func WithPDFOptions(o PDFOptions) Option {
	return func(r *Renderer) { r.pdf = o }
}

// WithProducer sets the application name recorded in document metadata.
func WithProducer(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.producer = name
		}
	}
}

// New returns a Renderer with default PDF layout.
func New(opts ...Option) *Renderer {
	r := &Renderer{pdf: DefaultPDFOptions(), producer: "ocrconvert"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PDFOptions returns the layout used for PDF output.
func (r *Renderer) PDFOptions() PDFOptions { return r.pdf.withDefaults() }

// Render serializes text into the requested format.
func (r *Renderer) Render(text string, format Format) (Artifact, error) {
	format = ParseFormat(string(format))
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatDocx:
		data, err = r.renderDocx(text)
	case FormatPDF:
		data, err = r.renderPDF(text)
	default:
		data = []byte(text)
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("render %s: %w", format, err)
	}
	return Artifact{
		Data:     data,
		MIMEType: format.MIMEType(),
		Filename: BaseFilename + "." + format.Extension(),
	}, nil
}

// Render serializes text with a default Renderer.
func Render(text string, format Format) (Artifact, error) {
	return New().Render(text, format)
}

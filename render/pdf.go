package render

import (
	"bytes"
	"strings"
)

// PDFOptions controls the single-page text layout.
type PDFOptions struct {
	PageWidth  float64
	PageHeight float64
	// OriginX and OriginY locate the baseline of the first line.
	OriginX  float64
	OriginY  float64
	FontSize float64
	// Leading is the baseline-to-baseline distance.
	Leading float64
	// MaxLineWidth is the width a wrapped line must stay strictly below.
	MaxLineWidth float64
	// PreserveBlankLines emits an empty row for every empty paragraph instead
	// of dropping it.
	PreserveBlankLines bool
}

// US Letter in points.
const (
	LetterWidth  = 612
	LetterHeight = 792
)

// DefaultPDFOptions lays text out on US Letter in 12pt Helvetica starting
// at (40, 750) with lines kept under 500pt.
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageWidth:    LetterWidth,
		PageHeight:   LetterHeight,
		OriginX:      40,
		OriginY:      750,
		FontSize:     12,
		Leading:      14.4,
		MaxLineWidth: 500,
	}
}

func (o PDFOptions) withDefaults() PDFOptions {
	d := DefaultPDFOptions()
	if o.PageWidth <= 0 {
		o.PageWidth = d.PageWidth
	}
	if o.PageHeight <= 0 {
		o.PageHeight = d.PageHeight
	}
	if o.FontSize <= 0 {
		o.FontSize = d.FontSize
	}
	if o.Leading <= 0 {
		o.Leading = o.FontSize * 1.2
	}
	if o.MaxLineWidth <= 0 {
		o.MaxLineWidth = d.MaxLineWidth
	}
	return o
}

// MeasureFunc reports the rendered width of s in points.
type MeasureFunc func(s string) float64

// WrapLines breaks text into output lines with the options' font metrics.
func (o PDFOptions) WrapLines(text string) []string {
	o = o.withDefaults()
	size := o.FontSize
	return wrapLines(text, func(s string) float64 { return helveticaWidth(s, size) }, o.MaxLineWidth, o.PreserveBlankLines)
}

// wrapLines is a greedy word wrap. Each paragraph (text between newlines) is
// split on whitespace and words are appended to the current line while the
// line measures below maxWidth. Words are never broken, so a single word
// wider than maxWidth becomes a line of its own.
func wrapLines(text string, measure MeasureFunc, maxWidth float64, keepBlank bool) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			if keepBlank {
				lines = append(lines, "")
			}
			continue
		}
		current := ""
		for _, word := range words {
			trial := word
			if current != "" {
				trial = current + " " + word
			}
			if measure(trial) < maxWidth || current == "" {
				current = trial
				continue
			}
			lines = append(lines, current)
			current = word
		}
		lines = append(lines, current)
	}
	return lines
}

// contentStream draws lines top-down starting at the origin.
func (o PDFOptions) contentStream(lines []string) []byte {
	var b bytes.Buffer
	b.WriteString("BT\n")
	b.WriteString("/F1 " + formatNumber(o.FontSize) + " Tf\n")
	b.WriteString(formatNumber(o.Leading) + " TL\n")
	b.WriteString(formatNumber(o.OriginX) + " " + formatNumber(o.OriginY) + " Td\n")
	for _, line := range lines {
		if line != "" {
			b.Write(escapeLiteral(encodeWinAnsi(line)))
			b.WriteString(" Tj\n")
		}
		b.WriteString("T*\n")
	}
	b.WriteString("ET")
	return b.Bytes()
}

func (r *Renderer) renderPDF(text string) ([]byte, error) {
	o := r.pdf.withDefaults()
	lines := o.WrapLines(text)

	w := &pdfWriter{}
	catalog := w.reserve()
	pages := w.reserve()
	font := w.add(pdfDict{
		"Type":     pdfName("Font"),
		"Subtype":  pdfName("Type1"),
		"BaseFont": pdfName("Helvetica"),
		"Encoding": pdfName("WinAnsiEncoding"),
	})
	content := w.add(pdfStream{dict: pdfDict{}, data: o.contentStream(lines)})
	page := w.add(pdfDict{
		"Type":     pdfName("Page"),
		"Parent":   pages,
		"MediaBox": pdfArray{pdfInt(0), pdfInt(0), pdfReal(o.PageWidth), pdfReal(o.PageHeight)},
		"Resources": pdfDict{
			"Font": pdfDict{"F1": font},
		},
		"Contents": content,
	})
	w.set(pages, pdfDict{
		"Type":  pdfName("Pages"),
		"Kids":  pdfArray{page},
		"Count": pdfInt(1),
	})
	w.set(catalog, pdfDict{
		"Type":  pdfName("Catalog"),
		"Pages": pages,
	})
	info := w.add(pdfDict{
		"Producer": pdfString(encodeWinAnsi(r.producer)),
		"Title":    pdfString("Extracted Text"),
	})
	return w.bytes(catalog, info)
}

package convert

import "strings"

// Aggregate joins per-page OCR output in page order, each page followed by a
// single newline. Empty pages still contribute their newline.
func Aggregate(pages []string) string {
	n := 0
	for _, p := range pages {
		n += len(p) + 1
	}
	var b strings.Builder
	b.Grow(n)
	for _, p := range pages {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return b.String()
}

package render

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
)

// A minimal PDF object model: just enough to serialize a catalog, a page
// tree, one core font and content streams.

type pdfObject interface {
	writeTo(b *bytes.Buffer)
}

type pdfName string

func (n pdfName) writeTo(b *bytes.Buffer) { b.WriteString("/" + string(n)) }

type pdfInt int64

func (n pdfInt) writeTo(b *bytes.Buffer) { b.WriteString(strconv.FormatInt(int64(n), 10)) }

type pdfReal float64

func (n pdfReal) writeTo(b *bytes.Buffer) { b.WriteString(formatNumber(float64(n))) }

type pdfRef int

func (r pdfRef) writeTo(b *bytes.Buffer) { fmt.Fprintf(b, "%d 0 R", int(r)) }

// pdfString is a literal string; bytes are written escaped, not re-encoded.
type pdfString []byte

func (s pdfString) writeTo(b *bytes.Buffer) { b.Write(escapeLiteral(s)) }

type pdfArray []pdfObject

func (a pdfArray) writeTo(b *bytes.Buffer) {
	b.WriteByte('[')
	for i, it := range a {
		if i > 0 {
			b.WriteByte(' ')
		}
		it.writeTo(b)
	}
	b.WriteByte(']')
}

type pdfDict map[string]pdfObject

func (d pdfDict) writeTo(b *bytes.Buffer) {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("<<")
	for _, k := range keys {
		b.WriteString("/" + k + " ")
		d[k].writeTo(b)
	}
	b.WriteString(">>")
}

type pdfStream struct {
	dict pdfDict
	data []byte
}

func (s pdfStream) writeTo(b *bytes.Buffer) {
	dict := pdfDict{}
	for k, v := range s.dict {
		dict[k] = v
	}
	dict["Length"] = pdfInt(len(s.data))
	dict.writeTo(b)
	b.WriteString("stream\n")
	b.Write(s.data)
	b.WriteString("\nendstream")
}

// pdfWriter numbers objects in the order they are reserved and emits them
// with a classic cross-reference table.
type pdfWriter struct {
	objects []pdfObject
}

// reserve allocates an object number to be filled in later with set.
func (w *pdfWriter) reserve() pdfRef {
	w.objects = append(w.objects, nil)
	return pdfRef(len(w.objects))
}

func (w *pdfWriter) set(ref pdfRef, obj pdfObject) {
	w.objects[int(ref)-1] = obj
}

func (w *pdfWriter) add(obj pdfObject) pdfRef {
	ref := w.reserve()
	w.set(ref, obj)
	return ref
}

func (w *pdfWriter) bytes(root, info pdfRef) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")

	offsets := make([]int, len(w.objects))
	for i, obj := range w.objects {
		if obj == nil {
			return nil, fmt.Errorf("pdf object %d reserved but never set", i+1)
		}
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		obj.writeTo(&buf)
		buf.WriteString("\nendobj\n")
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(w.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	trailer := pdfDict{
		"Size": pdfInt(len(w.objects) + 1),
		"Root": root,
	}
	if info > 0 {
		trailer["Info"] = info
	}
	buf.WriteString("trailer\n")
	trailer.writeTo(&buf)
	fmt.Fprintf(&buf, "\nstartxref\n%d\n", xrefOffset)
	buf.WriteString("%%EOF\n")
	return buf.Bytes(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escapeLiteral wraps s in parentheses, escaping the delimiters and the
// backslash. Line breaks inside strings are escaped so the content stream
// stays one operator per line.
func escapeLiteral(s []byte) []byte {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '(')
	for _, c := range s {
		switch c {
		case '(', ')', '\\':
			out = append(out, '\\', c)
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		default:
			out = append(out, c)
		}
	}
	return append(out, ')')
}

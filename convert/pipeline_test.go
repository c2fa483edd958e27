package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/wudi/ocrconvert/document"
	"github.com/wudi/ocrconvert/observability"
	"github.com/wudi/ocrconvert/ocr"
	"github.com/wudi/ocrconvert/render"
)

// fakeRasterizer yields n blank pages whose widths encode their index.
type fakeRasterizer struct {
	n   int
	err error
}

func (f fakeRasterizer) Rasterize(ctx context.Context, doc document.Document) ([]document.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	pages := make([]document.Page, f.n)
	for i := range pages {
		pages[i] = document.Page{Index: i, Image: image.NewGray(image.Rect(0, 0, i+1, 1))}
	}
	return pages, nil
}

// scriptEngine returns texts[width-1] for each page.
type scriptEngine struct {
	texts []string
	err   error
}

func (e scriptEngine) Name() string { return "script" }

func (e scriptEngine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if e.err != nil {
		return ocr.Result{}, e.err
	}
	img, err := png.Decode(bytes.NewReader(in.Image))
	if err != nil {
		return ocr.Result{}, err
	}
	return ocr.Result{InputID: in.ID, PlainText: e.texts[img.Bounds().Dx()-1]}, nil
}

type recordingTracer struct {
	mu    sync.Mutex
	spans []string
	errs  map[string]error
}

func (r *recordingTracer) StartSpan(ctx context.Context, name string) (context.Context, observability.Span) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spans = append(r.spans, name)
	return ctx, &recordingSpan{tracer: r, name: name}
}

type recordingSpan struct {
	tracer *recordingTracer
	name   string
}

func (s *recordingSpan) SetTag(string, interface{}) {}

func (s *recordingSpan) SetError(err error) {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	if s.tracer.errs == nil {
		s.tracer.errs = make(map[string]error)
	}
	s.tracer.errs[s.name] = err
}

func (s *recordingSpan) Finish() {}

func newPipeline(texts ...string) *Pipeline {
	return &Pipeline{
		Rasterizer: fakeRasterizer{n: len(texts)},
		Engine:     scriptEngine{texts: texts},
		Renderer:   render.New(),
	}
}

func TestAggregate(t *testing.T) {
	cases := []struct {
		name  string
		pages []string
		want  string
	}{
		{"none", nil, ""},
		{"single", []string{"hello"}, "hello\n"},
		{"ordered", []string{"A", "B", "C"}, "A\nB\nC\n"},
		{"empty page keeps newline", []string{"A", "", "C"}, "A\n\nC\n"},
		{"existing newline kept", []string{"x\n"}, "x\n\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Aggregate(tc.pages); got != tc.want {
				t.Fatalf("Aggregate(%q) = %q, want %q", tc.pages, got, tc.want)
			}
		})
	}
}

func TestExtractSingleImage(t *testing.T) {
	got, err := newPipeline("Hello World").Extract(context.Background(), document.New("scan.png", nil))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "Hello World\n" {
		t.Fatalf("Extract() = %q", got)
	}
}

func TestExtractPagesInOrder(t *testing.T) {
	p := newPipeline("A", "B", "C", "D", "E")
	p.Concurrency = 3
	got, err := p.Extract(context.Background(), document.New("scan.pdf", nil))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "A\nB\nC\nD\nE\n" {
		t.Fatalf("Extract() = %q", got)
	}
}

func TestExtractZeroPages(t *testing.T) {
	got, err := newPipeline().Extract(context.Background(), document.New("empty.pdf", nil))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "" {
		t.Fatalf("Extract() = %q, want empty", got)
	}
}

func TestConvertFormats(t *testing.T) {
	p := newPipeline("hello world")
	doc := document.New("scan.jpg", nil)

	txt, err := p.Convert(context.Background(), doc, render.FormatText)
	if err != nil {
		t.Fatalf("Convert(txt) error = %v", err)
	}
	if string(txt.Data) != "hello world\n" || txt.Filename != "extracted_text.txt" || txt.MIMEType != "text/plain" {
		t.Fatalf("unexpected txt artifact: %+v", txt)
	}

	docx, err := p.Convert(context.Background(), doc, render.FormatDocx)
	if err != nil {
		t.Fatalf("Convert(docx) error = %v", err)
	}
	if docx.Filename != "extracted_text.docx" {
		t.Fatalf("unexpected docx filename: %s", docx.Filename)
	}
	zr, err := zip.NewReader(bytes.NewReader(docx.Data), int64(len(docx.Data)))
	if err != nil {
		t.Fatalf("docx is not a zip: %v", err)
	}
	var found bool
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open document.xml: %v", err)
		}
		body, _ := io.ReadAll(rc)
		rc.Close()
		found = strings.Contains(string(body), "hello world")
	}
	if !found {
		t.Fatalf("docx does not contain the extracted text")
	}

	pdf, err := p.Convert(context.Background(), doc, render.FormatPDF)
	if err != nil {
		t.Fatalf("Convert(pdf) error = %v", err)
	}
	if !bytes.HasPrefix(pdf.Data, []byte("%PDF-")) || !bytes.Contains(pdf.Data, []byte("(hello world) Tj")) {
		t.Fatalf("unexpected pdf artifact")
	}
}

func TestConvertUnknownFormatFallsBackToText(t *testing.T) {
	art, err := newPipeline("x").Convert(context.Background(), document.New("a.png", nil), render.Format("xml"))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if art.MIMEType != "text/plain" || string(art.Data) != "x\n" {
		t.Fatalf("unexpected fallback artifact: %+v", art)
	}
}

func TestConvertIdempotent(t *testing.T) {
	p := newPipeline("alpha beta", "", "gamma")
	doc := document.New("scan.pdf", nil)
	for _, f := range []render.Format{render.FormatText, render.FormatDocx, render.FormatPDF} {
		a, err := p.Convert(context.Background(), doc, f)
		if err != nil {
			t.Fatalf("Convert(%s) error = %v", f, err)
		}
		b, err := p.Convert(context.Background(), doc, f)
		if err != nil {
			t.Fatalf("Convert(%s) error = %v", f, err)
		}
		if !bytes.Equal(a.Data, b.Data) {
			t.Fatalf("%s output differs between runs", f)
		}
	}
}

func TestDecodeFailure(t *testing.T) {
	tracer := &recordingTracer{}
	p := &Pipeline{
		Rasterizer: fakeRasterizer{err: errors.New("corrupt pdf")},
		Engine:     scriptEngine{},
		Tracer:     tracer,
	}
	_, err := p.Convert(context.Background(), document.New("bad.pdf", nil), render.FormatPDF)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if errors.Is(err, ErrRecognition) || errors.Is(err, ErrRender) {
		t.Fatalf("error matched the wrong stage: %v", err)
	}
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Stage != StageDecode {
		t.Fatalf("expected *Error with decode stage, got %#v", err)
	}
	if !strings.Contains(err.Error(), "corrupt pdf") {
		t.Fatalf("cause lost: %v", err)
	}
	if tracer.errs[observability.SpanRasterize] == nil {
		t.Fatalf("rasterize span did not record the error")
	}
	if len(tracer.spans) != 1 {
		t.Fatalf("later stages ran after decode failure: %v", tracer.spans)
	}
}

func TestRecognitionFailure(t *testing.T) {
	boom := errors.New("tesseract missing")
	p := &Pipeline{
		Rasterizer: fakeRasterizer{n: 2},
		Engine:     scriptEngine{err: boom},
	}
	_, err := p.Convert(context.Background(), document.New("a.pdf", nil), render.FormatText)
	if !errors.Is(err, ErrRecognition) {
		t.Fatalf("expected ErrRecognition, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected the engine error to be wrapped, got %v", err)
	}
}

func TestStagesTraced(t *testing.T) {
	tracer := &recordingTracer{}
	p := newPipeline("a")
	p.Tracer = tracer
	if _, err := p.Convert(context.Background(), document.New("a.png", nil), render.FormatText); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	want := []string{observability.SpanRasterize, observability.SpanRecognize, observability.SpanRender}
	if fmt.Sprint(tracer.spans) != fmt.Sprint(want) {
		t.Fatalf("spans = %v, want %v", tracer.spans, want)
	}
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Stage: StageRender, Err: errors.New("zip")})
	if !errors.Is(err, ErrRender) {
		t.Fatalf("expected ErrRender match")
	}
	if got := err.Error(); got != "wrapped: render: zip" {
		t.Fatalf("unexpected message: %q", got)
	}
	if stageError(StageRender, nil) != nil {
		t.Fatalf("nil cause should stay nil")
	}
}

func TestDefaultsUseNoopEngine(t *testing.T) {
	p := &Pipeline{Rasterizer: fakeRasterizer{n: 2}}
	got, err := p.Extract(context.Background(), document.New("a.pdf", nil))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "\n\n" {
		t.Fatalf("Extract() = %q", got)
	}
	if p.EngineName() != "noop" {
		t.Fatalf("unexpected engine: %s", p.EngineName())
	}
}

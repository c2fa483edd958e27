// Package convert wires rasterization, OCR and rendering into the
// upload-to-artifact pipeline.
package convert

import (
	"context"
	"time"

	"github.com/wudi/ocrconvert/document"
	"github.com/wudi/ocrconvert/observability"
	"github.com/wudi/ocrconvert/ocr"
	"github.com/wudi/ocrconvert/raster"
	"github.com/wudi/ocrconvert/render"
)

// Pipeline converts documents to text and text to artifacts. Nil fields fall
// back to the package defaults.
type Pipeline struct {
	Rasterizer  raster.Rasterizer
	Engine      ocr.Engine
	Renderer    *render.Renderer
	Concurrency int
	OCROptions  []ocr.InputOption
	Logger      observability.Logger
	Tracer      observability.Tracer
}

// NewDefault constructs a pipeline with the poppler rasterizer, the
// registered default OCR engine and the default renderer.
func NewDefault() *Pipeline {
	return &Pipeline{
		Rasterizer: raster.New(),
		Engine:     ocr.DefaultEngine(),
		Renderer:   render.New(),
	}
}

// EngineName reports the OCR engine in use.
func (p *Pipeline) EngineName() string { return p.engine().Name() }

// Extract orchestrates Rasterize -> Recognize -> Aggregate.
func (p *Pipeline) Extract(ctx context.Context, doc document.Document) (string, error) {
	log := p.logger().With(
		observability.String("document", doc.Name),
		observability.String("kind", string(doc.Kind)),
	)
	tracer := p.tracer()

	rctx, span := tracer.StartSpan(ctx, observability.SpanRasterize)
	pages, err := p.rasterizer().Rasterize(rctx, doc)
	if err != nil {
		span.SetError(err)
		span.Finish()
		log.Error("rasterize failed", observability.Error("error", err))
		return "", stageError(StageDecode, err)
	}
	span.SetTag(observability.MetricPages, len(pages))
	span.Finish()
	log.Debug("rasterized", observability.Int("pages", len(pages)))

	octx, span := tracer.StartSpan(ctx, observability.SpanRecognize)
	start := time.Now()
	texts, err := ocr.RecognizePages(octx, p.engine(), pages, p.Concurrency, p.OCROptions...)
	elapsed := time.Since(start)
	span.SetTag(observability.MetricOCRTime, elapsed)
	if err != nil {
		span.SetError(err)
		span.Finish()
		log.Error("recognition failed", observability.Error("error", err))
		return "", stageError(StageRecognition, err)
	}
	text := Aggregate(texts)
	span.SetTag(observability.MetricTextSize, len(text))
	span.Finish()

	log.Info("text extracted",
		observability.String("engine", p.engine().Name()),
		observability.Int("pages", len(pages)),
		observability.Int("bytes", len(text)),
		observability.Duration("ocr_time", elapsed),
	)
	return text, nil
}

// Convert extracts the document's text and renders it in format.
func (p *Pipeline) Convert(ctx context.Context, doc document.Document, format render.Format) (render.Artifact, error) {
	text, err := p.Extract(ctx, doc)
	if err != nil {
		return render.Artifact{}, err
	}
	return p.Render(ctx, text, format)
}

// Render serializes already-extracted text.
func (p *Pipeline) Render(ctx context.Context, text string, format render.Format) (render.Artifact, error) {
	_, span := p.tracer().StartSpan(ctx, observability.SpanRender)
	defer span.Finish()
	span.SetTag("format", string(format))

	art, err := p.renderer().Render(text, format)
	if err != nil {
		span.SetError(err)
		p.logger().Error("render failed", observability.String("format", string(format)), observability.Error("error", err))
		return render.Artifact{}, stageError(StageRender, err)
	}
	p.logger().Debug("rendered",
		observability.String("format", string(format)),
		observability.Int("bytes", len(art.Data)),
	)
	return art, nil
}

func (p *Pipeline) rasterizer() raster.Rasterizer {
	if p.Rasterizer == nil {
		return raster.New()
	}
	return p.Rasterizer
}

func (p *Pipeline) engine() ocr.Engine {
	if p.Engine == nil {
		return ocr.DefaultEngine()
	}
	return p.Engine
}

func (p *Pipeline) renderer() *render.Renderer {
	if p.Renderer == nil {
		return render.New()
	}
	return p.Renderer
}

func (p *Pipeline) logger() observability.Logger {
	if p.Logger == nil {
		return observability.NopLogger{}
	}
	return p.Logger
}

func (p *Pipeline) tracer() observability.Tracer {
	if p.Tracer == nil {
		return observability.NopTracer()
	}
	return p.Tracer
}

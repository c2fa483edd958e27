package ocr

import (
	"context"
	"fmt"

	"github.com/wudi/ocrconvert/document"
	"golang.org/x/sync/errgroup"
)

var defaultEngine Engine = NoopEngine{}

// DefaultEngine returns the process-wide default engine. It is a no-op
// until an engine package (such as ocr/tesseract) registers itself.
func DefaultEngine() Engine {
	return defaultEngine
}

// SetDefaultEngine sets the process-wide default engine.
func SetDefaultEngine(engine Engine) {
	defaultEngine = engine
}

// RecognizePages runs OCR once per page and returns the recognized text in
// page order. With concurrency <= 1 pages are processed sequentially (in
// one batch when the engine supports it); otherwise up to concurrency pages
// are recognized at once. The first failure cancels the remaining work.
func RecognizePages(ctx context.Context, engine Engine, pages []document.Page, concurrency int, opts ...InputOption) ([]string, error) {
	texts := make([]string, len(pages))
	if len(pages) == 0 {
		return texts, nil
	}
	if concurrency <= 1 {
		return recognizeSequential(ctx, engine, pages, opts)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			in, err := InputFromPage(page, opts...)
			if err != nil {
				return err
			}
			res, err := engine.Recognize(gctx, in)
			if err != nil {
				return fmt.Errorf("recognize %s: %w", in.ID, err)
			}
			texts[i] = res.PlainText
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

func recognizeSequential(ctx context.Context, engine Engine, pages []document.Page, opts []InputOption) ([]string, error) {
	inputs := make([]Input, 0, len(pages))
	for _, page := range pages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		in, err := InputFromPage(page, opts...)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}

	texts := make([]string, len(inputs))
	if b, ok := engine.(BatchEngine); ok {
		results, err := b.RecognizeBatch(ctx, inputs)
		if err != nil {
			return nil, err
		}
		if len(results) != len(inputs) {
			return nil, fmt.Errorf("%s returned %d results for %d pages", engine.Name(), len(results), len(inputs))
		}
		for i, res := range results {
			texts[i] = res.PlainText
		}
		return texts, nil
	}
	for i, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		res, err := engine.Recognize(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		texts[i] = res.PlainText
	}
	return texts, nil
}

// NoopEngine recognizes nothing; every page yields empty text.
type NoopEngine struct{}

func (NoopEngine) Name() string {
	return "noop"
}

func (NoopEngine) Recognize(ctx context.Context, input Input) (Result, error) {
	return Result{InputID: input.ID}, nil
}

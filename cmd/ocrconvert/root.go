package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wudi/ocrconvert/config"
	"github.com/wudi/ocrconvert/convert"
	"github.com/wudi/ocrconvert/observability"
	"github.com/wudi/ocrconvert/ocr"
	"github.com/wudi/ocrconvert/ocr/tesseract"
	"github.com/wudi/ocrconvert/raster"
	"github.com/wudi/ocrconvert/render"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "ocrconvert",
		Short:         "Extract text from scanned images and PDFs",
		Long:          "ocrconvert rasterizes images and PDFs, runs OCR on every page and\nre-exports the text as plain text, docx or PDF.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, text)")

	root.AddCommand(newServeCmd(opts), newConvertCmd(opts), newVersionCmd())
	return root
}

// loadConfig merges defaults, the config file, the environment and flags,
// in that order.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func newEngine(cfg config.OCRConfig) ocr.Engine {
	if cfg.Engine == "noop" {
		return ocr.NoopEngine{}
	}
	return tesseract.New(tesseract.WithDefaultLanguages(cfg.Languages...))
}

func newPipeline(cfg *config.Config, logger observability.Logger) *convert.Pipeline {
	pdf := render.DefaultPDFOptions()
	pdf.PreserveBlankLines = cfg.PDF.PreserveBlankLines

	ocrOpts := []ocr.InputOption{ocr.WithDPI(cfg.Raster.DPI)}
	if cfg.OCR.PSM > 0 {
		ocrOpts = append(ocrOpts, ocr.WithTesseractPSM(cfg.OCR.PSM))
	}

	return &convert.Pipeline{
		Rasterizer: raster.New(
			raster.WithDPI(cfg.Raster.DPI),
			raster.WithPdftoppm(cfg.Raster.Pdftoppm),
			raster.WithTempDir(cfg.Raster.TempDir),
			raster.WithLogger(logger),
		),
		Engine:      newEngine(cfg.OCR),
		Renderer:    render.New(render.WithPDFOptions(pdf)),
		Concurrency: cfg.OCR.Concurrency,
		OCROptions:  ocrOpts,
		Logger:      logger,
	}
}

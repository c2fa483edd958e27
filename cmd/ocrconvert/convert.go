package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/wudi/ocrconvert/document"
	"github.com/wudi/ocrconvert/observability"
	"github.com/wudi/ocrconvert/render"
)

type convertOptions struct {
	format    string
	output    string
	langs     []string
	dumpLines bool
}

func newConvertCmd(root *rootOptions) *cobra.Command {
	opts := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "OCR an image or PDF and write the text as txt, docx or pdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "txt", "output format (txt, docx, pdf)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output path ("-" for stdout; default extracted_text.<ext>)`)
	cmd.Flags().StringSliceVar(&opts.langs, "lang", nil, "tesseract languages (overrides ocr.languages)")
	cmd.Flags().BoolVar(&opts.dumpLines, "dump-lines", false, "print the PDF line layout of the extracted text instead of writing a file")
	return cmd
}

func runConvert(cmd *cobra.Command, root *rootOptions, opts *convertOptions, path string) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if len(opts.langs) > 0 {
		cfg.OCR.Languages = opts.langs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	logger := observability.NewSlogLogger(newLogger(cfg.Log, cmd.ErrOrStderr()))
	pipeline := newPipeline(cfg, logger)
	doc := document.New(filepath.Base(path), data)

	if opts.dumpLines {
		text, err := pipeline.Extract(cmd.Context(), doc)
		if err != nil {
			return err
		}
		for _, line := range pipeline.Renderer.PDFOptions().WrapLines(text) {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	}

	art, err := pipeline.Convert(cmd.Context(), doc, render.ParseFormat(opts.format))
	if err != nil {
		return err
	}
	out := opts.output
	if out == "" {
		out = art.Filename
	}
	if out == "-" {
		_, err := cmd.OutOrStdout().Write(art.Data)
		return err
	}
	if err := os.WriteFile(out, art.Data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("artifact written",
		observability.String("path", out),
		observability.String("mimetype", art.MIMEType),
		observability.Int("bytes", len(art.Data)),
	)
	return nil
}

// Package config loads ocrconvert settings from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full ocrconvert configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	OCR    OCRConfig    `yaml:"ocr"`
	Raster RasterConfig `yaml:"raster"`
	PDF    PDFConfig    `yaml:"pdf"`
	Cache  CacheConfig  `yaml:"cache"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Listen            string        `yaml:"listen"`
	MaxUploadMB       int           `yaml:"max_upload_mb"`
	AllowedExtensions []string      `yaml:"allowed_extensions"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// OCRConfig selects and tunes the OCR engine.
type OCRConfig struct {
	Engine      string   `yaml:"engine"` // tesseract | noop
	Languages   []string `yaml:"languages"`
	PSM         int      `yaml:"psm"` // 0 leaves tesseract's default
	Concurrency int      `yaml:"concurrency"`
}

// RasterConfig configures PDF page rendering.
type RasterConfig struct {
	DPI      int    `yaml:"dpi"`
	Pdftoppm string `yaml:"pdftoppm"`
	TempDir  string `yaml:"temp_dir"`
}

// PDFConfig configures PDF output.
type PDFConfig struct {
	PreserveBlankLines bool `yaml:"preserve_blank_lines"`
}

// CacheConfig configures the download artifact cache.
type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	MaxEntries    int           `yaml:"max_entries"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | text
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:            ":5000",
			MaxUploadMB:       16,
			AllowedExtensions: []string{"png", "jpg", "jpeg", "pdf"},
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      5 * time.Minute,
			ShutdownTimeout:   10 * time.Second,
		},
		OCR: OCRConfig{
			Engine:      "tesseract",
			Languages:   []string{"eng"},
			Concurrency: 1,
		},
		Raster: RasterConfig{
			DPI:      200,
			Pdftoppm: "pdftoppm",
		},
		Cache: CacheConfig{
			TTL:           10 * time.Minute,
			MaxEntries:    64,
			SweepInterval: time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. PORT is honoured for
// platforms that inject it; everything else uses the OCRCONVERT_ prefix.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		c.Server.Listen = ":" + v
	}
	if v, ok := lookup("LISTEN"); ok {
		c.Server.Listen = v
	}
	if v, ok := lookup("MAX_UPLOAD_MB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OCRCONVERT_MAX_UPLOAD_MB: %w", err)
		}
		c.Server.MaxUploadMB = n
	}
	if v, ok := lookup("OCR_ENGINE"); ok {
		c.OCR.Engine = v
	}
	if v, ok := lookup("OCR_LANGUAGES"); ok {
		c.OCR.Languages = splitList(v)
	}
	if v, ok := lookup("OCR_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OCRCONVERT_OCR_CONCURRENCY: %w", err)
		}
		c.OCR.Concurrency = n
	}
	if v, ok := lookup("PDFTOPPM"); ok {
		c.Raster.Pdftoppm = v
	}
	if v, ok := lookup("TEMP_DIR"); ok {
		c.Raster.TempDir = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv("OCRCONVERT_" + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that values are sane.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be > 0")
	}
	if len(c.Server.AllowedExtensions) == 0 {
		return fmt.Errorf("server.allowed_extensions must not be empty")
	}
	switch c.OCR.Engine {
	case "tesseract", "noop":
	default:
		return fmt.Errorf("ocr.engine: unsupported engine %q (use tesseract or noop)", c.OCR.Engine)
	}
	if c.OCR.Concurrency < 0 {
		return fmt.Errorf("ocr.concurrency must be >= 0")
	}
	if c.OCR.PSM < 0 || c.OCR.PSM > 13 {
		return fmt.Errorf("ocr.psm must be between 0 and 13")
	}
	if c.Raster.DPI <= 0 {
		return fmt.Errorf("raster.dpi must be > 0")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0")
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be > 0")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unsupported level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format: unsupported format %q (use json or text)", c.Log.Format)
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 { return int64(c.Server.MaxUploadMB) * 1024 * 1024 }

// Allowed reports whether ext (without dot, any case) may be uploaded.
func (c *Config) Allowed(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range c.Server.AllowedExtensions {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

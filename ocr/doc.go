// Package ocr defines the seam between the conversion pipeline and the
// engine that turns a page image into text. Engines may be backed by a
// native library (see ocr/tesseract), a local binary or a remote API; the
// pipeline only sees Engine.
package ocr

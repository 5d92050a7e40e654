// Package extract wraps the external text-extraction backends. Both
// backends shell out to a local tool, the same way the grading OCR path
// works: write the upload to a temp file, run the tool, capture stdout.
package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Extractor converts one uploaded source into raw text.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader) (string, error)
}

// PDFToText extracts text from PDF/word-processor exports via pdftotext.
type PDFToText struct {
	Timeout time.Duration
}

func NewPDFToText() *PDFToText {
	return &PDFToText{Timeout: 30 * time.Second}
}

func (p *PDFToText) Extract(ctx context.Context, r io.Reader) (string, error) {
	return runTool(ctx, r, "doc-*.pdf", p.Timeout, func(in string) (string, []string) {
		return "pdftotext", []string{in, "-"}
	})
}

// Tesseract runs OCR over a photographed or scanned sheet.
type Tesseract struct {
	Lang    string
	Timeout time.Duration
}

func NewTesseract(lang string) *Tesseract {
	if lang == "" {
		lang = "eng"
	}
	return &Tesseract{Lang: lang, Timeout: 30 * time.Second}
}

func (t *Tesseract) Extract(ctx context.Context, r io.Reader) (string, error) {
	return runTool(ctx, r, "scan-*.img", t.Timeout, func(in string) (string, []string) {
		args := []string{in, "stdout"}
		if t.Lang != "" {
			args = append(args, "-l", t.Lang)
		}
		return "tesseract", args
	})
}

func runTool(ctx context.Context, r io.Reader, pattern string, timeout time.Duration, build func(in string) (string, []string)) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer func() { f.Close(); os.Remove(f.Name()) }()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}

	name, args := build(f.Name())
	if _, err := exec.LookPath(name); err != nil {
		return "", errors.New(name + " not found in PATH")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", errors.New(msg)
		}
		return "", err
	}
	return out.String(), nil
}

// Package importer orchestrates one document import: external text
// extraction, math protection, structuring, restoration, review flagging.
// All intermediate state (the placeholder table in particular) lives inside
// a single Import call, so concurrent imports cannot interfere.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/examforge/examforge/internal/exam"
	"github.com/examforge/examforge/internal/extract"
	"github.com/examforge/examforge/internal/mathguard"
	"github.com/examforge/examforge/internal/storage"
	"github.com/examforge/examforge/internal/structurer"
)

type SourceKind string

const (
	SourceDocument SourceKind = "document"
	SourceImage    SourceKind = "image"
)

var (
	// ErrExtraction: the backend could not produce text. "Try again later",
	// not "fix your file".
	ErrExtraction = errors.New("text extraction failed")
	// ErrExtractionTimeout: the backend did not answer in time.
	ErrExtractionTimeout = errors.New("text extraction timed out")
	// ErrEmptyResult: extraction worked but nothing structurable came out.
	// Distinct from failure so callers can tell the two apart.
	ErrEmptyResult = errors.New("no questions found in source")
	// ErrUnknownKind: no extractor registered for the source kind.
	ErrUnknownKind = errors.New("unknown source kind")
)

// Event is one log line of an import run, returned to the caller alongside
// the draft questions and appended to the persistent event log.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	At      int64  `json:"at"`
}

// Result is a draft: questions may carry review flags and must pass through
// human confirmation before they become a canonical test.
type Result struct {
	Questions []exam.Question `json:"questions"`
	Log       []Event         `json:"log"`
	SourceKey string          `json:"source_key,omitempty"`
}

type Pipeline struct {
	extractors map[SourceKind]extract.Extractor
	blobs      storage.BlobStore
	str        *structurer.Structurer
}

// New wires the pipeline. blobs may be nil (uploads are then not retained).
func New(doc, img extract.Extractor, blobs storage.BlobStore, maxLabel int) *Pipeline {
	return &Pipeline{
		extractors: map[SourceKind]extract.Extractor{
			SourceDocument: doc,
			SourceImage:    img,
		},
		blobs: blobs,
		str:   structurer.New(maxLabel),
	}
}

// Import runs the full chain on one uploaded source.
func (p *Pipeline) Import(ctx context.Context, src io.Reader, kind SourceKind, filename string) (Result, error) {
	ex, ok := p.extractors[kind]
	if !ok || ex == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	raw, err := io.ReadAll(src)
	if err != nil {
		return Result{}, err
	}

	var res Result
	res.SourceKey = p.retain(raw, filename, &res)

	text, err := ex.Extract(ctx, bytes.NewReader(raw))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w: %v", ErrExtractionTimeout, err)
		}
		return Result{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, fmt.Errorf("%w: extractor produced no text", ErrEmptyResult)
	}
	res.log("Extracted", fmt.Sprintf("%d characters of text", len(text)))

	protected, table := mathguard.Protect(text)
	if n := table.Len(); n > 0 {
		res.log("MathProtected", fmt.Sprintf("%d math spans hidden", n))
	}

	drafts := p.str.Structure(protected)
	if len(drafts) == 0 {
		return Result{}, fmt.Errorf("%w: no question boundaries detected", ErrEmptyResult)
	}

	review := 0
	for i := range drafts {
		drafts[i].Body = table.Restore(drafts[i].Body)
		for j := range drafts[i].Options {
			drafts[i].Options[j].Content = table.Restore(drafts[i].Options[j].Content)
		}
		if drafts[i].NeedsReview {
			review++
			res.log("ReviewFlagged", fmt.Sprintf("question %d needs review", i+1))
		}
	}
	res.log("Structured", fmt.Sprintf("%d questions, %d flagged for review", len(drafts), review))

	res.Questions = drafts
	return res, nil
}

// retain keeps the raw upload for audit. Failures are logged, not fatal:
// losing the archival copy must not sink the import.
func (p *Pipeline) retain(raw []byte, filename string, res *Result) string {
	if p.blobs == nil {
		return ""
	}
	key := "sources/" + uuid.NewString() + "-" + path.Base(filename)
	if _, err := p.blobs.Put(key, bytes.NewReader(raw)); err != nil {
		res.log("RetainFailed", err.Error())
		return ""
	}
	res.log("SourceRetained", key)
	return key
}

func (r *Result) log(typ, msg string) {
	r.Log = append(r.Log, Event{Type: typ, Message: msg, At: time.Now().Unix()})
}

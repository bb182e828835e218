// Package extract turns uploaded resume binaries (PDF, DOC, DOCX) into clean
// plain text plus metadata. Every failure path returns an *Error with a
// stable code, never a raw error and never a silently empty result.
package extract

import (
	"fmt"
	"time"
)

// Format is the closed set of document formats the extractor decodes. Adding
// a MIME type to a Config means picking one of these for it.
type Format int

const (
	FormatPDF Format = iota
	FormatDOC
	FormatDOCX
)

const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// DefaultMaxFileSize caps uploads at 10 MiB.
const DefaultMaxFileSize = 10 * 1024 * 1024

// Extracted text shorter than this is treated as no text at all (image-only
// scans, password-protected files).
const minTextLength = 10

// Config carries the injectable limits so tests and callers with different
// upload policies don't depend on package state.
type Config struct {
	MaxFileSizeBytes   int64
	SupportedMimeTypes map[string]Format
}

func DefaultConfig() Config {
	return Config{
		MaxFileSizeBytes: DefaultMaxFileSize,
		SupportedMimeTypes: map[string]Format{
			MimePDF:  FormatPDF,
			MimeDOC:  FormatDOC,
			MimeDOCX: FormatDOCX,
		},
	}
}

// File is one uploaded document: the declared MIME type and name from the
// upload plus the raw bytes.
type File struct {
	Name     string
	MimeType string
	Size     int64
	Data     []byte
}

// Metadata describes a successful extraction.
type Metadata struct {
	FileName       string
	FileSize       int64
	FileType       string
	PageCount      *int // PDFs only
	WordCount      int
	CharacterCount int
	ExtractedAt    time.Time
	ProcessingTime time.Duration
}

// Result is the cleaned text plus its metadata. It is built once per call
// and never mutated.
type Result struct {
	Text     string
	Metadata Metadata
}

type Extractor struct {
	cfg Config
}

func New(cfg Config) *Extractor {
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = DefaultMaxFileSize
	}
	if cfg.SupportedMimeTypes == nil {
		cfg.SupportedMimeTypes = DefaultConfig().SupportedMimeTypes
	}
	return &Extractor{cfg: cfg}
}

// Extract validates the file, decodes it by format, normalizes the text and
// computes metadata. The returned error is always an *Error.
func (e *Extractor) Extract(file File) (result *Result, err error) {
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = newError(CodeUnknown, "unexpected error during text extraction", fmt.Errorf("panic: %v", r))
		}
	}()

	format, err := e.validate(file)
	if err != nil {
		return nil, err
	}

	var raw string
	var pageCount *int
	switch format {
	case FormatPDF:
		text, pages, perr := decodePDF(file.Data)
		if perr != nil {
			return nil, perr
		}
		raw = text
		pageCount = &pages
	case FormatDOC:
		text, derr := decodeDOC(file.Data)
		if derr != nil {
			return nil, derr
		}
		raw = text
	case FormatDOCX:
		text, derr := decodeDOCX(file.Data)
		if derr != nil {
			return nil, derr
		}
		raw = text
	default:
		return nil, newError(CodeUnsupportedType, fmt.Sprintf("no decoder for format %d", format), nil)
	}

	text := CleanText(raw)
	if len(text) < minTextLength {
		return nil, newError(CodeNoTextExtracted,
			"no readable text found in the document; it may be a scanned image or password-protected", nil)
	}

	return &Result{
		Text: text,
		Metadata: Metadata{
			FileName:       file.Name,
			FileSize:       file.Size,
			FileType:       file.MimeType,
			PageCount:      pageCount,
			WordCount:      WordCount(text),
			CharacterCount: len(text),
			ExtractedAt:    started,
			ProcessingTime: time.Since(started),
		},
	}, nil
}

// validate enforces the upload preconditions in order: type, size, shape.
func (e *Extractor) validate(file File) (Format, error) {
	format, ok := e.cfg.SupportedMimeTypes[file.MimeType]
	if !ok {
		return 0, newError(CodeUnsupportedType,
			fmt.Sprintf("unsupported file type %q: upload a PDF, DOC or DOCX file", file.MimeType), nil)
	}
	if file.Size == 0 {
		return 0, newError(CodeEmptyFile, "the uploaded file is empty", nil)
	}
	if file.Size > e.cfg.MaxFileSizeBytes {
		return 0, newError(CodeFileTooLarge,
			fmt.Sprintf("file is %s, the limit is %s", humanSize(file.Size), humanSize(e.cfg.MaxFileSizeBytes)), nil)
	}
	if file.Name == "" || file.Size != int64(len(file.Data)) {
		return 0, newError(CodeInvalidFile, "invalid file: missing name or content", nil)
	}
	return format, nil
}

func humanSize(n int64) string {
	const (
		kib = 1024
		mib = 1024 * kib
	)
	switch {
	case n >= mib:
		return fmt.Sprintf("%.1f MB", float64(n)/mib)
	case n >= kib:
		return fmt.Sprintf("%.1f KB", float64(n)/kib)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

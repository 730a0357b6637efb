package resume

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/p-shah256/atsmatch/pkg/types"
)

// MaxFileSize is the largest resume upload accepted.
const MaxFileSize = 10 << 20

const (
	MimePDF      = "application/pdf"
	MimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText     = "text/plain"
	MimeMarkdown = "text/markdown"
	MimeYAML     = "application/yaml"
)

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = fmt.Errorf("file exceeds %d MB limit", MaxFileSize>>20)
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrNoText          = errors.New("no text could be extracted from file")
)

var extensions = map[string]string{
	".pdf":  MimePDF,
	".docx": MimeDOCX,
	".txt":  MimeText,
	".md":   MimeMarkdown,
	".yaml": MimeYAML,
	".yml":  MimeYAML,
}

var aliases = map[string]string{
	"application/x-yaml": MimeYAML,
	"text/yaml":          MimeYAML,
	"text/x-yaml":        MimeYAML,
	"text/x-markdown":    MimeMarkdown,
}

// DetectMime picks the resume type from the file extension, falling back to
// the declared content type with parameters removed.
func DetectMime(filename, declared string) string {
	if m, ok := extensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return m
	}
	m, _, err := mime.ParseMediaType(declared)
	if err != nil {
		m = strings.ToLower(strings.TrimSpace(declared))
	}
	if alias, ok := aliases[m]; ok {
		return alias
	}
	return m
}

// Supported reports whether ExtractText can handle mimeType.
func Supported(mimeType string) bool {
	switch mimeType {
	case MimePDF, MimeDOCX, MimeText, MimeMarkdown, MimeYAML:
		return true
	}
	return false
}

// ExtractText returns the raw text of a resume document.
func ExtractText(mimeType string, data []byte) (string, error) {
	switch mimeType {
	case MimeText, MimeMarkdown:
		return string(data), nil
	case MimePDF:
		return extractPDFText(data)
	case MimeDOCX:
		return extractDocxText(data)
	case MimeYAML:
		return extractYAMLText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
}

// Parse validates an uploaded resume and extracts its text.
func Parse(filename, declaredMime string, data []byte) (*types.ParsedFile, error) {
	logger := slog.With("component", "resume", "operation", "parse", "file_name", filename)

	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	mimeType := DetectMime(filename, declaredMime)
	if !Supported(mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	start := time.Now()
	text, err := ExtractText(mimeType, data)
	if err != nil {
		logger.Error("text extraction failed", "file_type", mimeType, "error", err)
		return nil, err
	}
	text = normalizeWhitespace(text)
	if text == "" {
		return nil, ErrNoText
	}

	logger.Debug("extracted resume text",
		"file_type", mimeType,
		"size_bytes", len(data),
		"text_length", len(text),
		"duration_ms", time.Since(start).Milliseconds())

	return &types.ParsedFile{
		FileName: filename,
		FileType: mimeType,
		Content:  text,
	}, nil
}

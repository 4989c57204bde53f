// Package parser extracts plain text from uploaded documents.
//
// Parse failures are returned as errors wrapping ErrParse, never as text, so an
// unreadable file can not end up indexed as if it were content.
package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedType is returned for file types no parser handles.
	ErrUnsupportedType = errors.New("unsupported document type")
	// ErrParse is returned when a supported document can not be read.
	ErrParse = errors.New("document parse failed")
)

// Type identifies a document format.
type Type string

const (
	TypePDF      Type = "pdf"
	TypeDOCX     Type = "docx"
	TypeCSV      Type = "csv"
	TypeText     Type = "txt"
	TypeMarkdown Type = "md"
)

var extensions = map[string]Type{
	"pdf":      TypePDF,
	"docx":     TypeDOCX,
	"csv":      TypeCSV,
	"txt":      TypeText,
	"md":       TypeMarkdown,
	"markdown": TypeMarkdown,
}

// DetectType maps a filename to its document type by extension.
func DetectType(filename string) (Type, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	t, ok := extensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, filename)
	}
	return t, nil
}

// Supported reports whether filename has a parseable extension.
func Supported(filename string) bool {
	_, err := DetectType(filename)
	return err == nil
}

// Parse extracts plain text from data, choosing the parser by filename extension.
func Parse(filename string, data []byte) (string, error) {
	t, err := DetectType(filename)
	if err != nil {
		return "", err
	}
	return ParseType(t, data)
}

// ParseType extracts plain text from data of a known type.
func ParseType(t Type, data []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch t {
	case TypePDF:
		text, err = parsePDF(data)
	case TypeDOCX:
		text, err = parseDOCX(data)
	case TypeCSV:
		text, err = parseCSV(data)
	case TypeMarkdown:
		text, err = parseMarkdown(data)
	case TypeText:
		text, err = parseText(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, t)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrParse, t, err)
	}

	return strings.TrimSpace(text), nil
}

func parseText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("text is not valid UTF-8")
	}
	return string(data), nil
}

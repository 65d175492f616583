package services

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// sourceFormat describes one accepted source encoding
type sourceFormat struct {
	name       string
	signature  []byte
	extensions []string
	mimeTypes  []string
}

// Workbooks are listed before delimited text so signatures win over the
// text heuristic. Browsers label CSV inconsistently, which is why the
// delimited entry accepts the Excel type and octet-stream is allowed for all.
var sourceFormats = []sourceFormat{
	{
		name:       FormatXLSX,
		signature:  []byte{0x50, 0x4B, 0x03, 0x04}, // ZIP container
		extensions: []string{".xlsx"},
		mimeTypes:  []string{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	},
	{
		name:       FormatXLS,
		signature:  []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, // OLE2 compound document
		extensions: []string{".xls"},
		mimeTypes:  []string{"application/vnd.ms-excel"},
	},
	{
		name:       FormatDelimited,
		extensions: []string{".csv", ".tsv", ".txt", ".psv"},
		mimeTypes:  []string{"text/csv", "text/plain", "text/tab-separated-values", "application/csv", "application/vnd.ms-excel"},
	},
}

const genericMimeType = "application/octet-stream"

// formatBySignature matches the leading bytes of a workbook
func formatBySignature(data []byte) (sourceFormat, bool) {
	for _, f := range sourceFormats {
		if f.signature != nil && bytes.HasPrefix(data, f.signature) {
			return f, true
		}
	}
	return sourceFormat{}, false
}

// formatByExtension matches a filename's extension, case-insensitively
func formatByExtension(filename string) (sourceFormat, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range sourceFormats {
		if slices.Contains(f.extensions, ext) {
			return f, true
		}
	}
	return sourceFormat{}, false
}

// tableFormat picks the parser for a source: signature first, then
// extension, then delimited text
func tableFormat(name string, data []byte) string {
	if f, ok := formatBySignature(data); ok {
		return f.name
	}
	if f, ok := formatByExtension(name); ok {
		return f.name
	}
	return FormatDelimited
}

// ValidationResult contains the results of file validation
type ValidationResult struct {
	Valid        bool
	DetectedType string // one of the Format* names
	ContentType  string
	Size         int64
	Errors       []string
}

// Err folds the collected errors into one error, or nil when valid
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return errors.New(strings.Join(r.Errors, "; "))
}

// FileValidator checks sources before they reach the parser
type FileValidator struct {
	maxSizeBytes int64
}

// NewFileValidator creates a new file validator with the specified maximum file size
func NewFileValidator(maxSizeBytes int64) *FileValidator {
	return &FileValidator{
		maxSizeBytes: maxSizeBytes,
	}
}

// ValidateFile checks a source's name, declared type and content.
// All problems are collected rather than stopping at the first.
func (v *FileValidator) ValidateFile(data []byte, filename, contentType string) *ValidationResult {
	result := &ValidationResult{
		Valid:       true,
		ContentType: contentType,
		Size:        int64(len(data)),
		Errors:      []string{},
	}

	fail := func(err error) {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	if err := v.ValidateFilename(filename); err != nil {
		fail(err)
	}

	// An empty content type means the client did not declare one
	if contentType != "" {
		if err := v.ValidateMimeType(contentType); err != nil {
			fail(err)
		}
	}

	if err := v.ValidateFileSize(result.Size); err != nil {
		fail(err)
	}

	detected, err := v.ValidateMagicBytes(data)
	if err != nil {
		fail(err)
		return result
	}
	result.DetectedType = detected

	if f, ok := formatByExtension(filename); ok && f.name != detected {
		fail(fmt.Errorf("file extension does not match %s content", detected))
	}

	return result
}

// ValidateFilename rejects unsafe names and unsupported extensions
func (v *FileValidator) ValidateFilename(filename string) error {
	if filename == "" {
		return errors.New("filename cannot be empty")
	}

	if strings.Contains(filename, "..") {
		return errors.New("filename contains path traversal")
	}

	if strings.Contains(filename, "\x00") {
		return errors.New("filename contains null bytes")
	}

	if strings.HasPrefix(filename, "/") || strings.HasPrefix(filename, "\\") {
		return errors.New("filename cannot be absolute path")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return errors.New("filename must have an extension")
	}

	if _, ok := formatByExtension(filename); !ok {
		return fmt.Errorf("unsupported file extension: %s", ext)
	}

	return nil
}

// ValidateMimeType accepts any type declared by a known format
func (v *FileValidator) ValidateMimeType(contentType string) error {
	// Strip parameters such as "; charset=utf-8"
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if mediaType == "" {
		return errors.New("MIME type cannot be empty")
	}

	if mediaType == genericMimeType {
		return nil
	}
	for _, f := range sourceFormats {
		if slices.Contains(f.mimeTypes, mediaType) {
			return nil
		}
	}

	return fmt.Errorf("unsupported MIME type: %s", mediaType)
}

// ValidateMagicBytes detects the source format from its content
func (v *FileValidator) ValidateMagicBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty file")
	}

	if f, ok := formatBySignature(data); ok {
		return f.name, nil
	}

	if isTextContent(data) {
		return FormatDelimited, nil
	}

	return "", errors.New("unsupported file type based on content")
}

// ValidateFileSize validates the file size is within limits
func (v *FileValidator) ValidateFileSize(size int64) error {
	if size < 0 {
		return errors.New("invalid file size")
	}

	if size == 0 {
		return errors.New("empty file")
	}

	if size > v.maxSizeBytes {
		return fmt.Errorf("file size (%d bytes) exceeds maximum allowed size (%d bytes)", size, v.maxSizeBytes)
	}

	return nil
}

// isTextContent samples the first 512 bytes for printable text
func isTextContent(data []byte) bool {
	sample := bytes.TrimPrefix(data[:min(len(data), 512)], utf8BOM)
	if len(sample) == 0 {
		return false
	}

	if bytes.IndexByte(sample, 0x00) >= 0 {
		return false
	}

	// Printable ASCII, common whitespace and UTF-8 lead/continuation bytes
	printable := 0
	for _, b := range sample {
		if (b >= 0x20 && b <= 0x7E) || b == '\t' || b == '\n' || b == '\r' || b >= 0x80 {
			printable++
		}
	}

	return float64(printable)/float64(len(sample)) > 0.95
}

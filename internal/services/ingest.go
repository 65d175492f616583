package services

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/ashmitsharp/spendlens/internal/models"
)

// Source yields the raw content of one uploaded table
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// TypedSource is a Source that knows its declared MIME type
type TypedSource interface {
	Source
	ContentType() string
}

// contentType returns the declared MIME type, or "" when the source has none
func contentType(src Source) string {
	if typed, ok := src.(TypedSource); ok {
		return typed.ContentType()
	}
	return ""
}

// FileSource reads a table from the local filesystem
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return filepath.Base(s.Path) }

func (s FileSource) Open() (io.ReadCloser, error) { return os.Open(s.Path) }

// MultipartSource reads a table from a multipart upload
type MultipartSource struct {
	Header *multipart.FileHeader
}

func (s MultipartSource) Name() string { return s.Header.Filename }

func (s MultipartSource) Open() (io.ReadCloser, error) { return s.Header.Open() }

func (s MultipartSource) ContentType() string { return s.Header.Header.Get("Content-Type") }

// BytesSource wraps content that is already in memory. MIMEType is optional.
type BytesSource struct {
	Filename string
	MIMEType string
	Data     []byte
}

func (s BytesSource) Name() string { return s.Filename }

func (s BytesSource) ContentType() string { return s.MIMEType }

func (s BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}

// IngestResult is the merged outcome of one ingestion request
type IngestResult struct {
	Sources      []models.SourceInfo
	Transactions []models.Transaction
}

// Ingestor reads, parses and normalizes sources strictly in the order given
type Ingestor struct {
	parser    *Parser
	validator *FileValidator
	logger    *log.Logger
}

// NewIngestor creates an ingestor. validator may be nil to skip upload checks.
func NewIngestor(parser *Parser, validator *FileValidator, logger *log.Logger) *Ingestor {
	return &Ingestor{
		parser:    parser,
		validator: validator,
		logger:    logger,
	}
}

// Ingest processes every source before returning. If any source fails the
// whole request fails and no transactions are returned.
func (i *Ingestor) Ingest(sources []Source) (*IngestResult, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	result := &IngestResult{}
	for _, src := range sources {
		data, err := readSource(src)
		if err != nil {
			i.logger.Warn("source read failed", "source", src.Name(), "error", err)
			return nil, err
		}

		if i.validator != nil {
			if err := i.validator.ValidateFile(data, src.Name(), contentType(src)).Err(); err != nil {
				i.logger.Warn("source rejected", "source", src.Name(), "error", err)
				return nil, &ParseError{Source: src.Name(), Err: err}
			}
		}

		table, err := i.parser.ParseTable(src.Name(), data)
		if err != nil {
			i.logger.Warn("source parse failed", "source", src.Name(), "error", err)
			return nil, err
		}

		transactions := NormalizeRows(table.Rows)
		result.Transactions = append(result.Transactions, transactions...)
		result.Sources = append(result.Sources, models.SourceInfo{
			Name:     table.Name,
			Format:   table.Format,
			Rows:     len(table.Rows),
			Retained: len(transactions),
		})

		i.logger.Debug("source ingested", "source", table.Name, "format", table.Format,
			"rows", len(table.Rows), "retained", len(transactions))
	}

	return result, nil
}

func readSource(src Source) ([]byte, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, &SourceReadError{Source: src.Name(), Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &SourceReadError{Source: src.Name(), Err: err}
	}
	return data, nil
}

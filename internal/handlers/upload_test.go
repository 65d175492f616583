package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashmitsharp/spendlens/internal/logger"
	"github.com/ashmitsharp/spendlens/internal/models"
	"github.com/ashmitsharp/spendlens/internal/services"
	"github.com/ashmitsharp/spendlens/internal/utils"
)

const testMaxFileBytes = 1024 * 1024

// MockAnalyzer is a mock implementation of Analyzer for testing
type MockAnalyzer struct {
	RunFunc func(sources []services.Source) (*services.IngestResult, *models.Insights, error)
}

func (m *MockAnalyzer) Run(sources []services.Source) (*services.IngestResult, *models.Insights, error) {
	if m.RunFunc != nil {
		return m.RunFunc(sources)
	}
	return nil, nil, errors.New("analyzer not configured")
}

type testFile struct {
	name        string
	content     []byte
	contentType string
}

func fixture(t *testing.T, name string) testFile {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("../../testdata", name))
	require.NoError(t, err)
	return testFile{name: name, content: content}
}

func newPipeline() *services.Pipeline {
	parser := services.NewParser(logger.Discard())
	ingestor := services.NewIngestor(parser, services.NewFileValidator(testMaxFileBytes), logger.Discard())
	return services.NewPipeline(ingestor, services.NewAggregator(nil))
}

// newTestApp wires the session routes the same way the API binary does
func newTestApp(sessions *services.SessionStore, analyzer Analyzer, maxFiles int, maxFileBytes int64) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	RegisterRoutes(app.Group("/v1"),
		NewSessionHandler(sessions),
		NewUploadHandler(sessions, analyzer, maxFiles, maxFileBytes, logger.Discard()))
	return app
}

func uploadRequest(t *testing.T, sessionID string, files ...testFile) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		var part io.Writer
		var err error
		if f.contentType == "" {
			part, err = writer.CreateFormFile(UploadFormField, f.name)
		} else {
			header := textproto.MIMEHeader{}
			header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, UploadFormField, f.name))
			header.Set("Content-Type", f.contentType)
			part, err = writer.CreatePart(header)
		}
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/v1/sessions/"+sessionID+"/uploads", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

type uploadEnvelope struct {
	Success bool           `json:"success"`
	Data    UploadResponse `json:"data"`
}

func decode(t *testing.T, body io.Reader, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(v))
}

// TestUploadSources_Success tests a multi-file upload replacing session content
func TestUploadSources_Success(t *testing.T) {
	sessions := services.NewSessionStore(time.Hour)
	session := sessions.Create()
	app := newTestApp(sessions, newPipeline(), 5, testMaxFileBytes)

	req := uploadRequest(t, session.ID, fixture(t, "card_sample.csv"), fixture(t, "card_sample.tsv"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result uploadEnvelope
	decode(t, resp.Body, &result)

	assert.True(t, result.Success)
	assert.Equal(t, session.ID, result.Data.SessionID)
	assert.Equal(t, 8, result.Data.TransactionCount)
	require.Len(t, result.Data.Sources, 2)
	assert.Equal(t, "card_sample.csv", result.Data.Sources[0].Name)
	assert.Equal(t, "card_sample.tsv", result.Data.Sources[1].Name)

	require.NotNil(t, result.Data.Insights)
	assert.Equal(t, "Groceries", result.Data.Insights.TopCategory.Name)
	assert.Equal(t, 331.54, result.Data.Insights.TotalSpending)

	stored, err := sessions.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stored.TransactionCount())
}

// TestUploadSources_ReplacesPreviousData tests that a second upload does not append
func TestUploadSources_ReplacesPreviousData(t *testing.T) {
	sessions := services.NewSessionStore(time.Hour)
	session := sessions.Create()
	app := newTestApp(sessions, newPipeline(), 5, testMaxFileBytes)

	resp, err := app.Test(uploadRequest(t, session.ID, fixture(t, "card_sample.csv")))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = app.Test(uploadRequest(t, session.ID, fixture(t, "card_sample.tsv")))
	require.NoError(t, err)
	defer resp.Body.Close()

	var result uploadEnvelope
	decode(t, resp.Body, &result)
	assert.Equal(t, 2, result.Data.TransactionCount)

	stored, err := sessions.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TransactionCount())
}

// TestUploadSources_NothingRetained tests that an all-income file yields null insights
func TestUploadSources_NothingRetained(t *testing.T) {
	sessions := services.NewSessionStore(time.Hour)
	session := sessions.Create()
	app := newTestApp(sessions, newPipeline(), 5, testMaxFileBytes)

	req := uploadRequest(t, session.ID, testFile{
		name:    "income.csv",
		content: []byte("Transaction Date,Category,Amount\n01/02/2024,Salary,2500.00\n"),
	})

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result uploadEnvelope
	decode(t, resp.Body, &result)
	assert.Zero(t, result.Data.TransactionCount)
	assert.Nil(t, result.Data.Insights)
}

// TestUploadSources_ParseErrorKeepsSession tests all-or-nothing ingestion
func TestUploadSources_ParseErrorKeepsSession(t *testing.T) {
	sessions := services.NewSessionStore(time.Hour)
	session := sessions.Create()
	app := newTestApp(sessions, newPipeline(), 5, testMaxFileBytes)

	resp, err := app.Test(uploadRequest(t, session.ID, fixture(t, "card_sample.csv")))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = app.Test(uploadRequest(t, session.ID, fixture(t, "card_sample.tsv"), fixture(t, "malformed.csv")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var result map[string]interface{}
	decode(t, resp.Body, &result)
	assert.Equal(t, "PARSE_ERROR", result["code"])
	assert.Contains(t, result["message"].(string), "malformed.csv")
	assert.Equal(t, "malformed.csv", result["source"])
	assert.Equal(t, float64(3), result["row"])

	stored, err := sessions.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.TransactionCount())
	assert.Equal(t, "card_sample.csv", stored.Sources[0].Name)
}

// TestUploadSources_RejectedExtension tests that validation failures surface as parse errors
func TestUploadSources_RejectedExtension(t *testing.T) {
	sessions := services.NewSessionStore(time.Hour)
	session := sessions.Create()
	app := newTestApp(sessions, newPipeline(), 5, testMaxFileBytes)

	req := uploadRequest(t, session.ID, testFile{name: "statement.pdf", content: []byte("%PDF-1.4")})

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

// TestUploadSources_DeclaredContentType tests that the part's MIME type is checked
func TestUploadSources_DeclaredContentType(t *testing.T) {
	sessions := services.NewSessionStore(time.Hour)
	session := sessions.Create()
	app := newTestApp(sessions, newPipeline(), 5, testMaxFileBytes)

	csv := fixture(t, "card_sample.csv")
	csv.contentType = "image/png"

	resp, err := app.Test(uploadRequest(t, session.ID, csv))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var result map[string]interface{}
	decode(t, resp.Body, &result)
	assert.Equal(t, "PARSE_ERROR", result["code"])
	assert.Contains(t, result["message"].(string), "unsupported MIME type")

	csv.contentType = "text/csv"
	resp, err = app.Test(uploadRequest(t, session.ID, csv))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

// TestUploadSources_ReadError tests mapping of source read failures
func TestUploadSources_ReadError(t *testing.T) {
	sessions := services.NewSessionStore(time.Hour)
	session := sessions.Create()

	analyzer := &MockAnalyzer{
		RunFunc: func(sources []services.Source) (*services.IngestResult, *models.Insights, error) {
			return nil, nil, &services.SourceReadError{Source: sources[0].Name(), Err: io.ErrUnexpectedEOF}
		},
	}
	app := newTestApp(sessions, analyzer, 5, testMaxFileBytes)

	resp, err := app.Test(uploadRequest(t, session.ID, fixture(t, "card_sample.csv")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var result map[string]interface{}
	decode(t, resp.Body, &result)
	assert.Equal(t, "SOURCE_READ_ERROR", result["code"])
	assert.Contains(t, result["message"].(string), "card_sample.csv")
	assert.Equal(t, "card_sample.csv", result["source"])
	assert.NotContains(t, result, "row")
}

// TestUploadSources_UnexpectedError tests mapping of unknown pipeline failures
func TestUploadSources_UnexpectedError(t *testing.T) {
	sessions := services.NewSessionStore(time.Hour)
	session := sessions.Create()
	app := newTestApp(sessions, &MockAnalyzer{}, 5, testMaxFileBytes)

	resp, err := app.Test(uploadRequest(t, session.ID, fixture(t, "card_sample.csv")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

// TestUploadSources_PassesFilesInOrder tests that sources reach the pipeline in form order
func TestUploadSources_PassesFilesInOrder(t *testing.T) {
	sessions := services.NewSessionStore(time.Hour)
	session := sessions.Create()

	var names []string
	analyzer := &MockAnalyzer{
		RunFunc: func(sources []services.Source) (*services.IngestResult, *models.Insights, error) {
			for _, src := range sources {
				names = append(names, src.Name())
			}
			return &services.IngestResult{}, nil, nil
		},
	}
	app := newTestApp(sessions, analyzer, 5, testMaxFileBytes)

	req := uploadRequest(t, session.ID,
		testFile{name: "c.csv", content: []byte("a")},
		testFile{name: "a.csv", content: []byte("b")},
		testFile{name: "b.csv", content: []byte("c")},
	)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"c.csv", "a.csv", "b.csv"}, names)
}

// TestUploadSources_UnknownSession tests 404 for a missing session
func TestUploadSources_UnknownSession(t *testing.T) {
	app := newTestApp(services.NewSessionStore(time.Hour), newPipeline(), 5, testMaxFileBytes)

	resp, err := app.Test(uploadRequest(t, "missing", fixture(t, "card_sample.csv")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// TestUploadSources_NoFiles tests error when the form carries no files
func TestUploadSources_NoFiles(t *testing.T) {
	sessions := services.NewSessionStore(time.Hour)
	session := sessions.Create()
	app := newTestApp(sessions, newPipeline(), 5, testMaxFileBytes)

	resp, err := app.Test(uploadRequest(t, session.ID))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var result map[string]interface{}
	decode(t, resp.Body, &result)
	assert.Equal(t, "BAD_REQUEST", result["code"])
}

// TestUploadSources_NotMultipart tests error for a non-multipart body
func TestUploadSources_NotMultipart(t *testing.T) {
	sessions := services.NewSessionStore(time.Hour)
	session := sessions.Create()
	app := newTestApp(sessions, newPipeline(), 5, testMaxFileBytes)

	req := httptest.NewRequest("POST", "/v1/sessions/"+session.ID+"/uploads", bytes.NewBufferString(`{"files":[]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

// TestUploadSources_TooManyFiles tests the per-request file limit
func TestUploadSources_TooManyFiles(t *testing.T) {
	sessions := services.NewSessionStore(time.Hour)
	session := sessions.Create()
	app := newTestApp(sessions, newPipeline(), 1, testMaxFileBytes)

	resp, err := app.Test(uploadRequest(t, session.ID, fixture(t, "card_sample.csv"), fixture(t, "card_sample.tsv")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var result map[string]interface{}
	decode(t, resp.Body, &result)
	assert.Contains(t, result["message"].(string), "too many files")
}

// TestUploadSources_FileTooLarge tests the per-file size limit
func TestUploadSources_FileTooLarge(t *testing.T) {
	sessions := services.NewSessionStore(time.Hour)
	session := sessions.Create()
	app := newTestApp(sessions, newPipeline(), 5, 32)

	resp, err := app.Test(uploadRequest(t, session.ID, fixture(t, "card_sample.csv")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var result map[string]interface{}
	decode(t, resp.Body, &result)
	assert.Contains(t, result["message"].(string), "exceeds maximum allowed size")
}

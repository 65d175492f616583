package handlers

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/spendlens/internal/models"
	"github.com/ashmitsharp/spendlens/internal/services"
	"github.com/ashmitsharp/spendlens/internal/utils"
)

// UploadFormField is the multipart field that carries source files
const UploadFormField = "files"

// Analyzer runs the ingestion and aggregation pipeline
type Analyzer interface {
	Run(sources []services.Source) (*services.IngestResult, *models.Insights, error)
}

// UploadHandler handles source uploads into a session
type UploadHandler struct {
	sessions     *services.SessionStore
	analyzer     Analyzer
	maxFiles     int
	maxFileBytes int64
	logger       *log.Logger
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(sessions *services.SessionStore, analyzer Analyzer, maxFiles int, maxFileBytes int64, logger *log.Logger) *UploadHandler {
	return &UploadHandler{
		sessions:     sessions,
		analyzer:     analyzer,
		maxFiles:     maxFiles,
		maxFileBytes: maxFileBytes,
		logger:       logger,
	}
}

// UploadResponse is returned after a successful ingestion
type UploadResponse struct {
	SessionID        string              `json:"session_id"`
	Sources          []models.SourceInfo `json:"sources"`
	TransactionCount int                 `json:"transaction_count"`
	Insights         *models.Insights    `json:"insights"` // null when nothing survived filtering
}

// UploadSources ingests one or more files into a session, replacing its data
// POST /v1/sessions/:id/uploads (multipart, field "files", in upload order)
func (h *UploadHandler) UploadSources(c fiber.Ctx) error {
	sessionID := c.Params("id")

	// 1. Session must exist before any work is done
	if _, err := h.sessions.Get(sessionID); err != nil {
		return utils.NewNotFoundError("session")
	}

	// 2. Collect files in the order they were sent
	form, err := c.MultipartForm()
	if err != nil {
		return utils.NewBadRequestError("invalid multipart form", err.Error())
	}

	files := form.File[UploadFormField]
	if len(files) == 0 {
		return utils.NewBadRequestError(fmt.Sprintf("at least one file is required in field %q", UploadFormField), nil)
	}
	if len(files) > h.maxFiles {
		return utils.NewBadRequestError(fmt.Sprintf("too many files: %d (max %d)", len(files), h.maxFiles), nil)
	}

	sources := make([]services.Source, 0, len(files))
	for _, fh := range files {
		if fh.Size > h.maxFileBytes {
			return utils.NewBadRequestError(
				fmt.Sprintf("file %s exceeds maximum allowed size (%d bytes)", fh.Filename, h.maxFileBytes), nil)
		}
		sources = append(sources, services.MultipartSource{Header: fh})
	}

	// 3. Run the pipeline; on failure the session keeps its previous data
	result, insights, err := h.analyzer.Run(sources)
	if err != nil {
		h.logger.Warn("upload rejected", "session", sessionID, "files", len(files), "error", err)
		return mapIngestError(err)
	}

	// 4. Replace the session content wholesale
	session, err := h.sessions.Replace(sessionID, result.Sources, result.Transactions, insights)
	if err != nil {
		return utils.NewNotFoundError("session")
	}

	h.logger.Info("upload ingested", "session", sessionID, "files", len(files),
		"transactions", session.TransactionCount())

	return utils.SuccessResponse(c, UploadResponse{
		SessionID:        session.ID,
		Sources:          session.Sources,
		TransactionCount: session.TransactionCount(),
		Insights:         session.Insights,
	})
}

// mapIngestError converts pipeline errors into API errors
func mapIngestError(err error) error {
	var readErr *services.SourceReadError
	var parseErr *services.ParseError

	switch {
	case errors.As(err, &readErr):
		return utils.NewIngestError(utils.CodeSourceRead, readErr.Source, 0, readErr)
	case errors.As(err, &parseErr):
		return utils.NewIngestError(utils.CodeParse, parseErr.Source, parseErr.Row, parseErr)
	case errors.Is(err, services.ErrNoSources):
		return utils.NewBadRequestError(err.Error(), nil)
	default:
		return utils.NewInternalError(err)
	}
}

package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/spendlens/internal/services"
	"github.com/ashmitsharp/spendlens/internal/utils"
)

// SessionHandler manages session lifecycle and exposes the computed Insights
type SessionHandler struct {
	sessions *services.SessionStore
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *services.SessionStore) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
	}
}

// SessionResponse describes a session without its records
type SessionResponse struct {
	*services.Session
	TransactionCount int  `json:"transaction_count"`
	Empty            bool `json:"empty"`
}

func newSessionResponse(s *services.Session) SessionResponse {
	return SessionResponse{
		Session:          s,
		TransactionCount: s.TransactionCount(),
		Empty:            s.Insights == nil,
	}
}

// CreateSession handles POST /v1/sessions
func (h *SessionHandler) CreateSession(c fiber.Ctx) error {
	session := h.sessions.Create()
	return utils.CreatedResponse(c, newSessionResponse(session))
}

// GetSession handles GET /v1/sessions/:id
func (h *SessionHandler) GetSession(c fiber.Ctx) error {
	session, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.NewNotFoundError("session")
	}
	return utils.SuccessResponse(c, newSessionResponse(session))
}

// GetInsights handles GET /v1/sessions/:id/insights.
// An empty session returns data: null, meaning nothing to show.
func (h *SessionHandler) GetInsights(c fiber.Ctx) error {
	session, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.NewNotFoundError("session")
	}
	return utils.SuccessResponse(c, session.Insights)
}

// ResetSession handles POST /v1/sessions/:id/reset
func (h *SessionHandler) ResetSession(c fiber.Ctx) error {
	session, err := h.sessions.Reset(c.Params("id"))
	if err != nil {
		return utils.NewNotFoundError("session")
	}
	return utils.SuccessResponse(c, newSessionResponse(session))
}

// DeleteSession handles DELETE /v1/sessions/:id
func (h *SessionHandler) DeleteSession(c fiber.Ctx) error {
	if err := h.sessions.Delete(c.Params("id")); err != nil {
		return utils.NewNotFoundError("session")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sona/internal/features"
	"sona/internal/model"
	"sona/internal/repo"
)

// Handler exposes the feature layer over HTTP. Creator routes require a
// bearer token; candidate routes are public and keyed by share link or
// interview id.
type Handler struct {
	agents    features.IAgent
	questions features.IQuestion
	knowledge features.IKnowledge
	sessions  features.ISession
	logger    *zap.Logger
}

func New(agents features.IAgent, questions features.IQuestion, knowledge features.IKnowledge, sessions features.ISession, logger *zap.Logger) *Handler {
	return &Handler{
		agents:    agents,
		questions: questions,
		knowledge: knowledge,
		sessions:  sessions,
		logger:    logger,
	}
}

// respondError maps feature failures onto transport status codes. Unmapped
// errors become opaque 500s; their detail stays in the logs.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, features.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, features.ErrAgentNotFound),
		errors.Is(err, features.ErrAgentNotAvailable),
		errors.Is(err, features.ErrQuestionNotFound),
		errors.Is(err, features.ErrInterviewNotFound),
		errors.Is(err, repo.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, features.ErrInterviewClosed),
		errors.Is(err, features.ErrFollowUpsDisabled),
		errors.Is(err, features.ErrFollowUpLimit):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, features.ErrCannotPublishWithoutQuestions),
		errors.Is(err, features.ErrInvalidQuestionForFollowUp),
		errors.Is(err, features.ErrNoKnowledgeSources),
		errors.Is(err, model.ErrMCQOptions),
		errors.Is(err, model.ErrMCQCorrectOption),
		errors.Is(err, model.ErrKeyPoints),
		errors.Is(err, model.ErrMarks):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

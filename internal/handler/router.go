package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ext "sona/internal/utils/extractor"
)

// Setup builds the HTTP router: a health probe, the authenticated creator
// API and the public candidate API.
func Setup(h *Handler, extractor ext.Extractor, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	creator := router.Group("/api/v1", Auth(extractor))
	{
		creator.POST("/agents", h.CreateAgent)
		creator.GET("/agents", h.ListAgents)
		creator.GET("/agents/:agentId", h.GetAgent)
		creator.PATCH("/agents/:agentId", h.UpdateAgent)
		creator.POST("/agents/:agentId/publish", h.PublishAgent)
		creator.POST("/agents/:agentId/unpublish", h.UnpublishAgent)
		creator.DELETE("/agents/:agentId", h.DeleteAgent)

		creator.POST("/agents/:agentId/questions", h.CreateQuestion)
		creator.GET("/agents/:agentId/questions", h.ListQuestions)
		creator.DELETE("/agents/:agentId/questions", h.DeleteAllQuestions)
		creator.POST("/agents/:agentId/questions/reorder", h.ReorderQuestions)
		creator.POST("/agents/:agentId/questions/generate", h.GenerateQuestions)
		creator.PATCH("/questions/:questionId", h.UpdateQuestion)
		creator.DELETE("/questions/:questionId", h.DeleteQuestion)

		creator.POST("/agents/:agentId/sources/topic", h.AddTopicSource)
		creator.POST("/agents/:agentId/sources/url", h.AddURLSource)
		creator.POST("/agents/:agentId/sources/search", h.SearchWeb)
		creator.POST("/agents/:agentId/sources/web", h.AddWebSearchSources)
		creator.POST("/agents/:agentId/sources/document", h.UploadDocumentSource)
		creator.GET("/agents/:agentId/sources", h.ListSources)
		creator.DELETE("/sources/:sourceId", h.DeleteSource)

		creator.GET("/agents/:agentId/interviews", h.ListInterviews)
		creator.GET("/interviews/:interviewId", h.GetInterview)
		creator.GET("/interviews/:interviewId/responses", h.GetInterviewResponses)
	}

	candidate := router.Group("/api/v1/public")
	{
		candidate.GET("/agents/:shareLink", h.GetPublicAgent)
		candidate.POST("/agents/:shareLink/interviews", h.StartInterview)
		candidate.POST("/sessions/:interviewId/intro", h.SubmitIntro)
		candidate.POST("/sessions/:interviewId/answers", h.SubmitAnswer)
		candidate.POST("/sessions/:interviewId/follow-up", h.GenerateFollowUp)
		candidate.POST("/sessions/:interviewId/follow-up/answers", h.SubmitFollowUpAnswer)
		candidate.POST("/sessions/:interviewId/complete", h.CompleteInterview)
		candidate.POST("/sessions/:interviewId/recording", h.UploadRecording)
	}

	return router
}

package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"sona/internal/features"
)

// Creator-facing surface: agent lifecycle, question bank, knowledge sources
// and interview review. All routes here run behind the Auth middleware.

func (h *Handler) CreateAgent(c *gin.Context) {
	agent, err := h.agents.Create(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, agent)
}

func (h *Handler) GetAgent(c *gin.Context) {
	agent, err := h.agents.Get(c.Request.Context(), currentUserID(c), c.Param("agentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

func (h *Handler) ListAgents(c *gin.Context) {
	agents, err := h.agents.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

func (h *Handler) UpdateAgent(c *gin.Context) {
	var update features.AgentUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	update.AgentID = c.Param("agentId")

	agent, err := h.agents.Update(c.Request.Context(), currentUserID(c), &update)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

func (h *Handler) PublishAgent(c *gin.Context) {
	if err := h.agents.Publish(c.Request.Context(), currentUserID(c), c.Param("agentId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) UnpublishAgent(c *gin.Context) {
	if err := h.agents.Unpublish(c.Request.Context(), currentUserID(c), c.Param("agentId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeleteAgent(c *gin.Context) {
	if err := h.agents.Delete(c.Request.Context(), currentUserID(c), c.Param("agentId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) CreateQuestion(c *gin.Context) {
	var input features.QuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	input.AgentID = c.Param("agentId")

	question, err := h.questions.Create(c.Request.Context(), currentUserID(c), &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

func (h *Handler) ListQuestions(c *gin.Context) {
	questions, err := h.questions.List(c.Request.Context(), currentUserID(c), c.Param("agentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (h *Handler) UpdateQuestion(c *gin.Context) {
	var input features.QuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	question, err := h.questions.Update(c.Request.Context(), currentUserID(c), c.Param("questionId"), &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *Handler) DeleteQuestion(c *gin.Context) {
	if err := h.questions.Delete(c.Request.Context(), currentUserID(c), c.Param("questionId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeleteAllQuestions(c *gin.Context) {
	deleted, err := h.questions.DeleteAll(c.Request.Context(), currentUserID(c), c.Param("agentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deletedCount": deleted})
}

func (h *Handler) ReorderQuestions(c *gin.Context) {
	var req struct {
		QuestionIDs []string `json:"questionIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.questions.Reorder(c.Request.Context(), currentUserID(c), c.Param("agentId"), req.QuestionIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) GenerateQuestions(c *gin.Context) {
	var req features.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.AgentID = c.Param("agentId")

	result, err := h.questions.Generate(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) AddTopicSource(c *gin.Context) {
	var req struct {
		Topic string `json:"topic" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	source, err := h.knowledge.AddTopic(c.Request.Context(), currentUserID(c), c.Param("agentId"), req.Topic)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, source)
}

func (h *Handler) AddURLSource(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	source, err := h.knowledge.AddURL(c.Request.Context(), currentUserID(c), c.Param("agentId"), req.URL)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, source)
}

func (h *Handler) SearchWeb(c *gin.Context) {
	var req struct {
		Query      string `json:"query" binding:"required"`
		MaxResults int    `json:"maxResults"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	results, err := h.knowledge.SearchWeb(c.Request.Context(), currentUserID(c), c.Param("agentId"), req.Query, req.MaxResults)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *Handler) AddWebSearchSources(c *gin.Context) {
	var req struct {
		URLs []string `json:"urls" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sources, err := h.knowledge.AddWebSearchSources(c.Request.Context(), currentUserID(c), c.Param("agentId"), req.URLs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sources": sources})
}

func (h *Handler) UploadDocumentSource(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	source, err := h.knowledge.UploadDocument(c.Request.Context(), currentUserID(c),
		c.Param("agentId"), header.Filename, data, contentType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, source)
}

func (h *Handler) ListSources(c *gin.Context) {
	sources, err := h.knowledge.List(c.Request.Context(), currentUserID(c), c.Param("agentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

func (h *Handler) DeleteSource(c *gin.Context) {
	if err := h.knowledge.Delete(c.Request.Context(), currentUserID(c), c.Param("sourceId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) ListInterviews(c *gin.Context) {
	interviews, err := h.sessions.ListByAgent(c.Request.Context(), currentUserID(c), c.Param("agentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": interviews})
}

func (h *Handler) GetInterview(c *gin.Context) {
	interview, err := h.sessions.Get(c.Request.Context(), currentUserID(c), c.Param("interviewId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, interview)
}

// GetInterviewResponses returns the full ledger including evaluator
// rationale. This surface is creator-only; candidates never see it.
func (h *Handler) GetInterviewResponses(c *gin.Context) {
	responses, err := h.sessions.Responses(c.Request.Context(), currentUserID(c), c.Param("interviewId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": responses})
}

package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Candidate-facing surface. No authentication; a published share link or a
// session id is the capability. Responses never include scores, correctness
// or evaluator output.

func (h *Handler) GetPublicAgent(c *gin.Context) {
	agent, err := h.agents.GetByShareLink(c.Request.Context(), c.Param("shareLink"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

func (h *Handler) StartInterview(c *gin.Context) {
	var req struct {
		CandidateName  string `json:"candidateName" binding:"required"`
		CandidateEmail string `json:"candidateEmail" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.sessions.Start(c.Request.Context(), c.Param("shareLink"),
		req.CandidateName, req.CandidateEmail)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) SubmitIntro(c *gin.Context) {
	var req struct {
		CandidateIntro string `json:"candidateIntro"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.sessions.SubmitIntro(c.Request.Context(), c.Param("interviewId"), req.CandidateIntro); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SubmitAnswer acknowledges receipt and nothing more. Score and correctness
// stay server-side until the creator reviews the interview.
func (h *Handler) SubmitAnswer(c *gin.Context) {
	var req struct {
		QuestionID      string `json:"questionId" binding:"required"`
		CandidateAnswer string `json:"candidateAnswer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.sessions.SubmitAnswer(c.Request.Context(), c.Param("interviewId"),
		req.QuestionID, req.CandidateAnswer)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) GenerateFollowUp(c *gin.Context) {
	var req struct {
		QuestionID      string `json:"questionId" binding:"required"`
		CandidateAnswer string `json:"candidateAnswer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	followUp, err := h.sessions.GenerateFollowUp(c.Request.Context(), c.Param("interviewId"),
		req.QuestionID, req.CandidateAnswer)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followUpQuestion": followUp})
}

func (h *Handler) SubmitFollowUpAnswer(c *gin.Context) {
	var req struct {
		QuestionID       string `json:"questionId" binding:"required"`
		FollowUpQuestion string `json:"followUpQuestion" binding:"required"`
		FollowUpAnswer   string `json:"followUpAnswer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.sessions.SubmitFollowUpAnswer(c.Request.Context(), c.Param("interviewId"),
		req.QuestionID, req.FollowUpQuestion, req.FollowUpAnswer)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) CompleteInterview(c *gin.Context) {
	var req struct {
		RecordingURL string `json:"recordingUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.sessions.Complete(c.Request.Context(), c.Param("interviewId"), req.RecordingURL); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) UploadRecording(c *gin.Context) {
	file, header, err := c.Request.FormFile("recording")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing recording"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read recording"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	recording, err := h.sessions.UploadRecording(c.Request.Context(), c.Param("interviewId"), data, contentType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recordingId": recording.ID, "url": recording.URL})
}

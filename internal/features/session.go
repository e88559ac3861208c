package features

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sona/internal/model"
	"sona/internal/repo"
	gen "sona/internal/utils/generator"
	"sona/pkg/blob"
	rabbit "sona/pkg/rabbit/pkg"
)

type ISession interface {
	Start(ctx context.Context, shareLink, candidateName, candidateEmail string) (*StartResult, error)
	SubmitIntro(ctx context.Context, interviewID, intro string) error
	SubmitAnswer(ctx context.Context, interviewID, questionID, candidateAnswer string) error
	GenerateFollowUp(ctx context.Context, interviewID, questionID, candidateAnswer string) (string, error)
	SubmitFollowUpAnswer(ctx context.Context, interviewID, questionID, followUpQuestion, followUpAnswer string) error
	Complete(ctx context.Context, interviewID, recordingURL string) error
	Abandon(ctx context.Context, interviewID string) error
	UploadRecording(ctx context.Context, interviewID string, data []byte, mimeType string) (*model.Recording, error)
	Get(ctx context.Context, userID uint64, interviewID string) (*model.Interview, error)
	ListByAgent(ctx context.Context, userID uint64, agentID string) ([]*model.Interview, error)
	Responses(ctx context.Context, userID uint64, interviewID string) ([]*model.Response, error)
}

// StartResult is the candidate-facing session bootstrap payload. Questions
// are sanitized; the evaluator secrets never cross this boundary.
type StartResult struct {
	InterviewID string                    `json:"interviewId"`
	AgentName   string                    `json:"agentName"`
	Questions   []model.CandidateQuestion `json:"questions"`
}

type completedEvent struct {
	InterviewID string  `json:"interviewId"`
	AgentID     string  `json:"agentId"`
	TotalScore  float64 `json:"totalScore"`
	MaxScore    float64 `json:"maxScore"`
	CompletedAt int64   `json:"completedAt"`
}

// Session orchestrates the interview lifecycle: start, intro, answer
// evaluation, follow-up rounds, completion and recording attachment. It owns
// the running score and the response ledger writes.
type Session struct {
	repo      *repo.Repository
	evaluator *Evaluator
	followUp  *FollowUpGenerator
	rabbit    rabbit.Rabbit
	storage   blob.Storage
	logger    *zap.Logger
}

func NewSession(repo *repo.Repository, evaluator *Evaluator, followUp *FollowUpGenerator, rabbit rabbit.Rabbit, storage blob.Storage, logger *zap.Logger) *Session {
	return &Session{
		repo:      repo,
		evaluator: evaluator,
		followUp:  followUp,
		rabbit:    rabbit,
		storage:   storage,
		logger:    logger,
	}
}

// Start opens a session against a published agent. The question list and
// maxScore are snapshotted now; later question edits do not change the
// ceiling of an already-running interview.
func (s *Session) Start(ctx context.Context, shareLink, candidateName, candidateEmail string) (*StartResult, error) {
	agent, err := s.repo.Agent.GetByShareLink(ctx, shareLink)
	if err != nil || !agent.IsPublished {
		return nil, ErrAgentNotAvailable
	}

	questions, err := s.repo.Question.ListByAgent(ctx, agent.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	maxScore := 0.0
	sanitized := make([]model.CandidateQuestion, 0, len(questions))
	for _, q := range questions {
		maxScore += float64(q.Marks)
		sanitized = append(sanitized, q.Sanitized())
	}

	interview := &model.Interview{
		ID:             gen.GenerateUUID(),
		AgentID:        agent.ID,
		CandidateName:  candidateName,
		CandidateEmail: candidateEmail,
		Status:         model.InterviewStatusInProgress,
		TotalScore:     0,
		MaxScore:       maxScore,
		StartedAt:      time.Now(),
	}
	if err := s.repo.Interview.Create(ctx, interview); err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}

	s.logger.Info("Interview started",
		zap.String("interviewId", interview.ID),
		zap.String("agentId", agent.ID),
		zap.Float64("maxScore", maxScore))

	return &StartResult{
		InterviewID: interview.ID,
		AgentName:   agent.Name,
		Questions:   sanitized,
	}, nil
}

// SubmitIntro stores the candidate's self-introduction. Last write wins;
// repeats are not rejected.
func (s *Session) SubmitIntro(ctx context.Context, interviewID, intro string) error {
	interview, err := s.getOpen(ctx, interviewID)
	if err != nil {
		return err
	}
	return s.repo.Interview.SetIntro(ctx, interview.ID, intro)
}

// SubmitAnswer evaluates the answer, merges it into the ledger and adds the
// score delta to the running total. The return carries no score and no
// correctness signal; the candidate boundary only ever sees an ack.
func (s *Session) SubmitAnswer(ctx context.Context, interviewID, questionID, candidateAnswer string) error {
	interview, err := s.getOpen(ctx, interviewID)
	if err != nil {
		return err
	}

	question, err := s.repo.Question.Get(ctx, questionID)
	if err != nil || question.AgentID != interview.AgentID {
		return ErrQuestionNotFound
	}

	response := &model.Response{
		ID:              gen.GenerateUUID(),
		InterviewID:     interview.ID,
		QuestionID:      question.ID,
		CandidateAnswer: candidateAnswer,
		AnsweredAt:      time.Now(),
	}

	switch question.Type {
	case model.QuestionTypeMCQ:
		score, isCorrect := s.evaluator.EvaluateMCQ(question, candidateAnswer)
		response.Score = score
		response.IsCorrect = &isCorrect
	default:
		evaluation := s.evaluator.EvaluateSubjective(ctx, question, candidateAnswer)
		response.Score = evaluation.Score
		response.EvaluationFeedback = evaluation.Feedback
	}

	// Ledger merge and score accumulation commit together. Merge returns the
	// best-score increase, so a retried or weaker submission adds zero.
	err = s.repo.WithTx(ctx, func(ctx context.Context) error {
		delta, err := s.repo.Response.Merge(ctx, response)
		if err != nil {
			return err
		}
		if delta == 0 {
			return nil
		}
		return s.repo.Interview.AddScore(ctx, interview.ID, delta)
	})
	if err != nil {
		s.logger.Error("Failed to record answer",
			zap.String("interviewId", interview.ID),
			zap.String("questionId", question.ID),
			zap.Error(err))
		return fmt.Errorf("failed to record answer: %w", err)
	}

	return nil
}

// GenerateFollowUp produces one follow-up prompt for a subjective answer.
// The caller is expected to gate on the agent's follow-up config, but the
// gate is re-checked here rather than trusted. Nothing is persisted until
// the candidate answers the follow-up.
func (s *Session) GenerateFollowUp(ctx context.Context, interviewID, questionID, candidateAnswer string) (string, error) {
	interview, err := s.getOpen(ctx, interviewID)
	if err != nil {
		return "", err
	}

	question, err := s.repo.Question.Get(ctx, questionID)
	if err != nil || question.AgentID != interview.AgentID {
		return "", ErrQuestionNotFound
	}
	if question.Type != model.QuestionTypeSubjective {
		return "", ErrInvalidQuestionForFollowUp
	}

	agent, err := s.repo.Agent.Get(ctx, interview.AgentID)
	if err != nil {
		return "", ErrAgentNotFound
	}
	if !agent.EnableFollowUps {
		return "", ErrFollowUpsDisabled
	}

	rounds := 0
	existing, err := s.repo.Response.Get(ctx, interview.ID, question.ID)
	if err == nil {
		rounds = len(existing.FollowUpQuestions)
	}
	if rounds >= agent.MaxFollowUps {
		return "", ErrFollowUpLimit
	}

	return s.followUp.Generate(ctx, question, candidateAnswer)
}

// SubmitFollowUpAnswer records one follow-up exchange. Follow-up answers are
// kept for review and never feed the automatic score aggregate; re-scoring
// them would double count against the question's marks.
func (s *Session) SubmitFollowUpAnswer(ctx context.Context, interviewID, questionID, followUpQuestion, followUpAnswer string) error {
	interview, err := s.getOpen(ctx, interviewID)
	if err != nil {
		return err
	}

	question, err := s.repo.Question.Get(ctx, questionID)
	if err != nil || question.AgentID != interview.AgentID {
		return ErrQuestionNotFound
	}

	return s.repo.Response.AppendFollowUp(ctx, interview.ID, question.ID, followUpQuestion, followUpAnswer)
}

// Complete finalizes the session. Idempotent: completing a completed
// interview re-stamps completedAt and leaves the score untouched. An
// abandoned interview stays abandoned.
func (s *Session) Complete(ctx context.Context, interviewID, recordingURL string) error {
	interview, err := s.repo.Interview.Get(ctx, interviewID)
	if err != nil {
		return ErrInterviewNotFound
	}
	if interview.Status == model.InterviewStatusAbandoned {
		return ErrInterviewClosed
	}
	firstCompletion := interview.Status == model.InterviewStatusInProgress

	if err := s.repo.Interview.Complete(ctx, interview.ID, time.Now(), recordingURL); err != nil {
		return fmt.Errorf("failed to complete interview: %w", err)
	}

	s.logger.Info("Interview completed",
		zap.String("interviewId", interview.ID),
		zap.Float64("totalScore", interview.TotalScore),
		zap.Float64("maxScore", interview.MaxScore))

	if firstCompletion {
		s.publishCompleted(ctx, interview)
	}
	return nil
}

func (s *Session) publishCompleted(ctx context.Context, interview *model.Interview) {
	body, err := json.Marshal(completedEvent{
		InterviewID: interview.ID,
		AgentID:     interview.AgentID,
		TotalScore:  interview.TotalScore,
		MaxScore:    interview.MaxScore,
		CompletedAt: time.Now().Unix(),
	})
	if err != nil {
		return
	}
	if err := s.rabbit.Publish(ctx, body); err != nil {
		// Notification only; completion already committed.
		s.logger.Warn("Failed to publish completion event",
			zap.String("interviewId", interview.ID), zap.Error(err))
	}
}

// Abandon marks a stale or given-up session terminal. No-op on interviews
// already in a terminal state.
func (s *Session) Abandon(ctx context.Context, interviewID string) error {
	interview, err := s.repo.Interview.Get(ctx, interviewID)
	if err != nil {
		return ErrInterviewNotFound
	}
	if interview.Status.Terminal() {
		return nil
	}
	return s.repo.Interview.SetStatus(ctx, interview.ID, model.InterviewStatusAbandoned)
}

// UploadRecording stores the session artifact and keeps both a metadata row
// per upload and a last-write-wins URL pointer on the interview.
func (s *Session) UploadRecording(ctx context.Context, interviewID string, data []byte, mimeType string) (*model.Recording, error) {
	interview, err := s.repo.Interview.Get(ctx, interviewID)
	if err != nil {
		return nil, ErrInterviewNotFound
	}

	key := fmt.Sprintf("recordings/%s/%s.%s", interview.ID, gen.GenerateUUID(), extensionFor(mimeType))
	object, err := s.storage.Put(ctx, key, data, mimeType)
	if err != nil {
		s.logger.Error("Failed to upload recording",
			zap.String("interviewId", interview.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to upload recording: %w", err)
	}

	recording := &model.Recording{
		ID:          gen.GenerateUUID(),
		InterviewID: interview.ID,
		StorageKey:  object.Key,
		URL:         object.URL,
		PublicURL:   object.PublicURL,
		FileSize:    object.FileSize,
		MimeType:    mimeType,
		UploadedAt:  time.Now(),
	}
	if err := s.repo.Recording.Create(ctx, recording); err != nil {
		return nil, fmt.Errorf("failed to save recording metadata: %w", err)
	}
	if err := s.repo.Interview.SetRecordingURL(ctx, interview.ID, object.URL); err != nil {
		return nil, fmt.Errorf("failed to attach recording: %w", err)
	}

	return recording, nil
}

// Get returns one interview for its agent's creator.
func (s *Session) Get(ctx context.Context, userID uint64, interviewID string) (*model.Interview, error) {
	interview, err := s.repo.Interview.Get(ctx, interviewID)
	if err != nil {
		return nil, ErrInterviewNotFound
	}
	if err := s.authorize(ctx, userID, interview.AgentID); err != nil {
		return nil, err
	}
	return interview, nil
}

// ListByAgent returns an agent's interview history for its creator.
func (s *Session) ListByAgent(ctx context.Context, userID uint64, agentID string) ([]*model.Interview, error) {
	if err := s.authorize(ctx, userID, agentID); err != nil {
		return nil, err
	}
	return s.repo.Interview.ListByAgent(ctx, agentID)
}

// Responses returns the full ledger for one interview, evaluator rationale
// included. Creator-only surface.
func (s *Session) Responses(ctx context.Context, userID uint64, interviewID string) ([]*model.Response, error) {
	interview, err := s.repo.Interview.Get(ctx, interviewID)
	if err != nil {
		return nil, ErrInterviewNotFound
	}
	if err := s.authorize(ctx, userID, interview.AgentID); err != nil {
		return nil, err
	}
	return s.repo.Response.ListByInterview(ctx, interviewID)
}

func (s *Session) authorize(ctx context.Context, userID uint64, agentID string) error {
	agent, err := s.repo.Agent.Get(ctx, agentID)
	if err != nil {
		return ErrAgentNotFound
	}
	if agent.CreatorID != userID {
		return ErrUnauthorized
	}
	return nil
}

func (s *Session) getOpen(ctx context.Context, interviewID string) (*model.Interview, error) {
	interview, err := s.repo.Interview.Get(ctx, interviewID)
	if err != nil {
		return nil, ErrInterviewNotFound
	}
	if interview.Status.Terminal() {
		return nil, ErrInterviewClosed
	}
	return interview, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "video/webm", "audio/webm":
		return "webm"
	case "video/mp4":
		return "mp4"
	case "audio/mpeg":
		return "mp3"
	default:
		return "bin"
	}
}

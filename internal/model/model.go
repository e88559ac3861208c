package model

import (
	"errors"
	"time"
)

type QuestionType string

const (
	QuestionTypeMCQ        QuestionType = "mcq"
	QuestionTypeSubjective QuestionType = "subjective"
)

type InterviewStatus string

const (
	InterviewStatusInProgress InterviewStatus = "in_progress"
	InterviewStatusCompleted  InterviewStatus = "completed"
	InterviewStatusAbandoned  InterviewStatus = "abandoned"
)

// Terminal reports whether the status permits no further candidate activity.
func (s InterviewStatus) Terminal() bool {
	return s == InterviewStatusCompleted || s == InterviewStatusAbandoned
}

type KnowledgeSourceType string

const (
	SourceTypeTopic     KnowledgeSourceType = "topic"
	SourceTypeURL       KnowledgeSourceType = "url"
	SourceTypeWebSearch KnowledgeSourceType = "web_search"
	SourceTypeDocument  KnowledgeSourceType = "document"
)

// Agent is a configured interview persona plus its question set and
// publication state.
type Agent struct {
	ID                  string
	CreatorID           uint64
	Name                string
	Gender              string
	Appearance          string
	VoiceType           string
	ConversationalStyle string
	EnableFollowUps     bool
	MaxFollowUps        int
	ShareableLink       string
	IsPublished         bool
	TotalMarks          int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

var (
	ErrMCQOptions       = errors.New("mcq must have exactly 4 options")
	ErrMCQCorrectOption = errors.New("mcq must have a valid correct option (0-3)")
	ErrKeyPoints        = errors.New("subjective question must have at least 3 key points")
	ErrMarks            = errors.New("question marks must be positive")
)

// Question is a tagged variant: Options/CorrectOption are meaningful only for
// mcq, KeyPoints only for subjective. The constructors are the only places
// that shape is enforced.
type Question struct {
	ID            string
	AgentID       string
	Type          QuestionType
	QuestionText  string
	Order         int
	Marks         int
	Options       []string
	CorrectOption int
	KeyPoints     []string
	CreatedAt     time.Time
}

func NewMCQQuestion(agentID, text string, order, marks int, options []string, correctOption int) (*Question, error) {
	if marks <= 0 {
		return nil, ErrMarks
	}
	if len(options) != 4 {
		return nil, ErrMCQOptions
	}
	if correctOption < 0 || correctOption > 3 {
		return nil, ErrMCQCorrectOption
	}
	return &Question{
		AgentID:       agentID,
		Type:          QuestionTypeMCQ,
		QuestionText:  text,
		Order:         order,
		Marks:         marks,
		Options:       options,
		CorrectOption: correctOption,
	}, nil
}

func NewSubjectiveQuestion(agentID, text string, order, marks int, keyPoints []string) (*Question, error) {
	if marks <= 0 {
		return nil, ErrMarks
	}
	if len(keyPoints) < 3 {
		return nil, ErrKeyPoints
	}
	return &Question{
		AgentID:      agentID,
		Type:         QuestionTypeSubjective,
		QuestionText: text,
		Order:        order,
		Marks:        marks,
		KeyPoints:    keyPoints,
	}, nil
}

// CandidateQuestion is the sanitized payload shown to candidates. It never
// carries the correct option or the evaluation key points.
type CandidateQuestion struct {
	ID           string       `json:"id"`
	Type         QuestionType `json:"type"`
	QuestionText string       `json:"questionText"`
	Order        int          `json:"order"`
	Marks        int          `json:"marks"`
	Options      []string     `json:"options,omitempty"`
}

// Sanitized strips the evaluator-only secrets from a question.
func (q *Question) Sanitized() CandidateQuestion {
	cq := CandidateQuestion{
		ID:           q.ID,
		Type:         q.Type,
		QuestionText: q.QuestionText,
		Order:        q.Order,
		Marks:        q.Marks,
	}
	if q.Type == QuestionTypeMCQ {
		cq.Options = q.Options
	}
	return cq
}

// Interview is one candidate's attempt at an agent's interview.
type Interview struct {
	ID             string
	AgentID        string
	CandidateName  string
	CandidateEmail string
	Status         InterviewStatus
	TotalScore     float64
	MaxScore       float64
	CandidateIntro string
	RecordingURL   string
	StartedAt      time.Time
	CompletedAt    *time.Time
}

// Response is the ledger row for one question within a session. At most one
// row exists per (interview, question) pair; FollowUpQuestions and
// FollowUpAnswers are parallel arrays grown together.
type Response struct {
	ID                 string
	InterviewID        string
	QuestionID         string
	CandidateAnswer    string
	IsCorrect          *bool
	Score              float64
	EvaluationFeedback string
	FollowUpQuestions  []string
	FollowUpAnswers    []string
	AnsweredAt         time.Time
}

// KnowledgeSource is raw creator input used to generate questions.
type KnowledgeSource struct {
	ID             string
	AgentID        string
	Type           KnowledgeSourceType
	Content        string
	ScrapedContent string
	DocumentURL    string
	CreatedAt      time.Time
}

// Recording is the metadata row for an uploaded session artifact. Metadata
// rows accumulate; the session keeps a single last-write-wins URL pointer.
type Recording struct {
	ID          string
	InterviewID string
	StorageKey  string
	URL         string
	PublicURL   string
	FileSize    int64
	MimeType    string
	UploadedAt  time.Time
}

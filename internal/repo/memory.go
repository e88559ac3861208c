package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sona/internal/model"
)

// memStore backs the in-memory repository. A single mutex serializes all
// access; WithTx holds it for the whole function so multi-step operations
// (ledger merge + score increment) are atomic, mirroring the transactional
// guarantees of the Postgres implementation.
type memStore struct {
	mu         sync.Mutex
	agents     map[string]*model.Agent
	questions  map[string]*model.Question
	interviews map[string]*model.Interview
	responses  map[string]*model.Response // keyed interviewID+"/"+questionID
	sources    map[string]*model.KnowledgeSource
	recordings map[string]*model.Recording
}

type memTxKey struct{}

func newMemStore() *memStore {
	return &memStore{
		agents:     make(map[string]*model.Agent),
		questions:  make(map[string]*model.Question),
		interviews: make(map[string]*model.Interview),
		responses:  make(map[string]*model.Response),
		sources:    make(map[string]*model.KnowledgeSource),
		recordings: make(map[string]*model.Recording),
	}
}

// lock acquires the store mutex unless ctx is already inside a transaction.
func (s *memStore) lock(ctx context.Context) func() {
	if ctx.Value(memTxKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, memTxKey{}, struct{}{}))
}

func responseKey(interviewID, questionID string) string {
	return interviewID + "/" + questionID
}

type MemAgent struct {
	store *memStore
}

func (r *MemAgent) Create(ctx context.Context, agent *model.Agent) error {
	defer r.store.lock(ctx)()
	cp := *agent
	r.store.agents[agent.ID] = &cp
	return nil
}

func (r *MemAgent) Get(ctx context.Context, id string) (*model.Agent, error) {
	defer r.store.lock(ctx)()
	a, ok := r.store.agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemAgent) GetByShareLink(ctx context.Context, token string) (*model.Agent, error) {
	defer r.store.lock(ctx)()
	for _, a := range r.store.agents {
		if a.ShareableLink == token {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemAgent) ListByCreator(ctx context.Context, creatorID uint64) ([]*model.Agent, error) {
	defer r.store.lock(ctx)()
	var agents []*model.Agent
	for _, a := range r.store.agents {
		if a.CreatorID == creatorID {
			cp := *a
			agents = append(agents, &cp)
		}
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].CreatedAt.After(agents[j].CreatedAt) })
	return agents, nil
}

func (r *MemAgent) Update(ctx context.Context, agent *model.Agent) error {
	defer r.store.lock(ctx)()
	existing, ok := r.store.agents[agent.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = agent.Name
	existing.Gender = agent.Gender
	existing.Appearance = agent.Appearance
	existing.VoiceType = agent.VoiceType
	existing.ConversationalStyle = agent.ConversationalStyle
	existing.EnableFollowUps = agent.EnableFollowUps
	existing.MaxFollowUps = agent.MaxFollowUps
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *MemAgent) SetPublished(ctx context.Context, id string, published bool) error {
	defer r.store.lock(ctx)()
	a, ok := r.store.agents[id]
	if !ok {
		return ErrNotFound
	}
	a.IsPublished = published
	a.UpdatedAt = time.Now()
	return nil
}

func (r *MemAgent) SetTotalMarks(ctx context.Context, id string, totalMarks int) error {
	defer r.store.lock(ctx)()
	a, ok := r.store.agents[id]
	if !ok {
		return ErrNotFound
	}
	a.TotalMarks = totalMarks
	a.UpdatedAt = time.Now()
	return nil
}

func (r *MemAgent) Delete(ctx context.Context, id string) error {
	defer r.store.lock(ctx)()
	delete(r.store.agents, id)
	return nil
}

type MemQuestion struct {
	store *memStore
}

func (r *MemQuestion) Create(ctx context.Context, question *model.Question) error {
	defer r.store.lock(ctx)()
	cp := *question
	r.store.questions[question.ID] = &cp
	return nil
}

func (r *MemQuestion) Get(ctx context.Context, id string) (*model.Question, error) {
	defer r.store.lock(ctx)()
	q, ok := r.store.questions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *MemQuestion) ListByAgent(ctx context.Context, agentID string) ([]*model.Question, error) {
	defer r.store.lock(ctx)()
	var questions []*model.Question
	for _, q := range r.store.questions {
		if q.AgentID == agentID {
			cp := *q
			questions = append(questions, &cp)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
	return questions, nil
}

func (r *MemQuestion) Update(ctx context.Context, question *model.Question) error {
	defer r.store.lock(ctx)()
	existing, ok := r.store.questions[question.ID]
	if !ok {
		return ErrNotFound
	}
	existing.QuestionText = question.QuestionText
	existing.Order = question.Order
	existing.Marks = question.Marks
	existing.Options = question.Options
	existing.CorrectOption = question.CorrectOption
	existing.KeyPoints = question.KeyPoints
	return nil
}

func (r *MemQuestion) SetOrder(ctx context.Context, id string, order int) error {
	defer r.store.lock(ctx)()
	q, ok := r.store.questions[id]
	if !ok {
		return ErrNotFound
	}
	q.Order = order
	return nil
}

func (r *MemQuestion) Delete(ctx context.Context, id string) error {
	defer r.store.lock(ctx)()
	delete(r.store.questions, id)
	return nil
}

func (r *MemQuestion) DeleteByAgent(ctx context.Context, agentID string) (int, error) {
	defer r.store.lock(ctx)()
	deleted := 0
	for id, q := range r.store.questions {
		if q.AgentID == agentID {
			delete(r.store.questions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *MemQuestion) SumMarks(ctx context.Context, agentID string) (int, error) {
	defer r.store.lock(ctx)()
	sum := 0
	for _, q := range r.store.questions {
		if q.AgentID == agentID {
			sum += q.Marks
		}
	}
	return sum, nil
}

func (r *MemQuestion) CountByAgent(ctx context.Context, agentID string) (int, error) {
	defer r.store.lock(ctx)()
	count := 0
	for _, q := range r.store.questions {
		if q.AgentID == agentID {
			count++
		}
	}
	return count, nil
}

type MemInterview struct {
	store *memStore
}

func (r *MemInterview) Create(ctx context.Context, interview *model.Interview) error {
	defer r.store.lock(ctx)()
	cp := *interview
	r.store.interviews[interview.ID] = &cp
	return nil
}

func (r *MemInterview) Get(ctx context.Context, id string) (*model.Interview, error) {
	defer r.store.lock(ctx)()
	iv, ok := r.store.interviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *iv
	return &cp, nil
}

func (r *MemInterview) ListByAgent(ctx context.Context, agentID string) ([]*model.Interview, error) {
	defer r.store.lock(ctx)()
	var interviews []*model.Interview
	for _, iv := range r.store.interviews {
		if iv.AgentID == agentID {
			cp := *iv
			interviews = append(interviews, &cp)
		}
	}
	sort.Slice(interviews, func(i, j int) bool { return interviews[i].StartedAt.After(interviews[j].StartedAt) })
	return interviews, nil
}

func (r *MemInterview) SetIntro(ctx context.Context, id, intro string) error {
	defer r.store.lock(ctx)()
	iv, ok := r.store.interviews[id]
	if !ok {
		return ErrNotFound
	}
	iv.CandidateIntro = intro
	return nil
}

func (r *MemInterview) AddScore(ctx context.Context, id string, delta float64) error {
	defer r.store.lock(ctx)()
	iv, ok := r.store.interviews[id]
	if !ok {
		return ErrNotFound
	}
	iv.TotalScore += delta
	return nil
}

func (r *MemInterview) Complete(ctx context.Context, id string, completedAt time.Time, recordingURL string) error {
	defer r.store.lock(ctx)()
	iv, ok := r.store.interviews[id]
	if !ok {
		return ErrNotFound
	}
	iv.Status = model.InterviewStatusCompleted
	iv.CompletedAt = &completedAt
	if recordingURL != "" {
		iv.RecordingURL = recordingURL
	}
	return nil
}

func (r *MemInterview) SetRecordingURL(ctx context.Context, id, url string) error {
	defer r.store.lock(ctx)()
	iv, ok := r.store.interviews[id]
	if !ok {
		return ErrNotFound
	}
	iv.RecordingURL = url
	return nil
}

func (r *MemInterview) SetStatus(ctx context.Context, id string, status model.InterviewStatus) error {
	defer r.store.lock(ctx)()
	iv, ok := r.store.interviews[id]
	if !ok {
		return ErrNotFound
	}
	iv.Status = status
	return nil
}

func (r *MemInterview) ListStale(ctx context.Context, startedBefore time.Time) ([]*model.Interview, error) {
	defer r.store.lock(ctx)()
	var interviews []*model.Interview
	for _, iv := range r.store.interviews {
		if iv.Status == model.InterviewStatusInProgress && iv.StartedAt.Before(startedBefore) {
			cp := *iv
			interviews = append(interviews, &cp)
		}
	}
	return interviews, nil
}

type MemResponse struct {
	store *memStore
}

func (r *MemResponse) Merge(ctx context.Context, response *model.Response) (float64, error) {
	defer r.store.lock(ctx)()
	key := responseKey(response.InterviewID, response.QuestionID)
	existing, ok := r.store.responses[key]
	if !ok {
		cp := *response
		if cp.ID == "" {
			cp.ID = uuid.New().String()
		}
		// Ledger rows always carry arrays, matching the NOT NULL columns of
		// the SQL store.
		if cp.FollowUpQuestions == nil {
			cp.FollowUpQuestions = []string{}
		}
		if cp.FollowUpAnswers == nil {
			cp.FollowUpAnswers = []string{}
		}
		r.store.responses[key] = &cp
		return cp.Score, nil
	}

	existing.CandidateAnswer = response.CandidateAnswer
	existing.IsCorrect = response.IsCorrect
	if response.EvaluationFeedback != "" {
		existing.EvaluationFeedback = response.EvaluationFeedback
	}
	existing.FollowUpQuestions = append(existing.FollowUpQuestions, response.FollowUpQuestions...)
	existing.FollowUpAnswers = append(existing.FollowUpAnswers, response.FollowUpAnswers...)

	delta := 0.0
	if response.Score > existing.Score {
		delta = response.Score - existing.Score
		existing.Score = response.Score
	}
	return delta, nil
}

func (r *MemResponse) AppendFollowUp(ctx context.Context, interviewID, questionID, followUpQuestion, followUpAnswer string) error {
	defer r.store.lock(ctx)()
	key := responseKey(interviewID, questionID)
	existing, ok := r.store.responses[key]
	if !ok {
		r.store.responses[key] = &model.Response{
			ID:                uuid.New().String(),
			InterviewID:       interviewID,
			QuestionID:        questionID,
			FollowUpQuestions: []string{followUpQuestion},
			FollowUpAnswers:   []string{followUpAnswer},
			AnsweredAt:        time.Now(),
		}
		return nil
	}
	existing.FollowUpQuestions = append(existing.FollowUpQuestions, followUpQuestion)
	existing.FollowUpAnswers = append(existing.FollowUpAnswers, followUpAnswer)
	return nil
}

func (r *MemResponse) Get(ctx context.Context, interviewID, questionID string) (*model.Response, error) {
	defer r.store.lock(ctx)()
	resp, ok := r.store.responses[responseKey(interviewID, questionID)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *resp
	return &cp, nil
}

func (r *MemResponse) ListByInterview(ctx context.Context, interviewID string) ([]*model.Response, error) {
	defer r.store.lock(ctx)()
	var responses []*model.Response
	for _, resp := range r.store.responses {
		if resp.InterviewID == interviewID {
			cp := *resp
			responses = append(responses, &cp)
		}
	}
	sort.Slice(responses, func(i, j int) bool { return responses[i].AnsweredAt.Before(responses[j].AnsweredAt) })
	return responses, nil
}

type MemKnowledgeSource struct {
	store *memStore
}

func (r *MemKnowledgeSource) Create(ctx context.Context, source *model.KnowledgeSource) error {
	defer r.store.lock(ctx)()
	cp := *source
	r.store.sources[source.ID] = &cp
	return nil
}

func (r *MemKnowledgeSource) Get(ctx context.Context, id string) (*model.KnowledgeSource, error) {
	defer r.store.lock(ctx)()
	s, ok := r.store.sources[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MemKnowledgeSource) ListByAgent(ctx context.Context, agentID string) ([]*model.KnowledgeSource, error) {
	defer r.store.lock(ctx)()
	var sources []*model.KnowledgeSource
	for _, s := range r.store.sources {
		if s.AgentID == agentID {
			cp := *s
			sources = append(sources, &cp)
		}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].CreatedAt.Before(sources[j].CreatedAt) })
	return sources, nil
}

func (r *MemKnowledgeSource) Delete(ctx context.Context, id string) error {
	defer r.store.lock(ctx)()
	delete(r.store.sources, id)
	return nil
}

func (r *MemKnowledgeSource) DeleteByAgent(ctx context.Context, agentID string) error {
	defer r.store.lock(ctx)()
	for id, s := range r.store.sources {
		if s.AgentID == agentID {
			delete(r.store.sources, id)
		}
	}
	return nil
}

type MemRecording struct {
	store *memStore
}

func (r *MemRecording) Create(ctx context.Context, recording *model.Recording) error {
	defer r.store.lock(ctx)()
	cp := *recording
	r.store.recordings[recording.ID] = &cp
	return nil
}

func (r *MemRecording) ListByInterview(ctx context.Context, interviewID string) ([]*model.Recording, error) {
	defer r.store.lock(ctx)()
	var recordings []*model.Recording
	for _, rec := range r.store.recordings {
		if rec.InterviewID == interviewID {
			cp := *rec
			recordings = append(recordings, &cp)
		}
	}
	sort.Slice(recordings, func(i, j int) bool { return recordings[i].UploadedAt.Before(recordings[j].UploadedAt) })
	return recordings, nil
}

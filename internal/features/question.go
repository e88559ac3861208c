package features

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sona/internal/model"
	"sona/internal/repo"
	gen "sona/internal/utils/generator"
)

type IQuestion interface {
	Create(ctx context.Context, userID uint64, input *QuestionInput) (*model.Question, error)
	Get(ctx context.Context, userID uint64, questionID string) (*model.Question, error)
	List(ctx context.Context, userID uint64, agentID string) ([]*model.Question, error)
	Update(ctx context.Context, userID uint64, questionID string, input *QuestionInput) (*model.Question, error)
	Delete(ctx context.Context, userID uint64, questionID string) error
	DeleteAll(ctx context.Context, userID uint64, agentID string) (int, error)
	Reorder(ctx context.Context, userID uint64, agentID string, questionIDs []string) error
	Generate(ctx context.Context, userID uint64, req *GenerateRequest) (*GenerateResult, error)
}

// QuestionInput is the creator-supplied question definition. Options and
// CorrectOption apply to mcq, KeyPoints to subjective; the model
// constructors reject malformed combinations.
type QuestionInput struct {
	AgentID       string             `json:"agentId"`
	Type          model.QuestionType `json:"type"`
	QuestionText  string             `json:"questionText"`
	Order         int                `json:"order"`
	Marks         int                `json:"marks"`
	Options       []string           `json:"options"`
	CorrectOption int                `json:"correctOption"`
	KeyPoints     []string           `json:"keyPoints"`
}

// Question manages the per-agent question bank. Every mutation recomputes
// the agent's denormalized totalMarks inside the same transaction so the
// two never drift apart.
type Question struct {
	repo      *repo.Repository
	knowledge *Knowledge
	generator *QuestionGenerator
	logger    *zap.Logger
}

func NewQuestion(repo *repo.Repository, knowledge *Knowledge, generator *QuestionGenerator, logger *zap.Logger) *Question {
	return &Question{
		repo:      repo,
		knowledge: knowledge,
		generator: generator,
		logger:    logger,
	}
}

func (f *Question) Create(ctx context.Context, userID uint64, input *QuestionInput) (*model.Question, error) {
	if err := f.authorize(ctx, userID, input.AgentID); err != nil {
		return nil, err
	}

	question, err := buildQuestion(input)
	if err != nil {
		return nil, err
	}
	question.ID = gen.GenerateUUID()
	question.CreatedAt = time.Now()

	err = f.repo.WithTx(ctx, func(ctx context.Context) error {
		if err := f.repo.Question.Create(ctx, question); err != nil {
			return err
		}
		return f.recomputeTotalMarks(ctx, input.AgentID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return question, nil
}

func (f *Question) Get(ctx context.Context, userID uint64, questionID string) (*model.Question, error) {
	question, err := f.repo.Question.Get(ctx, questionID)
	if err != nil {
		return nil, ErrQuestionNotFound
	}
	if err := f.authorize(ctx, userID, question.AgentID); err != nil {
		return nil, err
	}
	return question, nil
}

func (f *Question) List(ctx context.Context, userID uint64, agentID string) ([]*model.Question, error) {
	if err := f.authorize(ctx, userID, agentID); err != nil {
		return nil, err
	}
	return f.repo.Question.ListByAgent(ctx, agentID)
}

func (f *Question) Update(ctx context.Context, userID uint64, questionID string, input *QuestionInput) (*model.Question, error) {
	existing, err := f.repo.Question.Get(ctx, questionID)
	if err != nil {
		return nil, ErrQuestionNotFound
	}
	if err := f.authorize(ctx, userID, existing.AgentID); err != nil {
		return nil, err
	}

	input.AgentID = existing.AgentID
	input.Type = existing.Type
	question, err := buildQuestion(input)
	if err != nil {
		return nil, err
	}
	question.ID = existing.ID
	question.CreatedAt = existing.CreatedAt

	err = f.repo.WithTx(ctx, func(ctx context.Context) error {
		if err := f.repo.Question.Update(ctx, question); err != nil {
			return err
		}
		return f.recomputeTotalMarks(ctx, existing.AgentID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return question, nil
}

func (f *Question) Delete(ctx context.Context, userID uint64, questionID string) error {
	existing, err := f.repo.Question.Get(ctx, questionID)
	if err != nil {
		return ErrQuestionNotFound
	}
	if err := f.authorize(ctx, userID, existing.AgentID); err != nil {
		return err
	}

	return f.repo.WithTx(ctx, func(ctx context.Context) error {
		if err := f.repo.Question.Delete(ctx, questionID); err != nil {
			return err
		}
		return f.recomputeTotalMarks(ctx, existing.AgentID)
	})
}

func (f *Question) DeleteAll(ctx context.Context, userID uint64, agentID string) (int, error) {
	if err := f.authorize(ctx, userID, agentID); err != nil {
		return 0, err
	}

	deleted := 0
	err := f.repo.WithTx(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = f.repo.Question.DeleteByAgent(ctx, agentID)
		if err != nil {
			return err
		}
		return f.repo.Agent.SetTotalMarks(ctx, agentID, 0)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete questions: %w", err)
	}
	return deleted, nil
}

// Reorder assigns presentation order following the given id list. Ids not
// belonging to the agent are rejected wholesale.
func (f *Question) Reorder(ctx context.Context, userID uint64, agentID string, questionIDs []string) error {
	if err := f.authorize(ctx, userID, agentID); err != nil {
		return err
	}

	return f.repo.WithTx(ctx, func(ctx context.Context) error {
		for i, questionID := range questionIDs {
			question, err := f.repo.Question.Get(ctx, questionID)
			if err != nil || question.AgentID != agentID {
				return ErrQuestionNotFound
			}
			if err := f.repo.Question.SetOrder(ctx, questionID, i+1); err != nil {
				return err
			}
		}
		return nil
	})
}

// Generate creates a question set from the agent's knowledge sources and
// appends it to the bank. Topic-only agents use the topic prompt; any
// scraped material switches to content-grounded generation.
func (f *Question) Generate(ctx context.Context, userID uint64, req *GenerateRequest) (*GenerateResult, error) {
	if err := f.authorize(ctx, userID, req.AgentID); err != nil {
		return nil, err
	}

	combined, err := f.knowledge.CombinedContent(ctx, req.AgentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge sources: %w", err)
	}
	if combined == "" {
		return nil, ErrNoKnowledgeSources
	}

	topicOnly, topic, err := f.knowledge.TopicOnly(ctx, req.AgentID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect knowledge sources: %w", err)
	}

	var mcqs []GeneratedMCQ
	var subjective []GeneratedSubjective
	if topicOnly {
		mcqs, subjective, err = f.generator.GenerateFromTopic(ctx, topic, req)
	} else {
		mcqs, subjective, err = f.generator.GenerateFromContent(ctx, combined, req)
	}
	if err != nil {
		return nil, err
	}

	count, err := f.repo.Question.CountByAgent(ctx, req.AgentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}

	result := &GenerateResult{}
	order := count + 1
	err = f.repo.WithTx(ctx, func(ctx context.Context) error {
		for _, mcq := range mcqs {
			question, err := model.NewMCQQuestion(req.AgentID, mcq.QuestionText,
				order, mcq.Marks, mcq.Options, mcq.CorrectOption)
			if err != nil {
				f.logger.Warn("Skipping malformed generated mcq", zap.Error(err))
				continue
			}
			question.ID = gen.GenerateUUID()
			question.CreatedAt = time.Now()
			if err := f.repo.Question.Create(ctx, question); err != nil {
				return err
			}
			result.QuestionIDs = append(result.QuestionIDs, question.ID)
			order++
		}

		for _, sub := range subjective {
			question, err := model.NewSubjectiveQuestion(req.AgentID, sub.QuestionText,
				order, sub.Marks, sub.KeyPoints)
			if err != nil {
				f.logger.Warn("Skipping malformed generated subjective question", zap.Error(err))
				continue
			}
			question.ID = gen.GenerateUUID()
			question.CreatedAt = time.Now()
			if err := f.repo.Question.Create(ctx, question); err != nil {
				return err
			}
			result.QuestionIDs = append(result.QuestionIDs, question.ID)
			order++
		}

		if err := f.recomputeTotalMarks(ctx, req.AgentID); err != nil {
			return err
		}
		var sumErr error
		result.TotalMarks, sumErr = f.repo.Question.SumMarks(ctx, req.AgentID)
		return sumErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save generated questions: %w", err)
	}

	f.logger.Info("Generated questions",
		zap.String("agentId", req.AgentID),
		zap.Int("count", len(result.QuestionIDs)),
		zap.Bool("topicOnly", topicOnly))
	return result, nil
}

func (f *Question) recomputeTotalMarks(ctx context.Context, agentID string) error {
	sum, err := f.repo.Question.SumMarks(ctx, agentID)
	if err != nil {
		return err
	}
	return f.repo.Agent.SetTotalMarks(ctx, agentID, sum)
}

func (f *Question) authorize(ctx context.Context, userID uint64, agentID string) error {
	agent, err := f.repo.Agent.Get(ctx, agentID)
	if err != nil {
		return ErrAgentNotFound
	}
	if agent.CreatorID != userID {
		return ErrUnauthorized
	}
	return nil
}

func buildQuestion(input *QuestionInput) (*model.Question, error) {
	if input.Type == model.QuestionTypeMCQ {
		return model.NewMCQQuestion(input.AgentID, input.QuestionText,
			input.Order, input.Marks, input.Options, input.CorrectOption)
	}
	return model.NewSubjectiveQuestion(input.AgentID, input.QuestionText,
		input.Order, input.Marks, input.KeyPoints)
}

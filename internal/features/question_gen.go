package features

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	sv "sona/internal/service"
)

type GenerateRequest struct {
	AgentID            string `json:"agentId"`
	MCQCount           int    `json:"mcqCount"`
	SubjectiveCount    int    `json:"subjectiveCount"`
	MarksPerMCQ        int    `json:"marksPerMcq"`
	MarksPerSubjective int    `json:"marksPerSubjective"`
}

type GenerateResult struct {
	QuestionIDs []string `json:"questionIds"`
	TotalMarks  int      `json:"totalMarks"`
}

type GeneratedMCQ struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	Marks         int      `json:"marks"`
}

type GeneratedSubjective struct {
	QuestionText string   `json:"questionText"`
	KeyPoints    []string `json:"keyPoints"`
	Marks        int      `json:"marks"`
}

var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

// QuestionGenerator drafts question sets from source content or a bare
// topic. Unlike evaluation, generation failures are surfaced to the creator;
// there is no sensible fallback question set.
type QuestionGenerator struct {
	llm    sv.LLM
	logger *zap.Logger
}

func NewQuestionGenerator(llm sv.LLM, logger *zap.Logger) *QuestionGenerator {
	return &QuestionGenerator{llm: llm, logger: logger}
}

func (g *QuestionGenerator) GenerateFromContent(ctx context.Context, content string, req *GenerateRequest) ([]GeneratedMCQ, []GeneratedSubjective, error) {
	var mcqs []GeneratedMCQ
	var subjective []GeneratedSubjective

	if req.MCQCount > 0 {
		var err error
		mcqs, err = g.generateMCQs(ctx, content, req.MCQCount, req.MarksPerMCQ)
		if err != nil {
			return nil, nil, err
		}
	}
	if req.SubjectiveCount > 0 {
		var err error
		subjective, err = g.generateSubjective(ctx, content, req.SubjectiveCount, req.MarksPerSubjective)
		if err != nil {
			return nil, nil, err
		}
	}
	return mcqs, subjective, nil
}

func (g *QuestionGenerator) generateMCQs(ctx context.Context, content string, count, marks int) ([]GeneratedMCQ, error) {
	prompt := fmt.Sprintf(`You are an expert at creating multiple-choice questions for interviews and assessments.

Based on the following content, generate exactly %d multiple-choice questions.

Content:
"""
%s
"""

Requirements:
- Each question should have 4 options (A, B, C, D)
- Questions should test understanding, not just memorization
- Vary the difficulty levels
- Mark each question as worth %d marks
- One option must be clearly correct

Return ONLY a valid JSON array with this exact structure:
[
  {
    "questionText": "The question here?",
    "options": ["Option A", "Option B", "Option C", "Option D"],
    "correctOption": 0,
    "marks": %d
  }
]

Return only the JSON array, no additional text.`, count, content, marks, marks)

	raw, err := g.llm.Complete(ctx, prompt, 0.8)
	if err != nil {
		g.logger.Error("MCQ generation failed", zap.Error(err))
		return nil, fmt.Errorf("failed to generate MCQ questions: %w", err)
	}

	var mcqs []GeneratedMCQ
	if err := parseJSONArray(raw, &mcqs); err != nil {
		return nil, fmt.Errorf("failed to parse MCQ questions: %w", err)
	}
	if len(mcqs) > count {
		mcqs = mcqs[:count]
	}
	return mcqs, nil
}

func (g *QuestionGenerator) generateSubjective(ctx context.Context, content string, count, marks int) ([]GeneratedSubjective, error) {
	prompt := fmt.Sprintf(`You are an expert at creating subjective interview questions that test deep understanding.

Based on the following content, generate exactly %d subjective (essay-type) questions.

Content:
"""
%s
"""

Requirements:
- Questions should require detailed, thoughtful answers
- For each question, provide 3-5 key points that a good answer should cover
- Vary the difficulty and scope of questions
- Each question is worth %d marks

Return ONLY a valid JSON array with this exact structure:
[
  {
    "questionText": "Explain the concept...",
    "keyPoints": ["Point 1", "Point 2", "Point 3", "Point 4"],
    "marks": %d
  }
]

Return only the JSON array, no additional text.`, count, content, marks, marks)

	raw, err := g.llm.Complete(ctx, prompt, 0.8)
	if err != nil {
		g.logger.Error("Subjective question generation failed", zap.Error(err))
		return nil, fmt.Errorf("failed to generate subjective questions: %w", err)
	}

	var subjective []GeneratedSubjective
	if err := parseJSONArray(raw, &subjective); err != nil {
		return nil, fmt.Errorf("failed to parse subjective questions: %w", err)
	}
	if len(subjective) > count {
		subjective = subjective[:count]
	}
	return subjective, nil
}

// GenerateFromTopic drafts both question kinds in one call when the agent
// has nothing but topic labels to work from.
func (g *QuestionGenerator) GenerateFromTopic(ctx context.Context, topic string, req *GenerateRequest) ([]GeneratedMCQ, []GeneratedSubjective, error) {
	prompt := fmt.Sprintf(`You are creating an interview assessment for the topic: "%s"

Generate:
- %d multiple-choice questions (4 options each, %d marks each)
- %d subjective questions (with 3-5 key points each, %d marks each)

Questions should cover various aspects and difficulty levels of %s.

Return ONLY valid JSON with this structure:
{
  "mcqs": [
    {
      "questionText": "Question here?",
      "options": ["A", "B", "C", "D"],
      "correctOption": 0,
      "marks": %d
    }
  ],
  "subjective": [
    {
      "questionText": "Question here?",
      "keyPoints": ["Point 1", "Point 2", "Point 3"],
      "marks": %d
    }
  ]
}

Return only JSON, no additional text.`,
		topic, req.MCQCount, req.MarksPerMCQ, req.SubjectiveCount,
		req.MarksPerSubjective, topic, req.MarksPerMCQ, req.MarksPerSubjective)

	raw, err := g.llm.Complete(ctx, prompt, 0.8)
	if err != nil {
		g.logger.Error("Topic question generation failed",
			zap.String("topic", topic), zap.Error(err))
		return nil, nil, fmt.Errorf("failed to generate questions from topic: %w", err)
	}

	match := jsonObjectRe.FindString(raw)
	if match == "" {
		return nil, nil, errors.New("no JSON object in generation response")
	}

	var generated struct {
		MCQs       []GeneratedMCQ        `json:"mcqs"`
		Subjective []GeneratedSubjective `json:"subjective"`
	}
	if err := json.Unmarshal([]byte(match), &generated); err != nil {
		return nil, nil, fmt.Errorf("failed to parse generated questions: %w", err)
	}
	if len(generated.MCQs) > req.MCQCount {
		generated.MCQs = generated.MCQs[:req.MCQCount]
	}
	if len(generated.Subjective) > req.SubjectiveCount {
		generated.Subjective = generated.Subjective[:req.SubjectiveCount]
	}
	return generated.MCQs, generated.Subjective, nil
}

func parseJSONArray(raw string, out any) error {
	match := jsonArrayRe.FindString(raw)
	if match == "" {
		return errors.New("no JSON array in response")
	}
	return json.Unmarshal([]byte(match), out)
}

package features

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sona/internal/model"
	"sona/internal/repo"
	gen "sona/internal/utils/generator"
)

const shareLinkCacheTTL = 5 * time.Minute

type IAgent interface {
	Create(ctx context.Context, userID uint64) (*model.Agent, error)
	Get(ctx context.Context, userID uint64, agentID string) (*model.Agent, error)
	List(ctx context.Context, userID uint64) ([]*model.Agent, error)
	Update(ctx context.Context, userID uint64, update *AgentUpdate) (*model.Agent, error)
	Publish(ctx context.Context, userID uint64, agentID string) error
	Unpublish(ctx context.Context, userID uint64, agentID string) error
	Delete(ctx context.Context, userID uint64, agentID string) error
	GetByShareLink(ctx context.Context, shareLink string) (*PublicAgent, error)
}

// AgentUpdate carries the creator-editable persona fields. Nil pointers mean
// "leave unchanged".
type AgentUpdate struct {
	AgentID             string  `json:"agentId"`
	Name                *string `json:"name"`
	Gender              *string `json:"gender"`
	Appearance          *string `json:"appearance"`
	VoiceType           *string `json:"voiceType"`
	ConversationalStyle *string `json:"conversationalStyle"`
	EnableFollowUps     *bool   `json:"enableFollowUps"`
	MaxFollowUps        *int    `json:"maxFollowUps"`
}

// PublicAgent is the candidate-facing view of a published agent: persona
// only, no publication internals and no creator identity.
type PublicAgent struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Gender              string `json:"gender"`
	Appearance          string `json:"appearance"`
	VoiceType           string `json:"voiceType"`
	ConversationalStyle string `json:"conversationalStyle"`
	TotalMarks          int    `json:"totalMarks"`
}

// Agent manages the creator-facing agent lifecycle: draft, configure,
// publish, unpublish, delete.
type Agent struct {
	repo   *repo.Repository
	cache  *redis.Client
	logger *zap.Logger
}

func NewAgent(repo *repo.Repository, cache *redis.Client, logger *zap.Logger) *Agent {
	return &Agent{repo: repo, cache: cache, logger: logger}
}

// Create inserts a draft agent with default persona and a fresh shareable
// link. Drafts are never reachable by candidates until published.
func (a *Agent) Create(ctx context.Context, userID uint64) (*model.Agent, error) {
	agent := &model.Agent{
		ID:                  gen.GenerateUUID(),
		CreatorID:           userID,
		Name:                "Untitled Interview",
		Gender:              "female",
		Appearance:          "default_avatar",
		VoiceType:           "default",
		ConversationalStyle: "formal",
		EnableFollowUps:     true,
		MaxFollowUps:        2,
		ShareableLink:       gen.GenerateShareLink(),
		IsPublished:         false,
		TotalMarks:          0,
		CreatedAt:           time.Now(),
	}
	if err := a.repo.Agent.Create(ctx, agent); err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	a.logger.Info("Agent created",
		zap.String("agentId", agent.ID), zap.Uint64("creatorId", userID))
	return agent, nil
}

func (a *Agent) Get(ctx context.Context, userID uint64, agentID string) (*model.Agent, error) {
	return a.owned(ctx, userID, agentID)
}

func (a *Agent) List(ctx context.Context, userID uint64) ([]*model.Agent, error) {
	return a.repo.Agent.ListByCreator(ctx, userID)
}

func (a *Agent) Update(ctx context.Context, userID uint64, update *AgentUpdate) (*model.Agent, error) {
	agent, err := a.owned(ctx, userID, update.AgentID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		agent.Name = *update.Name
	}
	if update.Gender != nil {
		agent.Gender = *update.Gender
	}
	if update.Appearance != nil {
		agent.Appearance = *update.Appearance
	}
	if update.VoiceType != nil {
		agent.VoiceType = *update.VoiceType
	}
	if update.ConversationalStyle != nil {
		agent.ConversationalStyle = *update.ConversationalStyle
	}
	if update.EnableFollowUps != nil {
		agent.EnableFollowUps = *update.EnableFollowUps
	}
	if update.MaxFollowUps != nil && *update.MaxFollowUps >= 0 {
		agent.MaxFollowUps = *update.MaxFollowUps
	}

	if err := a.repo.Agent.Update(ctx, agent); err != nil {
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}
	a.invalidate(ctx, agent.ShareableLink)
	return agent, nil
}

// Publish makes the agent reachable through its shareable link. An agent
// with an empty question bank cannot be published.
func (a *Agent) Publish(ctx context.Context, userID uint64, agentID string) error {
	agent, err := a.owned(ctx, userID, agentID)
	if err != nil {
		return err
	}

	count, err := a.repo.Question.CountByAgent(ctx, agent.ID)
	if err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}
	if count == 0 {
		return ErrCannotPublishWithoutQuestions
	}

	if err := a.repo.Agent.SetPublished(ctx, agent.ID, true); err != nil {
		return fmt.Errorf("failed to publish agent: %w", err)
	}
	a.invalidate(ctx, agent.ShareableLink)

	a.logger.Info("Agent published",
		zap.String("agentId", agent.ID), zap.Int("questions", count))
	return nil
}

func (a *Agent) Unpublish(ctx context.Context, userID uint64, agentID string) error {
	agent, err := a.owned(ctx, userID, agentID)
	if err != nil {
		return err
	}
	if err := a.repo.Agent.SetPublished(ctx, agent.ID, false); err != nil {
		return fmt.Errorf("failed to unpublish agent: %w", err)
	}
	a.invalidate(ctx, agent.ShareableLink)
	return nil
}

// Delete removes the agent with its questions and knowledge sources in one
// transaction. Interview history is intentionally left behind, orphaned.
func (a *Agent) Delete(ctx context.Context, userID uint64, agentID string) error {
	agent, err := a.owned(ctx, userID, agentID)
	if err != nil {
		return err
	}

	err = a.repo.WithTx(ctx, func(ctx context.Context) error {
		if err := a.repo.Source.DeleteByAgent(ctx, agent.ID); err != nil {
			return err
		}
		if _, err := a.repo.Question.DeleteByAgent(ctx, agent.ID); err != nil {
			return err
		}
		return a.repo.Agent.Delete(ctx, agent.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	a.invalidate(ctx, agent.ShareableLink)

	a.logger.Info("Agent deleted", zap.String("agentId", agent.ID))
	return nil
}

// GetByShareLink resolves the public candidate-facing view of a published
// agent. Unpublished and unknown links are indistinguishable to the caller.
func (a *Agent) GetByShareLink(ctx context.Context, shareLink string) (*PublicAgent, error) {
	if cached := a.cached(ctx, shareLink); cached != nil {
		return cached, nil
	}

	agent, err := a.repo.Agent.GetByShareLink(ctx, shareLink)
	if err != nil || !agent.IsPublished {
		return nil, ErrAgentNotAvailable
	}

	public := &PublicAgent{
		ID:                  agent.ID,
		Name:                agent.Name,
		Gender:              agent.Gender,
		Appearance:          agent.Appearance,
		VoiceType:           agent.VoiceType,
		ConversationalStyle: agent.ConversationalStyle,
		TotalMarks:          agent.TotalMarks,
	}
	a.store(ctx, shareLink, public)
	return public, nil
}

func (a *Agent) owned(ctx context.Context, userID uint64, agentID string) (*model.Agent, error) {
	agent, err := a.repo.Agent.Get(ctx, agentID)
	if err != nil {
		return nil, ErrAgentNotFound
	}
	if agent.CreatorID != userID {
		return nil, ErrUnauthorized
	}
	return agent, nil
}

func shareLinkCacheKey(shareLink string) string {
	return "agent:share:" + shareLink
}

func (a *Agent) cached(ctx context.Context, shareLink string) *PublicAgent {
	if a.cache == nil {
		return nil
	}
	raw, err := a.cache.Get(ctx, shareLinkCacheKey(shareLink)).Bytes()
	if err != nil {
		return nil
	}
	var public PublicAgent
	if err := json.Unmarshal(raw, &public); err != nil {
		return nil
	}
	return &public
}

func (a *Agent) store(ctx context.Context, shareLink string, public *PublicAgent) {
	if a.cache == nil {
		return
	}
	raw, err := json.Marshal(public)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, shareLinkCacheKey(shareLink), raw, shareLinkCacheTTL).Err(); err != nil {
		a.logger.Warn("Failed to cache share link", zap.Error(err))
	}
}

func (a *Agent) invalidate(ctx context.Context, shareLink string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Del(ctx, shareLinkCacheKey(shareLink)).Err(); err != nil {
		a.logger.Warn("Failed to invalidate share link cache", zap.Error(err))
	}
}

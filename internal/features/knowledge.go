package features

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"sona/internal/model"
	"sona/internal/repo"
	sv "sona/internal/service"
	gen "sona/internal/utils/generator"
	"sona/pkg/blob"
)

type IKnowledge interface {
	AddTopic(ctx context.Context, userID uint64, agentID, topic string) (*model.KnowledgeSource, error)
	AddURL(ctx context.Context, userID uint64, agentID, url string) (*model.KnowledgeSource, error)
	SearchWeb(ctx context.Context, userID uint64, agentID, query string, maxResults int) ([]sv.SearchResult, error)
	AddWebSearchSources(ctx context.Context, userID uint64, agentID string, urls []string) ([]*model.KnowledgeSource, error)
	UploadDocument(ctx context.Context, userID uint64, agentID, filename string, data []byte, contentType string) (*model.KnowledgeSource, error)
	List(ctx context.Context, userID uint64, agentID string) ([]*model.KnowledgeSource, error)
	Delete(ctx context.Context, userID uint64, sourceID string) error
	CombinedContent(ctx context.Context, agentID string) (string, error)
	TopicOnly(ctx context.Context, agentID string) (bool, string, error)
}

// Knowledge manages the raw material questions are generated from: plain
// topics, scraped URLs, web search imports and uploaded documents.
type Knowledge struct {
	repo    *repo.Repository
	scraper sv.Scraper
	pool    *ScrapeWorkerPool
	storage blob.Storage
	logger  *zap.Logger
}

func NewKnowledge(repo *repo.Repository, scraper sv.Scraper, pool *ScrapeWorkerPool, storage blob.Storage, logger *zap.Logger) *Knowledge {
	return &Knowledge{
		repo:    repo,
		scraper: scraper,
		pool:    pool,
		storage: storage,
		logger:  logger,
	}
}

func (k *Knowledge) AddTopic(ctx context.Context, userID uint64, agentID, topic string) (*model.KnowledgeSource, error) {
	if err := k.authorize(ctx, userID, agentID); err != nil {
		return nil, err
	}

	source := &model.KnowledgeSource{
		ID:        gen.GenerateUUID(),
		AgentID:   agentID,
		Type:      model.SourceTypeTopic,
		Content:   strings.TrimSpace(topic),
		CreatedAt: time.Now(),
	}
	if err := k.repo.Source.Create(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to create topic source: %w", err)
	}
	return source, nil
}

// AddURL scrapes the page synchronously and stores the cleaned text. Content
// holds the URL itself so the creator can see where the text came from.
func (k *Knowledge) AddURL(ctx context.Context, userID uint64, agentID, url string) (*model.KnowledgeSource, error) {
	if err := k.authorize(ctx, userID, agentID); err != nil {
		return nil, err
	}

	scraped, err := k.scraper.Scrape(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape url: %w", err)
	}

	source := &model.KnowledgeSource{
		ID:             gen.GenerateUUID(),
		AgentID:        agentID,
		Type:           model.SourceTypeURL,
		Content:        url,
		ScrapedContent: sv.ExtractMainContent(scraped.Content),
		CreatedAt:      time.Now(),
	}
	if err := k.repo.Source.Create(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to create url source: %w", err)
	}
	return source, nil
}

// SearchWeb returns candidate URLs for the creator to pick from. Nothing is
// stored until the selection comes back through AddWebSearchSources.
func (k *Knowledge) SearchWeb(ctx context.Context, userID uint64, agentID, query string, maxResults int) ([]sv.SearchResult, error) {
	if err := k.authorize(ctx, userID, agentID); err != nil {
		return nil, err
	}
	return k.scraper.Search(ctx, query, maxResults)
}

// AddWebSearchSources scrapes the selected URLs through the worker pool and
// stores each successful scrape as a web_search source. Failed URLs are
// logged and skipped, not fatal for the batch.
func (k *Knowledge) AddWebSearchSources(ctx context.Context, userID uint64, agentID string, urls []string) ([]*model.KnowledgeSource, error) {
	if err := k.authorize(ctx, userID, agentID); err != nil {
		return nil, err
	}

	reply := make(chan ScrapeJobResult, len(urls))
	enqueued := 0
	for _, url := range urls {
		if k.pool.EnqueueJob(ScrapeJob{AgentID: agentID, URL: url, Reply: reply}) {
			enqueued++
		}
	}

	var sources []*model.KnowledgeSource
	for i := 0; i < enqueued; i++ {
		result := <-reply
		if result.Err != nil || result.Content == "" {
			k.logger.Warn("Skipping failed scrape",
				zap.String("url", result.URL), zap.Error(result.Err))
			continue
		}

		source := &model.KnowledgeSource{
			ID:             gen.GenerateUUID(),
			AgentID:        agentID,
			Type:           model.SourceTypeWebSearch,
			Content:        result.URL,
			ScrapedContent: result.Content,
			CreatedAt:      time.Now(),
		}
		if err := k.repo.Source.Create(ctx, source); err != nil {
			return nil, fmt.Errorf("failed to create web search source: %w", err)
		}
		sources = append(sources, source)
	}
	return sources, nil
}

// UploadDocument stores the file in object storage, scrapes text out of it
// and keeps both the text and the document URL.
func (k *Knowledge) UploadDocument(ctx context.Context, userID uint64, agentID, filename string, data []byte, contentType string) (*model.KnowledgeSource, error) {
	if err := k.authorize(ctx, userID, agentID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("documents/%s/%s%s", agentID, gen.GenerateUUID(), path.Ext(filename))
	object, err := k.storage.Put(ctx, key, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}

	content := ""
	scraped, err := k.scraper.Scrape(ctx, object.URL)
	if err != nil {
		k.logger.Warn("Failed to extract document text",
			zap.String("filename", filename), zap.Error(err))
	} else {
		content = sv.ExtractMainContent(scraped.Content)
	}

	source := &model.KnowledgeSource{
		ID:             gen.GenerateUUID(),
		AgentID:        agentID,
		Type:           model.SourceTypeDocument,
		Content:        filename,
		ScrapedContent: content,
		DocumentURL:    object.URL,
		CreatedAt:      time.Now(),
	}
	if err := k.repo.Source.Create(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to create document source: %w", err)
	}
	return source, nil
}

func (k *Knowledge) List(ctx context.Context, userID uint64, agentID string) ([]*model.KnowledgeSource, error) {
	if err := k.authorize(ctx, userID, agentID); err != nil {
		return nil, err
	}
	return k.repo.Source.ListByAgent(ctx, agentID)
}

func (k *Knowledge) Delete(ctx context.Context, userID uint64, sourceID string) error {
	source, err := k.repo.Source.Get(ctx, sourceID)
	if err != nil {
		return repo.ErrNotFound
	}
	if err := k.authorize(ctx, userID, source.AgentID); err != nil {
		return err
	}
	return k.repo.Source.Delete(ctx, sourceID)
}

// CombinedContent concatenates all source material for the generation
// prompt. Topics contribute their label, everything else its scraped text.
func (k *Knowledge) CombinedContent(ctx context.Context, agentID string) (string, error) {
	sources, err := k.repo.Source.ListByAgent(ctx, agentID)
	if err != nil {
		return "", err
	}

	var combined strings.Builder
	for _, source := range sources {
		if source.Type == model.SourceTypeTopic {
			fmt.Fprintf(&combined, "\n\nTopic: %s\n", source.Content)
		} else if source.ScrapedContent != "" {
			fmt.Fprintf(&combined, "\n\n%s\n", source.ScrapedContent)
		}
	}
	return strings.TrimSpace(combined.String()), nil
}

// TopicOnly reports whether every source is a bare topic, in which case
// generation uses the topic prompt instead of the content prompt. The
// second return is the joined topic text.
func (k *Knowledge) TopicOnly(ctx context.Context, agentID string) (bool, string, error) {
	sources, err := k.repo.Source.ListByAgent(ctx, agentID)
	if err != nil {
		return false, "", err
	}
	if len(sources) == 0 {
		return false, "", nil
	}

	var topics []string
	for _, source := range sources {
		if source.Type != model.SourceTypeTopic {
			return false, "", nil
		}
		topics = append(topics, source.Content)
	}
	return true, strings.Join(topics, ", "), nil
}

func (k *Knowledge) authorize(ctx context.Context, userID uint64, agentID string) error {
	agent, err := k.repo.Agent.Get(ctx, agentID)
	if err != nil {
		return ErrAgentNotFound
	}
	if agent.CreatorID != userID {
		return ErrUnauthorized
	}
	return nil
}

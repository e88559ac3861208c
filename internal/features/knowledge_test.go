package features

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sona/internal/model"
	"sona/internal/repo"
	sv "sona/internal/service"
	"sona/pkg/blob"
)

// fakeScraper serves canned pages and records which URLs were fetched.
type fakeScraper struct {
	pages   map[string]string
	results []sv.SearchResult
}

func (f *fakeScraper) Scrape(_ context.Context, url string) (*sv.ScrapeResult, error) {
	content, ok := f.pages[url]
	if !ok {
		return nil, errors.New("scrape failed: " + url)
	}
	return &sv.ScrapeResult{Content: content, Title: "Page"}, nil
}

func (f *fakeScraper) Search(_ context.Context, _ string, _ int) ([]sv.SearchResult, error) {
	return f.results, nil
}

type knowledgeFixture struct {
	repo      *repo.Repository
	knowledge *Knowledge
	pool      *ScrapeWorkerPool
	agent     *model.Agent
}

func newKnowledgeFixture(t *testing.T, scraper sv.Scraper) *knowledgeFixture {
	t.Helper()
	ctx := context.Background()
	r := repo.NewMemory()
	logger := zap.NewNop()

	agent := &model.Agent{
		ID:            "agent-1",
		CreatorID:     creatorID,
		ShareableLink: "link123456",
		CreatedAt:     time.Now(),
	}
	require.NoError(t, r.Agent.Create(ctx, agent))

	pool := NewScrapeWorkerPool(scraper, logger, 2, 8, 5)
	pool.Start()
	t.Cleanup(pool.Stop)

	return &knowledgeFixture{
		repo:      r,
		knowledge: NewKnowledge(r, scraper, pool, &blob.Dummy{}, logger),
		pool:      pool,
		agent:     agent,
	}
}

func TestAddURLSourceStoresCleanedContent(t *testing.T) {
	ctx := context.Background()
	scraper := &fakeScraper{pages: map[string]string{
		"https://example.com/go": "<script>x()</script><h1>Go</h1><p>Concurrency is not parallelism.</p>",
	}}
	f := newKnowledgeFixture(t, scraper)

	source, err := f.knowledge.AddURL(ctx, creatorID, f.agent.ID, "https://example.com/go")
	require.NoError(t, err)

	assert.Equal(t, model.SourceTypeURL, source.Type)
	assert.Equal(t, "https://example.com/go", source.Content)
	assert.NotContains(t, source.ScrapedContent, "<h1>")
	assert.NotContains(t, source.ScrapedContent, "x()")
	assert.Contains(t, source.ScrapedContent, "Concurrency is not parallelism.")
}

func TestAddWebSearchSourcesSkipsFailures(t *testing.T) {
	ctx := context.Background()
	scraper := &fakeScraper{pages: map[string]string{
		"https://ok.example.com": "<p>useful text</p>",
	}}
	f := newKnowledgeFixture(t, scraper)

	sources, err := f.knowledge.AddWebSearchSources(ctx, creatorID, f.agent.ID,
		[]string{"https://ok.example.com", "https://broken.example.com"})
	require.NoError(t, err)

	require.Len(t, sources, 1)
	assert.Equal(t, model.SourceTypeWebSearch, sources[0].Type)
	assert.Equal(t, "https://ok.example.com", sources[0].Content)
}

func TestCombinedContent(t *testing.T) {
	ctx := context.Background()
	scraper := &fakeScraper{pages: map[string]string{
		"https://example.com": "<p>scraped body</p>",
	}}
	f := newKnowledgeFixture(t, scraper)

	_, err := f.knowledge.AddTopic(ctx, creatorID, f.agent.ID, "Go concurrency")
	require.NoError(t, err)
	_, err = f.knowledge.AddURL(ctx, creatorID, f.agent.ID, "https://example.com")
	require.NoError(t, err)

	combined, err := f.knowledge.CombinedContent(ctx, f.agent.ID)
	require.NoError(t, err)
	assert.Contains(t, combined, "Topic: Go concurrency")
	assert.Contains(t, combined, "scraped body")
}

func TestTopicOnly(t *testing.T) {
	ctx := context.Background()
	scraper := &fakeScraper{pages: map[string]string{
		"https://example.com": "<p>body</p>",
	}}
	f := newKnowledgeFixture(t, scraper)

	topicOnly, _, err := f.knowledge.TopicOnly(ctx, f.agent.ID)
	require.NoError(t, err)
	assert.False(t, topicOnly, "no sources means no topic prompt")

	_, err = f.knowledge.AddTopic(ctx, creatorID, f.agent.ID, "Go")
	require.NoError(t, err)
	_, err = f.knowledge.AddTopic(ctx, creatorID, f.agent.ID, "Postgres")
	require.NoError(t, err)

	topicOnly, topic, err := f.knowledge.TopicOnly(ctx, f.agent.ID)
	require.NoError(t, err)
	assert.True(t, topicOnly)
	assert.Equal(t, "Go, Postgres", topic)

	_, err = f.knowledge.AddURL(ctx, creatorID, f.agent.ID, "https://example.com")
	require.NoError(t, err)

	topicOnly, _, err = f.knowledge.TopicOnly(ctx, f.agent.ID)
	require.NoError(t, err)
	assert.False(t, topicOnly)
}

func TestKnowledgeOwnership(t *testing.T) {
	ctx := context.Background()
	f := newKnowledgeFixture(t, &fakeScraper{})

	_, err := f.knowledge.AddTopic(ctx, 999, f.agent.ID, "Go")
	assert.ErrorIs(t, err, ErrUnauthorized)

	source, err := f.knowledge.AddTopic(ctx, creatorID, f.agent.ID, "Go")
	require.NoError(t, err)

	err = f.knowledge.Delete(ctx, 999, source.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	require.NoError(t, f.knowledge.Delete(ctx, creatorID, source.ID))
}

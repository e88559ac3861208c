package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Scraper turns URLs and search queries into text content for the
// question-generation pipeline.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*ScrapeResult, error)
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

type ScrapeResult struct {
	Content string
	Title   string
}

type SearchResult struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// FirecrawlClient implements Scraper against the Firecrawl REST API.
type FirecrawlClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

func NewFirecrawlClient(logger *zap.Logger) *FirecrawlClient {
	viper.BindEnv("firecrawl.api_key", "FIRECRAWL_API_KEY")

	baseURL := viper.GetString("firecrawl.base_url")
	if baseURL == "" {
		baseURL = "https://api.firecrawl.dev"
	}

	return &FirecrawlClient{
		client:  &http.Client{},
		baseURL: baseURL,
		apiKey:  viper.GetString("firecrawl.api_key"),
		logger:  logger,
	}
}

func (f *FirecrawlClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", f.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("firecrawl returned non-200 status: %d, body: %s", resp.StatusCode, string(respBody))
	}
	return json.Unmarshal(respBody, out)
}

func (f *FirecrawlClient) Scrape(ctx context.Context, url string) (*ScrapeResult, error) {
	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Markdown string `json:"markdown"`
			HTML     string `json:"html"`
			Metadata struct {
				Title string `json:"title"`
			} `json:"metadata"`
		} `json:"data"`
	}

	payload := map[string]any{"url": url, "formats": []string{"markdown", "html"}}
	if err := f.post(ctx, "/v1/scrape", payload, &result); err != nil {
		f.logger.Error("Failed to scrape URL", zap.String("url", url), zap.Error(err))
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("failed to scrape URL: %s", url)
	}

	content := result.Data.Markdown
	if content == "" {
		content = result.Data.HTML
	}
	return &ScrapeResult{Content: content, Title: result.Data.Metadata.Title}, nil
}

func (f *FirecrawlClient) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	var result struct {
		Success bool           `json:"success"`
		Data    []SearchResult `json:"data"`
	}

	payload := map[string]any{"query": query, "limit": maxResults}
	if err := f.post(ctx, "/v1/search", payload, &result); err != nil {
		f.logger.Error("Failed to search web", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("failed to search: %s", query)
	}
	return result.Data, nil
}

var (
	scriptRe   = regexp.MustCompile(`(?s)<script.*?</script>`)
	styleRe    = regexp.MustCompile(`(?s)<style.*?</style>`)
	tagRe      = regexp.MustCompile(`<[^>]+>`)
	multiWSRe  = regexp.MustCompile(`[ \t]+`)
	multiNLRe  = regexp.MustCompile(`\n{3,}`)
	mdImageRe  = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	maxContent = 50000
)

// ExtractMainContent strips markup noise from scraped content and bounds its
// size so it fits in a generation prompt.
func ExtractMainContent(raw string) string {
	content := scriptRe.ReplaceAllString(raw, "")
	content = styleRe.ReplaceAllString(content, "")
	content = tagRe.ReplaceAllString(content, " ")
	content = mdImageRe.ReplaceAllString(content, "")
	content = multiWSRe.ReplaceAllString(content, " ")
	content = multiNLRe.ReplaceAllString(content, "\n\n")
	content = strings.TrimSpace(content)

	if len(content) > maxContent {
		content = content[:maxContent]
	}
	return content
}

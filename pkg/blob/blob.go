package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Storage is the object store for recordings and uploaded documents. The
// store is a black box: bytes in, stable URL out.
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (*Object, error)
}

type Object struct {
	Key       string
	URL       string
	PublicURL string
	FileSize  int64
}

type httpStorage struct {
	client    *http.Client
	baseURL   string
	publicURL string
	apiKey    string
	logger    *zap.Logger
}

// New builds an HTTP-backed Storage from viper config (any S3-compatible
// PUT gateway works), or a no-op Dummy when no bucket is configured.
func New(logger *zap.Logger) Storage {
	baseURL := viper.GetString("storage.base_url")
	if baseURL == "" {
		return &Dummy{}
	}

	return &httpStorage{
		client:    &http.Client{},
		baseURL:   strings.TrimRight(baseURL, "/"),
		publicURL: strings.TrimRight(viper.GetString("storage.public_url"), "/"),
		apiKey:    viper.GetString("storage.api_key"),
		logger:    logger,
	}
}

func (s *httpStorage) Put(ctx context.Context, key string, data []byte, contentType string) (*Object, error) {
	url := s.baseURL + "/" + key

	httpReq, err := http.NewRequestWithContext(ctx, "PUT", url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upload object: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("storage returned non-2xx status: %d", resp.StatusCode)
	}

	s.logger.Info("Uploaded object", zap.String("key", key), zap.Int("size", len(data)))

	obj := &Object{Key: key, URL: url, FileSize: int64(len(data))}
	if s.publicURL != "" {
		obj.PublicURL = s.publicURL + "/" + key
	}
	return obj, nil
}

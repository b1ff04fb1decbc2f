package searchclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"payrag/config"
	"payrag/internal/domain"
)

// hitListKeys are the response fields that may carry the hit list, in
// lookup order. Older backend versions returned a bare JSON array.
var hitListKeys = []string{"results", "hits", "value", "documents"}

// HTTPClient calls the search backend's JSON search endpoint.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New creates a search backend client from config. A missing base URL is a
// configuration error: the client never issues a request without one.
func New(cfg config.SearchConfig) (*HTTPClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, domain.NewConfigurationError("search", "base_url is not set (set search.base_url or %s)", config.EnvSearchURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var apiKey string
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}

	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Search posts req to {base}/search and returns the hit list.
func (c *HTTPClient) Search(ctx context.Context, req domain.SearchRequest) ([]domain.RawHit, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &domain.SearchBackendError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.SearchBackendError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.SearchBackendError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("backend returned: %s", bodyPreview(body)),
		}
	}

	hits, err := decodeHits(body)
	if err != nil {
		return nil, &domain.SearchBackendError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to parse response (body: %s): %w", bodyPreview(body), err),
		}
	}
	return hits, nil
}

func decodeHits(body []byte) ([]domain.RawHit, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '[' {
		var hits []domain.RawHit
		if err := dec.Decode(&hits); err != nil {
			return nil, err
		}
		return hits, nil
	}

	var envelope map[string]json.RawMessage
	if err := dec.Decode(&envelope); err != nil {
		return nil, err
	}
	for _, key := range hitListKeys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		listDec := json.NewDecoder(bytes.NewReader(raw))
		listDec.UseNumber()
		var hits []domain.RawHit
		if err := listDec.Decode(&hits); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		return hits, nil
	}
	return nil, nil
}

func bodyPreview(body []byte) string {
	preview := string(body)
	if len(preview) > 200 {
		preview = preview[:200]
	}
	return preview
}

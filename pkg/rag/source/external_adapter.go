package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-casebrief-be/internal/pkg/apperr"
	"ai-casebrief-be/pkg/store"

	"golang.org/x/time/rate"
)

// ExternalAdapter queries a hosted web-search API. The provider quota is
// enforced client side with a token bucket.
type ExternalAdapter struct {
	endpoint string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
}

func NewExternalAdapter(endpoint, apiKey string, rps float64) *ExternalAdapter {
	if rps <= 0 {
		rps = 1
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &ExternalAdapter{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

func (a *ExternalAdapter) Kind() store.SourceKind {
	return store.SourceExternal
}

func (a *ExternalAdapter) Fetch(ctx context.Context, query string, limit int) ([]store.CandidateDocument, error) {
	if a.endpoint == "" {
		return nil, nil
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, apperr.Transient("source.external.quota", err)
	}

	body, err := json.Marshal(searchRequest{Query: query, MaxResults: limit})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, apperr.Transient("source.external.request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Transient("source.external.read", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, apperr.Transient("source.external", fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("web search: status %d: %s", resp.StatusCode, string(respBody))
	}

	var out searchResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode web search response: %w", err)
	}

	docs := make([]store.CandidateDocument, 0, len(out.Results))
	for _, r := range out.Results {
		if r.URL == "" {
			continue
		}
		docs = append(docs, store.CandidateDocument{
			Source:    store.SourceExternal,
			ID:        r.URL,
			Title:     r.Title,
			Snippet:   r.Content,
			RawScore:  r.Score,
			Timestamp: parsePublished(r.PublishedDate),
			Metadata:  map[string]interface{}{"url": r.URL},
		})
	}
	return docs, nil
}

func parsePublished(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02", time.RFC1123} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

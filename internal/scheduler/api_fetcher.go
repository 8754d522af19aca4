package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/adapter"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/domain"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store/schema"
)

// apiFetcher fetches listings from sources of type "api": retailers exposing a
// JSON price feed. The feed is expected to return an array of FetchedItem.
type apiFetcher struct {
	newClient func(timeout time.Duration, proxyURL string) (adapter.HTTPClient, error)
}

// NewAPIFetcher creates a fetcher for API-type sources
func NewAPIFetcher() Fetcher {
	return &apiFetcher{
		newClient: func(timeout time.Duration, proxyURL string) (adapter.HTTPClient, error) {
			if proxyURL == "" {
				return adapter.NewHTTPClient(timeout), nil
			}
			return adapter.NewHTTPClientWithProxy(timeout, proxyURL)
		},
	}
}

func (f *apiFetcher) Fetch(ctx context.Context, source *schema.ScraperSource, opts FetchOptions) ([]FetchedItem, error) {
	if source.Type != domain.ScraperTypeAPI {
		return nil, fmt.Errorf("api fetcher cannot handle source type %q", source.Type)
	}
	if source.APIEndpoint == "" {
		return nil, fmt.Errorf("source %d has no api endpoint configured", source.ID)
	}

	endpoint, err := f.buildURL(source)
	if err != nil {
		return nil, err
	}

	proxyURL := ""
	if opts.Proxy != nil {
		proxyURL = opts.Proxy.URL()
	}
	client, err := f.newClient(source.Timeout(), proxyURL)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	if opts.UserAgent != "" {
		headers["User-Agent"] = opts.UserAgent
	}
	if source.APIKey != "" {
		headers["Authorization"] = "Bearer " + source.APIKey
	}

	var items []FetchedItem
	if err := client.GetJSON(ctx, endpoint, headers, &items); err != nil {
		return nil, fmt.Errorf("failed to fetch price feed: %w", err)
	}

	return items, nil
}

// buildURL appends the configured api_params to the endpoint as query values
func (f *apiFetcher) buildURL(source *schema.ScraperSource) (string, error) {
	parsed, err := url.Parse(source.APIEndpoint)
	if err != nil {
		return "", fmt.Errorf("failed to parse api endpoint: %w", err)
	}

	if len(source.APIParams) > 0 {
		var params map[string]string
		if err := json.Unmarshal(source.APIParams, &params); err != nil {
			return "", fmt.Errorf("failed to parse api params: %w", err)
		}
		query := parsed.Query()
		for key, value := range params {
			query.Set(key, value)
		}
		parsed.RawQuery = query.Encode()
	}

	return parsed.String(), nil
}

package updatecenter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cinchproject/jpm/pkg/cache"
	"github.com/cinchproject/jpm/pkg/errors"
)

const httpTimeout = 30 * time.Second

// Client downloads update-center payloads with caching and retry.
//
// Fetched payloads are unwrapped, decoded once, and stored re-serialized in
// the cache so later loads skip the JSONP brace hunting.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	ttl     time.Duration
	baseURL string
}

// NewClient creates a Client using the given cache backend and TTL.
// Pass cache.NewNullCache() to disable caching. An empty baseURL defaults
// to [DefaultBaseURL].
func NewClient(backend cache.Cache, ttl time.Duration, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		cache:   backend,
		ttl:     ttl,
		baseURL: baseURL,
	}
}

// URL returns the full update-center.json URL for an update-center version
// against this client's base URL.
func (c *Client) URL(version string) string {
	return URL(c.baseURL, version)
}

// Fetch retrieves and decodes the update-center payload at url.
// If refresh is true the cache is bypassed and a fresh download is forced.
// Server errors and transport failures are retried with backoff.
func (c *Client) Fetch(ctx context.Context, url string, refresh bool) (*Data, error) {
	key := "uc:" + url

	if !refresh {
		if raw, hit, err := c.cache.Get(ctx, key); err == nil && hit {
			var data Data
			if err := json.Unmarshal(raw, &data); err == nil {
				return &data, nil
			}
			// Corrupt cache entry: fall through to a fresh download.
			_ = c.cache.Delete(ctx, key)
		}
	}

	var data Data
	err := cache.RetryWithBackoff(ctx, func() error {
		return c.download(ctx, url, &data)
	})
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(&data); err == nil {
		_ = c.cache.Set(ctx, key, raw, c.ttl)
	}
	return &data, nil
}

func (c *Client) download(ctx context.Context, url string, data *Data) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", url))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode, url); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", url))
	}

	payload, err := Unwrap(body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, data); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode update center JSON from %s", url)
	}
	return nil
}

func checkStatus(code int, url string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "update center not found at %s", url)
	case code >= 500:
		return cache.Retryable(errors.New(errors.ErrCodeNetwork, "fetch %s: status %d", url, code))
	default:
		return errors.New(errors.ErrCodeNetwork, "fetch %s: status %d", url, code)
	}
}

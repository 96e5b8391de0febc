package harti

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"bulletin-etl/models"
	"bulletin-etl/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// HTTPFetcher downloads bulletin pages and documents with retries.
type HTTPFetcher struct {
	client *http.Client
	retry  *utils.RetryConfig
}

// NewHTTPFetcher creates a fetcher whose requests time out after timeout.
func NewHTTPFetcher(timeout time.Duration, retry *utils.RetryConfig) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		retry:  retry,
	}
}

// Fetch returns the body of url. Client errors (4xx) are not retried.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, _, err := f.get(ctx, url)
	return body, err
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, string, error) {
	var (
		body        []byte
		contentType string
	)
	err := f.retry.Do(ctx, "GET "+url, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return utils.Permanent(fmt.Errorf("%w: %v", models.ErrTransport, err))
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", models.ErrTransport, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			err := fmt.Errorf("%w: status %d", models.ErrTransport, resp.StatusCode)
			if resp.StatusCode < 500 {
				return utils.Permanent(err)
			}
			return err
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: read body: %v", models.ErrTransport, err)
		}
		body, contentType = data, resp.Header.Get("Content-Type")
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

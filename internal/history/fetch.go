package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/radar-coach/internal/resilience"
)

const (
	defaultListingURL = "https://api.github.com/repos/setchy/thoughtworks-tech-radar-volumes/contents/volumes/csv"
	defaultRawBaseURL = "https://raw.githubusercontent.com/setchy/thoughtworks-tech-radar-volumes/main/volumes/csv/"

	fetchUserAgent = "radar-coach/1.0"

	// GitHub's unauthenticated API is generous but not unlimited; one
	// request per second keeps refreshes well clear of the limit.
	githubRequestsPerSecond = 1

	// maxConcurrentDownloads bounds parallel raw CSV downloads during a
	// refresh.
	maxConcurrentDownloads = 4
)

// FetcherOptions configures the radar history fetcher.
type FetcherOptions struct {
	ListingURL string
	RawBaseURL string
	Timeout    time.Duration
	Retry      resilience.RetryConfig
	// RequestsPerSecond overrides the GitHub rate limit when positive.
	RequestsPerSecond rate.Limit
}

// Fetcher downloads radar volume CSVs from the GitHub mirror, rate-limited
// and retried on transient failures.
type Fetcher struct {
	client     *http.Client
	limiter    *rate.Limiter
	listingURL string
	rawBaseURL string
	retry      resilience.RetryConfig
}

// NewFetcher creates a Fetcher with the given options. Zero-value options
// fall back to the public mirror and default timeouts.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.ListingURL == "" {
		opts.ListingURL = defaultListingURL
	}
	if opts.RawBaseURL == "" {
		opts.RawBaseURL = defaultRawBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.DefaultRetryConfig()
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = githubRequestsPerSecond
	}
	return &Fetcher{
		client:     &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(opts.RequestsPerSecond, 1),
		listingURL: opts.ListingURL,
		rawBaseURL: opts.RawBaseURL,
		retry:      opts.Retry,
	}
}

// ListCSVFiles returns the CSV filenames available in the mirror.
func (f *Fetcher) ListCSVFiles(ctx context.Context) ([]string, error) {
	body, err := f.get(ctx, f.listingURL, "application/vnd.github.v3+json")
	if err != nil {
		return nil, eris.Wrap(err, "history: fetch csv listing")
	}

	var entries []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, eris.Wrap(err, "history: parse csv listing")
	}

	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name, ".csv") {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

// FetchCSV downloads a single volume CSV by filename.
func (f *Fetcher) FetchCSV(ctx context.Context, filename string) ([]byte, error) {
	u := f.rawBaseURL + url.PathEscape(filename)
	body, err := f.get(ctx, u, "")
	if err != nil {
		return nil, eris.Wrapf(err, "history: fetch csv %s", filename)
	}
	return body, nil
}

// RefreshDir downloads every volume CSV into dir, skipping files already
// present unless force is set. Returns the number of files downloaded.
func (f *Fetcher) RefreshDir(ctx context.Context, dir string, force bool) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, eris.Wrapf(err, "history: create cache dir %s", dir)
	}

	names, err := f.ListCSVFiles(ctx)
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDownloads)

	downloaded := make(chan string, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if !force {
			if _, err := os.Stat(path); err == nil {
				continue
			}
		}
		g.Go(func() error {
			content, err := f.FetchCSV(gctx, name)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, content, 0o644); err != nil {
				return eris.Wrapf(err, "history: write cache file %s", path)
			}
			downloaded <- name
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	close(downloaded)

	count := 0
	for name := range downloaded {
		zap.L().Debug("history: cached volume csv", zap.String("file", name))
		count++
	}
	return count, nil
}

// get performs one rate-limited, retried GET and returns the body.
func (f *Fetcher) get(ctx context.Context, u, accept string) ([]byte, error) {
	return resilience.DoVal(ctx, f.retry, func(ctx context.Context) ([]byte, error) {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "history: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, eris.Wrapf(err, "history: build request %s", u)
		}
		req.Header.Set("User-Agent", fetchUserAgent)
		if accept != "" {
			req.Header.Set("Accept", accept)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, resilience.NewTransientError(err, 0)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, resilience.NewTransientError(err, 0)
		}
		return body, nil
	})
}

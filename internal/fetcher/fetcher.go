package fetcher

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/landrank/internal/config"
	"github.com/sells-group/landrank/internal/resilience"
)

// Fetcher defines the interface for downloading remote parcel tables.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Router picks a Fetcher by URL scheme and guards each host with a
// circuit breaker.
type Router struct {
	HTTP     Fetcher
	FTP      Fetcher
	Breakers *resilience.Hosts // nil disables breaking
}

// NewRouter builds HTTP and FTP fetchers from the fetch config.
func NewRouter(cfg config.FetchConfig) *Router {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	return &Router{
		HTTP: NewHTTPFetcher(HTTPOptions{
			UserAgent:  cfg.UserAgent,
			Timeout:    timeout,
			MaxRetries: cfg.MaxRetries,
			RatePerSec: cfg.RatePerSec,
		}),
		FTP: NewFTPFetcher(FTPOptions{Timeout: timeout, MaxRetries: cfg.MaxRetries}),
		Breakers: resilience.NewHosts(resilience.BreakerConfig{
			Failures: cfg.BreakerFailures,
			Cooldown: time.Duration(cfg.BreakerCooldownSecs) * time.Second,
		}),
	}
}

// IsRemote reports whether src is a URL this package can download.
func IsRemote(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "ftp://")
}

// For returns the fetcher that handles rawURL.
func (r *Router) For(rawURL string) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: parse url")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if r.HTTP == nil {
			return nil, eris.New("fetcher: no http fetcher configured")
		}
		return r.HTTP, nil
	case "ftp":
		if r.FTP == nil {
			return nil, eris.New("fetcher: no ftp fetcher configured")
		}
		return r.FTP, nil
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
}

// DownloadToFile downloads rawURL to path with the matching fetcher. Calls to
// a host whose breaker is open fail fast with resilience.ErrOpen.
func (r *Router) DownloadToFile(ctx context.Context, rawURL, path string) (int64, error) {
	f, err := r.For(rawURL)
	if err != nil {
		return 0, err
	}
	if r.Breakers == nil {
		return f.DownloadToFile(ctx, rawURL, path)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: parse url")
	}

	var n int64
	err = r.Breakers.For(u.Host).Do(ctx, func(ctx context.Context) error {
		var dlErr error
		n, dlErr = f.DownloadToFile(ctx, rawURL, path)
		return dlErr
	})
	return n, err
}

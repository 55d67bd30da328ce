// Package source retrieves raw docbook parts from a local directory or an
// HTTP(S) base URL.
//
// Remote parts live at <base>/<part>/<part>.xml, the layout of the published
// standard. Downloads go through a [cache.Cache] so that repeated runs do not
// fetch the multi-megabyte XML again; transient failures are retried with
// [httputil.Retry].
//
// Local sources accept either <dir>/<part>.xml or <dir>/<part>/<part>.xml.
package source

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dcmdict/pkg/cache"
	"github.com/matzehuels/dcmdict/pkg/errors"
	"github.com/matzehuels/dcmdict/pkg/httputil"
	"github.com/matzehuels/dcmdict/pkg/observability"
)

const (
	// httpTimeout bounds a single download. Part 3 is larger than 20 MB.
	httpTimeout = 5 * time.Minute

	defaultAttempts = 3
	defaultDelay    = time.Second
	maxDelay        = 30 * time.Second
)

var (
	errNotFound = stderrors.New("resource not found")
	errNetwork  = stderrors.New("network error")
)

// Options tunes a [Fetcher]. The zero value is usable.
type Options struct {
	Logger   *log.Logger
	Client   *http.Client  // defaults to a client with a five minute timeout
	Keyer    cache.Keyer   // defaults to cache.NewDefaultKeyer()
	TTL      time.Duration // cache lifetime of downloaded parts; zero never expires
	Refresh  bool          // bypass cache reads, still write fresh downloads
	Attempts int           // download attempts; defaults to 3
	Delay    time.Duration // initial retry delay; defaults to one second
}

// Fetcher opens docbook parts by name.
type Fetcher struct {
	base   string
	remote bool
	cache  cache.Cache
	opts   Options
	logger *log.Logger
}

// NewFetcher creates a fetcher for base, which is either an http(s) URL or a
// local directory. A nil cache disables caching.
func NewFetcher(base string, c cache.Cache, opts Options) (*Fetcher, error) {
	if err := errors.ValidateSource(base); err != nil {
		return nil, err
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: httpTimeout}
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Attempts <= 0 {
		opts.Attempts = defaultAttempts
	}
	if opts.Delay <= 0 {
		opts.Delay = defaultDelay
	}
	return &Fetcher{
		base:   strings.TrimRight(base, "/"),
		remote: strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://"),
		cache:  c,
		opts:   opts,
		logger: opts.Logger,
	}, nil
}

// Base returns the source location.
func (f *Fetcher) Base() string {
	return f.base
}

// Open returns the raw XML of part. Failures are reported as
// DOCUMENT_UNAVAILABLE errors.
func (f *Fetcher) Open(ctx context.Context, part string) (io.ReadCloser, error) {
	if err := errors.ValidatePartName(part); err != nil {
		return nil, err
	}
	if !f.remote {
		return f.openLocal(part)
	}
	data, err := f.download(ctx, part)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// URL returns the remote location of part.
func (f *Fetcher) URL(part string) string {
	return fmt.Sprintf("%s/%s/%s.xml", f.base, part, part)
}

func (f *Fetcher) openLocal(part string) (io.ReadCloser, error) {
	candidates := []string{
		filepath.Join(f.base, part+".xml"),
		filepath.Join(f.base, part, part+".xml"),
	}
	for _, path := range candidates {
		file, err := os.Open(path)
		if err == nil {
			f.logger.Debug("opened local part", "part", part, "path", path)
			return file, nil
		}
		if !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeDocumentUnavailable, err, "open %s", path)
		}
	}
	return nil, errors.New(errors.ErrCodeDocumentUnavailable, "%s not found in %s", part, f.base)
}

func (f *Fetcher) download(ctx context.Context, part string) ([]byte, error) {
	key := f.opts.Keyer.DocumentKey(f.base, part)
	hooks := observability.Cache()

	if !f.opts.Refresh {
		data, hit, err := f.cache.Get(ctx, key)
		if err != nil {
			f.logger.Warn("cache read failed", "part", part, "error", err)
		}
		if hit {
			hooks.OnCacheHit(ctx, "docbook")
			f.logger.Debug("cache hit", "part", part, "bytes", len(data))
			return data, nil
		}
		hooks.OnCacheMiss(ctx, "docbook")
	}

	target := f.URL(part)
	f.logger.Info("downloading part", "part", part, "url", target)

	var data []byte
	policy := httputil.Policy{
		Attempts: f.opts.Attempts,
		Delay:    f.opts.Delay,
		MaxDelay: maxDelay,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			f.logger.Warn("download failed, retrying", "part", part, "attempt", attempt, "wait", wait, "error", err)
		},
	}
	err := httputil.Retry(ctx, policy, func() error {
		var err error
		data, err = f.get(ctx, target)
		return err
	})
	if err != nil {
		code := errors.ErrCodeDocumentUnavailable
		if stderrors.Is(err, errNotFound) {
			code = errors.ErrCodeNotFound
		}
		return nil, errors.Wrap(errors.ErrCodeDocumentUnavailable,
			errors.Wrap(code, err, "GET %s", target), "open %s", part)
	}

	if err := f.cache.Set(ctx, key, data, f.opts.TTL); err != nil {
		f.logger.Warn("cache write failed", "part", part, "error", err)
	} else {
		hooks.OnCacheSet(ctx, "docbook", len(data))
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, u.Host, u.Path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := f.opts.Client.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, u.Host, u.Path, err)
		return nil, httputil.Transient(fmt.Errorf("%w: %v", errNetwork, err))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodGet, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, httputil.Transient(fmt.Errorf("%w: read body: %v", errNetwork, err))
	}
	return data, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errNotFound
	case httputil.TransientStatus(code):
		return httputil.Transient(fmt.Errorf("%w: status %d", errNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", errNetwork, code)
	}
}

package asset

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrTooLarge reports an image body above the configured size cap.
	ErrTooLarge = errors.New("asset: image exceeds size limit")
	// ErrUnsupportedSource reports a source scheme the fetcher cannot load.
	ErrUnsupportedSource = errors.New("asset: unsupported image source")
)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultMaxBytes     = 20 << 20
	defaultMaxRetries   = 3
	defaultRetryBase    = 250 * time.Millisecond
	maxRetryDelay       = 10 * time.Second
)

// HTTPOptions configures an HTTPFetcher. Zero values select defaults.
type HTTPOptions struct {
	Client     *http.Client
	Timeout    time.Duration
	MaxBytes   int64
	MaxRetries int
	RetryBase  time.Duration
	// BaseDir resolves relative file sources. Empty disables file sources.
	BaseDir   string
	UserAgent string
	Logger    *slog.Logger
}

// HTTPFetcher loads http(s), data: and local file sources.
type HTTPFetcher struct {
	client     *http.Client
	timeout    time.Duration
	maxBytes   int64
	maxRetries int
	retryBase  time.Duration
	baseDir    string
	userAgent  string
	log        *slog.Logger
}

// NewHTTPFetcher returns a fetcher with opts applied over the defaults.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	f := &HTTPFetcher{
		client:     opts.Client,
		timeout:    opts.Timeout,
		maxBytes:   opts.MaxBytes,
		maxRetries: opts.MaxRetries,
		retryBase:  opts.RetryBase,
		baseDir:    opts.BaseDir,
		userAgent:  opts.UserAgent,
		log:        opts.Logger,
	}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	if f.timeout <= 0 {
		f.timeout = defaultFetchTimeout
	}
	if f.maxBytes <= 0 {
		f.maxBytes = defaultMaxBytes
	}
	if f.maxRetries < 0 {
		f.maxRetries = 0
	} else if f.maxRetries == 0 {
		f.maxRetries = defaultMaxRetries
	}
	if f.retryBase <= 0 {
		f.retryBase = defaultRetryBase
	}
	if f.userAgent == "" {
		f.userAgent = "mdpdf"
	}
	if f.log == nil {
		f.log = slog.New(slog.DiscardHandler)
	}
	return f
}

// Fetch returns the bytes behind src.
func (f *HTTPFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	lower := strings.ToLower(src)
	switch {
	case strings.HasPrefix(lower, "data:"):
		return decodeDataURI(src, f.maxBytes)
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return f.fetchHTTP(ctx, src)
	case strings.HasPrefix(lower, "file://"):
		u, err := url.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("asset: parse %q: %w", src, err)
		}
		return f.readFile(u.Path)
	case !strings.Contains(src, "://"):
		return f.readFile(src)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, src)
	}
}

func (f *HTTPFetcher) fetchHTTP(ctx context.Context, src string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			delay := Backoff(attempt-1, f.retryBase)
			f.log.Debug("retrying image fetch", "src", src, "attempt", attempt, "delay_ms", delay.Milliseconds(), "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		data, err := f.get(ctx, src)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (f *HTTPFetcher) get(ctx context.Context, src string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("asset: build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &RetryableError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asset: http status %d", resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, ErrTooLarge
	}
	return readCapped(resp.Body, f.maxBytes)
}

func (f *HTTPFetcher) readFile(path string) ([]byte, error) {
	if f.baseDir == "" {
		return nil, fmt.Errorf("%w: local file %q", ErrUnsupportedSource, path)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.baseDir, filepath.FromSlash(path))
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asset: open %s: %w", path, err)
	}
	defer file.Close()
	return readCapped(file, f.maxBytes)
}

func readCapped(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("asset: read body: %w", err)
	}
	if int64(len(data)) > max {
		return nil, ErrTooLarge
	}
	return data, nil
}

// decodeDataURI decodes `data:[<mime>][;base64],<payload>`.
func decodeDataURI(src string, max int64) ([]byte, error) {
	comma := strings.IndexByte(src, ',')
	if comma < 0 {
		return nil, fmt.Errorf("asset: malformed data uri")
	}
	header := src[len("data:"):comma]
	payload := src[comma+1:]
	var data []byte
	if strings.HasSuffix(strings.ToLower(header), ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimSpace(payload))
			if err != nil {
				return nil, fmt.Errorf("asset: decode data uri: %w", err)
			}
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("asset: decode data uri: %w", err)
		}
		data = []byte(unescaped)
	}
	if int64(len(data)) > max {
		return nil, ErrTooLarge
	}
	return data, nil
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Err        error
}

func (e *RetryableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("retryable error: %v", e.Err)
	}
	return fmt.Sprintf("retryable error (status %d)", e.StatusCode)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int, base time.Duration) time.Duration {
	d := base * time.Duration(1<<uint(attempt))
	if d > maxRetryDelay {
		d = maxRetryDelay
	}
	jitter := time.Duration(rand.Int64N(int64(d)/2 + 1))
	return d + jitter
}

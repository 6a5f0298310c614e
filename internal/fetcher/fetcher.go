package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
)

const MaxHops = 15

type Kind int

const (
	FetchExhausted Kind = iota + 1
	FetchInvalid
)

func (k Kind) String() string {
	switch k {
	case FetchExhausted:
		return "FetchExhausted"
	case FetchInvalid:
		return "FetchInvalid"
	default:
		return "Unknown"
	}
}

// Error is the only error Fetch returns.
type Error struct {
	Kind     Kind
	URL      string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %s after %d attempt(s): %v", e.URL, e.Kind, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsExhausted reports whether err is a fetch that ran out of retries.
func IsExhausted(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == FetchExhausted
}

type Options struct {
	Headers    map[string]string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

type Fetcher struct {
	client *http.Client
	opts   Options
	sleep  func(ctx context.Context, d time.Duration) error
}

func New(opts Options) *Fetcher {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	jar, _ := cookiejar.New(nil)
	return &Fetcher{
		client: &http.Client{
			Jar:     jar,
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= MaxHops {
					return fmt.Errorf("stopped after %d redirects", MaxHops)
				}
				return nil
			},
		},
		opts:  opts,
		sleep: sleepContext,
	}
}

// Fetch GETs url, retrying up to MaxRetries more times with a fixed delay.
// Any transport error or non-2xx status counts as a failed attempt.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	attempts := f.opts.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		log.Debug().Str("url", url).Int("attempt", attempt).Int("of", attempts).Msg("requesting")

		resp, err := f.tryOnce(ctx, url)
		if err == nil {
			log.Debug().Str("url", url).Int("status", resp.StatusCode).Int("bytes", len(resp.Body)).Msg("request succeeded")
			return resp, nil
		}
		lastErr = err

		var invalid *invalidRequestError
		if errors.As(err, &invalid) {
			return nil, &Error{Kind: FetchInvalid, URL: url, Attempts: attempt, Err: err}
		}

		log.Warn().Err(err).Str("url", url).Int("attempt", attempt).Int("of", attempts).Msg("request failed")

		if attempt == attempts {
			break
		}
		if err := f.sleep(ctx, f.opts.RetryDelay); err != nil {
			return nil, &Error{Kind: FetchExhausted, URL: url, Attempts: attempt, Err: err}
		}
	}

	log.Error().Str("url", url).Int("attempts", attempts).Msg("request finally failed")
	return nil, &Error{Kind: FetchExhausted, URL: url, Attempts: attempts, Err: lastErr}
}

type invalidRequestError struct{ err error }

func (e *invalidRequestError) Error() string { return e.err.Error() }
func (e *invalidRequestError) Unwrap() error { return e.err }

func (f *Fetcher) tryOnce(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &invalidRequestError{err: err}
	}
	for k, v := range f.opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	utf8Reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		utf8Reader = resp.Body
	}

	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

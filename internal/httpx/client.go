// Package httpx is the HTTP capability (spec component B): a single
// get-with-retry-backoff operation shared by every driver. It carries
// over the teacher's RateLimitedFetcher (internal/ingest/fetcher_http.go)
// almost verbatim for the SSRF-hardened dial context and redirect
// validation — those concerns don't change with the domain — but
// replaces the teacher's hand-rolled per-domain time.Ticker with
// golang.org/x/time/rate, an ecosystem library doing the identical job,
// already present in the retrieval pack.
package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ukgov/org-registry/internal/cache"
	"github.com/ukgov/org-registry/internal/errs"
	"github.com/ukgov/org-registry/internal/events"
)

const userAgent = "org-registry-aggregator/1.0 (+https://github.com/ukgov/org-registry)"

// Options configures a single Get call. Zero values fall back to Client
// defaults.
type Options struct {
	Timeout       time.Duration
	MaxRetries    int
	AcceptHeader  string
	MaxBytes      int64
}

// Result is the successful outcome of a Get call.
type Result struct {
	Body        []byte
	ContentType string
	FinalURL    string
	StatusCode  int
}

var blockedPrefixStrings = []string{
	"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16",
	"169.254.0.0/16", "::1/128", "fc00::/7", "fe80::/10",
}

var blockedPrefixes = func() []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(blockedPrefixStrings))
	for _, s := range blockedPrefixStrings {
		if p, err := netip.ParsePrefix(s); err == nil {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}()

func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	if ip.IsLoopback() || ip.IsLinkLocalMulticast() || ip.IsLinkLocalUnicast() || ip.IsMulticast() || ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}
	if addr, ok := netip.AddrFromSlice(ip); ok {
		for _, prefix := range blockedPrefixes {
			if prefix.Contains(addr.Unmap()) {
				return true
			}
		}
	}
	return false
}

// dialContext is the Transport's DialContext hook. It is a package
// variable rather than a direct reference to safeDialContext so tests in
// this package can substitute an unrestricted dialer when exercising the
// client against an httptest server on loopback — production code never
// reassigns it, so the SSRF hardening below always applies outside tests.
var dialContext = safeDialContext

// SetDialContextForTest overrides the Transport dial hook every Client
// uses. It exists only so tests — in this package and in packages that
// exercise a real Client against an httptest server — can bypass the
// loopback block above; production callers never call it.
func SetDialContextForTest(fn func(ctx context.Context, network, addr string) (net.Conn, error)) {
	dialContext = fn
}

func safeDialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return nil, fmt.Errorf("blocked private IP: %s", ip)
		}
	}
	return d.DialContext(ctx, network, addr)
}

func safeCheckRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return fmt.Errorf("stopped after 10 redirects")
	}
	if req.URL == nil {
		return fmt.Errorf("invalid redirect URL")
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("redirect scheme blocked")
	}
	host := req.URL.Hostname()
	if host == "" {
		return fmt.Errorf("redirect host missing")
	}
	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".local") {
		return fmt.Errorf("redirect to internal host blocked")
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return err
	}
	if len(ips) == 0 {
		return fmt.Errorf("redirect host resolved to no addresses")
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("redirect to private IP blocked: %s", ip)
		}
	}
	return nil
}

func shouldRetry(err error, statusCode int) bool {
	if err != nil {
		if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
			return true
		}
		return false
	}
	return statusCode == 429 || (statusCode >= 500 && statusCode <= 599)
}

// Client is the shared HTTP capability. One Client instance is created
// per orchestrator run and handed to every driver.
type Client struct {
	mu       sync.RWMutex
	clients  map[string]*http.Client
	limiters map[string]*rate.Limiter
	sink     events.Sink
	defaultOpts Options
}

// New builds a Client. sink may be events.Noop.
func New(sink events.Sink) *Client {
	if sink == nil {
		sink = events.Noop
	}
	return &Client{
		clients:  make(map[string]*http.Client),
		limiters: make(map[string]*rate.Limiter),
		sink:     sink,
		defaultOpts: Options{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
	}
}

func domainOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}

func (c *Client) clientFor(domain string, timeout time.Duration) *http.Client {
	c.mu.RLock()
	cl, ok := c.clients[domain]
	c.mu.RUnlock()
	if ok {
		return cl
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.clients[domain]; ok {
		return cl
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	cl = &http.Client{Timeout: timeout, Transport: transport, CheckRedirect: safeCheckRedirect}
	c.clients[domain] = cl
	c.limiters[domain] = rate.NewLimiter(rate.Limit(2), 2)
	return cl
}

func (c *Client) limiterFor(domain string) *rate.Limiter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.limiters[domain]
}

// Get performs a GET with retry, exponential backoff with jitter, and a
// per-domain rate limit, cancellable via ctx. It fails with errs.Timeout,
// errs.Transport, or errs.HTTPStatus per the retry classification in
// spec §4.B / §7: network failure, 5xx, and 429 are retried; any other
// non-2xx is fatal immediately.
func (c *Client) Get(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	if opts.Timeout == 0 {
		opts.Timeout = c.defaultOpts.Timeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = c.defaultOpts.MaxRetries
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = 100 << 20
	}

	domain, err := domainOf(rawURL)
	if err != nil {
		return nil, &errs.Transport{URL: rawURL, Err: err}
	}

	client := c.clientFor(domain, opts.Timeout)
	if limiter := c.limiterFor(domain); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, &errs.Cancelled{Source: rawURL}
		}
	}

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			jitter := time.Duration(rand.Intn(100)) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, &errs.Cancelled{Source: rawURL}
			case <-time.After(backoff + jitter):
			}
		}

		start := time.Now()
		result, retryAfter, err := c.attempt(ctx, client, rawURL, opts)
		latency := time.Since(start)

		if err == nil {
			c.sink.Emit(events.Event{Kind: events.KindFetchAttempt, Source: rawURL, At: start,
				Message: fmt.Sprintf("200 OK in %s (attempt %d)", latency, attempt+1)})
			return result, nil
		}

		lastErr = err
		retryable := isRetryable(err)
		c.sink.Emit(events.Event{Kind: events.KindFetchAttempt, Source: rawURL, At: start,
			Message: fmt.Sprintf("attempt %d failed in %s: %v", attempt+1, latency, err), Err: err})

		if ctx.Err() != nil {
			return nil, &errs.Cancelled{Source: rawURL}
		}
		if !retryable {
			return nil, err
		}
		if retryAfter > 0 {
			select {
			case <-ctx.Done():
				return nil, &errs.Cancelled{Source: rawURL}
			case <-time.After(retryAfter):
			}
		}
	}
	return nil, lastErr
}

// CachedGet wraps Get with the optional on-disk cache (spec §4.I).
// ch may be nil, in which case CachedGet behaves exactly like Get —
// callers pass nil when --cache was not requested, so the cache
// remains transparent rather than something a driver branches on. When
// ch is set, a fresh entry under cacheKey is returned without a
// network call; a miss or stale entry falls through to Get and the
// response is cached for next time. The returned bool reports a cache
// hit, for DataQuality tagging only.
func (c *Client) CachedGet(ctx context.Context, rawURL, cacheKey string, ch *cache.Cache, opts Options) (*Result, bool, error) {
	if ch == nil {
		result, err := c.Get(ctx, rawURL, opts)
		return result, false, err
	}

	raw, hit, err := ch.Fetch(cacheKey, func() ([]byte, error) {
		result, err := c.Get(ctx, rawURL, opts)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
	if err != nil {
		return nil, false, err
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached response for %s: %w", rawURL, err)
	}
	return &result, hit, nil
}

func isRetryable(err error) bool {
	if status, ok := err.(*errs.HTTPStatus); ok {
		return shouldRetry(nil, status.Code)
	}
	if _, ok := err.(*errs.Timeout); ok {
		return true
	}
	if _, ok := err.(*errs.Transport); ok {
		return true
	}
	return false
}

func (c *Client) attempt(ctx context.Context, client *http.Client, rawURL string, opts Options) (*Result, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, &errs.Transport{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	accept := opts.AcceptHeader
	if accept == "" {
		accept = "*/*"
	}
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, &errs.Timeout{URL: rawURL}
		}
		if shouldRetry(err, 0) {
			return nil, 0, &errs.Transport{URL: rawURL, Err: err}
		}
		return nil, 0, &errs.Transport{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var retryAfter time.Duration
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return nil, retryAfter, &errs.HTTPStatus{URL: rawURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBytes))
	if err != nil {
		return nil, 0, &errs.Transport{URL: rawURL, Err: err}
	}

	return &Result{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
	}, 0, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}

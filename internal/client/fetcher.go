package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"resty.dev/v3"

	"dronepartpicker/scraper/internal/config"
	"dronepartpicker/scraper/internal/limiter"
	"dronepartpicker/scraper/internal/proxy"
)

// FetchError reports a failed page fetch (network error, timeout or
// non-2xx response). The crawler skips the URL and continues.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher fetches a URL and parses it into a queryable document, pacing
// requests per vendor key.
type Fetcher interface {
	Fetch(ctx context.Context, vendorKey, url string, minDelay time.Duration) (*goquery.Document, error)
}

type httpFetcher struct {
	httpClient    *resty.Client
	pacer         *limiter.Pacer
	proxySupplier proxy.Supplier
	timeout       time.Duration

	// Backoff window after repeated throttling responses.
	backoffMutex sync.RWMutex
	backoffUntil time.Time
	backoffDelay time.Duration
}

func NewFetcher(cfg config.ScraperConfig, pacer *limiter.Pacer, proxySupplier proxy.Supplier) Fetcher {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(2*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5").
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using initial proxy: %s", proxyURL)
		}
	}

	return &httpFetcher{
		httpClient:    client,
		pacer:         pacer,
		proxySupplier: proxySupplier,
		timeout:       time.Duration(cfg.Timeout) * time.Second,
		backoffDelay:  10 * time.Minute,
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, vendorKey, url string, minDelay time.Duration) (*goquery.Document, error) {
	if remaining := f.backoffRemaining(); remaining > 0 {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("throttle backoff active for %v more", remaining.Round(time.Second))}
	}

	f.pacer.Take(vendorKey, minDelay)

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout+30*time.Second)
	defer cancel()

	resp, err := f.httpClient.R().
		SetContext(reqCtx).
		Get(url)

	if err != nil {
		if ctx.Err() != nil {
			return nil, &FetchError{URL: url, Err: ctx.Err()}
		}
		return nil, &FetchError{URL: url, Err: err}
	}

	if resp.IsError() {
		if resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() == http.StatusServiceUnavailable {
			f.handleThrottled(url)
		}
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode()}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	return doc, nil
}

// handleThrottled rotates to the next proxy if one is available,
// otherwise opens the backoff window.
func (f *httpFetcher) handleThrottled(url string) {
	log.Warnf("🚫 Throttled by vendor on %s", url)

	if f.proxySupplier != nil {
		if newProxy := f.proxySupplier.Get(); newProxy != "" {
			log.Infof("🔄 Switching to proxy: %s", newProxy)
			f.httpClient.SetProxy(newProxy)
			return
		}
	}

	f.backoffMutex.Lock()
	f.backoffUntil = time.Now().Add(f.backoffDelay)
	f.backoffMutex.Unlock()
	log.Warnf("🚫 Backing off all fetches for %v", f.backoffDelay)
}

func (f *httpFetcher) backoffRemaining() time.Duration {
	f.backoffMutex.RLock()
	defer f.backoffMutex.RUnlock()

	remaining := time.Until(f.backoffUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}

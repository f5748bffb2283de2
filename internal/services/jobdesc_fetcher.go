package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrEmptyJobDescription = errors.New("job posting has no readable text")

// Selectors tried in order before falling back to the whole body.
var jobContentSelectors = []string{
	"[data-testid='job-description']",
	".job-description",
	"#job-description",
	".posting-page .section-wrapper",
	"#content .job__description",
	"main",
	"article",
}

// JobDescriptionFetcher downloads a job posting and returns its visible text.
type JobDescriptionFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

type jobDescriptionFetcher struct {
	hc        *http.Client
	userAgent string
	limiter   *hostLimiter
	logger    *zap.Logger
}

func NewJobDescriptionFetcher(timeout time.Duration, userAgent string, log *zap.Logger) JobDescriptionFetcher {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &jobDescriptionFetcher{
		hc:        &http.Client{Timeout: timeout},
		userAgent: userAgent,
		limiter:   newHostLimiter(1, 2),
		logger:    log,
	}
}

func (f *jobDescriptionFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid job posting URL %q", rawURL)
	}

	if err := f.limiter.Wait(ctx, u.Host); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	res, err := f.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching job posting: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("fetching job posting: unexpected status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return "", fmt.Errorf("parsing job posting: %w", err)
	}

	text := postingText(doc)
	if text == "" {
		return "", ErrEmptyJobDescription
	}

	f.logger.Debug("job posting fetched", zap.String("host", u.Host), zap.Int("length", len(text)))
	return text, nil
}

func postingText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, header, footer, svg").Remove()

	for _, sel := range jobContentSelectors {
		if text := collapseWhitespace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}

	return collapseWhitespace(doc.Find("body").Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// hostLimiter rate-limits requests per hostname.
type hostLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

func newHostLimiter(reqPerSec float64, burst int) *hostLimiter {
	return &hostLimiter{
		m: make(map[string]*rate.Limiter),
		r: rate.Limit(reqPerSec),
		b: burst,
	}
}

func (hl *hostLimiter) Wait(ctx context.Context, host string) error {
	hl.mu.Lock()
	lim, ok := hl.m[host]
	if !ok {
		lim = rate.NewLimiter(hl.r, hl.b)
		hl.m[host] = lim
	}
	hl.mu.Unlock()

	return lim.Wait(ctx)
}

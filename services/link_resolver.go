package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"research-verifier/config"
	"research-verifier/models"
	"research-verifier/providers"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const maxRedirects = 10

var errTooManyRedirects = fmt.Errorf("stopped after %d redirects", maxRedirects)

// browserTransport sends every request with a browser User-Agent so that
// publisher sites do not serve their bot wall.
type browserTransport struct {
	UserAgent string
	Base      http.RoundTripper
}

func (t *browserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return t.Base.RoundTrip(req)
}

// LinkResolver fetches a claimed link and extracts the readable article.
// It never returns an error; failures are described in the result.
type LinkResolver struct {
	client   *http.Client
	cleaner  *TextCleaner
	maxChars int
	maxBytes int64
	logger   *zap.Logger
}

func NewLinkResolver(cfg *config.Config, logger *zap.Logger) *LinkResolver {
	return &LinkResolver{
		client: &http.Client{
			Timeout:   cfg.FetchTimeout,
			Transport: &browserTransport{UserAgent: cfg.FetchUserAgent, Base: http.DefaultTransport},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
		},
		cleaner:  NewTextCleaner(),
		maxChars: cfg.FetchMaxChars,
		maxBytes: cfg.FetchMaxBytes,
		logger:   logger,
	}
}

func (r *LinkResolver) Resolve(ctx context.Context, link string) models.ContentFetchResult {
	link = strings.TrimSpace(link)
	if link == "" {
		return models.ContentFetchResult{Success: false, Error: "No URL provided"}
	}
	res := models.ContentFetchResult{URL: link}

	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		res.Error = "Malformed URL"
		return res
	}

	log := r.logger.With(zap.String("url", link))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		res.Error = "Malformed URL"
		return res
	}

	started := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		if providers.IsTimeout(err) {
			res.Error = "Request timeout"
		} else {
			res.Error = "Fetch failed: " + truncateRunes(err.Error(), 100)
		}
		log.Debug("Link fetch failed", zap.Error(err))
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		res.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return res
	}

	contentType := resp.Header.Get("Content-Type")
	if !isExtractable(contentType) {
		mediaType, _, _ := mime.ParseMediaType(contentType)
		res.Error = "Extraction failed: unsupported content type " + mediaType
		return res
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes))
	if err != nil {
		if providers.IsTimeout(err) {
			res.Error = "Request timeout"
		} else {
			res.Error = "Fetch failed: " + truncateRunes(err.Error(), 100)
		}
		return res
	}

	// Decode legacy charsets to UTF-8; fall back to the raw bytes.
	var reader io.Reader = bytes.NewReader(body)
	if decoded, err := charset.NewReader(bytes.NewReader(body), contentType); err == nil {
		reader = decoded
	}

	// Base URL for relative links is the final URL after redirects.
	article, err := readability.FromReader(reader, resp.Request.URL)
	if err != nil {
		res.Error = "Extraction failed: " + truncateRunes(err.Error(), 100)
		return res
	}

	res.Success = true
	res.Title = strings.TrimSpace(article.Title)
	res.Authors = strings.TrimSpace(article.Byline)
	if article.PublishedTime != nil {
		res.Date = article.PublishedTime.Format("2006-01-02")
	}
	res.FullText = truncateRunes(r.cleaner.Clean(article.TextContent), r.maxChars)

	log.Debug("Link resolved",
		zap.Int("status", resp.StatusCode),
		zap.Int("text_runes", len([]rune(res.FullText))),
		zap.Duration("took", time.Since(started)))
	return res
}

// isExtractable accepts HTML-ish and text bodies, and a missing Content-Type.
func isExtractable(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return true
	}
	switch {
	case mediaType == "text/html", mediaType == "application/xhtml+xml":
		return true
	case strings.HasPrefix(mediaType, "text/"), strings.HasSuffix(mediaType, "+xml"), mediaType == "application/xml":
		return true
	}
	return false
}

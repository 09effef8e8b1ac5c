package media

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"ccms/internal/config"
	"ccms/internal/ports"
)

var (
	imageURLExpr = regexp.MustCompile(`https?://[^"'\s<>\\]+?\.(?:jpe?g|png|webp)(?:\?[^"'\s<>\\]*)?`)
	skipMarkers  = []string{"icon", "logo", "button", "arrow", "gstatic", "favicon", "sprite"}
)

// ImageSearch scrapes an image search results page for candidate image URLs.
type ImageSearch struct {
	searchURL string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

var _ ports.ImageFinder = (*ImageSearch)(nil)

// NewImageSearch builds a scraper; SearchURL must contain "{query}".
func NewImageSearch(cfg config.ImagesConfig, client *http.Client) *ImageSearch {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &ImageSearch{
		searchURL: cfg.SearchURL,
		userAgent: cfg.UserAgent,
		client:    client,
		limiter:   newLimiter(cfg.RequestsPerSecond),
	}
}

// FindImages returns up to limit unique, non-decorative image URLs.
func (s *ImageSearch) FindImages(ctx context.Context, query string, limit int) ([]string, error) {
	if !strings.Contains(s.searchURL, "{query}") {
		return nil, fmt.Errorf("image search url %q has no {query} placeholder", s.searchURL)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	pageURL := strings.ReplaceAll(s.searchURL, "{query}", url.QueryEscape(query))
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("image search %q: %w", query, err)
	}
	return extractImageURLs(doc, limit), nil
}

func (s *ImageSearch) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// extractImageURLs collects from result anchors first, then <img> tags, then inline scripts.
func extractImageURLs(doc *goquery.Document, limit int) []string {
	if limit <= 0 {
		return nil
	}
	var (
		out  []string
		seen = map[string]struct{}{}
	)
	add := func(raw string) bool {
		u := strings.TrimSpace(html.UnescapeString(raw))
		if !acceptImageURL(u) {
			return true
		}
		if _, ok := seen[u]; ok {
			return true
		}
		seen[u] = struct{}{}
		out = append(out, u)
		return len(out) < limit
	}

	more := true
	doc.Find("a.iusc").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		m, ok := a.Attr("m")
		if !ok {
			return true
		}
		var meta struct {
			MURL string `json:"murl"`
		}
		if json.Unmarshal([]byte(m), &meta) != nil || meta.MURL == "" {
			return true
		}
		more = add(meta.MURL)
		return more
	})

	if more {
		doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			for _, attr := range []string{"data-src", "src"} {
				if v, ok := img.Attr(attr); ok && v != "" {
					more = add(v)
					break
				}
			}
			return more
		})
	}

	if more {
		doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
			for _, match := range imageURLExpr.FindAllString(script.Text(), -1) {
				if more = add(match); !more {
					return false
				}
			}
			return true
		})
	}

	return out
}

func acceptImageURL(u string) bool {
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return false
	}
	lower := strings.ToLower(u)
	for _, marker := range skipMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ccms/internal/config"
	"ccms/internal/domain"
	"ccms/internal/ports"
)

const maxImageBytes = 10 << 20

// Downloader fetches images one at a time, validates them and optionally writes them to disk.
type Downloader struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	dir       string
	logger    *zap.Logger
}

var _ ports.ImageFetcher = (*Downloader)(nil)

// NewDownloader keeps files in memory only when cfg.Dir is empty.
func NewDownloader(cfg config.ImagesConfig, client *http.Client, logger *zap.Logger) *Downloader {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{
		client:    client,
		limiter:   newLimiter(cfg.RequestsPerSecond),
		userAgent: cfg.UserAgent,
		dir:       cfg.Dir,
		logger:    logger,
	}
}

// Fetch downloads every URL in order. Failures are collected, not fatal.
func (d *Downloader) Fetch(ctx context.Context, urls []string, namePrefix string, minBytes int) ([]domain.MediaAsset, []error) {
	var (
		assets []domain.MediaAsset
		errs   []error
	)
	if d.dir != "" {
		if err := os.MkdirAll(d.dir, 0o755); err != nil {
			return nil, []error{fmt.Errorf("create image dir: %w", err)}
		}
	}

	for i, u := range urls {
		if err := d.limiter.Wait(ctx); err != nil {
			errs = append(errs, err)
			break
		}
		asset, err := d.download(ctx, u, fmt.Sprintf("%s_%d", namePrefix, i+1), minBytes)
		if err != nil {
			d.logger.Debug("image skipped", zap.String("url", u), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}
		assets = append(assets, asset)
	}
	return assets, errs
}

func (d *Downloader) download(ctx context.Context, rawURL, baseName string, minBytes int) (domain.MediaAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.MediaAsset{}, fmt.Errorf("build request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return domain.MediaAsset{}, fmt.Errorf("request image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.MediaAsset{}, fmt.Errorf("image returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return domain.MediaAsset{}, fmt.Errorf("read image: %w", err)
	}

	contentType := headerMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "image/") {
		detected := mimetype.Detect(data)
		contentType = headerMediaType(detected.String())
		if !strings.HasPrefix(contentType, "image/") {
			return domain.MediaAsset{}, fmt.Errorf("not an image: %s", contentType)
		}
	}

	if len(data) < minBytes {
		return domain.MediaAsset{}, fmt.Errorf("image too small: %d bytes", len(data))
	}

	asset := domain.MediaAsset{
		SourceURL:   rawURL,
		Filename:    baseName + extensionFor(contentType),
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}

	if d.dir != "" {
		asset.Path = filepath.Join(d.dir, asset.Filename)
		if err := os.WriteFile(asset.Path, data, 0o644); err != nil {
			return domain.MediaAsset{}, fmt.Errorf("write image: %w", err)
		}
	}
	return asset, nil
}

func headerMediaType(value string) string {
	mt, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return mt
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	if m := mimetype.Lookup(contentType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return ".jpg"
}

package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ccms/internal/domain"
	"ccms/internal/ports"
)

const (
	defaultMaxImages    = 6
	defaultMediaQuery   = "{casino} casino games lobby"
	mediaMethodSearch   = "image_search"
	mediaMethodDisabled = "disabled"
)

// MediaDeps wires the media branch. Archive is optional.
type MediaDeps struct {
	Finder  ports.ImageFinder
	Fetcher ports.ImageFetcher
	Archive ports.MediaArchive
	Logger  *zap.Logger
}

// MediaCollector finds, downloads and archives casino images.
type MediaCollector struct {
	finder  ports.ImageFinder
	fetcher ports.ImageFetcher
	archive ports.MediaArchive
	logger  *zap.Logger
}

// MediaRequest names the casino and the media chain settings.
type MediaRequest struct {
	CasinoSlug string
	CasinoName string
	Settings   domain.MediaSettings
}

// NewMediaCollector constructs the media branch.
func NewMediaCollector(deps MediaDeps) *MediaCollector {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &MediaCollector{
		finder:  deps.Finder,
		fetcher: deps.Fetcher,
		archive: deps.Archive,
		logger:  deps.Logger,
	}
}

// Collect never fails; every problem is reported in the bundle's Errors.
func (m *MediaCollector) Collect(ctx context.Context, req MediaRequest) domain.MediaBundle {
	if m == nil || m.finder == nil || m.fetcher == nil {
		return domain.MediaBundle{Method: mediaMethodDisabled}
	}
	bundle := domain.MediaBundle{Method: mediaMethodSearch}

	limit := req.Settings.MaxImages
	if limit <= 0 {
		limit = defaultMaxImages
	}
	tmpl := req.Settings.SearchQuery
	if tmpl == "" {
		tmpl = defaultMediaQuery
	}
	name := strings.TrimSuffix(req.CasinoName, " Casino")
	query := strings.ReplaceAll(tmpl, "{casino}", name)

	urls, err := m.finder.FindImages(ctx, query, limit)
	if err != nil {
		bundle.Errors = append(bundle.Errors, fmt.Sprintf("image search: %v", err))
		return bundle
	}
	if len(urls) == 0 {
		bundle.Errors = append(bundle.Errors, "image search returned no candidates")
		return bundle
	}
	if len(urls) > limit {
		urls = urls[:limit]
	}

	assets, errs := m.fetcher.Fetch(ctx, urls, req.CasinoSlug, req.Settings.MinImageBytes)
	for _, err := range errs {
		bundle.Errors = append(bundle.Errors, err.Error())
	}

	for i := range assets {
		assets[i].Alt = fmt.Sprintf("%s screenshot %d", req.CasinoName, i+1)
		assets[i].Caption = fmt.Sprintf("%s: games and lobby", req.CasinoName)
		if m.archive == nil {
			continue
		}
		key, err := m.archive.Archive(ctx, assets[i])
		if err != nil {
			bundle.Errors = append(bundle.Errors, fmt.Sprintf("archive %s: %v", assets[i].Filename, err))
			continue
		}
		assets[i].ArchiveKey = key
	}
	bundle.Assets = assets

	m.logger.Info("media collected",
		zap.String("casino", req.CasinoSlug),
		zap.Int("candidates", len(urls)),
		zap.Int("images", len(assets)),
		zap.Int("errors", len(bundle.Errors)))
	return bundle
}

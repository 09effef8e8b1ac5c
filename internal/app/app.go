package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"ccms/internal/config"
	"ccms/internal/domain"
	"ccms/internal/infrastructure/llm"
	"ccms/internal/infrastructure/media"
	"ccms/internal/infrastructure/search"
	"ccms/internal/infrastructure/storage"
	"ccms/internal/infrastructure/vectorstore"
	"ccms/internal/infrastructure/wordpress"
	"ccms/internal/logging"
	"ccms/internal/ports"
	"ccms/internal/retrieval"
	"ccms/internal/usecase"
)

// ErrLLMUnavailable is returned by Run when no completion provider could be built.
var ErrLLMUnavailable = errors.New("llm provider is not configured")

// Application wires configs to use cases.
type Application struct {
	cfg       config.Config
	logger    *zap.Logger
	repo      *storage.Repository
	chat      ports.ChatClient
	indexer   ports.DocumentIndexer
	wordpress *wordpress.Client
	resolver  *usecase.Resolver
	pipeline  *usecase.Pipeline
	validator *usecase.Validator
	disabled  []string
}

// New opens the database and builds every adapter. Optional adapters that
// cannot be built are left out and listed by Disabled.
func New(ctx context.Context, cfg config.Config, baseLogger *zap.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	repo := storage.NewRepository(db, cfg.Database.Driver)
	if cfg.Database.AutoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close()
			return nil, err
		}
	}

	a := &Application{cfg: cfg, logger: baseLogger, repo: repo}

	chat, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		a.disable("llm", err)
	} else {
		a.chat = chat
	}

	var vectors ports.VectorStore
	if store, err := a.vectorStore(); err != nil {
		a.disable("vectorstore", err)
	} else {
		vectors, a.indexer = store, store
	}

	var registry *retrieval.Registry
	if vectors != nil {
		registry = retrieval.DefaultRegistry(vectors, a.chat)
	}
	retriever := usecase.NewRetriever(registry, usecase.RetrieverOptions{
		FetchK: cfg.VectorStore.FetchK,
		Lambda: cfg.VectorStore.MMRLambda,
	}, logging.Component(baseLogger, "retriever"))

	researchDeps := usecase.ResearchDeps{
		Store:     repo,
		LLM:       a.chat,
		Retriever: retriever,
		Logger:    logging.Component(baseLogger, "research"),
	}
	if cfg.Search.APIKey != "" {
		researchDeps.Searcher = search.NewTavilyClient(cfg.Search, logging.Component(baseLogger, "search"))
	} else {
		a.disable("web search", errors.New("TAVILY_API_KEY is not set"))
	}
	research := usecase.NewResearcher(researchDeps)

	mediaDeps := usecase.MediaDeps{Logger: logging.Component(baseLogger, "media")}
	if cfg.Images.SearchURL != "" {
		mediaDeps.Finder = media.NewImageSearch(cfg.Images, nil)
		mediaDeps.Fetcher = media.NewDownloader(cfg.Images, nil, logging.Component(baseLogger, "downloader"))
	}
	if cfg.Archive.Bucket != "" {
		archive, err := media.NewS3Archive(ctx, cfg.Archive)
		if err != nil {
			a.disable("media archive", err)
		} else {
			mediaDeps.Archive = archive
		}
	}

	a.wordpress = wordpress.NewClient(cfg.WordPress, logging.Component(baseLogger, "wordpress"))
	a.resolver = usecase.NewResolver(repo, logging.Component(baseLogger, "resolver"))
	a.validator = usecase.NewValidator(a.resolver, research)
	if a.chat != nil {
		a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
			Resolver:  a.resolver,
			Research:  research,
			Retriever: retriever,
			Generator: usecase.NewGenerator(a.chat, logging.Component(baseLogger, "generator")),
			Media:     usecase.NewMediaCollector(mediaDeps),
			Publisher: a.wordpress,
			Runs:      repo,
			Logger:    logging.Component(baseLogger, "pipeline"),
		})
	}
	return a, nil
}

type vectorBackend interface {
	ports.VectorStore
	ports.DocumentIndexer
}

func (a *Application) vectorStore() (vectorBackend, error) {
	embedder, err := llm.NewEmbedder(a.cfg.LLM)
	if err != nil {
		return nil, err
	}
	vc := a.cfg.VectorStore
	switch vc.Backend {
	case "qdrant":
		return vectorstore.NewQdrantStore(vc.QdrantURL, vc.QdrantAPIKey, vc.Collection, embedder)
	default:
		return vectorstore.NewChromemStore(vc.Path, vc.Compress, vc.Collection,
			vectorstore.EmbeddingFuncFrom(embedder), logging.Component(a.logger, "vectorstore"))
	}
}

func (a *Application) disable(component string, err error) {
	a.disabled = append(a.disabled, fmt.Sprintf("%s: %v", component, err))
	a.logger.Debug("component disabled", zap.String("component", component), zap.Error(err))
}

// Disabled lists optional components that could not be built.
func (a *Application) Disabled() []string {
	return a.disabled
}

// Run executes the pipeline once.
func (a *Application) Run(ctx context.Context, req domain.RunRequest) (domain.RunResult, error) {
	if a.pipeline == nil {
		return domain.RunResult{TenantSlug: req.TenantSlug, CasinoSlug: req.CasinoSlug, Error: ErrLLMUnavailable.Error()}, ErrLLMUnavailable
	}
	return a.pipeline.Run(ctx, req)
}

// ResolveConfig returns the merged chain hierarchy for a tenant and optional casino.
func (a *Application) ResolveConfig(ctx context.Context, tenant, casino, locale string) (usecase.Resolution, error) {
	return a.resolver.Resolve(ctx, usecase.ResolveRequest{TenantSlug: tenant, CasinoSlug: casino, Locale: locale})
}

// Validate reports pipeline readiness for one casino.
func (a *Application) Validate(ctx context.Context, tenant, casino, locale string) (usecase.ReadinessReport, error) {
	return a.validator.Check(ctx, tenant, casino, locale)
}

// RecentRuns lists recorded runs for a casino, newest first.
func (a *Application) RecentRuns(ctx context.Context, casino string, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	return a.repo.RecentRuns(ctx, casino, uint64(limit))
}

// Migrate creates the schema.
func (a *Application) Migrate(ctx context.Context) error {
	return a.repo.Migrate(ctx)
}

// Seed loads a YAML fixture into the database and the vector store.
func (a *Application) Seed(ctx context.Context, path string) (storage.SeedSummary, error) {
	seed, err := storage.LoadSeed(path)
	if err != nil {
		return storage.SeedSummary{}, err
	}
	sum, err := a.repo.ApplySeed(ctx, seed)
	if err != nil {
		return sum, err
	}
	if len(seed.Documents) == 0 {
		return sum, nil
	}
	if a.indexer == nil {
		return sum, fmt.Errorf("seed has %d documents but the vector store is unavailable", len(seed.Documents))
	}
	if err := a.indexer.AddDocuments(ctx, seed.Documents); err != nil {
		return sum, fmt.Errorf("index documents: %w", err)
	}
	sum.Documents = len(seed.Documents)
	return sum, nil
}

// Close releases the database pool.
func (a *Application) Close() error {
	return a.repo.Close()
}

// EnvCheck is the presence status of one environment variable.
type EnvCheck struct {
	Name     string `json:"name"`
	Present  bool   `json:"present"`
	Required bool   `json:"required"`
}

// CheckEnv reports which required and optional variables are set.
func CheckEnv() []EnvCheck {
	checks := make([]EnvCheck, 0, len(config.RequiredEnv)+len(config.OptionalEnv))
	for _, name := range config.RequiredEnv {
		checks = append(checks, EnvCheck{Name: name, Present: os.Getenv(name) != "", Required: true})
	}
	for _, name := range config.OptionalEnv {
		checks = append(checks, EnvCheck{Name: name, Present: os.Getenv(name) != ""})
	}
	return checks
}

// HealthReport summarises connectivity of the wired adapters.
type HealthReport struct {
	Env           []EnvCheck `json:"env"`
	DatabaseError string     `json:"database_error,omitempty"`
	VectorCount   int        `json:"vector_count"`
	VectorError   string     `json:"vector_error,omitempty"`
	WordPressErr  string     `json:"wordpress_error,omitempty"`
	Disabled      []string   `json:"disabled,omitempty"`
}

// Healthy is false when a required variable is missing or the database is unreachable.
func (h HealthReport) Healthy() bool {
	if h.DatabaseError != "" {
		return false
	}
	for _, c := range h.Env {
		if c.Required && !c.Present {
			return false
		}
	}
	return true
}

// Health pings the database, counts vector documents and checks WordPress credentials.
func (a *Application) Health(ctx context.Context) HealthReport {
	report := HealthReport{Env: CheckEnv(), Disabled: a.disabled}
	if err := a.repo.Ping(ctx); err != nil {
		report.DatabaseError = err.Error()
	}
	if a.indexer == nil {
		report.VectorError = "vector store is not configured"
	} else if n, err := a.indexer.Count(ctx); err != nil {
		report.VectorError = err.Error()
	} else {
		report.VectorCount = n
	}
	if a.cfg.WordPress.BaseURL != "" {
		if err := a.wordpress.Check(ctx); err != nil {
			report.WordPressErr = err.Error()
		}
	}
	return report
}

// Package server provides the core application server and dependency injection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
	"github.com/JakeFAU/adforge/internal/analytics"
	"github.com/JakeFAU/adforge/internal/api"
	"github.com/JakeFAU/adforge/internal/assets"
	memorycache "github.com/JakeFAU/adforge/internal/cache/memory"
	rediscache "github.com/JakeFAU/adforge/internal/cache/redis"
	"github.com/JakeFAU/adforge/internal/clock/system"
	"github.com/JakeFAU/adforge/internal/config"
	"github.com/JakeFAU/adforge/internal/copywriter"
	"github.com/JakeFAU/adforge/internal/creative"
	"github.com/JakeFAU/adforge/internal/dispatcher"
	collyfetcher "github.com/JakeFAU/adforge/internal/fetcher/colly"
	headlessfetcher "github.com/JakeFAU/adforge/internal/fetcher/headless"
	"github.com/JakeFAU/adforge/internal/genai/fal"
	"github.com/JakeFAU/adforge/internal/genai/gemini"
	"github.com/JakeFAU/adforge/internal/hash/sha256"
	"github.com/JakeFAU/adforge/internal/headless/detector"
	"github.com/JakeFAU/adforge/internal/id/uuid"
	"github.com/JakeFAU/adforge/internal/jobs"
	"github.com/JakeFAU/adforge/internal/logging"
	"github.com/JakeFAU/adforge/internal/metrics"
	"github.com/JakeFAU/adforge/internal/news"
	"github.com/JakeFAU/adforge/internal/policy/ratelimit"
	"github.com/JakeFAU/adforge/internal/policy/retry"
	"github.com/JakeFAU/adforge/internal/product"
	memorypublisher "github.com/JakeFAU/adforge/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/adforge/internal/publisher/pubsub"
	queueMemory "github.com/JakeFAU/adforge/internal/queue/memory"
	"github.com/JakeFAU/adforge/internal/scraper"
	"github.com/JakeFAU/adforge/internal/storage/gcs"
	localstorage "github.com/JakeFAU/adforge/internal/storage/local"
	memoryStorage "github.com/JakeFAU/adforge/internal/storage/memory"
	mongostore "github.com/JakeFAU/adforge/internal/storage/mongo"
	pgstore "github.com/JakeFAU/adforge/internal/storage/postgres"
	"github.com/JakeFAU/adforge/internal/vendorhttp"
	"github.com/JakeFAU/adforge/internal/worker"
)

// App contains the application's dependencies.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	clock    adforge.Clock
	hasher   *sha256.Hasher
	limiter  *ratelimit.Limiter
	policy   *retry.ExponentialPolicy
	products product.Store
	jobStore adforge.JobStore
	cache    scraper.Cache

	redis      *rediscache.Cache
	gcsClient  *storage.Client
	pubsub     *gcppublisher.Publisher
	publisher  adforge.Publisher
	headless   *headlessfetcher.Fetcher
	queue      *queueMemory.Queue
	dispatch   *dispatcher.Dispatcher
	scrapeTier *scraper.Chain
	apiServer  *api.Server
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	// Only non-sensitive fields are logged.
	type SanitizedConfig struct {
		ServerPort     int    `json:"server_port"`
		StorageBackend string `json:"storage_backend"`
		CacheBackend   string `json:"cache_backend"`
		AssetsBackend  string `json:"assets_backend"`
		Workers        int    `json:"workers"`
		AuthEnabled    bool   `json:"auth_enabled"`
	}
	safeCfg := SanitizedConfig{
		ServerPort:     cfg.Server.Port,
		StorageBackend: cfg.Storage.Backend,
		CacheBackend:   cfg.Cache.Backend,
		AssetsBackend:  cfg.Assets.Backend,
		Workers:        cfg.Jobs.Workers,
		AuthEnabled:    cfg.Auth.Enabled,
	}
	logger.Info("Creating application", zap.Any("config", safeCfg))
	return &App{
		cfg:    cfg,
		logger: logger,
		clock:  system.New(),
		hasher: sha256.New(),
	}, nil
}

// Handler exposes the HTTP handler, mostly for tests.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Scrape runs one URL through the scrape chain used by the API.
func (a *App) Scrape(ctx context.Context, url string) scraper.Result {
	return a.scrapeTier.Scrape(ctx, url)
}

// Run starts the application and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application started")
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.dispatch.Start(ctx)
	a.logger.Info("dispatcher started", zap.Int("workers", a.dispatch.Size()))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	timeout := time.Duration(a.cfg.Server.ShutdownTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	return a.Close(shutdownCtx)
}

// Close gracefully shuts down the application.
func (a *App) Close(ctx context.Context) error {
	if a.queue != nil {
		a.queue.Close()
	}
	// Workers finish their bookkeeping before the stores they write to close.
	if a.dispatch != nil {
		if err := a.dispatch.Wait(ctx); err != nil {
			a.logger.Warn("workers did not drain before shutdown deadline", zap.Error(err))
		}
	}
	a.closeInfrastructure(ctx)
	if err := a.logger.Sync(); err != nil {
		a.logger.Debug("logger sync failed", zap.Error(err))
	}
	a.logger.Info("shutdown complete")
	return nil
}

//nolint:gocognit // Shutdown logic is linear but extensive, ignoring complexity check
func (a *App) closeInfrastructure(ctx context.Context) {
	if a.headless != nil {
		a.headless.Close()
	}
	if a.pubsub != nil {
		if err := a.pubsub.Close(); err != nil {
			a.logger.Warn("pubsub publisher close failed", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if a.products != nil {
		if err := a.products.Close(ctx); err != nil {
			a.logger.Warn("product store close failed", zap.Error(err))
		}
	}
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
		Service:     "adforge",
	})
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	metrics.Init()

	app, err := NewApp(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("app init failed: %w", err)
	}
	app.logger.Info("building application dependencies")
	app.setupPolicies()

	if err := app.setupStores(ctx); err != nil {
		app.closeInfrastructure(ctx)
		return nil, err
	}
	if err := app.setupCache(ctx); err != nil {
		app.closeInfrastructure(ctx)
		return nil, err
	}
	if err := app.setupPublisher(ctx); err != nil {
		app.closeInfrastructure(ctx)
		return nil, err
	}
	archive, err := app.setupAssets(ctx)
	if err != nil {
		app.closeInfrastructure(ctx)
		return nil, err
	}

	geminiClient := gemini.New(gemini.Config{
		APIKey:      cfg.Gemini.APIKey,
		BaseURL:     cfg.Gemini.BaseURL,
		TextModel:   cfg.Gemini.TextModel,
		AdModel:     cfg.Gemini.AdModel,
		SpecModel:   cfg.Gemini.SpecModel,
		VisionModel: cfg.Gemini.VisionModel,
		HealthModel: cfg.Gemini.HealthModel,
	}, app.vendorClient(0), logger)
	falClient := fal.New(fal.Config{
		APIKey:       cfg.Fal.APIKey,
		BaseURL:      cfg.Fal.BaseURL,
		ImageModel:   cfg.Fal.ImageModel,
		VideoModel:   cfg.Fal.VideoModel,
		PollInterval: time.Duration(cfg.Fal.PollIntervalMs) * time.Millisecond,
		Timeout:      time.Duration(cfg.Fal.TimeoutSeconds) * time.Second,
	}, app.vendorClient(0), logger)

	app.scrapeTier, err = app.setupScraper()
	if err != nil {
		app.closeInfrastructure(ctx)
		return nil, err
	}

	newsService := news.NewService(news.ServiceConfig{
		Searcher: app.newsSearcher(),
		Cache:    app.cache,
		CacheTTL: cfg.CacheTTL(),
		Clock:    app.clock,
		Logger:   logger,
	})

	// Without keys the vendor clients fail fast and the pipeline serves demo
	// concepts.
	studio := creative.NewStudio(creative.StudioConfig{
		Generator:  falClient,
		HTTPClient: app.vendorClient(30 * time.Second),
		Archive:    archive,
		Clock:      app.clock,
		Logger:     logger,
	})
	var specs *creative.SpecWriter
	if geminiClient.Configured() {
		specs = creative.NewSpecWriter(geminiClient, app.clock, logger)
	}
	pipeline := creative.NewPipeline(studio, specs, logger)
	writer := copywriter.NewWriter(geminiClient, cfg.Gemini.TextModel, cfg.Gemini.AdModel, logger)

	idGen := uuid.New()
	cancels := worker.NewCancels()
	app.queue = queueMemory.NewQueue(cfg.Jobs.QueueDepth)
	app.dispatch = app.setupDispatcher(jobs.NewCreativeRunner(pipeline), cancels)
	jobService := jobs.NewService(jobs.Config{
		Store:    app.jobStore,
		Enqueuer: app.dispatch,
		IDs:      idGen,
		Clock:    app.clock,
		Cancels:  cancels,
		Logger:   logger,
	})

	app.apiServer = api.NewServer(api.Deps{
		Products: product.NewService(app.products, idGen, app.clock, logger),
		Store:    app.products,
		Scraper:  app.scrapeTier,
		News:     newsService,
		Writer:   writer,
		Creative: pipeline,
		Tracker:  analytics.NewTracker(app.publisher, cfg.PubSub.AnalyticsTopic, app.clock, logger),
		Gemini:   geminiClient,
		Fal:      falClient,
		Jobs:     jobService,
		Clock:    app.clock,
	}, *cfg, logger)

	return app, nil
}

// setupStores opens the product store and the job store that shares its
// backend. Mongo keeps jobs in memory.
func (a *App) setupStores(ctx context.Context) error {
	switch a.cfg.Storage.Backend {
	case "mongo":
		a.logger.Info("using mongo product store", zap.String("database", a.cfg.Mongo.Database))
		store, err := mongostore.Open(ctx, mongostore.Config{
			URI:            a.cfg.Mongo.URI,
			Database:       a.cfg.Mongo.Database,
			Collection:     a.cfg.Mongo.Collection,
			ConnectTimeout: time.Duration(a.cfg.Mongo.ConnectTimeoutSeconds) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("mongo product store init failed: %w", err)
		}
		a.products = store
		a.jobStore = memoryStorage.NewJobStore()
	case "postgres":
		a.logger.Info("using postgres product store", zap.String("table", a.cfg.Postgres.Table))
		store, err := pgstore.NewProductStore(ctx, pgstore.Config{
			DSN:      a.cfg.Postgres.DSN,
			Table:    a.cfg.Postgres.Table,
			MaxConns: a.cfg.Postgres.MaxConns,
		})
		if err != nil {
			return fmt.Errorf("postgres product store init failed: %w", err)
		}
		a.products = store
		jobStore, err := store.JobStore()
		if err != nil {
			return fmt.Errorf("postgres job store init failed: %w", err)
		}
		if err := jobStore.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("postgres job schema failed: %w", err)
		}
		a.jobStore = jobStore
	default:
		a.logger.Warn("using in-memory product store; products are lost on restart")
		a.products = memoryStorage.NewProductStore()
		a.jobStore = memoryStorage.NewJobStore()
	}
	return nil
}

func (a *App) setupCache(ctx context.Context) error {
	if a.cfg.Cache.Backend == "redis" {
		c, err := rediscache.Open(ctx, a.cfg.Redis.URL, a.cfg.Redis.Prefix)
		if err != nil {
			return fmt.Errorf("redis cache init failed: %w", err)
		}
		a.logger.Info("using redis cache")
		a.redis = c
		a.cache = c
		return nil
	}
	a.logger.Info("using in-memory cache")
	a.cache = memorycache.New()
	return nil
}

func (a *App) setupPublisher(ctx context.Context) error {
	if a.cfg.PubSub.ProjectID == "" {
		a.logger.Warn("No Pub/Sub project configured, using in-memory publisher")
		a.publisher = memorypublisher.New()
		return nil
	}
	p, err := gcppublisher.Open(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return fmt.Errorf("pubsub publisher init failed: %w", err)
	}
	a.pubsub = p
	a.publisher = p
	a.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", a.cfg.PubSub.ProjectID),
		zap.String("analytics_topic", a.cfg.PubSub.AnalyticsTopic),
		zap.String("job_topic", a.cfg.PubSub.JobTopic),
	)
	return nil
}

// setupAssets returns nil when archiving is disabled.
func (a *App) setupAssets(ctx context.Context) (*assets.Archive, error) {
	var blobStore adforge.BlobStore
	switch a.cfg.Assets.Backend {
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		a.gcsClient = client
		blobStore, err = gcs.New(client, gcs.Config{Bucket: a.cfg.GCS.Bucket, Prefix: a.cfg.GCS.Prefix})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		a.logger.Info("archiving creative assets to GCS", zap.String("bucket", a.cfg.GCS.Bucket))
	case "local":
		store, err := localstorage.New(localstorage.Config{BaseDir: a.cfg.Assets.LocalDir})
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		blobStore = store
		a.logger.Info("archiving creative assets locally", zap.String("path", a.cfg.Assets.LocalDir))
	case "memory":
		blobStore = memoryStorage.NewBlobStore()
		a.logger.Info("archiving creative assets in memory")
	default:
		a.logger.Info("creative asset archive disabled")
		return nil, nil
	}
	archive, err := assets.NewArchive(blobStore, a.hasher, a.vendorClient(30*time.Second), a.logger)
	if err != nil {
		return nil, fmt.Errorf("asset archive init failed: %w", err)
	}
	return archive, nil
}

func (a *App) setupPolicies() {
	a.limiter = ratelimit.New(ratelimit.Config{
		DefaultRPS:   a.cfg.RateLimit.RPS,
		DefaultBurst: a.cfg.RateLimit.Burst,
	})
	a.policy = retry.New(retry.Config{
		MaxAttempts: a.cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(a.cfg.Retry.BaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(a.cfg.Retry.MaxDelayMs) * time.Millisecond,
	})
	a.logger.Info("vendor policies configured",
		zap.Float64("rps", a.cfg.RateLimit.RPS),
		zap.Int("burst", a.cfg.RateLimit.Burst),
		zap.Int("max_attempts", a.policy.MaxAttempts()),
	)
}

// vendorClient builds an HTTP client that throttles, retries and records
// metrics. A zero timeout leaves deadlines to the request context.
func (a *App) vendorClient(timeout time.Duration) *http.Client {
	return vendorhttp.NewClient(vendorhttp.Options{
		Timeout: timeout,
		Limiter: a.limiter,
		Policy:  a.policy,
		Logger:  a.logger,
	})
}

func (a *App) setupScraper() (*scraper.Chain, error) {
	var tiers []scraper.Tier
	if apify := scraper.NewApifyTier(
		a.vendorClient(time.Duration(a.cfg.Apify.TimeoutSeconds)*time.Second),
		scraper.ApifyConfig{Token: a.cfg.Apify.Token, BaseURL: a.cfg.Apify.BaseURL, Actor: a.cfg.Apify.Actor},
	); apify != nil {
		a.logger.Info("apify scraping tier enabled", zap.String("actor", a.cfg.Apify.Actor))
		tiers = append(tiers, apify)
	}

	probe := collyfetcher.New(collyfetcher.Config{
		UserAgent:    a.cfg.Scraper.UserAgent,
		Timeout:      time.Duration(a.cfg.Scraper.TimeoutSeconds) * time.Second,
		MaxRedirects: a.cfg.Scraper.MaxRedirects,
		Transport:    vendorhttp.NewTransport(vendorhttp.Options{Limiter: a.limiter, Policy: a.policy, Logger: a.logger}),
	})
	var headless adforge.Fetcher
	var detect adforge.HeadlessDetector
	if a.cfg.Headless.Enabled {
		f, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
			MaxParallel:       a.cfg.Headless.MaxParallel,
			UserAgent:         a.cfg.Scraper.UserAgent,
			NavigationTimeout: time.Duration(a.cfg.Headless.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("headless fetcher init failed: %w", err)
		}
		a.headless = f
		headless = f
		detect = detector.NewHeuristic(a.cfg.Headless.PromotionThresh)
		a.logger.Info("using headless fetcher", zap.Int("max_parallel", a.cfg.Headless.MaxParallel))
	}
	tiers = append(tiers, scraper.NewHTMLTier(probe, headless, detect, a.logger))

	return scraper.NewChain(scraper.ChainConfig{
		Tiers:    tiers,
		Cache:    a.cache,
		Hasher:   sha256.WithPrefix("scrape"),
		CacheTTL: a.cfg.CacheTTL(),
		Logger:   a.logger,
	}), nil
}

// newsSearcher builds the SERP client. Without a key every search fails and
// the news service serves demo articles.
func (a *App) newsSearcher() news.Searcher {
	if a.cfg.BrightData.APIKey == "" {
		a.logger.Warn("Bright Data key not configured, news search serves demo articles")
	}
	return news.NewBrightData(a.vendorClient(30*time.Second), news.BrightDataConfig{
		APIKey:   a.cfg.BrightData.APIKey,
		Zone:     a.cfg.BrightData.Zone,
		Endpoint: a.cfg.BrightData.Endpoint,
	})
}

func (a *App) setupDispatcher(runner worker.Runner, cancels *worker.Cancels) *dispatcher.Dispatcher {
	workerCfg := worker.Config{
		Topic:   a.cfg.PubSub.JobTopic,
		Timeout: a.cfg.JobTimeout(),
	}
	a.logger.Info("worker config",
		zap.String("topic", workerCfg.Topic),
		zap.Duration("job_timeout", workerCfg.Timeout),
		zap.Int("queue_depth", a.cfg.Jobs.QueueDepth),
	)
	count := a.cfg.Jobs.Workers
	if count < 1 {
		count = 1
	}
	workers := make([]*worker.Worker, 0, count)
	for i := 0; i < count; i++ {
		workers = append(workers, worker.New(
			a.queue,
			a.jobStore,
			a.publisher,
			runner,
			a.clock,
			cancels,
			workerCfg,
			a.logger.With(zap.Int("index", i)),
		))
	}
	return dispatcher.New(a.queue, workers, a.logger)
}

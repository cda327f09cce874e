package commands

import (
	"os"
	"time"

	"autovalor/config"
	"autovalor/metrics"
	"autovalor/rate"
	"autovalor/scraper/kavak"
	"autovalor/scraper/kavakweb"
	"autovalor/scraper/mercadolibre"
	"autovalor/services"
	"autovalor/utils"
)

// app is the wired object graph shared by every command.
type app struct {
	cfg      *config.Config
	logger   *utils.Logger
	observer *services.LogObserver
	rates    *rate.Resolver
	ml       *mercadolibre.Scraper
	searcher *services.Searcher
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := utils.NewLoggerWith(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	metrics.Init()

	retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: time.Second, Logger: logger}

	ml := mercadolibre.New(mercadolibre.Config{
		BaseURL: cfg.MercadoLibreURL,
		Timeout: cfg.RequestTimeout,
		DelayMs: cfg.RateLimitMs,
		Retry:   retry,
	}, logger)
	kv := kavak.New(kavak.Config{APIURL: cfg.KavakAPIURL, Timeout: cfg.RequestTimeout}, logger)
	web := kavakweb.New(cfg.KavakWebURL, &kavakweb.ChromeRenderer{
		ChromeBin: cfg.ChromeBin,
		Timeout:   4 * cfg.RequestTimeout,
		Retry:     retry,
		Logger:    logger,
	}, logger)

	observer := services.NewLogObserver(logger, 512)
	rates := rate.NewResolver(cfg.RateAPIURL, cfg.RequestTimeout, logger)
	searcher := services.NewSearcher(
		[]services.Adapter{ml, kv, web},
		rates,
		services.NewEngine(observer),
		logger,
		cfg.MaxConcurrency,
		0,
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		observer: observer,
		rates:    rates,
		ml:       ml,
		searcher: searcher,
	}, nil
}

// Close drains pending observability events.
func (a *app) Close() {
	a.observer.Close()
	if n := a.observer.Dropped(); n > 0 {
		a.logger.Warn("[app] %d observability events dropped", n)
	}
}

// Package main wires together the journal scraper binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/config"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/crawl"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/download"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/extract"
	collyfetcher "github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/fetcher/colly"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/filter"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/hash/sha1"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/index"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/logging"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/metrics"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/ops"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/resolve"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/session"
	localstorage "github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/storage/local"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "scraper: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	zap.ReplaceGlobals(logger)

	logger = logger.With(zap.String("run_id", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	blobs, err := localstorage.New(localstorage.Config{BaseDir: cfg.Download.StoreRoot})
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}

	resume, err := index.Resume(cfg.Index.Path, blobs.BaseDir(), logger.Named("resume"))
	if err != nil {
		return fmt.Errorf("resume from index: %w", err)
	}
	state := session.New(cfg.Download.MaxPDFs)
	state.Seed(resume.Keys, resume.Downloaded)
	logger.Info("session state ready",
		zap.Int("seen_keys", len(resume.Keys)),
		zap.Int("downloaded", resume.Downloaded),
		zap.Int("cap", cfg.Download.MaxPDFs),
	)

	sink, err := index.Open(cfg.Index.Path, logger.Named("index"))
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			logger.Error("index close failed", zap.Error(cerr))
		}
	}()

	contentFilter, err := filter.New(filter.Config{
		Keywords:          cfg.Filter.Keywords,
		Language:          cfg.Filter.Language,
		DetectorLanguages: cfg.Filter.DetectorLanguages,
	}, state, logger.Named("filter"))
	if err != nil {
		return fmt.Errorf("init filter: %w", err)
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.HTTP.UserAgent,
		RespectRobots: cfg.HTTP.RespectRobots,
		Timeout:       cfg.Timeout(),
		Parallelism:   cfg.HTTP.PerDomainParallelism,
		Delay:         time.Duration(cfg.HTTP.DelayMs) * time.Millisecond,
		RandomDelay:   time.Duration(cfg.HTTP.RandomDelayMs) * time.Millisecond,
	})

	resolver := resolve.New(fetcher, logger.Named("resolve"))
	downloads := download.New(fetcher, sha1.New(), blobs, state, download.Config{
		BlobPrefix:      cfg.Download.BlobPrefix,
		FilenameByTitle: cfg.Download.FilenameByTitle,
		HashPrefixLen:   cfg.Download.HashPrefixLen,
		SlugMaxLen:      cfg.Download.SlugMaxLen,
	}, logger.Named("download"))

	orchestrator := crawl.New(crawl.Config{
		APIBaseURL: cfg.Crawl.APIBaseURL,
		Queries:    cfg.Crawl.Queries,
		PageSize:   cfg.Crawl.PageSize,
	}, fetcher, extract.Extractor{}, contentFilter, resolver, downloads, sink, state, logger.Named("crawl"))

	opsCtx, opsCancel := context.WithCancel(ctx)
	defer opsCancel()
	opsDone := make(chan struct{})
	if cfg.Ops.Enabled {
		opsServer := ops.NewServer(cfg.Ops.Port, logger.Named("ops"))
		go func() {
			defer close(opsDone)
			if serr := opsServer.Run(opsCtx); serr != nil {
				logger.Error("ops server failed", zap.Error(serr))
			}
		}()
	} else {
		close(opsDone)
	}

	logger.Info("scraper started",
		zap.Strings("queries", cfg.Crawl.Queries),
		zap.String("api_base_url", cfg.Crawl.APIBaseURL),
	)
	if err := orchestrator.Run(ctx); err != nil {
		return fmt.Errorf("run crawl: %w", err)
	}

	logger.Info("scraper finished",
		zap.Int("downloaded", state.Downloaded()),
		zap.Bool("cap_reached", state.Stopped()),
	)

	opsCancel()
	<-opsDone
	return nil
}

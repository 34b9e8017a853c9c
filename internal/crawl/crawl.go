// Package crawl drives pagination over the DOAJ search API and threads each
// record through extraction, filtering, resolution, download, and indexing.
package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/download"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/extract"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/filter"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/index"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/metrics"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/resolve"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/scraper"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/session"
)

var searchHeaders = http.Header{
	"Accept":          {"application/json,text/html;q=0.9,*/*;q=0.8"},
	"Accept-Language": {"id,en;q=0.8"},
}

// Config controls orchestration.
type Config struct {
	// APIBaseURL is the search API root, e.g. "https://doaj.org/api/v2".
	APIBaseURL string
	// Queries are the seed search terms; each drives its own page stream.
	Queries []string
	// PageSize is the records-per-page request parameter.
	PageSize int
}

// Orchestrator runs one paginated request stream per seed query, all
// sharing one session state and one download coordinator.
type Orchestrator struct {
	cfg       Config
	fetcher   scraper.Fetcher
	extractor extract.Extractor
	filter    *filter.Filter
	resolver  *resolve.Resolver
	downloads *download.Coordinator
	sink      *index.Sink
	state     *session.State
	logger    *zap.Logger
}

// New constructs an Orchestrator.
func New(
	cfg Config,
	fetcher scraper.Fetcher,
	extractor extract.Extractor,
	f *filter.Filter,
	resolver *resolve.Resolver,
	downloads *download.Coordinator,
	sink *index.Sink,
	state *session.State,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	return &Orchestrator{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		filter:    f,
		resolver:  resolver,
		downloads: downloads,
		sink:      sink,
		state:     state,
		logger:    logger,
	}
}

// Run drives all seed queries concurrently until each terminates (empty
// page, non-2xx, decode failure), the download cap is reached, or the
// context is canceled. Query failures terminate only their own stream.
func (o *Orchestrator) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, query := range o.cfg.Queries {
		g.Go(func() error {
			o.runQuery(ctx, query)
			return nil
		})
	}
	return g.Wait()
}

func (o *Orchestrator) runQuery(ctx context.Context, query string) {
	logger := o.logger.With(zap.String("query", query))
	for page := 1; ; page++ {
		if o.stopped(ctx) {
			return
		}

		results, ok := o.fetchPage(ctx, logger, query, page)
		if !ok || len(results) == 0 {
			return
		}

		metrics.ObserveRecords(len(results))
		for _, record := range results {
			if o.stopped(ctx) {
				return
			}
			o.processRecord(ctx, logger, record)
		}
	}
}

// stopped reports whether new work must cease: context cancellation or the
// cooperative cap signal. In-flight work is left to drain.
func (o *Orchestrator) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-o.state.Done():
		return true
	default:
		return false
	}
}

func (o *Orchestrator) fetchPage(ctx context.Context, logger *zap.Logger, query string, page int) ([]map[string]any, bool) {
	pageURL := o.searchURL(query, page)
	resp, err := o.fetcher.Fetch(ctx, scraper.FetchRequest{
		URL:     pageURL,
		Headers: searchHeaders,
	})
	if err != nil {
		logger.Warn("search page fetch failed",
			zap.Int("page", page), zap.Error(err))
		return nil, false
	}

	metrics.ObserveSearchPage(resp.StatusCode)
	if !resp.OK() {
		logger.Warn("non-2xx from search API",
			zap.Int("page", page),
			zap.Int("status", resp.StatusCode),
			zap.String("url", pageURL),
			zap.String("body_prefix", bodyPrefix(resp.Body)),
		)
		return nil, false
	}

	var payload struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		logger.Warn("search page decode failed",
			zap.Int("page", page), zap.Error(err))
		return nil, false
	}
	return payload.Results, true
}

func (o *Orchestrator) processRecord(ctx context.Context, logger *zap.Logger, record map[string]any) {
	cand, ok := o.extractor.Candidate(record)
	if !ok {
		o.drop(logger, scraper.Candidate{}, scraper.DropMissingTitleOrAbstract)
		return
	}

	// Cheap pre-filter before any landing-page fetch.
	if !o.filter.Topical(cand) {
		o.drop(logger, cand, scraper.DropNonTopical)
		return
	}

	cand = o.resolver.Resolve(ctx, cand)

	if verdict := o.filter.Check(cand); verdict.Dropped {
		o.drop(logger, cand, verdict.Reason)
		return
	}

	rec, verdict := o.downloads.Download(ctx, cand)
	if verdict.Dropped {
		o.drop(logger, cand, verdict.Reason)
		return
	}

	if err := o.sink.Append(rec); err != nil {
		logger.Error("index append failed",
			zap.String("title", rec.Title), zap.Error(err))
	}
}

func (o *Orchestrator) drop(logger *zap.Logger, cand scraper.Candidate, reason scraper.DropReason) {
	metrics.ObserveDrop(string(reason))
	logger.Debug("candidate dropped",
		zap.String("reason", string(reason)),
		zap.String("title", cand.Title),
	)
}

func (o *Orchestrator) searchURL(query string, page int) string {
	base := strings.TrimRight(o.cfg.APIBaseURL, "/")
	return fmt.Sprintf("%s/search/articles/%s?page=%d&pageSize=%d",
		base, url.QueryEscape(query), page, o.cfg.PageSize)
}

func bodyPrefix(body []byte) string {
	const max = 250
	s := string(body)
	if len(s) > max {
		s = s[:max]
	}
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

// Package download fetches validated PDFs under the global success cap and
// stores them with deterministic filenames.
package download

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/metrics"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/scraper"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/session"
)

var pdfHeaders = http.Header{
	"Accept": {"application/pdf,*/*;q=0.9"},
}

const (
	minHashPrefix = 6
	maxHashPrefix = 40
)

// Config controls Coordinator behavior.
type Config struct {
	// BlobPrefix is the fixed relative directory under the storage root.
	BlobPrefix string
	// FilenameByTitle switches from hash-only filenames to slug-hash ones.
	FilenameByTitle bool
	// HashPrefixLen is the digest prefix appended to slug filenames,
	// clamped to [6, 40].
	HashPrefixLen int
	// SlugMaxLen caps the title slug length.
	SlugMaxLen int
}

// Coordinator admits downloads against the session cap, fetches the PDF,
// validates the payload type, and writes it to the blob store.
type Coordinator struct {
	fetcher scraper.Fetcher
	hasher  scraper.Hasher
	blobs   scraper.BlobStore
	state   *session.State
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Coordinator.
func New(
	fetcher scraper.Fetcher,
	hasher scraper.Hasher,
	blobs scraper.BlobStore,
	state *session.State,
	cfg Config,
	logger *zap.Logger,
) *Coordinator {
	if cfg.BlobPrefix == "" {
		cfg.BlobPrefix = "pdfs"
	}
	if cfg.SlugMaxLen <= 0 {
		cfg.SlugMaxLen = 120
	}
	return &Coordinator{
		fetcher: fetcher,
		hasher:  hasher,
		blobs:   blobs,
		state:   state,
		cfg:     cfg,
		logger:  logger,
	}
}

// Download fetches one validated candidate's PDF. The cap check and the
// in-flight reservation are one atomic step, so concurrent calls can never
// jointly pass the cap. Failures release the reservation and come back as
// drop verdicts; the transport collaborator owns retries.
func (c *Coordinator) Download(ctx context.Context, cand scraper.Candidate) (scraper.DownloadRecord, scraper.Verdict) {
	if !c.state.Reserve(cand.PDFURL) {
		return scraper.DownloadRecord{}, scraper.Dropped(scraper.DropCapReached)
	}

	metrics.IncDownloadsInFlight()
	defer metrics.DecDownloadsInFlight()

	resp, err := c.fetcher.Fetch(ctx, scraper.FetchRequest{
		URL:     cand.PDFURL,
		Headers: pdfHeaders,
	})
	if err != nil {
		c.state.Release(cand.PDFURL)
		c.logger.Debug("pdf fetch failed", zap.String("url", cand.PDFURL), zap.Error(err))
		return scraper.DownloadRecord{}, scraper.Dropped(scraper.DropDownloadFailed)
	}
	if !resp.OK() {
		c.state.Release(cand.PDFURL)
		c.logger.Debug("pdf fetch non-2xx",
			zap.String("url", cand.PDFURL), zap.Int("status", resp.StatusCode))
		return scraper.DownloadRecord{}, scraper.Dropped(scraper.DropDownloadFailed)
	}
	if !looksLikePDF(resp) {
		c.state.Release(cand.PDFURL)
		c.logger.Debug("pdf fetch wrong content type",
			zap.String("url", cand.PDFURL), zap.String("content_type", resp.ContentType()))
		return scraper.DownloadRecord{}, scraper.Dropped(scraper.DropWrongContentType)
	}

	path, err := c.FilePath(cand)
	if err != nil {
		c.state.Release(cand.PDFURL)
		return scraper.DownloadRecord{}, scraper.Dropped(scraper.DropDownloadFailed)
	}

	uri, err := c.blobs.PutObject(ctx, path, "application/pdf", resp.Body)
	if err != nil {
		c.state.Release(cand.PDFURL)
		c.logger.Error("pdf store failed", zap.String("url", cand.PDFURL), zap.Error(err))
		return scraper.DownloadRecord{}, scraper.Dropped(scraper.DropDownloadFailed)
	}

	if !c.state.Commit(cand.PDFURL) {
		// Lost a race past the cap; the result is discarded, never indexed.
		return scraper.DownloadRecord{}, scraper.Dropped(scraper.DropCapReached)
	}

	metrics.ObserveDownload(len(resp.Body))
	c.logger.Info("pdf downloaded",
		zap.String("url", cand.PDFURL),
		zap.String("uri", uri),
		zap.Int("bytes", len(resp.Body)),
		zap.Int("downloaded", c.state.Downloaded()),
	)

	return scraper.DownloadRecord{Candidate: cand, LocalPath: path}, scraper.Accepted()
}

// FilePath derives the storage path for a candidate's PDF. The default is a
// content address: the hex digest of the document URL. With FilenameByTitle
// set, a title slug plus a digest prefix is used instead; an empty slug
// falls back to the hash-only scheme. Identical URLs always map to
// identical hash-based paths across runs.
func (c *Coordinator) FilePath(cand scraper.Candidate) (string, error) {
	digest, err := c.hasher.Hash([]byte(cand.PDFURL))
	if err != nil {
		return "", fmt.Errorf("hash pdf url: %w", err)
	}

	if c.cfg.FilenameByTitle {
		if slug := Slugify(cand.Title, c.cfg.SlugMaxLen); slug != "" {
			n := c.cfg.HashPrefixLen
			if n < minHashPrefix {
				n = minHashPrefix
			}
			if n > maxHashPrefix {
				n = maxHashPrefix
			}
			if n > len(digest) {
				n = len(digest)
			}
			return fmt.Sprintf("%s/%s-%s.pdf", c.cfg.BlobPrefix, slug, digest[:n]), nil
		}
	}

	return fmt.Sprintf("%s/%s.pdf", c.cfg.BlobPrefix, digest), nil
}

// Slugify turns a title into a filesystem-safe filename stem: lowercased,
// non-alphanumeric runs collapsed to single hyphens, length-capped, and
// stripped of trailing separators and dots (Windows rejects those).
func Slugify(value string, maxLen int) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	text := strings.Trim(b.String(), "-")
	if text == "" {
		return ""
	}
	if maxLen < 1 {
		maxLen = 1
	}
	if len(text) > maxLen {
		text = text[:maxLen]
	}
	return strings.TrimRight(text, "-. ")
}

func looksLikePDF(resp scraper.FetchResponse) bool {
	if strings.Contains(strings.ToLower(resp.ContentType()), "pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(resp.URL), ".pdf")
}

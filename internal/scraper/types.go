// Package scraper defines the core types and interfaces for the journal
// harvesting pipeline: extracted candidates, download records, and the
// explicit accept/drop outcome passed between stages.
package scraper

import (
	"net/http"
	"strings"
	"time"
)

// Candidate is one extracted, not-yet-validated article record.
type Candidate struct {
	JournalTitle string
	Title        string
	Authors      []string
	Affiliations []string
	Abstract     string
	PDFURL       string
	LandingURL   string
	SourceURL    string
}

// DedupKey is the composite uniqueness key over the document/source URL and
// the lowercased title. The PDF URL is preferred when present.
func (c Candidate) DedupKey() string {
	url := c.PDFURL
	if url == "" {
		url = c.SourceURL
	}
	return url + "|" + strings.ToLower(c.Title)
}

// DownloadRecord is a candidate whose PDF has been stored locally.
type DownloadRecord struct {
	Candidate
	// LocalPath is relative to the storage root, e.g. "pdfs/ab12cd.pdf".
	LocalPath string
}

// DropReason names why a candidate was removed from the pipeline.
type DropReason string

// Drop reasons recorded in logs and metrics.
const (
	DropMissingTitleOrAbstract DropReason = "missing_title_or_abstract"
	DropMissingDocumentURL     DropReason = "missing_document_url"
	DropNonTopical             DropReason = "non_topical"
	DropLanguageDetectFailed   DropReason = "language_detect_failed"
	DropWrongLanguage          DropReason = "wrong_language"
	DropDuplicate              DropReason = "duplicate"
	DropCapReached             DropReason = "cap_reached"
	DropWrongContentType       DropReason = "wrong_content_type"
	DropDownloadFailed         DropReason = "download_failed"
)

// Verdict is the explicit outcome of a pipeline stage: the candidate either
// advances or is dropped with a named reason. Drops are values, not errors.
type Verdict struct {
	Dropped bool
	Reason  DropReason
}

// Accepted returns a passing verdict.
func Accepted() Verdict { return Verdict{} }

// Dropped returns a failing verdict carrying the reason.
func Dropped(reason DropReason) Verdict {
	return Verdict{Dropped: true, Reason: reason}
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
// Non-2xx statuses are responses, not errors; callers decide what a given
// status means for their stage.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// ContentType returns the response Content-Type header, or "".
func (r FetchResponse) ContentType() string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get("Content-Type")
}

// OK reports whether the status code is in the 2xx range.
func (r FetchResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

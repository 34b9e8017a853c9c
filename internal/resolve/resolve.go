// Package resolve discovers a downloadable PDF URL for candidates whose
// metadata record only carries a landing page.
package resolve

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/scraper"
)

var landingHeaders = http.Header{
	"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
	"Accept-Language": {"id,en;q=0.8"},
}

// Resolver fetches landing pages and applies ordered fallback heuristics.
type Resolver struct {
	fetcher scraper.Fetcher
	logger  *zap.Logger
}

// New constructs a Resolver.
func New(fetcher scraper.Fetcher, logger *zap.Logger) *Resolver {
	return &Resolver{fetcher: fetcher, logger: logger}
}

// Resolve fills in the candidate's PDF URL by scanning its landing page.
// Candidates that already carry a PDF URL, or have no landing page, pass
// through untouched. A failed fetch, a non-2xx response, or a page with no
// discoverable PDF link all yield the candidate with an empty PDF URL; the
// content filter turns that into a drop.
func (r *Resolver) Resolve(ctx context.Context, c scraper.Candidate) scraper.Candidate {
	if c.PDFURL != "" || c.LandingURL == "" {
		return c
	}

	resp, err := r.fetcher.Fetch(ctx, scraper.FetchRequest{
		URL:     c.LandingURL,
		Headers: landingHeaders,
	})
	if err != nil {
		r.logger.Debug("landing fetch failed",
			zap.String("url", c.LandingURL), zap.Error(err))
		return c
	}
	if !resp.OK() {
		r.logger.Debug("landing fetch non-2xx",
			zap.String("url", c.LandingURL), zap.Int("status", resp.StatusCode))
		return c
	}

	// The landing URL may redirect straight to the document.
	if strings.Contains(strings.ToLower(resp.ContentType()), "pdf") ||
		strings.HasSuffix(strings.ToLower(resp.URL), ".pdf") {
		c.PDFURL = resp.URL
		return c
	}

	c.PDFURL = findPDFURL(resp.URL, resp.Body)
	return c
}

// findPDFURL scans the page body in strict fallback order, first match
// wins: the citation_pdf_url meta tag, then a hyperlink containing ".pdf",
// then a hyperlink whose target or label mentions pdf or download.
func findPDFURL(baseURL string, body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	if meta, ok := doc.Find(`meta[name="citation_pdf_url"]`).Attr("content"); ok {
		if meta = strings.TrimSpace(meta); meta != "" {
			return absolutize(base, meta)
		}
	}

	var hrefs []string
	var labels []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		hrefs = append(hrefs, href)
		labels = append(labels, strings.ToLower(sel.Text()))
	})

	for _, h := range hrefs {
		if strings.Contains(strings.ToLower(h), ".pdf") {
			return absolutize(base, h)
		}
	}

	for i, h := range hrefs {
		hl := strings.ToLower(h)
		if strings.Contains(hl, "pdf") || strings.Contains(hl, "download") ||
			strings.Contains(labels[i], "pdf") || strings.Contains(labels[i], "download") {
			return absolutize(base, h)
		}
	}

	return ""
}

func absolutize(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := base.Parse(href)
	if err != nil {
		return href
	}
	return ref.String()
}

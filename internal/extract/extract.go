// Package extract turns one raw DOAJ search record into a normalized
// candidate. DOAJ metadata fields are loosely typed: a field may be a
// string, a list of strings, or absent, so every read goes through
// FirstString.
package extract

import (
	"strings"

	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/scraper"
)

// DefaultArticleBaseURL is the public DOAJ article page prefix used to build
// source URLs from record IDs.
const DefaultArticleBaseURL = "https://doaj.org/article/"

// Extractor builds candidates from raw records.
type Extractor struct {
	// ArticleBaseURL prefixes record IDs to form public source URLs.
	// Defaults to DefaultArticleBaseURL when empty.
	ArticleBaseURL string
}

// FirstString normalizes a loosely typed metadata value to one semantic
// string: a plain string is whitespace-collapsed, a list yields its first
// non-empty string member, anything else yields "".
func FirstString(value any) string {
	switch v := value.(type) {
	case string:
		return normalizeSpace(v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return normalizeSpace(s)
			}
		}
	}
	return ""
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Candidate extracts one candidate from a raw record. The only hard
// rejection here is a missing title or abstract; everything else degrades to
// empty fields for later stages to judge.
func (e Extractor) Candidate(record map[string]any) (scraper.Candidate, bool) {
	bib, _ := record["bibjson"].(map[string]any)
	if bib == nil {
		return scraper.Candidate{}, false
	}

	title := FirstString(bib["title"])
	abstract := FirstString(bib["abstract"])
	if title == "" || abstract == "" {
		return scraper.Candidate{}, false
	}

	journal, _ := bib["journal"].(map[string]any)
	journalTitle := ""
	if journal != nil {
		journalTitle = FirstString(journal["title"])
	}

	authors, affiliations := e.authors(bib["author"])
	links := asLinkList(bib["link"])

	return scraper.Candidate{
		JournalTitle: journalTitle,
		Title:        title,
		Authors:      authors,
		Affiliations: affiliations,
		Abstract:     abstract,
		PDFURL:       pdfURL(links),
		LandingURL:   landingURL(links),
		SourceURL:    e.sourceURL(record, links),
	}, true
}

func (e Extractor) authors(value any) (names []string, affiliations []string) {
	list, _ := value.([]any)
	for _, item := range list {
		author, _ := item.(map[string]any)
		if author == nil {
			continue
		}
		if name := FirstString(author["name"]); name != "" {
			names = append(names, name)
		}
		if aff := FirstString(author["affiliation"]); aff != "" {
			affiliations = append(affiliations, aff)
		}
	}
	return dedupKeepOrder(names), dedupKeepOrder(affiliations)
}

type link struct {
	URL  string
	Type string
}

func asLinkList(value any) []link {
	list, _ := value.([]any)
	links := make([]link, 0, len(list))
	for _, item := range list {
		m, _ := item.(map[string]any)
		if m == nil {
			continue
		}
		url, _ := m["url"].(string)
		typ, _ := m["type"].(string)
		links = append(links, link{
			URL:  strings.TrimSpace(url),
			Type: strings.ToLower(typ),
		})
	}
	return links
}

// pdfURL picks the document URL from the record links: a fulltext-typed
// link ending in .pdf wins, then any link ending in .pdf, then nothing.
func pdfURL(links []link) string {
	for _, l := range links {
		if l.URL == "" {
			continue
		}
		if strings.Contains(l.Type, "fulltext") && strings.HasSuffix(strings.ToLower(l.URL), ".pdf") {
			return l.URL
		}
	}
	for _, l := range links {
		if l.URL != "" && strings.HasSuffix(strings.ToLower(l.URL), ".pdf") {
			return l.URL
		}
	}
	return ""
}

// landingURL picks the page to scan when no direct PDF link exists: the
// first fulltext-typed link, else the first link at all.
func landingURL(links []link) string {
	for _, l := range links {
		if l.URL != "" && strings.Contains(l.Type, "fulltext") {
			return l.URL
		}
	}
	for _, l := range links {
		if l.URL != "" {
			return l.URL
		}
	}
	return ""
}

func (e Extractor) sourceURL(record map[string]any, links []link) string {
	base := e.ArticleBaseURL
	if base == "" {
		base = DefaultArticleBaseURL
	}
	if id, _ := record["id"].(string); strings.TrimSpace(id) != "" {
		return base + strings.TrimSpace(id)
	}
	for _, l := range links {
		if l.URL != "" {
			return l.URL
		}
	}
	return ""
}

func dedupKeepOrder(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

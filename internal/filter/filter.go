// Package filter validates candidates before download: topical keyword
// checks, deterministic language detection, and cross-session dedup.
package filter

import (
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"
	"go.uber.org/zap"

	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/scraper"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/session"
)

// Config controls filtering behavior.
type Config struct {
	// Keywords is the topical keyword set matched as lowercase substrings
	// against title+abstract.
	Keywords []string
	// Language is the ISO 639-1 code the abstract must classify as.
	Language string
	// DetectorLanguages is the candidate set the detector chooses between.
	// It must contain Language and at least one other entry; a detector
	// restricted to a known set keeps classification deterministic and fast.
	DetectorLanguages []string
}

// Filter applies the two-phase content checks. It is safe for concurrent
// use: the keyword set and detector are immutable after construction, and
// dedup admission goes through the session's atomic insert.
type Filter struct {
	keywords []string
	target   lingua.Language
	detector lingua.LanguageDetector
	state    *session.State
	logger   *zap.Logger
}

// New builds a Filter. Unknown ISO codes are a startup error.
func New(cfg Config, state *session.State, logger *zap.Logger) (*Filter, error) {
	if len(cfg.Keywords) == 0 {
		return nil, fmt.Errorf("at least one topical keyword is required")
	}
	target, ok := languageForCode(cfg.Language)
	if !ok {
		return nil, fmt.Errorf("unknown target language code %q", cfg.Language)
	}

	candidates := make([]lingua.Language, 0, len(cfg.DetectorLanguages))
	haveTarget := false
	for _, code := range cfg.DetectorLanguages {
		lang, ok := languageForCode(code)
		if !ok {
			return nil, fmt.Errorf("unknown detector language code %q", code)
		}
		if lang == target {
			haveTarget = true
		}
		candidates = append(candidates, lang)
	}
	if !haveTarget {
		return nil, fmt.Errorf("detector languages must include target %q", cfg.Language)
	}
	if len(candidates) < 2 {
		return nil, fmt.Errorf("detector needs at least two candidate languages")
	}

	keywords := make([]string, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}

	return &Filter{
		keywords: keywords,
		target:   target,
		detector: lingua.NewLanguageDetectorBuilder().FromLanguages(candidates...).Build(),
		state:    state,
		logger:   logger,
	}, nil
}

// Topical is the cheap phase-1 pre-filter applied before any landing-page
// fetch: the lowercased title+abstract must contain at least one keyword.
func (f *Filter) Topical(c scraper.Candidate) bool {
	haystack := strings.ToLower(c.Title + " " + c.Abstract)
	for _, k := range f.keywords {
		if strings.Contains(haystack, k) {
			return true
		}
	}
	return false
}

// Check runs the full phase-2 validation after URL resolution. Sub-checks
// short-circuit in order; passing the final dedup check inserts the key as
// a side effect, so a candidate that passes is already claimed.
func (f *Filter) Check(c scraper.Candidate) scraper.Verdict {
	if c.Title == "" || c.Abstract == "" {
		return scraper.Dropped(scraper.DropMissingTitleOrAbstract)
	}
	if c.PDFURL == "" {
		return scraper.Dropped(scraper.DropMissingDocumentURL)
	}
	if !f.Topical(c) {
		return scraper.Dropped(scraper.DropNonTopical)
	}

	lang, detected := f.detector.DetectLanguageOf(c.Abstract)
	if !detected {
		return scraper.Dropped(scraper.DropLanguageDetectFailed)
	}
	if lang != f.target {
		f.logger.Debug("language mismatch",
			zap.String("detected", lang.IsoCode639_1().String()),
			zap.String("title", c.Title),
		)
		return scraper.Dropped(scraper.DropWrongLanguage)
	}

	if !f.state.Admit(c.DedupKey()) {
		return scraper.Dropped(scraper.DropDuplicate)
	}
	return scraper.Accepted()
}

// languageForCode maps an ISO 639-1 code (case-insensitive) to a lingua
// language.
func languageForCode(code string) (lingua.Language, bool) {
	want := strings.ToUpper(strings.TrimSpace(code))
	if want == "" {
		return lingua.Unknown, false
	}
	for _, lang := range lingua.AllLanguages() {
		if lang.IsoCode639_1().String() == want {
			return lang, true
		}
	}
	return lingua.Unknown, false
}

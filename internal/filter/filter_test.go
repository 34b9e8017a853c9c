package filter

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/scraper"
	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/session"
)

var testKeywords = []string{
	"kesehatan", "medis", "kedokteran", "keperawatan",
	"farmasi", "kesehatan masyarakat", "gizi", "klinis", "rumah sakit",
}

func newTestFilter(t *testing.T) (*Filter, *session.State) {
	t.Helper()
	state := session.New(100)
	f, err := New(Config{
		Keywords:          testKeywords,
		Language:          "id",
		DetectorLanguages: []string{"id", "en"},
	}, state, zap.NewNop())
	require.NoError(t, err)
	return f, state
}

// indonesianCandidate is long enough for the detector to classify with
// confidence.
func indonesianCandidate() scraper.Candidate {
	return scraper.Candidate{
		Title: "Dampak Gizi pada Kesehatan Anak",
		Abstract: "Penelitian ini bertujuan untuk mengetahui hubungan antara " +
			"status gizi dan kesehatan masyarakat pada anak usia sekolah dasar " +
			"di wilayah kerja puskesmas. Hasil penelitian menunjukkan bahwa " +
			"asupan gizi yang baik berpengaruh terhadap tumbuh kembang anak.",
		PDFURL:    "http://x/a.pdf",
		SourceURL: "https://doaj.org/article/abc",
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	state := session.New(1)
	logger := zap.NewNop()

	_, err := New(Config{Language: "id", DetectorLanguages: []string{"id", "en"}}, state, logger)
	require.Error(t, err, "missing keywords")

	_, err = New(Config{Keywords: testKeywords, Language: "zz", DetectorLanguages: []string{"id", "en"}}, state, logger)
	require.Error(t, err, "unknown target code")

	_, err = New(Config{Keywords: testKeywords, Language: "id", DetectorLanguages: []string{"en", "fr"}}, state, logger)
	require.Error(t, err, "target missing from detector set")

	_, err = New(Config{Keywords: testKeywords, Language: "id", DetectorLanguages: []string{"id"}}, state, logger)
	require.Error(t, err, "single-language detector")
}

func TestTopical(t *testing.T) {
	t.Parallel()

	f, _ := newTestFilter(t)

	require.True(t, f.Topical(scraper.Candidate{
		Title:    "Dampak Gizi pada Kesehatan Anak",
		Abstract: "tentang kesehatan masyarakat",
	}))
	require.True(t, f.Topical(scraper.Candidate{
		Title:    "Studi Lain",
		Abstract: "layanan RUMAH SAKIT daerah",
	}))
	require.False(t, f.Topical(scraper.Candidate{
		Title:    "Analisis Ekonomi Makro",
		Abstract: "pertumbuhan pasar modal",
	}))
}

func TestCheckAcceptsIndonesianHealthCandidate(t *testing.T) {
	t.Parallel()

	f, _ := newTestFilter(t)
	verdict := f.Check(indonesianCandidate())
	require.False(t, verdict.Dropped, "got drop reason %q", verdict.Reason)
}

func TestCheckDropReasons(t *testing.T) {
	t.Parallel()

	f, _ := newTestFilter(t)

	tests := []struct {
		name   string
		mutate func(*scraper.Candidate)
		want   scraper.DropReason
	}{
		{
			name:   "missing abstract",
			mutate: func(c *scraper.Candidate) { c.Abstract = "" },
			want:   scraper.DropMissingTitleOrAbstract,
		},
		{
			name:   "missing document url",
			mutate: func(c *scraper.Candidate) { c.PDFURL = "" },
			want:   scraper.DropMissingDocumentURL,
		},
		{
			name: "non topical",
			mutate: func(c *scraper.Candidate) {
				c.Title = "Analisis Pasar Modal"
				c.Abstract = "Penelitian ini membahas pertumbuhan ekonomi dan investasi saham di bursa efek."
			},
			want: scraper.DropNonTopical,
		},
		{
			name: "wrong language",
			mutate: func(c *scraper.Candidate) {
				c.Abstract = "This study examines the relationship between nutrition " +
					"and public health outcomes among elementary school children, " +
					"with kesehatan services considered as a covariate."
			},
			want: scraper.DropWrongLanguage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand := indonesianCandidate()
			tt.mutate(&cand)
			verdict := f.Check(cand)
			require.True(t, verdict.Dropped)
			require.Equal(t, tt.want, verdict.Reason)
		})
	}
}

func TestCheckDuplicateSecondSubmissionDropped(t *testing.T) {
	t.Parallel()

	f, _ := newTestFilter(t)
	cand := indonesianCandidate()

	first := f.Check(cand)
	require.False(t, first.Dropped)

	second := f.Check(cand)
	require.True(t, second.Dropped)
	require.Equal(t, scraper.DropDuplicate, second.Reason)
}

func TestCheckDuplicateAcrossResumedState(t *testing.T) {
	t.Parallel()

	state := session.New(100)
	cand := indonesianCandidate()
	state.Seed([]string{cand.DedupKey()}, 1)

	f, err := New(Config{
		Keywords:          testKeywords,
		Language:          "id",
		DetectorLanguages: []string{"id", "en"},
	}, state, zap.NewNop())
	require.NoError(t, err)

	verdict := f.Check(cand)
	require.True(t, verdict.Dropped)
	require.Equal(t, scraper.DropDuplicate, verdict.Reason)
}

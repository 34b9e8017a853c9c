// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default seed queries and topical keywords for Indonesian health journals.
// Quoted phrases are passed through to the search API verbatim.
var (
	defaultQueries = []string{
		"kesehatan",
		"kedokteran",
		"keperawatan",
		"farmasi",
		"gizi",
		"klinis",
		"medis",
		`"kesehatan masyarakat"`,
		`"rumah sakit"`,
	}
	defaultKeywords = []string{
		"kesehatan",
		"medis",
		"kedokteran",
		"keperawatan",
		"farmasi",
		"kesehatan masyarakat",
		"gizi",
		"klinis",
		"rumah sakit",
	}
)

// Config captures all scraper configuration knobs loaded via Viper.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Ops      OpsConfig      `mapstructure:"ops"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Download DownloadConfig `mapstructure:"download"`
	Index    IndexConfig    `mapstructure:"index"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// OpsConfig controls the metrics/health HTTP listener.
type OpsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// CrawlConfig governs the search API pagination.
type CrawlConfig struct {
	APIBaseURL string   `mapstructure:"api_base_url"`
	Queries    []string `mapstructure:"queries"`
	PageSize   int      `mapstructure:"page_size"`
}

// HTTPConfig configures transport politeness.
type HTTPConfig struct {
	UserAgent            string `mapstructure:"user_agent"`
	TimeoutSeconds       int    `mapstructure:"timeout_seconds"`
	RespectRobots        bool   `mapstructure:"respect_robots"`
	PerDomainParallelism int    `mapstructure:"per_domain_parallelism"`
	DelayMs              int    `mapstructure:"delay_ms"`
	RandomDelayMs        int    `mapstructure:"random_delay_ms"`
}

// FilterConfig controls topical and language filtering.
type FilterConfig struct {
	Keywords          []string `mapstructure:"keywords"`
	Language          string   `mapstructure:"language"`
	DetectorLanguages []string `mapstructure:"detector_languages"`
}

// DownloadConfig controls the PDF download cap, storage, and filenames.
type DownloadConfig struct {
	MaxPDFs         int    `mapstructure:"max_pdfs"`
	StoreRoot       string `mapstructure:"store_root"`
	BlobPrefix      string `mapstructure:"blob_prefix"`
	FilenameByTitle bool   `mapstructure:"filename_by_title"`
	HashPrefixLen   int    `mapstructure:"hash_prefix_len"`
	SlugMaxLen      int    `mapstructure:"slug_max_len"`
}

// IndexConfig locates the durable CSV index.
type IndexConfig struct {
	Path string `mapstructure:"path"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("ops.enabled", true)
	v.SetDefault("ops.port", 9090)
	v.SetDefault("crawl.api_base_url", "https://doaj.org/api/v2")
	v.SetDefault("crawl.queries", defaultQueries)
	v.SetDefault("crawl.page_size", 100)
	v.SetDefault("http.user_agent", "jurnal-scraper/0.1")
	v.SetDefault("http.timeout_seconds", 25)
	v.SetDefault("http.respect_robots", true)
	v.SetDefault("http.per_domain_parallelism", 8)
	v.SetDefault("http.delay_ms", 500)
	v.SetDefault("http.random_delay_ms", 500)
	v.SetDefault("filter.keywords", defaultKeywords)
	v.SetDefault("filter.language", "id")
	v.SetDefault("filter.detector_languages", []string{"id", "en"})
	v.SetDefault("download.max_pdfs", 450)
	v.SetDefault("download.store_root", "downloaded_pdfs")
	v.SetDefault("download.blob_prefix", "pdfs")
	v.SetDefault("download.filename_by_title", true)
	v.SetDefault("download.hash_prefix_len", 10)
	v.SetDefault("download.slug_max_len", 120)
	v.SetDefault("index.path", "jurnal_kesehatan_indonesia.csv")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Ops.Enabled && c.Ops.Port <= 0 {
		return fmt.Errorf("ops.port must be > 0 when ops is enabled")
	}
	if c.Crawl.APIBaseURL == "" {
		return fmt.Errorf("crawl.api_base_url must be set")
	}
	if len(c.Crawl.Queries) == 0 {
		return fmt.Errorf("crawl.queries must not be empty")
	}
	if c.Crawl.PageSize <= 0 {
		return fmt.Errorf("crawl.page_size must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if len(c.Filter.Keywords) == 0 {
		return fmt.Errorf("filter.keywords must not be empty")
	}
	if c.Filter.Language == "" {
		return fmt.Errorf("filter.language must be set")
	}
	if c.Download.MaxPDFs <= 0 {
		return fmt.Errorf("download.max_pdfs must be > 0")
	}
	if c.Download.StoreRoot == "" {
		return fmt.Errorf("download.store_root must be set")
	}
	if c.Index.Path == "" {
		return fmt.Errorf("index.path must be set")
	}
	return nil
}

// Timeout converts the HTTP timeout into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

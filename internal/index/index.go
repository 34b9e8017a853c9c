// Package index maintains the durable CSV record of completed downloads.
// The file is append-only: one immutable row per stored PDF, and at startup
// it is the source of resume state (dedup keys and the downloaded count).
package index

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fathurp01/indonesia-health-journals-pdf-scraper/internal/scraper"
)

// columns is the fixed CSV schema. Order matters; existing index files from
// prior runs must keep parsing.
var columns = []string{
	"journal_title",
	"title",
	"authors",
	"affiliation",
	"abstract",
	"pdf_url",
	"pdf_local_path",
	"source_url",
}

// Sink appends one row per completed download to the index file.
type Sink struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	logger *zap.Logger
}

// Open opens the index for appending, creating it with a header row when it
// is new or empty. The handle stays open until Close.
func Open(path string, logger *zap.Logger) (*Sink, error) {
	info, statErr := os.Stat(path)
	needHeader := os.IsNotExist(statErr) || (statErr == nil && info.Size() == 0)
	if statErr != nil && !os.IsNotExist(statErr) {
		return nil, fmt.Errorf("stat index file %s: %w", path, statErr)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path comes from validated config.
	if err != nil {
		return nil, fmt.Errorf("open index file %s: %w", path, err)
	}

	s := &Sink{
		file:   file,
		writer: csv.NewWriter(file),
		logger: logger,
	}

	if needHeader {
		if err := s.writer.Write(columns); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("write index header: %w", err)
		}
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("flush index header: %w", err)
		}
	}

	return s, nil
}

// Append writes one row for a completed download and flushes it to disk.
func (s *Sink) Append(rec scraper.DownloadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer == nil {
		return errors.New("index sink is closed")
	}

	row := []string{
		rec.JournalTitle,
		rec.Title,
		strings.Join(rec.Authors, ", "),
		strings.Join(rec.Affiliations, "; "),
		rec.Abstract,
		rec.PDFURL,
		rec.LocalPath,
		rec.SourceURL,
	}
	if err := s.writer.Write(row); err != nil {
		return fmt.Errorf("write index row: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush index row: %w", err)
	}
	return nil
}

// Close releases the file handle. Safe to call more than once.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	s.writer.Flush()
	flushErr := s.writer.Error()
	closeErr := s.file.Close()
	s.file = nil
	s.writer = nil
	if flushErr != nil {
		return fmt.Errorf("flush index on close: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close index file: %w", closeErr)
	}
	return nil
}

// ResumeState is what a prior run left behind: the dedup keys of every
// indexed article and the count of rows whose PDF is still on disk.
type ResumeState struct {
	Keys       []string
	Downloaded int
}

// Resume scans an existing index file and rebuilds session state from it.
// A missing file yields empty state. Malformed rows are logged and skipped
// rather than aborting the scan; resume proceeds on best-effort partial
// state. Rows whose local file has been removed still contribute their
// dedup key but not the downloaded count.
func Resume(path string, storeRoot string, logger *zap.Logger) (ResumeState, error) {
	file, err := os.Open(path) // #nosec G304 -- path comes from validated config.
	if err != nil {
		if os.IsNotExist(err) {
			return ResumeState{}, nil
		}
		return ResumeState{}, fmt.Errorf("open index file %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logger.Warn("close index file after resume scan", zap.Error(closeErr))
		}
	}()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var state ResumeState
	first := true
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn("skipping malformed index row", zap.Error(err))
			continue
		}
		if first {
			first = false
			if len(row) > 0 && row[0] == columns[0] {
				continue
			}
		}
		if len(row) < len(columns) {
			logger.Warn("skipping short index row", zap.Int("fields", len(row)))
			continue
		}

		title := strings.TrimSpace(row[1])
		pdfURL := strings.TrimSpace(row[5])
		localPath := strings.TrimSpace(row[6])
		sourceURL := strings.TrimSpace(row[7])

		if pdfURL != "" || sourceURL != "" || title != "" {
			url := pdfURL
			if url == "" {
				url = sourceURL
			}
			state.Keys = append(state.Keys, url+"|"+strings.ToLower(title))
		}

		if localPath != "" {
			if info, err := os.Stat(filepath.Join(storeRoot, localPath)); err == nil && !info.IsDir() {
				state.Downloaded++
			}
		}
	}

	return state, nil
}

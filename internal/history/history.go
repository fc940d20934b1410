// Package history supplies recent commits, reading through a short-lived cache file so
// repeated runs do not walk the log again.
package history

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/bral/git-bump-go/internal/apperr"
	"github.com/bral/git-bump-go/internal/fsutil"
	"github.com/bral/git-bump-go/internal/report"
	"github.com/bral/git-bump-go/internal/types"
)

const (
	// DefaultTTL is how long a cache file is trusted.
	DefaultTTL = time.Hour

	cacheDateLayout = "2006-01-02"
	cacheSeparator  = "|"
	cacheFields     = 5

	// separatorSubstitute stands in for the separator inside non-trailing fields.
	separatorSubstitute = "¦"
)

// LogSource is the part of the repository backend the provider needs.
type LogSource interface {
	CommitLog(ctx context.Context, count int) ([]types.CommitRecord, error)
}

// Provider fetches commits from a LogSource and maintains the cache file.
type Provider struct {
	source    LogSource
	cachePath string
	reporter  report.Reporter
	logger    *zap.Logger
	now       func() time.Time
}

// NewProvider returns a Provider caching to cachePath.
func NewProvider(source LogSource, cachePath string, r report.Reporter, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{source: source, cachePath: cachePath, reporter: r, logger: logger, now: time.Now}
}

// CachePath returns the cache file location.
func (p *Provider) CachePath() string { return p.cachePath }

// Fetch returns up to count commits, newest first. A cache younger than ttl is used
// verbatim when allowCache is set. Otherwise the source is asked and the cache rewritten.
// When the source fails, any cache is used regardless of age; with no cache the error is
// HistoryUnavailable.
func (p *Provider) Fetch(ctx context.Context, count int, allowCache bool, ttl time.Duration) ([]types.CommitRecord, error) {
	if allowCache {
		if info, err := os.Stat(p.cachePath); err == nil {
			age := p.now().Sub(info.ModTime())
			if age < ttl {
				commits, err := p.readCache()
				if err == nil && len(commits) > 0 {
					report.Infof(p.reporter, report.IconInfo, "Using cached commit history from %s", humanize.RelTime(info.ModTime(), p.now(), "ago", "from now"))
					p.logger.Debug("history cache hit", zap.String("path", p.cachePath), zap.Duration("age", age), zap.Int("commits", len(commits)))
					return commits, nil
				}
				if err != nil {
					p.logger.Warn("history cache unreadable", zap.String("path", p.cachePath), zap.Error(err))
				}
			}
		}
	}

	report.Infof(p.reporter, report.IconSearch, "Fetching last %d commits...", count)
	commits, err := p.source.CommitLog(ctx, count)
	if err != nil {
		p.logger.Error("commit log failed", zap.Error(err))
		return p.fallback(err)
	}
	if len(commits) > 0 {
		if werr := p.writeCache(commits); werr != nil {
			report.Warnf(p.reporter, report.IconWarning, "Could not update history cache: %v", werr)
		}
	}
	return commits, nil
}

func (p *Provider) fallback(cause error) ([]types.CommitRecord, error) {
	info, statErr := os.Stat(p.cachePath)
	if statErr != nil {
		return nil, apperr.HistoryUnavailable("read commit history", cause)
	}
	commits, err := p.readCache()
	if err != nil {
		return nil, apperr.HistoryUnavailable("read commit history", errors.Join(cause, err))
	}
	report.Warnf(p.reporter, report.IconWarning, "Could not read commit history (%v); using cache from %s",
		cause, humanize.RelTime(info.ModTime(), p.now(), "ago", "from now"))
	return commits, nil
}

// readCache parses the cache file. Lines with too few fields are skipped silently;
// lines with an unparsable date are skipped with a warning.
func (p *Provider) readCache() ([]types.CommitRecord, error) {
	f, err := os.Open(p.cachePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var commits []types.CommitRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		fields := strings.SplitN(line, cacheSeparator, cacheFields)
		if len(fields) < cacheFields {
			continue
		}
		date, err := time.ParseInLocation(cacheDateLayout, fields[1], time.Local)
		if err != nil {
			report.Warnf(p.reporter, report.IconWarning, "Skipping cached commit %s: invalid date %q", fields[0], fields[1])
			continue
		}
		commits = append(commits, types.CommitRecord{
			Hash:    fields[0],
			Date:    date,
			Author:  fields[2],
			Email:   fields[3],
			Message: fields[4],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", p.cachePath, err)
	}
	return commits, nil
}

func (p *Provider) writeCache(commits []types.CommitRecord) error {
	var b strings.Builder
	for _, c := range commits {
		b.WriteString(FormatRecord(c))
		b.WriteByte('\n')
	}
	return fsutil.AtomicWrite(p.cachePath, []byte(b.String()))
}

// FormatRecord renders a commit as one cache line. Only the message may contain the
// separator; in the other fields it is replaced so the line splits back the same way.
func FormatRecord(c types.CommitRecord) string {
	return strings.Join([]string{
		cacheField(c.Hash),
		c.Date.Format(cacheDateLayout),
		cacheField(c.Author),
		cacheField(c.Email),
		oneLine(c.Message),
	}, cacheSeparator)
}

var fieldReplacer = strings.NewReplacer(cacheSeparator, separatorSubstitute)

func cacheField(s string) string {
	return fieldReplacer.Replace(oneLine(s))
}

func oneLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

// Cleanup removes the cache file. Failures are reported, never returned.
func (p *Provider) Cleanup() {
	err := os.Remove(p.cachePath)
	switch {
	case err == nil:
		report.Infof(p.reporter, report.IconCleanup, "Removed %s", p.cachePath)
	case errors.Is(err, fs.ErrNotExist):
	default:
		report.Warnf(p.reporter, report.IconWarning, "Could not remove %s: %v", p.cachePath, err)
	}
}

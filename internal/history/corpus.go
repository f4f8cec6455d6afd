// Package history loads the historical radar corpus and answers
// prior-appearance lookups for duplicate detection.
package history

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/radar-coach/internal/model"
	"github.com/sells-group/radar-coach/internal/sanitize"
)

// DefaultCacheTTL is how long a loaded corpus is served from memory before
// the disk cache is re-read.
const DefaultCacheTTL = 24 * time.Hour

var volumePattern = regexp.MustCompile(`(Volume \d+ \([^)]+\))`)

// volumeLabel extracts a short volume label from a CSV filename, e.g.
// "Thoughtworks Technology Radar Volume 31 (Oct 2024).csv" becomes
// "Volume 31 (Oct 2024)". Unrecognized filenames are used as-is.
func volumeLabel(filename string) string {
	if m := volumePattern.FindStringSubmatch(filename); m != nil {
		return m[1]
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// normalizeQuadrant maps the CSV's hyphenated lowercase quadrant values to
// display form.
func normalizeQuadrant(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "techniques":
		return string(model.QuadrantTechniques)
	case "tools":
		return string(model.QuadrantTools)
	case "platforms":
		return string(model.QuadrantPlatforms)
	case "languages-and-frameworks":
		return string(model.QuadrantLanguagesFrameworks)
	default:
		return capitalizeRing(raw)
	}
}

// capitalizeRing maps csv ring values ("adopt", "ADOPT") to display form.
func capitalizeRing(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return raw
	}
	return strings.ToUpper(raw[:1]) + raw[1:]
}

// ParseCSV parses one volume's CSV content into historical blips. Rows
// without a name are skipped. All values pass through external-data
// sanitization since the corpus is not under our control.
func ParseCSV(r io.Reader, volume string) ([]model.HistoricalBlip, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "history: read csv header")
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	var blips []model.HistoricalBlip
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "history: read csv row")
		}

		name := sanitize.ExternalData(strings.TrimSpace(field(row, "name")))
		if name == "" {
			continue
		}
		blips = append(blips, model.HistoricalBlip{
			Name:     name,
			Ring:     sanitize.ExternalData(capitalizeRing(field(row, "ring"))),
			Quadrant: normalizeQuadrant(field(row, "quadrant")),
			Volume:   sanitize.ExternalData(volume),
		})
	}
	return blips, nil
}

// Corpus is the cached set of historical blips. Loads are served from
// memory while fresh, then from the disk cache, then (when a fetcher is
// configured) from the network.
type Corpus struct {
	cacheDir string
	ttl      time.Duration
	fetcher  *Fetcher // nil means disk-only

	mu       sync.RWMutex
	entries  []model.HistoricalBlip
	loadedAt time.Time
}

// NewCorpus creates a Corpus backed by the given cache directory. fetcher
// may be nil for offline (disk-only) operation.
func NewCorpus(cacheDir string, ttl time.Duration, fetcher *Fetcher) *Corpus {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Corpus{cacheDir: cacheDir, ttl: ttl, fetcher: fetcher}
}

// Entries returns all historical blips, loading them on first use and
// re-loading after the TTL expires.
func (c *Corpus) Entries(ctx context.Context) ([]model.HistoricalBlip, error) {
	c.mu.RLock()
	if c.entries != nil && time.Since(c.loadedAt) < c.ttl {
		entries := c.entries
		c.mu.RUnlock()
		return entries, nil
	}
	c.mu.RUnlock()

	return c.load(ctx, false)
}

// Refresh forces a network re-fetch of every volume and reloads the
// corpus. Returns the number of entries loaded.
func (c *Corpus) Refresh(ctx context.Context) (int, error) {
	entries, err := c.load(ctx, true)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Find looks up prior appearances of name, loading the corpus if needed.
func (c *Corpus) Find(ctx context.Context, name string) ([]model.HistoricalBlip, error) {
	entries, err := c.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return Find(entries, name), nil
}

// Len returns the number of loaded entries without triggering a load.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Corpus) load(ctx context.Context, force bool) ([]model.HistoricalBlip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have loaded while we waited for the lock.
	if !force && c.entries != nil && time.Since(c.loadedAt) < c.ttl {
		return c.entries, nil
	}

	files, err := c.cachedFiles()
	if err != nil {
		return nil, err
	}

	if c.fetcher != nil && (force || len(files) == 0) {
		if _, err := c.fetcher.RefreshDir(ctx, c.cacheDir, force); err != nil {
			return nil, err
		}
		if files, err = c.cachedFiles(); err != nil {
			return nil, err
		}
	}

	var entries []model.HistoricalBlip
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "history: open cached csv %s", path)
		}
		blips, err := ParseCSV(f, volumeLabel(filepath.Base(path)))
		f.Close()
		if err != nil {
			return nil, err
		}
		entries = append(entries, blips...)
	}

	c.entries = entries
	c.loadedAt = time.Now()

	zap.L().Info("history: corpus loaded",
		zap.Int("volumes", len(files)),
		zap.Int("entries", len(entries)),
	)
	return entries, nil
}

func (c *Corpus) cachedFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(c.cacheDir, "*.csv"))
	if err != nil {
		return nil, eris.Wrap(err, "history: glob cache dir")
	}
	sort.Strings(matches)
	return matches, nil
}

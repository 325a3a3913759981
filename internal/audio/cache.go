package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/tilawa/internal/domain"
)

const (
	defaultTimeout = 2 * time.Minute
	defaultWorkers = 2
)

// Options configures a Cache
type Options struct {
	CDNURL         string
	Dir            string
	MaxBytes       int64 // 0 means unbounded
	PreloadWorkers int
	HTTPClient     *http.Client
	Now            func() time.Time
}

// Cache maps (verse, narrator) pairs to local audio files, downloading
// from the CDN on demand. It is the only writer of its directory and index.
type Cache struct {
	index      domain.AudioIndex
	cdnURL     string
	dir        string
	maxBytes   int64
	workers    int
	httpClient *http.Client
	now        func() time.Time
	logger     *slog.Logger

	// Serializes eviction passes
	evictMu sync.Mutex
}

// PreloadSummary reports the outcome of a preload run
type PreloadSummary struct {
	Cached  int
	Skipped int
	Failed  int
}

// NewCache creates a new audio cache
func NewCache(index domain.AudioIndex, opts Options, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PreloadWorkers <= 0 {
		opts.PreloadWorkers = defaultWorkers
	}
	return &Cache{
		index:      index,
		cdnURL:     strings.TrimRight(opts.CDNURL, "/"),
		dir:        opts.Dir,
		maxBytes:   opts.MaxBytes,
		workers:    opts.PreloadWorkers,
		httpClient: opts.HTTPClient,
		now:        opts.Now,
		logger:     logger,
	}
}

// RemoteURL returns the CDN URL for a verse: {cdn}/{narrator}/{CCC}{VVV}.mp3
func (c *Cache) RemoteURL(key domain.VerseKey, narrator string) (string, error) {
	code, err := fileCode(key, narrator)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s.mp3", c.cdnURL, url.PathEscape(narrator), code), nil
}

// LocalPath returns where the file for a verse is stored once cached
func (c *Cache) LocalPath(key domain.VerseKey, narrator string) (string, error) {
	code, err := fileCode(key, narrator)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.mp3", narrator, code)), nil
}

// ResolveURI returns the local path when the file is cached and present,
// otherwise the remote URL. It never downloads. A stale index entry whose
// file has disappeared is deleted on the way.
func (c *Cache) ResolveURI(ctx context.Context, key domain.VerseKey, narrator string) (string, error) {
	remote, err := c.RemoteURL(key, narrator)
	if err != nil {
		return "", err
	}

	path, ok, err := c.lookup(ctx, key, narrator)
	if err != nil {
		return "", err
	}
	if ok {
		return path, nil
	}
	return remote, nil
}

// CacheFile downloads the file for a verse unless it is already cached and
// returns the local path. The index entry is written only after the file is
// complete on disk.
func (c *Cache) CacheFile(ctx context.Context, key domain.VerseKey, narrator string) (string, error) {
	remote, err := c.RemoteURL(key, narrator)
	if err != nil {
		return "", err
	}
	path, ok, err := c.lookup(ctx, key, narrator)
	if err != nil {
		return "", err
	}
	if ok {
		return path, nil
	}

	path, err = c.LocalPath(key, narrator)
	if err != nil {
		return "", err
	}
	size, err := c.download(ctx, remote, path)
	if err != nil {
		c.logger.Error("audio download failed", "verse", key, "narrator", narrator, "error", err)
		return "", err
	}

	now := c.now()
	if err := c.index.SaveAudioEntry(ctx, domain.AudioEntry{
		VerseKey:     key,
		Narrator:     narrator,
		Path:         path,
		SizeBytes:    size,
		CreatedAt:    now,
		LastAccessed: now,
	}); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to register audio file: %w", err)
	}
	c.logger.Debug("cached audio", "verse", key, "narrator", narrator, "bytes", size)

	if err := c.evict(ctx, key, narrator); err != nil {
		c.logger.Warn("audio eviction failed", "error", err)
	}
	return path, nil
}

// Preload caches every key on a small worker pool. Failures are logged and
// counted, never returned. Cancellation stops scheduling new downloads.
func (c *Cache) Preload(ctx context.Context, keys []domain.VerseKey, narrator string) PreloadSummary {
	var (
		mu      sync.Mutex
		summary PreloadSummary
	)
	count := func(field *int) {
		mu.Lock()
		*field++
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(c.workers)
	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if _, ok, err := c.lookup(ctx, key, narrator); err == nil && ok {
				count(&summary.Skipped)
				return nil
			}
			if _, err := c.CacheFile(ctx, key, narrator); err != nil {
				c.logger.Warn("audio preload failed", "verse", key, "narrator", narrator, "error", err)
				count(&summary.Failed)
				return nil
			}
			count(&summary.Cached)
			return nil
		})
	}
	_ = g.Wait()

	c.logger.Info("audio preload finished",
		"narrator", narrator,
		"cached", summary.Cached,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary
}

// Usage returns the number of cached files and their total size
func (c *Cache) Usage(ctx context.Context) (int, int64, error) {
	return c.index.AudioUsage(ctx)
}

// Clear deletes every cached file and index entry
func (c *Cache) Clear(ctx context.Context) error {
	c.evictMu.Lock()
	defer c.evictMu.Unlock()

	entries, err := c.index.AudioEntriesByAccess(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.Remove(e.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", e.Path, err)
		}
	}
	return c.index.DeleteAllAudioEntries(ctx)
}

// lookup returns the cached path if the index has an entry and the file exists.
// Dangling entries are removed.
func (c *Cache) lookup(ctx context.Context, key domain.VerseKey, narrator string) (string, bool, error) {
	entry, ok, err := c.index.AudioEntry(ctx, key, narrator)
	if err != nil || !ok {
		return "", false, err
	}

	if _, err := os.Stat(entry.Path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %s: %w", entry.Path, err)
		}
		c.logger.Info("removing stale audio entry", "verse", key, "narrator", narrator, "path", entry.Path)
		if err := c.index.DeleteAudioEntry(ctx, key, narrator); err != nil {
			return "", false, err
		}
		return "", false, nil
	}

	if err := c.index.TouchAudioEntry(ctx, key, narrator, c.now()); err != nil {
		c.logger.Warn("failed to update audio access time", "verse", key, "error", err)
	}
	return entry.Path, true, nil
}

// download streams remote into a temp file next to dest and renames it into
// place once the body is complete.
func (c *Cache) download(ctx context.Context, remote, dest string) (int64, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create audio cache directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remote, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrAudioDownload, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w: %w: %v", domain.ErrAudioDownload, domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %s returned status %d", domain.ErrAudioDownload, remote, resp.StatusCode)
	}

	tmp := filepath.Join(c.dir, "."+uuid.NewString()+".part")
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}

	written, err := io.Copy(f, resp.Body)
	closeErr := f.Close()
	switch {
	case err != nil:
		err = fmt.Errorf("%w: %v", domain.ErrAudioDownload, err)
	case closeErr != nil:
		err = fmt.Errorf("failed to write audio file: %w", closeErr)
	case resp.ContentLength >= 0 && written != resp.ContentLength:
		err = fmt.Errorf("%w: short body %d of %d bytes", domain.ErrAudioDownload, written, resp.ContentLength)
	case written == 0:
		err = fmt.Errorf("%w: empty body", domain.ErrAudioDownload)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}

	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("failed to move audio file into place: %w", err)
	}
	return written, nil
}

// evict removes least recently accessed files until the cache fits maxBytes.
// The entry just written is never evicted.
func (c *Cache) evict(ctx context.Context, keepKey domain.VerseKey, keepNarrator string) error {
	if c.maxBytes <= 0 {
		return nil
	}
	c.evictMu.Lock()
	defer c.evictMu.Unlock()

	_, total, err := c.index.AudioUsage(ctx)
	if err != nil || total <= c.maxBytes {
		return err
	}

	entries, err := c.index.AudioEntriesByAccess(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if total <= c.maxBytes {
			break
		}
		if e.VerseKey == keepKey && e.Narrator == keepNarrator {
			continue
		}
		if err := os.Remove(e.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", e.Path, err)
		}
		if err := c.index.DeleteAudioEntry(ctx, e.VerseKey, e.Narrator); err != nil {
			return err
		}
		total -= e.SizeBytes
		c.logger.Debug("evicted audio", "verse", e.VerseKey, "narrator", e.Narrator, "bytes", e.SizeBytes)
	}
	return nil
}

// fileCode returns the zero-padded CCCVVV code of a verse
func fileCode(key domain.VerseKey, narrator string) (string, error) {
	if narrator == "" || strings.ContainsAny(narrator, `/\`) || strings.Contains(narrator, "..") {
		return "", fmt.Errorf("%w: narrator %q", domain.ErrInvalidKey, narrator)
	}
	chapter, verse, err := key.Parts()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%03d%03d", chapter, verse), nil
}

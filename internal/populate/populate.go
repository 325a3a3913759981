package populate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/tilawa/internal/audio"
	"github.com/mmcdole/tilawa/internal/domain"
	"github.com/mmcdole/tilawa/internal/library"
)

// DefaultConcurrency is the number of chapters fetched per window.
const DefaultConcurrency = 5

// ledger is the slice of the content store the orchestrator needs
type ledger interface {
	MarkPopulated(ctx context.Context, kind domain.PopulationKind, total int) error
	CountVerses(ctx context.Context) (int, error)
	CountTafsirs(ctx context.Context, resourceID int) (int, error)
	Verses(ctx context.Context, filter domain.VerseFilter) ([]domain.Verse, error)
}

// preloader caches audio files (implemented by audio.Cache)
type preloader interface {
	Preload(ctx context.Context, keys []domain.VerseKey, narrator string) audio.PreloadSummary
}

// Options configures a population run
type Options struct {
	IncludeTafsir bool
	TafsirIDs     []int
	Concurrency   int // chapters per window
	// Narrator enables audio preloading for every populated chapter when set
	Narrator   string
	OnProgress domain.PopulateObserver
}

// Orchestrator walks the chapter catalog through the entity caches.
type Orchestrator struct {
	lib    *library.Service
	ledger ledger
	audio  preloader
	logger *slog.Logger
}

// New creates an orchestrator. audioCache may be nil to disable preloading.
func New(lib *library.Service, ledger ledger, audioCache preloader, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{lib: lib, ledger: ledger, audio: audioCache, logger: logger}
}

// PopulateAll populates every chapter in sequential windows of
// opts.Concurrency concurrent chapters, then tafsir if requested. Chapter
// failures do not stop the run; they are returned joined at the end. The
// catalog-wide ledger entries are marked only when a phase had no failures.
func (o *Orchestrator) PopulateAll(ctx context.Context, opts Options) error {
	if _, err := o.lib.EnsureChapters(ctx); err != nil {
		return fmt.Errorf("failed to populate chapters: %w", err)
	}

	chapters := make([]int, 0, domain.ChapterCount)
	for id := 1; id <= domain.ChapterCount; id++ {
		chapters = append(chapters, id)
	}

	var failures []error

	verseErrs := o.runWindows(ctx, domain.PhaseVerses, chapters, opts, func(ctx context.Context, chapter int) error {
		_, err := o.lib.EnsureVerses(ctx, chapter, nil)
		return err
	}, func(ctx context.Context, settled []int) {
		o.preload(ctx, settled, opts.Narrator)
	})
	if len(verseErrs) == 0 {
		if err := o.markVerses(ctx); err != nil {
			return err
		}
	}
	failures = append(failures, verseErrs...)
	if ctx.Err() != nil {
		return errors.Join(failures...)
	}

	if opts.IncludeTafsir {
		for _, resourceID := range opts.TafsirIDs {
			tafsirErrs := o.runWindows(ctx, domain.PhaseTafsirs, chapters, opts, func(ctx context.Context, chapter int) error {
				_, err := o.lib.EnsureTafsirs(ctx, chapter, resourceID, nil)
				return err
			}, nil)
			if len(tafsirErrs) == 0 {
				if err := o.markTafsir(ctx, resourceID); err != nil {
					return err
				}
			}
			failures = append(failures, tafsirErrs...)
			if ctx.Err() != nil {
				return errors.Join(failures...)
			}
		}
	}

	if len(failures) > 0 {
		o.logger.Warn("population finished with failures", "failed", len(failures))
	} else {
		o.logger.Info("population complete")
	}
	return errors.Join(failures...)
}

// PopulatePopular populates a short chapter list one chapter at a time so a
// first launch has something cached quickly.
func (o *Orchestrator) PopulatePopular(ctx context.Context, chapters []int, opts Options) error {
	var failures []error
	total := len(chapters)
	if opts.IncludeTafsir {
		total *= 1 + len(opts.TafsirIDs)
	}
	progress := domain.PopulateProgress{Phase: domain.PhaseVerses, Total: total}

	for _, chapter := range chapters {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(failures, err)...)
		}

		if _, err := o.lib.EnsureVerses(ctx, chapter, nil); err != nil {
			o.logger.Warn("failed to populate chapter", "chapter", chapter, "error", err)
			failures = append(failures, fmt.Errorf("chapter %d: %w", chapter, err))
			progress.Failed++
		} else {
			o.preload(ctx, []int{chapter}, opts.Narrator)
		}
		progress.Completed++
		o.report(opts.OnProgress, progress)

		if !opts.IncludeTafsir {
			continue
		}
		for _, resourceID := range opts.TafsirIDs {
			progress.Phase = domain.PhaseTafsirs
			if _, err := o.lib.EnsureTafsirs(ctx, chapter, resourceID, nil); err != nil {
				o.logger.Warn("failed to populate tafsir", "chapter", chapter, "resource", resourceID, "error", err)
				failures = append(failures, fmt.Errorf("chapter %d tafsir %d: %w", chapter, resourceID, err))
				progress.Failed++
			}
			progress.Completed++
			o.report(opts.OnProgress, progress)
			progress.Phase = domain.PhaseVerses
		}
	}
	return errors.Join(failures...)
}

// runWindows processes chapters in windows of opts.Concurrency. Every chapter
// in a window settles before the next window starts. afterWindow, when set,
// receives the chapters of the window that succeeded once all have settled,
// so its work never overlaps the window's fetches. Cancellation stops at a
// window boundary and is reported as a failure.
func (o *Orchestrator) runWindows(
	ctx context.Context,
	phase domain.PopulatePhase,
	chapters []int,
	opts Options,
	fn func(ctx context.Context, chapter int) error,
	afterWindow func(ctx context.Context, settled []int),
) []error {
	size := opts.Concurrency
	if size <= 0 {
		size = DefaultConcurrency
	}

	var (
		mu       sync.Mutex
		failures []error
	)
	progress := domain.PopulateProgress{Phase: phase, Total: len(chapters)}

	for start := 0; start < len(chapters); start += size {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}
		window := chapters[start:min(start+size, len(chapters))]

		var (
			g       errgroup.Group
			settled []int
		)
		for _, chapter := range window {
			g.Go(func() error {
				err := fn(ctx, chapter)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					o.logger.Warn("failed to populate chapter", "phase", phase, "chapter", chapter, "error", err)
					failures = append(failures, fmt.Errorf("%s chapter %d: %w", phase, chapter, err))
					return nil
				}
				settled = append(settled, chapter)
				return nil
			})
		}
		_ = g.Wait()

		if afterWindow != nil && len(settled) > 0 {
			slices.Sort(settled)
			afterWindow(ctx, settled)
		}

		mu.Lock()
		progress.Completed += len(window)
		progress.Failed = len(failures)
		mu.Unlock()
		o.report(opts.OnProgress, progress)
	}
	return failures
}

func (o *Orchestrator) markVerses(ctx context.Context) error {
	n, err := o.ledger.CountVerses(ctx)
	if err != nil {
		return err
	}
	return o.ledger.MarkPopulated(ctx, domain.KindVerses, n)
}

func (o *Orchestrator) markTafsir(ctx context.Context, resourceID int) error {
	n, err := o.ledger.CountTafsirs(ctx, resourceID)
	if err != nil {
		return err
	}
	return o.ledger.MarkPopulated(ctx, domain.TafsirKind(resourceID), n)
}

// preload caches the audio of chapters in one call when a narrator is
// configured, so downloads stay within the cache's own worker bound.
// Failures are counted and logged by the audio cache.
func (o *Orchestrator) preload(ctx context.Context, chapters []int, narrator string) {
	if o.audio == nil || narrator == "" {
		return
	}
	var keys []domain.VerseKey
	for _, chapter := range chapters {
		verses, err := o.ledger.Verses(ctx, domain.VerseFilter{ChapterID: chapter})
		if err != nil {
			o.logger.Warn("failed to list verses for audio preload", "chapter", chapter, "error", err)
			continue
		}
		for _, v := range verses {
			keys = append(keys, v.Key)
		}
	}
	if len(keys) == 0 {
		return
	}
	summary := o.audio.Preload(ctx, keys, narrator)
	o.logger.Debug("preloaded audio", "chapters", len(chapters), "cached", summary.Cached, "skipped", summary.Skipped, "failed", summary.Failed)
}

func (o *Orchestrator) report(fn domain.PopulateObserver, p domain.PopulateProgress) {
	o.logger.Debug("population progress", "phase", p.Phase, "completed", p.Completed, "total", p.Total, "failed", p.Failed)
	if fn != nil {
		fn(p)
	}
}

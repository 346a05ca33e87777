package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sgaunet/s3grab/pkg/dto"
)

// ErrUnsafeKey is returned for keys that would be written outside the destination.
var ErrUnsafeKey = errors.New("key does not map to a path inside the destination")

// Store is what the engine needs from the object store.
type Store interface {
	ListAllUnderPrefix(ctx context.Context, bucket, prefix string, fn func(dto.S3Object) error) error
	DownloadObject(ctx context.Context, bucket, key, localPath string) error
}

// Progress is reported after every attempted file, failed ones included.
type Progress struct {
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// ProgressFunc receives progress updates. Calls never overlap.
type ProgressFunc func(Progress)

// Engine expands selections and downloads keys.
type Engine struct {
	store       Store
	concurrency int
	log         *slog.Logger
}

// NewEngine returns an Engine downloading one file at a time.
func NewEngine(store Store) *Engine {
	return &Engine{
		store:       store,
		concurrency: 1,
		log:         slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger
func (e *Engine) SetLogger(log *slog.Logger) {
	e.log = log
}

// SetConcurrency sets how many files are downloaded at once. Values below 1 mean 1.
func (e *Engine) SetConcurrency(n int) {
	e.concurrency = max(n, 1)
}

// Expand flattens sel into the list of keys to fetch. Files map to
// themselves, folders to every object below them at any depth. Folder
// markers are skipped and a key selected twice is only kept once.
// A listing failure aborts the expansion.
func (e *Engine) Expand(ctx context.Context, bucket string, sel Selection) ([]string, error) {
	keys := []string{}
	seen := make(map[string]struct{})
	add := func(obj dto.S3Object) {
		if obj.Key == "" || obj.IsFolderMarker() {
			return
		}
		if _, ok := seen[obj.Key]; ok {
			return
		}
		seen[obj.Key] = struct{}{}
		keys = append(keys, obj.Key)
	}

	for _, item := range sel {
		if !item.IsFolder() {
			add(dto.S3Object{Key: item.Path})
			continue
		}
		err := e.store.ListAllUnderPrefix(ctx, bucket, item.Path, func(obj dto.S3Object) error {
			add(obj)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("cannot expand %s: %w", item.Path, err)
		}
	}

	e.log.Debug("Selection expanded",
		slog.String("bucket", bucket),
		slog.Int("items", len(sel)),
		slog.Int("keys", len(keys)))
	return keys, nil
}

// Execute downloads keys below destRoot, mirroring the key layout.
//
// Cancellation (cancel or ctx) is checked before each file starts; a file
// already transferring runs to its end. A failed file is recorded in the
// report and the job goes on. With no keys the job completes at once
// without calling onProgress.
func (e *Engine) Execute(
	ctx context.Context,
	bucket string,
	keys []string,
	destRoot string,
	onProgress ProgressFunc,
	cancel *CancelSignal,
) *Report {
	total := len(keys)
	report := &Report{Outcome: OutcomeCompleted, Total: total}
	if total == 0 {
		e.log.Info("Nothing to download", slog.String("bucket", bucket))
		return report
	}

	stopped := func() bool {
		return cancel.Requested() || ctx.Err() != nil
	}

	var (
		mu      sync.Mutex
		results = make([]*FileResult, total)
	)
	record := func(i int, res FileResult) {
		mu.Lock()
		defer mu.Unlock()
		results[i] = &res
		report.Processed++
		if res.Err == nil {
			report.Succeeded++
		}
		if onProgress != nil {
			onProgress(Progress{
				Processed: report.Processed,
				Total:     total,
				Percent:   float64(report.Processed*100) / float64(total),
			})
		}
	}

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, key := range keys {
		if stopped() {
			break
		}
		g.Go(func() error {
			// the slot may have been granted after a cancel request
			if stopped() {
				return nil
			}
			record(i, e.fetch(ctx, bucket, key, destRoot))
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res == nil {
			continue
		}
		report.Results = append(report.Results, *res)
		if res.Err != nil {
			report.Failed = append(report.Failed, *res)
		}
	}
	// every key is attempted unless the job was stopped
	if report.Processed < total {
		report.Outcome = OutcomeCanceled
	}

	e.log.Info("Download finished",
		slog.String("bucket", bucket),
		slog.String("outcome", report.Outcome.String()),
		slog.Int("processed", report.Processed),
		slog.Int("failed", len(report.Failed)),
		slog.Int("total", total))
	return report
}

func (e *Engine) fetch(ctx context.Context, bucket, key, destRoot string) FileResult {
	res := FileResult{Key: key}
	localPath, err := LocalPath(destRoot, key)
	if err != nil {
		res.Err = err
		e.log.Error("Skipping key", slog.String("key", key), slog.String("error", err.Error()))
		return res
	}
	res.LocalPath = localPath

	if err := os.MkdirAll(filepath.Dir(localPath), 0o750); err != nil {
		res.Err = fmt.Errorf("cannot create directory for %s: %w", localPath, err)
		e.log.Error("Error creating directory", slog.String("key", key), slog.String("error", err.Error()))
		return res
	}
	if err := e.store.DownloadObject(ctx, bucket, key, localPath); err != nil {
		res.Err = err
		e.log.Error("Error downloading file", slog.String("key", key), slog.String("error", err.Error()))
		return res
	}
	return res
}

// LocalPath is destRoot joined with key, leading slashes removed.
// It fails with ErrUnsafeKey when the result would leave destRoot.
func LocalPath(destRoot, key string) (string, error) {
	rel := filepath.FromSlash(strings.TrimLeft(key, "/"))
	if !filepath.IsLocal(rel) || filepath.Clean(rel) == "." {
		return "", fmt.Errorf("%w: %q", ErrUnsafeKey, key)
	}
	return filepath.Join(destRoot, rel), nil
}

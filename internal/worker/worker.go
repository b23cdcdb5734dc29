package worker

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"photomark/internal/imgproc"
	"photomark/internal/metrics"
	"photomark/internal/models"
	"photomark/internal/objstore"
)

const (
	ioRetries    = 3
	retryDelay   = 200 * time.Millisecond
	cleanupDelay = 50 * time.Millisecond
)

// StatusStore is the durable job/image status record the worker reports to.
type StatusStore interface {
	StartJob(ctx context.Context, jobID, imageID uuid.UUID, attempt int) error
	SetProgress(ctx context.Context, jobID uuid.UUID, progress int) error
	CompleteJob(ctx context.Context, jobID, imageID uuid.UUID, processedKey string) error
	FailJob(ctx context.Context, jobID, imageID uuid.UUID) error
}

// ObjectStore moves byte streams to and from bucket keys.
type ObjectStore interface {
	Put(key string, data []byte, contentType string) (string, error)
	Get(key string) ([]byte, error)
}

// Assets are the fixed logo rasters composited onto every product image.
// They are decoded once at startup; a missing or corrupt asset is a
// permanent failure, not something to retry per job.
type Assets struct {
	Background image.Image
	Badge      image.Image
}

func LoadAssets(cfg models.LogoConfig) (Assets, error) {
	back, err := imaging.Open(cfg.Background)
	if err != nil {
		return Assets{}, fmt.Errorf("worker: open background logo: %w", err)
	}
	badge, err := imaging.Open(cfg.Badge)
	if err != nil {
		return Assets{}, fmt.Errorf("worker: open badge logo: %w", err)
	}
	return Assets{Background: back, Badge: badge}, nil
}

// Worker drives one job through download, background removal, compositing,
// upload and status bookkeeping. It keeps no state between jobs.
type Worker struct {
	store      StatusStore
	objects    ObjectStore
	assets     Assets
	scratchDir string
	log        *zerolog.Logger
}

func New(store StatusStore, objects ObjectStore, assets Assets, scratchDir string, log *zerolog.Logger) (*Worker, error) {
	if err := os.MkdirAll(scratchDir, 0755); err != nil {
		return nil, fmt.Errorf("worker: create scratch dir: %w", err)
	}
	return &Worker{
		store:      store,
		objects:    objects,
		assets:     assets,
		scratchDir: scratchDir,
		log:        log,
	}, nil
}

// Process runs the full pipeline for one job. Both status records move to
// processing before any I/O starts; on any pipeline failure both are marked
// failed before the error propagates to the queue's retry policy. Scratch
// files are removed on every exit path and a cleanup failure never masks
// the processing outcome.
func (w *Worker) Process(ctx context.Context, job models.Job) error {
	start := time.Now()
	log := w.log.With().
		Str("job_id", job.ID.String()).
		Str("image_id", job.ImageID.String()).
		Int("attempt", job.Attempt).
		Logger()

	if err := w.store.StartJob(ctx, job.ID, job.ImageID, job.Attempt); err != nil {
		return fmt.Errorf("worker: start job %s: %w", job.ID, err)
	}
	log.Info().Msg("job started")

	var scratch []string
	defer func() {
		w.cleanup(scratch, &log)
		metrics.ObserveJobDuration(time.Since(start).Seconds())
	}()

	if err := w.run(ctx, job, &scratch); err != nil {
		if failErr := w.store.FailJob(ctx, job.ID, job.ImageID); failErr != nil {
			log.Error().Err(failErr).Msg("recording failed status failed")
		}
		metrics.IncJobProcessed(models.StatusFailed)
		log.Error().Err(err).Msg("job failed")
		return err
	}

	metrics.IncJobProcessed(models.StatusCompleted)
	log.Info().Dur("took", time.Since(start)).Msg("job completed")
	return nil
}

func (w *Worker) run(ctx context.Context, job models.Job, scratch *[]string) error {
	srcPath := filepath.Join(w.scratchDir, "job-"+job.ID.String()+filepath.Ext(job.OriginalKey))
	outPath := filepath.Join(w.scratchDir, "job-"+job.ID.String()+".out.png")

	var original []byte
	err := withRetry(ioRetries, retryDelay, func() error {
		var getErr error
		original, getErr = w.objects.Get(job.OriginalKey)
		return getErr
	})
	if err != nil {
		return fmt.Errorf("worker: download %s: %w", job.OriginalKey, err)
	}
	*scratch = append(*scratch, srcPath)
	if err := os.WriteFile(srcPath, original, 0644); err != nil {
		return fmt.Errorf("worker: write scratch file: %w", err)
	}
	w.progress(ctx, job.ID, 10)

	src, err := imaging.Open(srcPath)
	if err != nil {
		return fmt.Errorf("worker: decode %s: %w", job.OriginalKey, err)
	}

	cut := imgproc.RemoveBackground(src, imgproc.DefaultTolerance)
	w.progress(ctx, job.ID, 40)

	final := imgproc.Composite(cut, w.assets.Background, w.assets.Badge)
	if err := imgproc.DrawLabel(final, job.HumanLabel); err != nil {
		return err
	}
	w.progress(ctx, job.ID, 70)

	*scratch = append(*scratch, outPath)
	if err := imaging.Save(final, outPath); err != nil {
		return fmt.Errorf("worker: encode result: %w", err)
	}

	result, err := os.ReadFile(outPath)
	if err != nil {
		return fmt.Errorf("worker: read result: %w", err)
	}

	key := objstore.ProcessedKey(job.ImageID.String())
	err = withRetry(ioRetries, retryDelay, func() error {
		_, putErr := w.objects.Put(key, result, "image/png")
		return putErr
	})
	if err != nil {
		return fmt.Errorf("worker: upload %s: %w", key, err)
	}
	w.progress(ctx, job.ID, 90)

	if err := w.store.CompleteJob(ctx, job.ID, job.ImageID, key); err != nil {
		return fmt.Errorf("worker: complete job %s: %w", job.ID, err)
	}
	return nil
}

// progress writes are best-effort; a lost checkpoint is not a job failure.
func (w *Worker) progress(ctx context.Context, jobID uuid.UUID, pct int) {
	if err := w.store.SetProgress(ctx, jobID, pct); err != nil {
		w.log.Warn().Err(err).Str("job_id", jobID.String()).Msg("progress update failed")
	}
}

func (w *Worker) cleanup(paths []string, log *zerolog.Logger) {
	for _, path := range paths {
		err := withRetry(ioRetries, cleanupDelay, func() error {
			err := os.Remove(path)
			if os.IsNotExist(err) {
				return nil
			}
			return err
		})
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("scratch cleanup failed")
		}
	}
}

func withRetry(attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return err
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"photomark/internal/models"
)

// ErrNotFound is returned when a job or image id is unknown.
var ErrNotFound = errors.New("not found")

type Storage struct {
	pool *pgxpool.Pool
}

func NewStorage(dsn string) (*Storage, error) {
	const op = "storage.NewStorage"

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := runMigrations(db); err != nil {
		db.Close()
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.Close(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
}

func (s *Storage) CreateImage(ctx context.Context, img *models.Image) error {
	const op = "storage.CreateImage"

	_, err := s.pool.Exec(ctx,
		`INSERT INTO images (id, original_key, status) VALUES ($1, $2, $3)`,
		img.ID, img.OriginalKey, img.Status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) GetImage(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	const op = "storage.GetImage"

	var img models.Image
	err := s.pool.QueryRow(ctx,
		`SELECT id, original_key, processed_key, is_watermarked, job_id, status, created_at
		 FROM images WHERE id = $1`, id).
		Scan(&img.ID, &img.OriginalKey, &img.ProcessedKey, &img.IsWatermarked,
			&img.JobID, &img.Status, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &img, nil
}

// RecordEnqueued links a freshly enqueued job to its image and creates the
// queued status row. The consumer may race us here, so the status insert
// never downgrades a row the worker already advanced.
func (s *Storage) RecordEnqueued(ctx context.Context, jobID, imageID uuid.UUID) error {
	const op = "storage.RecordEnqueued"

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE images SET job_id = $2 WHERE id = $1`, imageID, jobID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO job_statuses (job_id, image_id, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (job_id) DO NOTHING`,
		jobID, imageID, models.StatusQueued)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// StartJob moves the job and its image to processing before any pipeline I/O
// begins. Upserts because redelivery may arrive before RecordEnqueued commits.
func (s *Storage) StartJob(ctx context.Context, jobID, imageID uuid.UUID, attempt int) error {
	const op = "storage.StartJob"

	now := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO job_statuses (job_id, image_id, status, progress, attempt, started_at, finished_at)
		 VALUES ($1, $2, $3, 0, $4, $5, NULL)
		 ON CONFLICT (job_id) DO UPDATE
		 SET status = $3, progress = 0, attempt = $4, started_at = $5, finished_at = NULL`,
		jobID, imageID, models.StatusProcessing, attempt, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE images SET status = $2 WHERE id = $1`, imageID, models.StatusProcessing)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetProgress advances the progress percentage. GREATEST keeps it
// monotonically non-decreasing within an attempt.
func (s *Storage) SetProgress(ctx context.Context, jobID uuid.UUID, progress int) error {
	const op = "storage.SetProgress"

	_, err := s.pool.Exec(ctx,
		`UPDATE job_statuses SET progress = GREATEST(progress, $2) WHERE job_id = $1`,
		jobID, progress)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) CompleteJob(ctx context.Context, jobID, imageID uuid.UUID, processedKey string) error {
	const op = "storage.CompleteJob"

	now := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE job_statuses SET status = $2, progress = 100, finished_at = $3 WHERE job_id = $1`,
		jobID, models.StatusCompleted, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE images SET status = $2, processed_key = $3, is_watermarked = TRUE WHERE id = $1`,
		imageID, models.StatusCompleted, processedKey)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) FailJob(ctx context.Context, jobID, imageID uuid.UUID) error {
	const op = "storage.FailJob"

	now := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE job_statuses SET status = $2, finished_at = $3 WHERE job_id = $1`,
		jobID, models.StatusFailed, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE images SET status = $2 WHERE id = $1`, imageID, models.StatusFailed)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) GetJobStatus(ctx context.Context, jobID uuid.UUID) (*models.JobStatus, error) {
	const op = "storage.GetJobStatus"

	var st models.JobStatus
	err := s.pool.QueryRow(ctx,
		`SELECT job_id, image_id, status, progress, attempt, started_at, finished_at
		 FROM job_statuses WHERE job_id = $1`, jobID).
		Scan(&st.JobID, &st.ImageID, &st.Status, &st.Progress, &st.Attempt,
			&st.StartedAt, &st.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &st, nil
}

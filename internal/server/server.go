package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"photomark/internal/metrics"
	"photomark/internal/models"
	"photomark/internal/objstore"
	"photomark/internal/storage"
)

type ImageStore interface {
	CreateImage(ctx context.Context, img *models.Image) error
	GetImage(ctx context.Context, id uuid.UUID) (*models.Image, error)
	RecordEnqueued(ctx context.Context, jobID, imageID uuid.UUID) error
	GetJobStatus(ctx context.Context, jobID uuid.UUID) (*models.JobStatus, error)
}

type ObjectStore interface {
	Put(key string, data []byte, contentType string) (string, error)
	SignedURL(key string, ttl time.Duration) (string, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, imageID uuid.UUID, originalKey, humanLabel string) (uuid.UUID, error)
}

type Server struct {
	cfg     *models.Config
	router  *gin.Engine
	db      ImageStore
	objects ObjectStore
	queue   Enqueuer
	log     *zerolog.Logger
	http    *http.Server
}

func NewServer(cfg *models.Config, db ImageStore, objects ObjectStore, queue Enqueuer, log *zerolog.Logger) *Server {
	r := gin.Default()

	s := &Server{cfg: cfg, router: r, db: db, objects: objects, queue: queue, log: log}

	r.POST("/upload", s.handleUpload)
	r.GET("/jobs/:id", s.handleJobStatus)
	r.GET("/images/:id", s.handleGetImage)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

func (s *Server) Start() error {
	s.http = &http.Server{Addr: s.cfg.ServerAddr, Handler: s.router}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) {
	if s.http != nil {
		_ = s.http.Shutdown(ctx)
	}
}

// Router is exposed for handler tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleUpload(c *gin.Context) {
	const op = "server.handleUpload"

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	label := c.PostForm("label")

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}

	id := uuid.New()
	key := objstore.OriginalKey(id.String(), filepath.Ext(file.Filename))
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := s.objects.Put(key, data, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}

	img := models.Image{
		ID:          id,
		OriginalKey: key,
		Status:      models.StatusQueued,
	}
	if err := s.db.CreateImage(c.Request.Context(), &img); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}

	jobID, err := s.queue.Enqueue(c.Request.Context(), id, key, label)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}
	if err := s.db.RecordEnqueued(c.Request.Context(), jobID, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}

	metrics.IncUpload()
	c.JSON(http.StatusAccepted, gin.H{"image_id": id.String(), "job_id": jobID.String()})
}

func (s *Server) handleJobStatus(c *gin.Context) {
	const op = "server.handleJobStatus"

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}

	st, err := s.db.GetJobStatus(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":      st.JobID.String(),
		"status":      st.Status,
		"progress":    st.Progress,
		"attempt":     st.Attempt,
		"started_at":  st.StartedAt,
		"finished_at": st.FinishedAt,
	})
}

func (s *Server) handleGetImage(c *gin.Context) {
	const op = "server.handleGetImage"

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}

	img, err := s.db.GetImage(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}

	resp := gin.H{
		"image_id":       img.ID.String(),
		"status":         img.Status,
		"is_watermarked": img.IsWatermarked,
	}
	if img.JobID != nil {
		resp["job_id"] = img.JobID.String()
	}
	if img.IsWatermarked && img.ProcessedKey != nil {
		url, err := s.objects.SignedURL(*img.ProcessedKey, s.cfg.Storage.SignedURLTTL())
		if err != nil {
			s.log.Error().Err(err).Str("image_id", img.ID.String()).Msg("signing processed URL failed")
		} else {
			resp["processed_url"] = url
		}
	}
	c.JSON(http.StatusOK, resp)
}

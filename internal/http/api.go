package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ytfetch/internal/domain"
	"ytfetch/internal/downloader"
	"ytfetch/internal/metadata"
	"ytfetch/internal/storage"
)

// Handler wires HTTP routes to the download manager and scratch storage.
type Handler struct {
	manager downloader.Manager
	store   *storage.Manager
	meta    *metadata.Service
	logger  *logrus.Logger
}

func NewHandler(manager downloader.Manager, store *storage.Manager, meta *metadata.Service, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		manager: manager,
		store:   store,
		meta:    meta,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/download", h.submitDownload)
		api.GET("/download", h.fetchArtifact)
		api.DELETE("/download/:id", h.cancelDownload)
		api.POST("/video-info", h.videoInfo)
		api.POST("/playlist-info", h.playlistInfo)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-Id")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// submitDownload accepts a download request and streams progress back as
// server-sent event frames until the run reaches a terminal state. The
// artifact itself is fetched afterwards through fetchArtifact.
func (h *Handler) submitDownload(c *gin.Context) {
	var req domain.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.manager.Submit(req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Request-Id", job.ID)
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			// Client disconnected mid-run: terminate the child process
			// and release partial artifacts rather than orphaning them.
			cancelCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := h.manager.Cancel(cancelCtx, job.ID); err != nil {
				h.logger.Warnf("cancel after disconnect: %v", err)
			}
			return
		case ev, ok := <-job.Events:
			if !ok {
				return
			}
			writeEvent(c.Writer, ev)
			c.Writer.Flush()
		}
	}
}

// writeEvent frames one progress payload as "data: <json>\n\n".
func writeEvent(w http.ResponseWriter, ev domain.Event) {
	var payload any
	switch ev.Kind {
	case domain.EventProgress:
		payload = gin.H{"progress": ev.Progress, "size": ev.Size, "speed": ev.Speed, "eta": ev.ETA}
	case domain.EventStatus:
		payload = gin.H{"status": ev.Status}
	case domain.EventComplete:
		payload = gin.H{"status": "complete", "filename": ev.Filename}
	case domain.EventError:
		payload = gin.H{"error": ev.Err}
	default:
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// fetchArtifact serves a finished artifact by its sanitized filename token and
// releases it from scratch storage once the transfer ends, whether the
// transfer succeeded, failed, or was aborted by the client.
func (h *Handler) fetchArtifact(c *gin.Context) {
	name := c.Query("filename")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename is required"})
		return
	}

	path, err := h.store.Locate(name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer h.store.Release(path)

	file, err := os.Open(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	encoded := url.PathEscape(storage.StripToken(filepath.Base(path)))
	c.DataFromReader(http.StatusOK, info.Size(), "application/octet-stream", file, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, encoded, encoded),
	})
}

func (h *Handler) cancelDownload(c *gin.Context) {
	id := c.Param("id")
	cancelCtx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.manager.Cancel(cancelCtx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"canceled": id})
}

type infoRequest struct {
	URL string `json:"url" binding:"required"`
}

func (h *Handler) videoInfo(c *gin.Context) {
	var req infoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	info, err := h.meta.Video(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"videoInfo": info})
}

func (h *Handler) playlistInfo(c *gin.Context) {
	var req infoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	info, err := h.meta.Playlist(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"playlistInfo": info})
}

package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fetcharr/internal/logging"
	"fetcharr/internal/media"
	"fetcharr/internal/requests"
	"fetcharr/internal/tracker"
)

type createRequestBody struct {
	ID          int64  `json:"id" binding:"required"`
	RequestorID int64  `json:"requestor_id" binding:"required"`
	MediaType   string `json:"media_type" binding:"required"`
	Query       string `json:"query" binding:"required"`
}

type selectionBody struct {
	Key int64 `json:"key" binding:"required"`
}

// candidateView is one disambiguation choice. Key is the value the
// front end must echo back on selection.
type candidateView struct {
	Key   int64  `json:"key"`
	Title string `json:"title"`
	Year  int    `json:"year,omitempty"`
	Label string `json:"label"`
}

type requestView struct {
	ID          int64  `json:"id"`
	RequestorID int64  `json:"requestor_id"`
	Name        string `json:"name"`
	MediaType   string `json:"media_type"`
	State       string `json:"state"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func (s *Server) handleHealth(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "requests": stats})
}

func (s *Server) handleCreate(c *gin.Context) {
	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mediaType, ok := media.ParseType(body.MediaType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media_type must be \"movie\" or \"show\""})
		return
	}

	candidates, err := s.engine.Create(c.Request.Context(), tracker.CreateParams{
		ID:          body.ID,
		RequestorID: body.RequestorID,
		MediaType:   mediaType,
		Query:       body.Query,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	views := make([]candidateView, 0, len(candidates))
	for _, item := range candidates {
		views = append(views, candidateView{
			Key:   item.Key(mediaType),
			Title: item.Title,
			Year:  item.Year,
			Label: item.Label(),
		})
	}
	c.JSON(http.StatusCreated, gin.H{"id": body.ID, "candidates": views})
}

func (s *Server) handleSelect(c *gin.Context) {
	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request id must be numeric"})
		return
	}
	var body selectionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.engine.Select(c.Request.Context(), requestID, body.Key); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleList(c *gin.Context) {
	records, err := s.store.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	views := make([]requestView, 0, len(records))
	for _, record := range records {
		views = append(views, requestView{
			ID:          record.ID,
			RequestorID: record.RequestorID,
			Name:        record.Name,
			MediaType:   string(record.MediaType),
			State:       string(record.State),
			CreatedAt:   record.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt:   record.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"requests": views})
}

// writeError maps domain errors onto HTTP statuses. Unmapped errors
// report 502 since they come from a downstream catalog or the store.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, requests.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, tracker.ErrQuotaExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, tracker.ErrInsufficientStorage):
		status = http.StatusInsufficientStorage
	case errors.Is(err, tracker.ErrNoResults):
		status = http.StatusNotFound
	case errors.Is(err, tracker.ErrStaleSelection):
		status = http.StatusGone
	}
	if status == http.StatusBadGateway {
		s.logger.Error("request failed",
			logging.String("correlation_id", c.GetString(requestIDKey)),
			logging.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

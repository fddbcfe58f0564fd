package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kgalign/kgalign/internal/core/attributes"
	"github.com/kgalign/kgalign/internal/core/pipeline"
)

// Server exposes the alignment pipeline over REST.
type Server struct {
	Pipeline *pipeline.Pipeline
}

func NewServer(p *pipeline.Pipeline) *Server {
	return &Server{Pipeline: p}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.Health)
	r.GET("/state", s.GetState)
	r.POST("/align", s.AlignEntity)
	r.POST("/runs", s.RunAlignment)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"run_id": s.Pipeline.RunID(),
		"state":  s.Pipeline.State().String(),
	})
}

type AlignRequest struct {
	SourceID string `json:"source_id"`
}

// AlignEntity matches one source entity on demand and returns its MatchResult.
func (s *Server) AlignEntity(c *gin.Context) {
	var req AlignRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_id is required"})
		return
	}

	result, err := s.Pipeline.AlignEntity(c.Request.Context(), req.SourceID)
	if err != nil {
		if errors.Is(err, attributes.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Failed to align entity %s: %v", req.SourceID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to align entity"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RunAlignment executes the full pipeline and returns the metrics.
func (s *Server) RunAlignment(c *gin.Context) {
	_, metrics, err := s.Pipeline.Run(c.Request.Context())
	if err != nil {
		log.Printf("Alignment run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

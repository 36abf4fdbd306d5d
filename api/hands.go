package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// listHands returns a summary of every tracked hand
func (s *Server) listHands(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"hands": s.manager.ActiveHands()})
}

// getHand returns one tracked hand by its root
func (s *Server) getHand(c *gin.Context) {
	id := c.Param("id")

	hand, ok := s.manager.GetHand(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "hand not found"})
		return
	}

	c.JSON(http.StatusOK, hand)
}

// receiveEvents accepts a wire-format event batch over HTTP and runs it
// through the same dispatch cycle as bus messages
func (s *Server) receiveEvents(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.processor.ProcessEnvelope(ctx, body); err != nil {
		log.Error().Err(err).Msg("Failed to process event batch")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "events processed successfully"})
}

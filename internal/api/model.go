// internal/api/model.go
package api

import (
	"net/http"

	"gym-churn-workers/internal/events"

	"github.com/gin-gonic/gin"
)

// triggerRetrain enqueues a retrain request. Unlike the publishes after a
// store commit, this one has no committed state to fall back on, so a broker
// failure is surfaced to the caller.
func (s *Server) triggerRetrain(c *gin.Context) {
	if s.gateway == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "broker unavailable"})
		return
	}
	if err := s.gateway.Publish(c.Request.Context(), events.RetrainModel()); err != nil {
		s.logger.WithError(err).Error("Failed to enqueue retrain request", nil)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "retrain request could not be queued"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Churn model retrain request queued"})
}

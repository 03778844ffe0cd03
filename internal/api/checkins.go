// internal/api/checkins.go
package api

import (
	"net/http"
	"time"

	"gym-churn-workers/internal/events"
	"gym-churn-workers/internal/store"

	"github.com/gin-gonic/gin"
)

type createCheckinRequest struct {
	StudentID       int64  `json:"student_id" binding:"required"`
	Timestamp       string `json:"timestamp"`
	DurationMinutes *int   `json:"duration_minutes"`
}

type updateCheckinRequest struct {
	StudentID       *int64  `json:"student_id"`
	Timestamp       *string `json:"timestamp"`
	DurationMinutes *int    `json:"duration_minutes"`
}

func (s *Server) listCheckins(c *gin.Context) {
	checkins, err := s.repo.ListCheckins(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkins)
}

func (s *Server) getCheckin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	checkin, err := s.repo.GetCheckin(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkin)
}

func (s *Server) createCheckin(c *gin.Context) {
	var req createCheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if _, err := s.repo.GetStudent(c.Request.Context(), req.StudentID); err != nil {
		writeError(c, err)
		return
	}

	timestamp := s.now().UTC()
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timestamp, expected RFC 3339"})
			return
		}
		timestamp = parsed
	}

	checkin := &store.Checkin{
		StudentID:       req.StudentID,
		Timestamp:       timestamp,
		DurationMinutes: req.DurationMinutes,
	}
	id, err := s.repo.CreateCheckin(c.Request.Context(), checkin)
	if err != nil {
		writeError(c, err)
		return
	}
	checkin.ID = id

	// Publish after commit; the committed row stands even if this fails.
	s.publish(c.Request.Context(), events.NewCheckin(id, req.StudentID, timestamp))

	c.JSON(http.StatusCreated, checkin)
}

func (s *Server) updateCheckin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateCheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	update := store.CheckinUpdate{
		StudentID:       req.StudentID,
		DurationMinutes: req.DurationMinutes,
	}
	if req.StudentID != nil {
		if _, err := s.repo.GetStudent(c.Request.Context(), *req.StudentID); err != nil {
			writeError(c, err)
			return
		}
	}
	if req.Timestamp != nil {
		parsed, err := time.Parse(time.RFC3339, *req.Timestamp)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timestamp, expected RFC 3339"})
			return
		}
		update.Timestamp = &parsed
	}

	if err := s.repo.UpdateCheckin(c.Request.Context(), id, update); err != nil {
		writeError(c, err)
		return
	}

	checkin, err := s.repo.GetCheckin(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkin)
}

func (s *Server) deleteCheckin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.repo.DeleteCheckin(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type bulkCheckinError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type bulkCheckinResponse struct {
	Message      string             `json:"message"`
	ProcessedIDs []int64            `json:"processed_ids"`
	Errors       []bulkCheckinError `json:"errors,omitempty"`
}

// bulkCheckins commits each valid item independently, then publishes one
// bulk_checkin_event for the committed ids. Partial failure returns 207.
func (s *Server) bulkCheckins(c *gin.Context) {
	var items []createCheckinRequest
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a list of check-ins", "details": err.Error()})
		return
	}

	processedIDs := []int64{}
	var itemErrors []bulkCheckinError

	for i, item := range items {
		if item.StudentID <= 0 {
			itemErrors = append(itemErrors, bulkCheckinError{Index: i, Error: "student_id is required"})
			continue
		}
		if _, err := s.repo.GetStudent(c.Request.Context(), item.StudentID); err != nil {
			itemErrors = append(itemErrors, bulkCheckinError{Index: i, Error: err.Error()})
			continue
		}

		timestamp := s.now().UTC()
		if item.Timestamp != "" {
			parsed, err := time.Parse(time.RFC3339, item.Timestamp)
			if err != nil {
				itemErrors = append(itemErrors, bulkCheckinError{Index: i, Error: "invalid timestamp, expected RFC 3339"})
				continue
			}
			timestamp = parsed
		}

		id, err := s.repo.CreateCheckin(c.Request.Context(), &store.Checkin{
			StudentID:       item.StudentID,
			Timestamp:       timestamp,
			DurationMinutes: item.DurationMinutes,
		})
		if err != nil {
			itemErrors = append(itemErrors, bulkCheckinError{Index: i, Error: err.Error()})
			continue
		}
		processedIDs = append(processedIDs, id)
	}

	if len(processedIDs) > 0 {
		s.publish(c.Request.Context(), events.BulkCheckin(processedIDs))
	}

	if len(itemErrors) > 0 {
		c.JSON(http.StatusMultiStatus, bulkCheckinResponse{
			Message:      "Some check-ins could not be processed",
			ProcessedIDs: processedIDs,
			Errors:       itemErrors,
		})
		return
	}
	c.JSON(http.StatusCreated, bulkCheckinResponse{
		Message:      "All check-ins processed and queued",
		ProcessedIDs: processedIDs,
	})
}

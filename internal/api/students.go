// internal/api/students.go
package api

import (
	"net/http"
	"time"

	"gym-churn-workers/internal/churn"
	"gym-churn-workers/internal/store"

	"github.com/gin-gonic/gin"
)

type createStudentRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	BirthDate string `json:"birth_date"`
	PlanID    int64  `json:"plan_id" binding:"required"`
	Status    string `json:"status"`
}

type updateStudentRequest struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	BirthDate *string `json:"birth_date"`
	PlanID    *int64  `json:"plan_id"`
	Status    *string `json:"status"`
}

func (s *Server) listStudents(c *gin.Context) {
	students, err := s.repo.ListStudents(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (s *Server) getStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	student, err := s.repo.GetStudent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (s *Server) createStudent(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	var birthDate *time.Time
	if req.BirthDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.BirthDate, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid birth_date, expected YYYY-MM-DD"})
			return
		}
		birthDate = &parsed
	}

	// The referenced plan must exist before the student row is committed.
	if _, err := s.repo.GetPlan(c.Request.Context(), req.PlanID); err != nil {
		writeError(c, err)
		return
	}

	status := req.Status
	if status == "" {
		status = "Active"
	}

	student := &store.Student{
		Name:      req.Name,
		Email:     req.Email,
		BirthDate: birthDate,
		PlanID:    req.PlanID,
		Status:    status,
	}
	id, err := s.repo.CreateStudent(c.Request.Context(), student)
	if err != nil {
		writeError(c, err)
		return
	}

	created, err := s.repo.GetStudent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	update := store.StudentUpdate{
		Name:   req.Name,
		Email:  req.Email,
		PlanID: req.PlanID,
		Status: req.Status,
	}
	if req.BirthDate != nil {
		parsed, err := time.ParseInLocation("2006-01-02", *req.BirthDate, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid birth_date, expected YYYY-MM-DD"})
			return
		}
		update.BirthDate = &parsed
	}
	if req.PlanID != nil {
		if _, err := s.repo.GetPlan(c.Request.Context(), *req.PlanID); err != nil {
			writeError(c, err)
			return
		}
	}

	if err := s.repo.UpdateStudent(c.Request.Context(), id, update); err != nil {
		writeError(c, err)
		return
	}

	student, err := s.repo.GetStudent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (s *Server) deleteStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.repo.DeleteStudent(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type frequencyHistoryItem struct {
	CheckinID       int64  `json:"checkin_id"`
	Timestamp       string `json:"timestamp"`
	DurationMinutes *int   `json:"duration_minutes,omitempty"`
}

type frequencyResponse struct {
	StudentID     int64                  `json:"student_id"`
	StudentName   string                 `json:"student_name"`
	TotalCheckins int                    `json:"total_checkins"`
	History       []frequencyHistoryItem `json:"history"`
}

func (s *Server) studentFrequency(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	student, err := s.repo.GetStudent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	checkins, err := s.repo.ListCheckinsByStudent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	history := make([]frequencyHistoryItem, 0, len(checkins))
	for _, checkin := range checkins {
		history = append(history, frequencyHistoryItem{
			CheckinID:       checkin.ID,
			Timestamp:       checkin.Timestamp.Format(time.RFC3339),
			DurationMinutes: checkin.DurationMinutes,
		})
	}

	c.JSON(http.StatusOK, frequencyResponse{
		StudentID:     student.ID,
		StudentName:   student.Name,
		TotalCheckins: len(history),
		History:       history,
	})
}

func (s *Server) studentChurnRisk(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	student, err := s.repo.GetStudent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	checkins, err := s.repo.ListCheckinsByStudent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	records := make([]churn.CheckinRecord, 0, len(checkins))
	for _, checkin := range checkins {
		records = append(records, churn.CheckinRecord{
			ID:              checkin.ID,
			StudentID:       checkin.StudentID,
			Timestamp:       checkin.Timestamp,
			DurationMinutes: checkin.DurationMinutes,
		})
	}

	assessment := s.risk.AssessRisk(c.Request.Context(), churn.StudentProfile{
		ID:       student.ID,
		Name:     student.Name,
		PlanName: student.PlanName,
	}, records)

	c.JSON(http.StatusOK, assessment)
}

// internal/api/api.go
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"gym-churn-workers/internal/churn"
	apperrors "gym-churn-workers/internal/common/errors"
	"gym-churn-workers/internal/common/logger"
	"gym-churn-workers/internal/queue"
	"gym-churn-workers/internal/store"

	"github.com/gin-gonic/gin"
)

// Repository is the store surface the API needs.
type Repository interface {
	ListPlans(ctx context.Context) ([]store.Plan, error)
	GetPlan(ctx context.Context, id int64) (*store.Plan, error)

	ListStudents(ctx context.Context) ([]store.Student, error)
	GetStudent(ctx context.Context, id int64) (*store.Student, error)
	CreateStudent(ctx context.Context, st *store.Student) (int64, error)
	UpdateStudent(ctx context.Context, id int64, update store.StudentUpdate) error
	DeleteStudent(ctx context.Context, id int64) error

	ListCheckins(ctx context.Context) ([]store.Checkin, error)
	GetCheckin(ctx context.Context, id int64) (*store.Checkin, error)
	CreateCheckin(ctx context.Context, c *store.Checkin) (int64, error)
	UpdateCheckin(ctx context.Context, id int64, update store.CheckinUpdate) error
	DeleteCheckin(ctx context.Context, id int64) error
	ListCheckinsByStudent(ctx context.Context, studentID int64) ([]store.Checkin, error)
}

// RiskAssessor is the synchronous scoring path.
type RiskAssessor interface {
	AssessRisk(ctx context.Context, student churn.StudentProfile, checkins []churn.CheckinRecord) churn.RiskAssessment
}

// Server holds the API dependencies.
type Server struct {
	repo    Repository
	risk    RiskAssessor
	gateway queue.Gateway
	logger  logger.Logger
	now     func() time.Time
}

// NewServer creates the API server.
func NewServer(repo Repository, risk RiskAssessor, gateway queue.Gateway, log logger.Logger) *Server {
	return &Server{
		repo:    repo,
		risk:    risk,
		gateway: gateway,
		logger:  log,
		now:     time.Now,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.home)

	router.GET("/plans", s.listPlans)
	router.GET("/plans/:id", s.getPlan)

	router.GET("/students", s.listStudents)
	router.POST("/students", s.createStudent)
	router.GET("/students/:id", s.getStudent)
	router.PUT("/students/:id", s.updateStudent)
	router.DELETE("/students/:id", s.deleteStudent)
	router.GET("/students/:id/frequency", s.studentFrequency)
	router.GET("/students/:id/churn-risk", s.studentChurnRisk)

	router.GET("/checkins", s.listCheckins)
	router.POST("/checkins", s.createCheckin)
	router.POST("/checkins/bulk", s.bulkCheckins)
	router.GET("/checkins/:id", s.getCheckin)
	router.PUT("/checkins/:id", s.updateCheckin)
	router.DELETE("/checkins/:id", s.deleteCheckin)

	router.POST("/model/retrain", s.triggerRetrain)

	return router
}

func (s *Server) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Gym management and churn prediction API"})
}

// publish is best-effort: failures are logged and the caller's committed state
// stands.
func (s *Server) publish(ctx context.Context, message interface{}) {
	if s.gateway == nil {
		return
	}
	if err := s.gateway.Publish(ctx, message); err != nil {
		s.logger.WithError(err).Error("Event publish failed after commit", nil)
	}
}

// writeError maps application errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsNotFound(err):
		status = http.StatusNotFound
	case apperrors.CodeOf(err) == apperrors.ErrCodeValidationFailed:
		status = http.StatusBadRequest
	}

	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		c.JSON(status, gin.H{"error": stdErr.Message, "details": stdErr.Details})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

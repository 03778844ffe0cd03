// internal/api/plans.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) listPlans(c *gin.Context) {
	plans, err := s.repo.ListPlans(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (s *Server) getPlan(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	plan, err := s.repo.GetPlan(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

package handler

import (
	"net/http"

	"anoa.com/learnhub/internal/modules/dashboard/service"
	"anoa.com/learnhub/pkg/response"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(service service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) StudentDashboard(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	dashboard, err := h.service.StudentDashboard(c.Request.Context(), identity)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dashboard})
}

func (h *DashboardHandler) TeacherAnalytics(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	analytics, err := h.service.TeacherAnalytics(c.Request.Context(), identity)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": analytics})
}

func (h *DashboardHandler) AdminOverview(c *gin.Context) {
	overview, err := h.service.AdminOverview(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": overview})
}

package handler

import (
	"net/http"

	"anoa.com/learnhub/internal/modules/progress/dto"
	"anoa.com/learnhub/internal/modules/progress/service"
	"anoa.com/learnhub/pkg/response"
	"anoa.com/learnhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ProgressHandler struct {
	service service.ProgressService
}

func NewProgressHandler(service service.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: service}
}

func (h *ProgressHandler) SetProgress(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	chapterID, err := response.ParamUUID(c, "chapterId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	progress, err := h.service.SetProgress(c.Request.Context(), identity, chapterID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": progress})
}

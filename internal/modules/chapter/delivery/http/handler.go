package handler

import (
	"net/http"

	"anoa.com/learnhub/internal/modules/chapter/dto"
	"anoa.com/learnhub/internal/modules/chapter/service"
	"anoa.com/learnhub/pkg/response"
	"anoa.com/learnhub/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChapterHandler struct {
	service service.ChapterService
}

func NewChapterHandler(service service.ChapterService) *ChapterHandler {
	return &ChapterHandler{service: service}
}

func chapterParams(c *gin.Context) (uuid.UUID, uuid.UUID, error) {
	courseID, err := response.ParamUUID(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	chapterID, err := response.ParamUUID(c, "chapterId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return courseID, chapterID, nil
}

func (h *ChapterHandler) CreateChapter(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	courseID, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	chapter, err := h.service.CreateChapter(c.Request.Context(), identity, courseID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "chapter created successfully", "data": chapter})
}

func (h *ChapterHandler) UpdateChapter(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	courseID, chapterID, err := chapterParams(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.UpdateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	chapter, err := h.service.UpdateChapter(c.Request.Context(), identity, courseID, chapterID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "chapter updated successfully", "data": chapter})
}

func (h *ChapterHandler) DeleteChapter(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	courseID, chapterID, err := chapterParams(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeleteChapter(c.Request.Context(), identity, courseID, chapterID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "chapter deleted successfully"})
}

func (h *ChapterHandler) ReorderChapters(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	courseID, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	chapters, err := h.service.ReorderChapters(c.Request.Context(), identity, courseID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "chapters reordered", "data": chapters})
}

func (h *ChapterHandler) PublishChapter(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	courseID, chapterID, err := chapterParams(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	chapter, err := h.service.PublishChapter(c.Request.Context(), identity, courseID, chapterID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "chapter published", "data": chapter})
}

func (h *ChapterHandler) UnpublishChapter(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	courseID, chapterID, err := chapterParams(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	chapter, err := h.service.UnpublishChapter(c.Request.Context(), identity, courseID, chapterID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "chapter unpublished", "data": chapter})
}

func (h *ChapterHandler) GetCompleteness(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	courseID, chapterID, err := chapterParams(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	result, err := h.service.Completeness(c.Request.Context(), identity, courseID, chapterID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *ChapterHandler) GetChapter(c *gin.Context) {
	courseID, chapterID, err := chapterParams(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	chapter, err := h.service.GetChapter(c.Request.Context(), response.GetIdentity(c), courseID, chapterID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": chapter})
}

func (h *ChapterHandler) AddMaterial(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	courseID, chapterID, err := chapterParams(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	material, err := h.service.AddMaterial(c.Request.Context(), identity, courseID, chapterID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "material added", "data": material})
}

func (h *ChapterHandler) DeleteMaterial(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	courseID, chapterID, err := chapterParams(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	materialID, err := response.ParamUUID(c, "materialId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeleteMaterial(c.Request.Context(), identity, courseID, chapterID, materialID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "material deleted"})
}

func (h *ChapterHandler) AddAssignment(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	courseID, chapterID, err := chapterParams(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	assignment, err := h.service.AddAssignment(c.Request.Context(), identity, courseID, chapterID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "assignment added", "data": assignment})
}

func (h *ChapterHandler) DeleteAssignment(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	courseID, chapterID, err := chapterParams(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	assignmentID, err := response.ParamUUID(c, "assignmentId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeleteAssignment(c.Request.Context(), identity, courseID, chapterID, assignmentID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "assignment deleted"})
}

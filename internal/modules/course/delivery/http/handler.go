package handler

import (
	"net/http"

	"anoa.com/learnhub/internal/modules/course/dto"
	"anoa.com/learnhub/internal/modules/course/service"
	"anoa.com/learnhub/pkg/response"
	"anoa.com/learnhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

const maxImageSize = 5 << 20

type CourseHandler struct {
	service service.CourseService
}

func NewCourseHandler(service service.CourseService) *CourseHandler {
	return &CourseHandler{service: service}
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	course, err := h.service.CreateCourse(c.Request.Context(), identity, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "course created successfully", "data": course})
}

func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	course, err := h.service.UpdateCourse(c.Request.Context(), identity, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "course updated successfully", "data": course})
}

func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeleteCourse(c.Request.Context(), identity, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "course deleted successfully"})
}

// GetCourse works for anonymous callers; OptionalAuth attaches the identity when present.
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	course, err := h.service.GetCourse(c.Request.Context(), response.GetIdentity(c), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": course})
}

func (h *CourseHandler) GetCompleteness(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	result, err := h.service.Completeness(c.Request.Context(), identity, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *CourseHandler) PublishCourse(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	course, err := h.service.PublishCourse(c.Request.Context(), identity, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "course published", "data": course})
}

func (h *CourseHandler) UnpublishCourse(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	course, err := h.service.UnpublishCourse(c.Request.Context(), identity, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "course unpublished", "data": course})
}

func (h *CourseHandler) ListCourses(c *gin.Context) {
	var filter dto.CatalogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	page, err := h.service.ListCatalog(c.Request.Context(), response.GetIdentity(c), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *CourseHandler) SearchCourses(c *gin.Context) {
	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	courses, err := h.service.SearchCourses(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": courses})
}

func (h *CourseHandler) TeacherCourses(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	courses, err := h.service.TeacherCourses(c.Request.Context(), identity)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": courses})
}

func (h *CourseHandler) UploadImage(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}
	if header.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image must be 5MB or smaller"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
		return
	}
	defer file.Close()

	course, err := h.service.UploadImage(c.Request.Context(), identity, id, file, header.Filename)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "course image updated", "data": course})
}

package handler

import (
	"net/http"
	"strconv"

	"anoa.com/learnhub/internal/modules/attachment/service"
	"anoa.com/learnhub/pkg/response"
	"github.com/gin-gonic/gin"
)

const maxAttachmentSize = 20 << 20

type AttachmentHandler struct {
	service service.AttachmentService
}

func NewAttachmentHandler(service service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
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

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > maxAttachmentSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be 20MB or smaller"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer file.Close()

	resp, err := h.service.UploadAttachment(c.Request.Context(), identity, courseID, file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "attachment uploaded", "data": resp})
}

func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
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
	attachmentID, err := strconv.ParseUint(c.Param("attachmentId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attachmentId"})
		return
	}

	if err := h.service.DeleteAttachment(c.Request.Context(), identity, courseID, uint(attachmentID)); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "attachment deleted"})
}

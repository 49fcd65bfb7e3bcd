package handler

import (
	"net/http"

	"anoa.com/learnhub/internal/modules/enrollment/dto"
	"anoa.com/learnhub/internal/modules/enrollment/service"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/apperror"
	"anoa.com/learnhub/pkg/response"
	"anoa.com/learnhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

type EnrollmentHandler struct {
	service service.EnrollmentService
}

func NewEnrollmentHandler(service service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

func (h *EnrollmentHandler) Apply(c *gin.Context) {
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

	var req dto.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	app, err := h.service.Apply(c.Request.Context(), identity, courseID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "application submitted", "data": app})
}

func (h *EnrollmentHandler) GetEntitlement(c *gin.Context) {
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

	ent, err := h.service.ResolveEntitlement(c.Request.Context(), identity.UserID, courseID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ent})
}

func (h *EnrollmentHandler) MyApplications(c *gin.Context) {
	identity, err := response.RequireIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	apps, err := h.service.MyApplications(c.Request.Context(), identity)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": apps})
}

func (h *EnrollmentHandler) ListApplications(c *gin.Context) {
	var filter dto.ApplicationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.ListApplications(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// TransitionApplication handles POST /admin/applications/:id/:action.
func (h *EnrollmentHandler) TransitionApplication(c *gin.Context) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	action, err := policy.ParseAction(c.Param("action"))
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, err.Error(), apperror.ErrBadRequest))
		return
	}

	status, err := h.service.TransitionApplication(c.Request.Context(), id, action)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "application updated", "status": status})
}

func (h *EnrollmentHandler) DeleteApplication(c *gin.Context) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeleteApplication(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "application deleted"})
}

func (h *EnrollmentHandler) GrantPurchase(c *gin.Context) {
	courseID, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.GrantPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.service.GrantPurchase(c.Request.Context(), courseID, req.UserID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "access granted"})
}

func (h *EnrollmentHandler) RevokePurchase(c *gin.Context) {
	courseID, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	userID, err := response.ParamUUID(c, "userId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.RevokePurchase(c.Request.Context(), courseID, userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "access revoked"})
}

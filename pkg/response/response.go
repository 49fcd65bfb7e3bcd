package response

import (
	"errors"
	"net/http"

	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/apperror"
	"anoa.com/learnhub/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CtxSubject  = "subject"
	CtxIdentity = "identity"
)

var log = logger.Nop()

// SetLogger routes internal error logging through the application logger.
func SetLogger(l *logger.Logger) {
	if l != nil {
		log = l
	}
}

// GetIdentity returns the caller resolved by the identity middleware, or nil for anonymous requests.
func GetIdentity(c *gin.Context) *policy.Identity {
	v, exists := c.Get(CtxIdentity)
	if !exists {
		return nil
	}
	identity, _ := v.(*policy.Identity)
	return identity
}

// RequireIdentity is GetIdentity for routes that need a signed-in caller.
func RequireIdentity(c *gin.Context) (*policy.Identity, error) {
	identity := GetIdentity(c)
	if identity == nil {
		return nil, apperror.ErrUnauthorized
	}
	return identity, nil
}

// ParamUUID parses a path parameter as a UUID.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.New(http.StatusBadRequest, "invalid "+name, apperror.ErrBadRequest)
	}
	return id, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.Error("internal error", "path", c.FullPath(), "error", err)
		c.JSON(code, gin.H{"error": apperror.ErrInternal.Error()})
		return
	}

	var vErr *apperror.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(code, gin.H{"error": vErr.Message, "missing": vErr.Missing})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		c.JSON(code, gin.H{"error": appErr.Message})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

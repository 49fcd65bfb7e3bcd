package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/learnhub/internal/modules/user/repository"
	"anoa.com/learnhub/internal/modules/user/service"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/internal/testutil"
	"anoa.com/learnhub/pkg/logger"
	"anoa.com/learnhub/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateRoleHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, "admin@example.com", policy.RoleAdmin)
	target := testutil.CreateUser(t, db, "t@example.com", policy.RoleUser)

	h := NewUserHandler(service.NewUserService(repository.NewUserRepository(db), policy.NewClassifier(nil), logger.Nop()))
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(response.CtxIdentity, testutil.IdentityOf(admin)) })
	r.PUT("/users/:id/role", h.UpdateRole)
	r.GET("/me", h.Me)

	body, _ := json.Marshal(map[string]string{"role": "teacher"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/users/"+target.ID.String()+"/role", bytes.NewReader(body)))
	assert.Equal(t, http.StatusOK, w.Code)

	body, _ = json.Marshal(map[string]string{"role": "janitor"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/users/"+target.ID.String()+"/role", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/users/not-a-uuid/role", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		Data struct {
			Capabilities policy.Capabilities `json:"capabilities"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.True(t, me.Data.Capabilities.IsAdmin)
}

func TestGoogleCallbackRejectsBadState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(nil, false)

	r := gin.New()
	r.GET("/callback", h.GoogleCallback)

	req := httptest.NewRequest(http.MethodGet, "/callback?state=abc&code=x", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "other"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

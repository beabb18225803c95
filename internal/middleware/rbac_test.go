package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/uniportal/portal-api/internal/models"
)

func performWithClaims(t *testing.T, claims *models.JWTClaims, mw gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/protected", nil)
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}
	mw(c)
	if !c.IsAborted() {
		c.Status(http.StatusOK)
	}
	return w
}

func TestRequireTypesAllowsListedType(t *testing.T) {
	w := performWithClaims(t, &models.JWTClaims{UserID: 1, Type: models.UserTypeAdmin}, RequireTypes(models.UserTypeAdmin))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireTypesBlocksOtherTypes(t *testing.T) {
	w := performWithClaims(t, &models.JWTClaims{UserID: 1, Type: models.UserTypeStudent}, RequireTypes(models.UserTypeAdmin))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireTypesWithoutClaims(t *testing.T) {
	w := performWithClaims(t, nil, RequireTypes(models.UserTypeAdmin))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireNonAdmin(t *testing.T) {
	w := performWithClaims(t, &models.JWTClaims{UserID: 1, Type: models.UserTypeGraduate}, RequireNonAdmin())
	assert.Equal(t, http.StatusOK, w.Code)

	w = performWithClaims(t, &models.JWTClaims{UserID: 1, Type: models.UserTypeAdmin}, RequireNonAdmin())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

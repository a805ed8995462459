package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/academia-sys/academia-api/internal/models"
)

func rbacRouter(principal *models.Principal, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/resource/:id", func(c *gin.Context) {
		if principal != nil {
			c.Set(ContextUserKey, principal)
		}
		c.Next()
	}, RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func ptrInt64(v int64) *int64 { return &v }

func TestRBACAllowsRole(t *testing.T) {
	principal := &models.Principal{UserID: 1, Role: models.RoleSystemAdmin}
	r := rbacRouter(principal, string(models.RoleSystemAdmin))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/resource/5", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRBACForbidsRole(t *testing.T) {
	principal := &models.Principal{UserID: 1, Role: models.RoleStudentApp}
	r := rbacRouter(principal, string(models.RoleSystemAdmin), string(models.RoleTeacherApp))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/resource/5", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACRequiresPrincipal(t *testing.T) {
	r := rbacRouter(nil, string(models.RoleSystemAdmin))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/resource/5", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRBACSelfAccess(t *testing.T) {
	principal := &models.Principal{UserID: 1, Role: models.RoleStudentApp, PersonID: ptrInt64(5)}
	r := rbacRouter(principal, string(models.RoleSystemAdmin), SelfAccess)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/resource/5", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// A different person's resource stays forbidden.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/resource/6", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACSelfAccessNeedsLinkedPerson(t *testing.T) {
	principal := &models.Principal{UserID: 1, Role: models.RoleStudentApp}
	r := rbacRouter(principal, SelfAccess)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/resource/5", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

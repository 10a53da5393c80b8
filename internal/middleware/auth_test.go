package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/linkbio/internal/entity"
	userRepo "anoa.com/linkbio/internal/modules/user/repository"
	"anoa.com/linkbio/internal/session"
	"anoa.com/linkbio/internal/testutil"
	"github.com/gin-gonic/gin"
)

func TestRequireAuthAndAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, "admin", entity.RoleAdmin, "secret1")
	user := testutil.CreateUser(t, db, "ana", entity.RoleUser, "secret1")

	sessions := session.NewManager("mw-secret", time.Hour, false, userRepo.NewUserRepository(db))
	m := NewAuthMiddleware(sessions)

	router := gin.New()
	router.GET("/me", m.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	router.GET("/admin", m.RequireAuth(), m.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	adminToken, _, _ := sessions.Issue(admin.ID)
	userToken, _, _ := sessions.Issue(user.ID)

	cases := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"anonymous", "/me", "", http.StatusUnauthorized},
		{"garbage token", "/me", "not-a-jwt", http.StatusUnauthorized},
		{"user", "/me", userToken, http.StatusOK},
		{"user on admin route", "/admin", userToken, http.StatusForbidden},
		{"admin", "/admin", adminToken, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
			if tc.want == http.StatusOK && w.Body.String() != user.ID.String() {
				t.Errorf("user_id = %q, want %s", w.Body.String(), user.ID)
			}
		})
	}
}

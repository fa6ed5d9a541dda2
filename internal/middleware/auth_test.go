package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/utils"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-middleware-testing")
}

func serveWith(mw gin.HandlerFunc, header string) *httptest.ResponseRecorder {
	router := gin.New()
	router.Use(mw)
	router.GET("/probe", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"user_id":  GetUserID(c),
			"username": GetUsername(c),
			"role":     GetRole(c),
		})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/probe", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	token, err := utils.GenerateToken(7, "maintainer", "user", 24)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"no scheme", "sometoken", http.StatusUnauthorized},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"bare bearer", "Bearer", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := serveWith(AuthRequired(), tt.header); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestOptionalAuth_AnonymousPassesThrough(t *testing.T) {
	for _, header := range []string{"", "Bearer broken.token", "Basic abc"} {
		if w := serveWith(OptionalAuth(), header); w.Code != http.StatusOK {
			t.Errorf("header %q: status = %d, want %d", header, w.Code, http.StatusOK)
		}
	}
}

func TestOptionalAuth_SetsIdentity(t *testing.T) {
	token, _ := utils.GenerateToken(42, "viewer", "user", 24)

	router := gin.New()
	router.Use(OptionalAuth())
	var seenID uint
	router.GET("/probe", func(c *gin.Context) {
		seenID = GetUserID(c)
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if seenID != 42 {
		t.Errorf("user id = %d, want 42", seenID)
	}
}

func serveWithRole(mw gin.HandlerFunc, role string) *httptest.ResponseRecorder {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role != "" {
			c.Set(ContextRole, role)
		}
		c.Next()
	})
	router.Use(mw)
	router.GET("/probe", func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/probe", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRoleGates(t *testing.T) {
	tests := []struct {
		name string
		mw   gin.HandlerFunc
		role string
		want int
	}{
		{"admin gate, no role", AdminRequired(), "", http.StatusForbidden},
		{"admin gate, user", AdminRequired(), "user", http.StatusForbidden},
		{"admin gate, moderator", AdminRequired(), "moderator", http.StatusForbidden},
		{"admin gate, admin", AdminRequired(), "admin", http.StatusOK},
		{"moderator gate, no role", ModeratorRequired(), "", http.StatusForbidden},
		{"moderator gate, user", ModeratorRequired(), "user", http.StatusForbidden},
		{"moderator gate, moderator", ModeratorRequired(), "moderator", http.StatusOK},
		{"moderator gate, admin", ModeratorRequired(), "admin", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := serveWithRole(tt.mw, tt.role); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestContextAccessors_Defaults(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if id := GetUserID(c); id != 0 {
		t.Errorf("GetUserID on empty context = %d, want 0", id)
	}
	if name := GetUsername(c); name != "" {
		t.Errorf("GetUsername on empty context = %q, want empty", name)
	}
	if role := GetRole(c); role != "" {
		t.Errorf("GetRole on empty context = %q, want empty", role)
	}

	c.Set(ContextUserID, uint(9))
	c.Set(ContextUsername, "starlight")
	c.Set(ContextRole, "moderator")

	if id := GetUserID(c); id != 9 {
		t.Errorf("GetUserID = %d, want 9", id)
	}
	if name := GetUsername(c); name != "starlight" {
		t.Errorf("GetUsername = %q, want starlight", name)
	}
	if role := GetRole(c); role != "moderator" {
		t.Errorf("GetRole = %q, want moderator", role)
	}
}

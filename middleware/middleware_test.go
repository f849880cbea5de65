package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventboard-api/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func newIdentities(t *testing.T) *services.IdentityService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return services.NewIdentityService("test-secret", time.Hour, string(hash))
}

func newRouter(identities *services.IdentityService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(identities))
	r.GET("/whoami", func(c *gin.Context) {
		id, _ := CurrentIdentity(c)
		c.String(http.StatusOK, id.ID+"|"+string(id.Role))
	})
	r.GET("/mod", RequireModerator(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionMintsAndResumes(t *testing.T) {
	r := newRouter(newIdentities(t))

	first := get(r, "/whoami", "")
	token := first.Header().Get(SessionHeader)
	if token == "" {
		t.Fatal("no session token minted")
	}
	if !strings.HasSuffix(first.Body.String(), "|anonymous") {
		t.Errorf("identity = %q", first.Body.String())
	}

	again := get(r, "/whoami", token)
	if again.Header().Get(SessionHeader) != "" {
		t.Error("a resumed session should not mint a new token")
	}
	if again.Body.String() != first.Body.String() {
		t.Errorf("resumed %q, want %q", again.Body.String(), first.Body.String())
	}

	bad := get(r, "/whoami", "not-a-jwt")
	if bad.Header().Get(SessionHeader) == "" || bad.Body.String() == first.Body.String() {
		t.Error("an invalid token should be replaced by a fresh identity")
	}
}

func TestRequireModerator(t *testing.T) {
	identities := newIdentities(t)
	r := newRouter(identities)

	_, anon, _ := identities.MintAnonymous()
	if w := get(r, "/mod", anon); w.Code != http.StatusForbidden {
		t.Errorf("anonymous status = %d", w.Code)
	}

	_, mod, err := identities.MintModerator("letmein")
	if err != nil {
		t.Fatal(err)
	}
	if w := get(r, "/mod", mod); w.Code != http.StatusOK {
		t.Errorf("moderator status = %d", w.Code)
	}

	bare := gin.New()
	bare.GET("/mod", RequireModerator(), func(c *gin.Context) {})
	if w := get(bare, "/mod", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no session status = %d", w.Code)
	}
}

func TestValidateJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ValidateJSON())
	r.POST("/events", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name        string
		contentType string
		body        string
		want        int
	}{
		{"json", "application/json; charset=utf-8", `{}`, http.StatusNoContent},
		{"multipart", "multipart/form-data; boundary=x", "--x--", http.StatusNoContent},
		{"empty", "", "", http.StatusNoContent},
		{"text", "text/plain", "hello", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})

	w := get(r, "/fail", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.POST("/events", func(c *gin.Context) {})

	req := httptest.NewRequest(http.MethodOptions, "/events", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Expose-Headers") != SessionHeader {
		t.Error("session header not exposed")
	}
}
